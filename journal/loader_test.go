package journal

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveEquity(t *testing.T) {
	t.Parallel()

	ds := Derive(threeTrades(), 20000, zerolog.Nop())
	require.Len(t, ds.Entries, 3)

	var equity, cum []float64
	for _, e := range ds.Entries {
		equity = append(equity, e.Equity)
		cum = append(cum, e.CumulativeProfit)
	}
	assert.Equal(t, []float64{20100, 20050, 20250}, equity)
	assert.Equal(t, []float64{100, 50, 250}, cum)
	assert.Equal(t, 20000.0, ds.StartingBalance)
}

func TestDeriveDayAndHour(t *testing.T) {
	t.Parallel()

	trades := []Trade{
		sampleTrade("2024-05-02", "14:05:00", 1),
		sampleTrade("2024-05-06", "08:45", 1),
	}
	ds := Derive(trades, 1000, zerolog.Nop())

	assert.Equal(t, "Thursday", ds.Entries[0].DayName)
	assert.Equal(t, 14, ds.Entries[0].HourOfDay)
	assert.True(t, ds.Entries[0].HasHour)

	assert.Equal(t, "Monday", ds.Entries[1].DayName)
	assert.Equal(t, 8, ds.Entries[1].HourOfDay)
}

func TestDeriveUnrecognizedTime(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := zerolog.New(&buf)

	bad := sampleTrade("2024-05-01", "9am", 10)
	ds := Derive([]Trade{bad}, 20000, log)

	require.Len(t, ds.Entries, 1)
	assert.False(t, ds.Entries[0].HasHour)
	assert.Equal(t, 20010.0, ds.Entries[0].Equity)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "unrecognized time")
}

func TestLoadOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := NewWriter(s, ModePerRecord, 0).Write(ctx, []Trade{
		sampleTrade("2024-05-01", "09:00:00", 100),
		sampleTrade("2024-05-02", "09:30:00", -50),
		sampleTrade("2024-05-02", "10:00:00", 200),
	})
	require.NoError(t, err)

	ds := s.Load(ctx, 20000)
	require.Len(t, ds.Entries, 3)

	assert.Equal(t, "10:00:00", ds.Entries[0].Time)
	assert.Equal(t, "09:30:00", ds.Entries[1].Time)
	assert.Equal(t, "2024-05-01", ds.Entries[2].Date)
	assert.Equal(t, []float64{20200, 20150, 20250},
		[]float64{ds.Entries[0].Equity, ds.Entries[1].Equity, ds.Entries[2].Equity})
}

func TestLoadFailureYieldsEmpty(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	require.NoError(t, s.Close())

	ds := s.Load(context.Background(), 20000)
	assert.True(t, ds.Empty())
	assert.Equal(t, 20000.0, ds.StartingBalance)
}

func TestHourOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"09:31:00", 9, true},
		{"23:59", 23, true},
		{" 07:00:00 ", 7, true},
		{"25:00:00", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := HourOf(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

package journal

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTrades(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	short := sampleTrade("2024-05-03", "09:00:00", 40)
	short.Type = "Entry Short"
	_, err := NewWriter(s, ModeBatch, 10).Write(ctx, append(threeTrades(), short))
	require.NoError(t, err)

	all, err := s.ListTrades(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "2024-05-01", all[0].Date)
	assert.Equal(t, "09:00:00", all[0].Time)

	ranged, err := s.ListTrades(ctx, Filter{From: "2024-05-02", To: "2024-05-02"})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, 200.0, ranged[0].ProfitUSD)

	shorts, err := s.ListTrades(ctx, Filter{Type: "Entry Short"})
	require.NoError(t, err)
	require.Len(t, shorts, 1)

	limited, err := s.ListTrades(ctx, Filter{Symbol: "CL", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	trades := append(threeTrades(), sampleTrade("2024-05-03", "09:00:00", 0))
	s := Summarize(trades)

	assert.Equal(t, 4, s.Trades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.Equal(t, 250.0, s.NetProfit)
	assert.Equal(t, 300.0, s.GrossProfit)
	assert.Equal(t, 50.0, s.GrossLoss)
	assert.Equal(t, 6.0, s.ProfitFactor)
	assert.Equal(t, 6.96, s.Commission)

	assert.Equal(t, 0.0, Summarize(threeTrades()[2:]).ProfitFactor)
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, threeTrades()[:1]))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, CSVHeader, records[0])
	assert.Equal(t, []string{
		"CL", "Entry Long", "2024-05-01", "09:00:00", "1", "9", "0", "Wednesday",
		"18", "May", "2024", "2", "200.00", "1.74", "100.00", "Win",
		"1M Neocloud Micro", "Market Hours",
	}, records[1])
}

package journal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func threeTrades() []Trade {
	return []Trade{
		sampleTrade("2024-05-01", "09:00:00", 100),
		sampleTrade("2024-05-01", "10:15:00", -50),
		sampleTrade("2024-05-02", "09:30:00", 200),
	}
}

func TestWriterIdempotent(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{ModePerRecord, ModeBatch} {
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()

			s, _ := newTestStore(t)
			ctx := context.Background()
			w := NewWriter(s, mode, 2)

			rep, err := w.Write(ctx, threeTrades())
			require.NoError(t, err)
			assert.Equal(t, 3, rep.Inserted)
			assert.Equal(t, 0, rep.Skipped)

			rep, err = w.Write(ctx, threeTrades())
			require.NoError(t, err)
			assert.Equal(t, 0, rep.Inserted)
			assert.Equal(t, 3, rep.Skipped)

			n, err := s.CountTrades(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 3, n)
		})
	}
}

func TestWriterPerRecordReportsDuplicates(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()
	w := NewWriter(s, ModePerRecord, 0)

	_, err := w.Write(ctx, threeTrades()[:1])
	require.NoError(t, err)

	rep, err := w.Write(ctx, threeTrades())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Inserted)
	assert.Equal(t, 1, rep.Skipped)
	require.Len(t, rep.Duplicates, 1)
	assert.Equal(t, "09:00:00", rep.Duplicates[0].Time)
}

func TestWriterNaturalKeyIncludesProfit(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()
	w := NewWriter(s, ModePerRecord, 0)

	a := sampleTrade("2024-05-01", "09:00:00", 100)
	b := sampleTrade("2024-05-01", "09:00:00", 101)
	rep, err := w.Write(ctx, []Trade{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Inserted)
}

func TestWriterIntegrityViolationContinues(t *testing.T) {
	t.Parallel()

	bad := sampleTrade("2024-05-01", "11:00:00", 5)
	bad.WinLoss = "Draw"
	input := []Trade{
		sampleTrade("2024-05-01", "09:00:00", 100),
		bad,
		sampleTrade("2024-05-02", "09:30:00", 200),
	}

	tests := []struct {
		name         string
		mode         Mode
		batchSize    int
		wantInserted int
		wantFailed   int
	}{
		{"per record", ModePerRecord, 0, 2, 1},
		{"batch of one", ModeBatch, 1, 2, 1},
		{"single batch", ModeBatch, 10, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newTestStore(t)
			ctx := context.Background()

			rep, err := NewWriter(s, tt.mode, tt.batchSize).Write(ctx, input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantInserted, rep.Inserted)
			assert.Equal(t, tt.wantFailed, rep.Failed)
			require.Len(t, rep.Failures, tt.wantFailed)
			assert.True(t, IsIntegrityViolation(rep.Failures[0].Err))

			n, err := s.CountTrades(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, tt.wantInserted, n)
		})
	}
}

func TestWriterUnavailable(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	require.NoError(t, s.Close())

	rep, err := NewWriter(s, ModePerRecord, 0).Write(context.Background(), threeTrades())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 0, rep.Inserted)
}

func TestWriterUnknownMode(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	_, err := NewWriter(s, Mode("bulk"), 0).Write(context.Background(), threeTrades())
	assert.Error(t, err)
}

func TestIsIntegrityViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"gorm duplicate", gorm.ErrDuplicatedKey, true},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, true},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, false},
		{"postgres unique", &pgconn.PgError{Code: "23505"}, true},
		{"postgres check wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23514"}), true},
		{"postgres undefined table", &pgconn.PgError{Code: "42P01"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsIntegrityViolation(tt.err))
		})
	}
}

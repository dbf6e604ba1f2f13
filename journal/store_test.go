package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradeview/config"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(context.Background(), path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func sampleTrade(date, clock string, profit float64) Trade {
	return Trade{
		Symbol:        "CL",
		Type:          "Entry Long",
		Date:          date,
		Time:          clock,
		Day:           1,
		Hour:          9,
		Weekday:       "Wednesday",
		WeekNum:       18,
		Month:         "May",
		Year:          2024,
		Contracts:     2,
		Margin:        200,
		Commission:    1.74,
		ProfitUSD:     profit,
		WinLoss:       ClassifyProfit(profit),
		Strategy:      "1M Neocloud Micro",
		MarketSession: MarketHours,
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE name IN ('trades','ingest_runs','idx_trades_natural_key')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["ingest_runs"])
	assert.True(t, found["idx_trades_natural_key"])
}

func TestSQLiteTradeColumns(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM pragma_table_info('trades')`)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())

	for _, want := range CSVHeader {
		assert.Contains(t, cols, want)
	}
}

func TestOpenReusesExistingSchema(t *testing.T) {
	t.Parallel()

	s, path := newTestStore(t)
	_, err := NewWriter(s, ModePerRecord, 0).Write(context.Background(), []Trade{sampleTrade("2024-05-01", "09:00:00", 10)})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	again, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", Path: path}, config.Credentials{}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = again.Close() })

	n, err := again.CountTrades(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"}, config.Credentials{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestOpenUnreachableDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "dir", "test.db")
	_, err := OpenSQLite(context.Background(), path, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRecordAndListRuns(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)

	first := Run{
		RunID:      "01HWX0000000000000000000A1",
		SourceFile: "a.csv",
		Mode:       string(ModePerRecord),
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		RowsRead:   10,
		Inserted:   4,
		Skipped:    1,
	}
	second := first
	second.RunID = "01HWX0000000000000000000B2"
	second.SourceFile = "b.csv"

	require.NoError(t, s.RecordRun(ctx, first))
	require.NoError(t, s.RecordRun(ctx, second))

	got, err := s.GetRun(ctx, first.RunID)
	require.NoError(t, err)
	assert.Equal(t, "a.csv", got.SourceFile)
	assert.Equal(t, 4, got.Inserted)
	assert.Equal(t, 2*time.Second, got.Duration())

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].RunID)

	_, err = s.GetRun(ctx, "nope")
	assert.Error(t, err)

	assert.ErrorIs(t, s.RecordRun(ctx, first), ErrUnavailable)
}

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rustyeddy/tradeview/journal"
)

const testExport = "Trade #,Type,Signal,Date/Time,Price USD,Contracts,Profit USD,Profit %,Cum. Profit USD,Cum. Profit %,Run-up USD,Run-up %,Drawdown USD,Drawdown %\n" +
	"1,Entry Long,Long,2024-05-06 09:31,77.35,2,150.00,0.5,150,0.5,200,0.6,-20,-0.1\n" +
	"1,Exit Long,Close,2024-05-06 09:45,78.10,2,150.00,0.5,150,0.5,200,0.6,-20,-0.1\n" +
	"2,Entry Short,Short,2024-05-07 10:02,78.00,1,-40,0,110,0.5,10,0.1,-50,-0.1\n" +
	"2,Exit Short,Close,2024-05-07 10:20,78.40,1,-40,0,110,0.5,10,0.1,-50,-0.1\n"

// writeTestConfig points the database at a temp sqlite file.
func writeTestConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()

	dir := t.TempDir()
	dbPath = filepath.Join(dir, "trades.db")
	cfgPath = filepath.Join(dir, "tradeview.yaml")
	body := "database:\n  driver: sqlite\n  path: " + dbPath + "\n" +
		"ingest:\n  directory: " + dir + "\n" +
		"logging:\n  level: error\n  format: json\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0644))
	return cfgPath, dbPath
}

func execute(t *testing.T, args ...string) error {
	t.Helper()

	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestLoadConfigFallsBackToDefault(t *testing.T) {
	c := &cobra.Command{}
	c.Flags().String("config", "", "")

	configPath = filepath.Join(t.TempDir(), "absent.yaml")
	t.Cleanup(func() { configPath = defaultConfigPath })

	cfg, err := loadConfig(c)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)

	require.NoError(t, c.Flags().Set("config", configPath))
	_, err = loadConfig(c)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIngestReportAndSweep(t *testing.T) {
	cfgPath, dbPath := writeTestConfig(t)

	export := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(export, []byte(testExport), 0644))

	require.NoError(t, execute(t, "--config", cfgPath, "ingest", export))
	require.NoError(t, execute(t, "--config", cfgPath, "ingest", export, "--mode", "batch"))

	store, err := journal.OpenSQLite(context.Background(), dbPath, zerolog.Nop())
	require.NoError(t, err)
	n, err := store.CountTrades(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	require.NoError(t, store.Close())

	out := filepath.Join(t.TempDir(), "weekly.xlsx")
	require.NoError(t, execute(t, "--config", cfgPath, "report", "--grouping", "weeknum", "--output", out))
	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	rows, err := f.GetRows("Performance")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	require.NoError(t, f.Close())

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2024-05-06"), 0755))
	require.NoError(t, os.Rename(export, filepath.Join(root, "2024-05-06", "export.csv")))
	trash := filepath.Join(t.TempDir(), "Trash")
	require.NoError(t, execute(t, "--config", cfgPath, "sweep", root, "--trash", trash))
	assert.FileExists(t, filepath.Join(trash, "files", "export.csv"))
	assert.NoFileExists(t, filepath.Join(root, "2024-05-06", "export.csv"))
}

func TestReportRejectsUnknownGrouping(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	assert.Error(t, execute(t, "--config", cfgPath, "report", "--grouping", "month"))
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:8050", displayAddr(":8050"))
	assert.Equal(t, "0.0.0.0:80", displayAddr("0.0.0.0:80"))
}

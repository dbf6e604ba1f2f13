package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeview/analysis"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the performance table to an .xlsx workbook",
	Long: `Aggregate every stored trade by a grouping crossed with the hour of
entry and write the table, plus the trade list, to an Excel workbook.

Groupings: day (default), date, weekday, weeknum, type

Example:
  tradeview report --grouping weeknum --output weekly.xlsx`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var (
	reportGrouping string
	reportOutput   string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportGrouping, "grouping", "g", "day", "row grouping")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "performance.xlsx", "workbook path")
}

func runReport(cmd *cobra.Command, args []string) (err error) {
	g, err := analysis.ParseGrouping(reportGrouping)
	if err != nil {
		return err
	}

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	ds := store.Load(cmd.Context(), cfg.Dashboard.StartingBalance)
	store.Close()
	if ds.Empty() {
		return errors.New("no trades in store, run ingest first")
	}

	table := analysis.Build(ds.Entries, g)

	f, err := os.Create(reportOutput)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
	}()

	if err := analysis.WriteWorkbook(f, table, ds.Entries); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	fmt.Printf("✓ Wrote %s: %d %s rows from %d trades\n", reportOutput, len(table.Rows), g, len(ds.Entries))
	if table.Excluded > 0 {
		fmt.Printf("  %d trades without a recognizable hour were left out of the table\n", table.Excluded)
	}
	return nil
}

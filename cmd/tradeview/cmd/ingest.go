package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeview/ingest"
	"github.com/rustyeddy/tradeview/journal"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [export.csv]",
	Short: "Load a trade-list export into the trade store",
	Long: `Normalize a trade-list export and write its trades to the store.

Without an argument the newest export for today is taken from the configured
directory, widening once to the lookback window when today has none. Trades
already stored are skipped, so re-running an ingest is safe.

Examples:
  tradeview ingest
  tradeview ingest ~/Downloads/export.csv --mode batch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

var (
	ingestDir  string
	ingestMode string
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&ingestDir, "dir", "d", "", "directory to search for exports (default from config)")
	ingestCmd.Flags().StringVarP(&ingestMode, "mode", "m", "", "write mode: per_record or batch (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if ingestDir != "" {
		cfg.Ingest.Directory = ingestDir
	}
	if ingestMode != "" {
		cfg.Ingest.Mode = ingestMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	clock, err := ingest.NewSessionClock(cfg.Session)
	if err != nil {
		return fmt.Errorf("session clock: %w", err)
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	p := ingest.NewPipeline(
		ingest.NewLocator(cfg.Ingest.Directory, cfg.Ingest.FilePrefix, cfg.Ingest.LookbackDays),
		ingest.NewNormalizer(cfg.Ingest, clock),
		journal.NewWriter(store, journal.Mode(cfg.Ingest.Mode), cfg.Ingest.BatchSize),
		store,
		cfg.Ingest.Mode,
		log,
	)

	var path string
	if len(args) == 1 {
		path = args[0]
	}
	out, err := p.Run(ctx, path)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	run := out.Run
	fmt.Printf("✓ Ingested %s (run %s)\n", out.Path, run.RunID)
	if out.Widened {
		fmt.Printf("  No export for today, used the %d-day lookback\n", cfg.Ingest.LookbackDays)
	}
	fmt.Printf("  Rows: %d read, %d exit rows removed, %d incomplete dropped\n",
		run.RowsRead, run.ExitRowsRemoved, run.IncompleteDropped)
	fmt.Printf("  Trades: %d inserted, %d skipped, %d failed\n", run.Inserted, run.Skipped, run.Failed)
	fmt.Printf("  Took %s\n", run.Duration())
	return nil
}

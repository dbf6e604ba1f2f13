package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeview/journal"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List stored trades",
	Long: `Query the trade store and print the matching trades.

The default output is a one-line-per-trade listing with a summary. Use --org
for org-mode entries or --csv for the storage columns as CSV.

Subcommands:
  runs  - List recent ingestion runs

Examples:
  tradeview trades --from 2024-05-01 --to 2024-05-31
  tradeview trades --type "Entry Long" --org
  tradeview trades runs`,
	Args: cobra.NoArgs,
	RunE: runTrades,
}

var tradesRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingestion runs",
	Args:  cobra.NoArgs,
	RunE:  runTradesRuns,
}

var (
	tradesFilter journal.Filter
	tradesOrg    bool
	tradesCSV    bool
	runsLimit    int
)

func init() {
	rootCmd.AddCommand(tradesCmd)
	tradesCmd.AddCommand(tradesRunsCmd)

	tradesCmd.Flags().StringVar(&tradesFilter.Symbol, "symbol", "", "only this symbol")
	tradesCmd.Flags().StringVar(&tradesFilter.Type, "type", "", `only this trade type, e.g. "Entry Long"`)
	tradesCmd.Flags().StringVar(&tradesFilter.From, "from", "", "first date, YYYY-MM-DD")
	tradesCmd.Flags().StringVar(&tradesFilter.To, "to", "", "last date, YYYY-MM-DD")
	tradesCmd.Flags().IntVarP(&tradesFilter.Limit, "limit", "l", 0, "maximum trades to list (0 for all)")
	tradesCmd.Flags().BoolVar(&tradesOrg, "org", false, "print org-mode entries")
	tradesCmd.Flags().BoolVar(&tradesCSV, "csv", false, "print CSV")
	tradesCmd.MarkFlagsMutuallyExclusive("org", "csv")

	tradesRunsCmd.Flags().IntVarP(&runsLimit, "limit", "l", 20, "number of runs to list")
}

func runTrades(cmd *cobra.Command, args []string) error {
	for _, d := range []string{tradesFilter.From, tradesFilter.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return fmt.Errorf("date: %w", err)
		}
	}

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	trades, err := store.ListTrades(cmd.Context(), tradesFilter)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	switch {
	case tradesOrg:
		fmt.Println(journal.FormatTradesOrg(trades))
		return nil
	case tradesCSV:
		return journal.WriteCSV(os.Stdout, trades)
	}

	for _, t := range trades {
		fmt.Printf("%s %s  %-6s %-12s %3d  %10.2f  %s\n",
			t.Date, t.Time, t.Symbol, t.Type, t.Contracts, t.ProfitUSD, t.WinLoss)
	}
	s := journal.Summarize(trades)
	fmt.Printf("\n%d trades: %d wins, %d losses\n", s.Trades, s.Wins, s.Losses)
	fmt.Printf("  Net: $%.2f  Gross profit: $%.2f  Gross loss: $%.2f\n", s.NetProfit, s.GrossProfit, s.GrossLoss)
	fmt.Printf("  Profit factor: %.2f  Commission: $%.2f\n", s.ProfitFactor, s.Commission)
	return nil
}

func runTradesRuns(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No ingestion runs recorded")
		return nil
	}

	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "failed: " + r.Error
		}
		fmt.Printf("%s  %s  %-10s ins=%d skip=%d fail=%d  %s\n  %s\n",
			r.RunID, r.StartedAt.Local().Format(time.DateTime), r.Mode,
			r.Inserted, r.Skipped, r.Failed, status, r.SourceFile)
	}
	return nil
}

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeview/dashboard"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the performance dashboard",
	Long: `Load every stored trade and serve the dashboard: the equity curve,
the day and hour performance table and the sortable trade list.

The trades are read once at startup. Restart after ingesting to see new rows.

Example:
  tradeview serve --addr :8050`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Dashboard.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	ds := store.Load(ctx, cfg.Dashboard.StartingBalance)
	store.Close()

	if ds.Empty() {
		log.Error().Msg("no trades to display")
		return errors.New("no trades in store, run ingest first")
	}
	log.Info().Int("trades", len(ds.Entries)).Msg("trades loaded")

	presenter := dashboard.NewPresenter(ds, cfg.Dashboard.PerformancePageSize, cfg.Dashboard.TradePageSize)
	srv, err := dashboard.NewServer(presenter, log)
	if err != nil {
		return err
	}

	fmt.Printf("Dashboard on http://%s (Ctrl-C to stop)\n", displayAddr(cfg.Dashboard.Addr))
	return srv.ListenAndServe(ctx, cfg.Dashboard.Addr)
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

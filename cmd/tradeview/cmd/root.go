package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeview/config"
	"github.com/rustyeddy/tradeview/internal/logging"
	"github.com/rustyeddy/tradeview/journal"
)

const defaultConfigPath = "tradeview.yaml"

var rootCmd = &cobra.Command{
	Use:   "tradeview",
	Short: "Trade log ingestion and performance dashboard",
	Long: `Tradeview loads the daily trade-list exports of a backtesting tool into a
relational store and serves a dashboard for reviewing them.

It provides tools for:
  - Ingesting the newest export (or a given file) into the trade store
  - Serving the equity curve and day/hour performance dashboard
  - Listing stored trades and ingestion runs
  - Writing the performance table to an .xlsx workbook
  - Sweeping processed exports from the download folders`,
	SilenceUsage: true,
}

var (
	configPath string
	envFile    string
	logLevel   string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file holding POSTGRES_USER and POSTGRES_PASSWORD")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// loadConfig reads the config file. The default path may be absent, in
// which case the built-in defaults apply.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFromFile(configPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setup loads the config and builds the logger every command uses.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}

// openStore connects to the configured database. Credentials are only read
// for drivers that need them.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*journal.Store, error) {
	var creds config.Credentials
	if cfg.Database.NeedsCredentials() {
		var err error
		if creds, err = config.LoadCredentials(envFile); err != nil {
			log.Error().Err(err).Msg("database credentials")
			return nil, err
		}
	}

	s, err := journal.Open(ctx, cfg.Database, creds, log)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("open trade store")
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

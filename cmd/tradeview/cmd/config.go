package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeview/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage tradeview configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  tradeview config init --output tradeview.yaml
  tradeview config validate --file tradeview.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  tradeview config init --output tradeview.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  tradeview config validate --file tradeview.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", defaultConfigPath, "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file, put POSTGRES_USER and POSTGRES_PASSWORD in .env, then run:")
	fmt.Printf("  tradeview ingest --config %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	if cfg.Database.Driver == "sqlite" {
		fmt.Printf("  Database: sqlite %s\n", cfg.Database.Path)
	} else {
		fmt.Printf("  Database: %s %s:%d/%s\n", cfg.Database.Driver, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	}
	fmt.Printf("  Ingest: %s, symbol %s, %s mode\n", cfg.Ingest.Directory, cfg.Ingest.Symbol, cfg.Ingest.Mode)
	fmt.Printf("  Session: %s-%s %s\n", cfg.Session.Open, cfg.Session.Close, cfg.Session.ExchangeTimezone)
	fmt.Printf("  Dashboard: %s, starting balance $%.2f\n", cfg.Dashboard.Addr, cfg.Dashboard.StartingBalance)
	return nil
}

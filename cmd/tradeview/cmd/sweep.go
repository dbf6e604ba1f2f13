package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeview/sweep"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [root]",
	Short: "Move processed exports to the trash",
	Long: `Visit each folder directly under root. A folder holding exactly one
visible file has that file moved to the trash. Empty folders and folders
with several files are reported and left alone.

Examples:
  tradeview sweep ~/Desktop/Tradingview-Files
  tradeview sweep --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSweep,
}

var (
	sweepTrash  string
	sweepDryRun bool
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&sweepTrash, "trash", "t", "", "trash directory (default from config, then the system trash)")
	sweepCmd.Flags().BoolVarP(&sweepDryRun, "dry-run", "n", false, "report what would be trashed without moving anything")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	root := cfg.Sweep.Root
	if len(args) == 1 {
		root = args[0]
	}
	if root == "" {
		return errors.New("no sweep root: pass one or set sweep.root in the config")
	}

	dir := cfg.Sweep.TrashDir
	if sweepTrash != "" {
		dir = sweepTrash
	}
	trash, err := sweep.NewTrash(dir)
	if err != nil {
		return err
	}

	results, err := sweep.New(trash, sweepDryRun, log).Sweep(cmd.Context(), root)
	if err != nil {
		log.Error().Err(err).Str("root", root).Msg("sweep")
		return err
	}

	for _, r := range results {
		switch r.Status {
		case sweep.Trashed:
			fmt.Printf("✓ %s: moved %s to the trash\n", r.Folder, r.Files[0])
		case sweep.WouldTrash:
			fmt.Printf("  %s: would move %s to the trash\n", r.Folder, r.Files[0])
		case sweep.Empty:
			fmt.Printf("  %s: no visible files\n", r.Folder)
		case sweep.Ambiguous:
			fmt.Printf("✗ %s: %d visible files, skipped\n", r.Folder, len(r.Files))
			for _, f := range r.Files {
				fmt.Printf("    - %s\n", f)
			}
		default:
			fmt.Printf("✗ %s: %v\n", r.Folder, r.Err)
		}
	}

	t := sweep.Tally(results)
	fmt.Printf("\n%d folders: %d trashed, %d would trash, %d empty, %d ambiguous, %d errors\n",
		len(results), t[sweep.Trashed], t[sweep.WouldTrash], t[sweep.Empty], t[sweep.Ambiguous],
		t[sweep.Failed]+t[sweep.Missing])
	return nil
}

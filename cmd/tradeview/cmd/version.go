package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// version is stamped at release time:
//
//	go build -ldflags "-X github.com/rustyeddy/tradeview/cmd/tradeview/cmd.version=v1.2.0"
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Long: `Display the tradeview version, the Go toolchain it was built with and,
for builds from a git checkout, the commit and whether the tree was dirty.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		fmt.Print(versionInfo(info))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// versionInfo renders the version banner. info may be nil when the binary
// carries no build information.
func versionInfo(info *debug.BuildInfo) string {
	v := version
	if v == "dev" && info != nil && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}

	var b strings.Builder
	fmt.Fprintf(&b, "tradeview %s\n", v)
	if info == nil {
		fmt.Fprintf(&b, "  go:       %s\n", runtime.Version())
		return b.String()
	}
	fmt.Fprintf(&b, "  go:       %s\n", info.GoVersion)

	var rev, at string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.time":
			at = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev != "" {
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if dirty {
			rev += " (modified)"
		}
		fmt.Fprintf(&b, "  commit:   %s\n", rev)
	}
	if at != "" {
		fmt.Fprintf(&b, "  built:    %s\n", at)
	}
	return b.String()
}

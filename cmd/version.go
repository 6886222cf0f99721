package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pagewatch/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for pagewatch including the release,
commit, build time, Go version, and target platform.

Examples:
  pagewatch version                # Show version
  pagewatch version --short        # Version number only
  pagewatch version --format json  # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, _ []string) error {
	return printVersion(cmd.OutOrStdout(), version.Get(), versionFormat, versionShort)
}

func printVersion(w io.Writer, info version.Info, format string, short bool) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(info)
	case "text":
		if short {
			fmt.Fprintln(w, info.Short())
			return nil
		}
		fmt.Fprintln(w, info.String())

		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
	}
}

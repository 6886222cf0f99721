package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/pagewatch/internal/config"
	"github.com/conneroisu/pagewatch/internal/logging"
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Write a grouped listing of the pages in a directory",
	Long: `Scan a directory for .html pages and write a linked, grouped listing to
index.html in the same directory. Groups come from index.groups in the
configuration or from --groups-file; pages no group claims are listed
under Uncategorized. Empty groups are kept as placeholders.

Examples:
  pagewatch index                          # List pages in index.dir
  pagewatch index tests                    # List pages in tests/
  pagewatch index --groups-file groups.yml --title "Widget Gallery"`,
	Args: cobra.MaximumNArgs(1),
	PreRun: func(cmd *cobra.Command, _ []string) {
		bindFlags(cmd.Flags(), indexFlagBindings)
	},
	RunE: runIndex,
}

var indexFlagBindings = []flagBinding{
	{"output", "index.output"},
	{"title", "index.title"},
	{"stylesheet", "index.stylesheet"},
	{"groups-file", "index.groups_file"},
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringP("output", "o", "index.html", "Output file name, written inside the directory")
	indexCmd.Flags().String("title", "Components", "Document title")
	indexCmd.Flags().String("stylesheet", "style.css", "Stylesheet linked from the listing (empty for none)")
	indexCmd.Flags().String("groups-file", "", "YAML file defining listing groups")
}

func runIndex(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		viper.Set("index.dir", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	return writeIndex(cmd.Context(), cfg, newLogger(cfg, cmd), cmd.OutOrStdout())
}

// writeIndex renders the grouped listing for cfg.Index.Dir.
func writeIndex(ctx context.Context, cfg *config.Config, logger logging.Logger, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	op := logging.StartOperation(logger, "index")
	output := indexOutputPath(cfg)
	if err := generator.WriteIndexFile(ctx, cfg.Index.Dir, output); err != nil {
		op.EndWithError(ctx, err, "index not written", "output", output)
		return err
	}

	op.End(ctx, "index written",
		"dir", cfg.Index.Dir,
		"output", output,
		"groups", len(generator.Options().Groups))
	fmt.Fprintf(out, "Wrote %s\n", output)

	return nil
}

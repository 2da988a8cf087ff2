package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/docextract/internal/boxes"
	"github.com/spf13/cobra"
)

// mergeCmd represents the merge command.
var mergeCmd = &cobra.Command{
	Use:   "merge [file]",
	Short: "Merge overlapping rectangles",
	Long: `Read a list of rectangles [x1, y1, x2, y2] as JSON or YAML and print the
merged rectangles. Input is read from stdin when no file or "-" is given.

Degenerate, inverted and duplicate input rectangles are reported as warnings.

Examples:
  docextract merge boxes.json
  echo '[[0,0,10,10],[5,5,15,15]]' | docextract merge --format text
  docextract merge boxes.yaml --strategy fixed-point --validation normalize`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringP("format", "f", "json", "output format (json, yaml, text)")
	mergeCmd.Flags().String("strategy", "single-pass", "merge strategy (single-pass, fixed-point)")
	mergeCmd.Flags().String("validation", "passthrough", "invalid rectangle policy (passthrough, reject, normalize)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	strategyName, validationName := cfg.Merge.Strategy, cfg.Merge.Validation
	if cmd.Flags().Changed("strategy") {
		strategyName, _ = cmd.Flags().GetString("strategy")
	}
	if cmd.Flags().Changed("validation") {
		validationName, _ = cmd.Flags().GetString("validation")
	}
	format, _ := cmd.Flags().GetString("format")

	strategy, err := boxes.ParseStrategy(strategyName)
	if err != nil {
		return err
	}
	validation, err := boxes.ParseValidation(validationName)
	if err != nil {
		return err
	}

	rects, err := readRectsArg(cmd, args)
	if err != nil {
		return err
	}

	for _, issue := range boxes.Classify(rects) {
		attrs := []any{"index", issue.Index, "rect", issue.Rect.String(), "kind", issue.Kind}
		if issue.Kind == boxes.Duplicate {
			attrs = append(attrs, "of", issue.Of)
		}
		slog.Warn("Suspicious input rectangle", attrs...)
	}

	merged, err := boxes.NewMerger(strategy, validation).Merge(rects)
	if err != nil {
		return err
	}
	slog.Debug("Merged rectangles", "input", len(rects), "output", len(merged), "strategy", strategy)

	return boxes.WriteRects(cmd.OutOrStdout(), merged, format)
}

func readRectsArg(cmd *cobra.Command, args []string) ([]boxes.Rect, error) {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		if err := ensureFileArg(args[0]); err != nil {
			return nil, err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	return boxes.ReadRects(in)
}

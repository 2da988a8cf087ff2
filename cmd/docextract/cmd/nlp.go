package cmd

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/docextract/internal/nlp"
	"github.com/MeKo-Tech/docextract/internal/pdf"
	"github.com/spf13/cobra"
)

// nlpCmd represents the nlp command.
var nlpCmd = &cobra.Command{
	Use:   "nlp",
	Short: "Print token and entity tables for contract text",
	Long: `Tokenize and tag text, then print a token table (text, part of speech,
tag, entity IOB label) followed by the named entities. Whitespace and
punctuation tokens are skipped.

Without --text or --pdf the built-in "Threshold Amount" clause is analyzed.

Examples:
  docextract nlp
  docextract nlp --text "Party A shall pay USD 50,000,000."
  docextract nlp --pdf contract.pdf --page 32`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runNLP,
}

func init() {
	rootCmd.AddCommand(nlpCmd)

	nlpCmd.Flags().String("text", "", "text to analyze")
	nlpCmd.Flags().String("pdf", "", "read the text layer of this PDF")
	nlpCmd.Flags().Int("page", 1, "page of --pdf to analyze")
	nlpCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
}

func runNLP(cmd *cobra.Command, _ []string) error {
	text, _ := cmd.Flags().GetString("text")
	file, _ := cmd.Flags().GetString("pdf")
	page, _ := cmd.Flags().GetInt("page")
	format, _ := cmd.Flags().GetString("format")

	switch {
	case text != "" && file != "":
		return errors.New("--text and --pdf are mutually exclusive")
	case file != "":
		if err := ensureFileArg(file); err != nil {
			return err
		}
		extraction, err := pdf.NewTextExtractor(0).ExtractPage(file, page)
		if err != nil {
			return err
		}
		text = extraction.Text
	case text == "":
		text = nlp.SampleText
	}

	analysis, err := nlp.Analyze(text)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return analysis.WriteJSON(out)
	case "text", "":
		if err := analysis.WriteTokens(out); err != nil {
			return err
		}
		return analysis.WriteEntities(out)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

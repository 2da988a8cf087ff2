package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/docextract/internal/config"
	"github.com/MeKo-Tech/docextract/internal/metrics"
	"github.com/MeKo-Tech/docextract/internal/pdf"
	"github.com/MeKo-Tech/docextract/internal/pipeline"
	"github.com/spf13/cobra"
)

// extractCmd represents the extract command.
var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Detect, crop and collect rectangular regions of PDF pages",
	Long: `Render the selected pages of a PDF, detect rectangular regions, merge
overlapping detections and write each region as pg<N>_bbox_<i>.png. All crops
are then assembled into a new PDF, one region per page.

Examples:
  docextract extract contract.pdf --pages 32
  docextract extract scan.pdf --pages 1-5 --overlay --out-dir crops
  docextract extract scan.pdf --strategy fixed-point --format json`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	// Rendering
	extractCmd.Flags().String("pages", "", "page range to process (e.g. '32', '1-5', '1,3,5-7'; default all)")
	extractCmd.Flags().Int("dpi", pdf.DefaultDPI, "rasterization resolution")
	extractCmd.Flags().String("backend", string(pdf.BackendFitz), "page source (fitz, embedded)")
	extractCmd.Flags().StringP("password", "p", "", "user password for encrypted PDFs")
	extractCmd.Flags().String("owner-password", "", "owner password for encrypted PDFs")

	// Detection and merging
	extractCmd.Flags().Float64("min-area", 5000, "minimum region area in pixels")
	extractCmd.Flags().Float64("blur", 1.0, "Gaussian blur sigma before edge detection (0 disables)")
	extractCmd.Flags().Float64("canny-low", 50, "lower hysteresis threshold")
	extractCmd.Flags().Float64("canny-high", 150, "upper hysteresis threshold")
	extractCmd.Flags().String("morphology", "none", "edge mask operation (none, dilate, erode, closing)")
	extractCmd.Flags().String("strategy", "single-pass", "merge strategy (single-pass, fixed-point)")
	extractCmd.Flags().String("validation", "passthrough", "invalid rectangle policy (passthrough, reject, normalize)")

	// Output
	extractCmd.Flags().String("out-dir", ".", "directory for cropped images and overlays")
	extractCmd.Flags().StringP("output", "o", pipeline.DefaultOutputPDF, "assembled PDF path")
	extractCmd.Flags().Bool("no-pdf", false, "write crops only, skip PDF assembly")
	extractCmd.Flags().String("assembler", "gofpdf", "PDF writer (gofpdf, pdfcpu)")
	extractCmd.Flags().Bool("overlay", false, "write pg<N>_overlay.png with detected and merged boxes")
	extractCmd.Flags().Bool("save-pages", false, "write the rendered page as pg<N>.png")
	extractCmd.Flags().StringP("format", "f", "text", "summary format (text, json)")
	extractCmd.Flags().Int("workers", 0, "concurrent page workers (0=NumCPU)")
	extractCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile")
	extractCmd.Flags().Bool("progress", false, "show a progress bar on stderr")
}

// applyExtractFlags overlays explicitly set flags on the central configuration.
func applyExtractFlags(cfg *config.Config, cmd *cobra.Command) {
	setFloat64WithFlag := func(flagName string, target *float64) {
		if cmd.Flags().Changed(flagName) {
			*target, _ = cmd.Flags().GetFloat64(flagName)
		}
	}
	setStringWithFlag := func(flagName string, target *string) {
		if cmd.Flags().Changed(flagName) {
			*target, _ = cmd.Flags().GetString(flagName)
		}
	}
	setIntWithFlag := func(flagName string, target *int) {
		if cmd.Flags().Changed(flagName) {
			*target, _ = cmd.Flags().GetInt(flagName)
		}
	}
	setBoolWithFlag := func(flagName string, target *bool) {
		if cmd.Flags().Changed(flagName) {
			*target, _ = cmd.Flags().GetBool(flagName)
		}
	}

	setStringWithFlag("pages", &cfg.Render.Pages)
	setIntWithFlag("dpi", &cfg.Render.DPI)
	setStringWithFlag("backend", &cfg.Render.Backend)
	setStringWithFlag("password", &cfg.Render.Password)
	setStringWithFlag("owner-password", &cfg.Render.OwnerPassword)

	setFloat64WithFlag("min-area", &cfg.Detector.MinArea)
	setFloat64WithFlag("blur", &cfg.Detector.BlurSigma)
	setFloat64WithFlag("canny-low", &cfg.Detector.CannyLow)
	setFloat64WithFlag("canny-high", &cfg.Detector.CannyHigh)
	setStringWithFlag("morphology", &cfg.Detector.Morphology)
	setStringWithFlag("strategy", &cfg.Merge.Strategy)
	setStringWithFlag("validation", &cfg.Merge.Validation)

	setStringWithFlag("out-dir", &cfg.Output.Dir)
	setStringWithFlag("output", &cfg.Output.PDF)
	setStringWithFlag("assembler", &cfg.Assembler)
	setBoolWithFlag("overlay", &cfg.Output.Overlay)
	setBoolWithFlag("save-pages", &cfg.Output.SavePages)
	setStringWithFlag("format", &cfg.Output.Format)
	setStringWithFlag("metrics-file", &cfg.MetricsFile)
	if cmd.Flags().Changed("workers") {
		if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
			cfg.Workers = n
		}
	}
	if noPDF, _ := cmd.Flags().GetBool("no-pdf"); noPDF {
		cfg.Output.PDF = ""
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	if err := ensureFileArg(args[0]); err != nil {
		return err
	}
	cfg := *GetConfig()
	applyExtractFlags(&cfg, cmd)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	pipeCfg, err := cfg.ToPipelineConfig()
	if err != nil {
		return err
	}

	builder := pipeline.NewBuilder().WithConfig(pipeCfg)
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		builder.WithProgressCallback(pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Extracting "))
	} else {
		builder.WithProgressCallback(pipeline.NewLogProgressCallback(slog.Default(), slog.LevelDebug))
	}

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
		builder.WithObserver(recorder)
	}

	p, err := builder.Build()
	if err != nil {
		return err
	}

	res, err := p.Process(cmd.Context(), args[0])
	if recorder != nil {
		recorder.ObserveDocument(res, err)
		if werr := recorder.WriteToTextfile(cfg.MetricsFile); werr != nil {
			slog.Warn("Failed to write metrics", "file", cfg.MetricsFile, "error", werr)
		}
	}
	if err != nil {
		if errors.Is(err, pdf.ErrEncrypted) {
			return fmt.Errorf("%w (use --password)", err)
		}
		return err
	}

	if cfg.Output.Format == "json" {
		return res.WriteJSON(cmd.OutOrStdout())
	}
	return res.WriteText(cmd.OutOrStdout())
}

// ensureFileArg checks that an input file exists before heavier work starts.
func ensureFileArg(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

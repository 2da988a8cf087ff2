package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/MeKo-Tech/docextract/internal/assemble"
	"github.com/MeKo-Tech/docextract/internal/boxes"
	"github.com/MeKo-Tech/docextract/internal/detector"
	"github.com/MeKo-Tech/docextract/internal/pdf"
	"github.com/MeKo-Tech/docextract/internal/pipeline"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Render: RenderConfig{
			DPI:     pdf.DefaultDPI,
			Backend: string(pdf.BackendFitz),
		},
		Detector: defaultDetectorConfig(),
		Merge: MergeConfig{
			Strategy:   string(boxes.SinglePass),
			Validation: string(boxes.Passthrough),
		},
		Output: OutputConfig{
			Dir:          ".",
			PDF:          pipeline.DefaultOutputPDF,
			Format:       "text",
			OverlayColor: "#FF0000",
			PageSize:     assemble.DefaultOptions().PageSize,
		},
		Assembler: string(assemble.BackendGofpdf),
		Workers:   runtime.NumCPU(),
	}
}

// defaultDetectorConfig returns default detector configuration.
func defaultDetectorConfig() DetectorConfig {
	cfg := detector.DefaultConfig()
	return DetectorConfig{
		BlurSigma:       cfg.BlurSigma,
		CannyLow:        cfg.CannyLow,
		CannyHigh:       cfg.CannyHigh,
		ApproxEpsilon:   cfg.ApproxEpsilon,
		MinArea:         cfg.MinArea,
		Corners:         cfg.Corners,
		IncludeHoles:    cfg.IncludeHoles,
		Morphology:      string(cfg.Morphology.Operation),
		MorphKernelSize: cfg.Morphology.KernelSize,
		MorphIterations: cfg.Morphology.Iterations,
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json"}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.Render.DPI <= 0 {
		return fmt.Errorf("invalid render dpi: %d (must be positive)", c.Render.DPI)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("invalid workers: %d (must be positive)", c.Workers)
	}
	if _, err := pdf.ParseBackend(c.Render.Backend); err != nil {
		return err
	}
	if _, err := pdf.ParsePageRange(c.Render.Pages); err != nil {
		return fmt.Errorf("invalid render pages: %w", err)
	}
	if _, err := assemble.ParseBackend(c.Assembler); err != nil {
		return err
	}
	if _, err := boxes.ParseStrategy(c.Merge.Strategy); err != nil {
		return err
	}
	if _, err := boxes.ParseValidation(c.Merge.Validation); err != nil {
		return err
	}

	validMorph := []string{"", string(detector.MorphNone), string(detector.MorphDilate), string(detector.MorphErode), string(detector.MorphClosing)}
	if !slices.Contains(validMorph, c.Detector.Morphology) {
		return fmt.Errorf("invalid morphology: %s (must be one of: %s)", c.Detector.Morphology, strings.Join(validMorph[1:], ", "))
	}
	if err := c.toDetectorConfig().Validate(); err != nil {
		return fmt.Errorf("invalid detector config: %w", err)
	}
	return nil
}

// ToPipelineConfig converts the config to the internal pipeline configuration format.
func (c *Config) ToPipelineConfig() (pipeline.Config, error) {
	pages, err := pdf.ParsePageRange(c.Render.Pages)
	if err != nil {
		return pipeline.Config{}, err
	}
	backend, err := pdf.ParseBackend(c.Render.Backend)
	if err != nil {
		return pipeline.Config{}, err
	}
	asm, err := assemble.ParseBackend(c.Assembler)
	if err != nil {
		return pipeline.Config{}, err
	}

	cfg := pipeline.DefaultConfig()
	cfg.Pages = pages
	cfg.DPI = c.Render.DPI
	cfg.Backend = backend
	cfg.Credentials = pdf.Credentials{UserPassword: c.Render.Password, OwnerPassword: c.Render.OwnerPassword}
	cfg.Detector = c.toDetectorConfig()
	cfg.Strategy = boxes.Strategy(c.Merge.Strategy)
	cfg.Validation = boxes.Validation(c.Merge.Validation)
	cfg.OutDir = c.Output.Dir
	cfg.OutputPDF = c.Output.PDF
	cfg.Assemble = assemble.Options{Backend: asm, PageSize: c.Output.PageSize}
	cfg.Overlay = c.Output.Overlay
	if c.Output.OverlayColor != "" {
		cfg.OverlayColor = c.Output.OverlayColor
	}
	cfg.SavePages = c.Output.SavePages
	cfg.Workers = c.Workers
	return cfg, nil
}

// toDetectorConfig converts to detector.Config.
func (c *Config) toDetectorConfig() detector.Config {
	cfg := detector.DefaultConfig()
	cfg.BlurSigma = c.Detector.BlurSigma
	cfg.CannyLow = c.Detector.CannyLow
	cfg.CannyHigh = c.Detector.CannyHigh
	cfg.ApproxEpsilon = c.Detector.ApproxEpsilon
	cfg.MinArea = c.Detector.MinArea
	cfg.Corners = c.Detector.Corners
	cfg.IncludeHoles = c.Detector.IncludeHoles
	if c.Detector.Morphology != "" {
		cfg.Morphology.Operation = detector.MorphologicalOp(c.Detector.Morphology)
	}
	if c.Detector.MorphKernelSize > 0 {
		cfg.Morphology.KernelSize = c.Detector.MorphKernelSize
	}
	if c.Detector.MorphIterations > 0 {
		cfg.Morphology.Iterations = c.Detector.MorphIterations
	}
	return cfg
}

// Package pipeline runs region extraction over the pages of a PDF: render,
// detect, merge, crop and assemble.
package pipeline

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/MeKo-Tech/docextract/internal/assemble"
	"github.com/MeKo-Tech/docextract/internal/boxes"
	"github.com/MeKo-Tech/docextract/internal/detector"
	"github.com/MeKo-Tech/docextract/internal/pdf"
)

// DefaultOutputPDF is the name of the assembled document.
const DefaultOutputPDF = "pdf_with_cropped_images.pdf"

// Config holds configuration for the extraction pipeline and its components.
type Config struct {
	// Pages lists 1-based pages to process; nil means all pages.
	Pages       []int
	DPI         int
	Backend     pdf.Backend
	Credentials pdf.Credentials

	Detector   detector.Config
	Strategy   boxes.Strategy
	Validation boxes.Validation

	// OutDir receives crops, overlays and page images.
	OutDir string
	// OutputPDF is the assembled document; relative paths are resolved
	// against the working directory. Empty skips assembly.
	OutputPDF    string
	Assemble     assemble.Options
	Overlay      bool
	OverlayColor string
	SavePages    bool

	// Workers bounds the number of pages processed concurrently.
	Workers int
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		DPI:          pdf.DefaultDPI,
		Backend:      pdf.BackendFitz,
		Detector:     detector.DefaultConfig(),
		Strategy:     boxes.SinglePass,
		Validation:   boxes.Passthrough,
		OutDir:       ".",
		OutputPDF:    DefaultOutputPDF,
		Assemble:     assemble.DefaultOptions(),
		OverlayColor: "#FF0000",
		Workers:      runtime.NumCPU(),
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be > 0, got %d", c.DPI)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.OutDir == "" {
		return errors.New("output directory is empty")
	}
	if _, err := pdf.ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if _, err := assemble.ParseBackend(string(c.Assemble.Backend)); err != nil {
		return err
	}
	if _, err := boxes.ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	if _, err := boxes.ParseValidation(string(c.Validation)); err != nil {
		return err
	}
	return c.Detector.Validate()
}

// SourceOpener opens a document as a page source.
type SourceOpener func(path string, backend pdf.Backend) (pdf.Source, error)

// Observer is notified of every finished page.
type Observer interface {
	ObservePage(PageResult)
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg      Config
	open     SourceOpener
	progress ProgressCallback
	observer Observer
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig(), open: pdf.OpenSource, progress: NoOpProgressCallback{}}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithPages restricts processing to the given pages.
func (b *Builder) WithPages(pages []int) *Builder {
	b.cfg.Pages = pages
	return b
}

// WithDPI sets the rasterization resolution.
func (b *Builder) WithDPI(dpi int) *Builder {
	if dpi > 0 {
		b.cfg.DPI = dpi
	}
	return b
}

// WithDetector sets the region detector configuration.
func (b *Builder) WithDetector(cfg detector.Config) *Builder {
	b.cfg.Detector = cfg
	return b
}

// WithMerge sets the merge strategy and validation policy.
func (b *Builder) WithMerge(strategy boxes.Strategy, validation boxes.Validation) *Builder {
	b.cfg.Strategy = strategy
	b.cfg.Validation = validation
	return b
}

// WithOutput sets the output directory and assembled PDF path.
func (b *Builder) WithOutput(dir, pdfPath string) *Builder {
	b.cfg.OutDir = dir
	b.cfg.OutputPDF = pdfPath
	return b
}

// WithOverlay enables overlay images.
func (b *Builder) WithOverlay(enabled bool) *Builder {
	b.cfg.Overlay = enabled
	return b
}

// WithWorkers sets the number of concurrent page workers.
func (b *Builder) WithWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.Workers = n
	}
	return b
}

// WithSourceOpener overrides how documents are opened.
func (b *Builder) WithSourceOpener(open SourceOpener) *Builder {
	if open != nil {
		b.open = open
	}
	return b
}

// WithProgressCallback sets the progress reporter.
func (b *Builder) WithProgressCallback(cb ProgressCallback) *Builder {
	if cb != nil {
		b.progress = cb
	}
	return b
}

// WithObserver registers a page observer such as a metrics recorder.
func (b *Builder) WithObserver(o Observer) *Builder {
	b.observer = o
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Build validates the configuration and creates the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	det, err := detector.New(b.cfg.Detector)
	if err != nil {
		return nil, fmt.Errorf("init detector: %w", err)
	}
	// Both already passed Validate.
	strategy, _ := boxes.ParseStrategy(string(b.cfg.Strategy))
	validation, _ := boxes.ParseValidation(string(b.cfg.Validation))
	merger := boxes.NewMerger(strategy, validation)

	return &Pipeline{
		cfg:      b.cfg,
		open:     b.open,
		detector: det,
		merger:   merger,
		progress: b.progress,
		observer: b.observer,
	}, nil
}

// Pipeline wires together the page source, detector, merger and assembler.
type Pipeline struct {
	cfg      Config
	open     SourceOpener
	detector *detector.Detector
	merger   *boxes.Merger
	progress ProgressCallback
	observer Observer
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

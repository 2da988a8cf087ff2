// Package assemble builds a PDF document with one page per image.
package assemble

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// Backend selects the PDF writer.
type Backend string

const (
	// BackendGofpdf places each image at the top-left corner of an A4 page.
	BackendGofpdf Backend = "gofpdf"
	// BackendPdfcpu imports images with pdfcpu, one page per image.
	BackendPdfcpu Backend = "pdfcpu"
)

var (
	// ErrNoImages is returned when there is nothing to assemble.
	ErrNoImages = errors.New("no images to assemble")
	// ErrUnknownBackend is returned for unsupported backends.
	ErrUnknownBackend = errors.New("unknown assembler backend")
)

// Options configures Assemble.
type Options struct {
	Backend Backend
	// PageSize is a gofpdf page size name such as "A4" or "Letter".
	PageSize string
}

// DefaultOptions returns the gofpdf backend on A4 pages.
func DefaultOptions() Options {
	return Options{Backend: BackendGofpdf, PageSize: "A4"}
}

// ParseBackend parses a backend name; empty selects BackendGofpdf.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendGofpdf:
		return BackendGofpdf, nil
	case BackendPdfcpu:
		return BackendPdfcpu, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Assemble writes images to outPath, one page per image in the given order.
// An existing file at outPath is replaced.
func Assemble(images []string, outPath string, opts Options) error {
	if len(images) == 0 {
		return ErrNoImages
	}
	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var err error
	switch opts.Backend {
	case "", BackendGofpdf:
		err = assembleGofpdf(images, outPath, opts)
	case BackendPdfcpu:
		err = assemblePdfcpu(images, outPath)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return err
	}

	slog.Info("Assembled PDF", "output", outPath, "pages", len(images), "backend", opts.Backend)
	return nil
}

func assembleGofpdf(images []string, outPath string, opts Options) error {
	pageSize := opts.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}
	pdf := gofpdf.New("P", "pt", pageSize, "")
	pageW, pageH := pdf.GetPageSize()

	for i, path := range images {
		buf, err := os.ReadFile(path) //nolint:gosec // G304: images are produced by the pipeline
		if err != nil {
			return fmt.Errorf("failed to read image %s: %w", path, err)
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(buf))
		if err != nil {
			return fmt.Errorf("failed to decode image %s: %w", path, err)
		}

		w, h := fitPage(float64(cfg.Width), float64(cfg.Height), pageW, pageH)

		pdf.AddPage()
		opt := gofpdf.ImageOptions{ImageType: format, ReadDpi: false}
		name := fmt.Sprintf("img%d", i)
		pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(buf))
		pdf.ImageOptions(name, 0, 0, w, h, false, opt, 0, "")
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("failed to add image %s: %w", path, err)
		}
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("failed to write PDF %s: %w", outPath, err)
	}
	return nil
}

// fitPage returns the placed size of a w x h image (1 px = 1 pt), scaled down
// to fit the page while keeping its aspect ratio. Smaller images keep their
// natural size.
func fitPage(w, h, pageW, pageH float64) (float64, float64) {
	scale := min(1, pageW/w, pageH/h)
	return w * scale, h * scale
}

func assemblePdfcpu(images []string, outPath string) error {
	// ImportImagesFile appends to an existing output file.
	if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace %s: %w", outPath, err)
	}
	if err := api.ImportImagesFile(images, outPath, pdfcpu.DefaultImportConfig(), nil); err != nil {
		return fmt.Errorf("failed to import images: %w", err)
	}
	return nil
}

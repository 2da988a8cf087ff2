package pdf

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzSource renders pages through MuPDF.
type FitzSource struct {
	doc   *fitz.Document
	path  string
	pages int
}

// NewFitzSource opens path with MuPDF.
func NewFitzSource(path string) (*FitzSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", path, err)
	}
	return &FitzSource{doc: doc, path: path, pages: doc.NumPage()}, nil
}

// PageCount returns the number of pages.
func (f *FitzSource) PageCount() int { return f.pages }

// RenderPage rasterizes a 1-based page at dpi. Each call opens its own
// document handle so pages can be rendered concurrently.
func (f *FitzSource) RenderPage(page int, dpi int) (image.Image, error) {
	if err := checkPage(page, f.pages); err != nil {
		return nil, err
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", f.path, err)
	}
	defer func() { _ = workerDoc.Close() }()

	img, err := workerDoc.ImageDPI(page-1, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}
	return img, nil
}

// Close releases the document.
func (f *FitzSource) Close() error {
	return f.doc.Close()
}

package pdf

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/docextract/internal/utils"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// EmbeddedSource serves the largest image embedded in each page. It suits
// scanned documents where every page is a single image; the dpi argument of
// RenderPage is ignored.
type EmbeddedSource struct {
	path    string
	pages   int
	tempDir string
	// images maps a page number to its largest extracted image file.
	images map[int]string
}

// NewEmbeddedSource extracts the images of every page of path into a
// temporary directory that Close removes.
func NewEmbeddedSource(path string) (*EmbeddedSource, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %q: %w", path, err)
	}

	tempDir, err := os.MkdirTemp("", "pdf-extract-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	if err := api.ExtractImagesFile(path, tempDir, nil, nil); err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	images, err := collectExtractedImages(tempDir, base)
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}

	slog.Debug("Extracted embedded page images", "file", path, "pages", count, "pages_with_images", len(images))
	return &EmbeddedSource{path: path, pages: count, tempDir: tempDir, images: images}, nil
}

// PageCount returns the number of pages.
func (e *EmbeddedSource) PageCount() int { return e.pages }

// RenderPage decodes the page's largest embedded image.
func (e *EmbeddedSource) RenderPage(page int, _ int) (image.Image, error) {
	if err := checkPage(page, e.pages); err != nil {
		return nil, err
	}
	file, ok := e.images[page]
	if !ok {
		return nil, fmt.Errorf("%w: page %d", ErrNoPageImage, page)
	}
	return utils.LoadImage(file)
}

// Close removes the extracted images.
func (e *EmbeddedSource) Close() error {
	if e.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(e.tempDir)
	e.tempDir = ""
	return err
}

// collectExtractedImages walks dir and keeps, per page, the decodable image
// with the most pixels.
func collectExtractedImages(dir, base string) (map[int]string, error) {
	result := make(map[int]string)
	best := make(map[int]int)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		pageNum, err := parsePageFromFilename(info.Name(), base)
		if err != nil {
			return nil
		}

		pixels, err := imagePixels(path)
		if err != nil {
			// Skip unreadable images
			return nil
		}
		if pixels > best[pageNum] {
			best[pageNum] = pixels
			result[pageNum] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func imagePixels(path string) (int, error) {
	f, err := os.Open(path) //nolint:gosec // G304: files come from our own temp directory
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, err
	}
	return cfg.Width * cfg.Height, nil
}

// parsePageFromFilename extracts the page number from an extracted image
// name. pdfcpu writes <base>_<page>_<id>.<ext>; the older page_<page>_... form
// is accepted too.
func parsePageFromFilename(filename, base string) (int, error) {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	switch {
	case base != "" && strings.HasPrefix(name, base+"_"):
		name = strings.TrimPrefix(name, base+"_")
	case strings.HasPrefix(name, "page_"):
		name = strings.TrimPrefix(name, "page_")
	default:
		return 0, fmt.Errorf("not a page image: %s", filename)
	}

	token, _, _ := strings.Cut(name, "_")
	pageNum, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("invalid page number in %s", filename)
	}
	return pageNum, nil
}

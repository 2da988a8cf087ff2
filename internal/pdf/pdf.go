// Package pdf opens PDF documents as page sources for the extraction
// pipeline: rasterized pages, embedded page images and page text.
package pdf

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"strconv"
	"strings"
)

// Backend selects how pages are turned into images.
type Backend string

const (
	// BackendFitz rasterizes pages with MuPDF.
	BackendFitz Backend = "fitz"
	// BackendEmbedded uses the largest image embedded in each page.
	BackendEmbedded Backend = "embedded"
)

// DefaultDPI is the default rasterization resolution.
const DefaultDPI = 300

var (
	// ErrPageOutOfRange is returned for page numbers outside 1..PageCount.
	ErrPageOutOfRange = errors.New("page out of range")
	// ErrUnknownBackend is returned by ParseBackend and OpenSource.
	ErrUnknownBackend = errors.New("unknown page backend")
	// ErrNoPageImage is returned by the embedded backend for pages without images.
	ErrNoPageImage = errors.New("page has no embedded image")
)

// Source yields page images of a single document. Pages are 1-based.
type Source interface {
	PageCount() int
	RenderPage(page int, dpi int) (image.Image, error)
	Close() error
}

// ParseBackend parses a backend name; empty selects BackendFitz.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendFitz:
		return BackendFitz, nil
	case BackendEmbedded:
		return BackendEmbedded, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// OpenSource opens path with the given backend.
func OpenSource(path string, backend Backend) (Source, error) {
	switch backend {
	case "", BackendFitz:
		return NewFitzSource(path)
	case BackendEmbedded:
		return NewEmbeddedSource(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func checkPage(page, count int) error {
	if page < 1 || page > count {
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, count)
	}
	return nil
}

// ParsePageRange parses a page range string like "32", "1-5" or "1,3,5-7".
// The result is sorted and free of duplicates; an empty string yields nil,
// meaning all pages.
func ParsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	var pages []int
	for part := range strings.SplitSeq(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}

	slices.Sort(pages)
	return slices.Compact(pages), nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) ([]int, error) {
	if part == "" {
		return nil, errors.New("empty page token")
	}
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := parsePageNumber(rangeParts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := parsePageNumber(rangeParts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := parsePageNumber(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{page}, nil
}

func parsePageNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("page numbers start at 1, got %d", n)
	}
	return n, nil
}

// SelectPages resolves a parsed page list against a document's page count.
// A nil list selects every page.
func SelectPages(pages []int, count int) ([]int, error) {
	if pages == nil {
		all := make([]int, count)
		for i := range all {
			all[i] = i + 1
		}
		return all, nil
	}
	for _, p := range pages {
		if err := checkPage(p, count); err != nil {
			return nil, err
		}
	}
	return pages, nil
}

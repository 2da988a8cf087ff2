package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/MeKo-Tech/docextract/internal/boxes"
)

// PageResult describes the extraction of one page.
type PageResult struct {
	Page     int          `json:"page"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Detected []boxes.Rect `json:"detected"`
	Merged   []boxes.Rect `json:"merged"`
	// Crops holds one file per merged rectangle that had a non-empty crop.
	Crops     []string      `json:"crops"`
	Overlay   string        `json:"overlay,omitempty"`
	PageImage string        `json:"page_image,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Result is the outcome of one document extraction.
type Result struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	// Pages are in page order regardless of completion order.
	Pages         []PageResult  `json:"pages"`
	TotalDetected int           `json:"total_detected"`
	TotalMerged   int           `json:"total_merged"`
	TotalCrops    int           `json:"total_crops"`
	Duration      time.Duration `json:"duration_ns"`
}

// Crops returns every crop file in page order, then box order.
func (r *Result) Crops() []string {
	var out []string
	for _, p := range r.Pages {
		out = append(out, p.Crops...)
	}
	return out
}

func (r *Result) totals() {
	r.TotalDetected, r.TotalMerged, r.TotalCrops = 0, 0, 0
	for _, p := range r.Pages {
		r.TotalDetected += len(p.Detected)
		r.TotalMerged += len(p.Merged)
		r.TotalCrops += len(p.Crops)
	}
}

// WriteJSON writes the result as indented JSON.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes a human-readable summary: the merged rectangles of each
// page followed by totals.
func (r *Result) WriteText(w io.Writer) error {
	for _, p := range r.Pages {
		if _, err := fmt.Fprintf(w, "page %d: %d detected, %d merged\n", p.Page, len(p.Detected), len(p.Merged)); err != nil {
			return err
		}
		for i, m := range p.Merged {
			if _, err := fmt.Fprintf(w, "  %d %s\n", i+1, m); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintf(w, "total boxes: %d\n", r.TotalMerged); err != nil {
		return err
	}
	if r.Output != "" {
		if _, err := fmt.Fprintf(w, "output: %s\n", r.Output); err != nil {
			return err
		}
	}
	return nil
}

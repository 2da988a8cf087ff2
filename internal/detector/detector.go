// Package detector finds rectangular regions on a rendered page using edge
// detection and contour analysis.
package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/docextract/internal/boxes"
	"github.com/MeKo-Tech/docextract/internal/utils"
)

// Config contains region detection settings.
type Config struct {
	// BlurSigma is the Gaussian blur applied before edge detection; 0 disables it.
	BlurSigma float64
	// CannyLow and CannyHigh are the hysteresis thresholds on the L1 Sobel magnitude.
	CannyLow  float64
	CannyHigh float64
	// ApproxEpsilon is the polygon approximation tolerance as a fraction of
	// the contour perimeter.
	ApproxEpsilon float64
	// MinArea is the minimum contour area in pixels.
	MinArea float64
	// Corners is the number of approximated vertices a region must have.
	Corners int
	// IncludeHoles also reports contours of regions enclosed by edges.
	IncludeHoles bool
	// Morphology is applied to the edge mask before contour extraction.
	Morphology MorphConfig
}

// DefaultConfig returns the default detection configuration.
func DefaultConfig() Config {
	return Config{
		BlurSigma:     1.0,
		CannyLow:      50,
		CannyHigh:     150,
		ApproxEpsilon: 0.05,
		MinArea:       5000,
		Corners:       4,
		IncludeHoles:  true,
		Morphology:    DefaultMorphConfig(),
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.BlurSigma < 0 {
		return fmt.Errorf("blur sigma must be >= 0, got %f", c.BlurSigma)
	}
	if c.CannyLow < 0 || c.CannyHigh < 0 {
		return fmt.Errorf("canny thresholds must be >= 0, got %f/%f", c.CannyLow, c.CannyHigh)
	}
	if c.ApproxEpsilon <= 0 || c.ApproxEpsilon >= 1 {
		return fmt.Errorf("approx epsilon must be in (0, 1), got %f", c.ApproxEpsilon)
	}
	if c.MinArea < 0 {
		return fmt.Errorf("min area must be >= 0, got %f", c.MinArea)
	}
	if c.Corners < 3 {
		return fmt.Errorf("corners must be >= 3, got %d", c.Corners)
	}
	return nil
}

// Contour is a traced boundary together with its approximation.
type Contour struct {
	Points []utils.Point
	Approx []utils.Point
	Area   float64
	Bounds image.Rectangle
	Hole   bool
}

// Detector finds rectangular regions in images.
type Detector struct {
	config Config
}

// ErrNilImage is returned when Detect is called without an image.
var ErrNilImage = errors.New("nil image")

// New creates a detector, validating the configuration.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	return &Detector{config: cfg}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.config }

// Detect returns the bounding rectangles of contours that approximate to a
// polygon with Config.Corners vertices and enclose at least Config.MinArea
// pixels. Outer contours come first in raster order of their first pixel,
// followed by hole contours. Rectangles are (x, y, x+w, y+h) in the image's
// own coordinate space.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]boxes.Rect, error) {
	contours, err := d.Contours(ctx, img)
	if err != nil {
		return nil, err
	}

	off := img.Bounds().Min
	rects := make([]boxes.Rect, 0, len(contours))
	for _, c := range contours {
		if !d.accept(c) {
			continue
		}
		rects = append(rects, boxes.FromImageRect(c.Bounds.Add(off)))
	}

	slog.Debug("Detected rectangular regions",
		"contours", len(contours), "regions", len(rects))
	return rects, nil
}

func (d *Detector) accept(c Contour) bool {
	return len(c.Approx) == d.config.Corners && c.Area >= d.config.MinArea
}

// Contours returns every traced contour of the image's edge map, accepted or
// not. Coordinates are relative to the image's top-left corner.
func (d *Detector) Contours(ctx context.Context, img image.Image) ([]Contour, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	plane, err := utils.ToGrayPlane(img, d.config.BlurSigma)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := plane.Width, plane.Height
	edges := CannyEdges(plane, d.config.CannyLow, d.config.CannyHigh)
	edges = ApplyMorphology(edges, w, h, d.config.Morphology)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outer, outerLabels := connectedComponents(edges, w, h, false, true)
	contours := make([]Contour, 0, len(outer))
	for _, st := range outer {
		contours = append(contours, d.buildContour(outerLabels, w, h, st, false))
	}

	if d.config.IncludeHoles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		holes, holeLabels := connectedComponents(edges, w, h, true, false)
		for _, st := range holes {
			if st.border {
				continue
			}
			contours = append(contours, d.buildContour(holeLabels, w, h, st, true))
		}
	}

	return contours, nil
}

func (d *Detector) buildContour(labels []int32, w, h int, st compStats, hole bool) Contour {
	pts := traceBoundary(labels, w, h, st)
	return Contour{
		Points: pts,
		Approx: utils.ApproxPolygon(pts, d.config.ApproxEpsilon*utils.ArcLength(pts)),
		Area:   utils.PolygonArea(pts),
		Bounds: utils.BoundingRect(pts),
		Hole:   hole,
	}
}

package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ErrEmptyImage is returned for nil or zero-sized images.
var ErrEmptyImage = errors.New("empty image")

// GrayPlane is a row-major 8-bit luminance buffer.
type GrayPlane struct {
	Pix    []uint8
	Width  int
	Height int
}

// At returns the luminance at (x, y). Coordinates outside the plane are
// clamped to the nearest edge.
func (g *GrayPlane) At(x, y int) uint8 {
	x = clampInt(x, 0, g.Width-1)
	y = clampInt(y, 0, g.Height-1)
	return g.Pix[y*g.Width+x]
}

// ToGrayPlane converts img to luminance, optionally blurring it with a
// Gaussian of the given sigma first (sigma <= 0 skips the blur).
func ToGrayPlane(img image.Image, sigma float64) (*GrayPlane, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "grayscale", Err: ErrEmptyImage}
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, &ImageProcessingError{Operation: "grayscale", Err: ErrEmptyImage}
	}

	gray := imaging.Grayscale(img)
	if sigma > 0 {
		gray = imaging.Blur(gray, sigma)
	}

	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	plane := &GrayPlane{Pix: make([]uint8, w*h), Width: w, Height: h}
	for y := range h {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := range w {
			// Grayscale output has R == G == B.
			plane.Pix[y*w+x] = row[x*4]
		}
	}
	return plane, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

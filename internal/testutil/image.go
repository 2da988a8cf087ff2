package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test page sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
	LargeSize  = ImageSize{1024, 768}
)

// PageConfig describes a synthetic page: filled boxes on a plain background
// with an optional caption.
type PageConfig struct {
	Size       ImageSize
	Background color.Color
	Foreground color.Color
	Boxes      []image.Rectangle
	Caption    string
	FontFace   font.Face
}

// DefaultPageConfig returns a medium white page with one large dark box.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Size:       MediumSize,
		Background: color.White,
		Foreground: color.Gray{Y: 20},
		Boxes:      []image.Rectangle{image.Rect(80, 60, 400, 300)},
		FontFace:   basicfont.Face7x13,
	}
}

// GeneratePage renders cfg into a new image.
func GeneratePage(cfg PageConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cfg.Size.Width, cfg.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: cfg.Background}, image.Point{}, draw.Src)

	for _, r := range cfg.Boxes {
		draw.Draw(img, r, &image.Uniform{C: cfg.Foreground}, image.Point{}, draw.Src)
	}

	if cfg.Caption != "" {
		face := cfg.FontFace
		if face == nil {
			face = basicfont.Face7x13
		}
		drawer := &font.Drawer{Dst: img, Src: &image.Uniform{C: color.Black}, Face: face}
		lineHeight := face.Metrics().Height.Ceil()
		drawer.Dot = fixed.P(8, cfg.Size.Height-lineHeight)
		drawer.DrawString(cfg.Caption)
	}

	return img
}

// CreateTestImage creates a simple test image with the specified dimensions and color.
func CreateTestImage(width, height int, backgroundColor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: backgroundColor}, image.Point{}, draw.Src)
	return img
}

// SaveImage saves an image as PNG to the specified path.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	dir := filepath.Dir(path)
	require.NoError(t, EnsureDir(dir), "Failed to create directory %s", dir)

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // G304: Test file reading with controlled path
	require.NoError(t, err, "Failed to open image file %s", path)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err, "Failed to decode image")

	return img
}

// CompareImages reports whether two images have equal bounds and an average
// normalized color difference of at most tolerance.
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	bounds1 := img1.Bounds()
	bounds2 := img2.Bounds()
	if bounds1.Dx() != bounds2.Dx() || bounds1.Dy() != bounds2.Dy() {
		return false
	}
	if bounds1.Empty() {
		return true
	}

	var totalDiff float64
	for y := range bounds1.Dy() {
		for x := range bounds1.Dx() {
			r1, g1, b1, a1 := img1.At(bounds1.Min.X+x, bounds1.Min.Y+y).RGBA()
			r2, g2, b2, a2 := img2.At(bounds2.Min.X+x, bounds2.Min.Y+y).RGBA()

			dr := float64(r1) - float64(r2)
			dg := float64(g1) - float64(g2)
			db := float64(b1) - float64(b2)
			da := float64(a1) - float64(a2)
			totalDiff += math.Sqrt(dr*dr + dg*dg + db*db + da*da)
		}
	}

	avgDiff := totalDiff / float64(bounds1.Dx()*bounds1.Dy())
	maxDiff := math.Sqrt(4 * 65535 * 65535) // Maximum possible difference

	return (avgDiff / maxDiff) <= tolerance
}

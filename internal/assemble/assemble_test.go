package assemble

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/docextract/internal/testutil"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImages(t *testing.T, dir string, sizes ...testutil.ImageSize) []string {
	t.Helper()
	paths := make([]string, 0, len(sizes))
	for i, size := range sizes {
		cfg := testutil.DefaultPageConfig()
		cfg.Size = size
		cfg.Boxes = []image.Rectangle{image.Rect(10, 10, size.Width/2, size.Height/2)}
		path := filepath.Join(dir, "crop_"+string(rune('a'+i))+".png")
		testutil.SaveImage(t, testutil.GeneratePage(cfg), path)
		paths = append(paths, path)
	}
	return paths
}

func TestAssemble_Backends(t *testing.T) {
	for _, backend := range []Backend{BackendGofpdf, BackendPdfcpu} {
		t.Run(string(backend), func(t *testing.T) {
			dir := t.TempDir()
			images := writeImages(t, dir, testutil.SmallSize, testutil.LargeSize, testutil.ImageSize{Width: 3000, Height: 200})
			out := filepath.Join(dir, "out", "result.pdf")

			opts := DefaultOptions()
			opts.Backend = backend
			require.NoError(t, Assemble(images, out, opts))

			pages, err := api.PageCountFile(out)
			require.NoError(t, err)
			assert.Equal(t, 3, pages)

			// Re-running replaces the file instead of appending.
			require.NoError(t, Assemble(images[:1], out, opts))
			pages, err = api.PageCountFile(out)
			require.NoError(t, err)
			assert.Equal(t, 1, pages)
		})
	}
}

func TestAssemble_NoImages(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.pdf")
	require.ErrorIs(t, Assemble(nil, out, DefaultOptions()), ErrNoImages)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestAssemble_Errors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.pdf")

	err := Assemble([]string{filepath.Join(dir, "missing.png")}, out, DefaultOptions())
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	require.Error(t, Assemble([]string{bad}, out, DefaultOptions()))

	images := writeImages(t, dir, testutil.SmallSize)
	require.ErrorIs(t, Assemble(images, out, Options{Backend: "latex"}), ErrUnknownBackend)
}

func TestFitPage(t *testing.T) {
	const a4W, a4H = 595.28, 841.89

	w, h := fitPage(320, 240, a4W, a4H)
	assert.InDelta(t, 320, w, 1e-9)
	assert.InDelta(t, 240, h, 1e-9)

	w, h = fitPage(1190.56, 400, a4W, a4H)
	assert.InDelta(t, a4W, w, 1e-9)
	assert.InDelta(t, 200, h, 1e-9)

	w, h = fitPage(500, 1683.78, a4W, a4H)
	assert.InDelta(t, 250, w, 1e-9)
	assert.InDelta(t, a4H, h, 1e-9)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendGofpdf, b)

	b, err = ParseBackend("PDFCPU")
	require.NoError(t, err)
	assert.Equal(t, BackendPdfcpu, b)

	_, err = ParseBackend("latex")
	require.ErrorIs(t, err, ErrUnknownBackend)
}

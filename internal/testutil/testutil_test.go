package testutil

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.NotEmpty(t, root)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))

	validated, err := GetProjectRootValidated()
	require.NoError(t, err)
	assert.Equal(t, root, validated)
}

func TestValidateProjectRoot(t *testing.T) {
	require.Error(t, ValidateProjectRoot(t.TempDir()))
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(CreateTempDir(t), "test", "nested", "dir")
	require.NoError(t, EnsureDir(testDir))
	assert.True(t, DirExists(testDir))
	assert.False(t, DirExists(filepath.Join(testDir, "missing")))
}

func TestGeneratePage(t *testing.T) {
	cfg := DefaultPageConfig()
	cfg.Caption = "page one"
	img := GeneratePage(cfg)

	assert.Equal(t, image.Rect(0, 0, 640, 480), img.Bounds())
	assert.Equal(t, color.RGBA{R: 20, G: 20, B: 20, A: 255}, img.RGBAAt(100, 100))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(500, 100))
}

func TestSaveLoadAndCompareImages(t *testing.T) {
	img := GeneratePage(DefaultPageConfig())
	path := filepath.Join(t.TempDir(), "nested", "page.png")
	SaveImage(t, img, path)

	loaded := LoadImage(t, path)
	assert.True(t, CompareImages(img, loaded, 0))
	assert.False(t, CompareImages(img, CreateTestImage(640, 480, color.White), 0.001))
	assert.False(t, CompareImages(img, CreateTestImage(10, 10, color.White), 1))
}

func TestWritePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	WritePDF(t, path,
		PDFPage{Lines: []string{"Hello"}},
		PDFPage{Image: GeneratePage(DefaultPageConfig())},
	)

	data, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

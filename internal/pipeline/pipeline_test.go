package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MeKo-Tech/docextract/internal/boxes"
	"github.com/MeKo-Tech/docextract/internal/detector"
	"github.com/MeKo-Tech/docextract/internal/pdf"
	"github.com/MeKo-Tech/docextract/internal/testutil"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves generated pages. Pages listed in fail return an error.
type fakeSource struct {
	pages  []*image.RGBA
	fail   map[int]error
	delay  map[int]time.Duration
	mu     sync.Mutex
	closed bool
	dpis   []int
}

func (f *fakeSource) PageCount() int { return len(f.pages) }

func (f *fakeSource) RenderPage(page int, dpi int) (image.Image, error) {
	f.mu.Lock()
	f.dpis = append(f.dpis, dpi)
	f.mu.Unlock()
	if page < 1 || page > len(f.pages) {
		return nil, pdf.ErrPageOutOfRange
	}
	if d := f.delay[page]; d > 0 {
		time.Sleep(d)
	}
	if err := f.fail[page]; err != nil {
		return nil, err
	}
	return f.pages[page-1], nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func pageWith(rects ...image.Rectangle) *image.RGBA {
	cfg := testutil.DefaultPageConfig()
	cfg.Boxes = rects
	return testutil.GeneratePage(cfg)
}

// testDetector bridges small gaps in the edge map so the synthetic boxes
// always trace as closed contours.
func testDetector() detector.Config {
	cfg := detector.DefaultConfig()
	cfg.Morphology = detector.MorphConfig{Operation: detector.MorphDilate, KernelSize: 3, Iterations: 1}
	return cfg
}

func buildPipeline(t *testing.T, src pdf.Source, dir string) *Builder {
	t.Helper()
	// Unlock inspects the input before the source opener is called.
	input := filepath.Join(dir, "input.pdf")
	testutil.WritePDF(t, input, testutil.PDFPage{Lines: []string{"x"}})

	return NewBuilder().
		WithDetector(testDetector()).
		WithOutput(filepath.Join(dir, "out"), filepath.Join(dir, "out", "result.pdf")).
		WithWorkers(2).
		WithSourceOpener(func(path string, backend pdf.Backend) (pdf.Source, error) {
			assert.Equal(t, input, path)
			return src, nil
		})
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dpi", func(c *Config) { c.DPI = 0 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"empty out dir", func(c *Config) { c.OutDir = "" }},
		{"bad backend", func(c *Config) { c.Backend = "poppler" }},
		{"bad assembler", func(c *Config) { c.Assemble.Backend = "latex" }},
		{"bad strategy", func(c *Config) { c.Strategy = "greedy" }},
		{"bad validation", func(c *Config) { c.Validation = "strict" }},
		{"bad detector", func(c *Config) { c.Detector.Corners = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
			_, err := NewBuilder().WithConfig(cfg).Build()
			require.Error(t, err)
		})
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder().
		WithPages([]int{2}).
		WithDPI(150).
		WithDPI(-1).
		WithWorkers(0).
		WithOverlay(true).
		WithMerge("Fixed-Point", "normalize")
	cfg := b.Config()
	assert.Equal(t, []int{2}, cfg.Pages)
	assert.Equal(t, 150, cfg.DPI)
	assert.Equal(t, DefaultConfig().Workers, cfg.Workers)
	assert.True(t, cfg.Overlay)

	p, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, boxes.FixedPoint, p.merger.Strategy)
	assert.Equal(t, boxes.Normalize, p.merger.Validation)
}

func TestProcess_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{pages: []*image.RGBA{
		pageWith(image.Rect(80, 60, 400, 300)),
		pageWith(),
		pageWith(image.Rect(40, 40, 200, 200), image.Rect(300, 250, 600, 440)),
	}}

	p, err := buildPipeline(t, src, dir).WithOverlay(true).Build()
	require.NoError(t, err)

	res, err := p.Process(context.Background(), filepath.Join(dir, "input.pdf"))
	require.NoError(t, err)
	assert.True(t, src.closed)

	require.Len(t, res.Pages, 3)
	for i, page := range res.Pages {
		assert.Equal(t, i+1, page.Page, "results are in page order")
		assert.Equal(t, 640, page.Width)
		assert.Equal(t, 480, page.Height)
		assert.FileExists(t, page.Overlay)
	}

	require.Len(t, res.Pages[0].Merged, 1)
	assert.Empty(t, res.Pages[1].Merged)
	require.Len(t, res.Pages[2].Merged, 2)

	assert.Equal(t, []string{
		filepath.Join(dir, "out", "pg1_bbox_1.png"),
		filepath.Join(dir, "out", "pg3_bbox_1.png"),
		filepath.Join(dir, "out", "pg3_bbox_2.png"),
	}, res.Crops())
	assert.Equal(t, 3, res.TotalMerged)
	assert.Equal(t, 3, res.TotalCrops)
	assert.GreaterOrEqual(t, res.TotalDetected, res.TotalMerged)

	crop := testutil.LoadImage(t, res.Pages[0].Crops[0])
	m := res.Pages[0].Merged[0]
	assert.Equal(t, m.Width(), crop.Bounds().Dx())
	assert.Equal(t, m.Height(), crop.Bounds().Dy())

	require.Equal(t, filepath.Join(dir, "out", "result.pdf"), res.Output)
	count, err := api.PageCountFile(res.Output)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	for _, dpi := range src.dpis {
		assert.Equal(t, DefaultConfig().DPI, dpi)
	}
}

func TestProcess_DefaultDetectorConfig(t *testing.T) {
	want := []image.Rectangle{image.Rect(60, 60, 300, 260), image.Rect(360, 200, 600, 440)}
	assertFound := func(t *testing.T, res *Result) {
		t.Helper()
		require.Len(t, res.Pages, 1)
		merged := res.Pages[0].Merged
		require.Len(t, merged, len(want))
		for i, m := range merged {
			assert.InDelta(t, want[i].Min.X, m.X1, 3, "box %d", i+1)
			assert.InDelta(t, want[i].Min.Y, m.Y1, 3, "box %d", i+1)
			assert.InDelta(t, want[i].Max.X, m.X2, 3, "box %d", i+1)
			assert.InDelta(t, want[i].Max.Y, m.Y2, 3, "box %d", i+1)
		}
		assert.Len(t, res.Pages[0].Crops, len(want))
	}

	t.Run("generated page", func(t *testing.T) {
		dir := t.TempDir()
		src := &fakeSource{pages: []*image.RGBA{pageWith(want...)}}
		p, err := buildPipeline(t, src, dir).WithDetector(detector.DefaultConfig()).Build()
		require.NoError(t, err)
		assert.Equal(t, detector.MorphNone, p.Config().Detector.Morphology.Operation)

		res, err := p.Process(context.Background(), filepath.Join(dir, "input.pdf"))
		require.NoError(t, err)
		assertFound(t, res)
	})

	t.Run("embedded page image", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping PDF image extraction in short mode")
		}
		dir := t.TempDir()
		cfg := testutil.DefaultPageConfig()
		cfg.Boxes = want
		input := filepath.Join(dir, "scan.pdf")
		testutil.WritePDF(t, input, testutil.PDFPage{Image: testutil.GeneratePage(cfg)})

		pipeCfg := DefaultConfig()
		pipeCfg.Backend = pdf.BackendEmbedded
		pipeCfg.OutDir = filepath.Join(dir, "out")
		pipeCfg.OutputPDF = filepath.Join(dir, "out", "regions.pdf")
		p, err := NewBuilder().WithConfig(pipeCfg).Build()
		require.NoError(t, err)

		res, err := p.Process(context.Background(), input)
		require.NoError(t, err)
		assertFound(t, res)
		assert.FileExists(t, res.Output)
	})
}

func TestProcess_SelectedPagesAndPageImages(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{pages: []*image.RGBA{pageWith(), pageWith(image.Rect(80, 60, 400, 300))}}

	cfgB := buildPipeline(t, src, dir).WithPages([]int{2}).WithDPI(72)
	cfg := cfgB.Config()
	cfg.SavePages = true
	cfg.OutputPDF = ""
	p, err := cfgB.WithConfig(cfg).Build()
	require.NoError(t, err)

	res, err := p.Process(context.Background(), filepath.Join(dir, "input.pdf"))
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, 2, res.Pages[0].Page)
	assert.FileExists(t, res.Pages[0].PageImage)
	assert.Empty(t, res.Output)
	assert.Equal(t, []int{72}, src.dpis)
}

func TestProcess_NoRegionsSkipsAssembly(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{pages: []*image.RGBA{pageWith()}}

	p, err := buildPipeline(t, src, dir).Build()
	require.NoError(t, err)

	res, err := p.Process(context.Background(), filepath.Join(dir, "input.pdf"))
	require.NoError(t, err)
	assert.Empty(t, res.Output)
	assert.NoFileExists(t, filepath.Join(dir, "out", "result.pdf"))
}

func TestProcess_Errors(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("render failed")

	t.Run("page error", func(t *testing.T) {
		src := &fakeSource{
			pages: []*image.RGBA{pageWith(), pageWith()},
			fail:  map[int]error{2: boom},
		}
		p, err := buildPipeline(t, src, dir).Build()
		require.NoError(t, err)
		_, err = p.Process(context.Background(), filepath.Join(dir, "input.pdf"))
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "page 2")
		assert.True(t, src.closed)
	})

	t.Run("page out of range", func(t *testing.T) {
		src := &fakeSource{pages: []*image.RGBA{pageWith()}}
		p, err := buildPipeline(t, src, dir).WithPages([]int{3}).Build()
		require.NoError(t, err)
		_, err = p.Process(context.Background(), filepath.Join(dir, "input.pdf"))
		require.ErrorIs(t, err, pdf.ErrPageOutOfRange)
	})

	t.Run("cancelled context", func(t *testing.T) {
		src := &fakeSource{pages: []*image.RGBA{pageWith(), pageWith(), pageWith()}}
		p, err := buildPipeline(t, src, dir).Build()
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = p.Process(ctx, filepath.Join(dir, "input.pdf"))
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("open error", func(t *testing.T) {
		p, err := buildPipeline(t, nil, dir).
			WithSourceOpener(func(string, pdf.Backend) (pdf.Source, error) { return nil, boom }).
			Build()
		require.NoError(t, err)
		_, err = p.Process(context.Background(), filepath.Join(dir, "input.pdf"))
		require.ErrorIs(t, err, boom)
	})
}

func TestProcess_OrderIndependentOfCompletion(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{
		pages: []*image.RGBA{pageWith(), pageWith(), pageWith(), pageWith()},
		delay: map[int]time.Duration{1: 30 * time.Millisecond, 2: 10 * time.Millisecond},
	}
	p, err := buildPipeline(t, src, dir).WithWorkers(4).Build()
	require.NoError(t, err)

	res, err := p.Process(context.Background(), filepath.Join(dir, "input.pdf"))
	require.NoError(t, err)
	for i, page := range res.Pages {
		assert.Equal(t, i+1, page.Page)
	}
}

type pageCounter struct {
	mu    sync.Mutex
	pages []int
}

func (c *pageCounter) ObservePage(r PageResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = append(c.pages, r.Page)
}

func TestProcess_ObserverAndProgress(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{pages: []*image.RGBA{pageWith(), pageWith()}}
	obs := &pageCounter{}
	var buf bytes.Buffer

	p, err := buildPipeline(t, src, dir).
		WithObserver(obs).
		WithProgressCallback(NewConsoleProgressCallback(&buf, "")).
		Build()
	require.NoError(t, err)

	_, err = p.Process(context.Background(), filepath.Join(dir, "input.pdf"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, obs.pages)
	assert.Contains(t, buf.String(), "2/2")
	assert.Contains(t, buf.String(), "Completed")
}

func TestWriteCrops_ClampsAndSkips(t *testing.T) {
	dir := t.TempDir()
	p, err := NewBuilder().WithOutput(dir, "").Build()
	require.NoError(t, err)

	img := pageWith()
	crops, err := p.writeCrops(img, 7, []boxes.Rect{
		boxes.R(600, 400, 700, 500), // partly outside
		boxes.R(700, 500, 800, 600), // fully outside
		boxes.R(10, 10, 10, 50),     // zero width
		boxes.R(0, 0, 20, 30),
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "pg7_bbox_1.png"),
		filepath.Join(dir, "pg7_bbox_4.png"),
	}, crops)

	clamped := testutil.LoadImage(t, crops[0])
	assert.Equal(t, image.Rect(0, 0, 40, 80), clamped.Bounds())
}

func TestRenderOverlay(t *testing.T) {
	assert.Nil(t, RenderOverlay(nil, nil, nil, color.Black, color.Black))

	img := pageWith()
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	out := RenderOverlay(img, []boxes.Rect{boxes.R(10, 10, 50, 50)}, []boxes.Rect{boxes.R(100, 100, 200, 200)}, blue, red)

	assert.Equal(t, blue, out.RGBAAt(10, 10))
	assert.Equal(t, red, out.RGBAAt(102, 150))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(150, 150))
	// The source image is untouched.
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(10, 10))
}

func TestResult_Writers(t *testing.T) {
	res := &Result{
		Input:  "doc.pdf",
		Output: "out.pdf",
		Pages: []PageResult{{
			Page:     32,
			Detected: []boxes.Rect{boxes.R(0, 0, 10, 10), boxes.R(5, 5, 20, 20)},
			Merged:   []boxes.Rect{boxes.R(0, 0, 20, 20)},
			Crops:    []string{"pg32_bbox_1.png"},
		}},
	}
	res.totals()
	assert.Equal(t, 2, res.TotalDetected)
	assert.Equal(t, 1, res.TotalMerged)

	var text bytes.Buffer
	require.NoError(t, res.WriteText(&text))
	assert.Equal(t, "page 32: 2 detected, 1 merged\n  1 (0, 0, 20, 20)\ntotal boxes: 1\noutput: out.pdf\n", text.String())

	var js bytes.Buffer
	require.NoError(t, res.WriteJSON(&js))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	pages := decoded["pages"].([]any)
	merged := pages[0].(map[string]any)["merged"].([]any)
	assert.Equal(t, []any{0.0, 0.0, 20.0, 20.0}, merged[0])
}

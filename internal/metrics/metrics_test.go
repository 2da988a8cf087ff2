package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MeKo-Tech/docextract/internal/boxes"
	"github.com/MeKo-Tech/docextract/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePage() pipeline.PageResult {
	return pipeline.PageResult{
		Page:     1,
		Detected: []boxes.Rect{boxes.R(0, 0, 10, 10), boxes.R(5, 5, 15, 15), boxes.R(40, 40, 60, 60)},
		Merged:   []boxes.Rect{boxes.R(0, 0, 15, 15), boxes.R(40, 40, 60, 60)},
		Crops:    []string{"pg1_bbox_1.png", "pg1_bbox_2.png"},
		Duration: 200 * time.Millisecond,
	}
}

func TestRecorder_ObservePage(t *testing.T) {
	r := NewRecorder()
	r.ObservePage(samplePage())
	r.ObservePage(pipeline.PageResult{Page: 2})

	assert.InDelta(t, 2, testutil.ToFloat64(r.pagesProcessed), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(r.rectanglesDetected), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.rectanglesMerged), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.cropsWritten), 0)

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	hist := findFamily(t, families, "docextract_page_duration_seconds").GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.InDelta(t, 0.2, hist.GetSampleSum(), 1e-9)
}

func TestRecorder_ObserveDocument(t *testing.T) {
	r := NewRecorder()
	r.ObserveDocument(&pipeline.Result{Duration: time.Second}, nil)
	r.ObserveDocument(nil, errors.New("boom"))
	r.ObserveDocument(nil, nil)

	assert.InDelta(t, 2, testutil.ToFloat64(r.documentsTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.documentsTotal.WithLabelValues("error")), 0)

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	hist := findFamily(t, families, "docextract_document_duration_seconds").GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), hist.GetSampleCount())
}

func TestRecorder_WriteToTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObservePage(samplePage())

	path := filepath.Join(t.TempDir(), "nested", "docextract.prom")
	require.NoError(t, r.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "docextract_pages_processed_total 1")
	assert.Contains(t, string(data), "docextract_crops_written_total 2")
}

func TestRecorders_AreIndependent(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.ObservePage(samplePage())
	assert.InDelta(t, 0, testutil.ToFloat64(b.pagesProcessed), 0)
}

func findFamily(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric family %s not found", name)
	return nil
}

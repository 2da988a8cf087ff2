// Package metrics records extraction runs as Prometheus metrics and writes
// them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/docextract/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects per-page and per-document metrics on its own registry.
// It implements pipeline.Observer.
type Recorder struct {
	registry *prometheus.Registry

	pagesProcessed     prometheus.Counter
	rectanglesDetected prometheus.Counter
	rectanglesMerged   prometheus.Counter
	cropsWritten       prometheus.Counter
	pageDuration       prometheus.Histogram
	regionsPerPage     prometheus.Histogram

	documentsTotal   *prometheus.CounterVec
	documentDuration prometheus.Histogram
}

// NewRecorder creates a recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		pagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "docextract_pages_processed_total",
			Help: "Total number of processed pages",
		}),
		rectanglesDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "docextract_rectangles_detected_total",
			Help: "Total number of rectangles found by the detector",
		}),
		rectanglesMerged: factory.NewCounter(prometheus.CounterOpts{
			Name: "docextract_rectangles_merged_total",
			Help: "Total number of rectangles left after merging",
		}),
		cropsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "docextract_crops_written_total",
			Help: "Total number of cropped region images written",
		}),
		pageDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docextract_page_duration_seconds",
			Help:    "Page processing duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25},
		}),
		regionsPerPage: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docextract_regions_per_page",
			Help:    "Number of merged regions per page",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		documentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docextract_documents_total",
			Help: "Total number of processed documents",
		}, []string{"status"}), // status: success, error
		documentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docextract_document_duration_seconds",
			Help:    "Document processing duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
		}),
	}
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObservePage records a finished page. It is safe for concurrent use.
func (r *Recorder) ObservePage(page pipeline.PageResult) {
	r.pagesProcessed.Inc()
	r.rectanglesDetected.Add(float64(len(page.Detected)))
	r.rectanglesMerged.Add(float64(len(page.Merged)))
	r.cropsWritten.Add(float64(len(page.Crops)))
	r.pageDuration.Observe(page.Duration.Seconds())
	r.regionsPerPage.Observe(float64(len(page.Merged)))
}

// ObserveDocument records the outcome of a whole run.
func (r *Recorder) ObserveDocument(res *pipeline.Result, err error) {
	if err != nil {
		r.documentsTotal.WithLabelValues("error").Inc()
		return
	}
	r.documentsTotal.WithLabelValues("success").Inc()
	if res != nil {
		r.documentDuration.Observe(res.Duration.Seconds())
	}
}

// WriteToTextfile writes the gathered metrics to filename, creating its
// directory if needed.
func (r *Recorder) WriteToTextfile(filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(filename, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BulkImportMetrics records row-level outcomes of the upload pipelines.
type BulkImportMetrics struct {
	duration *prometheus.HistogramVec
	rowsOK   *prometheus.CounterVec
	rowsBad  *prometheus.CounterVec
}

// NewBulkImportMetrics registers the import metrics on the provided registerer.
func NewBulkImportMetrics(reg prometheus.Registerer) *BulkImportMetrics {
	if reg == nil {
		return &BulkImportMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bulk_import_duration_seconds",
		Help:    "Duration of bulk import batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	rowsOK := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_import_rows_committed",
		Help: "Rows committed by bulk imports.",
	}, []string{"kind"})
	rowsBad := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_import_rows_failed",
		Help: "Rows rejected by bulk import validation.",
	}, []string{"kind"})
	reg.MustRegister(duration, rowsOK, rowsBad)
	return &BulkImportMetrics{
		duration: duration,
		rowsOK:   rowsOK,
		rowsBad:  rowsBad,
	}
}

// ObserveDuration records the duration of one import batch.
func (m *BulkImportMetrics) ObserveDuration(kind string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// AddCommitted counts rows written by one import batch.
func (m *BulkImportMetrics) AddCommitted(kind string, rows int) {
	if m == nil || m.rowsOK == nil || rows <= 0 {
		return
	}
	m.rowsOK.WithLabelValues(normalizeLabel(kind)).Add(float64(rows))
}

// AddFailed counts rows rejected by one import batch.
func (m *BulkImportMetrics) AddFailed(kind string, rows int) {
	if m == nil || m.rowsBad == nil || rows <= 0 {
		return
	}
	m.rowsBad.WithLabelValues(normalizeLabel(kind)).Add(float64(rows))
}

func normalizeLabel(kind string) string {
	if kind == "" {
		return "unknown"
	}
	return kind
}

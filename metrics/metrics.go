package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CodecBuckets cover parse/serialize times for catalogs of a few thousand records.
var CodecBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// CodecMetrics tracks reward parsing, writing and overlay activity.
type CodecMetrics struct {
	RecordsParsed  *prometheus.CounterVec
	ParseErrors    *prometheus.CounterVec
	RecordsWritten *prometheus.CounterVec
	Overlay        *prometheus.CounterVec
	CatalogSize    prometheus.Gauge
	Duration       *prometheus.HistogramVec
}

// NewCodecMetrics registers the collectors with registerer.
func NewCodecMetrics(namespace string, registerer prometheus.Registerer) *CodecMetrics {
	factory := promauto.With(registerer)
	return &CodecMetrics{
		RecordsParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_parsed_total",
			Help:      "Reward records parsed, by document format",
		}, []string{"format"}),
		ParseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Failed document parses, by format and error kind",
		}, []string{"format", "kind"}),
		RecordsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Reward records serialized, by document format",
		}, []string{"format"}),
		Overlay: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_total",
			Help:      "Flat-text overlay fragments by result (applied/skipped)",
		}, []string{"result"}),
		CatalogSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_size",
			Help:      "Rewards currently held in the catalog",
		}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "codec_duration_seconds",
			Help:      "Time spent parsing or serializing a document",
			Buckets:   CodecBuckets,
		}, []string{"op", "format"}),
	}
}

// ObserveParse records one parse attempt.
func (m *CodecMetrics) ObserveParse(format string, records int, kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues("parse", format).Observe(took.Seconds())
	if kind != "" {
		m.ParseErrors.WithLabelValues(format, kind).Inc()
		return
	}
	m.RecordsParsed.WithLabelValues(format).Add(float64(records))
}

// ObserveWrite records one serialization.
func (m *CodecMetrics) ObserveWrite(format string, records int, took time.Duration) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues("write", format).Observe(took.Seconds())
	m.RecordsWritten.WithLabelValues(format).Add(float64(records))
}

// ObserveOverlay records the outcome of a flat-text overlay.
func (m *CodecMetrics) ObserveOverlay(applied, skipped int) {
	if m == nil {
		return
	}
	m.Overlay.WithLabelValues("applied").Add(float64(applied))
	m.Overlay.WithLabelValues("skipped").Add(float64(skipped))
}

// SetCatalogSize updates the catalog size gauge.
func (m *CodecMetrics) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.CatalogSize.Set(float64(n))
}

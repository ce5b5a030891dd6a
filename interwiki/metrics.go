package interwiki

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/garyhouston/interwiki/family"
)

// Metrics exports the progress of a run to Prometheus. A nil *Metrics
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	queries  *prometheus.CounterVec
	fetched  *prometheus.CounterVec
	batch    prometheus.Histogram
	edits    *prometheus.CounterVec
	subjects *prometheus.CounterVec
	active   prometheus.Gauge
	open     prometheus.Gauge
}

// NewMetrics registers the bot's metrics on a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interwiki_fetch_batches_total",
			Help: "Number of page fetch batches, by site.",
		}, []string{"site"}),
		fetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interwiki_pages_fetched_total",
			Help: "Number of pages fetched, by site.",
		}, []string{"site"}),
		batch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "interwiki_fetch_batch_size",
			Help:    "Pages per fetch batch.",
			Buckets: prometheus.LinearBuckets(10, 10, 6),
		}),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interwiki_edits_total",
			Help: "Page saves, by site and result.",
		}, []string{"site", "result"}),
		subjects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interwiki_subjects_total",
			Help: "Finished origin pages, by outcome.",
		}, []string{"outcome"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "interwiki_active_subjects",
			Help: "Origin pages currently in work.",
		}),
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "interwiki_outstanding_pages",
			Help: "Pages waiting to be fetched, over all sites.",
		}),
	}
	m.Registry.MustRegister(m.queries, m.fetched, m.batch, m.edits, m.subjects, m.active, m.open)
	return m
}

// WriteToTextfile writes the current values in the text format of the node
// exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) fetchedBatch(site *family.Site, pages int) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(site.String()).Inc()
	m.fetched.WithLabelValues(site.String()).Add(float64(pages))
	m.batch.Observe(float64(pages))
}

func (m *Metrics) saved(site *family.Site, result string) {
	if m == nil {
		return
	}
	m.edits.WithLabelValues(site.String(), result).Inc()
}

func (m *Metrics) finished(outcome string) {
	if m == nil {
		return
	}
	m.subjects.WithLabelValues(outcome).Inc()
}

func (m *Metrics) progress(active, outstanding int) {
	if m == nil {
		return
	}
	m.active.Set(float64(active))
	m.open.Set(float64(outstanding))
}

package opds

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/mo"

	"github.com/KonishchevDmitry/opds/pkg/feed"
)

// Metrics collects parse statistics. It must be registered by the caller.
type Metrics struct {
	fetchDuration prometheus.Histogram
	parseStatus   *prometheus.CounterVec
	parseFormat   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opds_fetch_duration",
			Help:    "Catalog fetch duration",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		parseStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opds_parse_status",
			Help: "Catalog parse status",
		}, []string{"status"}),

		parseFormat: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opds_parse_format",
			Help: "Format of successfully parsed catalogs",
		}, []string{"version"}),
	}
}

func (m *Metrics) observe(result mo.Result[*feed.Feed]) {
	if feed, err := result.Get(); err != nil {
		m.parseStatus.WithLabelValues(KindOf(err).String()).Inc()
	} else {
		m.parseStatus.WithLabelValues("ok").Inc()
		m.parseFormat.WithLabelValues(string(feed.Version)).Inc()
	}
}

var _ prometheus.Collector = &Metrics{}

func (m *Metrics) Describe(descs chan<- *prometheus.Desc) {
	m.fetchDuration.Describe(descs)
	m.parseStatus.Describe(descs)
	m.parseFormat.Describe(descs)
}

func (m *Metrics) Collect(metrics chan<- prometheus.Metric) {
	m.fetchDuration.Collect(metrics)
	m.parseStatus.Collect(metrics)
	m.parseFormat.Collect(metrics)
}

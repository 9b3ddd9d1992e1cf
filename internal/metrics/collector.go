package metrics

import "github.com/prometheus/client_golang/prometheus"

// BrokerStats provides the metrics collector access to live broker state.
type BrokerStats interface {
	InFlightCalls() int
	OpenSessions() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	stats BrokerStats

	inFlightCalls *prometheus.Desc
	openSessions  *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// stats may be nil (metrics will report 0).
func NewCollector(stats BrokerStats) *Collector {
	return &Collector{
		stats: stats,
		inFlightCalls: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "in_flight_calls"),
			"Synthesis calls currently awaiting upstream audio.",
			nil, nil,
		),
		openSessions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "open_sessions"),
			"Upstream websocket sessions currently open.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inFlightCalls
	ch <- c.openSessions
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.stats != nil {
		ch <- prometheus.MustNewConstMetric(c.inFlightCalls, prometheus.GaugeValue, float64(c.stats.InFlightCalls()))
		ch <- prometheus.MustNewConstMetric(c.openSessions, prometheus.GaugeValue, float64(c.stats.OpenSessions()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.inFlightCalls, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.openSessions, prometheus.GaugeValue, 0)
	}
}

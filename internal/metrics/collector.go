package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ReactorStats gives the metrics collector access to live reactor state that
// isn't naturally expressed as a counter (things read at scrape time).
type ReactorStats interface {
	TriggerCount() int
	ActiveTagCount() int
	TimerSubscriberCount() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	stats ReactorStats

	triggerCount        *prometheus.Desc
	activeTagCount       *prometheus.Desc
	timerSubscriberCount *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// stats may be nil before the reactor has started; the collector reports
// zero values in that case rather than panicking.
func NewCollector(stats ReactorStats) *Collector {
	return &Collector{
		stats: stats,
		triggerCount: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "trigger_count"),
			"Current number of triggers loaded in the trigger index.",
			nil, nil,
		),
		activeTagCount: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "active_tag_count"),
			"Current number of trigger tags currently active.",
			nil, nil,
		),
		timerSubscriberCount: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "timer_subscribers_active"),
			"Current number of live-timer subscription streams.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.triggerCount
	ch <- c.activeTagCount
	ch <- c.timerSubscriberCount
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.stats == nil {
		ch <- prometheus.MustNewConstMetric(c.triggerCount, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.activeTagCount, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.timerSubscriberCount, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.triggerCount, prometheus.GaugeValue, float64(c.stats.TriggerCount()))
	ch <- prometheus.MustNewConstMetric(c.activeTagCount, prometheus.GaugeValue, float64(c.stats.ActiveTagCount()))
	ch <- prometheus.MustNewConstMetric(c.timerSubscriberCount, prometheus.GaugeValue, float64(c.stats.TimerSubscriberCount()))
}

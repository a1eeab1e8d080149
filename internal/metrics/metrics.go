// Package metrics exposes Prometheus counters for the serve mode.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/psantana5/compute-reaper/internal/reaper"
)

// Collector tracks purge-cycle outcomes.
type Collector struct {
	cyclesTotal        *prometheus.CounterVec
	jobsClassified     *prometheus.CounterVec
	jobsDeleted        prometheus.Counter
	dirsRemoved        prometheus.Counter
	itemsSkipped       prometheus.Counter
	cycleDuration      prometheus.Gauge
	lastCycleTimestamp prometheus.Gauge
}

// NewCollector creates and registers the reaper metrics.
func NewCollector() *Collector {
	c := &Collector{
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reaper_cycles_total",
				Help: "Total purge cycles by result",
			},
			[]string{"result"},
		),
		jobsClassified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reaper_jobs_classified_total",
				Help: "Jobs classified by disposition",
			},
			[]string{"disposition"},
		),
		jobsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reaper_jobs_deleted_total",
			Help: "Zombie jobs deleted",
		}),
		dirsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reaper_directories_removed_total",
			Help: "Orphaned working directories removed",
		}),
		itemsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reaper_items_skipped_total",
			Help: "Jobs skipped due to per-item derivation errors",
		}),
		cycleDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reaper_cycle_duration_seconds",
			Help: "Duration of the last purge cycle",
		}),
		lastCycleTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reaper_last_cycle_timestamp_seconds",
			Help: "Unix timestamp of the last completed cycle",
		}),
	}

	prometheus.MustRegister(c.cyclesTotal)
	prometheus.MustRegister(c.jobsClassified)
	prometheus.MustRegister(c.jobsDeleted)
	prometheus.MustRegister(c.dirsRemoved)
	prometheus.MustRegister(c.itemsSkipped)
	prometheus.MustRegister(c.cycleDuration)
	prometheus.MustRegister(c.lastCycleTimestamp)

	return c
}

// Observe updates all metrics from one finished cycle.
func (c *Collector) Observe(report *reaper.CycleReport, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.cyclesTotal.WithLabelValues(result).Inc()

	if report == nil {
		return
	}

	for _, cl := range report.Classifications {
		c.jobsClassified.WithLabelValues(string(cl.Disposition)).Inc()
	}
	c.jobsDeleted.Add(float64(report.JobsDeleted))
	c.dirsRemoved.Add(float64(report.DirsRemoved))
	c.itemsSkipped.Add(float64(len(report.Skipped)))
	c.cycleDuration.Set(report.FinishedAt.Sub(report.StartedAt).Seconds())
	c.lastCycleTimestamp.Set(float64(report.FinishedAt.Unix()))
}

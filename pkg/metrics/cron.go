package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cron run outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	// OutcomeSkipped marks runs where another worker held the job lock.
	OutcomeSkipped = "skipped"
)

// CronJobMetrics tracks scheduled job runs. A nil value records nothing.
type CronJobMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	affected    *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return nil
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cron", Name: "job_runs_total",
			Help: "Cron job runs by outcome.",
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "cron", Name: "job_duration_seconds",
			Help:    "Wall time of executed cron jobs.",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 300},
		}, []string{"job"}),
		affected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cron", Name: "rows_affected_total",
			Help: "Rows deleted or archived by cron jobs.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "cron", Name: "last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.duration, m.affected, m.lastSuccess)
	return m
}

// Skipped counts a run that did not execute because the lock was held.
func (c *CronJobMetrics) Skipped(job string) {
	if c == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), OutcomeSkipped).Inc()
}

// Finished records an executed run. err decides the outcome.
func (c *CronJobMetrics) Finished(job string, took time.Duration, affected int64, err error) {
	if c == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(took.Seconds())
	if affected > 0 {
		c.affected.WithLabelValues(job).Add(float64(affected))
	}
	if err != nil {
		c.runs.WithLabelValues(job, OutcomeFailure).Inc()
		return
	}
	c.runs.WithLabelValues(job, OutcomeSuccess).Inc()
	c.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

// Failed counts a run that errored before the job started, such as a lock error.
func (c *CronJobMetrics) Failed(job string) {
	if c == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), OutcomeFailure).Inc()
}

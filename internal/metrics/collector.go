// Package metrics provides internal metrics collection for the job
// pipeline. This package is internal and should not be imported by
// external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Collector holds the job pipeline metrics. A nil *Collector is valid:
// every method is a no-op, so callers never need a guard.
type Collector struct {
	jobsSubmitted prometheus.Counter
	jobsImported  prometheus.Counter
	jobsFailed    prometheus.Counter
	pollTicks     *prometheus.CounterVec
	downloadBytes prometheus.Counter
	jobDuration   prometheus.Histogram

	logger *zap.Logger
}

// NewCollector creates and registers the job metrics under namespace on
// the given registerer. Pass prometheus.DefaultRegisterer outside tests;
// a nil registerer leaves the metrics unregistered but still usable.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{logger: logger.With(zap.String("component", "metrics"))}

	c.jobsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_submitted_total",
		Help:      "Generation jobs submitted to the provider.",
	})
	c.jobsImported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_imported_total",
		Help:      "Jobs whose result was downloaded and imported.",
	})
	c.jobsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_failed_total",
		Help:      "Jobs that reached a terminal error state.",
	})
	c.pollTicks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_ticks_total",
		Help:      "Status poll ticks by outcome bucket.",
	}, []string{"bucket"})
	c.downloadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "download_bytes_total",
		Help:      "Bytes downloaded for generated results.",
	})
	c.jobDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Wall time from submission to terminal state.",
		Buckets:   prometheus.ExponentialBuckets(2, 2, 10),
	})

	if reg != nil {
		for _, col := range []prometheus.Collector{
			c.jobsSubmitted, c.jobsImported, c.jobsFailed,
			c.pollTicks, c.downloadBytes, c.jobDuration,
		} {
			if err := reg.Register(col); err != nil {
				c.logger.Warn("metric registration failed", zap.Error(err))
			}
		}
	}
	return c
}

// JobSubmitted records one accepted submission.
func (c *Collector) JobSubmitted() {
	if c != nil {
		c.jobsSubmitted.Inc()
	}
}

// JobImported records one successfully imported job.
func (c *Collector) JobImported() {
	if c != nil {
		c.jobsImported.Inc()
	}
}

// JobFailed records one job reaching a terminal error.
func (c *Collector) JobFailed() {
	if c != nil {
		c.jobsFailed.Inc()
	}
}

// PollTick records one status check with its outcome bucket.
func (c *Collector) PollTick(bucket string) {
	if c != nil {
		c.pollTicks.WithLabelValues(bucket).Inc()
	}
}

// DownloadBytes adds to the downloaded-bytes counter.
func (c *Collector) DownloadBytes(n int64) {
	if c != nil && n > 0 {
		c.downloadBytes.Add(float64(n))
	}
}

// ObserveJobDuration records a job's submission-to-terminal wall time.
func (c *Collector) ObserveJobDuration(seconds float64) {
	if c != nil {
		c.jobDuration.Observe(seconds)
	}
}

package jobs

import (
	"time"

	"github.com/airenas/asrjobs/internal/pkg/gate"
	"github.com/airenas/asrjobs/internal/pkg/job"
	"github.com/airenas/asrjobs/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	modeSync  = "sync"
	modeAsync = "async"
)

type serviceMetrics struct {
	responseDur *prometheus.HistogramVec
	requestSize *prometheus.SummaryVec
	jobsEnded   *prometheus.CounterVec
	jobDur      *prometheus.HistogramVec
	gateInUse   prometheus.GaugeFunc
	gateCap     prometheus.GaugeFunc
}

func newServiceMetrics(g *gate.Gate) *serviceMetrics {
	namespace := "asr_jobs"
	res := &serviceMetrics{}
	res.responseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_durations_seconds",
			Help:      "Request latency distributions.",
		}, []string{"handler"})
	res.requestSize = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "request_size_bytes",
			Help:      "Request size in bytes."}, []string{"handler"})
	res.jobsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_end",
			Help:      "Finished jobs counter",
		}, []string{"mode", "outcome", "source"})
	res.jobDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Job duration metrics",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 15),
		}, []string{"mode"})
	res.gateInUse = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gate_in_use",
			Help:      "Jobs holding the gate",
		}, func() float64 { return float64(g.InUse()) })
	res.gateCap = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gate_capacity",
			Help:      "Max jobs running at once",
		}, func() float64 { return float64(g.Capacity()) })
	return res
}

func (m *serviceMetrics) register() error {
	return metrics.Register(m.responseDur, m.requestSize, m.jobsEnded, m.jobDur, m.gateInUse, m.gateCap)
}

func (m *serviceMetrics) observeJob(mode string, outcome job.Outcome, dur time.Duration) {
	if m == nil {
		return
	}
	res, src := "finished", ""
	if f, ok := outcome.(*job.Failure); ok {
		res, src = "error", f.Source.String()
	}
	m.jobsEnded.WithLabelValues(mode, res, src).Inc()
	m.jobDur.WithLabelValues(mode).Observe(dur.Seconds())
}

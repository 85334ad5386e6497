package metrics

import (
	"net/http"
	"time"

	"trade-signal/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the signal service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	EvaluationsTotal   *prometheus.CounterVec // labels: rating
	ShortHistoryTotal  prometheus.Counter
	Confidence         prometheus.Histogram
	EvaluationDuration prometheus.Histogram
	CacheRequests      *prometheus.CounterVec // labels: result=hit|miss|error
	RatingChanges      *prometheus.CounterVec // labels: to

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. A nil reg uses a
// fresh registry so tests never collide on the default one.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_evaluations_total",
			Help: "Signal evaluations by resulting rating",
		}, []string{"rating"}),
		ShortHistoryTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signal_short_history_total",
			Help: "Evaluations short-circuited for having fewer bars than required",
		}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signal_confidence",
			Help:    "Distribution of evaluation confidence scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signal_evaluation_duration_seconds",
			Help:    "Time spent fetching candles and running the rule battery",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_cache_requests_total",
			Help: "Evaluation cache lookups by result",
		}, []string{"result"}),
		RatingChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_rating_changes_total",
			Help: "Watchlist rating transitions observed by the poller",
		}, []string{"to"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.EvaluationsTotal,
		m.ShortHistoryTotal,
		m.Confidence,
		m.EvaluationDuration,
		m.CacheRequests,
		m.RatingChanges,
	)
	return m
}

func (m *Metrics) ObserveEvaluation(res domain.SignalResult, took time.Duration) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(string(res.Rating)).Inc()
	m.EvaluationDuration.Observe(took.Seconds())
	if !res.Levels.Computed {
		m.ShortHistoryTotal.Inc()
		return
	}
	m.Confidence.Observe(float64(res.Confidence))
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheRequests.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheRequests.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) CacheError() {
	if m != nil {
		m.CacheRequests.WithLabelValues("error").Inc()
	}
}

func (m *Metrics) RatingChanged(to domain.Rating) {
	if m != nil {
		m.RatingChanges.WithLabelValues(string(to)).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

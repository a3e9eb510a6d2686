// Package metrics defines the Prometheus collectors for the question
// answering pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage names used with ObserveStage.
const (
	StageSearch = "search"
	StageFetch  = "fetch"
	StageFilter = "filter"
	StageQA     = "qa"
	StageTotal  = "total"
)

// Answer outcomes.
const (
	OutcomeFound = "found"
	OutcomeIDK   = "idk"
	OutcomeError = "error"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	QuestionsTotal *prometheus.CounterVec
	AnswersTotal   *prometheus.CounterVec
	FetchesTotal   *prometheus.CounterVec
	CacheHitsTotal prometheus.Counter
	StageDuration  *prometheus.HistogramVec
	ContextLength  prometheus.Histogram
}

// New registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		QuestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nimbus_questions_total",
				Help: "Total number of questions received",
			},
			[]string{"source"},
		),
		AnswersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nimbus_answers_total",
				Help: "Total number of answers by outcome",
			},
			[]string{"outcome"},
		),
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nimbus_page_fetches_total",
				Help: "Total number of result page fetches by outcome",
			},
			[]string{"outcome"},
		),
		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nimbus_answer_cache_hits_total",
				Help: "Total number of questions answered from the cache",
			},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nimbus_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		ContextLength: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nimbus_context_length_chars",
				Help:    "Length of the filtered context passed to the QA model",
				Buckets: prometheus.ExponentialBuckets(100, 2, 10),
			},
		),
	}
}

// ObserveStage records the time elapsed since start for stage. Safe on a nil receiver.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Question counts one question from source ("web" or "document").
func (m *Metrics) Question(source string) {
	if m == nil {
		return
	}
	m.QuestionsTotal.WithLabelValues(source).Inc()
}

// Answer counts one answer outcome.
func (m *Metrics) Answer(outcome string) {
	if m == nil {
		return
	}
	m.AnswersTotal.WithLabelValues(outcome).Inc()
}

// Fetch counts one page fetch.
func (m *Metrics) Fetch(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
}

// CacheHit counts one answer served from the cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// Context records the length of a filtered context.
func (m *Metrics) Context(length int) {
	if m == nil {
		return
	}
	m.ContextLength.Observe(float64(length))
}

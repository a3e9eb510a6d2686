package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Question("web")
	m.Question("web")
	m.Question("document")
	m.Answer(OutcomeFound)
	m.Answer(OutcomeIDK)
	m.Fetch(true)
	m.Fetch(false)
	m.Fetch(false)
	m.CacheHit()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.QuestionsTotal.WithLabelValues("web")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuestionsTotal.WithLabelValues("document")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersTotal.WithLabelValues(OutcomeIDK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
}

func TestMetrics_Histograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveStage(StageSearch, time.Now().Add(-time.Second))
	m.Context(1200)

	count, err := testutil.GatherAndCount(reg, "nimbus_stage_duration_seconds", "nimbus_context_length_chars")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Question("web")
		m.Answer(OutcomeFound)
		m.Fetch(true)
		m.CacheHit()
		m.Context(10)
		m.ObserveStage(StageQA, time.Now())
	})
}

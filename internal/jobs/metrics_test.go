package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("lookup:warmup").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("lookup:warmup").End(boom), boom)
	m.AddItems("lookup:warmup", 4)
	m.AddItems("lookup:warmup", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("lookup:warmup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("lookup:warmup", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("lookup:warmup")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.items.WithLabelValues("lookup:warmup")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("x").End(boom), boom)
	m.AddItems("x", 3)
}

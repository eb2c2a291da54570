package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestCounters(t *testing.T) {
	pageviews := eventsRecorded.WithLabelValues("pageview")
	before := counterValue(t, pageviews)
	EventRecorded("pageview")
	EventRecorded("pageview")
	assert.Equal(t, before+2, counterValue(t, pageviews))

	rejected := counterValue(t, eventsRejected)
	EventsRejected(3)
	assert.Equal(t, rejected+3, counterValue(t, eventsRejected))

	hits := chartCache.WithLabelValues("hit")
	before = counterValue(t, hits)
	ChartCacheHit()
	assert.Equal(t, before+1, counterValue(t, hits))
}

func TestObserveRequestIsGathered(t *testing.T) {
	ObserveRequest("/track", "POST", 202, 3*time.Millisecond)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "streamlit_analytics_http_request_duration_seconds" {
			found = true
			assert.NotEmpty(t, f.GetMetric())
		}
	}
	assert.True(t, found)
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequestCountsByActionAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg, "stores")

	rec.ObserveRequest("getStore", 200, 10*time.Millisecond)
	rec.ObserveRequest("getStore", 200, 5*time.Millisecond)
	rec.ObserveRequest("getStore", 404, time.Millisecond)
	rec.ObserveRequest("", 400, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.requests.WithLabelValues("getStore", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.requests.WithLabelValues("getStore", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.requests.WithLabelValues("unknown", "400")))
}

func TestObserveValidationRegistersHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg, "inventory")

	rec.ObserveValidation("found", 20*time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "store_validation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.ObserveRequest("x", 200, time.Second)
	rec.ObserveValidation("found", time.Second)
	assert.Nil(t, New(nil, "stores"))
}

package storeclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/store-inventory/internal/config"
	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/metrics"
)

func newClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.StoreServiceConfig{URL: srv.URL, Timeout: timeout}, nil, nil)
}

func TestLookupFound(t *testing.T) {
	var got getStoreRequest
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"store_id": 7, "name": "Acme", "address": "1 Main St"}`))
	}, time.Second)

	check, err := c.Lookup(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreFound, check)
	assert.Equal(t, "getStore", got.Action)
	assert.Equal(t, int64(7), got.StoreID)
	assert.True(t, c.Validate(context.Background(), 7))
}

func TestLookupMismatchedID(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"store_id": 8}`))
	}, time.Second)

	check, err := c.Lookup(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, domain.StoreMissing, check)
	assert.False(t, c.Validate(context.Background(), 7))
}

func TestLookupComparesAsInteger(t *testing.T) {
	cases := map[string]domain.StoreCheck{
		`{"store_id": 7.0}`: domain.StoreFound,
		`{"store_id": "7"}`: domain.StoreMissing,
		`{"store_id": 7.5}`: domain.StoreMissing,
		`{}`:                domain.StoreMissing,
	}
	for body, want := range cases {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}, time.Second)
		check, _ := c.Lookup(context.Background(), 7)
		assert.Equal(t, want, check, body)
	}
}

func TestLookupNotFoundStatus(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "Store not found"}`))
	}, time.Second)

	check, err := c.Lookup(context.Background(), 9999)
	assert.NoError(t, err)
	assert.Equal(t, domain.StoreMissing, check)
}

func TestLookupServerErrorIsUnreachable(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, time.Second)

	check, err := c.Lookup(context.Background(), 1)
	assert.Error(t, err)
	assert.Equal(t, domain.StoreUnreachable, check)
	assert.False(t, c.Validate(context.Background(), 1))
}

func TestLookupMalformedBody(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}, time.Second)

	check, err := c.Lookup(context.Background(), 1)
	assert.Error(t, err)
	assert.Equal(t, domain.StoreUnreachable, check)
}

func TestLookupTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	start := time.Now()
	assert.False(t, c.Validate(context.Background(), 1))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLookupNotConfigured(t *testing.T) {
	c := New(config.StoreServiceConfig{}, nil, nil)

	check, err := c.Lookup(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, domain.StoreUnreachable, check)
	assert.False(t, c.Validate(context.Background(), 1))
}

func TestLookupRecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"store_id": 1}`))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	c := New(config.StoreServiceConfig{URL: srv.URL}, nil, metrics.New(reg, "inventory"))
	c.Validate(context.Background(), 1)

	count, err := testutil.GatherAndCount(reg, "store_validation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/store-inventory/internal/core/service"
	"github.com/rl1809/store-inventory/internal/metrics"
	"github.com/rl1809/store-inventory/internal/port/porttest"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func newStoreRouter(db Pinger) (http.Handler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg, "store")
	h := NewStoreHandler(service.NewStoreService(porttest.NewStoreRepo()), nil, rec)
	return NewHTTPHandler(h, db, nil).Router(reg), reg
}

func do(t *testing.T, router http.Handler, req *http.Request) (*http.Response, string) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	res := w.Result()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestHTTPRequestEndpoint(t *testing.T) {
	router, _ := newStoreRouter(stubPinger{})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"addStore","store":{"name":"Acme","address":"1 Main St"}}`))
	res, body := do(t, router, req)

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.NotEmpty(t, res.Header.Get(requestIDHeader))
	assert.Contains(t, body, `"name":"Acme"`)
}

func TestHTTPRequestIDPropagated(t *testing.T) {
	router, _ := newStoreRouter(stubPinger{})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"listStores"}`))
	req.Header.Set(requestIDHeader, "req-123")
	res, _ := do(t, router, req)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "req-123", res.Header.Get(requestIDHeader))
}

func TestHTTPInvokeEndpoint(t *testing.T) {
	router, _ := newStoreRouter(stubPinger{})

	req := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(`{"body":"{\"action\":\"getStore\",\"store_id\":77}"}`))
	res, body := do(t, router, req)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var envelope Response
	require.NoError(t, jsonUnmarshal(body, &envelope))
	assert.Equal(t, http.StatusNotFound, envelope.StatusCode)
	assert.Equal(t, "application/json", envelope.Headers["Content-Type"])
	assert.Equal(t, "Store not found", errorOf(t, envelope).Error)
}

func TestHTTPHealth(t *testing.T) {
	router, _ := newStoreRouter(stubPinger{})
	res, body := do(t, router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	router, _ = newStoreRouter(stubPinger{err: errors.New("connection refused")})
	res, body = do(t, router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.JSONEq(t, `{"status":"unavailable"}`, body)
}

func TestHTTPMetrics(t *testing.T) {
	router, _ := newStoreRouter(stubPinger{})

	do(t, router, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"listStores"}`)))
	res, body := do(t, router, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "handler_requests_total")
	assert.Contains(t, body, `action="listStores"`)
}

func TestHTTPMethodNotAllowed(t *testing.T) {
	router, _ := newStoreRouter(stubPinger{})
	res, _ := do(t, router, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestHTTPIdempotencyHeader(t *testing.T) {
	f := newInventoryFixture(service.InventoryOptions{})
	router := NewHTTPHandler(f.handler, nil, nil).Router(nil)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"addItemToStore","payload":{"store_id":1,"item_name":"Widget"}}`))
		req.Header.Set(idempotencyKeyHeader, "order-7")
		res, _ := do(t, router, req)
		return res.StatusCode
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusConflict, send())
	assert.True(t, f.idem.Has("item:order-7"))
	assert.Len(t, f.repo.Items(), 1)
}

type panicDispatcher struct{}

func (panicDispatcher) Handle(ctx context.Context, request []byte) Response { panic("boom") }
func (panicDispatcher) Invoke(ctx context.Context, event []byte) Response   { panic("boom") }

func TestHTTPRecoverer(t *testing.T) {
	router := NewHTTPHandler(panicDispatcher{}, nil, nil).Router(nil)

	res, body := do(t, router, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Contains(t, body, "Internal server error")
}

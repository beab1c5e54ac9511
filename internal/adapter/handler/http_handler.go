package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rl1809/store-inventory/internal/logger"
)

const (
	maxBodyBytes         = 1 << 20
	idempotencyKeyHeader = "Idempotency-Key"
)

// Dispatcher is implemented by StoreHandler and InventoryHandler.
type Dispatcher interface {
	Handle(ctx context.Context, request []byte) Response
	Invoke(ctx context.Context, event []byte) Response
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type HTTPHandler struct {
	dispatcher Dispatcher
	db         Pinger
	logg       *logger.Logger
}

func NewHTTPHandler(dispatcher Dispatcher, db Pinger, logg *logger.Logger) *HTTPHandler {
	if logg == nil {
		logg = logger.Nop()
	}
	return &HTTPHandler{dispatcher: dispatcher, db: db, logg: logg}
}

// Router mounts the request endpoints, health and metrics.
func (h *HTTPHandler) Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(
		Recoverer(h.logg),
		RequestID(h.logg),
		Logging(h.logg),
	)

	r.Post("/", h.Request)
	r.Post("/invoke", h.Invoke)
	r.Get("/health", h.HealthCheck)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Request treats the HTTP body as the request object.
func (h *HTTPHandler) Request(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeResponse(w, badRequest("Invalid request body", err.Error()))
		return
	}

	ctx := WithIdempotencyKey(r.Context(), r.Header.Get(idempotencyKeyHeader))
	writeResponse(w, h.dispatcher.Handle(ctx, body))
}

// Invoke accepts a full invocation event and returns the structured
// response envelope as JSON.
func (h *HTTPHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusOK, badRequest("Invalid request body", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.dispatcher.Invoke(r.Context(), body))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logg.Error(ctx, "health.db.failed", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeResponse(w http.ResponseWriter, resp Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	io.WriteString(w, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

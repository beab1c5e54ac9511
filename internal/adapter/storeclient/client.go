// Package storeclient asks the store service whether a store exists before
// the inventory service writes against it.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rl1809/store-inventory/internal/config"
	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/logger"
	"github.com/rl1809/store-inventory/internal/metrics"
)

const maxResponseBytes = 1 << 20

var ErrNotConfigured = errors.New("store service url is not configured")

type getStoreRequest struct {
	Action  string `json:"action"`
	StoreID int64  `json:"store_id"`
}

type Client struct {
	url     string
	http    *http.Client
	logg    *logger.Logger
	metrics *metrics.Recorder
}

func New(cfg config.StoreServiceConfig, logg *logger.Logger, rec *metrics.Recorder) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Client{
		url:     cfg.URL,
		http:    &http.Client{Timeout: timeout},
		logg:    logg,
		metrics: rec,
	}
}

// Validate reports whether the store service confirmed storeID. Every
// failure, including transport errors, is reported as false.
func (c *Client) Validate(ctx context.Context, storeID int64) bool {
	check, _ := c.Lookup(ctx, storeID)
	return check == domain.StoreFound
}

// Lookup makes a single getStore call. StoreFound requires an HTTP 200 whose
// JSON object carries the same integer store_id.
func (c *Client) Lookup(ctx context.Context, storeID int64) (domain.StoreCheck, error) {
	ctx = c.logg.WithStoreID(ctx, storeID)
	start := time.Now()

	check, status, err := c.lookup(ctx, storeID)

	c.metrics.ObserveValidation(check.String(), time.Since(start))
	ctx = c.logg.WithFields(ctx, map[string]any{
		"outcome":     check.String(),
		"http_status": status,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	switch check {
	case domain.StoreFound:
		c.logg.Info(ctx, "store.validation.ok")
	case domain.StoreMissing:
		c.logg.Warn(ctx, "store.validation.missing")
	default:
		c.logg.Error(ctx, "store.validation.unreachable", err)
	}
	return check, err
}

func (c *Client) lookup(ctx context.Context, storeID int64) (domain.StoreCheck, int, error) {
	if c.url == "" {
		return domain.StoreUnreachable, 0, ErrNotConfigured
	}

	payload, err := json.Marshal(getStoreRequest{Action: "getStore", StoreID: storeID})
	if err != nil {
		return domain.StoreUnreachable, 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return domain.StoreUnreachable, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.StoreUnreachable, 0, fmt.Errorf("call store service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return domain.StoreUnreachable, resp.StatusCode, fmt.Errorf("store service returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return domain.StoreMissing, resp.StatusCode, nil
	}

	var body map[string]any
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return domain.StoreUnreachable, resp.StatusCode, fmt.Errorf("decode store service response: %w", err)
	}

	returned, ok := asInt64(body["store_id"])
	if !ok || returned != storeID {
		return domain.StoreMissing, resp.StatusCode, nil
	}
	return domain.StoreFound, resp.StatusCode, nil
}

func asInt64(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rl1809/store-inventory/internal/apperr"
	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/core/service"
	"github.com/rl1809/store-inventory/internal/logger"
	"github.com/rl1809/store-inventory/internal/metrics"
)

type StoreHandler struct {
	storeService *service.StoreService
	logg         *logger.Logger
	metrics      *metrics.Recorder
}

type storeInput struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

type addStoreRequest struct {
	Store *storeInput `json:"store" validate:"required"`
}

type getStoreRequest struct {
	StoreID int64 `json:"store_id" validate:"required"`
}

type storeJSON struct {
	StoreID   int64  `json:"store_id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
}

type listStoresResponse struct {
	Stores []storeJSON `json:"stores"`
}

func NewStoreHandler(storeService *service.StoreService, logg *logger.Logger, rec *metrics.Recorder) *StoreHandler {
	if logg == nil {
		logg = logger.Nop()
	}
	return &StoreHandler{storeService: storeService, logg: logg, metrics: rec}
}

// Invoke handles a full invocation event.
func (h *StoreHandler) Invoke(ctx context.Context, event []byte) Response {
	request, err := unwrapEvent(event)
	if err != nil {
		return h.rejectEnvelope(ctx, err)
	}
	return h.Handle(ctx, request)
}

var storeActions = map[string]bool{
	"addStore":   true,
	"getStore":   true,
	"listStores": true,
}

// Handle dispatches a request object to the matching action.
func (h *StoreHandler) Handle(ctx context.Context, request []byte) (resp Response) {
	start := time.Now()
	action := ""
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			h.logg.Error(ctx, "store.handler.panic", err)
			resp = errorResponse(apperr.Wrap(apperr.CodeInternal, err, ""))
		}
		h.metrics.ObserveRequest(actionLabel(storeActions, action), resp.StatusCode, time.Since(start))
	}()

	action, err := actionOf(request)
	if err != nil {
		return h.rejectEnvelope(ctx, err)
	}
	ctx = h.logg.WithAction(ctx, action)

	switch action {
	case "":
		return badRequest("Missing action parameter", "")
	case "addStore":
		resp = h.addStore(ctx, request)
	case "getStore":
		resp = h.getStore(ctx, request)
	case "listStores":
		resp = h.listStores(ctx)
	default:
		return badRequest(fmt.Sprintf("Unknown action: %s", action), "")
	}

	return resp
}

func (h *StoreHandler) addStore(ctx context.Context, request []byte) Response {
	var req addStoreRequest
	if resp, ok := h.decode(request, &req, "Missing required store data (name, address)"); !ok {
		return resp
	}

	store, err := h.storeService.AddStore(ctx, req.Store.Name, req.Store.Address)
	if err != nil {
		return failure(ctx, h.logg, "store.request.failed", err)
	}

	h.logg.Info(h.logg.WithStoreID(ctx, store.ID), "store.created")
	return jsonResponse(http.StatusCreated, toStoreJSON(*store))
}

func (h *StoreHandler) getStore(ctx context.Context, request []byte) Response {
	var req getStoreRequest
	if resp, ok := h.decode(request, &req, "Missing store_id parameter"); !ok {
		return resp
	}

	store, err := h.storeService.GetStore(ctx, req.StoreID)
	if err != nil {
		return failure(ctx, h.logg, "store.request.failed", err)
	}
	return jsonResponse(http.StatusOK, toStoreJSON(*store))
}

func (h *StoreHandler) listStores(ctx context.Context) Response {
	stores, err := h.storeService.ListStores(ctx)
	if err != nil {
		return failure(ctx, h.logg, "store.request.failed", err)
	}

	out := listStoresResponse{Stores: make([]storeJSON, 0, len(stores))}
	for _, s := range stores {
		out.Stores = append(out.Stores, toStoreJSON(s))
	}
	return jsonResponse(http.StatusOK, out)
}

func (h *StoreHandler) decode(request []byte, dst any, missing string) (Response, bool) {
	err := decodePayload(request, dst)
	if err == nil {
		return Response{}, true
	}
	if details, ok := fieldErrors(err); ok {
		return badRequest(missing, details), false
	}
	return badRequest("Invalid request payload", err.Error()), false
}

func (h *StoreHandler) rejectEnvelope(ctx context.Context, err error) Response {
	h.logg.Warn(h.logg.WithField(ctx, "reason", err.Error()), "store.request.rejected")
	if errors.Is(err, errInvalidJSON) {
		return badRequest("Invalid JSON in request body", "")
	}
	return badRequest("Invalid event structure for processing", err.Error())
}

func toStoreJSON(s domain.Store) storeJSON {
	return storeJSON{
		StoreID:   s.ID,
		Name:      s.Name,
		Address:   s.Address,
		CreatedAt: s.CreatedAt.Format(time.RFC3339Nano),
	}
}

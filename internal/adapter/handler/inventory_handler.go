package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/store-inventory/internal/apperr"
	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/core/service"
	"github.com/rl1809/store-inventory/internal/logger"
	"github.com/rl1809/store-inventory/internal/metrics"
)

type InventoryHandler struct {
	inventoryService *service.InventoryService
	logg             *logger.Logger
	metrics          *metrics.Recorder
}

type inventoryRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type addItemRequest struct {
	StoreID        int64           `json:"store_id" validate:"required"`
	ItemName       string          `json:"item_name" validate:"required"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type getInventoryRequest struct {
	StoreID int64 `json:"store_id" validate:"required"`
}

type updateQuantityRequest struct {
	ItemID   int64 `json:"item_id" validate:"required"`
	Quantity *int  `json:"quantity" validate:"required"`
}

type addItemResponse struct {
	Message string `json:"message"`
	ItemID  int64  `json:"item_id"`
}

type itemJSON struct {
	ItemID   int64   `json:"item_id"`
	ItemName string  `json:"item_name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type updateQuantityResponse struct {
	Message     string `json:"message"`
	ItemID      int64  `json:"item_id"`
	NewQuantity int    `json:"new_quantity"`
}

func NewInventoryHandler(inventoryService *service.InventoryService, logg *logger.Logger, rec *metrics.Recorder) *InventoryHandler {
	if logg == nil {
		logg = logger.Nop()
	}
	return &InventoryHandler{inventoryService: inventoryService, logg: logg, metrics: rec}
}

// Invoke handles a full invocation event.
func (h *InventoryHandler) Invoke(ctx context.Context, event []byte) Response {
	request, err := unwrapEvent(event)
	if err != nil {
		return h.rejectEnvelope(ctx, err)
	}
	return h.Handle(ctx, request)
}

var inventoryActions = map[string]bool{
	"addItemToStore":     true,
	"getStoreInventory":  true,
	"updateItemQuantity": true,
}

// Handle dispatches a request object to the matching action.
func (h *InventoryHandler) Handle(ctx context.Context, request []byte) (resp Response) {
	start := time.Now()
	var req inventoryRequest
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			h.logg.Error(ctx, "inventory.handler.panic", err)
			resp = errorResponse(apperr.Wrap(apperr.CodeInternal, err, ""))
		}
		h.metrics.ObserveRequest(actionLabel(inventoryActions, req.Action), resp.StatusCode, time.Since(start))
	}()

	if _, err := actionOf(request); err != nil {
		return h.rejectEnvelope(ctx, err)
	}
	if err := json.Unmarshal(request, &req); err != nil {
		return h.rejectEnvelope(ctx, fmt.Errorf("%w: %v", errStructure, err))
	}
	ctx = h.logg.WithAction(ctx, req.Action)

	switch req.Action {
	case "addItemToStore":
		resp = h.addItem(ctx, req.Payload)
	case "getStoreInventory":
		resp = h.getInventory(ctx, req.Payload)
	case "updateItemQuantity":
		resp = h.updateQuantity(ctx, req.Payload)
	default:
		return badRequest(fmt.Sprintf("Invalid action: %s", req.Action), "")
	}

	return resp
}

func (h *InventoryHandler) addItem(ctx context.Context, payload json.RawMessage) Response {
	var req addItemRequest
	if resp, ok := h.decode(payload, &req, "Missing required fields: store_id, item_name"); !ok {
		return resp
	}
	ctx = h.logg.WithStoreID(ctx, req.StoreID)

	key := req.IdempotencyKey
	if key == "" {
		key = idempotencyKeyFrom(ctx)
	}

	id, err := h.inventoryService.AddItem(ctx, domain.InventoryItem{
		StoreID:  req.StoreID,
		Name:     req.ItemName,
		Quantity: req.Quantity,
		Price:    req.Price,
	}, key)
	if err != nil {
		return failure(ctx, h.logg, "inventory.request.failed", err)
	}

	h.logg.Info(h.logg.WithField(ctx, "item_id", id), "inventory.item.created")
	return jsonResponse(http.StatusOK, addItemResponse{
		Message: "Item added to store successfully",
		ItemID:  id,
	})
}

func (h *InventoryHandler) getInventory(ctx context.Context, payload json.RawMessage) Response {
	var req getInventoryRequest
	if resp, ok := h.decode(payload, &req, "Missing store_id"); !ok {
		return resp
	}

	items, err := h.inventoryService.ListItems(ctx, req.StoreID)
	if err != nil {
		return failure(ctx, h.logg, "inventory.request.failed", err)
	}

	out := make([]itemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, itemJSON{
			ItemID:   it.ID,
			ItemName: it.Name,
			Quantity: it.Quantity,
			Price:    it.Price.InexactFloat64(),
		})
	}
	return jsonResponse(http.StatusOK, out)
}

func (h *InventoryHandler) updateQuantity(ctx context.Context, payload json.RawMessage) Response {
	var req updateQuantityRequest
	if resp, ok := h.decode(payload, &req, "Missing required fields: item_id, quantity"); !ok {
		return resp
	}

	if err := h.inventoryService.UpdateQuantity(ctx, req.ItemID, *req.Quantity); err != nil {
		return failure(ctx, h.logg, "inventory.request.failed", err)
	}
	return jsonResponse(http.StatusOK, updateQuantityResponse{
		Message:     "Item quantity updated successfully",
		ItemID:      req.ItemID,
		NewQuantity: *req.Quantity,
	})
}

func (h *InventoryHandler) decode(payload json.RawMessage, dst any, missing string) (Response, bool) {
	err := decodePayload(payload, dst)
	if err == nil {
		return Response{}, true
	}
	if details, ok := fieldErrors(err); ok {
		return badRequest(missing, details), false
	}
	return badRequest("Invalid event structure for processing", err.Error()), false
}

func (h *InventoryHandler) rejectEnvelope(ctx context.Context, err error) Response {
	h.logg.Warn(h.logg.WithField(ctx, "reason", err.Error()), "inventory.request.rejected")
	if errors.Is(err, errInvalidJSON) {
		return badRequest("Invalid JSON format in request body", err.Error())
	}
	return badRequest("Invalid event structure for processing", err.Error())
}

type idempotencyKeyCtx struct{}

// WithIdempotencyKey carries a transport-level idempotency key to addItemToStore.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

func idempotencyKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyCtx{}).(string)
	return key
}

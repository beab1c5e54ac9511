package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/store-inventory/internal/adapter/storeclient"
	"github.com/rl1809/store-inventory/internal/config"
	"github.com/rl1809/store-inventory/internal/core/service"
	"github.com/rl1809/store-inventory/internal/port/porttest"
)

// Runs the inventory handler against a live store service over HTTP.
func TestInventoryAgainstStoreService(t *testing.T) {
	storeHandler := NewStoreHandler(service.NewStoreService(porttest.NewStoreRepo()), nil, nil)
	storeSrv := httptest.NewServer(NewHTTPHandler(storeHandler, nil, nil).Router(nil))
	defer storeSrv.Close()

	client := storeclient.New(config.StoreServiceConfig{URL: storeSrv.URL, Timeout: 2 * time.Second}, nil, nil)
	repo := porttest.NewInventoryRepo()
	inventory := NewInventoryHandler(service.NewInventoryService(repo, client, porttest.NewIdempotency(), service.InventoryOptions{}), nil, nil)
	ctx := context.Background()

	created := storeHandler.Handle(ctx, []byte(`{"action":"addStore","store":{"name":"Acme","address":"1 Main St"}}`))
	require.Equal(t, http.StatusCreated, created.StatusCode)
	var store storeJSON
	decodeBody(t, created, &store)

	resp := inventory.Handle(ctx, []byte(fmt.Sprintf(`{"action":"addItemToStore","payload":{"store_id":%d,"item_name":"Widget","quantity":5,"price":9.99}}`, store.StoreID)))
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	var added addItemResponse
	decodeBody(t, resp, &added)

	resp = inventory.Handle(ctx, []byte(fmt.Sprintf(`{"action":"getStoreInventory","payload":{"store_id":%d}}`, store.StoreID)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []itemJSON
	decodeBody(t, resp, &items)
	require.Len(t, items, 1)
	assert.Equal(t, added.ItemID, items[0].ItemID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.InDelta(t, 9.99, items[0].Price, 0.005)

	resp = inventory.Handle(ctx, []byte(`{"action":"addItemToStore","payload":{"store_id":9999,"item_name":"Ghost"}}`))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Store with store_id 9999 not found or validation failed.", errorOf(t, resp).Error)
	assert.Len(t, repo.Items(), 1)
}

func TestInventoryWithStoreServiceDown(t *testing.T) {
	storeSrv := httptest.NewServer(http.NotFoundHandler())
	url := storeSrv.URL
	storeSrv.Close()

	client := storeclient.New(config.StoreServiceConfig{URL: url, Timeout: time.Second}, nil, nil)
	repo := porttest.NewInventoryRepo()
	body := []byte(`{"action":"addItemToStore","payload":{"store_id":1,"item_name":"Widget"}}`)

	lenient := NewInventoryHandler(service.NewInventoryService(repo, client, nil, service.InventoryOptions{}), nil, nil)
	assert.Equal(t, http.StatusNotFound, lenient.Handle(context.Background(), body).StatusCode)

	strict := NewInventoryHandler(service.NewInventoryService(repo, client, nil, service.InventoryOptions{StrictValidation: true}), nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, strict.Handle(context.Background(), body).StatusCode)
	assert.Empty(t, repo.Items())
}

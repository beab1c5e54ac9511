// Command smoke drives a running store service and inventory service over
// HTTP: it creates a store, adds items concurrently, and checks the counts.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/store-inventory/internal/logger"
)

type smokeConfig struct {
	StoreURL     string        `envconfig:"SMOKE_STORE_URL" default:"http://localhost:8080"`
	InventoryURL string        `envconfig:"SMOKE_INVENTORY_URL" default:"http://localhost:8081"`
	Items        int           `envconfig:"SMOKE_ITEMS" default:"50"`
	Concurrency  int           `envconfig:"SMOKE_CONCURRENCY" default:"10"`
	Timeout      time.Duration `envconfig:"SMOKE_TIMEOUT" default:"30s"`
}

type result struct {
	status int
	body   []byte
}

func main() {
	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "smoke", Format: "console"})

	var cfg smokeConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logg.Error(context.Background(), "config.load.failed", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	client := &http.Client{Timeout: 10 * time.Second}

	res, err := post(ctx, client, cfg.StoreURL, "", map[string]any{
		"action": "addStore",
		"store":  map[string]string{"name": "smoke-" + uuid.NewString()[:8], "address": "1 Test Way"},
	})
	if err != nil || res.status != http.StatusCreated {
		logg.Error(ctx, "store.create.failed", describe(res, err))
		os.Exit(1)
	}
	var store struct {
		StoreID int64 `json:"store_id"`
	}
	if err := json.Unmarshal(res.body, &store); err != nil {
		logg.Error(ctx, "store.decode.failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithStoreID(ctx, store.StoreID), "store.created")

	var added, rejected atomic.Int32
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i := 0; i < cfg.Items; i++ {
		g.Go(func() error {
			res, err := post(gctx, client, cfg.InventoryURL, uuid.NewString(), map[string]any{
				"action": "addItemToStore",
				"payload": map[string]any{
					"store_id":  store.StoreID,
					"item_name": fmt.Sprintf("item-%03d", i),
					"quantity":  i,
					"price":     "1.25",
				},
			})
			if err != nil {
				return err
			}
			if res.status == http.StatusOK {
				added.Add(1)
			} else {
				rejected.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logg.Error(ctx, "items.add.failed", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	// a duplicate key must be refused
	dupKey := uuid.NewString()
	dupPayload := map[string]any{
		"action":  "addItemToStore",
		"payload": map[string]any{"store_id": store.StoreID, "item_name": "dup"},
	}
	first, err1 := post(ctx, client, cfg.InventoryURL, dupKey, dupPayload)
	second, err2 := post(ctx, client, cfg.InventoryURL, dupKey, dupPayload)

	res, err = post(ctx, client, cfg.InventoryURL, "", map[string]any{
		"action":  "getStoreInventory",
		"payload": map[string]any{"store_id": store.StoreID},
	})
	if err != nil || res.status != http.StatusOK {
		logg.Error(ctx, "inventory.list.failed", describe(res, err))
		os.Exit(1)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(res.body, &items); err != nil {
		logg.Error(ctx, "inventory.decode.failed", err)
		os.Exit(1)
	}

	missing, err := post(ctx, client, cfg.InventoryURL, "", map[string]any{
		"action":  "addItemToStore",
		"payload": map[string]any{"store_id": -1, "item_name": "ghost"},
	})

	fmt.Println("============= SMOKE RESULTS =============")
	fmt.Printf("Store ID:         %d\n", store.StoreID)
	fmt.Printf("Items requested:  %d\n", cfg.Items)
	fmt.Printf("Added:            %d\n", added.Load())
	fmt.Printf("Rejected:         %d\n", rejected.Load())
	fmt.Printf("Listed:           %d\n", len(items))
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	failed := false
	check := func(ok bool, pass, fail string) {
		if ok {
			fmt.Println("PASS: " + pass)
			return
		}
		fmt.Println("FAIL: " + fail)
		failed = true
	}

	check(int(added.Load()) == cfg.Items, "every item was added",
		fmt.Sprintf("expected %d added, got %d", cfg.Items, added.Load()))

	dupOK := err1 == nil && err2 == nil && first.status == http.StatusOK
	if dupOK && second.status == http.StatusConflict {
		fmt.Println("PASS: duplicate idempotency key refused")
		check(len(items) == cfg.Items+1, "inventory lists every added item",
			fmt.Sprintf("expected %d listed, got %d", cfg.Items+1, len(items)))
	} else if dupOK && second.status == http.StatusOK {
		fmt.Println("SKIP: idempotency disabled on inventory service")
		check(len(items) == cfg.Items+2, "inventory lists every added item",
			fmt.Sprintf("expected %d listed, got %d", cfg.Items+2, len(items)))
	} else {
		check(false, "", fmt.Sprintf("duplicate check: %v", describe(second, err2)))
	}

	check(err == nil && missing.status == http.StatusNotFound, "unknown store rejected with 404",
		fmt.Sprintf("unknown store: %v", describe(missing, err)))

	if failed {
		os.Exit(1)
	}
}

func post(ctx context.Context, client *http.Client, url, idempotencyKey string, payload any) (result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return result{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{}, err
	}
	return result{status: resp.StatusCode, body: data}, nil
}

func describe(res result, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("status %d: %s", res.status, bytes.TrimSpace(res.body))
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/store-inventory/internal/apperr"
	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/port"
)

type InventoryOptions struct {
	// StrictValidation reports an unreachable store service as 503 rather
	// than folding it into "store not found".
	StrictValidation bool
}

type InventoryService struct {
	repo   port.InventoryRepository
	stores port.StoreValidator
	idem   port.IdempotencyRepository
	opts   InventoryOptions
}

// NewInventoryService wires the service. idem may be nil, which disables
// idempotency keys.
func NewInventoryService(repo port.InventoryRepository, stores port.StoreValidator, idem port.IdempotencyRepository, opts InventoryOptions) *InventoryService {
	return &InventoryService{repo: repo, stores: stores, idem: idem, opts: opts}
}

// AddItem checks the store remotely, then inserts the item. The check and
// the insert are not atomic: the store can disappear in between.
func (s *InventoryService) AddItem(ctx context.Context, item domain.InventoryItem, idempotencyKey string) (int64, error) {
	if err := s.checkStore(ctx, item.StoreID); err != nil {
		return 0, err
	}

	claimed, err := s.claim(ctx, idempotencyKey)
	if err != nil {
		return 0, err
	}

	id, err := s.insert(ctx, item)
	if err != nil {
		if claimed {
			// let the caller retry with the same key
			if relErr := s.idem.ReleaseIdempotency(ctx, itemKey(idempotencyKey)); relErr != nil {
				err = apperr.Wrap(apperr.CodeDatastore, errors.Join(err,
					fmt.Errorf("release idempotency key %q: %w", idempotencyKey, relErr)), "")
			}
		}
		return 0, err
	}
	return id, nil
}

func (s *InventoryService) ListItems(ctx context.Context, storeID int64) ([]domain.InventoryItem, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeDatastore, err, "")
	}
	defer tx.Rollback()

	items, err := tx.ListItems(ctx, storeID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeDatastore, err, "")
	}
	return items, nil
}

func (s *InventoryService) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.CodeDatastore, err, "")
	}
	defer tx.Rollback()

	found, err := tx.UpdateQuantity(ctx, itemID, quantity)
	if err != nil {
		return apperr.Wrap(apperr.CodeDatastore, err, "")
	}
	if !found {
		return apperr.New(apperr.CodeNotFound, "Item not found")
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.CodeDatastore, err, "")
	}
	return nil
}

func (s *InventoryService) checkStore(ctx context.Context, storeID int64) error {
	check, err := s.stores.Lookup(ctx, storeID)
	if check == domain.StoreFound {
		return nil
	}
	if check == domain.StoreUnreachable && s.opts.StrictValidation {
		return apperr.Wrap(apperr.CodeUpstreamUnavailable, err, "Failed to communicate with StoreService")
	}

	notFound := apperr.New(apperr.CodeValidationFailed,
		fmt.Sprintf("Store with store_id %d not found or validation failed.", storeID))
	if err != nil {
		notFound = notFound.WithDetails(err.Error())
	}
	return notFound
}

func (s *InventoryService) claim(ctx context.Context, key string) (bool, error) {
	if key == "" || s.idem == nil {
		return false, nil
	}
	ok, err := s.idem.SetIdempotency(ctx, itemKey(key))
	if err != nil {
		return false, apperr.Wrap(apperr.CodeInternal, fmt.Errorf("idempotency check failed: %w", err), "")
	}
	if !ok {
		return false, apperr.New(apperr.CodeConflict, "Duplicate request").WithDetails("idempotency key already used: " + key)
	}
	return true, nil
}

func (s *InventoryService) insert(ctx context.Context, item domain.InventoryItem) (int64, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeDatastore, err, "")
	}
	defer tx.Rollback()

	id, err := tx.CreateItem(ctx, item)
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeDatastore, err, "")
	}
	if err := tx.Commit(); err != nil {
		return 0, apperr.Wrap(apperr.CodeDatastore, err, "")
	}
	return id, nil
}

func itemKey(key string) string {
	return "item:" + key
}

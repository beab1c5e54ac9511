package port

import (
	"context"

	"github.com/rl1809/store-inventory/internal/core/domain"
)

type InventoryRepository interface {
	// Begin acquires a dedicated connection and opens a transaction on it.
	// The connection is released when the transaction commits or rolls back.
	Begin(ctx context.Context) (InventoryTx, error)
}

type InventoryTx interface {
	// CreateItem inserts an item and returns the generated item id
	CreateItem(ctx context.Context, item domain.InventoryItem) (int64, error)

	// ListItems returns the items of a store ordered by item name
	ListItems(ctx context.Context, storeID int64) ([]domain.InventoryItem, error)

	// UpdateQuantity reports false when no item matched itemID
	UpdateQuantity(ctx context.Context, itemID int64, quantity int) (bool, error)

	Commit() error

	// Rollback is a no-op after Commit
	Rollback() error
}

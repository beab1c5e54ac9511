package port

import (
	"context"

	"github.com/rl1809/store-inventory/internal/core/domain"
)

type StoreRepository interface {
	// CreateStore inserts a store and returns it with the generated id and timestamp
	CreateStore(ctx context.Context, name, address string) (*domain.Store, error)

	// GetStore returns nil, nil when no store has the given id
	GetStore(ctx context.Context, storeID int64) (*domain.Store, error)

	// ListStores returns every store ordered by name
	ListStores(ctx context.Context) ([]domain.Store, error)
}

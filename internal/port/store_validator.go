package port

import (
	"context"

	"github.com/rl1809/store-inventory/internal/core/domain"
)

type StoreValidator interface {
	// Lookup asks the store service whether storeID exists. The error is set
	// only when the outcome is domain.StoreUnreachable.
	Lookup(ctx context.Context, storeID int64) (domain.StoreCheck, error)
}

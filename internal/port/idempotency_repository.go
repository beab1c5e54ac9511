package port

import "context"

type IdempotencyRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a key whose request failed (for rollback on failure)
	ReleaseIdempotency(ctx context.Context, key string) error
}

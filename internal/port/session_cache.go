package port

import (
	"context"
	"errors"

	"github.com/rl1809/pos/internal/core/cart"
)

var ErrCacheMiss = errors.New("cache miss")

type SessionCache interface {
	// GetCart returns the parked cart for a seller, or ErrCacheMiss
	GetCart(ctx context.Context, sellerID string) (*cart.Cart, error)

	SaveCart(ctx context.Context, sellerID string, c *cart.Cart) error

	DeleteCart(ctx context.Context, sellerID string) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a key so a failed request can be resubmitted
	ReleaseIdempotency(ctx context.Context, key string) error
}

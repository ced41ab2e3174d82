package handler

import (
	"context"

	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/core/service"
)

// Services are the core services exposed by the HTTP and gRPC surfaces.
type Services struct {
	Carts     *service.CartService
	Inventory *service.InventoryService
	History   *service.HistoryService
	Users     *service.UserService
}

// UserIDHeader carries the caller id set by the upstream identity provider.
const (
	UserIDHeader   = "X-User-ID"
	userIDMetadata = "user-id"
)

type ctxKey int

const profileKey ctxKey = iota

func withProfile(ctx context.Context, p *domain.Profile) context.Context {
	return context.WithValue(ctx, profileKey, p)
}

// ProfileFromContext returns the caller resolved by the identity middleware.
func ProfileFromContext(ctx context.Context) (*domain.Profile, bool) {
	p, ok := ctx.Value(profileKey).(*domain.Profile)
	return p, ok && p != nil
}

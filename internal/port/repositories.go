package port

import (
	"context"

	"github.com/rl1809/pos/internal/core/domain"
)

type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// ListAvailableProducts returns products with stock > 0, highest stock first
	ListAvailableProducts(ctx context.Context, limit int) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) error
	UpdateProduct(ctx context.Context, product domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// TicketFilter narrows a ticket listing. The zero value lists every ticket.
type TicketFilter struct {
	SellerID string
}

type TicketRepository interface {
	// ListTickets returns tickets with seller and lines, newest sale first
	ListTickets(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ReadTicketWithLines(ctx context.Context, ticketID string) (*domain.Ticket, error)
}

type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

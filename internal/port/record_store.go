package port

import (
	"context"

	"github.com/rl1809/pos/internal/core/domain"
)

// RecordStore is everything the checkout flow needs from the shared backend.
// Each call is independent; the store offers no transaction spanning them.
type RecordStore interface {
	// ReadProduct returns the live product row, or domain.ErrNotFound
	ReadProduct(ctx context.Context, id string) (*domain.Product, error)

	// InsertTicket creates a ticket header and returns its generated id
	InsertTicket(ctx context.Context, ticket domain.NewTicket) (string, error)

	// InsertTicketLines stores the lines of an existing ticket. A failure may
	// leave some lines written.
	InsertTicketLines(ctx context.Context, ticketID string, lines []domain.TicketLine) error

	// UpdateProductStock overwrites the stock of a product unconditionally
	UpdateProductStock(ctx context.Context, id string, newStock int) error

	// ReadTicketWithLines returns the ticket, its seller and lines, or domain.ErrNotFound
	ReadTicketWithLines(ctx context.Context, ticketID string) (*domain.Ticket, error)
}

package storage

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/port"
)

type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// BreakerStore fails fast once the record store has failed MaxFailures calls in
// a row. Lookups that find nothing count as successes.
type BreakerStore struct {
	next port.RecordStore
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerStore(next port.RecordStore, settings BreakerSettings, logger log.FieldLogger) *BreakerStore {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "record-store",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})

	return &BreakerStore{next: next, cb: cb}
}

func (b *BreakerStore) ReadProduct(ctx context.Context, id string) (*domain.Product, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.ReadProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.Product), nil
}

func (b *BreakerStore) InsertTicket(ctx context.Context, t domain.NewTicket) (string, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.InsertTicket(ctx, t)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (b *BreakerStore) InsertTicketLines(ctx context.Context, ticketID string, lines []domain.TicketLine) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.InsertTicketLines(ctx, ticketID, lines)
	})
	return err
}

func (b *BreakerStore) UpdateProductStock(ctx context.Context, id string, newStock int) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.UpdateProductStock(ctx, id, newStock)
	})
	return err
}

func (b *BreakerStore) ReadTicketWithLines(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.ReadTicketWithLines(ctx, ticketID)
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.Ticket), nil
}

func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

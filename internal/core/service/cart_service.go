package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/rl1809/pos/internal/core/cart"
	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/port"
)

// CartService parks one cart per seller in the session cache and runs the
// checkout for it. Each seller's cart is only mutated by that seller's session.
type CartService struct {
	sessions port.SessionCache
	store    port.RecordStore
	checkout *CheckoutService
	logger   log.FieldLogger
}

func NewCartService(sessions port.SessionCache, store port.RecordStore, checkout *CheckoutService, logger log.FieldLogger) *CartService {
	return &CartService{
		sessions: sessions,
		store:    store,
		checkout: checkout,
		logger:   logger,
	}
}

// Get returns the seller's cart, or an empty one if nothing is parked.
func (s *CartService) Get(ctx context.Context, sellerID string) (*cart.Cart, error) {
	c, err := s.sessions.GetCart(ctx, sellerID)
	if errors.Is(err, port.ErrCacheMiss) {
		return cart.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

// AddItem reads a fresh product snapshot and adds qty units of it.
func (s *CartService) AddItem(ctx context.Context, sellerID, productID string, qty int) (*cart.Cart, error) {
	p, err := s.store.ReadProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("read product %s: %w", productID, err)
	}
	return s.mutate(ctx, sellerID, func(c *cart.Cart) error {
		return c.Add(*p, qty)
	})
}

func (s *CartService) SetQuantity(ctx context.Context, sellerID, productID string, qty int) (*cart.Cart, error) {
	return s.mutate(ctx, sellerID, func(c *cart.Cart) error {
		return c.SetQuantity(productID, qty)
	})
}

func (s *CartService) DecrementItem(ctx context.Context, sellerID, productID string) (*cart.Cart, error) {
	return s.mutate(ctx, sellerID, func(c *cart.Cart) error {
		c.Decrement(productID)
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, sellerID, productID string) (*cart.Cart, error) {
	return s.mutate(ctx, sellerID, func(c *cart.Cart) error {
		c.Remove(productID)
		return nil
	})
}

// Clear cancels the sale in progress.
func (s *CartService) Clear(ctx context.Context, sellerID string) error {
	if err := s.sessions.DeleteCart(ctx, sellerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Checkout runs the sale for the seller's parked cart. requestID identifies the
// submission: a second call with the same id is rejected with
// domain.ErrDuplicateRequest unless the first one failed before writing anything.
func (s *CartService) Checkout(ctx context.Context, sellerID, requestID string) (*domain.Ticket, error) {
	key := idempotencyKey(sellerID, requestID)

	ok, err := s.sessions.SetIdempotency(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, domain.ErrDuplicateRequest
	}

	c, err := s.Get(ctx, sellerID)
	if err != nil {
		s.release(ctx, key)
		return nil, err
	}

	ticket, err := s.checkout.Checkout(ctx, c, sellerID)
	if err != nil {
		var ce *domain.CheckoutError
		if errors.As(err, &ce) && ce.TicketID == "" {
			s.release(ctx, key)
		}
	}

	if c.IsEmpty() {
		if delErr := s.sessions.DeleteCart(ctx, sellerID); delErr != nil {
			s.logger.WithError(delErr).WithField("seller_id", sellerID).Warn("failed to drop sold cart")
		}
	}
	return ticket, err
}

func (s *CartService) mutate(ctx context.Context, sellerID string, apply func(*cart.Cart) error) (*cart.Cart, error) {
	c, err := s.Get(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if err := apply(c); err != nil {
		return c, err
	}
	if c.IsEmpty() {
		err = s.sessions.DeleteCart(ctx, sellerID)
	} else {
		err = s.sessions.SaveCart(ctx, sellerID, c)
	}
	if err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

func (s *CartService) release(ctx context.Context, key string) {
	if err := s.sessions.ReleaseIdempotency(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("failed to release idempotency key")
	}
}

func idempotencyKey(sellerID, requestID string) string {
	return fmt.Sprintf("checkout:%s:%s", sellerID, requestID)
}

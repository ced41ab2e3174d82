package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/pos/internal/core/cart"
	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/port"
)

// CheckoutService turns a cart into a persisted ticket. The ticket insert, the
// line insert and the stock writes are separate record store calls: a failure
// after the ticket exists is reported, never compensated.
type CheckoutService struct {
	store  port.RecordStore
	logger log.FieldLogger
}

func NewCheckoutService(store port.RecordStore, logger log.FieldLogger) *CheckoutService {
	return &CheckoutService{store: store, logger: logger}
}

// Checkout validates stock, writes the ticket, its lines and the new stock
// levels, and returns the ticket as read back from the store. The cart is
// cleared only once the sale is fully written.
func (s *CheckoutService) Checkout(ctx context.Context, c *cart.Cart, sellerID string) (*domain.Ticket, error) {
	entry := s.logger.WithField("seller_id", sellerID)

	if c.IsEmpty() {
		return nil, &domain.CheckoutError{State: domain.StateAborted, Err: domain.ErrEmptyCart}
	}

	lines := c.Lines()

	entry.WithField("state", domain.StateValidatingStock).Debug("checking live stock")
	live, err := s.liveStock(ctx, lines)
	if err != nil {
		return nil, &domain.CheckoutError{State: domain.StateAborted, Err: err}
	}
	if shortages := findShortages(lines, live); len(shortages) > 0 {
		entry.WithField("shortages", len(shortages)).Info("checkout aborted on stock shortage")
		return nil, &domain.CheckoutError{
			State: domain.StateAborted,
			Err:   &domain.StockShortageError{Shortages: shortages},
		}
	}

	entry.WithField("state", domain.StateCreating).Debug("inserting ticket")
	ticketID, err := s.store.InsertTicket(ctx, domain.NewTicket{SellerID: sellerID, Total: c.Total()})
	if err != nil {
		entry.WithError(err).Warn("ticket creation failed")
		return nil, &domain.CheckoutError{
			State: domain.StateAborted,
			Err:   fmt.Errorf("%w: %w", domain.ErrTicketCreationFailed, err),
		}
	}
	entry = entry.WithField("ticket_id", ticketID)

	entry.WithField("state", domain.StateWritingLines).Debug("inserting ticket lines")
	if err := s.store.InsertTicketLines(ctx, ticketID, ticketLines(lines)); err != nil {
		entry.WithError(err).Error("ticket left without lines")
		return nil, &domain.CheckoutError{
			State:    domain.StatePartiallyWritten,
			TicketID: ticketID,
			Err:      asWriteError("insert ticket lines", err),
		}
	}

	entry.WithField("state", domain.StateWritingStock).Debug("writing stock levels")
	if err := s.writeStock(ctx, lines, live); err != nil {
		entry.WithError(err).Error("stock partially written")
		return nil, &domain.CheckoutError{
			State:    domain.StatePartiallyWritten,
			TicketID: ticketID,
			Err:      domain.NewWriteError("update product stock", err),
		}
	}

	c.Clear()

	ticket, err := s.store.ReadTicketWithLines(ctx, ticketID)
	if err != nil {
		entry.WithError(err).Warn("sale written but ticket could not be read back")
		return nil, &domain.CheckoutError{
			State:    domain.StateComplete,
			TicketID: ticketID,
			Err:      fmt.Errorf("read back ticket: %w", err),
		}
	}

	entry.WithFields(log.Fields{"state": domain.StateComplete, "total": ticket.Total.StringFixed(2)}).Info("sale completed")
	return ticket.WithSubtotals(), nil
}

// liveStock reads every line's product concurrently. A product that no longer
// exists counts as zero stock.
func (s *CheckoutService) liveStock(ctx context.Context, lines []cart.Line) ([]int, error) {
	live := make([]int, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		g.Go(func() error {
			p, err := s.store.ReadProduct(gctx, line.ProductID)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read stock for %s: %w", line.Name, err)
			}
			live[i] = p.Stock
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return live, nil
}

// writeStock issues one overwrite per line and waits for all of them. Every
// failure is collected; a failed write does not stop the others.
func (s *CheckoutService) writeStock(ctx context.Context, lines []cart.Line, live []int) error {
	errs := make([]error, len(lines))
	var g errgroup.Group
	for i, line := range lines {
		g.Go(func() error {
			if err := s.store.UpdateProductStock(ctx, line.ProductID, live[i]-line.Quantity); err != nil {
				errs[i] = fmt.Errorf("%s: %w", line.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func findShortages(lines []cart.Line, live []int) []domain.Shortage {
	var shortages []domain.Shortage
	for i, line := range lines {
		if live[i] < line.Quantity {
			shortages = append(shortages, domain.Shortage{
				ProductID: line.ProductID,
				Name:      line.Name,
				Available: live[i],
				Requested: line.Quantity,
			})
		}
	}
	return shortages
}

func ticketLines(lines []cart.Line) []domain.TicketLine {
	out := make([]domain.TicketLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.TicketLine{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal(),
		})
	}
	return out
}

func asWriteError(op string, err error) error {
	var we *domain.WriteError
	if errors.As(err, &we) {
		return err
	}
	return domain.NewWriteError(op, err)
}

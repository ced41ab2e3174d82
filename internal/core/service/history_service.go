package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/port"
)

type HistoryService struct {
	tickets port.TicketRepository
}

func NewHistoryService(tickets port.TicketRepository) *HistoryService {
	return &HistoryService{tickets: tickets}
}

// ListTickets returns the tickets viewer may see, newest first, with line
// subtotals filled in. Cashiers only see their own sales.
func (s *HistoryService) ListTickets(ctx context.Context, viewer domain.Profile) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListTickets(ctx, ticketScope(viewer))
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		tickets[i].WithSubtotals()
	}
	return tickets, nil
}

// GetTicket reads one ticket. A cashier asking for another seller's ticket gets
// ErrNotFound.
func (s *HistoryService) GetTicket(ctx context.Context, viewer domain.Profile, id string) (*domain.Ticket, error) {
	t, err := s.tickets.ReadTicketWithLines(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope := ticketScope(viewer); scope.SellerID != "" && t.SellerID != scope.SellerID {
		return nil, fmt.Errorf("ticket %s: %w", id, domain.ErrNotFound)
	}
	return t.WithSubtotals(), nil
}

// SearchTickets keeps the visible tickets whose id, seller or any product name
// contains term, ignoring case. An empty term matches everything.
func (s *HistoryService) SearchTickets(ctx context.Context, viewer domain.Profile, term string) ([]domain.Ticket, error) {
	tickets, err := s.ListTickets(ctx, viewer)
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return tickets, nil
	}

	matched := tickets[:0]
	for _, t := range tickets {
		if ticketMatches(t, term) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

func ticketScope(viewer domain.Profile) port.TicketFilter {
	if viewer.Role == domain.RoleCashier {
		return port.TicketFilter{SellerID: viewer.ID}
	}
	return port.TicketFilter{}
}

func ticketMatches(t domain.Ticket, term string) bool {
	if containsFold(t.ID, term) || containsFold(t.Seller.FullName, term) || containsFold(t.Seller.Username, term) {
		return true
	}
	for _, line := range t.Lines {
		if containsFold(line.ProductName, term) {
			return true
		}
	}
	return false
}

func containsFold(s, lowerTerm string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerTerm)
}

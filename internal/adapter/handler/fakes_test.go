package handler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/text/language"

	"github.com/rl1809/pos/internal/adapter/storage"
	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/core/receipt"
	"github.com/rl1809/pos/internal/core/service"
	"github.com/rl1809/pos/internal/port"
)

var (
	admin   = domain.Profile{ID: "u-admin", Username: "root", FullName: "Rosa Admin", Role: domain.RoleAdmin}
	cashier = domain.Profile{ID: "u-cashier", Username: "ana", FullName: "Ana Torres", Role: domain.RoleCashier}
	keeper  = domain.Profile{ID: "u-keeper", Username: "luis", FullName: "Luis Pérez", Role: domain.RoleInventoryManager}
)

// memStore backs every repository port with maps.
type memStore struct {
	mu       sync.Mutex
	products map[string]domain.Product
	tickets  map[string]*domain.Ticket
	order    []string
	profiles map[string]domain.Profile
	nextID   int

	failInsertTicket error
}

func newMemStore() *memStore {
	s := &memStore{
		products: make(map[string]domain.Product),
		tickets:  make(map[string]*domain.Ticket),
		profiles: make(map[string]domain.Profile),
	}
	for _, p := range []domain.Profile{admin, cashier, keeper} {
		s.profiles[p.ID] = p
	}
	return s
}

func (s *memStore) addProduct(id, name, price string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = domain.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock, CreatedAt: time.Now()}
}

func (s *memStore) stock(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) ReadProduct(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *memStore) InsertTicket(ctx context.Context, t domain.NewTicket) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsertTicket != nil {
		return "", s.failInsertTicket
	}
	s.nextID++
	id := fmt.Sprintf("ticket-%d", s.nextID)
	seller := s.profiles[t.SellerID]
	s.tickets[id] = &domain.Ticket{
		ID:       id,
		SaleDate: time.Date(2026, time.October, 18, 14, 5, 0, 0, time.UTC),
		SellerID: t.SellerID,
		Seller:   domain.Seller{Username: seller.Username, FullName: seller.FullName},
		Total:    t.Total,
	}
	s.order = append(s.order, id)
	return id, nil
}

func (s *memStore) InsertTicketLines(ctx context.Context, ticketID string, lines []domain.TicketLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticketID].Lines = append(s.tickets[ticketID].Lines, lines...)
	return nil
}

func (s *memStore) UpdateProductStock(ctx context.Context, id string, newStock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.NewWriteError("update product stock", domain.ErrNotFound)
	}
	p.Stock = newStock
	s.products[id] = p
	return nil
}

func (s *memStore) ReadTicketWithLines(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *t
	clone.Lines = append([]domain.TicketLine(nil), t.Lines...)
	return &clone, nil
}

func (s *memStore) ListTickets(ctx context.Context, filter port.TicketFilter) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Ticket, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		t := *s.tickets[s.order[i]]
		if filter.SellerID != "" && t.SellerID != filter.SellerID {
			continue
		}
		t.Lines = append([]domain.TicketLine(nil), t.Lines...)
		out = append(out, t)
	}
	return out, nil
}

func (s *memStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListAvailableProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	all, _ := s.ListProducts(ctx)
	var out []domain.Product
	for _, p := range all {
		if p.Stock > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock > out[j].Stock })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.ReadProduct(ctx, id)
}

func (s *memStore) CreateProduct(ctx context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

func (s *memStore) UpdateProduct(ctx context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	s.products[p.ID] = p
	return nil
}

func (s *memStore) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *memStore) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *memStore) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Role = role
	s.profiles[id] = p
	return &p, nil
}

func (s *memStore) DeleteProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}

// newTestServices wires the real services over memStore and a miniredis-backed
// session cache.
func newTestServices(t *testing.T) (Services, *memStore, *miniredis.Miniredis) {
	t.Helper()
	store := newMemStore()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	sessions := storage.NewRedisAdapter(client, time.Hour)

	logger, _ := test.NewNullLogger()
	checkout := service.NewCheckoutService(store, logger)

	return Services{
		Carts:     service.NewCartService(sessions, store, checkout, logger),
		Inventory: service.NewInventoryService(store),
		History:   service.NewHistoryService(store),
		Users:     service.NewUserService(store),
	}, store, mr
}

func newTestPresenter() *receipt.Presenter {
	return receipt.NewPresenter(language.Spanish)
}

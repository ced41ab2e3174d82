package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/pos/internal/core/cart"
	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/port"
)

var saleDate = time.Date(2026, time.October, 18, 14, 5, 0, 0, time.UTC)

// Mock RecordStore
type mockRecordStore struct {
	mu       sync.Mutex
	products map[string]domain.Product
	tickets  map[string]*domain.Ticket
	order    []string
	sellers  map[string]domain.Seller
	nextID   int

	ticketWrites int
	lineWrites   int
	stockWrites  int

	failReadProduct  error
	failInsertTicket error
	failInsertLines  error
	failStock        map[string]error
	failReadTicket   error
}

func newMockRecordStore(products ...domain.Product) *mockRecordStore {
	m := &mockRecordStore{
		products:  make(map[string]domain.Product),
		tickets:   make(map[string]*domain.Ticket),
		sellers:   make(map[string]domain.Seller),
		failStock: make(map[string]error),
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockRecordStore) ReadProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failReadProduct != nil {
		return nil, m.failReadProduct
	}
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *mockRecordStore) InsertTicket(ctx context.Context, t domain.NewTicket) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInsertTicket != nil {
		return "", m.failInsertTicket
	}
	m.ticketWrites++
	m.nextID++
	id := fmt.Sprintf("ticket-%d", m.nextID)
	m.tickets[id] = &domain.Ticket{
		ID:       id,
		SaleDate: saleDate,
		SellerID: t.SellerID,
		Seller:   m.sellers[t.SellerID],
		Total:    t.Total,
	}
	m.order = append(m.order, id)
	return id, nil
}

func (m *mockRecordStore) InsertTicketLines(ctx context.Context, ticketID string, lines []domain.TicketLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInsertLines != nil {
		return m.failInsertLines
	}
	t, ok := m.tickets[ticketID]
	if !ok {
		return domain.NewWriteError("insert ticket lines", domain.ErrNotFound)
	}
	m.lineWrites++
	for _, l := range lines {
		l.Subtotal = decimal.Zero
		t.Lines = append(t.Lines, l)
	}
	return nil
}

func (m *mockRecordStore) UpdateProductStock(ctx context.Context, id string, newStock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failStock[id]; err != nil {
		return err
	}
	p, ok := m.products[id]
	if !ok {
		return domain.NewWriteError("update stock", domain.ErrNotFound)
	}
	m.stockWrites++
	p.Stock = newStock
	m.products[id] = p
	return nil
}

func (m *mockRecordStore) ReadTicketWithLines(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failReadTicket != nil {
		return nil, m.failReadTicket
	}
	t, ok := m.tickets[ticketID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *t
	clone.Lines = append([]domain.TicketLine(nil), t.Lines...)
	return &clone, nil
}

func (m *mockRecordStore) ListTickets(ctx context.Context, filter port.TicketFilter) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Ticket, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		t := *m.tickets[m.order[i]]
		if filter.SellerID != "" && t.SellerID != filter.SellerID {
			continue
		}
		t.Lines = append([]domain.TicketLine(nil), t.Lines...)
		out = append(out, t)
	}
	return out, nil
}

func (m *mockRecordStore) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticketWrites + m.lineWrites + m.stockWrites
}

func (m *mockRecordStore) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

// Mock ProductRepository
type mockProductRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[string]domain.Product)}
}

func (m *mockProductRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockProductRepo) ListAvailableProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	all, _ := m.ListProducts(ctx)
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

func (m *mockProductRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) CreateProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) UpdateProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

// Mock ProfileRepository
type mockProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
}

func newMockProfileRepo(profiles ...domain.Profile) *mockProfileRepo {
	m := &mockProfileRepo{profiles: make(map[string]domain.Profile)}
	for _, p := range profiles {
		m.profiles[p.ID] = p
	}
	return m
}

func (m *mockProfileRepo) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *mockProfileRepo) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProfileRepo) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Role = role
	m.profiles[id] = p
	return &p, nil
}

func (m *mockProfileRepo) DeleteProfile(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.profiles, id)
	return nil
}

// Mock SessionCache
type mockSessionCache struct {
	mu          sync.Mutex
	carts       map[string][]byte
	idempotency map[string]bool
}

func newMockSessionCache() *mockSessionCache {
	return &mockSessionCache{
		carts:       make(map[string][]byte),
		idempotency: make(map[string]bool),
	}
}

func (m *mockSessionCache) GetCart(ctx context.Context, sellerID string) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.carts[sellerID]
	if !ok {
		return nil, port.ErrCacheMiss
	}
	c := cart.New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *mockSessionCache) SaveCart(ctx context.Context, sellerID string, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sellerID] = data
	return nil
}

func (m *mockSessionCache) DeleteCart(ctx context.Context, sellerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sellerID)
	return nil
}

func (m *mockSessionCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotency[key] {
		return false, nil
	}
	m.idempotency[key] = true
	return true, nil
}

func (m *mockSessionCache) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotency, key)
	return nil
}

func (m *mockSessionCache) hasCart(sellerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.carts[sellerID]
	return ok
}

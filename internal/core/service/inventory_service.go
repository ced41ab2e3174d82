package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/port"
)

// DefaultCatalogSize is how many in-stock products the cashier catalog shows.
const DefaultCatalogSize = 5

type InventoryService struct {
	products port.ProductRepository
}

func NewInventoryService(products port.ProductRepository) *InventoryService {
	return &InventoryService{products: products}
}

func (s *InventoryService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListProducts(ctx)
}

// AvailableProducts is the cashier catalog: in-stock products, best stocked first.
func (s *InventoryService) AvailableProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = DefaultCatalogSize
	}
	return s.products.ListAvailableProducts(ctx, limit)
}

func (s *InventoryService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetProduct(ctx, id)
}

func (s *InventoryService) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *InventoryService) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.products.GetProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *InventoryService) DeleteProduct(ctx context.Context, id string) error {
	return s.products.DeleteProduct(ctx, id)
}

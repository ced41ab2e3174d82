package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/pos/internal/core/cart"
	"github.com/rl1809/pos/internal/core/domain"
)

type APIResponse struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	Data      any           `json:"data,omitempty"`
	State     string        `json:"state,omitempty"`
	TicketID  string        `json:"ticket_id,omitempty"`
	Shortages []ShortageDTO `json:"shortages,omitempty"`
}

type ShortageDTO struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

func (r ProductRequest) toDomain(id string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		Stock:       r.Stock,
	}
}

type ProductDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toProductDTO(p domain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductDTOs(products []domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	return out
}

type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CheckoutRequest struct {
	RequestID string `json:"request_id"`
}

type CartLineDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartDTO struct {
	Lines []CartLineDTO   `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func toCartDTO(c *cart.Cart) CartDTO {
	lines := c.Lines()
	dto := CartDTO{Lines: make([]CartLineDTO, 0, len(lines)), Total: c.Total()}
	for _, l := range lines {
		dto.Lines = append(dto.Lines, CartLineDTO{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Stock:     l.Stock,
			Subtotal:  l.Subtotal(),
		})
	}
	return dto
}

type TicketLineDTO struct {
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type TicketDTO struct {
	ID             string          `json:"id"`
	SaleDate       time.Time       `json:"sale_date"`
	SellerID       string          `json:"seller_id"`
	SellerUsername string          `json:"seller_username,omitempty"`
	SellerName     string          `json:"seller_name"`
	Total          decimal.Decimal `json:"total"`
	Lines          []TicketLineDTO `json:"lines"`
}

func toTicketDTO(t domain.Ticket) TicketDTO {
	dto := TicketDTO{
		ID:             t.ID,
		SaleDate:       t.SaleDate,
		SellerID:       t.SellerID,
		SellerUsername: t.Seller.Username,
		SellerName:     t.SellerName(),
		Total:          t.Total,
		Lines:          make([]TicketLineDTO, 0, len(t.Lines)),
	}
	for _, l := range t.Lines {
		dto.Lines = append(dto.Lines, TicketLineDTO{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    domain.LineSubtotal(l.UnitPrice, l.Quantity),
		})
	}
	return dto
}

type RoleRequest struct {
	Role domain.Role `json:"role"`
}

type ProfileDTO struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	FullName  string      `json:"full_name"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func toProfileDTO(p domain.Profile) ProfileDTO {
	return ProfileDTO{
		ID:        p.ID,
		Username:  p.Username,
		FullName:  p.FullName,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
}

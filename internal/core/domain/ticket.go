package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Ticket struct {
	ID       string
	SaleDate time.Time
	SellerID string
	Seller   Seller
	Total    decimal.Decimal
	Lines    []TicketLine
}

// Seller is the profile data joined onto a ticket when it is read back.
type Seller struct {
	Username string
	FullName string
}

// TicketLine captures the product as it was sold. ProductName is copied at sale
// time so later renames or deletions do not rewrite history.
type TicketLine struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

type NewTicket struct {
	SellerID string
	Total    decimal.Decimal
}

func LineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// WithSubtotals derives Subtotal for every line in place and returns the ticket.
func (t *Ticket) WithSubtotals() *Ticket {
	for i := range t.Lines {
		t.Lines[i].Subtotal = LineSubtotal(t.Lines[i].UnitPrice, t.Lines[i].Quantity)
	}
	return t
}

// SellerName is the seller's full name, else the username, else empty when
// the profile is gone.
func (t Ticket) SellerName() string {
	if t.Seller.FullName != "" {
		return t.Seller.FullName
	}
	return t.Seller.Username
}

// Number is the short ticket number printed on receipts: "#" and the first
// eight characters of the id.
func (t Ticket) Number() string {
	id := []rune(t.ID)
	if len(id) > 8 {
		id = id[:8]
	}
	return "#" + string(id)
}

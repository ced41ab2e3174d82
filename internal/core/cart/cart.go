// Package cart holds a cashier's in-progress sale. A Cart is owned by a single
// session and is not safe for concurrent use.
package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rl1809/pos/internal/core/domain"
)

// Line is one product in the cart. Stock is the last stock value seen for the
// product; Quantity never exceeds it.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return domain.LineSubtotal(l.UnitPrice, l.Quantity)
}

type Cart struct {
	lines map[string]*Line
	order []string
}

func New() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// Add puts qty units of p in the cart, merging with an existing line. The line's
// name, price and stock are refreshed from p when the add succeeds.
func (c *Cart) Add(p domain.Product, qty int) error {
	if qty < 1 {
		return domain.ErrInvalidQuantity
	}

	want := qty
	if existing, ok := c.lines[p.ID]; ok {
		want += existing.Quantity
	}
	if p.Stock <= 0 || want > p.Stock {
		return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, p.Name)
	}

	line, ok := c.lines[p.ID]
	if !ok {
		line = &Line{ProductID: p.ID}
		c.lines[p.ID] = line
		c.order = append(c.order, p.ID)
	}
	line.Name = p.Name
	line.UnitPrice = p.Price
	line.Stock = p.Stock
	line.Quantity = want
	return nil
}

// SetQuantity sets a line to exactly qty. A qty below one removes the line.
func (c *Cart) SetQuantity(productID string, qty int) error {
	line, ok := c.lines[productID]
	if !ok {
		if qty < 1 {
			return nil
		}
		return domain.ErrNotInCart
	}
	if qty < 1 {
		c.Remove(productID)
		return nil
	}
	if qty > line.Stock {
		return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, line.Name)
	}
	line.Quantity = qty
	return nil
}

// Decrement takes one unit off a line and drops the line when it reaches zero.
func (c *Cart) Decrement(productID string) {
	line, ok := c.lines[productID]
	if !ok {
		return
	}
	if line.Quantity > 1 {
		line.Quantity--
		return
	}
	c.Remove(productID)
}

func (c *Cart) Remove(productID string) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (c *Cart) Clear() {
	c.lines = make(map[string]*Line)
	c.order = nil
}

// Lines returns copies of the lines in the order they were first added.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

func (c *Cart) Line(productID string) (Line, bool) {
	line, ok := c.lines[productID]
	if !ok {
		return Line{}, false
	}
	return *line, true
}

func (c *Cart) Len() int {
	return len(c.order)
}

func (c *Cart) IsEmpty() bool {
	return len(c.order) == 0
}

type cartJSON struct {
	Lines []Line `json:"lines"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(cartJSON{Lines: c.Lines()})
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw cartJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Clear()
	for _, l := range raw.Lines {
		if l.Quantity < 1 || l.Quantity > l.Stock {
			return fmt.Errorf("cart line %s: quantity %d outside 1..%d", l.ProductID, l.Quantity, l.Stock)
		}
		if _, dup := c.lines[l.ProductID]; dup {
			return fmt.Errorf("cart line %s: duplicate product", l.ProductID)
		}
		line := l
		c.lines[l.ProductID] = &line
		c.order = append(c.order, l.ProductID)
	}
	return nil
}

// Package receipt formats persisted tickets for display. Formatting is pure:
// the same ticket and settings always produce the same text.
package receipt

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rl1809/pos/internal/core/domain"
)

type Receipt struct {
	TicketID string `json:"ticket_id"`
	Number   string `json:"number"`
	Date     string `json:"date"`
	Seller   string `json:"seller"`
	Lines    []Line `json:"lines"`
	Total    string `json:"total"`
}

type Line struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type Presenter struct {
	tag      language.Tag
	printer  *message.Printer
	location *time.Location
	currency string
	labels   labels
}

type Option func(*Presenter)

func WithLocation(loc *time.Location) Option {
	return func(p *Presenter) {
		if loc != nil {
			p.location = loc
		}
	}
}

func WithCurrencySymbol(symbol string) Option {
	return func(p *Presenter) {
		p.currency = symbol
	}
}

func NewPresenter(tag language.Tag, opts ...Option) *Presenter {
	p := &Presenter{
		tag:      tag,
		printer:  message.NewPrinter(tag),
		location: time.UTC,
		currency: "$",
		labels:   labelsFor(tag),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Present builds the display strings for t. Subtotals are derived from quantity
// and unit price rather than trusted from the ticket.
func (p *Presenter) Present(t domain.Ticket) Receipt {
	r := Receipt{
		TicketID: t.ID,
		Number:   t.Number(),
		Date:     p.FormatDate(t.SaleDate),
		Seller:   t.SellerName(),
		Lines:    make([]Line, 0, len(t.Lines)),
		Total:    p.FormatAmount(t.Total),
	}
	if r.Seller == "" {
		r.Seller = p.labels.unknownSeller
	}
	for _, l := range t.Lines {
		r.Lines = append(r.Lines, Line{
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   p.FormatAmount(l.UnitPrice),
			Subtotal:    p.FormatAmount(domain.LineSubtotal(l.UnitPrice, l.Quantity)),
		})
	}
	return r
}

// FormatAmount rounds to cents and applies the locale's separators.
func (p *Presenter) FormatAmount(d decimal.Decimal) string {
	return p.currency + p.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func (p *Presenter) FormatDate(t time.Time) string {
	return longDate(t.In(p.location), p.tag)
}

// Render writes a plain-text receipt suitable for a terminal or a receipt printer.
func (p *Presenter) Render(w io.Writer, t domain.Ticket) error {
	r := p.Present(t)
	l := p.labels

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s:\t%s\n", l.ticket, r.Number)
	fmt.Fprintf(tw, "%s:\t%s\n", l.date, r.Date)
	fmt.Fprintf(tw, "%s:\t%s\n", l.seller, r.Seller)
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.product, l.quantity, l.unitPrice, l.subtotal)
	for _, line := range r.Lines {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", line.ProductName, line.Quantity, line.UnitPrice, line.Subtotal)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "%s:\t%s\n", l.total, r.Total)
	return tw.Flush()
}

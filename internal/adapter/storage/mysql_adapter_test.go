package storage

import (
	"context"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/port"
)

func getMySQLDB(t *testing.T) *sqlx.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/pos?parseTime=true"
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	require.NoError(t, RunMigrations(db.DB))

	t.Cleanup(func() { db.Close() })
	return db
}

func seedProduct(t *testing.T, adapter *MySQLAdapter, name, price string, stock int) domain.Product {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: "test product",
		Category:    "test",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, adapter.CreateProduct(context.Background(), p))
	t.Cleanup(func() { adapter.db.Exec(`DELETE FROM products WHERE id = ?`, p.ID) })
	return p
}

func seedProfile(t *testing.T, adapter *MySQLAdapter, fullName string, role domain.Role) domain.Profile {
	t.Helper()
	p := domain.Profile{
		ID:       uuid.NewString(),
		Username: "user-" + uuid.NewString()[:8],
		FullName: fullName,
		Role:     role,
	}
	require.NoError(t, adapter.CreateProfile(context.Background(), p))
	t.Cleanup(func() { adapter.db.Exec(`DELETE FROM profiles WHERE id = ?`, p.ID) })
	return p
}

func TestReadProduct(t *testing.T) {
	db := getMySQLDB(t)
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	seeded := seedProduct(t, adapter, "Widget", "9.99", 10)

	got, err := adapter.ReadProduct(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, 10, got.Stock)
	assert.True(t, got.Price.Equal(seeded.Price))

	_, err = adapter.ReadProduct(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTicketRoundTrip(t *testing.T) {
	db := getMySQLDB(t)
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	seller := seedProfile(t, adapter, "Ana Torres", domain.RoleCashier)
	widget := seedProduct(t, adapter, "Widget", "9.99", 10)
	gadget := seedProduct(t, adapter, "Gadget", "4.00", 5)

	id, err := adapter.InsertTicket(ctx, domain.NewTicket{SellerID: seller.ID, Total: decimal.RequireFromString("37.97")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Exec(`DELETE FROM tickets WHERE id = ?`, id) })

	err = adapter.InsertTicketLines(ctx, id, []domain.TicketLine{
		{ProductID: widget.ID, ProductName: "Widget", Quantity: 3, UnitPrice: widget.Price},
		{ProductID: gadget.ID, ProductName: "Gadget", Quantity: 2, UnitPrice: gadget.Price},
	})
	require.NoError(t, err)

	ticket, err := adapter.ReadTicketWithLines(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, seller.ID, ticket.SellerID)
	assert.Equal(t, "Ana Torres", ticket.Seller.FullName)
	assert.Equal(t, "37.97", ticket.Total.StringFixed(2))
	require.Len(t, ticket.Lines, 2)
	assert.Equal(t, "Widget", ticket.Lines[0].ProductName)
	assert.Equal(t, "Gadget", ticket.Lines[1].ProductName)
	assert.Equal(t, 3, ticket.Lines[0].Quantity)

	tickets, err := adapter.ListTickets(ctx, port.TicketFilter{})
	require.NoError(t, err)
	var found bool
	for _, tk := range tickets {
		if tk.ID == id {
			found = true
			assert.Len(t, tk.Lines, 2)
		}
	}
	assert.True(t, found)
}

func TestListTickets_GroupsLinesByTicket(t *testing.T) {
	db := getMySQLDB(t)
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	ana := seedProfile(t, adapter, "Ana Torres", domain.RoleCashier)
	luis := seedProfile(t, adapter, "Luis Pérez", domain.RoleCashier)
	widget := seedProduct(t, adapter, "Widget", "9.99", 10)
	gadget := seedProduct(t, adapter, "Gadget", "4.00", 10)

	sale := func(seller string, lines ...domain.TicketLine) string {
		t.Helper()
		id, err := adapter.InsertTicket(ctx, domain.NewTicket{SellerID: seller, Total: decimal.NewFromInt(1)})
		require.NoError(t, err)
		t.Cleanup(func() { db.Exec(`DELETE FROM tickets WHERE id = ?`, id) })
		require.NoError(t, adapter.InsertTicketLines(ctx, id, lines))
		return id
	}
	line := func(p domain.Product, qty int) domain.TicketLine {
		return domain.TicketLine{ProductID: p.ID, ProductName: p.Name, Quantity: qty, UnitPrice: p.Price}
	}

	first := sale(ana.ID, line(widget, 1), line(gadget, 2), line(widget, 3))
	second := sale(luis.ID, line(gadget, 4), line(widget, 5))
	third := sale(ana.ID, line(gadget, 6), line(gadget, 7))

	quantities := func(tickets []domain.Ticket) map[string][]int {
		out := make(map[string][]int)
		for _, tk := range tickets {
			for _, l := range tk.Lines {
				out[tk.ID] = append(out[tk.ID], l.Quantity)
			}
		}
		return out
	}

	all, err := adapter.ListTickets(ctx, port.TicketFilter{})
	require.NoError(t, err)
	got := quantities(all)
	assert.Equal(t, []int{1, 2, 3}, got[first])
	assert.Equal(t, []int{4, 5}, got[second])
	assert.Equal(t, []int{6, 7}, got[third])

	own, err := adapter.ListTickets(ctx, port.TicketFilter{SellerID: ana.ID})
	require.NoError(t, err)
	require.Len(t, own, 2)
	got = quantities(own)
	assert.Equal(t, []int{1, 2, 3}, got[first])
	assert.Equal(t, []int{6, 7}, got[third])
	assert.NotContains(t, got, second)
	for _, tk := range own {
		assert.Equal(t, "Ana Torres", tk.Seller.FullName)
	}
}

func TestReadTicketWithLines_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	adapter := NewMySQLAdapter(db)

	_, err := adapter.ReadTicketWithLines(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateProductStock(t *testing.T) {
	db := getMySQLDB(t)
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	p := seedProduct(t, adapter, "Widget", "9.99", 10)

	require.NoError(t, adapter.UpdateProductStock(ctx, p.ID, 7))
	got, err := adapter.ReadProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)

	err = adapter.UpdateProductStock(ctx, uuid.NewString(), 1)
	assert.ErrorIs(t, err, domain.ErrWrite)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProduct_KeepsTicketHistory(t *testing.T) {
	db := getMySQLDB(t)
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	seller := seedProfile(t, adapter, "Luis Pérez", domain.RoleCashier)
	p := seedProduct(t, adapter, "Discontinued", "1.50", 3)

	id, err := adapter.InsertTicket(ctx, domain.NewTicket{SellerID: seller.ID, Total: decimal.RequireFromString("1.50")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Exec(`DELETE FROM tickets WHERE id = ?`, id) })
	require.NoError(t, adapter.InsertTicketLines(ctx, id, []domain.TicketLine{
		{ProductID: p.ID, ProductName: p.Name, Quantity: 1, UnitPrice: p.Price},
	}))

	require.NoError(t, adapter.DeleteProduct(ctx, p.ID))

	ticket, err := adapter.ReadTicketWithLines(ctx, id)
	require.NoError(t, err)
	require.Len(t, ticket.Lines, 1)
	assert.Equal(t, "Discontinued", ticket.Lines[0].ProductName)
	assert.Empty(t, ticket.Lines[0].ProductID)

	assert.ErrorIs(t, adapter.DeleteProduct(ctx, p.ID), domain.ErrNotFound)
}

func TestListAvailableProducts(t *testing.T) {
	db := getMySQLDB(t)
	adapter := NewMySQLAdapter(db)

	seedProduct(t, adapter, "Empty", "1.00", 0)
	seedProduct(t, adapter, "Plenty", "1.00", 1000)

	products, err := adapter.ListAvailableProducts(context.Background(), 5)
	require.NoError(t, err)
	require.NotEmpty(t, products)
	assert.LessOrEqual(t, len(products), 5)
	for i, p := range products {
		assert.Positive(t, p.Stock)
		if i > 0 {
			assert.GreaterOrEqual(t, products[i-1].Stock, p.Stock)
		}
	}
}

func TestProfiles(t *testing.T) {
	db := getMySQLDB(t)
	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	p := seedProfile(t, adapter, "Marta Gil", "")

	got, err := adapter.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCashier, got.Role)

	updated, err := adapter.UpdateRole(ctx, p.ID, domain.RoleInventoryManager)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInventoryManager, updated.Role)

	_, err = adapter.UpdateRole(ctx, uuid.NewString(), domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, adapter.DeleteProfile(ctx, p.ID))
	_, err = adapter.GetProfile(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

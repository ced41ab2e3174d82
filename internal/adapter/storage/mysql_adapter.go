package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/port"
)

type MySQLAdapter struct {
	db *sqlx.DB
}

func NewMySQLAdapter(db *sqlx.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

type productRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Category    string          `db:"category"`
	Price       decimal.Decimal `db:"price"`
	Stock       int             `db:"stock"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		Stock:       r.Stock,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromProduct(p domain.Product) productRow {
	return productRow{
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

type ticketRow struct {
	ID          string          `db:"id"`
	SellerID    string          `db:"seller_id"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	SaleDate    time.Time       `db:"sale_date"`
	Username    sql.NullString  `db:"username"`
	FullName    sql.NullString  `db:"full_name"`
}

func (r ticketRow) toDomain() domain.Ticket {
	return domain.Ticket{
		ID:       r.ID,
		SaleDate: r.SaleDate,
		SellerID: r.SellerID,
		Seller:   domain.Seller{Username: r.Username.String, FullName: r.FullName.String},
		Total:    r.TotalAmount,
	}
}

type ticketItemRow struct {
	TicketID    string          `db:"ticket_id"`
	ProductID   sql.NullString  `db:"product_id"`
	ProductName string          `db:"product_name"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
}

func (r ticketItemRow) toDomain() domain.TicketLine {
	return domain.TicketLine{
		ProductID:   r.ProductID.String,
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
	}
}

type profileRow struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	FullName  string    `db:"full_name"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (r profileRow) toDomain() domain.Profile {
	return domain.Profile{
		ID:        r.ID,
		Username:  r.Username,
		FullName:  r.FullName,
		Role:      domain.Role(r.Role),
		CreatedAt: r.CreatedAt,
	}
}

const (
	productColumns = `id, name, description, category, price, stock, created_at, updated_at`

	ticketSelect = `
		SELECT t.id, t.seller_id, t.total_amount, t.sale_date, p.username, p.full_name
		FROM tickets t
		LEFT JOIN profiles p ON p.id = t.seller_id`

	ticketItemSelect = `
		SELECT ticket_id, product_id, product_name, quantity, unit_price
		FROM ticket_items`
)

// Record store

func (m *MySQLAdapter) ReadProduct(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	err := m.db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	p := row.toDomain()
	return &p, nil
}

func (m *MySQLAdapter) InsertTicket(ctx context.Context, t domain.NewTicket) (string, error) {
	id := uuid.NewString()
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO tickets (id, seller_id, total_amount, sale_date)
		VALUES (?, ?, ?, ?)`,
		id, t.SellerID, t.Total, time.Now().UTC(),
	)
	if err != nil {
		return "", domain.NewWriteError("insert ticket", err)
	}
	return id, nil
}

// InsertTicketLines writes all lines in one transaction. Unlike the rest of the
// checkout, a failure here leaves no partial set of lines behind.
func (m *MySQLAdapter) InsertTicketLines(ctx context.Context, ticketID string, lines []domain.TicketLine) error {
	if len(lines) == 0 {
		return nil
	}

	rows := make([]ticketItemRow, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, ticketItemRow{
			TicketID:    ticketID,
			ProductID:   sql.NullString{String: l.ProductID, Valid: l.ProductID != ""},
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.NewWriteError("insert ticket lines", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO ticket_items (ticket_id, product_id, product_name, quantity, unit_price)
		VALUES (:ticket_id, :product_id, :product_name, :quantity, :unit_price)`,
		rows,
	)
	if err != nil {
		return domain.NewWriteError("insert ticket lines", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.NewWriteError("insert ticket lines", fmt.Errorf("commit: %w", err))
	}
	return nil
}

// UpdateProductStock overwrites stock with no condition on its current value.
func (m *MySQLAdapter) UpdateProductStock(ctx context.Context, id string, newStock int) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET stock = ?, updated_at = ?
		WHERE id = ?`,
		newStock, time.Now().UTC(), id,
	)
	if err != nil {
		return domain.NewWriteError("update product stock", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.NewWriteError("update product stock", fmt.Errorf("product %s: %w", id, domain.ErrNotFound))
	}
	return nil
}

func (m *MySQLAdapter) ReadTicketWithLines(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	var row ticketRow
	err := m.db.GetContext(ctx, &row, ticketSelect+` WHERE t.id = ?`, ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query ticket: %w", err)
	}

	var items []ticketItemRow
	if err := m.db.SelectContext(ctx, &items, ticketItemSelect+` WHERE ticket_id = ? ORDER BY id`, ticketID); err != nil {
		return nil, fmt.Errorf("query ticket items: %w", err)
	}

	t := row.toDomain()
	for _, it := range items {
		t.Lines = append(t.Lines, it.toDomain())
	}
	return &t, nil
}

// Ticket history

// ListTickets reads the tickets, then their lines through one query joined on
// tickets. The line query takes at most one placeholder whatever the ticket count.
func (m *MySQLAdapter) ListTickets(ctx context.Context, filter port.TicketFilter) ([]domain.Ticket, error) {
	ticketQuery := ticketSelect
	itemQuery := `
		SELECT ti.ticket_id, ti.product_id, ti.product_name, ti.quantity, ti.unit_price
		FROM ticket_items ti
		JOIN tickets t ON t.id = ti.ticket_id`
	var args []any
	if filter.SellerID != "" {
		ticketQuery += ` WHERE t.seller_id = ?`
		itemQuery += ` WHERE t.seller_id = ?`
		args = append(args, filter.SellerID)
	}

	var rows []ticketRow
	if err := m.db.SelectContext(ctx, &rows, ticketQuery+` ORDER BY t.sale_date DESC`, args...); err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	if len(rows) == 0 {
		return []domain.Ticket{}, nil
	}

	var items []ticketItemRow
	if err := m.db.SelectContext(ctx, &items, itemQuery+` ORDER BY ti.id`, args...); err != nil {
		return nil, fmt.Errorf("query ticket items: %w", err)
	}

	byTicket := make(map[string][]domain.TicketLine, len(rows))
	for _, it := range items {
		byTicket[it.TicketID] = append(byTicket[it.TicketID], it.toDomain())
	}

	tickets := make([]domain.Ticket, 0, len(rows))
	for _, r := range rows {
		t := r.toDomain()
		t.Lines = byTicket[r.ID]
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// Products

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	if err := m.db.SelectContext(ctx, &rows, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return toProducts(rows), nil
}

func (m *MySQLAdapter) ListAvailableProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	var rows []productRow
	err := m.db.SelectContext(ctx, &rows, `
		SELECT `+productColumns+`
		FROM products
		WHERE stock > 0
		ORDER BY stock DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query available products: %w", err)
	}
	return toProducts(rows), nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return m.ReadProduct(ctx, id)
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.NamedExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (:id, :name, :description, :category, :price, :stock, :created_at, :updated_at)`,
		fromProduct(p),
	)
	if err != nil {
		return domain.NewWriteError("insert product", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, p domain.Product) error {
	result, err := m.db.NamedExecContext(ctx, `
		UPDATE products
		SET name = :name, description = :description, category = :category,
			price = :price, stock = :stock, updated_at = :updated_at
		WHERE id = :id`,
		fromProduct(p),
	)
	if err != nil {
		return domain.NewWriteError("update product", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("product %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteProduct removes the product. Ticket lines keep their captured name and
// lose the reference.
func (m *MySQLAdapter) DeleteProduct(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return domain.NewWriteError("delete product", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func toProducts(rows []productRow) []domain.Product {
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

// Profiles

func (m *MySQLAdapter) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var row profileRow
	err := m.db.GetContext(ctx, &row, `
		SELECT id, username, full_name, role, created_at
		FROM profiles WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	p := row.toDomain()
	return &p, nil
}

func (m *MySQLAdapter) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	var rows []profileRow
	err := m.db.SelectContext(ctx, &rows, `
		SELECT id, username, full_name, role, created_at
		FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}

	out := make([]domain.Profile, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CreateProfile registers a profile. An empty role falls back to the default.
func (m *MySQLAdapter) CreateProfile(ctx context.Context, p domain.Profile) error {
	if p.Role == "" {
		p.Role = domain.DefaultRole
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := m.db.NamedExecContext(ctx, `
		INSERT INTO profiles (id, username, full_name, role, created_at)
		VALUES (:id, :username, :full_name, :role, :created_at)`,
		profileRow{ID: p.ID, Username: p.Username, FullName: p.FullName, Role: string(p.Role), CreatedAt: p.CreatedAt},
	)
	if err != nil {
		return domain.NewWriteError("insert profile", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Profile, error) {
	if _, err := m.db.ExecContext(ctx, `UPDATE profiles SET role = ? WHERE id = ?`, string(role), id); err != nil {
		return nil, domain.NewWriteError("update role", err)
	}
	// MySQL reports zero affected rows when the role is unchanged, so existence
	// is checked by reading the row back.
	return m.GetProfile(ctx, id)
}

func (m *MySQLAdapter) DeleteProfile(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return domain.NewWriteError("delete profile", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

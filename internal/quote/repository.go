package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/platform/db"
)

const pgUniqueViolation = "23505"

// Repository is the storage boundary for quotes. Insert must fail with
// ErrDuplicateNumber when (owner_id, quote_number) already exists; that
// constraint, not the MaxNumber read, arbitrates number allocation.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id uuid.UUID) (*Quote, error)
	List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error)
	MaxNumber(ctx context.Context, ownerID uuid.UUID, prefix string) (string, error)
	Insert(ctx context.Context, q Quote) error
	Update(ctx context.Context, q Quote) error
	ReplaceItems(ctx context.Context, quoteID uuid.UUID, items []ServiceItem) error
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quoteColumns = `
	id, owner_id, quote_number,
	business_name, business_phone, business_address, business_logo_url,
	customer_name, customer_email, customer_phone, customer_address,
	notes, issue_date, valid_until,
	tax_rate::text, status, subtotal::text, tax_amount::text, total::text,
	created_at, updated_at`

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Quote, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}

	items, err := r.itemsFor(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

func (r *repository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	var conditions []string
	var args []any
	if req.OwnerID != uuid.Nil {
		args = append(args, req.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if req.Status != nil {
		args = append(args, string(*req.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM quotes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s FROM quotes %s ORDER BY created_at DESC, quote_number DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range quotes {
		items, err := r.itemsFor(ctx, quotes[i].ID)
		if err != nil {
			return nil, 0, err
		}
		quotes[i].Items = items
	}
	return quotes, total, nil
}

func (r *repository) MaxNumber(ctx context.Context, ownerID uuid.UUID, prefix string) (string, error) {
	var number string
	err := r.db.QueryRow(ctx, `
		SELECT quote_number FROM quotes
		WHERE owner_id = $1 AND quote_number LIKE $2 || '%'
		ORDER BY quote_number DESC
		LIMIT 1
	`, ownerID, prefix).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("max quote number: %w", err)
	}
	return number, nil
}

func (r *repository) Insert(ctx context.Context, q Quote) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO quotes (
			id, owner_id, quote_number,
			business_name, business_phone, business_address, business_logo_url,
			customer_name, customer_email, customer_phone, customer_address,
			notes, issue_date, valid_until, tax_rate, status,
			subtotal, tax_amount, total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		q.ID, q.OwnerID, q.QuoteNumber,
		q.Business.Name, q.Business.Phone, q.Business.Address, q.Business.LogoURL,
		q.Customer.Name, q.Customer.Email, q.Customer.Phone, q.Customer.Address,
		q.Notes, q.IssueDate, nullableDate(q.ValidUntil), q.TaxRate.String(), string(q.Status),
		q.Subtotal.StringFixed(2), q.TaxAmount.StringFixed(2), q.Total.StringFixed(2),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateNumber
		}
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// Update persists the mutable header fields. The identity columns
// (id, owner_id, quote_number, issue_date) are deliberately absent from the
// statement.
func (r *repository) Update(ctx context.Context, q Quote) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes SET
			business_name = $1, business_phone = $2, business_address = $3, business_logo_url = $4,
			customer_name = $5, customer_email = $6, customer_phone = $7, customer_address = $8,
			notes = $9, valid_until = $10, tax_rate = $11, status = $12,
			subtotal = $13, tax_amount = $14, total = $15,
			updated_at = NOW()
		WHERE id = $16
	`,
		q.Business.Name, q.Business.Phone, q.Business.Address, q.Business.LogoURL,
		q.Customer.Name, q.Customer.Email, q.Customer.Phone, q.Customer.Address,
		q.Notes, nullableDate(q.ValidUntil), q.TaxRate.String(), string(q.Status),
		q.Subtotal.StringFixed(2), q.TaxAmount.StringFixed(2), q.Total.StringFixed(2),
		q.ID,
	)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceItems(ctx context.Context, quoteID uuid.UUID, items []ServiceItem) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, quoteID); err != nil {
		return fmt.Errorf("delete quote items: %w", err)
	}
	for _, it := range items {
		_, err := r.db.Exec(ctx, `
			INSERT INTO quote_items (id, quote_id, description, quantity, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, it.ID, quoteID, it.Description, it.Quantity.String(), it.UnitPrice.String(), it.Position)
		if err != nil {
			return fmt.Errorf("insert quote item: %w", err)
		}
	}
	return nil
}

func (r *repository) itemsFor(ctx context.Context, quoteID uuid.UUID) ([]ServiceItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, description, quantity::text, unit_price::text, position
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY position
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("get quote items: %w", err)
	}
	defer rows.Close()

	var items []ServiceItem
	for rows.Next() {
		var it ServiceItem
		var quantity, unitPrice string
		if err := rows.Scan(&it.ID, &it.Description, &quantity, &unitPrice, &it.Position); err != nil {
			return nil, fmt.Errorf("scan quote item: %w", err)
		}
		if it.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		if it.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	var logoURL *string
	var validUntil *time.Time
	var taxRate, subtotal, taxAmount, total string

	err := row.Scan(
		&q.ID, &q.OwnerID, &q.QuoteNumber,
		&q.Business.Name, &q.Business.Phone, &q.Business.Address, &logoURL,
		&q.Customer.Name, &q.Customer.Email, &q.Customer.Phone, &q.Customer.Address,
		&q.Notes, &q.IssueDate, &validUntil,
		&taxRate, &q.Status, &subtotal, &taxAmount, &total,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	q.Business.LogoURL = logoURL
	if validUntil != nil {
		q.ValidUntil = *validUntil
	}
	if q.TaxRate, err = decimal.NewFromString(taxRate); err != nil {
		return nil, fmt.Errorf("parse tax rate: %w", err)
	}
	if q.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("parse subtotal: %w", err)
	}
	if q.TaxAmount, err = decimal.NewFromString(taxAmount); err != nil {
		return nil, fmt.Errorf("parse tax amount: %w", err)
	}
	if q.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	return &q, nil
}

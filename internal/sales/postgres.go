package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the sales table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS sales (
    id             TEXT PRIMARY KEY,
    product_id     TEXT NOT NULL,
    product_name   TEXT NOT NULL,
    quantity       INTEGER NOT NULL,
    unit_price     NUMERIC(10,2) NOT NULL,
    total          NUMERIC(10,2) NOT NULL,
    payment_method TEXT NOT NULL,
    date           TIMESTAMPTZ NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_sales_product ON sales(product_id);
CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(date DESC);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given
// database connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing
// queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// sales table and indexes if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("sales: migrate: %w", err)
	}
	return nil
}

// Create implements [Store.Create].
func (s *PostgresStore) Create(ctx context.Context, sale Sale) (Sale, error) {
	if err := sale.Validate(); err != nil {
		return Sale{}, err
	}
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO sales (id, product_id, product_name, quantity, unit_price, total, payment_method, date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`

	err := s.db.QueryRow(ctx, query,
		sale.ID, sale.ProductID, sale.ProductName, sale.Quantity,
		sale.UnitPrice, sale.Total, sale.PaymentMethod, sale.Date,
	).Scan(&sale.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Sale{}, ErrDuplicateID
		}
		return Sale{}, fmt.Errorf("sales: create: %w", err)
	}
	return sale, nil
}

// Get implements [Store.Get].
func (s *PostgresStore) Get(ctx context.Context, id string) (Sale, error) {
	const query = `
		SELECT id, product_id, product_name, quantity, unit_price, total, payment_method, date, created_at
		FROM sales
		WHERE id = $1`

	var sale Sale
	err := s.db.QueryRow(ctx, query, id).Scan(
		&sale.ID, &sale.ProductID, &sale.ProductName, &sale.Quantity,
		&sale.UnitPrice, &sale.Total, &sale.PaymentMethod, &sale.Date, &sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrNotFound
		}
		return Sale{}, fmt.Errorf("sales: get %q: %w", id, err)
	}
	return sale, nil
}

// Delete implements [Store.Delete].
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sales WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("sales: delete %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements [Store.List]. The filter clauses are assembled
// positionally so any combination of options works.
func (s *PostgresStore) List(ctx context.Context, opts ListOptions) ([]Sale, error) {
	query := `
		SELECT id, product_id, product_name, quantity, unit_price, total, payment_method, date, created_at
		FROM sales`
	var (
		conds []string
		args  []any
	)
	if opts.ProductID != "" {
		args = append(args, opts.ProductID)
		conds = append(conds, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if !opts.From.IsZero() {
		args = append(args, opts.From)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !opts.To.IsZero() {
		args = append(args, opts.To)
		conds = append(conds, fmt.Sprintf("date < $%d", len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY date DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sales: list: %w", err)
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(
			&sale.ID, &sale.ProductID, &sale.ProductName, &sale.Quantity,
			&sale.UnitPrice, &sale.Total, &sale.PaymentMethod, &sale.Date, &sale.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sales: list scan: %w", err)
		}
		out = append(out, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales: list: %w", err)
	}
	return out, nil
}

// isDuplicateKeyError checks whether a PostgreSQL error is a
// unique-violation (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

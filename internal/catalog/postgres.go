package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/emiliovps/ventia/internal/interpret"
)

// Schema is the SQL DDL for the products table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment. The
// name_normalized column carries the lookup key so prefix queries hit the
// index instead of normalising per row.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    name_normalized TEXT NOT NULL,
    price           NUMERIC(10,2) NOT NULL DEFAULT 0,
    status          TEXT NOT NULL DEFAULT 'active',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_products_name_normalized ON products(name_normalized text_pattern_ops);
CREATE INDEX IF NOT EXISTS idx_products_status ON products(status);
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
// products table and indexes if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	return nil
}

// Create implements [Store.Create].
func (s *PostgresStore) Create(ctx context.Context, p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO products (id, name, name_normalized, price, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query,
		p.ID, p.Name, interpret.Normalize(p.Name), p.Price, normalizeStatus(p.Status),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Product{}, ErrDuplicateID
		}
		return Product{}, fmt.Errorf("catalog: create: %w", err)
	}
	p.NameNormalized = interpret.Normalize(p.Name)
	p.Status = normalizeStatus(p.Status)
	return p, nil
}

// Get implements [Store.Get].
func (s *PostgresStore) Get(ctx context.Context, id string) (Product, error) {
	const query = `
		SELECT id, name, name_normalized, price, status, created_at, updated_at
		FROM products
		WHERE id = $1`

	var p Product
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.NameNormalized, &p.Price, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("catalog: get %q: %w", id, err)
	}
	return p, nil
}

// Update implements [Store.Update].
func (s *PostgresStore) Update(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	const query = `
		UPDATE products SET
			name = $2, name_normalized = $3, price = $4, status = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := s.db.QueryRow(ctx, query,
		p.ID, p.Name, interpret.Normalize(p.Name), p.Price, normalizeStatus(p.Status),
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("catalog: update: %w", err)
	}
	return nil
}

// Delete implements [Store.Delete].
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM products WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("catalog: delete %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements [Store.List].
func (s *PostgresStore) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	query := `
		SELECT id, name, name_normalized, price, status, created_at, updated_at
		FROM products`
	var args []any
	if opts.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY name`
	if opts.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, opts.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows, "list")
}

// FindByPrefix implements [Store.FindByPrefix].
func (s *PostgresStore) FindByPrefix(ctx context.Context, prefix string, limit int) ([]Product, error) {
	if prefix == "" {
		return nil, nil
	}

	const query = `
		SELECT id, name, name_normalized, price, status, created_at, updated_at
		FROM products
		WHERE status = 'active' AND name_normalized LIKE $1 || '%'
		ORDER BY name
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: find by prefix: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows, "find by prefix")
}

// Upsert implements [Store.Upsert].
func (s *PostgresStore) Upsert(ctx context.Context, p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO products (id, name, name_normalized, price, status)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			name_normalized = EXCLUDED.name_normalized,
			price = EXCLUDED.price,
			status = EXCLUDED.status,
			updated_at = now()
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query,
		p.ID, p.Name, interpret.Normalize(p.Name), p.Price, normalizeStatus(p.Status),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: upsert: %w", err)
	}
	p.NameNormalized = interpret.Normalize(p.Name)
	p.Status = normalizeStatus(p.Status)
	return p, nil
}

// scanProducts drains rows into a product slice.
func scanProducts(rows pgx.Rows, op string) ([]Product, error) {
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.NameNormalized, &p.Price, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("catalog: %s scan: %w", op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", op, err)
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

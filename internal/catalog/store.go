package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get, Update and Delete when the requested
// product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrDuplicateID is returned by Create when a product with the same ID
// already exists.
var ErrDuplicateID = errors.New("product with that ID already exists")

// Store manages the product catalog.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Create persists a new product. A product without an ID gets one
	// auto-generated; the created product is returned.
	// Returns [ErrDuplicateID] if a product with the same non-empty ID exists.
	Create(ctx context.Context, p Product) (Product, error)

	// Get retrieves a product by ID.
	// Returns [ErrNotFound] when no product with that ID exists.
	Get(ctx context.Context, id string) (Product, error)

	// Update replaces an existing product. The product's ID must be non-empty.
	// Returns [ErrNotFound] when no product with that ID exists.
	Update(ctx context.Context, p Product) error

	// Delete removes a product by ID.
	// Returns [ErrNotFound] when no product with that ID exists.
	Delete(ctx context.Context, id string) error

	// List returns products matching opts, ordered by name.
	List(ctx context.Context, opts ListOptions) ([]Product, error)

	// FindByPrefix returns up to limit active products whose normalized
	// name starts with the given normalized prefix, ordered by name.
	FindByPrefix(ctx context.Context, prefix string, limit int) ([]Product, error)

	// Upsert creates or replaces a product by ID. Used by the seed
	// importer, where re-running the import must be harmless.
	Upsert(ctx context.Context, p Product) (Product, error)
}

// ListOptions narrows the result set of [Store.List].
type ListOptions struct {
	// Status restricts results to products in this state.
	// An empty value matches all states.
	Status ProductStatus

	// Limit caps the number of results. Zero means no cap.
	Limit int
}

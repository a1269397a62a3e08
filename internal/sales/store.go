package sales

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get and Delete when the requested sale does
// not exist.
var ErrNotFound = errors.New("sale not found")

// ErrDuplicateID is returned by Create when a sale with the same ID
// already exists.
var ErrDuplicateID = errors.New("sale with that ID already exists")

// Store persists sale records.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Create persists a new sale. A sale without an ID gets one
	// auto-generated; the created sale is returned.
	// Returns [ErrDuplicateID] if a sale with the same non-empty ID exists.
	Create(ctx context.Context, s Sale) (Sale, error)

	// Get retrieves a sale by ID.
	// Returns [ErrNotFound] when no sale with that ID exists.
	Get(ctx context.Context, id string) (Sale, error)

	// Delete removes a sale by ID.
	// Returns [ErrNotFound] when no sale with that ID exists.
	Delete(ctx context.Context, id string) error

	// List returns sales matching opts, newest first.
	List(ctx context.Context, opts ListOptions) ([]Sale, error)
}

// ListOptions narrows the result set of [Store.List].
// All non-zero fields are applied as AND conditions.
type ListOptions struct {
	// ProductID restricts results to sales of this product.
	ProductID string

	// From restricts results to sales dated at or after this instant.
	From time.Time

	// To restricts results to sales dated strictly before this instant.
	To time.Time

	// Limit caps the number of results. Zero means no cap.
	Limit int
}

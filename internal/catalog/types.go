// Package catalog manages the product catalog the voice interpreter sells
// from.
//
// Products are stored in PostgreSQL ([PostgresStore]) or in memory
// ([MemStore]) and can be seeded from a YAML file ([LoadSeedFile]). The
// [Lookup] adapter exposes the store to the interpretation pipeline as its
// catalog collaborator.
//
// All store operations are safe for concurrent use.
package catalog

import (
	"errors"
	"fmt"
	"time"
)

// ProductStatus is the lifecycle state of a product.
type ProductStatus string

const (
	// StatusActive marks a product as sellable. Only active products are
	// offered to the interpreter.
	StatusActive ProductStatus = "active"

	// StatusInactive marks a product as retired. Inactive products stay in
	// the store so historical sales keep resolving, but they never match a
	// lookup.
	StatusInactive ProductStatus = "inactive"
)

// IsValid reports whether s is a recognised product status.
func (s ProductStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	}
	return false
}

// Product is a single sellable item.
type Product struct {
	// ID is a unique identifier. Auto-generated if empty on create.
	ID string `yaml:"id" json:"id"`

	// Name is the display name spoken by the seller ("Inca Kola 500ml").
	Name string `yaml:"name" json:"name"`

	// NameNormalized is the lookup key: lowercased, diacritics stripped,
	// punctuation collapsed. Maintained by the store on every write.
	NameNormalized string `yaml:"-" json:"-"`

	// Price is the unit price in the shop's currency. Zero means "no list
	// price"; a sale then needs an explicit spoken price.
	Price float64 `yaml:"price" json:"price"`

	// Status defaults to [StatusActive] when empty.
	Status ProductStatus `yaml:"status,omitempty" json:"status"`

	CreatedAt time.Time `yaml:"-" json:"created_at"`
	UpdatedAt time.Time `yaml:"-" json:"updated_at"`
}

// Validate checks the invariants a product must satisfy before persistence.
// All violations are reported together.
func (p *Product) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if p.Price < 0 {
		errs = append(errs, fmt.Errorf("price must not be negative, got %v", p.Price))
	}
	if p.Status != "" && !p.Status.IsValid() {
		errs = append(errs, fmt.Errorf("unknown status %q", p.Status))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("catalog: invalid product: %w", err)
	}
	return nil
}

// normalizeStatus returns the status with the documented default applied.
func normalizeStatus(s ProductStatus) ProductStatus {
	if s == "" {
		return StatusActive
	}
	return s
}

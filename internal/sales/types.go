// Package sales records completed sales and turns confirmed interpreter
// results into persisted records.
//
// A sale always references a catalog product; the service layer resolves
// the unit price from the catalog when the utterance named none and
// refuses to persist results the interpreter flagged for confirmation.
package sales

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/emiliovps/ventia/internal/interpret"
)

// Sale is one completed sale record.
type Sale struct {
	// ID is a unique identifier. Auto-generated if empty on create.
	ID string `json:"id"`

	// ProductID references the catalog product that was sold.
	ProductID string `json:"product_id"`

	// ProductName is the product's display name at the time of sale, so
	// the record stays readable after catalog edits.
	ProductName string `json:"product_name"`

	// Quantity is the number of units sold. Always >= 1.
	Quantity int `json:"quantity"`

	// UnitPrice is the per-unit price the sale was closed at.
	UnitPrice float64 `json:"unit_price"`

	// Total is Quantity * UnitPrice, fixed at creation.
	Total float64 `json:"total"`

	// PaymentMethod is one of the canonical values from
	// [interpret.PaymentMethods].
	PaymentMethod string `json:"payment_method"`

	// Date is when the sale happened, which may differ from CreatedAt for
	// utterances like "registra una venta de ayer".
	Date time.Time `json:"date"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the invariants a sale must satisfy before persistence.
// All violations are reported together.
func (s *Sale) Validate() error {
	var errs []error
	if s.ProductID == "" {
		errs = append(errs, errors.New("product_id must not be empty"))
	}
	if s.Quantity < 1 {
		errs = append(errs, fmt.Errorf("quantity must be at least 1, got %d", s.Quantity))
	}
	if s.UnitPrice < 0 {
		errs = append(errs, fmt.Errorf("unit_price must not be negative, got %v", s.UnitPrice))
	}
	if !slices.Contains(interpret.PaymentMethods(), s.PaymentMethod) {
		errs = append(errs, fmt.Errorf("unknown payment method %q", s.PaymentMethod))
	}
	if s.Date.IsZero() {
		errs = append(errs, errors.New("date must be set"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("sales: invalid sale: %w", err)
	}
	return nil
}

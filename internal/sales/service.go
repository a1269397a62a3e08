package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/emiliovps/ventia/internal/catalog"
	"github.com/emiliovps/ventia/internal/interpret"
)

// ErrNeedsConfirmation is returned by [Service.CreateFromResult] when the
// interpreter flagged the result for confirmation. The caller must confirm
// the product with the user and retry with an explicit product ID.
var ErrNeedsConfirmation = errors.New("interpretation needs confirmation before a sale can be recorded")

// ErrNotSaleIntent is returned by [Service.CreateFromResult] for results
// whose intent is not sale creation.
var ErrNotSaleIntent = errors.New("result does not describe a sale")

// ErrUnknownProduct is returned when the referenced product does not exist
// or is inactive.
var ErrUnknownProduct = errors.New("unknown or inactive product")

// ErrNoPrice is returned when neither the utterance nor the catalog
// provides a unit price.
var ErrNoPrice = errors.New("no unit price available for this product")

// Draft is the input to [Service.Create]: the sale as extracted from an
// utterance or an API request, before catalog resolution fills the gaps.
type Draft struct {
	ProductID     string
	Quantity      int
	UnitPrice     *float64
	PaymentMethod string
	Date          time.Time
}

// Option is a functional option for configuring a [Service].
type Option func(*Service)

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service records sales against the product catalog.
type Service struct {
	store    Store
	products catalog.Store
	now      func() time.Time
}

// NewService creates a sale-recording service over the given stores.
func NewService(store Store, products catalog.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		products: products,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates a draft against the catalog and persists it. The unit
// price comes from the draft when spoken, otherwise from the product's
// list price; a missing price on both sides is [ErrNoPrice].
func (s *Service) Create(ctx context.Context, d Draft) (Sale, error) {
	product, err := s.products.Get(ctx, d.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Sale{}, fmt.Errorf("sales: product %q: %w", d.ProductID, ErrUnknownProduct)
		}
		return Sale{}, fmt.Errorf("sales: look up product %q: %w", d.ProductID, err)
	}
	if product.Status != catalog.StatusActive {
		return Sale{}, fmt.Errorf("sales: product %q: %w", d.ProductID, ErrUnknownProduct)
	}

	unitPrice := product.Price
	if d.UnitPrice != nil {
		unitPrice = *d.UnitPrice
	}
	if unitPrice <= 0 {
		return Sale{}, fmt.Errorf("sales: product %q: %w", d.ProductID, ErrNoPrice)
	}

	quantity := d.Quantity
	if quantity == 0 {
		quantity = 1
	}
	date := d.Date
	if date.IsZero() {
		date = s.now()
	}

	sale := Sale{
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		Total:         unitPrice * float64(quantity),
		PaymentMethod: d.PaymentMethod,
		Date:          date,
	}
	created, err := s.store.Create(ctx, sale)
	if err != nil {
		return Sale{}, err
	}

	slog.Info("sales: sale recorded",
		"sale_id", created.ID,
		"product_id", created.ProductID,
		"quantity", created.Quantity,
		"total", created.Total,
		"payment_method", created.PaymentMethod,
	)
	return created, nil
}

// CreateFromResult turns a confirmed interpreter result into a sale.
// Results that are not sale intents, that still need confirmation, or that
// carry no bound product are rejected; the interpreter's candidate list is
// deliberately ignored here, binding happens before persistence.
func (s *Service) CreateFromResult(ctx context.Context, res interpret.Result) (Sale, error) {
	if res.Intent != interpret.IntentCreateSale {
		return Sale{}, ErrNotSaleIntent
	}
	if res.NeedsConfirmation {
		return Sale{}, ErrNeedsConfirmation
	}

	d := Draft{Quantity: 1, PaymentMethod: interpret.DefaultPaymentMethod}

	if id, ok := res.Entities["product_id"].(string); ok {
		d.ProductID = id
	}
	if d.ProductID == "" {
		return Sale{}, fmt.Errorf("sales: result carries no product binding: %w", ErrUnknownProduct)
	}
	if q, ok := res.Entities["quantity"].(int); ok && q > 0 {
		d.Quantity = q
	}
	if p, ok := res.Entities["price"].(float64); ok {
		d.UnitPrice = &p
	}
	if m, ok := res.Entities["payment_method"].(string); ok && m != "" {
		d.PaymentMethod = m
	}
	if raw, ok := res.Entities["date"].(string); ok {
		if date, err := time.Parse(time.RFC3339, raw); err == nil {
			d.Date = date
		}
	}

	return s.Create(ctx, d)
}

// Get retrieves a sale by ID.
func (s *Service) Get(ctx context.Context, id string) (Sale, error) {
	return s.store.Get(ctx, id)
}

// Delete removes a sale by ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// List returns sales matching opts, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Sale, error) {
	return s.store.List(ctx, opts)
}

// Summary aggregates the sales matching opts.
type Summary struct {
	Count   int     `json:"count"`
	Units   int     `json:"units"`
	Revenue float64 `json:"revenue"`
}

// Summarize computes count, units and revenue over the sales matching
// opts. The limit in opts also bounds the aggregation window.
func (s *Service) Summarize(ctx context.Context, opts ListOptions) (Summary, error) {
	list, err := s.store.List(ctx, opts)
	if err != nil {
		return Summary{}, err
	}
	var sum Summary
	for _, sale := range list {
		sum.Count++
		sum.Units += sale.Quantity
		sum.Revenue += sale.Total
	}
	return sum, nil
}

package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emiliovps/ventia/internal/interpret"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// It backs tests and catalog-less deployments. The zero value is ready to
// use.
type MemStore struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		products: make(map[string]Product),
	}
}

// Create implements [Store.Create].
func (s *MemStore) Create(ctx context.Context, p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	stamp(&p, time.Now())
	p.CreatedAt = p.UpdatedAt

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.products == nil {
		s.products = make(map[string]Product)
	}
	if _, exists := s.products[p.ID]; exists {
		return Product{}, ErrDuplicateID
	}
	s.products[p.ID] = p
	return p, nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(ctx context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// Update implements [Store.Update].
func (s *MemStore) Update(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	stamp(&p, time.Now())
	p.CreatedAt = old.CreatedAt
	s.products[p.ID] = p
	return nil
}

// Delete implements [Store.Delete].
func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// List implements [Store.List].
func (s *MemStore) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// FindByPrefix implements [Store.FindByPrefix].
func (s *MemStore) FindByPrefix(ctx context.Context, prefix string, limit int) ([]Product, error) {
	if prefix == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Product
	for _, p := range s.products {
		if p.Status != StatusActive {
			continue
		}
		if strings.HasPrefix(p.NameNormalized, prefix) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Upsert implements [Store.Upsert].
func (s *MemStore) Upsert(ctx context.Context, p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.products == nil {
		s.products = make(map[string]Product)
	}
	stamp(&p, time.Now())
	if old, ok := s.products[p.ID]; ok {
		p.CreatedAt = old.CreatedAt
	} else {
		p.CreatedAt = p.UpdatedAt
	}
	s.products[p.ID] = p
	return p, nil
}

// stamp applies the write-time invariants: defaulted status, refreshed
// normalized name, updated timestamp.
func stamp(p *Product, now time.Time) {
	p.Status = normalizeStatus(p.Status)
	p.NameNormalized = interpret.Normalize(p.Name)
	p.UpdatedAt = now
}

package sales

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// The zero value is ready to use.
type MemStore struct {
	mu    sync.RWMutex
	sales map[string]Sale
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		sales: make(map[string]Sale),
	}
}

// Create implements [Store.Create].
func (m *MemStore) Create(ctx context.Context, s Sale) (Sale, error) {
	if err := s.Validate(); err != nil {
		return Sale{}, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sales == nil {
		m.sales = make(map[string]Sale)
	}
	if _, exists := m.sales[s.ID]; exists {
		return Sale{}, ErrDuplicateID
	}
	m.sales[s.ID] = s
	return s, nil
}

// Get implements [Store.Get].
func (m *MemStore) Get(ctx context.Context, id string) (Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sales[id]
	if !ok {
		return Sale{}, ErrNotFound
	}
	return s, nil
}

// Delete implements [Store.Delete].
func (m *MemStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sales[id]; !ok {
		return ErrNotFound
	}
	delete(m.sales, id)
	return nil
}

// List implements [Store.List].
func (m *MemStore) List(ctx context.Context, opts ListOptions) ([]Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Sale, 0, len(m.sales))
	for _, s := range m.sales {
		if !matchesOpts(s, opts) {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// matchesOpts reports whether s satisfies all conditions in opts.
func matchesOpts(s Sale, opts ListOptions) bool {
	if opts.ProductID != "" && s.ProductID != opts.ProductID {
		return false
	}
	if !opts.From.IsZero() && s.Date.Before(opts.From) {
		return false
	}
	if !opts.To.IsZero() && !s.Date.Before(opts.To) {
		return false
	}
	return true
}

package auth

import (
	"context"
	"sort"
	"strings"
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
	users map[string]User
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		users: make(map[string]User),
	}
}

// Create implements [Store.Create].
func (m *MemStore) Create(ctx context.Context, u User) (User, error) {
	u.Email = strings.ToLower(u.Email)
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Role = normalizeRole(u.Role)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.users == nil {
		m.users = make(map[string]User)
	}
	if _, exists := m.users[u.ID]; exists {
		return User{}, ErrDuplicate
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return User{}, ErrDuplicate
		}
	}
	m.users[u.ID] = u
	return u, nil
}

// Get implements [Store.Get].
func (m *MemStore) Get(ctx context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// GetByEmail implements [Store.GetByEmail].
func (m *MemStore) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(email)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// Delete implements [Store.Delete].
func (m *MemStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// List implements [Store.List].
func (m *MemStore) List(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

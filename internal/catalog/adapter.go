package catalog

import (
	"context"

	"github.com/emiliovps/ventia/internal/interpret"
)

// Lookup adapts a [Store] to the interpreter's catalog collaborator
// interface. Only active products are surfaced.
type Lookup struct {
	store Store
}

var _ interpret.Catalog = (*Lookup)(nil)

// NewLookup wraps store for use as an [interpret.Catalog].
func NewLookup(store Store) *Lookup {
	return &Lookup{store: store}
}

// FindByPrefix implements [interpret.Catalog].
func (l *Lookup) FindByPrefix(ctx context.Context, prefix string, limit int) ([]interpret.Candidate, error) {
	products, err := l.store.FindByPrefix(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	return toCandidates(products), nil
}

// List implements [interpret.Catalog].
func (l *Lookup) List(ctx context.Context, limit int) ([]interpret.Candidate, error) {
	products, err := l.store.List(ctx, ListOptions{Status: StatusActive, Limit: limit})
	if err != nil {
		return nil, err
	}
	return toCandidates(products), nil
}

// SeedCandidates returns a loader for the interpreter's last-resort default
// dataset, reading the given seed file on first use. Inactive entries are
// skipped. Pass the result to [interpret.WithDefaultCatalog].
func SeedCandidates(path string) func() ([]interpret.Candidate, error) {
	return func() ([]interpret.Candidate, error) {
		seed, err := LoadSeedFile(path)
		if err != nil {
			return nil, err
		}
		var out []interpret.Candidate
		for _, p := range seed.Products {
			if normalizeStatus(p.Status) != StatusActive {
				continue
			}
			out = append(out, interpret.Candidate{ID: p.ID, Name: p.Name})
		}
		return out, nil
	}
}

func toCandidates(products []Product) []interpret.Candidate {
	out := make([]interpret.Candidate, len(products))
	for i, p := range products {
		out[i] = interpret.Candidate{ID: p.ID, Name: p.Name}
	}
	return out
}

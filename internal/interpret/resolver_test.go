package interpret

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

// fakeCatalog serves canned products and records call counts. FindByPrefix
// does a plain prefix match on the normalized name.
type fakeCatalog struct {
	products []Candidate
	findErr  error
	listErr  error

	findCalls atomic.Int64
	listCalls atomic.Int64
}

var _ Catalog = (*fakeCatalog)(nil)

func (f *fakeCatalog) FindByPrefix(_ context.Context, prefix string, limit int) ([]Candidate, error) {
	f.findCalls.Add(1)
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []Candidate
	for _, p := range f.products {
		if strings.HasPrefix(Normalize(p.Name), prefix) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeCatalog) List(_ context.Context, limit int) ([]Candidate, error) {
	f.listCalls.Add(1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.products) > limit {
		return f.products[:limit], nil
	}
	return f.products, nil
}

func TestResolvePrefixTier(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{products: []Candidate{
		{ID: "p1", Name: "Onigiris"},
		{ID: "p2", Name: "Gaseosa"},
	}}
	r := NewResolver(cat)

	ranked := r.Resolve(context.Background(), "onigiris", nil)
	if len(ranked) == 0 {
		t.Fatal("no candidates")
	}
	if ranked[0].ID != "p1" {
		t.Fatalf("top candidate = %q, want p1", ranked[0].ID)
	}
	if ranked[0].Score != 100 {
		t.Fatalf("top score = %d, want 100", ranked[0].Score)
	}
	if cat.listCalls.Load() != 0 {
		t.Fatalf("listing fallback ran %d times, want 0", cat.listCalls.Load())
	}
}

func TestResolveListingFallback(t *testing.T) {
	t.Parallel()

	// No product name starts with any variant of the phrase, so the prefix
	// tier comes up empty and the bulk listing is filtered by similarity.
	cat := &fakeCatalog{products: []Candidate{
		{ID: "p1", Name: "Keke de chocolate"},
		{ID: "p2", Name: "Empanada"},
	}}
	r := NewResolver(cat)

	ranked := r.Resolve(context.Background(), "chocolate keke", nil)
	if cat.listCalls.Load() != 1 {
		t.Fatalf("listing fallback ran %d times, want 1", cat.listCalls.Load())
	}
	if len(ranked) == 0 || ranked[0].ID != "p1" {
		t.Fatalf("ranked = %+v, want p1 first", ranked)
	}
	for _, rc := range ranked {
		if rc.ID == "p2" {
			t.Fatalf("dissimilar product kept: %+v", ranked)
		}
	}
}

func TestResolveCollaboratorErrors(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{
		findErr: errors.New("catalog down"),
		listErr: errors.New("catalog down"),
	}
	r := NewResolver(cat)

	local := []Candidate{{ID: "l1", Name: "Onigiris"}}
	ranked := r.Resolve(context.Background(), "onigiris", local)
	if len(ranked) != 1 || ranked[0].ID != "l1" {
		t.Fatalf("ranked = %+v, want the local candidate only", ranked)
	}
	if ranked[0].Score != 100 {
		t.Fatalf("score = %d, want 100", ranked[0].Score)
	}
}

func TestResolveLocalMergeDedup(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{products: []Candidate{{ID: "p1", Name: "Onigiris"}}}
	r := NewResolver(cat)

	// Same ID supplied locally must not produce a duplicate entry.
	local := []Candidate{{ID: "p1", Name: "Onigiris"}, {Name: "Onigiri casero"}}
	ranked := r.Resolve(context.Background(), "onigiris", local)
	ids := 0
	for _, rc := range ranked {
		if rc.ID == "p1" {
			ids++
		}
	}
	if ids != 1 {
		t.Fatalf("candidate p1 appears %d times: %+v", ids, ranked)
	}
}

func TestResolveDefaultCatalogLazyOnce(t *testing.T) {
	t.Parallel()

	var loads atomic.Int64
	r := NewResolver(NopCatalog{}, WithDefaultCatalog(func() ([]Candidate, error) {
		loads.Add(1)
		return []Candidate{{ID: "d1", Name: "Gaseosa"}}, nil
	}))

	for range 3 {
		ranked := r.Resolve(context.Background(), "gaseosa", nil)
		if len(ranked) != 1 || ranked[0].ID != "d1" {
			t.Fatalf("ranked = %+v, want the default dataset entry", ranked)
		}
	}
	if loads.Load() != 1 {
		t.Fatalf("default dataset loaded %d times, want 1", loads.Load())
	}
}

func TestResolveDefaultCatalogLoadErrorCached(t *testing.T) {
	t.Parallel()

	var loads atomic.Int64
	r := NewResolver(NopCatalog{}, WithDefaultCatalog(func() ([]Candidate, error) {
		loads.Add(1)
		return nil, errors.New("seed file missing")
	}))

	for range 2 {
		if ranked := r.Resolve(context.Background(), "gaseosa", nil); len(ranked) != 0 {
			t.Fatalf("ranked = %+v, want empty", ranked)
		}
	}
	if loads.Load() != 1 {
		t.Fatalf("failed loader ran %d times, want 1", loads.Load())
	}
}

func TestGate(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		id, confirm, note := Gate(nil)
		if id != "" || !confirm {
			t.Fatalf("got (%q, %v), want no binding with confirmation", id, confirm)
		}
		if note != "no catalog match found" {
			t.Fatalf("note = %q", note)
		}
	})

	t.Run("auto select", func(t *testing.T) {
		t.Parallel()
		ranked := []RankedCandidate{{Candidate: Candidate{ID: "p1", Name: "Onigiris"}, Score: 100}}
		id, confirm, note := Gate(ranked)
		if id != "p1" || confirm {
			t.Fatalf("got (%q, %v), want automatic binding", id, confirm)
		}
		if !strings.Contains(note, "Onigiris") || !strings.Contains(note, "100") {
			t.Fatalf("note = %q", note)
		}
	})

	t.Run("below threshold", func(t *testing.T) {
		t.Parallel()
		ranked := []RankedCandidate{{Candidate: Candidate{ID: "p1", Name: "Onigiris"}, Score: AutoSelectScore - 1}}
		id, confirm, _ := Gate(ranked)
		if id != "" || !confirm {
			t.Fatalf("got (%q, %v), want confirmation", id, confirm)
		}
	})

	t.Run("perfect score without id", func(t *testing.T) {
		t.Parallel()
		ranked := []RankedCandidate{{Candidate: Candidate{Name: "Onigiris"}, Score: 100}}
		id, confirm, _ := Gate(ranked)
		if id != "" || !confirm {
			t.Fatalf("got (%q, %v), want confirmation for unbound candidate", id, confirm)
		}
	})
}

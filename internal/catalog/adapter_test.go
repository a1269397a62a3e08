package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/emiliovps/ventia/internal/interpret"
)

func TestLookupFindByPrefix(t *testing.T) {
	t.Parallel()
	s := NewMemStore()
	ctx := context.Background()

	created, err := s.Create(ctx, Product{Name: "Onigiris", Price: 5.5})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, Product{Name: "Onigiri viejo", Status: StatusInactive}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	l := NewLookup(s)
	found, err := l.FindByPrefix(ctx, "onig", 10)
	if err != nil {
		t.Fatalf("FindByPrefix: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("found = %+v, want the active product only", found)
	}
	if found[0] != (interpret.Candidate{ID: created.ID, Name: "Onigiris"}) {
		t.Fatalf("candidate = %+v", found[0])
	}
}

func TestLookupList(t *testing.T) {
	t.Parallel()
	s := NewMemStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, Product{Name: "Cafe"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, Product{Name: "Retirado", Status: StatusInactive}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	l := NewLookup(s)
	listed, err := l.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Cafe" {
		t.Fatalf("listed = %+v, want the active product only", listed)
	}
}

func TestSeedCandidates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	load := SeedCandidates(path)
	got, err := load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Onigiris" {
		t.Fatalf("candidates = %+v, want the active seed entry only", got)
	}

	if _, err := SeedCandidates(filepath.Join(t.TempDir(), "missing.yaml"))(); err == nil {
		t.Fatal("missing seed file must report an error")
	}
}

package catalog

import (
	"context"
	"strings"
	"testing"
)

const seedYAML = `
shop:
  name: "Bodega San Martín"
  currency: "PEN"
products:
  - name: "Onigiris"
    price: 5.50
  - name: "Inca Kola 500ml"
    price: 3.00
    status: inactive
`

func TestLoadSeedFromReader(t *testing.T) {
	t.Parallel()

	sf, err := LoadSeedFromReader(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatalf("LoadSeedFromReader: %v", err)
	}
	if sf.Shop.Name != "Bodega San Martín" || sf.Shop.Currency != "PEN" {
		t.Fatalf("shop meta = %+v", sf.Shop)
	}
	if len(sf.Products) != 2 {
		t.Fatalf("products = %d, want 2", len(sf.Products))
	}
	if sf.Products[0].Name != "Onigiris" || sf.Products[0].Price != 5.5 {
		t.Fatalf("first product = %+v", sf.Products[0])
	}
	if sf.Products[1].Status != StatusInactive {
		t.Fatalf("second product status = %q, want inactive", sf.Products[1].Status)
	}
}

func TestLoadSeedUnknownField(t *testing.T) {
	t.Parallel()

	bad := `
shop:
  name: "X"
prodcuts:
  - name: "typo"
`
	if _, err := LoadSeedFromReader(strings.NewReader(bad)); err == nil {
		t.Fatal("unknown top-level key must be rejected")
	}
}

func TestImportSeed(t *testing.T) {
	t.Parallel()

	sf, err := LoadSeedFromReader(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatalf("LoadSeedFromReader: %v", err)
	}

	s := NewMemStore()
	ctx := context.Background()
	n, err := ImportSeed(ctx, s, sf)
	if err != nil {
		t.Fatalf("ImportSeed: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported = %d, want 2", n)
	}

	// Re-running the import must refresh existing products, not duplicate
	// them, even though seed entries carry no IDs.
	sf.Products[0].Price = 6
	if _, err := ImportSeed(ctx, s, sf); err != nil {
		t.Fatalf("ImportSeed rerun: %v", err)
	}
	all, err := s.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("rerun duplicated the catalog: %d products, want 2", len(all))
	}
	for _, p := range all {
		if p.Name == "Onigiris" && p.Price != 6 {
			t.Fatalf("rerun did not refresh price: %v", p.Price)
		}
	}

	if _, err := ImportSeed(ctx, s, nil); err == nil {
		t.Fatal("nil seed must be rejected")
	}
}

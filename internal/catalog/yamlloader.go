package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/emiliovps/ventia/internal/interpret"
)

// SeedFile is the top-level structure of a catalog seed YAML file.
//
// Example:
//
//	shop:
//	  name: "Bodega San Martín"
//	  currency: "PEN"
//	products:
//	  - name: "Onigiris"
//	    price: 5.50
//	  - name: "Inca Kola 500ml"
//	    price: 3.00
//	    status: inactive
type SeedFile struct {
	Shop     ShopMeta  `yaml:"shop"`
	Products []Product `yaml:"products"`
}

// ShopMeta holds top-level metadata for a seed file.
type ShopMeta struct {
	// Name is the shop's display name.
	Name string `yaml:"name"`

	// Currency is the ISO 4217 code prices are denominated in.
	Currency string `yaml:"currency"`
}

// LoadSeedFile reads and parses a catalog seed YAML file from disk.
func LoadSeedFile(path string) (*SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open seed file %q: %w", path, err)
	}
	defer f.Close()

	sf, err := LoadSeedFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse seed file %q: %w", path, err)
	}
	return sf, nil
}

// LoadSeedFromReader parses seed YAML from an [io.Reader].
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadSeedFromReader(r io.Reader) (*SeedFile, error) {
	var sf SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("catalog: decode seed yaml: %w", err)
	}
	return &sf, nil
}

// ImportSeed upserts all products from a parsed [SeedFile] into store, so
// re-running the import refreshes prices instead of duplicating entries.
// Seed entries without an ID are matched against existing products by
// normalized name. Returns the number of products imported; an error from
// the store aborts the import and returns the count so far.
func ImportSeed(ctx context.Context, store Store, seed *SeedFile) (int, error) {
	if seed == nil {
		return 0, fmt.Errorf("catalog: seed must not be nil")
	}

	existing, err := store.List(ctx, ListOptions{})
	if err != nil {
		return 0, fmt.Errorf("catalog: import seed: list existing: %w", err)
	}
	byName := make(map[string]string, len(existing))
	for _, p := range existing {
		byName[p.NameNormalized] = p.ID
	}

	count := 0
	for _, p := range seed.Products {
		if p.ID == "" {
			p.ID = byName[interpret.Normalize(p.Name)]
		}
		if _, err := store.Upsert(ctx, p); err != nil {
			return count, fmt.Errorf("catalog: import seed at index %d (name %q): %w", count, p.Name, err)
		}
		count++
	}
	return count, nil
}

package sales

import (
	"context"
	"errors"
	"testing"
	"time"
)

func validSale(product string, date time.Time) Sale {
	return Sale{
		ProductID:     product,
		ProductName:   "Onigiris",
		Quantity:      2,
		UnitPrice:     5.5,
		Total:         11,
		PaymentMethod: "Yape",
		Date:          date,
	}
}

func TestMemStoreCreateGetDelete(t *testing.T) {
	t.Parallel()
	m := NewMemStore()
	ctx := context.Background()

	created, err := m.Create(ctx, validSale("p1", time.Now()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create must auto-generate an ID")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("CreatedAt must be set")
	}

	got, err := m.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Total != 11 || got.PaymentMethod != "Yape" {
		t.Fatalf("Get = %+v", got)
	}

	if err := m.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestMemStoreCreateValidates(t *testing.T) {
	t.Parallel()
	m := NewMemStore()
	ctx := context.Background()

	bad := validSale("", time.Now())
	if _, err := m.Create(ctx, bad); err == nil {
		t.Fatal("missing product_id must be rejected")
	}

	bad = validSale("p1", time.Now())
	bad.PaymentMethod = "Cheque"
	if _, err := m.Create(ctx, bad); err == nil {
		t.Fatal("unknown payment method must be rejected")
	}

	bad = validSale("p1", time.Now())
	bad.Quantity = 0
	if _, err := m.Create(ctx, bad); err == nil {
		t.Fatal("zero quantity must be rejected")
	}
}

func TestMemStoreList(t *testing.T) {
	t.Parallel()
	m := NewMemStore()
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	for i, product := range []string{"p1", "p1", "p2"} {
		s := validSale(product, base.AddDate(0, 0, i))
		if _, err := m.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := m.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List = %d sales, want 3", len(all))
	}
	if !all[0].Date.After(all[1].Date) || !all[1].Date.After(all[2].Date) {
		t.Fatalf("List must order newest first: %v, %v, %v", all[0].Date, all[1].Date, all[2].Date)
	}

	byProduct, err := m.List(ctx, ListOptions{ProductID: "p1"})
	if err != nil {
		t.Fatalf("List by product: %v", err)
	}
	if len(byProduct) != 2 {
		t.Fatalf("List by product = %d, want 2", len(byProduct))
	}

	window, err := m.List(ctx, ListOptions{From: base.AddDate(0, 0, 1), To: base.AddDate(0, 0, 2)})
	if err != nil {
		t.Fatalf("List window: %v", err)
	}
	if len(window) != 1 || !window[0].Date.Equal(base.AddDate(0, 0, 1)) {
		t.Fatalf("List window = %+v, want the middle sale only", window)
	}

	capped, err := m.List(ctx, ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List capped: %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("List capped = %d, want 2", len(capped))
	}
}

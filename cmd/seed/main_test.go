package main

import (
	"context"
	"testing"

	"github.com/vladislavdragonenkov/crm/internal/app"
)

func newMemoryDeps(t *testing.T) *app.Dependencies {
	t.Helper()

	deps, err := app.NewDependencies(context.Background(), app.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewDependencies failed: %v", err)
	}
	t.Cleanup(func() {
		_ = deps.Close()
	})
	return deps
}

func TestSeed_CreatesDemoData(t *testing.T) {
	deps := newMemoryDeps(t)

	report, err := seed(context.Background(), deps)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if report.Customers != len(seedCustomers) {
		t.Errorf("expected %d customers, got %d", len(seedCustomers), report.Customers)
	}
	if report.Products != len(seedProducts) {
		t.Errorf("expected %d products, got %d", len(seedProducts), report.Products)
	}
	if report.Orders != 1 {
		t.Errorf("expected 1 demo order, got %d", report.Orders)
	}

	orders, err := deps.Queries.Orders()
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order in store, got %d", len(orders))
	}

	products, err := deps.Queries.Products()
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	wantTotal := products[0].Price.Add(products[1].Price).StringFixed(2)
	if got := orders[0].TotalAmount.StringFixed(2); got != wantTotal {
		t.Errorf("expected demo order total %s, got %s", wantTotal, got)
	}
	if len(orders[0].ProductIDs) != 2 {
		t.Errorf("expected demo order with 2 products, got %d", len(orders[0].ProductIDs))
	}
}

func TestSeed_SecondRunIsIdempotent(t *testing.T) {
	deps := newMemoryDeps(t)

	if _, err := seed(context.Background(), deps); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}

	report, err := seed(context.Background(), deps)
	if err != nil {
		t.Fatalf("second seed failed: %v", err)
	}

	if report.Customers != 0 || report.Products != 0 || report.Orders != 0 {
		t.Errorf("second run must not create anything, got %+v", report)
	}

	customers, err := deps.Queries.Customers()
	if err != nil {
		t.Fatalf("list customers failed: %v", err)
	}
	if len(customers) != len(seedCustomers) {
		t.Errorf("expected %d customers after reseed, got %d", len(seedCustomers), len(customers))
	}
}

func TestIsDuplicateEmail(t *testing.T) {
	if !isDuplicateEmail([]string{"Email already exists"}) {
		t.Error("expected duplicate email to be detected")
	}
	if isDuplicateEmail([]string{"Name is required"}) {
		t.Error("validation error must not count as duplicate")
	}
	if isDuplicateEmail(nil) {
		t.Error("empty error list must not count as duplicate")
	}
}

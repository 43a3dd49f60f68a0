package yachtsql

import (
	"context"
	"testing"
)

func TestMemCatalogCreateAndGet(t *testing.T) {
	ctx := context.Background()
	cat := NewMemCatalog()

	schema := Schema{Fields: []Field{{Name: "id", Kind: KindInt64}}}
	if err := cat.CreateDataset(ctx, &Dataset{Name: "users", Kind: DatasetKindTable, Schema: schema}); err != nil {
		t.Fatalf("unexpected error creating dataset: %v", err)
	}

	ds, err := cat.GetDataset(ctx, "users")
	if err != nil {
		t.Fatalf("unexpected error fetching dataset: %v", err)
	}
	if ds.Name != "users" {
		t.Errorf("expected name 'users', got %s", ds.Name)
	}

	if _, err := cat.GetDataset(ctx, "missing"); !IsErrorKind(err, ErrorKindDatasetNotFound) {
		t.Errorf("expected DatasetNotFound error, got %v", err)
	}
}

func TestMemCatalogDuplicateCreate(t *testing.T) {
	ctx := context.Background()
	cat := NewMemCatalog()
	ds := &Dataset{Name: "t1", Kind: DatasetKindTable}
	if err := cat.CreateDataset(ctx, ds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cat.CreateDataset(ctx, ds); err == nil {
		t.Error("expected error creating duplicate dataset")
	}
}

func TestMemCatalogDropCascade(t *testing.T) {
	ctx := context.Background()
	cat := NewMemCatalog()

	if err := cat.CreateDataset(ctx, &Dataset{Name: "orders", Kind: DatasetKindTable}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cat.CreateDataset(ctx, &Dataset{Name: "order_summary", Kind: DatasetKindView, DependsOn: []string{"orders"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := cat.DropDataset(ctx, "orders", false); err == nil {
		t.Error("expected drop without CASCADE to fail closed when a dependent view exists")
	}

	if err := cat.DropDataset(ctx, "orders", true); err != nil {
		t.Fatalf("unexpected error dropping with cascade: %v", err)
	}

	if _, err := cat.GetDataset(ctx, "order_summary"); err == nil {
		t.Error("expected dependent view to be dropped by cascade")
	}
	if _, err := cat.GetDataset(ctx, "orders"); err == nil {
		t.Error("expected base table to be dropped")
	}
}

func TestMemCatalogListDatasets(t *testing.T) {
	ctx := context.Background()
	cat := NewMemCatalog()
	_ = cat.CreateDataset(ctx, &Dataset{Name: "a"})
	_ = cat.CreateDataset(ctx, &Dataset{Name: "b"})

	names, err := cat.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 datasets, got %d", len(names))
	}
}

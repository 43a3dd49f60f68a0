package yachtsql

import (
	"context"
	"fmt"
	"sync"
)

// DatasetKind distinguishes a base table from a view, generalizing the
// main-table/EAV storage split into catalog object kinds.
type DatasetKind string

const (
	DatasetKindTable    DatasetKind = "table"
	DatasetKindView     DatasetKind = "view"
	DatasetKindMatView  DatasetKind = "materialized_view"
)

// Dataset is a named, schema-bearing catalog entry: a table, view, or
// materialized view. ViewQuery is set (and Backend nil) for views; Backend is
// set for tables and materialized views.
type Dataset struct {
	Name      string
	Kind      DatasetKind
	Schema    Schema
	Backend   StorageBackend
	ViewQuery any // *logicalplan.LogicalPlan for a view's defining query
	DependsOn []string // names of datasets this view/matview reads from, for cascading drop checks
}

// Catalog is the schema registry generalizing the SchemaRegistry
// interface (GetSchemaAttributeCacheByName/ByID, ListSchemas) from a flat
// attribute cache into a full dataset catalog with create/drop and cascade
// checking.
type Catalog interface {
	GetDataset(ctx context.Context, name string) (*Dataset, error)
	CreateDataset(ctx context.Context, ds *Dataset) error
	DropDataset(ctx context.Context, name string, cascade bool) error
	ListDatasets(ctx context.Context) ([]string, error)
}

// memCatalog is an in-process Catalog implementation, the same role the
// in-memory schema cache played before FileSchemaRegistry.
type memCatalog struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
}

// NewMemCatalog constructs an empty in-memory Catalog.
func NewMemCatalog() Catalog {
	return &memCatalog{datasets: make(map[string]*Dataset)}
}

func (c *memCatalog) GetDataset(ctx context.Context, name string) (*Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.datasets[name]
	if !ok {
		return nil, NewDatasetNotFoundError(name)
	}
	return ds, nil
}

func (c *memCatalog) CreateDataset(ctx context.Context, ds *Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.datasets[ds.Name]; exists {
		return NewInvalidQueryError(ErrCodeInvariantBroken, fmt.Sprintf("dataset %q already exists", ds.Name))
	}
	c.datasets[ds.Name] = ds
	return nil
}

func (c *memCatalog) DropDataset(ctx context.Context, name string, cascade bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.datasets[name]; !ok {
		return NewDatasetNotFoundError(name)
	}

	dependents := c.dependentsOf(name)
	if len(dependents) > 0 {
		if !cascade {
			return NewInvalidQueryError("DEPENDENT_OBJECTS_EXIST",
				fmt.Sprintf("cannot drop %q: %d dependent view(s) exist, use CASCADE", name, len(dependents)))
		}
		for _, dep := range dependents {
			if err := c.dropLocked(dep, true); err != nil {
				return err
			}
		}
	}
	return c.dropLocked(name, false)
}

func (c *memCatalog) dropLocked(name string, alreadyChecked bool) error {
	deps := c.dependentsOf(name)
	if !alreadyChecked && len(deps) > 0 {
		return NewInvalidQueryError("DEPENDENT_OBJECTS_EXIST",
			fmt.Sprintf("cannot drop %q: dependent objects exist", name))
	}
	delete(c.datasets, name)
	if alreadyChecked {
		for _, dep := range deps {
			if err := c.dropLocked(dep, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *memCatalog) dependentsOf(name string) []string {
	var deps []string
	for _, ds := range c.datasets {
		for _, dep := range ds.DependsOn {
			if dep == name {
				deps = append(deps, ds.Name)
				break
			}
		}
	}
	return deps
}

func (c *memCatalog) ListDatasets(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.datasets))
	for name := range c.datasets {
		names = append(names, name)
	}
	return names, nil
}

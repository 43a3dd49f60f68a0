package ddl

import (
	"context"

	"github.com/yachtsql/yachtsql"
)

// CreateViewSpec describes a CREATE VIEW statement's payload. Query is the
// view's defining *logicalplan.LogicalPlan, stored as `any` the same way
// yachtsql.Dataset.ViewQuery does to avoid internal/ddl importing
// internal/logicalplan just for a type name.
type CreateViewSpec struct {
	Name        string
	Schema      yachtsql.Schema
	Query       any
	DependsOn   []string
	IfNotExists bool
}

// DropSpec describes a DROP TABLE/DROP VIEW statement's payload.
type DropSpec struct {
	Name    string
	Cascade bool
}

// CreateView registers a view Dataset, whose DependsOn list the catalog
// consults on DROP to enforce CASCADE semantics (yachtsql.Catalog.DropDataset
// walks dependents before dropping a base table or another view).
func CreateView(ctx context.Context, catalog yachtsql.Catalog, spec CreateViewSpec) error {
	if spec.IfNotExists {
		if _, err := catalog.GetDataset(ctx, spec.Name); err == nil {
			return nil
		}
	}
	ds := &yachtsql.Dataset{
		Name:      spec.Name,
		Kind:      yachtsql.DatasetKindView,
		Schema:    spec.Schema,
		ViewQuery: spec.Query,
		DependsOn: spec.DependsOn,
	}
	return catalog.CreateDataset(ctx, ds)
}

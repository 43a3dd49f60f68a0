package ddl

import (
	"context"

	"github.com/yachtsql/yachtsql"
)

// CreateTableSpec describes a CREATE TABLE statement's payload.
type CreateTableSpec struct {
	Name        string
	Schema      yachtsql.Schema
	Backend     yachtsql.StorageBackend
	IfNotExists bool
}

// CreateTable registers a new table Dataset in catalog after validating its
// Schema, grounded on internal/metadata_loader.go's load-then-register flow
// (parse a schema description, then hand it to the registry) generalized
// from JSON-Schema documents to yachtsql.Schema.
func CreateTable(ctx context.Context, catalog yachtsql.Catalog, spec CreateTableSpec) error {
	if err := ValidateSchema(spec.Schema); err != nil {
		return err
	}
	if spec.IfNotExists {
		if _, err := catalog.GetDataset(ctx, spec.Name); err == nil {
			return nil
		}
	}
	ds := &yachtsql.Dataset{
		Name:    spec.Name,
		Kind:    yachtsql.DatasetKindTable,
		Schema:  spec.Schema,
		Backend: spec.Backend,
	}
	return catalog.CreateDataset(ctx, ds)
}

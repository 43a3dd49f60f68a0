package ddl

import (
	"context"
	"fmt"

	"github.com/yachtsql/yachtsql"
)

// CreateIndexSpec describes a CREATE INDEX statement's payload.
type CreateIndexSpec struct {
	Table   string
	Index   yachtsql.IndexMetadata
	IfNotExists bool
}

// DropIndexSpec describes a DROP INDEX statement's payload.
type DropIndexSpec struct {
	Table string
	Name  string
}

// CreateIndex appends an IndexMetadata entry to the named table's Schema
// after checking its columns exist. Only the metadata is recorded: no index
// structure is built, and internal/physicalplan does not read it.
// Grounded on the same schema-rewrite-in-place idiom as AlterTable.
func CreateIndex(ctx context.Context, catalog yachtsql.Catalog, spec CreateIndexSpec) error {
	ds, err := catalog.GetDataset(ctx, spec.Table)
	if err != nil {
		return err
	}
	for _, idx := range ds.Schema.Indexes {
		if idx.Name == spec.Index.Name {
			if spec.IfNotExists {
				return nil
			}
			return yachtsql.NewInvalidQueryError("DUPLICATE_INDEX", fmt.Sprintf("index %q already exists", spec.Index.Name))
		}
	}
	for _, col := range spec.Index.Columns {
		if ds.Schema.FieldIndex(col) < 0 {
			return yachtsql.NewColumnNotFoundError(col)
		}
	}
	ds.Schema.Indexes = append(ds.Schema.Indexes, spec.Index)
	return nil
}

// DropIndex removes an IndexMetadata entry by name.
func DropIndex(ctx context.Context, catalog yachtsql.Catalog, spec DropIndexSpec) error {
	ds, err := catalog.GetDataset(ctx, spec.Table)
	if err != nil {
		return err
	}
	out := ds.Schema.Indexes[:0]
	found := false
	for _, idx := range ds.Schema.Indexes {
		if idx.Name == spec.Name {
			found = true
			continue
		}
		out = append(out, idx)
	}
	if !found {
		return yachtsql.NewInvalidQueryError("INDEX_NOT_FOUND", fmt.Sprintf("index %q not found on table %q", spec.Name, spec.Table))
	}
	ds.Schema.Indexes = out
	return nil
}

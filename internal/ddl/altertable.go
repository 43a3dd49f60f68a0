package ddl

import (
	"context"
	"fmt"

	"github.com/yachtsql/yachtsql"
)

// AlterTableOp tags the concrete ALTER TABLE sub-operation.
type AlterTableOp string

const (
	AlterAddColumn       AlterTableOp = "add_column"
	AlterDropColumn      AlterTableOp = "drop_column"
	AlterRenameColumn    AlterTableOp = "rename_column"
	AlterAddConstraint   AlterTableOp = "add_constraint"
	AlterDropConstraint  AlterTableOp = "drop_constraint"
)

// AlterTableSpec describes one ALTER TABLE statement's payload.
type AlterTableSpec struct {
	Table      string
	Op         AlterTableOp
	Column     yachtsql.Field  // AddColumn
	ColumnName string          // DropColumn / RenameColumn (old name)
	NewName    string          // RenameColumn
	Constraint yachtsql.Constraint // AddConstraint / DropConstraint (by Name)
}

// AlterTable mutates the named table's Schema in catalog, validating any new
// constraint against the table's existing rows first.
// Grounded on internal/relation_index.go's schema-rewrite-in-place pattern
// (loadSchemaRelations rebuilds a RelationDescriptor set from an updated
// JSON Schema document), generalized to direct Schema field/constraint
// mutation instead of re-parsing a document.
func AlterTable(ctx context.Context, catalog yachtsql.Catalog, spec AlterTableSpec) error {
	ds, err := catalog.GetDataset(ctx, spec.Table)
	if err != nil {
		return err
	}

	var rows []yachtsql.Record
	if ds.Backend != nil {
		rows, err = snapshotRows(ctx, ds.Backend)
		if err != nil {
			return err
		}
	}

	switch spec.Op {
	case AlterAddColumn:
		if _, ok := ds.Schema.Field(spec.Column.Name); ok {
			return yachtsql.NewInvalidQueryError("DUPLICATE_COLUMN", fmt.Sprintf("column %q already exists", spec.Column.Name))
		}
		if !spec.Column.Nullable && len(rows) > 0 {
			return yachtsql.NewConstraintViolationError(yachtsql.ConstraintKindNotNull,
				fmt.Sprintf("cannot add NOT NULL column %q to a non-empty table without a default", spec.Column.Name))
		}
		ds.Schema.Fields = append(ds.Schema.Fields, spec.Column)
	case AlterDropColumn:
		idx := ds.Schema.FieldIndex(spec.ColumnName)
		if idx < 0 {
			return yachtsql.NewColumnNotFoundError(spec.ColumnName)
		}
		ds.Schema.Fields = append(ds.Schema.Fields[:idx], ds.Schema.Fields[idx+1:]...)
	case AlterRenameColumn:
		idx := ds.Schema.FieldIndex(spec.ColumnName)
		if idx < 0 {
			return yachtsql.NewColumnNotFoundError(spec.ColumnName)
		}
		ds.Schema.Fields[idx].Name = spec.NewName
	case AlterAddConstraint:
		if err := ValidateConstraintAgainstRows(ds.Schema, spec.Constraint, rows); err != nil {
			return err
		}
		ds.Schema.Constraints = append(ds.Schema.Constraints, spec.Constraint)
	case AlterDropConstraint:
		out := ds.Schema.Constraints[:0]
		for _, c := range ds.Schema.Constraints {
			if c.Name != spec.Constraint.Name {
				out = append(out, c)
			}
		}
		ds.Schema.Constraints = out
	default:
		return yachtsql.NewUnsupportedFeatureError("ALTER TABLE operation " + string(spec.Op))
	}
	return nil
}

// snapshotRows drains backend's full scan, used only to validate a new
// constraint against already-stored rows.
func snapshotRows(ctx context.Context, backend yachtsql.StorageBackend) ([]yachtsql.Record, error) {
	it, err := backend.Scan(ctx, yachtsql.ScanOptions{})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rows []yachtsql.Record
	for {
		batch, err := it.Next(ctx)
		if err != nil {
			if err == yachtsql.ErrIteratorDone {
				break
			}
			return nil, err
		}
		rows = append(rows, batch.Rows...)
	}
	return rows, nil
}

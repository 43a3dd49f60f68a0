package exec

import (
	"context"

	"github.com/yachtsql/yachtsql"
)

// ScanOperator pulls rows from a yachtsql.StorageBackend via its
// RowIterator, the execution-side counterpart of a NodeScan logical plan
// node.
type ScanOperator struct {
	schema yachtsql.Schema
	it     yachtsql.RowIterator
}

// NewScan opens a scan against backend with the given projection/predicate
// options and returns an Operator over it.
func NewScan(ctx context.Context, backend yachtsql.StorageBackend, opts yachtsql.ScanOptions) (*ScanOperator, error) {
	it, err := backend.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}
	schema := backend.TableSchema()
	if len(opts.Columns) > 0 {
		schema = projectSchema(schema, opts.Columns)
	}
	return &ScanOperator{schema: schema, it: it}, nil
}

func (s *ScanOperator) Schema() yachtsql.Schema { return s.schema }

func (s *ScanOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	return s.it.Next(ctx)
}

func (s *ScanOperator) Close() error { return s.it.Close() }

// projectSchema narrows schema to the named columns, in the order given.
func projectSchema(schema yachtsql.Schema, columns []string) yachtsql.Schema {
	fields := make([]yachtsql.Field, 0, len(columns))
	for _, name := range columns {
		if f, ok := schema.Field(name); ok {
			fields = append(fields, f)
		}
	}
	return yachtsql.Schema{Fields: fields}
}

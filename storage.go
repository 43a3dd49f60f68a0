package yachtsql

import (
	"context"
)

// RowBatch is a columnar batch of rows sharing a Schema, the unit a
// StorageBackend streams through Scan and the unit operators in
// internal/exec consume and produce.
type RowBatch struct {
	Schema Schema
	Rows   []Record
}

// Len reports the number of rows in the batch.
func (b RowBatch) Len() int { return len(b.Rows) }

// ScanOptions narrows a Scan to a column projection and row predicate the
// storage backend can push down, mirroring the AttributeCatalog /
// StorageTables split between main-column and EAV storage targets.
type ScanOptions struct {
	Columns   []string
	Predicate Expr
	Limit     int
}

// StorageBackend is the pluggable storage trait every table-producing
// component (the catalog's base tables, CTE materializations, storage
// adapters) implements. internal/storageadapter provides concrete Postgres
// and DuckDB-backed implementations; the in-memory Table implements it
// directly for base tables and intermediate results.
type StorageBackend interface {
	// Scan streams batches of the table's rows, applying ScanOptions as a
	// pushdown hint (backends that cannot push a predicate down may ignore
	// it; the evaluator re-applies filters regardless).
	Scan(ctx context.Context, opts ScanOptions) (RowIterator, error)

	// Insert appends rows to the backend's table.
	Insert(ctx context.Context, rows []Record) error

	// Update applies a row-level mutation function to rows matching pred.
	Update(ctx context.Context, pred Expr, mutate func(Record) (Record, error)) (int64, error)

	// Delete removes rows matching pred, returning the count removed.
	Delete(ctx context.Context, pred Expr) (int64, error)

	// TableSchema returns the backend's declared Schema.
	TableSchema() Schema
}

// RowIterator is a pull-based cursor over RowBatch results, closed by the
// caller once exhausted or abandoned.
type RowIterator interface {
	Next(ctx context.Context) (RowBatch, error) // returns ErrIteratorDone when exhausted
	Close() error
}

// ErrIteratorDone signals RowIterator exhaustion; operators check for it with
// errors.Is rather than a sentinel nil-batch convention.
var ErrIteratorDone = &YachtError{Kind: ErrorKindInternal, Code: "ITERATOR_DONE", Message: "row iterator exhausted"}

// Package exec implements the physical execution operators a PhysicalPlan
// compiles to: each logical/physical plan node becomes an Operator that
// pulls rows from its children on demand. This is new infrastructure with
// no direct analog in a codebase that delegates all execution to
// Postgres/DuckDB via generated SQL (internal/queryoptimizer,
// internal/duckdb_sql_generator.go) rather than running a Volcano-style
// pull engine itself — so operators are grounded on the general
// Go idiom (constructor functions, context-aware blocking calls, error
// wrapping) rather than on any single file's logic.
package exec

import (
	"context"

	"github.com/yachtsql/yachtsql"
)

// Operator is the pull-based execution interface every physical node
// implements: repeated calls to Next return one row batch at a time until
// io.EOF-equivalent yachtsql.ErrIteratorDone.
type Operator interface {
	// Schema returns the operator's output schema, known before execution
	// starts (the binder/optimizer already resolved it on the logical plan).
	Schema() yachtsql.Schema
	// Next returns the next batch of output rows, or yachtsql.ErrIteratorDone
	// once exhausted.
	Next(ctx context.Context) (yachtsql.RowBatch, error)
	// Close releases any resources (open iterators, worker goroutines).
	Close() error
}

// defaultBatchSize matches the root package's tableIterator batch size
// (defaultScanBatchSize in table_backend.go). No operator in this package
// reads it; each emits batches of whatever size its input or its
// materialization produces.
const defaultBatchSize = 1024

// Run drains an operator fully into a single in-memory slice of records.
func Run(ctx context.Context, op Operator) ([]yachtsql.Record, error) {
	var out []yachtsql.Record
	for {
		batch, err := op.Next(ctx)
		if err == yachtsql.ErrIteratorDone {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, batch.Rows...)
	}
}

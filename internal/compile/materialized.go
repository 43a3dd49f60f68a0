package compile

import (
	"context"

	"github.com/yachtsql/yachtsql"
)

// materializedOperator serves a fixed, already-computed row slice as a
// single batch, the glue a VALUES clause or a window-function stage (both
// of which compute their full output up front rather than streaming it)
// needs to re-enter the pull-based Operator chain, mirroring
// internal/exec.ScanOperator's single-iterator Next/Close shape but backed
// by an in-memory slice instead of a yachtsql.RowIterator.
type materializedOperator struct {
	schema yachtsql.Schema
	rows   []yachtsql.Record
	served bool
}

func newMaterializedOperator(schema yachtsql.Schema, rows []yachtsql.Record) *materializedOperator {
	return &materializedOperator{schema: schema, rows: rows}
}

func (m *materializedOperator) Schema() yachtsql.Schema { return m.schema }

func (m *materializedOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if m.served {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	m.served = true
	return yachtsql.RowBatch{Schema: m.schema, Rows: m.rows}, nil
}

func (m *materializedOperator) Close() error { return nil }

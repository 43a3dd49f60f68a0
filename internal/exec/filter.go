package exec

import (
	"context"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
)

// FilterOperator evaluates a predicate against each row from its child,
// passing through only rows where the predicate is true (SQL three-valued
// logic: null and false are both excluded).
type FilterOperator struct {
	child     Operator
	predicate yachtsql.Expr
	evaluator *eval.Evaluator
}

// NewFilter wraps child with a row predicate.
func NewFilter(child Operator, predicate yachtsql.Expr, evaluator *eval.Evaluator) *FilterOperator {
	return &FilterOperator{child: child, predicate: predicate, evaluator: evaluator}
}

func (f *FilterOperator) Schema() yachtsql.Schema { return f.child.Schema() }

func (f *FilterOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	for {
		batch, err := f.child.Next(ctx)
		if err != nil {
			return yachtsql.RowBatch{}, err
		}
		schema := f.child.Schema()
		kept := make([]yachtsql.Record, 0, len(batch.Rows))
		for _, row := range batch.Rows {
			v, err := f.evaluator.Eval(f.predicate, eval.RecordRow{Schema: schema, Record: row})
			if err != nil {
				return yachtsql.RowBatch{}, err
			}
			if b, ok := v.AsBool(); ok && b {
				kept = append(kept, row)
			}
		}
		if len(kept) == 0 {
			continue
		}
		return yachtsql.RowBatch{Schema: batch.Schema, Rows: kept}, nil
	}
}

func (f *FilterOperator) Close() error { return f.child.Close() }

package exec

import (
	"context"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
)

// ProjectOperator evaluates a list of expressions against each input row,
// producing a new row of exprs' results per input row.
type ProjectOperator struct {
	child     Operator
	exprs     []yachtsql.Expr
	schema    yachtsql.Schema
	evaluator *eval.Evaluator
}

// NewProject wraps child with a column projection.
func NewProject(child Operator, exprs []yachtsql.Expr, schema yachtsql.Schema, evaluator *eval.Evaluator) *ProjectOperator {
	return &ProjectOperator{child: child, exprs: exprs, schema: schema, evaluator: evaluator}
}

func (p *ProjectOperator) Schema() yachtsql.Schema { return p.schema }

func (p *ProjectOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	batch, err := p.child.Next(ctx)
	if err != nil {
		return yachtsql.RowBatch{}, err
	}
	inSchema := p.child.Schema()
	outRows := make([]yachtsql.Record, len(batch.Rows))
	for i, row := range batch.Rows {
		values := make([]yachtsql.Value, len(p.exprs))
		rr := eval.RecordRow{Schema: inSchema, Record: row}
		for j, e := range p.exprs {
			v, err := p.evaluator.Eval(e, rr)
			if err != nil {
				return yachtsql.RowBatch{}, err
			}
			values[j] = v
		}
		outRows[i] = yachtsql.Record{Values: values}
	}
	return yachtsql.RowBatch{Schema: p.schema, Rows: outRows}, nil
}

func (p *ProjectOperator) Close() error { return p.child.Close() }

package exec

import (
	"context"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
)

// UnnestOperator expands an array-valued expression into one output row per
// array element, appended to the original row (an UNNEST(...) AS alias
// lateral join), new relational behavior the EAV model never
// needed since it had no array-typed attribute storage.
type UnnestOperator struct {
	child     Operator
	arrayExpr yachtsql.Expr
	schema    yachtsql.Schema
	evaluator *eval.Evaluator
}

func NewUnnest(child Operator, arrayExpr yachtsql.Expr, schema yachtsql.Schema, evaluator *eval.Evaluator) *UnnestOperator {
	return &UnnestOperator{child: child, arrayExpr: arrayExpr, schema: schema, evaluator: evaluator}
}

func (u *UnnestOperator) Schema() yachtsql.Schema { return u.schema }

func (u *UnnestOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	batch, err := u.child.Next(ctx)
	if err != nil {
		return yachtsql.RowBatch{}, err
	}
	inSchema := u.child.Schema()
	var out []yachtsql.Record
	for _, row := range batch.Rows {
		v, err := u.evaluator.Eval(u.arrayExpr, eval.RecordRow{Schema: inSchema, Record: row})
		if err != nil {
			return yachtsql.RowBatch{}, err
		}
		elems, _ := v.AsArray()
		for _, elem := range elems {
			values := append(append([]yachtsql.Value{}, row.Values...), elem)
			out = append(out, yachtsql.Record{Values: values})
		}
	}
	if len(out) == 0 {
		return u.Next(ctx)
	}
	return yachtsql.RowBatch{Schema: u.schema, Rows: out}, nil
}

func (u *UnnestOperator) Close() error { return u.child.Close() }

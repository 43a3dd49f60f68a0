package exec

import (
	"context"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

// NestedLoopJoinOperator evaluates an arbitrary join condition (not
// necessarily an equality) by comparing every left row against every right
// row, physicalplan.chooseJoinStrategy's JoinStrategyNestedLoop fallback for
// non-equi join conditions.
type NestedLoopJoinOperator struct {
	left, right Operator
	joinType    logicalplan.JoinType
	cond        yachtsql.Expr
	schema      yachtsql.Schema
	evaluator   *eval.Evaluator

	done bool
}

func NewNestedLoopJoin(left, right Operator, joinType logicalplan.JoinType, cond yachtsql.Expr, schema yachtsql.Schema, evaluator *eval.Evaluator) *NestedLoopJoinOperator {
	return &NestedLoopJoinOperator{left: left, right: right, joinType: joinType, cond: cond, schema: schema, evaluator: evaluator}
}

func (n *NestedLoopJoinOperator) Schema() yachtsql.Schema { return n.schema }

func (n *NestedLoopJoinOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if n.done {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	n.done = true

	leftRows, err := Run(ctx, n.left)
	if err != nil {
		return yachtsql.RowBatch{}, err
	}
	rightRows, err := Run(ctx, n.right)
	if err != nil {
		return yachtsql.RowBatch{}, err
	}
	leftSchema := n.left.Schema()
	rightSchema := n.right.Schema()
	combinedSchema := leftSchema.Concat(rightSchema)

	var out []yachtsql.Record
	for _, leftRow := range leftRows {
		matchedAny := false
		for _, rightRow := range rightRows {
			combined := combineRow(leftRow, rightRow)
			if n.cond == nil {
				out = append(out, combined)
				matchedAny = true
				continue
			}
			v, err := n.evaluator.Eval(n.cond, eval.RecordRow{Schema: combinedSchema, Record: combined})
			if err != nil {
				return yachtsql.RowBatch{}, err
			}
			if b, ok := v.AsBool(); ok && b {
				out = append(out, combined)
				matchedAny = true
			}
		}
		if !matchedAny && (n.joinType == logicalplan.JoinLeft || n.joinType == logicalplan.JoinFull) {
			out = append(out, combineRow(leftRow, nullRow(len(rightSchema.Fields))))
		}
	}

	if len(out) == 0 {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	return yachtsql.RowBatch{Schema: n.schema, Rows: out}, nil
}

func (n *NestedLoopJoinOperator) Close() error {
	if err := n.left.Close(); err != nil {
		return err
	}
	return n.right.Close()
}

package exec

import (
	"context"
	"strings"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

// HashJoinOperator builds a hash table over the right (build) side keyed by
// its equi-join columns, then probes it once per left (probe) row,
// physicalplan.chooseJoinStrategy's JoinStrategyHash choice realized.
type HashJoinOperator struct {
	left, right Operator
	joinType    logicalplan.JoinType
	leftKeys    []yachtsql.Expr
	rightKeys   []yachtsql.Expr
	schema      yachtsql.Schema
	evaluator   *eval.Evaluator

	built       bool
	buckets     map[string][]yachtsql.Record
	leftDone    bool
	rightSchema yachtsql.Schema
	leftSchema  yachtsql.Schema
}

func NewHashJoin(left, right Operator, joinType logicalplan.JoinType, leftKeys, rightKeys []yachtsql.Expr, schema yachtsql.Schema, evaluator *eval.Evaluator) *HashJoinOperator {
	return &HashJoinOperator{left: left, right: right, joinType: joinType, leftKeys: leftKeys, rightKeys: rightKeys, schema: schema, evaluator: evaluator}
}

func (h *HashJoinOperator) Schema() yachtsql.Schema { return h.schema }

func (h *HashJoinOperator) build(ctx context.Context) error {
	h.rightSchema = h.right.Schema()
	h.leftSchema = h.left.Schema()
	h.buckets = map[string][]yachtsql.Record{}
	rows, err := Run(ctx, h.right)
	if err != nil {
		return err
	}
	for _, row := range rows {
		key, err := h.keyFor(h.rightKeys, h.rightSchema, row)
		if err != nil {
			return err
		}
		h.buckets[key] = append(h.buckets[key], row)
	}
	h.built = true
	return nil
}

func (h *HashJoinOperator) keyFor(keys []yachtsql.Expr, schema yachtsql.Schema, row yachtsql.Record) (string, error) {
	rr := eval.RecordRow{Schema: schema, Record: row}
	var parts []string
	for _, k := range keys {
		v, err := h.evaluator.Eval(k, rr)
		if err != nil {
			return "", err
		}
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "\x1f"), nil
}

// Next drains the full join result as one batch; a streaming probe-per-call
// implementation is deferred until the executor needs to pipeline joins
// across operators rather than materialize between them.
func (h *HashJoinOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if h.leftDone {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	h.leftDone = true

	if !h.built {
		if err := h.build(ctx); err != nil {
			return yachtsql.RowBatch{}, err
		}
	}

	leftRows, err := Run(ctx, h.left)
	if err != nil {
		return yachtsql.RowBatch{}, err
	}

	var out []yachtsql.Record
	for _, leftRow := range leftRows {
		key, err := h.keyFor(h.leftKeys, h.leftSchema, leftRow)
		if err != nil {
			return yachtsql.RowBatch{}, err
		}
		matches := h.buckets[key]
		if len(matches) == 0 {
			if h.joinType == logicalplan.JoinLeft || h.joinType == logicalplan.JoinFull {
				out = append(out, combineRow(leftRow, nullRow(len(h.rightSchema.Fields))))
			}
			continue
		}
		for _, rightRow := range matches {
			out = append(out, combineRow(leftRow, rightRow))
		}
	}

	if len(out) == 0 {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	return yachtsql.RowBatch{Schema: h.schema, Rows: out}, nil
}

func combineRow(left, right yachtsql.Record) yachtsql.Record {
	values := make([]yachtsql.Value, 0, len(left.Values)+len(right.Values))
	values = append(values, left.Values...)
	values = append(values, right.Values...)
	return yachtsql.Record{Values: values}
}

func nullRow(n int) yachtsql.Record {
	values := make([]yachtsql.Value, n)
	for i := range values {
		values[i] = yachtsql.NullValue()
	}
	return yachtsql.Record{Values: values}
}

func (h *HashJoinOperator) Close() error {
	if err := h.left.Close(); err != nil {
		return err
	}
	return h.right.Close()
}

package exec

import (
	"context"

	"github.com/yachtsql/yachtsql"
)

// CrossJoinOperator emits the Cartesian product of left and right, used
// for explicit CROSS JOIN and as the unconditional fallback when a join
// has no condition at all.
type CrossJoinOperator struct {
	left, right Operator
	schema      yachtsql.Schema
	done        bool
}

func NewCrossJoin(left, right Operator, schema yachtsql.Schema) *CrossJoinOperator {
	return &CrossJoinOperator{left: left, right: right, schema: schema}
}

func (c *CrossJoinOperator) Schema() yachtsql.Schema { return c.schema }

func (c *CrossJoinOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if c.done {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	c.done = true

	leftRows, err := Run(ctx, c.left)
	if err != nil {
		return yachtsql.RowBatch{}, err
	}
	rightRows, err := Run(ctx, c.right)
	if err != nil {
		return yachtsql.RowBatch{}, err
	}

	out := make([]yachtsql.Record, 0, len(leftRows)*len(rightRows))
	for _, l := range leftRows {
		for _, r := range rightRows {
			out = append(out, combineRow(l, r))
		}
	}
	if len(out) == 0 {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	return yachtsql.RowBatch{Schema: c.schema, Rows: out}, nil
}

func (c *CrossJoinOperator) Close() error {
	if err := c.left.Close(); err != nil {
		return err
	}
	return c.right.Close()
}

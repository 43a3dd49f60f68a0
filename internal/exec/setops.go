package exec

import (
	"context"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

// SetOpOperator implements UNION [ALL]/INTERSECT/EXCEPT over two inputs of
// matching schema, the relational generalization of the
// CompositeCondition.ToSqlClauses choice between SQL INTERSECT (AND) and
// UNION (OR) clauses — here realized as an executable operator rather than
// SQL text, and extended to the full set-operator family (EXCEPT, and an
// ALL variant that skips deduplication).
type SetOpOperator struct {
	left, right Operator
	op          logicalplan.SetOpKind
	done        bool
}

func NewSetOp(left, right Operator, op logicalplan.SetOpKind) *SetOpOperator {
	return &SetOpOperator{left: left, right: right, op: op}
}

func (s *SetOpOperator) Schema() yachtsql.Schema { return s.left.Schema() }

func (s *SetOpOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if s.done {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	s.done = true

	leftRows, err := Run(ctx, s.left)
	if err != nil {
		return yachtsql.RowBatch{}, err
	}
	rightRows, err := Run(ctx, s.right)
	if err != nil {
		return yachtsql.RowBatch{}, err
	}

	rightKeys := map[string]int{}
	for _, r := range rightRows {
		rightKeys[rowKey(r)]++
	}

	var out []yachtsql.Record
	switch s.op {
	case logicalplan.SetOpUnionAll:
		out = append(append(out, leftRows...), rightRows...)
	case logicalplan.SetOpUnion:
		seen := map[string]struct{}{}
		for _, r := range append(append([]yachtsql.Record{}, leftRows...), rightRows...) {
			k := rowKey(r)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, r)
		}
	case logicalplan.SetOpIntersect:
		seen := map[string]struct{}{}
		for _, r := range leftRows {
			k := rowKey(r)
			if _, ok := seen[k]; ok {
				continue
			}
			if rightKeys[k] > 0 {
				seen[k] = struct{}{}
				out = append(out, r)
			}
		}
	case logicalplan.SetOpExcept:
		seen := map[string]struct{}{}
		for _, r := range leftRows {
			k := rowKey(r)
			if _, ok := seen[k]; ok {
				continue
			}
			if rightKeys[k] == 0 {
				seen[k] = struct{}{}
				out = append(out, r)
			}
		}
	}

	if len(out) == 0 {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	return yachtsql.RowBatch{Schema: s.Schema(), Rows: out}, nil
}

func (s *SetOpOperator) Close() error {
	if err := s.left.Close(); err != nil {
		return err
	}
	return s.right.Close()
}

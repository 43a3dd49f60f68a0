package exec

import (
	"context"
	"sort"

	"github.com/yachtsql/yachtsql"
)

// SortOperator materializes its child's full output once and emits it in a
// single batch ordered by keys. When LimitCount is non-negative (a
// sort-limit-to-topn fusion from internal/optimizer), only the top
// LimitCount rows past LimitOffset are retained; the full input is still
// sorted before slicing, no bounded heap is kept.
type SortOperator struct {
	child      Operator
	keys       []yachtsql.SortExpr
	limitCount int64
	limitOff   int64

	materialized bool
	rows         []yachtsql.Record
	served       bool
}

// NewSort builds an unbounded sort operator.
func NewSort(child Operator, keys []yachtsql.SortExpr) *SortOperator {
	return &SortOperator{child: child, keys: keys, limitCount: -1}
}

// NewTopN builds a sort operator fused with a LIMIT/OFFSET.
func NewTopN(child Operator, keys []yachtsql.SortExpr, count, offset int64) *SortOperator {
	return &SortOperator{child: child, keys: keys, limitCount: count, limitOff: offset}
}

func (s *SortOperator) Schema() yachtsql.Schema { return s.child.Schema() }

func (s *SortOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if !s.materialized {
		if err := s.materialize(ctx); err != nil {
			return yachtsql.RowBatch{}, err
		}
	}
	if s.served {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	s.served = true
	if len(s.rows) == 0 {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	return yachtsql.RowBatch{Schema: s.Schema(), Rows: s.rows}, nil
}

func (s *SortOperator) materialize(ctx context.Context) error {
	schema := s.child.Schema()
	all, err := Run(ctx, s.child)
	if err != nil {
		return err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return lessByKeys(all[i], all[j], schema, s.keys)
	})
	if s.limitCount >= 0 {
		start := int(s.limitOff)
		if start > len(all) {
			start = len(all)
		}
		end := start + int(s.limitCount)
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}
	s.rows = all
	s.materialized = true
	return nil
}

func lessByKeys(a, b yachtsql.Record, schema yachtsql.Schema, keys []yachtsql.SortExpr) bool {
	for _, key := range keys {
		idx := schema.FieldIndex(sortKeyColumnName(key))
		if idx < 0 {
			continue
		}
		av, bv := a.Get(idx), b.Get(idx)
		nullsLow := key.Nulls == yachtsql.NullsFirst
		if key.Dir == yachtsql.SortDesc {
			nullsLow = key.Nulls == yachtsql.NullsLast
		}
		cmp, err := yachtsql.Compare(av, bv, nullsLow)
		if err != nil || cmp == 0 {
			continue
		}
		if key.Dir == yachtsql.SortDesc {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

func sortKeyColumnName(key yachtsql.SortExpr) string {
	if col, ok := key.Expr.(yachtsql.ColumnRef); ok {
		return col.Column
	}
	return ""
}

func (s *SortOperator) Close() error { return s.child.Close() }

package exec

import (
	"context"

	"github.com/yachtsql/yachtsql"
)

// LimitOperator caps total output rows at count, skipping the first offset.
// A negative count means unbounded (OFFSET with no LIMIT).
type LimitOperator struct {
	child    Operator
	count    int64
	offset   int64
	skipped  int64
	emitted  int64
	done     bool
}

func NewLimit(child Operator, count, offset int64) *LimitOperator {
	return &LimitOperator{child: child, count: count, offset: offset}
}

func (l *LimitOperator) Schema() yachtsql.Schema { return l.child.Schema() }

func (l *LimitOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if l.done {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	for {
		if l.count >= 0 && l.emitted >= l.count {
			l.done = true
			return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
		}
		batch, err := l.child.Next(ctx)
		if err != nil {
			l.done = true
			return yachtsql.RowBatch{}, err
		}
		var kept []yachtsql.Record
		for _, row := range batch.Rows {
			if l.skipped < l.offset {
				l.skipped++
				continue
			}
			if l.count >= 0 && l.emitted >= l.count {
				break
			}
			kept = append(kept, row)
			l.emitted++
		}
		if len(kept) == 0 {
			continue
		}
		return yachtsql.RowBatch{Schema: batch.Schema, Rows: kept}, nil
	}
}

func (l *LimitOperator) Close() error { return l.child.Close() }

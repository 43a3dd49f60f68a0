package exec

import (
	"context"
	"strings"

	"github.com/yachtsql/yachtsql"
)

// DistinctOperator removes duplicate rows (by value equality across all
// columns), the physical realization of NodeDistinct and of UNION's
// (non-ALL) dedup step.
type DistinctOperator struct {
	child Operator
	seen  map[string]struct{}
	done  bool
}

func NewDistinct(child Operator) *DistinctOperator {
	return &DistinctOperator{child: child, seen: map[string]struct{}{}}
}

func (d *DistinctOperator) Schema() yachtsql.Schema { return d.child.Schema() }

func (d *DistinctOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if d.done {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	for {
		batch, err := d.child.Next(ctx)
		if err != nil {
			d.done = true
			return yachtsql.RowBatch{}, err
		}
		var kept []yachtsql.Record
		for _, row := range batch.Rows {
			key := rowKey(row)
			if _, ok := d.seen[key]; ok {
				continue
			}
			d.seen[key] = struct{}{}
			kept = append(kept, row)
		}
		if len(kept) == 0 {
			continue
		}
		return yachtsql.RowBatch{Schema: batch.Schema, Rows: kept}, nil
	}
}

func rowKey(row yachtsql.Record) string {
	parts := make([]string, len(row.Values))
	for i, v := range row.Values {
		parts[i] = v.String()
	}
	return strings.Join(parts, "\x1f")
}

func (d *DistinctOperator) Close() error { return d.child.Close() }

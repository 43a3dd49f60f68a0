package window

import (
	"fmt"
	"strings"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
)

// computeValue dispatches call.Name to the ranking, offset, or aggregate
// family. frameIdx is the resolved window frame for the current row (sorted
// index positions into the partition); sorted/pos locate the current row
// within its ordered partition for ranking/offset functions that need
// relative position rather than a frame.
func (e *Engine) computeValue(call yachtsql.WindowCall, sorted []int, pos int, frameIdx []int, rows []yachtsql.Record, schema yachtsql.Schema) (yachtsql.Value, error) {
	name := strings.ToLower(call.Name)
	switch name {
	case "row_number":
		return yachtsql.Int64Value(int64(pos + 1)), nil
	case "rank":
		return yachtsql.Int64Value(int64(rankAt(sorted, pos, rows, schema, call.Frame.OrderBy, false))), nil
	case "dense_rank":
		return yachtsql.Int64Value(int64(rankAt(sorted, pos, rows, schema, call.Frame.OrderBy, true))), nil
	case "percent_rank":
		if len(sorted) <= 1 {
			return yachtsql.Float64Value(0), nil
		}
		r := rankAt(sorted, pos, rows, schema, call.Frame.OrderBy, false)
		return yachtsql.Float64Value(float64(r-1) / float64(len(sorted)-1)), nil
	case "cume_dist":
		r := rankAt(sorted, pos, rows, schema, call.Frame.OrderBy, false)
		return yachtsql.Float64Value(float64(r) / float64(len(sorted))), nil
	case "ntile":
		buckets, err := e.argInt(call, 0, rows[sorted[pos]], schema)
		if err != nil {
			return yachtsql.Value{}, err
		}
		return yachtsql.Int64Value(ntile(pos, len(sorted), buckets)), nil
	case "lag", "lead":
		return e.offsetValue(call, sorted, pos, rows, schema, name == "lead")
	case "first_value":
		if len(frameIdx) == 0 {
			return yachtsql.NullValue(), nil
		}
		return e.argValue(call, 0, rows[frameIdx[0]], schema)
	case "last_value":
		if len(frameIdx) == 0 {
			return yachtsql.NullValue(), nil
		}
		return e.argValue(call, 0, rows[frameIdx[len(frameIdx)-1]], schema)
	case "nth_value":
		n, err := e.argInt(call, 1, rows[sorted[pos]], schema)
		if err != nil {
			return yachtsql.Value{}, err
		}
		if n < 1 || n > len(frameIdx) {
			return yachtsql.NullValue(), nil
		}
		return e.argValue(call, 0, rows[frameIdx[n-1]], schema)
	default:
		return e.aggregateOverFrame(call, frameIdx, rows, schema)
	}
}

func rankAt(sorted []int, pos int, rows []yachtsql.Record, schema yachtsql.Schema, orderBy []yachtsql.SortExpr, dense bool) int {
	if len(orderBy) == 0 {
		return pos + 1
	}
	rank := 1
	distinctSeen := 0
	for i := 0; i < pos; i++ {
		if rowsEqualByOrder(rows[sorted[i]], rows[sorted[i+1]], schema, orderBy) {
			continue
		}
		distinctSeen++
		if !dense {
			rank = i + 2
		} else {
			rank = distinctSeen + 1
		}
	}
	return rank
}

func rowsEqualByOrder(a, b yachtsql.Record, schema yachtsql.Schema, orderBy []yachtsql.SortExpr) bool {
	for _, key := range orderBy {
		colName := ""
		if col, ok := key.Expr.(yachtsql.ColumnRef); ok {
			colName = col.Column
		}
		idx := schema.FieldIndex(colName)
		if idx < 0 {
			continue
		}
		cmp, err := yachtsql.Compare(a.Get(idx), b.Get(idx), false)
		if err != nil || cmp != 0 {
			return false
		}
	}
	return true
}

func ntile(pos, n, buckets int) int64 {
	if buckets <= 0 {
		return 1
	}
	base := n / buckets
	rem := n % buckets
	boundary := 0
	for b := 1; b <= buckets; b++ {
		size := base
		if b <= rem {
			size++
		}
		boundary += size
		if pos < boundary {
			return int64(b)
		}
	}
	return int64(buckets)
}

func (e *Engine) offsetValue(call yachtsql.WindowCall, sorted []int, pos int, rows []yachtsql.Record, schema yachtsql.Schema, lead bool) (yachtsql.Value, error) {
	offset := 1
	if len(call.Args) > 1 {
		n, err := e.argInt(call, 1, rows[sorted[pos]], schema)
		if err != nil {
			return yachtsql.Value{}, err
		}
		offset = n
	}
	target := pos - offset
	if lead {
		target = pos + offset
	}
	if target < 0 || target >= len(sorted) {
		if len(call.Args) > 2 {
			return e.argValue(call, 2, rows[sorted[pos]], schema)
		}
		return yachtsql.NullValue(), nil
	}
	return e.argValue(call, 0, rows[sorted[target]], schema)
}

func (e *Engine) aggregateOverFrame(call yachtsql.WindowCall, frameIdx []int, rows []yachtsql.Record, schema yachtsql.Schema) (yachtsql.Value, error) {
	acc, err := eval.NewAccumulator(call.Name)
	if err != nil {
		return yachtsql.Value{}, err
	}
	for _, idx := range frameIdx {
		args := make([]yachtsql.Value, len(call.Args))
		rr := eval.RecordRow{Schema: schema, Record: rows[idx]}
		for i, a := range call.Args {
			v, err := e.evaluator.Eval(a, rr)
			if err != nil {
				return yachtsql.Value{}, err
			}
			args[i] = v
		}
		if err := acc.Step(args); err != nil {
			return yachtsql.Value{}, err
		}
	}
	return acc.Result()
}

func (e *Engine) argValue(call yachtsql.WindowCall, i int, row yachtsql.Record, schema yachtsql.Schema) (yachtsql.Value, error) {
	if i >= len(call.Args) {
		return yachtsql.NullValue(), nil
	}
	return e.evaluator.Eval(call.Args[i], eval.RecordRow{Schema: schema, Record: row})
}

func (e *Engine) argInt(call yachtsql.WindowCall, i int, row yachtsql.Record, schema yachtsql.Schema) (int, error) {
	v, err := e.argValue(call, i, row, schema)
	if err != nil {
		return 0, err
	}
	n, ok := v.AsInt64()
	if !ok {
		return 0, fmt.Errorf("window: argument %d must be an integer", i)
	}
	return int(n), nil
}

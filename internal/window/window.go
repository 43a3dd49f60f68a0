// Package window implements SQL window function evaluation: partitioning,
// ordering, ROWS/RANGE/GROUPS frame bounds, and the ranking/offset/
// aggregate function families. This is new functionality with no analog
// for windowed computation over an EAV result set; it is grounded on the
// general evaluator-state idioms (internal/eval's Accumulator, itself
// grounded on the queryBuilder incremental-state pattern) rather than any
// single window-specific file.
package window

import (
	"fmt"
	"strings"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
)

// Engine evaluates one WindowCall across a materialized partition+order set
// of rows, producing one output Value per input row.
type Engine struct {
	evaluator *eval.Evaluator
}

func New(evaluator *eval.Evaluator) *Engine {
	return &Engine{evaluator: evaluator}
}

// Evaluate computes call's result for every row in rows (already ordered
// arbitrarily; Evaluate partitions and sorts internally) against schema,
// returning one Value per input row in the same order as rows.
func (e *Engine) Evaluate(call yachtsql.WindowCall, rows []yachtsql.Record, schema yachtsql.Schema) ([]yachtsql.Value, error) {
	partitions, order := e.partition(call.Frame, rows, schema)
	out := make([]yachtsql.Value, len(rows))

	for _, idxGroup := range partitions {
		sorted := append([]int{}, idxGroup...)
		sortIndices(sorted, rows, schema, call.Frame.OrderBy, e.evaluator)

		for pos, rowIdx := range sorted {
			frameIdx, err := e.frameIndices(call.Frame, sorted, pos, rows, schema)
			if err != nil {
				return nil, err
			}
			v, err := e.computeValue(call, sorted, pos, frameIdx, rows, schema)
			if err != nil {
				return nil, err
			}
			out[rowIdx] = v
		}
	}
	_ = order
	return out, nil
}

// partition groups row indices by PartitionBy expression equality,
// returning groups in first-seen order; when no PartitionBy is given, all
// rows form a single partition.
func (e *Engine) partition(frame yachtsql.WindowFrame, rows []yachtsql.Record, schema yachtsql.Schema) ([][]int, []string) {
	if len(frame.PartitionBy) == 0 {
		all := make([]int, len(rows))
		for i := range rows {
			all[i] = i
		}
		return [][]int{all}, nil
	}
	groups := map[string][]int{}
	var order []string
	for i, row := range rows {
		rr := eval.RecordRow{Schema: schema, Record: row}
		var parts []string
		for _, p := range frame.PartitionBy {
			v, err := e.evaluator.Eval(p, rr)
			if err != nil {
				v = yachtsql.NullValue()
			}
			parts = append(parts, v.String())
		}
		key := strings.Join(parts, "\x1f")
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	result := make([][]int, len(order))
	for i, key := range order {
		result[i] = groups[key]
	}
	return result, order
}

func sortIndices(idx []int, rows []yachtsql.Record, schema yachtsql.Schema, orderBy []yachtsql.SortExpr, evaluator *eval.Evaluator) {
	if len(orderBy) == 0 {
		return
	}
	less := func(i, j int) bool {
		for _, key := range orderBy {
			colName := ""
			if col, ok := key.Expr.(yachtsql.ColumnRef); ok {
				colName = col.Column
			}
			fi := schema.FieldIndex(colName)
			if fi < 0 {
				continue
			}
			av, bv := rows[idx[i]].Get(fi), rows[idx[j]].Get(fi)
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
	insertionSort(idx, less)
}

func insertionSort(idx []int, less func(i, j int) bool) {
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
}

// boundResolver resolves one FrameBound to a sorted-position index. pos and
// n are the current row's position and the partition size; isStart tells
// BoundCurrentRow whether it anchors the frame's start or end (the two
// differ under RANGE/GROUPS, where CURRENT ROW means the current peer
// group's first or last row rather than pos itself).
type boundResolver func(bound yachtsql.FrameBound, pos, n int, isStart bool) (int, error)

// frameIndices resolves the Start/End bounds for the row at pos within the
// partition's sorted index list, defaulting to the SQL-standard implicit
// frame (RANGE UNBOUNDED PRECEDING .. CURRENT ROW when ORDER BY is present,
// otherwise the whole partition). frame.Unit selects ROWS (plain offset
// arithmetic), RANGE (value-distance framing along a single numeric ORDER
// BY key), or GROUPS (peer-group-offset framing); frame.Exclude then trims
// the current row, its peer group, or its ties out of the resolved set.
func (e *Engine) frameIndices(frame yachtsql.WindowFrame, sorted []int, pos int, rows []yachtsql.Record, schema yachtsql.Schema) ([]int, error) {
	start, end := 0, len(sorted)-1
	if frame.Start == nil && frame.End == nil {
		if len(frame.OrderBy) > 0 {
			end = peerGroupEnd(sorted, pos, rows, schema, frame.OrderBy)
		}
		return e.applyExclude(frame, sorted, rows, schema, pos, positionsOf(start, end, len(sorted))), nil
	}

	var resolve boundResolver
	switch frame.Unit {
	case yachtsql.FrameRange:
		resolve = func(bound yachtsql.FrameBound, pos, n int, isStart bool) (int, error) {
			return e.resolveRangeBound(bound, pos, sorted, rows, schema, frame.OrderBy, isStart)
		}
	case yachtsql.FrameGroups:
		resolve = func(bound yachtsql.FrameBound, pos, n int, isStart bool) (int, error) {
			return e.resolveGroupsBound(bound, pos, sorted, rows, schema, frame.OrderBy, isStart)
		}
	case yachtsql.FrameRows, "":
		resolve = resolveRowsBound
	default:
		return nil, yachtsql.NewUnsupportedFeatureError(fmt.Sprintf("window frame unit %q", frame.Unit))
	}

	if frame.Start != nil {
		s, err := resolve(*frame.Start, pos, len(sorted), true)
		if err != nil {
			return nil, err
		}
		start = s
	}
	if frame.End != nil {
		en, err := resolve(*frame.End, pos, len(sorted), false)
		if err != nil {
			return nil, err
		}
		end = en
	} else if len(frame.OrderBy) > 0 {
		end = pos
	}
	return e.applyExclude(frame, sorted, rows, schema, pos, positionsOf(start, end, len(sorted))), nil
}

func resolveRowsBound(bound yachtsql.FrameBound, pos, n int, isStart bool) (int, error) {
	switch bound.Kind {
	case yachtsql.BoundUnboundedPreceding:
		return 0, nil
	case yachtsql.BoundUnboundedFollowing:
		return n - 1, nil
	case yachtsql.BoundCurrentRow:
		return pos, nil
	case yachtsql.BoundPreceding:
		offset, err := literalOffset(bound.Offset)
		if err != nil {
			return 0, err
		}
		return pos - offset, nil
	case yachtsql.BoundFollowing:
		offset, err := literalOffset(bound.Offset)
		if err != nil {
			return 0, err
		}
		return pos + offset, nil
	default:
		return 0, fmt.Errorf("window: unsupported frame bound kind %s", bound.Kind)
	}
}

// resolveRangeBound resolves a RANGE bound by value distance along the
// single numeric ORDER BY key, rather than row count. Scanning strictly
// backward (for a PRECEDING bound) or forward (for a FOLLOWING bound) from
// pos keeps the comparison sign-agnostic: monotonicity of the sort
// guarantees every value visited in that direction lies on the same side of
// curVal, so the frame extends exactly as far as |delta| <= offset holds,
// whether the ORDER BY key is ascending or descending.
func (e *Engine) resolveRangeBound(bound yachtsql.FrameBound, pos int, sorted []int, rows []yachtsql.Record, schema yachtsql.Schema, orderBy []yachtsql.SortExpr, isStart bool) (int, error) {
	switch bound.Kind {
	case yachtsql.BoundUnboundedPreceding:
		return 0, nil
	case yachtsql.BoundUnboundedFollowing:
		return len(sorted) - 1, nil
	case yachtsql.BoundCurrentRow:
		if isStart {
			return peerGroupStart(sorted, pos, rows, schema, orderBy), nil
		}
		return peerGroupEnd(sorted, pos, rows, schema, orderBy), nil
	case yachtsql.BoundPreceding:
		offset, err := literalOffset(bound.Offset)
		if err != nil {
			return 0, err
		}
		curVal, ok := rangeOrderValue(rows, schema, orderBy, sorted[pos])
		if !ok {
			return 0, yachtsql.NewUnsupportedFeatureError("RANGE frame requires a single numeric ORDER BY key")
		}
		i := pos
		for i > 0 {
			v, ok := rangeOrderValue(rows, schema, orderBy, sorted[i-1])
			if !ok || absFloat(v-curVal) > float64(offset) {
				break
			}
			i--
		}
		return i, nil
	case yachtsql.BoundFollowing:
		offset, err := literalOffset(bound.Offset)
		if err != nil {
			return 0, err
		}
		curVal, ok := rangeOrderValue(rows, schema, orderBy, sorted[pos])
		if !ok {
			return 0, yachtsql.NewUnsupportedFeatureError("RANGE frame requires a single numeric ORDER BY key")
		}
		i := pos
		for i < len(sorted)-1 {
			v, ok := rangeOrderValue(rows, schema, orderBy, sorted[i+1])
			if !ok || absFloat(v-curVal) > float64(offset) {
				break
			}
			i++
		}
		return i, nil
	default:
		return 0, fmt.Errorf("window: unsupported frame bound kind %s", bound.Kind)
	}
}

// resolveGroupsBound resolves a GROUPS bound by counting peer groups
// (rows sharing the same ORDER BY key values) rather than rows.
func (e *Engine) resolveGroupsBound(bound yachtsql.FrameBound, pos int, sorted []int, rows []yachtsql.Record, schema yachtsql.Schema, orderBy []yachtsql.SortExpr, isStart bool) (int, error) {
	switch bound.Kind {
	case yachtsql.BoundUnboundedPreceding:
		return 0, nil
	case yachtsql.BoundUnboundedFollowing:
		return len(sorted) - 1, nil
	case yachtsql.BoundCurrentRow:
		if isStart {
			return peerGroupStart(sorted, pos, rows, schema, orderBy), nil
		}
		return peerGroupEnd(sorted, pos, rows, schema, orderBy), nil
	case yachtsql.BoundPreceding:
		offset, err := literalOffset(bound.Offset)
		if err != nil {
			return 0, err
		}
		i := peerGroupStart(sorted, pos, rows, schema, orderBy)
		for g := 0; g < offset && i > 0; g++ {
			i = peerGroupStart(sorted, i-1, rows, schema, orderBy)
		}
		return i, nil
	case yachtsql.BoundFollowing:
		offset, err := literalOffset(bound.Offset)
		if err != nil {
			return 0, err
		}
		i := peerGroupEnd(sorted, pos, rows, schema, orderBy)
		for g := 0; g < offset && i < len(sorted)-1; g++ {
			i = peerGroupEnd(sorted, i+1, rows, schema, orderBy)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("window: unsupported frame bound kind %s", bound.Kind)
	}
}

// peerGroupStart/peerGroupEnd find the first/last sorted position sharing
// pos's ORDER BY key values, the peer group CURRENT ROW resolves to under
// RANGE/GROUPS and EXCLUDE GROUP/TIES trim around.
func peerGroupStart(sorted []int, pos int, rows []yachtsql.Record, schema yachtsql.Schema, orderBy []yachtsql.SortExpr) int {
	i := pos
	for i > 0 && rowsEqualByOrder(rows[sorted[i-1]], rows[sorted[i]], schema, orderBy) {
		i--
	}
	return i
}

func peerGroupEnd(sorted []int, pos int, rows []yachtsql.Record, schema yachtsql.Schema, orderBy []yachtsql.SortExpr) int {
	i := pos
	for i < len(sorted)-1 && rowsEqualByOrder(rows[sorted[i]], rows[sorted[i+1]], schema, orderBy) {
		i++
	}
	return i
}

func rangeOrderValue(rows []yachtsql.Record, schema yachtsql.Schema, orderBy []yachtsql.SortExpr, rowIdx int) (float64, bool) {
	if len(orderBy) != 1 {
		return 0, false
	}
	col, ok := orderBy[0].Expr.(yachtsql.ColumnRef)
	if !ok {
		return 0, false
	}
	idx := schema.FieldIndex(col.Column)
	if idx < 0 {
		return 0, false
	}
	v := rows[rowIdx].Get(idx)
	if f, ok := v.AsFloat64(); ok {
		return f, true
	}
	if i, ok := v.AsInt64(); ok {
		return float64(i), true
	}
	return 0, false
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func literalOffset(e yachtsql.Expr) (int, error) {
	lit, ok := e.(yachtsql.Literal)
	if !ok {
		return 0, fmt.Errorf("window: frame offset must be a literal")
	}
	i, ok := lit.Value.AsInt64()
	if !ok {
		return 0, fmt.Errorf("window: frame offset must be an integer")
	}
	return int(i), nil
}

// positionsOf clamps [start, end] to the partition bounds and returns the
// enclosed sorted positions.
func positionsOf(start, end, n int) []int {
	if start < 0 {
		start = 0
	}
	if end > n-1 {
		end = n - 1
	}
	if start > end {
		return nil
	}
	positions := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		positions = append(positions, i)
	}
	return positions
}

// applyExclude maps resolved sorted positions to row indices, dropping the
// current row (ExcludeCurrentRow), its whole peer group (ExcludeGroup), or
// its peer group other than itself (ExcludeTies) along the way.
func (e *Engine) applyExclude(frame yachtsql.WindowFrame, sorted []int, rows []yachtsql.Record, schema yachtsql.Schema, pos int, positions []int) []int {
	out := make([]int, 0, len(positions))
	switch frame.Exclude {
	case yachtsql.ExcludeCurrentRow:
		for _, p := range positions {
			if p != pos {
				out = append(out, sorted[p])
			}
		}
	case yachtsql.ExcludeGroup:
		lo := peerGroupStart(sorted, pos, rows, schema, frame.OrderBy)
		hi := peerGroupEnd(sorted, pos, rows, schema, frame.OrderBy)
		for _, p := range positions {
			if p < lo || p > hi {
				out = append(out, sorted[p])
			}
		}
	case yachtsql.ExcludeTies:
		lo := peerGroupStart(sorted, pos, rows, schema, frame.OrderBy)
		hi := peerGroupEnd(sorted, pos, rows, schema, frame.OrderBy)
		for _, p := range positions {
			if p == pos || p < lo || p > hi {
				out = append(out, sorted[p])
			}
		}
	default:
		for _, p := range positions {
			out = append(out, sorted[p])
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

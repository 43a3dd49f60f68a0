package window

import (
	"testing"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
)

func windowTestSchema() yachtsql.Schema {
	return yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "dept", Kind: yachtsql.KindString},
		{Name: "salary", Kind: yachtsql.KindInt64},
	}}
}

func windowTestRows() []yachtsql.Record {
	return []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.StringValue("eng"), yachtsql.Int64Value(100)}},
		{Values: []yachtsql.Value{yachtsql.StringValue("eng"), yachtsql.Int64Value(300)}},
		{Values: []yachtsql.Value{yachtsql.StringValue("eng"), yachtsql.Int64Value(200)}},
		{Values: []yachtsql.Value{yachtsql.StringValue("sales"), yachtsql.Int64Value(50)}},
	}
}

func TestRowNumberPerPartition(t *testing.T) {
	schema := windowTestSchema()
	rows := windowTestRows()
	e := New(eval.New(nil))

	call := yachtsql.WindowCall{
		Name: "row_number",
		Frame: yachtsql.WindowFrame{
			PartitionBy: []yachtsql.Expr{yachtsql.ColumnRef{Column: "dept"}},
			OrderBy:     []yachtsql.SortExpr{{Expr: yachtsql.ColumnRef{Column: "salary"}}},
		},
	}
	out, err := e.Evaluate(call, rows, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := out[3].AsInt64(); n != 1 {
		t.Errorf("expected sales row to be row_number 1 within its own partition, got %d", n)
	}
	n0, _ := out[0].AsInt64()
	n1, _ := out[1].AsInt64()
	n2, _ := out[2].AsInt64()
	if n0 != 1 || n2 != 2 || n1 != 3 {
		t.Errorf("expected eng rows ordered by salary asc to get row numbers 1,3,2 for rows 0,1,2; got %d,%d,%d", n0, n1, n2)
	}
}

func TestRankWithTies(t *testing.T) {
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "score", Kind: yachtsql.KindInt64}}}
	rows := []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.Int64Value(10)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(10)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(20)}},
	}
	e := New(eval.New(nil))
	call := yachtsql.WindowCall{
		Name: "rank",
		Frame: yachtsql.WindowFrame{
			OrderBy: []yachtsql.SortExpr{{Expr: yachtsql.ColumnRef{Column: "score"}}},
		},
	}
	out, err := e.Evaluate(call, rows, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r0, _ := out[0].AsInt64()
	r1, _ := out[1].AsInt64()
	r2, _ := out[2].AsInt64()
	if r0 != 1 || r1 != 1 || r2 != 3 {
		t.Errorf("expected ranks 1,1,3 for tied-then-distinct scores, got %d,%d,%d", r0, r1, r2)
	}
}

func TestSumOverUnboundedFrame(t *testing.T) {
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "amount", Kind: yachtsql.KindInt64}}}
	rows := []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.Int64Value(1)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(2)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(3)}},
	}
	e := New(eval.New(nil))
	unboundedStart := yachtsql.FrameBound{Kind: yachtsql.BoundUnboundedPreceding}
	unboundedEnd := yachtsql.FrameBound{Kind: yachtsql.BoundUnboundedFollowing}
	call := yachtsql.WindowCall{
		Name: "sum",
		Args: []yachtsql.Expr{yachtsql.ColumnRef{Column: "amount"}},
		Frame: yachtsql.WindowFrame{
			Start: &unboundedStart,
			End:   &unboundedEnd,
		},
	}
	out, err := e.Evaluate(call, rows, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range out {
		total, _ := v.AsFloat64()
		if total != 6 {
			t.Errorf("row %d: expected total sum 6 across the whole partition, got %v", i, total)
		}
	}
}

func TestSumOverRangeFrame(t *testing.T) {
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "x", Kind: yachtsql.KindInt64}}}
	rows := []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.Int64Value(1)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(2)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(4)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(10)}},
	}
	e := New(eval.New(nil))
	preceding2 := yachtsql.FrameBound{Kind: yachtsql.BoundPreceding, Offset: yachtsql.Literal{Value: yachtsql.Int64Value(2)}}
	current := yachtsql.FrameBound{Kind: yachtsql.BoundCurrentRow}
	call := yachtsql.WindowCall{
		Name: "sum",
		Args: []yachtsql.Expr{yachtsql.ColumnRef{Column: "x"}},
		Frame: yachtsql.WindowFrame{
			OrderBy: []yachtsql.SortExpr{{Expr: yachtsql.ColumnRef{Column: "x"}}},
			Unit:    yachtsql.FrameRange,
			Start:   &preceding2,
			End:     &current,
		},
	}
	out, err := e.Evaluate(call, rows, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// RANGE 2 PRECEDING at x=4 includes rows with x in [2,4]: 2 and 4, sum 6.
	total, _ := out[2].AsFloat64()
	if total != 6 {
		t.Errorf("expected RANGE 2 PRECEDING at x=4 to sum to 6 (rows with x in [2,4]), got %v", total)
	}
	// At x=10 nothing else is within 2, so the frame is just the current row.
	total, _ = out[3].AsFloat64()
	if total != 10 {
		t.Errorf("expected RANGE 2 PRECEDING at x=10 to sum to 10 (no peers within range), got %v", total)
	}
}

func TestSumOverGroupsFrame(t *testing.T) {
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "x", Kind: yachtsql.KindInt64}}}
	rows := []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.Int64Value(1)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(1)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(2)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(3)}},
	}
	e := New(eval.New(nil))
	preceding1 := yachtsql.FrameBound{Kind: yachtsql.BoundPreceding, Offset: yachtsql.Literal{Value: yachtsql.Int64Value(1)}}
	current := yachtsql.FrameBound{Kind: yachtsql.BoundCurrentRow}
	call := yachtsql.WindowCall{
		Name: "sum",
		Args: []yachtsql.Expr{yachtsql.ColumnRef{Column: "x"}},
		Frame: yachtsql.WindowFrame{
			OrderBy: []yachtsql.SortExpr{{Expr: yachtsql.ColumnRef{Column: "x"}}},
			Unit:    yachtsql.FrameGroups,
			Start:   &preceding1,
			End:     &current,
		},
	}
	out, err := e.Evaluate(call, rows, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Row x=2 is its own group; GROUPS 1 PRECEDING pulls in the x=1 group too.
	total, _ := out[2].AsFloat64()
	if total != 4 {
		t.Errorf("expected GROUPS 1 PRECEDING at x=2 to include the x=1 peer group, sum 4, got %v", total)
	}
}

func TestExcludeCurrentRow(t *testing.T) {
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "x", Kind: yachtsql.KindInt64}}}
	rows := []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.Int64Value(1)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(2)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(3)}},
	}
	e := New(eval.New(nil))
	unboundedStart := yachtsql.FrameBound{Kind: yachtsql.BoundUnboundedPreceding}
	unboundedEnd := yachtsql.FrameBound{Kind: yachtsql.BoundUnboundedFollowing}
	call := yachtsql.WindowCall{
		Name: "sum",
		Args: []yachtsql.Expr{yachtsql.ColumnRef{Column: "x"}},
		Frame: yachtsql.WindowFrame{
			Start:   &unboundedStart,
			End:     &unboundedEnd,
			Exclude: yachtsql.ExcludeCurrentRow,
		},
	}
	out, err := e.Evaluate(call, rows, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total, _ := out[1].AsFloat64()
	if total != 4 {
		t.Errorf("expected EXCLUDE CURRENT ROW to drop row 1 (value 2) from the sum, leaving 1+3=4, got %v", total)
	}
}

func TestUnsupportedFrameUnitRejected(t *testing.T) {
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "x", Kind: yachtsql.KindInt64}}}
	rows := []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.Int64Value(1)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(2)}},
	}
	e := New(eval.New(nil))
	preceding1 := yachtsql.FrameBound{Kind: yachtsql.BoundPreceding, Offset: yachtsql.Literal{Value: yachtsql.Int64Value(1)}}
	current := yachtsql.FrameBound{Kind: yachtsql.BoundCurrentRow}
	call := yachtsql.WindowCall{
		Name: "sum",
		Args: []yachtsql.Expr{yachtsql.ColumnRef{Column: "x"}},
		Frame: yachtsql.WindowFrame{
			OrderBy: []yachtsql.SortExpr{{Expr: yachtsql.ColumnRef{Column: "x"}}},
			Unit:    yachtsql.FrameUnit("bogus"),
			Start:   &preceding1,
			End:     &current,
		},
	}
	_, err := e.Evaluate(call, rows, schema)
	if err == nil {
		t.Fatalf("expected an error for an unrecognized frame unit")
	}
	if !yachtsql.IsErrorKind(err, yachtsql.ErrorKindUnsupportedFeature) {
		t.Errorf("expected ErrorKindUnsupportedFeature, got %v", err)
	}
}

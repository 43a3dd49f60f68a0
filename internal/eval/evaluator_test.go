package eval

import (
	"testing"

	"github.com/yachtsql/yachtsql"
)

type mapRow map[string]yachtsql.Value

func (m mapRow) Column(table, name string) (yachtsql.Value, bool) {
	v, ok := m[name]
	return v, ok
}

func TestEvalBinaryComparison(t *testing.T) {
	e := New(nil)
	row := mapRow{"age": yachtsql.Int64Value(21)}
	expr := yachtsql.BinaryOp{Op: yachtsql.OpGt, Left: yachtsql.ColumnRef{Column: "age"}, Right: yachtsql.Literal{Value: yachtsql.Int64Value(18)}}
	v, err := e.Eval(expr, row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := v.AsBool()
	if !b {
		t.Error("expected 21 > 18 to be true")
	}
}

func TestEvalAndWithNullPropagation(t *testing.T) {
	e := New(nil)
	row := mapRow{}
	expr := yachtsql.AndExpr{Operands: []yachtsql.Expr{
		yachtsql.Literal{Value: yachtsql.BoolValue(true)},
		yachtsql.Literal{Value: yachtsql.NullValue()},
	}}
	v, err := e.Eval(expr, row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsNull() {
		t.Error("expected true AND null to be null")
	}

	expr2 := yachtsql.AndExpr{Operands: []yachtsql.Expr{
		yachtsql.Literal{Value: yachtsql.BoolValue(false)},
		yachtsql.Literal{Value: yachtsql.NullValue()},
	}}
	v2, err := e.Eval(expr2, row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := v2.AsBool(); !ok || b {
		t.Error("expected false AND null to be false")
	}
}

func TestEvalLike(t *testing.T) {
	e := New(nil)
	row := mapRow{"name": yachtsql.StringValue("alice")}
	expr := yachtsql.BinaryOp{Op: yachtsql.OpLike, Left: yachtsql.ColumnRef{Column: "name"}, Right: yachtsql.Literal{Value: yachtsql.StringValue("al%")}}
	v, err := e.Eval(expr, row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, _ := v.AsBool(); !b {
		t.Error("expected 'alice' LIKE 'al%%' to match")
	}
}

func TestEvalBetween(t *testing.T) {
	e := New(nil)
	row := mapRow{"x": yachtsql.Int64Value(5)}
	expr := yachtsql.BetweenExpr{
		Operand: yachtsql.ColumnRef{Column: "x"},
		Low:     yachtsql.Literal{Value: yachtsql.Int64Value(1)},
		High:    yachtsql.Literal{Value: yachtsql.Int64Value(10)},
	}
	v, err := e.Eval(expr, row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, _ := v.AsBool(); !b {
		t.Error("expected 5 BETWEEN 1 AND 10 to be true")
	}
}

func TestSumAccumulator(t *testing.T) {
	acc, err := NewAccumulator("sum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, n := range []int64{1, 2, 3} {
		if err := acc.Step([]yachtsql.Value{yachtsql.Int64Value(n)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	result, err := acc.Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, _ := result.AsFloat64()
	if f != 6 {
		t.Errorf("expected sum 6, got %v", f)
	}
}

func TestCountDistinctAccumulator(t *testing.T) {
	acc, _ := NewAccumulator("count_distinct")
	for _, s := range []string{"a", "b", "a", "c"} {
		if err := acc.Step([]yachtsql.Value{yachtsql.StringValue(s)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	result, _ := acc.Result()
	n, _ := result.AsInt64()
	if n != 3 {
		t.Errorf("expected 3 distinct values, got %d", n)
	}
}

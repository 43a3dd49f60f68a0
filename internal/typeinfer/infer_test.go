package typeinfer

import (
	"testing"

	"github.com/yachtsql/yachtsql"
)

func infTestSchema() yachtsql.Schema {
	return yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "id", Kind: yachtsql.KindInt64},
		{Name: "price", Kind: yachtsql.KindFloat64},
		{Name: "name", Kind: yachtsql.KindString},
	}}
}

func TestInferColumnAndLiteral(t *testing.T) {
	schema := infTestSchema()
	k, err := Infer(yachtsql.ColumnRef{Column: "id"}, schema, nil)
	if err != nil || k != yachtsql.KindInt64 {
		t.Fatalf("expected int64, got %v err %v", k, err)
	}
	k, err = Infer(yachtsql.Literal{Value: yachtsql.StringValue("x")}, schema, nil)
	if err != nil || k != yachtsql.KindString {
		t.Fatalf("expected string, got %v err %v", k, err)
	}
}

func TestInferArithmeticWidensToFloat(t *testing.T) {
	schema := infTestSchema()
	expr := yachtsql.BinaryOp{
		Op:    yachtsql.OpAdd,
		Left:  yachtsql.ColumnRef{Column: "id"},
		Right: yachtsql.ColumnRef{Column: "price"},
	}
	k, err := Infer(expr, schema, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k != yachtsql.KindFloat64 {
		t.Errorf("expected int64+float64 to widen to float64, got %v", k)
	}
}

func TestInferComparisonIsBool(t *testing.T) {
	schema := infTestSchema()
	expr := yachtsql.BinaryOp{
		Op:    yachtsql.OpGt,
		Left:  yachtsql.ColumnRef{Column: "price"},
		Right: yachtsql.Literal{Value: yachtsql.Float64Value(1)},
	}
	k, err := Infer(expr, schema, nil)
	if err != nil || k != yachtsql.KindBool {
		t.Fatalf("expected bool, got %v err %v", k, err)
	}
}

func TestInferAggregateCountIsInt64(t *testing.T) {
	schema := infTestSchema()
	expr := yachtsql.AggregateFunc{Name: "count", Args: []yachtsql.Expr{yachtsql.ColumnRef{Column: "id"}}}
	k, err := Infer(expr, schema, nil)
	if err != nil || k != yachtsql.KindInt64 {
		t.Fatalf("expected int64, got %v err %v", k, err)
	}
}

func TestInferUnknownColumnErrors(t *testing.T) {
	schema := infTestSchema()
	_, err := Infer(yachtsql.ColumnRef{Column: "nope"}, schema, nil)
	if err == nil {
		t.Fatal("expected an error for an unresolved column")
	}
}

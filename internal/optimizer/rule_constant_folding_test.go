package optimizer

import (
	"testing"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

func TestFoldExprArithmetic(t *testing.T) {
	expr := yachtsql.BinaryOp{
		Op:    yachtsql.OpAdd,
		Left:  yachtsql.Literal{Value: yachtsql.Int64Value(2)},
		Right: yachtsql.Literal{Value: yachtsql.Int64Value(3)},
	}
	folded, ok := foldExpr(expr)
	if !ok {
		t.Fatalf("expected fold to fire")
	}
	lit, ok := folded.(yachtsql.Literal)
	if !ok {
		t.Fatalf("expected a literal result, got %T", folded)
	}
	f, _ := lit.Value.AsFloat64()
	if f != 5 {
		t.Errorf("expected 5, got %v", f)
	}
}

func TestFoldExprAndShortCircuit(t *testing.T) {
	col := yachtsql.ColumnRef{Column: "x"}
	and := yachtsql.AndExpr{Operands: []yachtsql.Expr{
		yachtsql.Literal{Value: yachtsql.BoolValue(true)},
		col,
	}}
	folded, ok := foldExpr(and)
	if !ok {
		t.Fatalf("expected fold to fire")
	}
	if _, isCol := folded.(yachtsql.ColumnRef); !isCol {
		t.Fatalf("expected true AND x to collapse to x, got %T", folded)
	}

	andFalse := yachtsql.AndExpr{Operands: []yachtsql.Expr{
		yachtsql.Literal{Value: yachtsql.BoolValue(false)},
		col,
	}}
	folded, ok = foldExpr(andFalse)
	if !ok {
		t.Fatalf("expected fold to fire")
	}
	lit, ok := folded.(yachtsql.Literal)
	if !ok {
		t.Fatalf("expected a literal result, got %T", folded)
	}
	b, _ := lit.Value.AsBool()
	if b {
		t.Errorf("expected false AND x to collapse to false")
	}
}

func TestFoldExprOrShortCircuit(t *testing.T) {
	col := yachtsql.ColumnRef{Column: "x"}
	or := yachtsql.OrExpr{Operands: []yachtsql.Expr{
		yachtsql.Literal{Value: yachtsql.BoolValue(false)},
		col,
	}}
	folded, ok := foldExpr(or)
	if !ok {
		t.Fatalf("expected fold to fire")
	}
	if _, isCol := folded.(yachtsql.ColumnRef); !isCol {
		t.Fatalf("expected false OR x to collapse to x, got %T", folded)
	}

	orTrue := yachtsql.OrExpr{Operands: []yachtsql.Expr{
		yachtsql.Literal{Value: yachtsql.BoolValue(true)},
		col,
	}}
	folded, ok = foldExpr(orTrue)
	if !ok {
		t.Fatalf("expected fold to fire")
	}
	lit, ok := folded.(yachtsql.Literal)
	if !ok {
		t.Fatalf("expected a literal result, got %T", folded)
	}
	b, _ := lit.Value.AsBool()
	if !b {
		t.Errorf("expected true OR x to collapse to true")
	}
}

func TestConstantFoldingRuleSplicesTrueFilter(t *testing.T) {
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "id", Kind: yachtsql.KindInt64}}}
	scan := logicalplan.Scan("accounts", schema)
	and := yachtsql.AndExpr{Operands: []yachtsql.Expr{
		yachtsql.Literal{Value: yachtsql.BoolValue(true)},
		yachtsql.Literal{Value: yachtsql.BoolValue(true)},
	}}
	filtered := logicalplan.Filter(scan, and)

	rule := &ConstantFoldingRule{}
	rewritten, changed := rule.Apply(filtered)
	if !changed {
		t.Fatalf("expected a change")
	}
	if rewritten.Kind != logicalplan.NodeScan {
		t.Fatalf("expected the always-true Filter to be spliced out, got kind %v", rewritten.Kind)
	}
}

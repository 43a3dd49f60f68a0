package optimizer

import (
	"testing"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

func TestPredicatePushdownSplitsBothSides(t *testing.T) {
	leftSchema := yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "id", Kind: yachtsql.KindInt64},
		{Name: "name", Kind: yachtsql.KindString},
	}}
	rightSchema := yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "account_id", Kind: yachtsql.KindInt64},
		{Name: "total", Kind: yachtsql.KindInt64},
	}}
	left := logicalplan.Scan("accounts", leftSchema)
	right := logicalplan.Scan("orders", rightSchema)
	joinSchema := yachtsql.Schema{Fields: append(append([]yachtsql.Field{}, leftSchema.Fields...), rightSchema.Fields...)}
	cond := yachtsql.BinaryOp{Op: yachtsql.OpEq, Left: yachtsql.ColumnRef{Column: "id"}, Right: yachtsql.ColumnRef{Column: "account_id"}}
	join := logicalplan.Join(left, right, logicalplan.JoinInner, cond, joinSchema)

	leftPred := yachtsql.BinaryOp{Op: yachtsql.OpGt, Left: yachtsql.ColumnRef{Column: "id"}, Right: yachtsql.Literal{Value: yachtsql.Int64Value(0)}}
	rightPred := yachtsql.BinaryOp{Op: yachtsql.OpGt, Left: yachtsql.ColumnRef{Column: "total"}, Right: yachtsql.Literal{Value: yachtsql.Int64Value(100)}}
	pred := yachtsql.AndExpr{Operands: []yachtsql.Expr{leftPred, rightPred}}
	filtered := logicalplan.Filter(join, pred)

	rule := &PredicatePushdownRule{}
	rewritten, changed := rule.Apply(filtered)
	if !changed {
		t.Fatalf("expected a change")
	}
	if rewritten.Kind != logicalplan.NodeJoin {
		t.Fatalf("expected both conjuncts to be pushed, leaving a bare Join, got kind %v", rewritten.Kind)
	}
	newLeft, newRight := rewritten.Children[0], rewritten.Children[1]
	if newLeft.Kind != logicalplan.NodeFilter {
		t.Errorf("expected a Filter pushed into the left child, got kind %v", newLeft.Kind)
	}
	if newRight.Kind != logicalplan.NodeFilter {
		t.Errorf("expected a Filter pushed into the right child, got kind %v", newRight.Kind)
	}
}

package optimizer

import (
	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

// ConstantFoldingRule evaluates expressions whose operands are all literals
// at plan-build time, the generalization of the tryParseNumber
// (which folded string predicate values into typed numbers once, up front)
// into a rule that folds any constant subexpression anywhere in the plan.
type ConstantFoldingRule struct{}

func (r *ConstantFoldingRule) Name() string { return "constant_folding" }

func (r *ConstantFoldingRule) Apply(p *logicalplan.LogicalPlan) (*logicalplan.LogicalPlan, bool) {
	changed := false
	if p.Predicate != nil {
		if folded, ok := foldExpr(p.Predicate); ok {
			p.Predicate = folded
			changed = true
		}
	}
	for i, e := range p.ProjectExprs {
		if folded, ok := foldExpr(e); ok {
			p.ProjectExprs[i] = folded
			changed = true
		}
	}
	if p.JoinCond != nil {
		if folded, ok := foldExpr(p.JoinCond); ok {
			p.JoinCond = folded
			changed = true
		}
	}
	// A Filter whose predicate folded down to the literal TRUE keeps every
	// row, so splice it out of the tree rather than evaluate it per row.
	if p.Kind == logicalplan.NodeFilter && len(p.Children) == 1 {
		if lit, ok := p.Predicate.(yachtsql.Literal); ok {
			if b, isBool := lit.Value.AsBool(); isBool && b {
				return p.Children[0], true
			}
		}
	}
	return p, changed
}

// foldExpr recursively folds constant subexpressions, returning the
// (possibly rewritten) expression and whether any fold occurred.
func foldExpr(e yachtsql.Expr) (yachtsql.Expr, bool) {
	switch n := e.(type) {
	case yachtsql.BinaryOp:
		left, lc := foldExpr(n.Left)
		right, rc := foldExpr(n.Right)
		n.Left, n.Right = left, right
		if lit, ok := asLiteralArith(n); ok {
			return lit, true
		}
		return n, lc || rc
	case yachtsql.NotExpr:
		operand, oc := foldExpr(n.Operand)
		n.Operand = operand
		if lit, ok := operand.(yachtsql.Literal); ok {
			if b, isBool := lit.Value.AsBool(); isBool {
				return yachtsql.Literal{Value: yachtsql.BoolValue(!b)}, true
			}
		}
		return n, oc
	case yachtsql.AndExpr:
		anyChanged := false
		for i, operand := range n.Operands {
			folded, c := foldExpr(operand)
			n.Operands[i] = folded
			anyChanged = anyChanged || c
		}
		// false AND x -> false; drop literal-true operands since they
		// never change the result (true AND x -> x).
		kept := n.Operands[:0]
		for _, operand := range n.Operands {
			if lit, ok := operand.(yachtsql.Literal); ok {
				if b, isBool := lit.Value.AsBool(); isBool {
					if !b {
						return yachtsql.Literal{Value: yachtsql.BoolValue(false)}, true
					}
					anyChanged = true
					continue
				}
			}
			kept = append(kept, operand)
		}
		switch len(kept) {
		case 0:
			return yachtsql.Literal{Value: yachtsql.BoolValue(true)}, true
		case 1:
			return kept[0], true
		default:
			n.Operands = kept
			return n, anyChanged
		}
	case yachtsql.OrExpr:
		anyChanged := false
		for i, operand := range n.Operands {
			folded, c := foldExpr(operand)
			n.Operands[i] = folded
			anyChanged = anyChanged || c
		}
		// true OR x -> true; drop literal-false operands since they never
		// change the result (false OR x -> x).
		kept := n.Operands[:0]
		for _, operand := range n.Operands {
			if lit, ok := operand.(yachtsql.Literal); ok {
				if b, isBool := lit.Value.AsBool(); isBool {
					if b {
						return yachtsql.Literal{Value: yachtsql.BoolValue(true)}, true
					}
					anyChanged = true
					continue
				}
			}
			kept = append(kept, operand)
		}
		switch len(kept) {
		case 0:
			return yachtsql.Literal{Value: yachtsql.BoolValue(false)}, true
		case 1:
			return kept[0], true
		default:
			n.Operands = kept
			return n, anyChanged
		}
	default:
		return e, false
	}
}

// asLiteralArith folds a BinaryOp whose operands are both literals into a
// single literal, when the evaluator-independent subset of operators
// (arithmetic and equality comparisons on numeric literals) applies. Full
// operator coverage lives in internal/eval; this rule only handles the cheap
// plan-time cases worth folding before execution.
func asLiteralArith(n yachtsql.BinaryOp) (yachtsql.Literal, bool) {
	left, lok := n.Left.(yachtsql.Literal)
	right, rok := n.Right.(yachtsql.Literal)
	if !lok || !rok {
		return yachtsql.Literal{}, false
	}
	switch n.Op {
	case yachtsql.OpEq, yachtsql.OpNotEq:
		eq := left.Value.Eq(right.Value)
		if n.Op == yachtsql.OpNotEq {
			eq = !eq && !left.Value.IsNull() && !right.Value.IsNull()
		}
		if left.Value.IsNull() || right.Value.IsNull() {
			return yachtsql.Literal{Value: yachtsql.NullValue()}, true
		}
		return yachtsql.Literal{Value: yachtsql.BoolValue(eq)}, true
	case yachtsql.OpAdd, yachtsql.OpSub, yachtsql.OpMul:
		if left.Value.IsNull() || right.Value.IsNull() {
			return yachtsql.Literal{Value: yachtsql.NullValue()}, true
		}
		lf, lok := numericLiteralAsFloat(left.Value)
		rf, rok := numericLiteralAsFloat(right.Value)
		if !lok || !rok {
			return yachtsql.Literal{}, false
		}
		var result float64
		switch n.Op {
		case yachtsql.OpAdd:
			result = lf + rf
		case yachtsql.OpSub:
			result = lf - rf
		case yachtsql.OpMul:
			result = lf * rf
		}
		return yachtsql.Literal{Value: yachtsql.Float64Value(result)}, true
	default:
		return yachtsql.Literal{}, false
	}
}

// numericLiteralAsFloat extracts a float64 from an int64, float64, or
// Numeric-kinded value, the plan-time numeric widening a full evaluator
// would do via yachtsql.CoerceNumericPair.
func numericLiteralAsFloat(v yachtsql.Value) (float64, bool) {
	if f, ok := v.AsFloat64(); ok {
		return f, true
	}
	if i, ok := v.AsInt64(); ok {
		return float64(i), true
	}
	if n, ok := v.AsNumeric(); ok {
		return n.Float64(), true
	}
	return 0, false
}

package eval

import (
	"fmt"

	"github.com/yachtsql/yachtsql"
)

// evalBinary dispatches a BinaryOp to the comparison, arithmetic, or LIKE
// family it belongs to, generalizing the per-operator string-building
// switch the KvCondition.parseValueAndOp used to pick a SQL
// operator token into one that computes the result value directly.
func (e *Evaluator) evalBinary(n yachtsql.BinaryOp, row Row) (yachtsql.Value, error) {
	switch n.Op {
	case yachtsql.OpIsDistinctFrom, yachtsql.OpIsNotDistinctFrom:
		return e.evalDistinctFrom(n, row)
	}

	left, err := e.Eval(n.Left, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	right, err := e.Eval(n.Right, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	if left.IsNull() || right.IsNull() {
		return yachtsql.NullValue(), nil
	}

	switch n.Op {
	case yachtsql.OpEq, yachtsql.OpNotEq, yachtsql.OpLt, yachtsql.OpLte, yachtsql.OpGt, yachtsql.OpGte:
		return evalComparison(n.Op, left, right)
	case yachtsql.OpLike, yachtsql.OpNotLike:
		return evalLike(n.Op, left, right)
	case yachtsql.OpAdd, yachtsql.OpSub, yachtsql.OpMul, yachtsql.OpDiv, yachtsql.OpMod:
		return evalArithmetic(n.Op, left, right)
	case yachtsql.OpConcat:
		return evalConcat(left, right)
	default:
		return yachtsql.Value{}, fmt.Errorf("eval: unsupported binary operator %s", n.Op)
	}
}

func (e *Evaluator) evalDistinctFrom(n yachtsql.BinaryOp, row Row) (yachtsql.Value, error) {
	left, err := e.Eval(n.Left, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	right, err := e.Eval(n.Right, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	// Unlike plain equality, IS [NOT] DISTINCT FROM treats null as a
	// comparable value: two nulls are not distinct from each other.
	distinct := !(left.IsNull() && right.IsNull()) && (left.IsNull() != right.IsNull() || !left.Eq(right))
	if n.Op == yachtsql.OpIsDistinctFrom {
		return yachtsql.BoolValue(distinct), nil
	}
	return yachtsql.BoolValue(!distinct), nil
}

func evalComparison(op yachtsql.BinaryOperator, left, right yachtsql.Value) (yachtsql.Value, error) {
	cmp, err := yachtsql.Compare(left, right, false)
	if err != nil {
		return yachtsql.Value{}, err
	}
	switch op {
	case yachtsql.OpEq:
		return yachtsql.BoolValue(cmp == 0), nil
	case yachtsql.OpNotEq:
		return yachtsql.BoolValue(cmp != 0), nil
	case yachtsql.OpLt:
		return yachtsql.BoolValue(cmp < 0), nil
	case yachtsql.OpLte:
		return yachtsql.BoolValue(cmp <= 0), nil
	case yachtsql.OpGt:
		return yachtsql.BoolValue(cmp > 0), nil
	case yachtsql.OpGte:
		return yachtsql.BoolValue(cmp >= 0), nil
	default:
		return yachtsql.Value{}, fmt.Errorf("eval: unsupported comparison operator %s", op)
	}
}

func evalArithmetic(op yachtsql.BinaryOperator, left, right yachtsql.Value) (yachtsql.Value, error) {
	lk, rk, err := yachtsql.CoerceNumericPair(left, right)
	if err != nil {
		return yachtsql.Value{}, err
	}
	lf, _ := numericAsFloat(lk)
	rf, _ := numericAsFloat(rk)
	switch op {
	case yachtsql.OpAdd:
		return yachtsql.Float64Value(lf + rf), nil
	case yachtsql.OpSub:
		return yachtsql.Float64Value(lf - rf), nil
	case yachtsql.OpMul:
		return yachtsql.Float64Value(lf * rf), nil
	case yachtsql.OpDiv:
		if rf == 0 {
			return yachtsql.Value{}, yachtsql.NewDivisionByZeroError()
		}
		return yachtsql.Float64Value(lf / rf), nil
	case yachtsql.OpMod:
		li, lok := left.AsInt64()
		ri, rok := right.AsInt64()
		if !lok || !rok {
			return yachtsql.Value{}, fmt.Errorf("eval: modulo requires integer operands")
		}
		if ri == 0 {
			return yachtsql.Value{}, yachtsql.NewDivisionByZeroError()
		}
		return yachtsql.Int64Value(li % ri), nil
	default:
		return yachtsql.Value{}, fmt.Errorf("eval: unsupported arithmetic operator %s", op)
	}
}

func evalConcat(left, right yachtsql.Value) (yachtsql.Value, error) {
	ls, ok := left.AsString()
	if !ok {
		return yachtsql.Value{}, fmt.Errorf("eval: || requires string operands")
	}
	rs, ok := right.AsString()
	if !ok {
		return yachtsql.Value{}, fmt.Errorf("eval: || requires string operands")
	}
	return yachtsql.StringValue(ls + rs), nil
}

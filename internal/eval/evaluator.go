// Package eval evaluates a yachtsql.Expr against a row, the generalization
// of the condition.go — which walked a CompositeCondition/
// KvCondition tree to emit SQL clause text against a fixed EAV schema —
// into a tree-walking interpreter that produces yachtsql.Value results
// directly, since this engine executes expressions itself rather than
// delegating to an underlying SQL engine.
package eval

import (
	"fmt"
	"strings"

	"github.com/yachtsql/yachtsql"
)

// Row is the minimal row-lookup contract Eval needs: resolve a ColumnRef to
// a Value. logicalplan/exec pass a concrete Record+Schema pair satisfying
// this via RecordRow below.
type Row interface {
	Column(table, name string) (yachtsql.Value, bool)
}

// RecordRow adapts a yachtsql.Record+Schema pair to Row.
type RecordRow struct {
	Schema yachtsql.Schema
	Record yachtsql.Record
}

func (r RecordRow) Column(table, name string) (yachtsql.Value, bool) {
	idx := r.Schema.FieldIndex(name)
	if idx < 0 {
		return yachtsql.Value{}, false
	}
	return r.Record.Get(idx), true
}

// FuncRegistry resolves a scalar function call by name to an implementation.
// internal/registry supplies the production instance; callers may also pass
// a stub for tests that only exercise operators.
type FuncRegistry interface {
	CallScalar(name string, args []yachtsql.Value) (yachtsql.Value, error)
}

// Evaluator walks Expr trees against a Row, resolving function calls through
// funcs and, when attached via WithSubqueries, correlated subqueries
// through subqueries.
type Evaluator struct {
	funcs      FuncRegistry
	subqueries SubqueryRunner
}

// New builds an Evaluator backed by the given function registry.
func New(funcs FuncRegistry) *Evaluator {
	return &Evaluator{funcs: funcs}
}

// Eval computes the Value an expression yields for the given row, applying
// SQL three-valued logic: any operand that is null propagates to a null
// result except where AND/OR short-circuit per standard SQL null rules
// (false AND null = false, true OR null = true).
func (e *Evaluator) Eval(expr yachtsql.Expr, row Row) (yachtsql.Value, error) {
	switch n := expr.(type) {
	case yachtsql.Literal:
		return n.Value, nil
	case yachtsql.ColumnRef:
		v, ok := row.Column(n.Table, n.Column)
		if !ok {
			return yachtsql.Value{}, fmt.Errorf("eval: unresolved column %q", n.Column)
		}
		return v, nil
	case yachtsql.BinaryOp:
		return e.evalBinary(n, row)
	case yachtsql.UnaryOp:
		return e.evalUnary(n, row)
	case yachtsql.AndExpr:
		return e.evalAnd(n, row)
	case yachtsql.OrExpr:
		return e.evalOr(n, row)
	case yachtsql.NotExpr:
		return e.evalNot(n, row)
	case yachtsql.IsNullExpr:
		return e.evalIsNull(n, row)
	case yachtsql.CaseExpr:
		return e.evalCase(n, row)
	case yachtsql.CastExpr:
		return e.evalCast(n, row)
	case yachtsql.BetweenExpr:
		return e.evalBetween(n, row)
	case yachtsql.InListExpr:
		return e.evalInList(n, row)
	case yachtsql.FunctionCall:
		return e.evalFunctionCall(n, row)
	case yachtsql.StructLiteral:
		return e.evalStructLiteral(n, row)
	case yachtsql.ArrayIndexExpr:
		return e.evalArrayIndex(n, row)
	case yachtsql.SubqueryExpr:
		return e.evalSubquery(n, row)
	default:
		return yachtsql.Value{}, fmt.Errorf("eval: unsupported expression kind %s", expr.Kind())
	}
}

func (e *Evaluator) evalAnd(n yachtsql.AndExpr, row Row) (yachtsql.Value, error) {
	sawNull := false
	for _, operand := range n.Operands {
		v, err := e.Eval(operand, row)
		if err != nil {
			return yachtsql.Value{}, err
		}
		if v.IsNull() {
			sawNull = true
			continue
		}
		b, _ := v.AsBool()
		if !b {
			return yachtsql.BoolValue(false), nil
		}
	}
	if sawNull {
		return yachtsql.NullValue(), nil
	}
	return yachtsql.BoolValue(true), nil
}

func (e *Evaluator) evalOr(n yachtsql.OrExpr, row Row) (yachtsql.Value, error) {
	sawNull := false
	for _, operand := range n.Operands {
		v, err := e.Eval(operand, row)
		if err != nil {
			return yachtsql.Value{}, err
		}
		if v.IsNull() {
			sawNull = true
			continue
		}
		b, _ := v.AsBool()
		if b {
			return yachtsql.BoolValue(true), nil
		}
	}
	if sawNull {
		return yachtsql.NullValue(), nil
	}
	return yachtsql.BoolValue(false), nil
}

func (e *Evaluator) evalNot(n yachtsql.NotExpr, row Row) (yachtsql.Value, error) {
	v, err := e.Eval(n.Operand, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	if v.IsNull() {
		return yachtsql.NullValue(), nil
	}
	b, _ := v.AsBool()
	return yachtsql.BoolValue(!b), nil
}

func (e *Evaluator) evalIsNull(n yachtsql.IsNullExpr, row Row) (yachtsql.Value, error) {
	v, err := e.Eval(n.Operand, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	isNull := v.IsNull()
	if n.Negate {
		return yachtsql.BoolValue(!isNull), nil
	}
	return yachtsql.BoolValue(isNull), nil
}

func (e *Evaluator) evalUnary(n yachtsql.UnaryOp, row Row) (yachtsql.Value, error) {
	v, err := e.Eval(n.Operand, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	if v.IsNull() {
		return yachtsql.NullValue(), nil
	}
	switch n.Op {
	case yachtsql.OpNeg:
		return negateValue(v)
	case yachtsql.OpNotOp:
		b, _ := v.AsBool()
		return yachtsql.BoolValue(!b), nil
	default:
		return yachtsql.Value{}, fmt.Errorf("eval: unsupported unary operator %s", n.Op)
	}
}

func negateValue(v yachtsql.Value) (yachtsql.Value, error) {
	if i, ok := v.AsInt64(); ok {
		return yachtsql.Int64Value(-i), nil
	}
	if f, ok := v.AsFloat64(); ok {
		return yachtsql.Float64Value(-f), nil
	}
	if n, ok := v.AsNumeric(); ok {
		return yachtsql.NumericValue(yachtsql.Numeric{Unscaled: -n.Unscaled, Scale: n.Scale}), nil
	}
	return yachtsql.Value{}, fmt.Errorf("eval: cannot negate non-numeric value")
}

func (e *Evaluator) evalCase(n yachtsql.CaseExpr, row Row) (yachtsql.Value, error) {
	var operandVal yachtsql.Value
	hasOperand := n.Operand != nil
	if hasOperand {
		v, err := e.Eval(n.Operand, row)
		if err != nil {
			return yachtsql.Value{}, err
		}
		operandVal = v
	}
	for _, when := range n.Whens {
		if hasOperand {
			whenVal, err := e.Eval(when.When, row)
			if err != nil {
				return yachtsql.Value{}, err
			}
			if !whenVal.IsNull() && operandVal.Eq(whenVal) {
				return e.Eval(when.Then, row)
			}
			continue
		}
		cond, err := e.Eval(when.When, row)
		if err != nil {
			return yachtsql.Value{}, err
		}
		if b, ok := cond.AsBool(); ok && b {
			return e.Eval(when.Then, row)
		}
	}
	if n.Else != nil {
		return e.Eval(n.Else, row)
	}
	return yachtsql.NullValue(), nil
}

func (e *Evaluator) evalBetween(n yachtsql.BetweenExpr, row Row) (yachtsql.Value, error) {
	v, err := e.Eval(n.Operand, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	lo, err := e.Eval(n.Low, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	hi, err := e.Eval(n.High, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	if v.IsNull() || lo.IsNull() || hi.IsNull() {
		return yachtsql.NullValue(), nil
	}
	loCmp, err := yachtsql.Compare(v, lo, false)
	if err != nil {
		return yachtsql.Value{}, err
	}
	hiCmp, err := yachtsql.Compare(v, hi, false)
	if err != nil {
		return yachtsql.Value{}, err
	}
	result := loCmp >= 0 && hiCmp <= 0
	if n.Negate {
		result = !result
	}
	return yachtsql.BoolValue(result), nil
}

func (e *Evaluator) evalInList(n yachtsql.InListExpr, row Row) (yachtsql.Value, error) {
	v, err := e.Eval(n.Operand, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	if v.IsNull() {
		return yachtsql.NullValue(), nil
	}

	if sub, ok := n.Subquery.(yachtsql.SubqueryExpr); ok {
		rows, err := e.runSubquery(sub.Plan, row)
		if err != nil {
			return yachtsql.Value{}, err
		}
		found := false
		for _, r := range rows {
			if r.Get(0).Eq(v) {
				found = true
				break
			}
		}
		if n.Negate {
			found = !found
		}
		return yachtsql.BoolValue(found), nil
	}

	sawNull := false
	for _, item := range n.List {
		iv, err := e.Eval(item, row)
		if err != nil {
			return yachtsql.Value{}, err
		}
		if iv.IsNull() {
			sawNull = true
			continue
		}
		if v.Eq(iv) {
			return yachtsql.BoolValue(!n.Negate), nil
		}
	}
	if sawNull {
		return yachtsql.NullValue(), nil
	}
	return yachtsql.BoolValue(n.Negate), nil
}

func (e *Evaluator) evalCast(n yachtsql.CastExpr, row Row) (yachtsql.Value, error) {
	v, err := e.Eval(n.Operand, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	return yachtsql.Cast(v, n.TargetKind, n.Safe)
}

func (e *Evaluator) evalFunctionCall(n yachtsql.FunctionCall, row Row) (yachtsql.Value, error) {
	if e.funcs == nil {
		return yachtsql.Value{}, fmt.Errorf("eval: no function registry configured for %s", n.Name)
	}
	args := make([]yachtsql.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.Eval(a, row)
		if err != nil {
			return yachtsql.Value{}, err
		}
		args[i] = v
	}
	return e.funcs.CallScalar(strings.ToLower(n.Name), args)
}

func (e *Evaluator) evalStructLiteral(n yachtsql.StructLiteral, row Row) (yachtsql.Value, error) {
	values := make([]yachtsql.Value, len(n.Values))
	for i, expr := range n.Values {
		v, err := e.Eval(expr, row)
		if err != nil {
			return yachtsql.Value{}, err
		}
		values[i] = v
	}
	return yachtsql.StructValueOf(yachtsql.StructValue{Fields: n.Fields, Values: values}), nil
}

func (e *Evaluator) evalArrayIndex(n yachtsql.ArrayIndexExpr, row Row) (yachtsql.Value, error) {
	arrVal, err := e.Eval(n.Operand, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	idxVal, err := e.Eval(n.Index, row)
	if err != nil {
		return yachtsql.Value{}, err
	}
	if arrVal.IsNull() || idxVal.IsNull() {
		return yachtsql.NullValue(), nil
	}
	arr, ok := arrVal.AsArray()
	if !ok {
		return yachtsql.Value{}, fmt.Errorf("eval: array index applied to non-array value")
	}
	idx, ok := idxVal.AsInt64()
	if !ok {
		return yachtsql.Value{}, fmt.Errorf("eval: array index must be integer")
	}
	if idx < 1 || int(idx) > len(arr) {
		return yachtsql.NullValue(), nil
	}
	return arr[idx-1], nil
}

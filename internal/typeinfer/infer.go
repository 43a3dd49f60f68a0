// Package typeinfer derives the output ValueKind of a scalar expression
// against an input schema, the static counterpart of internal/eval's runtime
// evaluation: it derives a kind from the schema alone, without any row. No
// other package in this module calls Infer.
//
// Grounded on duckdb_type_mapper.go, which maps forma.ValueType
// to a concrete SQL type for every value the query builder could
// produce; Infer plays the same per-expression-shape dispatch role, widened
// from a single ValueType-to-string lookup to a full recursive expression
// walk, since compound scalar expressions need type inference through
// every nested operator, not just a pass-through of a column's already-known
// ValueType.
package typeinfer

import (
	"fmt"

	"github.com/yachtsql/yachtsql"
)

// FuncRegistry resolves a scalar function's return kind from its declared
// signature, mirroring internal/eval.FuncRegistry's call-time counterpart
// without requiring an import of internal/registry (avoiding the same
// dependency-direction concern internal/eval's FuncRegistry interface
// resolves for function calls).
type FuncRegistry interface {
	ReturnKind(name string, argKinds []yachtsql.ValueKind) (yachtsql.ValueKind, error)
}

// Infer derives the ValueKind expr would produce when evaluated against a row
// shaped by schema.
func Infer(expr yachtsql.Expr, schema yachtsql.Schema, funcs FuncRegistry) (yachtsql.ValueKind, error) {
	switch e := expr.(type) {
	case yachtsql.Literal:
		return e.Value.Kind, nil
	case yachtsql.ColumnRef:
		f, ok := schema.Field(e.Column)
		if !ok {
			return "", fmt.Errorf("typeinfer: unknown column %q", e.Column)
		}
		return f.Kind, nil
	case yachtsql.BinaryOp:
		return inferBinary(e, schema, funcs)
	case yachtsql.UnaryOp:
		if e.Op == yachtsql.OpNotOp {
			return yachtsql.KindBool, nil
		}
		return Infer(e.Operand, schema, funcs)
	case yachtsql.AndExpr, yachtsql.OrExpr, yachtsql.NotExpr, yachtsql.IsNullExpr, yachtsql.BetweenExpr:
		return yachtsql.KindBool, nil
	case yachtsql.InListExpr:
		return yachtsql.KindBool, nil
	case yachtsql.FunctionCall:
		return inferFunctionCall(e, schema, funcs)
	case yachtsql.AggregateFunc:
		return inferAggregate(e, schema, funcs)
	case yachtsql.WindowCall:
		return inferWindow(e, schema, funcs)
	case yachtsql.CaseExpr:
		return inferCase(e, schema, funcs)
	case yachtsql.CastExpr:
		return e.TargetKind, nil
	case yachtsql.StructLiteral:
		return yachtsql.KindStruct, nil
	case yachtsql.ArrayIndexExpr:
		elemSchema, err := Infer(e.Operand, schema, funcs)
		if err != nil {
			return "", err
		}
		// Repeated-field element kind isn't carried by ValueKind alone; the
		// binder attaches element kind via the owning Field.Repeated flag,
		// so a bare ArrayIndexExpr on an unresolved array falls back to the
		// array's own kind when no richer field metadata is available.
		return elemSchema, nil
	case yachtsql.SubqueryExpr:
		return inferSubquery(e)
	default:
		return "", fmt.Errorf("typeinfer: unsupported expression kind %T", expr)
	}
}

func inferBinary(e yachtsql.BinaryOp, schema yachtsql.Schema, funcs FuncRegistry) (yachtsql.ValueKind, error) {
	switch e.Op {
	case yachtsql.OpEq, yachtsql.OpNotEq, yachtsql.OpLt, yachtsql.OpLte, yachtsql.OpGt, yachtsql.OpGte,
		yachtsql.OpLike, yachtsql.OpNotLike, yachtsql.OpIsDistinctFrom, yachtsql.OpIsNotDistinctFrom:
		return yachtsql.KindBool, nil
	case yachtsql.OpConcat:
		return yachtsql.KindString, nil
	case yachtsql.OpAdd, yachtsql.OpSub, yachtsql.OpMul, yachtsql.OpDiv, yachtsql.OpMod:
		left, err := Infer(e.Left, schema, funcs)
		if err != nil {
			return "", err
		}
		right, err := Infer(e.Right, schema, funcs)
		if err != nil {
			return "", err
		}
		return widenNumericKind(left, right), nil
	default:
		return "", fmt.Errorf("typeinfer: unsupported binary operator %q", e.Op)
	}
}

// widenNumericKind applies the same int64 -> float64 -> numeric lattice
// internal/eval and coerce.go's CoerceNumericPair use at evaluation time, so
// a planned Schema's declared Kind always matches what the evaluator will
// actually produce for the same expression.
func widenNumericKind(a, b yachtsql.ValueKind) yachtsql.ValueKind {
	rank := func(k yachtsql.ValueKind) int {
		switch k {
		case yachtsql.KindInt64:
			return 0
		case yachtsql.KindFloat64:
			return 1
		case yachtsql.KindNumeric:
			return 2
		default:
			return -1
		}
	}
	ra, rb := rank(a), rank(b)
	if ra < 0 && rb < 0 {
		return yachtsql.KindFloat64
	}
	if rb > ra {
		switch b {
		case yachtsql.KindFloat64, yachtsql.KindNumeric:
			return b
		}
	}
	switch a {
	case yachtsql.KindFloat64, yachtsql.KindNumeric:
		return a
	}
	if ra < 0 {
		return b
	}
	return a
}

func inferFunctionCall(e yachtsql.FunctionCall, schema yachtsql.Schema, funcs FuncRegistry) (yachtsql.ValueKind, error) {
	if funcs == nil {
		return yachtsql.KindString, nil
	}
	argKinds := make([]yachtsql.ValueKind, len(e.Args))
	for i, a := range e.Args {
		k, err := Infer(a, schema, funcs)
		if err != nil {
			return "", err
		}
		argKinds[i] = k
	}
	return funcs.ReturnKind(e.Name, argKinds)
}

// inferAggregate derives an aggregate call's return kind without consulting
// FuncRegistry, since aggregate return kinds follow a fixed small table
// (mirroring internal/eval/aggregate.go's accumulator set) rather than a
// user-extensible scalar function registry.
func inferAggregate(e yachtsql.AggregateFunc, schema yachtsql.Schema, funcs FuncRegistry) (yachtsql.ValueKind, error) {
	switch e.Name {
	case "count", "count_distinct":
		return yachtsql.KindInt64, nil
	case "avg":
		return yachtsql.KindFloat64, nil
	case "sum", "min", "max":
		if len(e.Args) == 0 {
			return yachtsql.KindFloat64, nil
		}
		return Infer(e.Args[0], schema, funcs)
	case "array_agg":
		return yachtsql.KindArray, nil
	case "any_value":
		if len(e.Args) == 0 {
			return yachtsql.KindNull, nil
		}
		return Infer(e.Args[0], schema, funcs)
	case "string_agg":
		return yachtsql.KindString, nil
	default:
		return "", fmt.Errorf("typeinfer: unknown aggregate function %q", e.Name)
	}
}

func inferWindow(e yachtsql.WindowCall, schema yachtsql.Schema, funcs FuncRegistry) (yachtsql.ValueKind, error) {
	switch e.Name {
	case "row_number", "rank", "dense_rank", "ntile":
		return yachtsql.KindInt64, nil
	case "percent_rank", "cume_dist":
		return yachtsql.KindFloat64, nil
	case "lag", "lead", "first_value", "last_value", "nth_value":
		if len(e.Args) == 0 {
			return yachtsql.KindNull, nil
		}
		return Infer(e.Args[0], schema, funcs)
	default:
		return inferAggregate(yachtsql.AggregateFunc{Name: e.Name, Args: e.Args}, schema, funcs)
	}
}

func inferCase(e yachtsql.CaseExpr, schema yachtsql.Schema, funcs FuncRegistry) (yachtsql.ValueKind, error) {
	for _, w := range e.Whens {
		k, err := Infer(w.Then, schema, funcs)
		if err != nil {
			return "", err
		}
		if k != yachtsql.KindNull {
			return k, nil
		}
	}
	if e.Else != nil {
		return Infer(e.Else, schema, funcs)
	}
	return yachtsql.KindNull, nil
}

func inferSubquery(e yachtsql.SubqueryExpr) (yachtsql.ValueKind, error) {
	switch e.SubKind {
	case yachtsql.SubqueryExists, yachtsql.SubqueryAny, yachtsql.SubqueryAll, yachtsql.SubqueryIn:
		return yachtsql.KindBool, nil
	case yachtsql.SubqueryScalar:
		// The subquery's single projected column's kind lives on its own
		// planned Schema, which the binder resolves when it attaches Plan;
		// Infer only sees the opaque Expr wrapper here, so callers needing
		// the precise scalar kind should resolve it from the bound plan
		// directly rather than through this fallback.
		return yachtsql.KindFloat64, nil
	default:
		return "", fmt.Errorf("typeinfer: unknown subquery kind %q", e.SubKind)
	}
}

package storageadapter

import (
	"fmt"
	"strings"

	"github.com/yachtsql/yachtsql"
)

// pushdownSQL renders pred as a parameterized WHERE fragment using
// placeholder(i) for the i-th (1-indexed) bound argument, generalizing
// internal/duckdb_sql_generator.go's CompositeCondition.ToSqlClauses
// from EAV attribute filters to arbitrary column predicates. It returns
// ok=false when pred contains a shape it cannot push down (subqueries,
// function calls, OR); callers fall back to an unfiltered scan and let
// internal/eval re-apply the predicate in-process.
func pushdownSQL(pred yachtsql.Expr, placeholder func(int) string, args *[]any) (string, bool) {
	if pred == nil {
		return "", true
	}
	switch n := pred.(type) {
	case yachtsql.Literal:
		*args = append(*args, toDriverArg(n.Value))
		return placeholder(len(*args)), true
	case yachtsql.ColumnRef:
		return quoteIdent(n.Column), true
	case yachtsql.BinaryOp:
		left, ok := pushdownSQL(n.Left, placeholder, args)
		if !ok {
			return "", false
		}
		right, ok := pushdownSQL(n.Right, placeholder, args)
		if !ok {
			return "", false
		}
		op, ok := sqlOp(n.Op)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right), true
	case yachtsql.AndExpr:
		parts := make([]string, 0, len(n.Operands))
		for _, operand := range n.Operands {
			part, ok := pushdownSQL(operand, placeholder, args)
			if !ok {
				return "", false
			}
			parts = append(parts, part)
		}
		return "(" + strings.Join(parts, " AND ") + ")", true
	case yachtsql.IsNullExpr:
		operand, ok := pushdownSQL(n.Operand, placeholder, args)
		if !ok {
			return "", false
		}
		if n.Negate {
			return operand + " IS NOT NULL", true
		}
		return operand + " IS NULL", true
	default:
		return "", false
	}
}

func sqlOp(op yachtsql.BinaryOperator) (string, bool) {
	switch op {
	case yachtsql.OpEq:
		return "=", true
	case yachtsql.OpNotEq:
		return "<>", true
	case yachtsql.OpLt:
		return "<", true
	case yachtsql.OpLte:
		return "<=", true
	case yachtsql.OpGt:
		return ">", true
	case yachtsql.OpGte:
		return ">=", true
	default:
		return "", false
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// wholeRowWhereWith builds a "col1 = <ph> AND col2 IS NULL ..." clause
// matching row exactly, used by both backends' Update/Delete to target a
// previously-scanned row that carries no declared primary key. placeholder
// renders the n-th bound argument (1-indexed) in the backend's own style
// ($n for Postgres, ? for DuckDB's database/sql driver).
func wholeRowWhereWith(schema yachtsql.Schema, row yachtsql.Record, argOffset int, placeholder func(int) string) (string, []any) {
	var clauses []string
	var args []any
	for i, f := range schema.Fields {
		v := row.Get(i)
		if v.IsNull() {
			clauses = append(clauses, quoteIdent(f.Name)+" IS NULL")
			continue
		}
		args = append(args, toDriverArg(v))
		clauses = append(clauses, fmt.Sprintf("%s = %s", quoteIdent(f.Name), placeholder(argOffset+len(args))))
	}
	return strings.Join(clauses, " AND "), args
}

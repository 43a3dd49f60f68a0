package eval

import (
	"fmt"

	"github.com/yachtsql/yachtsql"
)

// SubqueryRunner executes a bound subquery plan and returns its result rows.
// Evaluator only depends on this narrow interface (rather than importing
// internal/exec directly) to avoid an eval<->exec import cycle, since exec's
// operators themselves call into eval to evaluate filter/project
// expressions. No type in this module implements it, so an Evaluator without
// an attached runner returns an error for every subquery expression.
type SubqueryRunner interface {
	RunSubquery(plan any, outer Row) ([]yachtsql.Record, error)
}

// WithSubqueries attaches a SubqueryRunner to the Evaluator, returning a
// shallow copy so the base Evaluator stays reusable across call sites that
// don't need subquery support (e.g. DDL CHECK constraint evaluation).
func (e *Evaluator) WithSubqueries(runner SubqueryRunner) *Evaluator {
	clone := *e
	clone.subqueries = runner
	return &clone
}

// evalSubquery handles scalar and EXISTS subqueries. IN (subquery) is
// handled in evalInList, which runs the subquery itself and compares every
// result row against the operand rather than routing through here.
func (e *Evaluator) evalSubquery(n yachtsql.SubqueryExpr, row Row) (yachtsql.Value, error) {
	rows, err := e.runSubquery(n.Plan, row)
	if err != nil {
		return yachtsql.Value{}, err
	}

	switch n.SubKind {
	case yachtsql.SubqueryScalar:
		if len(rows) == 0 {
			return yachtsql.NullValue(), nil
		}
		if len(rows) > 1 {
			return yachtsql.Value{}, fmt.Errorf("eval: scalar subquery returned more than one row")
		}
		return rows[0].Get(0), nil
	case yachtsql.SubqueryExists:
		exists := len(rows) > 0
		if n.Negate {
			exists = !exists
		}
		return yachtsql.BoolValue(exists), nil
	default:
		return yachtsql.Value{}, fmt.Errorf("eval: unsupported standalone subquery kind %s", n.SubKind)
	}
}

func (e *Evaluator) runSubquery(plan any, row Row) ([]yachtsql.Record, error) {
	if e.subqueries == nil {
		return nil, fmt.Errorf("eval: no subquery runner configured")
	}
	return e.subqueries.RunSubquery(plan, row)
}

package optimizer

import (
	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

// PredicatePushdownRule moves a Filter below a Project when the predicate
// only references columns the Project passes through unchanged, and splits
// an AND predicate above an inner join into per-side filters pushed below
// the join (filters above other join types are left in place), the relational generalization of the buildFilterSQL, which
// always evaluated predicates as close to the EAV/main table scan as
// possible rather than after assembling the full result set.
type PredicatePushdownRule struct{}

func (r *PredicatePushdownRule) Name() string { return "predicate_pushdown" }

func (r *PredicatePushdownRule) Apply(p *logicalplan.LogicalPlan) (*logicalplan.LogicalPlan, bool) {
	if p.Kind != logicalplan.NodeFilter || len(p.Children) != 1 {
		return p, false
	}
	child := p.Children[0]

	if child.Kind == logicalplan.NodeJoin && child.JoinType == logicalplan.JoinInner && len(child.Children) == 2 {
		left, right := child.Children[0], child.Children[1]
		conjuncts := splitConjuncts(p.Predicate)
		var leftOnly, rightOnly, rest []yachtsql.Expr
		for _, c := range conjuncts {
			switch {
			case referencesOnly(c, left.Schema):
				leftOnly = append(leftOnly, c)
			case referencesOnly(c, right.Schema):
				rightOnly = append(rightOnly, c)
			default:
				rest = append(rest, c)
			}
		}
		if len(leftOnly) == 0 && len(rightOnly) == 0 {
			return p, false
		}
		newLeft, newRight := left, right
		if len(leftOnly) > 0 {
			newLeft = logicalplan.Filter(left, combineAnd(leftOnly))
		}
		if len(rightOnly) > 0 {
			newRight = logicalplan.Filter(right, combineAnd(rightOnly))
		}
		newJoin := logicalplan.Join(newLeft, newRight, child.JoinType, child.JoinCond, child.Schema)
		if len(rest) == 0 {
			return newJoin, true
		}
		return logicalplan.Filter(newJoin, combineAnd(rest)), true
	}

	if child.Kind == logicalplan.NodeProject && len(child.Children) == 1 {
		if referencesOnly(p.Predicate, child.Children[0].Schema) && isPassthroughProject(child) {
			newFilter := logicalplan.Filter(child.Children[0], p.Predicate)
			newProject := logicalplan.Project(newFilter, child.ProjectExprs, child.ProjectNames, child.Schema)
			return newProject, true
		}
	}

	return p, false
}

func splitConjuncts(e yachtsql.Expr) []yachtsql.Expr {
	if and, ok := e.(yachtsql.AndExpr); ok {
		var out []yachtsql.Expr
		for _, operand := range and.Operands {
			out = append(out, splitConjuncts(operand)...)
		}
		return out
	}
	return []yachtsql.Expr{e}
}

func combineAnd(exprs []yachtsql.Expr) yachtsql.Expr {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return yachtsql.AndExpr{Operands: exprs}
}

// referencesOnly reports whether every ColumnRef reachable in e names a
// field present in schema.
func referencesOnly(e yachtsql.Expr, schema yachtsql.Schema) bool {
	ok := true
	var walk func(yachtsql.Expr)
	walk = func(n yachtsql.Expr) {
		switch v := n.(type) {
		case yachtsql.ColumnRef:
			if _, found := schema.Field(v.Column); !found {
				ok = false
			}
		case yachtsql.BinaryOp:
			walk(v.Left)
			walk(v.Right)
		case yachtsql.UnaryOp:
			walk(v.Operand)
		case yachtsql.AndExpr:
			for _, o := range v.Operands {
				walk(o)
			}
		case yachtsql.OrExpr:
			for _, o := range v.Operands {
				walk(o)
			}
		case yachtsql.NotExpr:
			walk(v.Operand)
		case yachtsql.IsNullExpr:
			walk(v.Operand)
		case yachtsql.BetweenExpr:
			walk(v.Operand)
			walk(v.Low)
			walk(v.High)
		case yachtsql.FunctionCall:
			for _, a := range v.Args {
				walk(a)
			}
		}
	}
	walk(e)
	return ok
}

// isPassthroughProject reports whether every projected expression is a bare
// ColumnRef, meaning a filter above it can be re-expressed against the
// project's input schema and pushed below.
func isPassthroughProject(p *logicalplan.LogicalPlan) bool {
	for _, e := range p.ProjectExprs {
		if _, ok := e.(yachtsql.ColumnRef); !ok {
			return false
		}
	}
	return true
}

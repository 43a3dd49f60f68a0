// Package logicalplan defines the logical query IR the binder produces and
// the optimizer rewrites, generalizing the
// internal/queryoptimizer.Plan/Input (a single-table EAV query plan) into a
// tree of relational operators covering joins, set operations, and CTEs.
package logicalplan

import (
	"github.com/yachtsql/yachtsql"
)

// NodeKind discriminates a LogicalPlan node the way the
// queryoptimizer.Input discriminated Main-vs-EAV filter targets, generalized
// to the full relational algebra a logical planner requires.
type NodeKind string

const (
	NodeScan        NodeKind = "scan"
	NodeFilter      NodeKind = "filter"
	NodeProject     NodeKind = "project"
	NodeAggregate   NodeKind = "aggregate"
	NodeSort        NodeKind = "sort"
	NodeLimit       NodeKind = "limit"
	NodeJoin        NodeKind = "join"
	NodeSetOp       NodeKind = "set_op"
	NodeDistinct    NodeKind = "distinct"
	NodeUnnest      NodeKind = "unnest"
	NodeWithCTE     NodeKind = "with_cte"
	NodeCTERef      NodeKind = "cte_ref"
	NodeWindow      NodeKind = "window"
	NodeGapFill     NodeKind = "gap_fill"
	NodeValues      NodeKind = "values"
	NodeDML         NodeKind = "dml"
)

// JoinType enumerates supported join kinds.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinFull  JoinType = "full"
	JoinCross JoinType = "cross"
	JoinSemi  JoinType = "semi"
	JoinAnti  JoinType = "anti"
)

// SetOpKind enumerates UNION/INTERSECT/EXCEPT, generalizing the
// hard-coded INTERSECT/UNION choice in CompositeCondition.ToSqlClauses (which
// picked a set operator per boolean connective) into a first-class plan node
// usable by any query, not just attribute filter trees.
type SetOpKind string

const (
	SetOpUnion     SetOpKind = "union"
	SetOpUnionAll  SetOpKind = "union_all"
	SetOpIntersect SetOpKind = "intersect"
	SetOpExcept    SetOpKind = "except"
)

// DMLKind enumerates the data-modification operations a LogicalPlan's root
// can represent.
type DMLKind string

const (
	DMLInsert DMLKind = "insert"
	DMLUpdate DMLKind = "update"
	DMLDelete DMLKind = "delete"
	DMLMerge  DMLKind = "merge"
)

// LogicalPlan is one node of the logical query tree. Every node carries the
// Schema its output rows conform to, resolved by the binder before the
// optimizer runs.
type LogicalPlan struct {
	Kind     NodeKind
	Schema   yachtsql.Schema
	Children []*LogicalPlan

	// NodeScan
	TableName string

	// NodeFilter
	Predicate yachtsql.Expr

	// NodeProject
	ProjectExprs []yachtsql.Expr
	ProjectNames []string

	// NodeAggregate
	GroupBy    []yachtsql.Expr
	Aggregates []yachtsql.AggregateFunc
	Having     yachtsql.Expr

	// NodeSort
	SortKeys []yachtsql.SortExpr

	// NodeLimit
	LimitCount  int64
	LimitOffset int64

	// NodeJoin
	JoinType JoinType
	JoinCond yachtsql.Expr

	// NodeSetOp
	SetOp SetOpKind

	// NodeUnnest
	UnnestExpr  yachtsql.Expr
	UnnestAlias string

	// NodeWithCTE
	CTEName string
	CTEBody *LogicalPlan

	// NodeWindow
	WindowExprs []yachtsql.WindowCall
	WindowNames []string

	// NodeGapFill
	GapFillBucketCol    string
	GapFillBucketSize   yachtsql.Interval
	GapFillPartitionCols []string
	GapFillFillCols     []string

	// NodeValues
	ValuesRows [][]yachtsql.Expr

	// NodeDML
	DMLKind    DMLKind
	DMLTable   string
	DMLSource  *LogicalPlan
	DMLSet     map[string]yachtsql.Expr
}

// Scan builds a table scan leaf node.
func Scan(table string, schema yachtsql.Schema) *LogicalPlan {
	return &LogicalPlan{Kind: NodeScan, TableName: table, Schema: schema}
}

// Filter wraps input with a row predicate; the output schema is unchanged.
func Filter(input *LogicalPlan, pred yachtsql.Expr) *LogicalPlan {
	return &LogicalPlan{Kind: NodeFilter, Predicate: pred, Schema: input.Schema, Children: []*LogicalPlan{input}}
}

// Project wraps input with a column projection, producing a new schema named
// by names in order.
func Project(input *LogicalPlan, exprs []yachtsql.Expr, names []string, schema yachtsql.Schema) *LogicalPlan {
	return &LogicalPlan{
		Kind: NodeProject, ProjectExprs: exprs, ProjectNames: names,
		Schema: schema, Children: []*LogicalPlan{input},
	}
}

// Join builds a binary join node over left and right with the given
// condition and output schema (left fields followed by right fields).
func Join(left, right *LogicalPlan, joinType JoinType, cond yachtsql.Expr, schema yachtsql.Schema) *LogicalPlan {
	return &LogicalPlan{
		Kind: NodeJoin, JoinType: joinType, JoinCond: cond,
		Schema: schema, Children: []*LogicalPlan{left, right},
	}
}

// Sort wraps input with an ORDER BY.
func Sort(input *LogicalPlan, keys []yachtsql.SortExpr) *LogicalPlan {
	return &LogicalPlan{Kind: NodeSort, SortKeys: keys, Schema: input.Schema, Children: []*LogicalPlan{input}}
}

// Limit wraps input with LIMIT/OFFSET.
func Limit(input *LogicalPlan, count, offset int64) *LogicalPlan {
	return &LogicalPlan{Kind: NodeLimit, LimitCount: count, LimitOffset: offset, Schema: input.Schema, Children: []*LogicalPlan{input}}
}

// Walk visits every node in the plan tree depth-first, children before or
// after the parent depending on preOrder.
func Walk(p *LogicalPlan, preOrder bool, visit func(*LogicalPlan)) {
	if p == nil {
		return
	}
	if preOrder {
		visit(p)
	}
	for _, c := range p.Children {
		Walk(c, preOrder, visit)
	}
	if !preOrder {
		visit(p)
	}
}

// Transform rewrites the plan tree bottom-up, replacing each node with the
// result of rewrite(node-with-rewritten-children). This is the traversal
// shape internal/optimizer's rules run under.
func Transform(p *LogicalPlan, rewrite func(*LogicalPlan) *LogicalPlan) *LogicalPlan {
	if p == nil {
		return nil
	}
	newChildren := make([]*LogicalPlan, len(p.Children))
	for i, c := range p.Children {
		newChildren[i] = Transform(c, rewrite)
	}
	clone := *p
	clone.Children = newChildren
	return rewrite(&clone)
}

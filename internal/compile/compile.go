// Package compile turns an optimized, physically-annotated query plan into
// a runnable internal/exec.Operator tree, the step between
// internal/physicalplan's strategy choices and internal/exec's pull-based
// operators. Nothing upstream compiled everything to SQL text instead of
// an operator tree, so this package follows the general Go idiom the rest
// of the engine already established in internal/exec: small constructor
// functions, context-aware calls, one case per plan node kind, matching
// the switch-per-NodeKind shape internal/ddl.execDDL uses for its own
// dispatch.
package compile

import (
	"context"
	"fmt"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/breaker"
	"github.com/yachtsql/yachtsql/internal/eval"
	"github.com/yachtsql/yachtsql/internal/exec"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
	"github.com/yachtsql/yachtsql/internal/physicalplan"
	"github.com/yachtsql/yachtsql/internal/window"
)

// Compiler holds the state shared across one plan's compilation: the
// catalog datasets are scanned from, the evaluator expressions run through,
// the CTE environment materialized WITH bodies are stashed in for later
// CTERef lookups, and the scan breaker shared by every parallel scan this
// Compiler builds, so a storage backend that starts failing under one
// query node trips parallel dispatch off for the rest of the plan too.
type Compiler struct {
	catalog     yachtsql.Catalog
	evaluator   *eval.Evaluator
	window      *window.Engine
	scanBreaker *breaker.Breaker

	ctes map[string]*yachtsql.Table
}

// New builds a Compiler bound to catalog for dataset lookups, evaluator for
// expression evaluation, and win for window-function evaluation.
func New(catalog yachtsql.Catalog, evaluator *eval.Evaluator, win *window.Engine) *Compiler {
	return &Compiler{
		catalog:     catalog,
		evaluator:   evaluator,
		window:      win,
		scanBreaker: breaker.New(3, 5, 20),
		ctes:        map[string]*yachtsql.Table{},
	}
}

// Build compiles pp into an Operator tree ready for exec.Run.
//
// NodeWithCTE is handled before its children are compiled: the CTE body
// (pp.Children[0]) must be run and materialized into c.ctes *before* the
// main body (pp.Children[1]) is compiled, since the main body may contain a
// NodeCTERef leaf that looks the materialized result up by name. Every
// other node kind compiles its children first, matching how
// internal/optimizer's rules rewrite a LogicalPlan's Children bottom-up via
// logicalplan.Transform.
func (c *Compiler) Build(ctx context.Context, pp *physicalplan.PhysicalPlan) (exec.Operator, error) {
	lp := pp.Logical

	if lp.Kind == logicalplan.NodeWithCTE {
		return c.buildWithCTE(ctx, pp)
	}

	children := make([]exec.Operator, len(pp.Children))
	for i, cp := range pp.Children {
		child, err := c.Build(ctx, cp)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}

	switch lp.Kind {
	case logicalplan.NodeScan:
		return c.buildScan(ctx, pp)
	case logicalplan.NodeFilter:
		return exec.NewFilter(children[0], lp.Predicate, c.evaluator), nil
	case logicalplan.NodeProject:
		return exec.NewProject(children[0], lp.ProjectExprs, lp.Schema, c.evaluator), nil
	case logicalplan.NodeAggregate:
		return exec.NewHashAggregate(children[0], lp.GroupBy, lp.Aggregates, lp.Having, lp.Schema, c.evaluator), nil
	case logicalplan.NodeSort:
		if lp.LimitCount != 0 {
			return exec.NewTopN(children[0], lp.SortKeys, lp.LimitCount, lp.LimitOffset), nil
		}
		return exec.NewSort(children[0], lp.SortKeys), nil
	case logicalplan.NodeLimit:
		return exec.NewLimit(children[0], lp.LimitCount, lp.LimitOffset), nil
	case logicalplan.NodeJoin:
		return c.buildJoin(pp, children[0], children[1])
	case logicalplan.NodeSetOp:
		return exec.NewSetOp(children[0], children[1], lp.SetOp), nil
	case logicalplan.NodeDistinct:
		return exec.NewDistinct(children[0]), nil
	case logicalplan.NodeUnnest:
		return exec.NewUnnest(children[0], lp.UnnestExpr, lp.Schema, c.evaluator), nil
	case logicalplan.NodeGapFill:
		return exec.NewGapFill(children[0], lp.GapFillBucketCol, lp.GapFillBucketSize, lp.GapFillPartitionCols, lp.GapFillFillCols, lp.Schema), nil
	case logicalplan.NodeWindow:
		return c.buildWindow(ctx, lp, children[0])
	case logicalplan.NodeValues:
		return c.buildValues(lp)
	case logicalplan.NodeCTERef:
		return c.buildCTERef(ctx, lp)
	case logicalplan.NodeDML:
		return c.buildDML(ctx, lp, children)
	default:
		return nil, yachtsql.NewUnsupportedFeatureError(fmt.Sprintf("plan node kind %q", lp.Kind))
	}
}

func (c *Compiler) buildScan(ctx context.Context, pp *physicalplan.PhysicalPlan) (exec.Operator, error) {
	lp := pp.Logical
	if cte, ok := c.ctes[lp.TableName]; ok {
		return exec.NewScan(ctx, cte, yachtsql.ScanOptions{})
	}
	ds, err := c.catalog.GetDataset(ctx, lp.TableName)
	if err != nil {
		return nil, err
	}
	if ds.Kind == yachtsql.DatasetKindView {
		view, ok := ds.ViewQuery.(*logicalplan.LogicalPlan)
		if !ok {
			return nil, yachtsql.NewInvalidQueryError("INVALID_VIEW_QUERY", "view "+lp.TableName+" has no compiled query plan")
		}
		return c.Build(ctx, physicalplan.Plan(view, physicalplan.Hints{
			EstimatedRows: physicalplan.EstimateRows(ctx, view, c.catalog),
		}))
	}
	opts := yachtsql.ScanOptions{Predicate: lp.Predicate}
	var scan exec.Operator
	if pp.ScanStrategy == physicalplan.ScanStrategyParallel {
		scan, err = exec.NewParallelScan(ctx, ds.Backend, opts, pp.Workers, c.scanBreaker)
	} else {
		scan, err = exec.NewScan(ctx, ds.Backend, opts)
	}
	if err != nil {
		return nil, err
	}
	if lp.Predicate != nil {
		// Backends may ignore ScanOptions.Predicate, so it is re-applied here.
		return exec.NewFilter(scan, lp.Predicate, c.evaluator), nil
	}
	return scan, nil
}

// buildJoin dispatches on the physical plan's chosen JoinStrategy, falling
// back to nested-loop whenever a hash join was chosen but the condition's
// equi-join keys can't be split cleanly per side (defensive: the fallback
// keeps the query correct even if a future optimizer rule produces a
// mixed-side equality physicalplan.chooseJoinStrategy didn't anticipate).
func (c *Compiler) buildJoin(pp *physicalplan.PhysicalPlan, left, right exec.Operator) (exec.Operator, error) {
	lp := pp.Logical
	switch pp.JoinStrategy {
	case physicalplan.JoinStrategyCross:
		return exec.NewCrossJoin(left, right, lp.Schema), nil
	case physicalplan.JoinStrategyHash:
		leftKeys, rightKeys, ok := splitEquiJoinKeys(lp.JoinCond, left.Schema(), right.Schema())
		if ok {
			return exec.NewHashJoin(left, right, lp.JoinType, leftKeys, rightKeys, lp.Schema, c.evaluator), nil
		}
		return exec.NewNestedLoopJoin(left, right, lp.JoinType, lp.JoinCond, lp.Schema, c.evaluator), nil
	default:
		return exec.NewNestedLoopJoin(left, right, lp.JoinType, lp.JoinCond, lp.Schema, c.evaluator), nil
	}
}

// splitEquiJoinKeys decomposes an equality (or AND of equalities) join
// condition into per-side key expressions, resolving each ColumnRef operand
// against whichever side's schema declares that column name.
func splitEquiJoinKeys(cond yachtsql.Expr, leftSchema, rightSchema yachtsql.Schema) ([]yachtsql.Expr, []yachtsql.Expr, bool) {
	var leftKeys, rightKeys []yachtsql.Expr
	var collect func(e yachtsql.Expr) bool
	collect = func(e yachtsql.Expr) bool {
		switch n := e.(type) {
		case yachtsql.AndExpr:
			for _, operand := range n.Operands {
				if !collect(operand) {
					return false
				}
			}
			return len(n.Operands) > 0
		case yachtsql.BinaryOp:
			if n.Op != yachtsql.OpEq {
				return false
			}
			lSide, rSide, ok := sidesOf(n.Left, n.Right, leftSchema, rightSchema)
			if !ok {
				return false
			}
			leftKeys = append(leftKeys, lSide)
			rightKeys = append(rightKeys, rSide)
			return true
		default:
			return false
		}
	}
	if !collect(cond) {
		return nil, nil, false
	}
	return leftKeys, rightKeys, true
}

// sidesOf orders a and b into (left-side expr, right-side expr) by checking
// which schema each resolves a ColumnRef against; non-ColumnRef operands
// (literals, expressions over a single side) disqualify the equality from
// hash-join key extraction since a hash join key must be a pure per-side
// column reference.
func sidesOf(a, b yachtsql.Expr, leftSchema, rightSchema yachtsql.Schema) (yachtsql.Expr, yachtsql.Expr, bool) {
	aCol, aOK := a.(yachtsql.ColumnRef)
	bCol, bOK := b.(yachtsql.ColumnRef)
	if !aOK || !bOK {
		return nil, nil, false
	}
	if leftSchema.FieldIndex(aCol.Column) >= 0 && rightSchema.FieldIndex(bCol.Column) >= 0 {
		return a, b, true
	}
	if leftSchema.FieldIndex(bCol.Column) >= 0 && rightSchema.FieldIndex(aCol.Column) >= 0 {
		return b, a, true
	}
	return nil, nil, false
}

func (c *Compiler) buildWindow(ctx context.Context, lp *logicalplan.LogicalPlan, child exec.Operator) (exec.Operator, error) {
	childSchema := child.Schema()
	rows, err := exec.Run(ctx, child)
	if err != nil {
		return nil, err
	}

	columns := make([][]yachtsql.Value, len(lp.WindowExprs))
	for i, call := range lp.WindowExprs {
		vals, err := c.window.Evaluate(call, rows, childSchema)
		if err != nil {
			return nil, err
		}
		columns[i] = vals
	}

	out := make([]yachtsql.Record, len(rows))
	for r, row := range rows {
		values := append([]yachtsql.Value{}, row.Values...)
		for i := range lp.WindowExprs {
			values = append(values, columns[i][r])
		}
		out[r] = yachtsql.Record{Values: values}
	}
	return newMaterializedOperator(lp.Schema, out), nil
}

func (c *Compiler) buildValues(lp *logicalplan.LogicalPlan) (exec.Operator, error) {
	emptyRow := eval.RecordRow{Schema: yachtsql.Schema{}, Record: yachtsql.Record{}}
	rows := make([]yachtsql.Record, len(lp.ValuesRows))
	for i, exprRow := range lp.ValuesRows {
		values := make([]yachtsql.Value, len(exprRow))
		for j, e := range exprRow {
			v, err := c.evaluator.Eval(e, emptyRow)
			if err != nil {
				return nil, err
			}
			values[j] = v
		}
		rows[i] = yachtsql.Record{Values: values}
	}
	return newMaterializedOperator(lp.Schema, rows), nil
}

// buildWithCTE expects pp.Children[0] to be the CTE's defining query and
// pp.Children[1] the main body that may reference it via NodeCTERef; both
// came from the same physicalplan.Plan call over the WITH node's Children,
// so strategies chosen for either side are already reflected in pp.
func (c *Compiler) buildWithCTE(ctx context.Context, pp *physicalplan.PhysicalPlan) (exec.Operator, error) {
	lp := pp.Logical
	if len(pp.Children) != 2 {
		return nil, yachtsql.NewInvalidQueryError("INVALID_CTE", "WITH node requires a body and a main query child")
	}
	bodyOp, err := c.Build(ctx, pp.Children[0])
	if err != nil {
		return nil, err
	}
	rows, err := exec.Run(ctx, bodyOp)
	if err != nil {
		return nil, err
	}
	c.ctes[lp.CTEName] = yachtsql.NewTable(pp.Children[0].Logical.Schema, rows)
	return c.Build(ctx, pp.Children[1])
}

func (c *Compiler) buildCTERef(ctx context.Context, lp *logicalplan.LogicalPlan) (exec.Operator, error) {
	cte, ok := c.ctes[lp.CTEName]
	if !ok {
		return nil, yachtsql.NewInvalidQueryError("UNKNOWN_CTE", "reference to undefined CTE "+lp.CTEName)
	}
	return exec.NewScan(ctx, cte, yachtsql.ScanOptions{})
}

// buildDML expects pp.Children[0] (when present) to be the DML node's
// source: the INSERT ... SELECT/VALUES producer, or, for UPDATE/DELETE, a
// scan over the target table kept only so DMLOperator.Close has something
// to release. UPDATE/DELETE themselves run through lp.Predicate pushed
// straight to the backend (see exec.DMLOperator.execUpdate/execDelete),
// not through the source operator.
func (c *Compiler) buildDML(ctx context.Context, lp *logicalplan.LogicalPlan, children []exec.Operator) (exec.Operator, error) {
	ds, err := c.catalog.GetDataset(ctx, lp.DMLTable)
	if err != nil {
		return nil, err
	}
	if lp.DMLKind == logicalplan.DMLInsert && len(children) == 0 {
		return nil, yachtsql.NewInvalidQueryError("INVALID_DML", "INSERT requires a source")
	}
	var source exec.Operator
	if len(children) > 0 {
		source = children[0]
	} else {
		source, err = exec.NewScan(ctx, ds.Backend, yachtsql.ScanOptions{})
		if err != nil {
			return nil, err
		}
	}
	return exec.NewDML(lp.DMLKind, ds.Backend, source, lp.Predicate, lp.DMLSet, c.evaluator), nil
}

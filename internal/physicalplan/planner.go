// Package physicalplan converts an optimized logicalplan.LogicalPlan into a
// PhysicalPlan that names a concrete operator strategy for every join and
// scan node (hash vs. nested-loop join, parallel vs. serial scan).
// It generalizes the internal.EvaluateRoutingPolicy — which picked
// a storage tier and DuckDB-vs-hot-path strategy from config and query
// hints — into per-node physical strategy selection over the full plan
// tree.
package physicalplan

import (
	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

// JoinStrategy names the physical algorithm chosen for a join node.
type JoinStrategy string

const (
	JoinStrategyHash       JoinStrategy = "hash"
	JoinStrategyNestedLoop JoinStrategy = "nested_loop"
	JoinStrategyCross      JoinStrategy = "cross"
)

// ScanStrategy names whether a scan is split across parallel workers.
type ScanStrategy string

const (
	ScanStrategySerial   ScanStrategy = "serial"
	ScanStrategyParallel ScanStrategy = "parallel"
)

// Hints carries the row-count and config knobs the planner consults to pick
// strategies, the generalization of the DuckDBConfig/FederatedQueryOptions
// pair that EvaluateRoutingPolicy consumed.
type Hints struct {
	EstimatedRows      map[*logicalplan.LogicalPlan]int64
	ParallelEnabled    bool
	ParallelThreshold  int64
	MaxWorkers         int
}

// PhysicalPlan mirrors the LogicalPlan tree shape, attaching a concrete
// strategy and worker count to each node.
type PhysicalPlan struct {
	Logical      *logicalplan.LogicalPlan
	Children     []*PhysicalPlan
	JoinStrategy JoinStrategy
	ScanStrategy ScanStrategy
	Workers      int
	Reason       string
}

// Plan converts a logical plan into a physical plan, choosing a join
// strategy per join node and a scan strategy per scan node.
func Plan(lp *logicalplan.LogicalPlan, hints Hints) *PhysicalPlan {
	children := make([]*PhysicalPlan, len(lp.Children))
	for i, c := range lp.Children {
		children[i] = Plan(c, hints)
	}

	pp := &PhysicalPlan{Logical: lp, Children: children}

	switch lp.Kind {
	case logicalplan.NodeJoin:
		pp.JoinStrategy, pp.Reason = chooseJoinStrategy(lp, hints)
	case logicalplan.NodeScan:
		pp.ScanStrategy, pp.Workers, pp.Reason = chooseScanStrategy(lp, hints)
	}

	return pp
}

// chooseJoinStrategy prefers a hash join whenever the join condition is a
// simple equality (the common case a build-side hash table serves well),
// falling back to nested-loop for non-equi joins and cross for JoinCross,
// mirroring the strategy-switch-with-explicit-Reason shape in
// EvaluateRoutingPolicy.
func chooseJoinStrategy(lp *logicalplan.LogicalPlan, hints Hints) (JoinStrategy, string) {
	if lp.JoinType == logicalplan.JoinCross {
		return JoinStrategyCross, "cross join has no condition"
	}
	if isEquiJoin(lp) {
		return JoinStrategyHash, "equi-join condition supports hash build"
	}
	return JoinStrategyNestedLoop, "non-equi join condition requires nested loop"
}

func isEquiJoin(lp *logicalplan.LogicalPlan) bool {
	if lp.JoinCond == nil {
		return false
	}
	return exprIsEquality(lp.JoinCond)
}

// exprIsEquality reports whether e is an equality comparison, or an AND of
// equality comparisons (the shape a multi-column join key takes).
func exprIsEquality(e yachtsql.Expr) bool {
	switch n := e.(type) {
	case yachtsql.BinaryOp:
		return n.Op == yachtsql.OpEq
	case yachtsql.AndExpr:
		for _, operand := range n.Operands {
			if !exprIsEquality(operand) {
				return false
			}
		}
		return len(n.Operands) > 0
	default:
		return false
	}
}

// chooseScanStrategy splits a scan across parallel workers only when
// parallelism is enabled and the estimated row count clears the configured
// threshold, the same gating EvaluateRoutingPolicy applied to its
// cost-first/hybrid strategies via opts.MaxRows comparisons.
func chooseScanStrategy(lp *logicalplan.LogicalPlan, hints Hints) (ScanStrategy, int, string) {
	if !hints.ParallelEnabled {
		return ScanStrategySerial, 1, "parallel execution disabled"
	}
	rows, known := hints.EstimatedRows[lp]
	if !known || rows < hints.ParallelThreshold {
		return ScanStrategySerial, 1, "estimated rows below parallel threshold"
	}
	workers := hints.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	return ScanStrategyParallel, workers, "estimated rows exceed parallel threshold"
}

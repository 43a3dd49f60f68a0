package physicalplan

import (
	"context"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

// rowCounter is implemented by backends that can report their row count
// cheaply (yachtsql.Table does); a Scan estimate is only as good as this.
type rowCounter interface {
	NumRows() int
}

// EstimateRows walks the plan tree bottom-up and returns a row-count
// estimate per node, following the propagation rules chooseScanStrategy's
// parallel-scan gate was written to expect: Scan pulls the catalog's actual
// row count; Filter/Project/Distinct pass the input estimate through
// unchanged; Limit takes the smaller of its bound and the input (or just its
// bound, when the input isn't known); Join and CrossJoin multiply their two
// sides; a set op sums (UNION), takes the minimum (INTERSECT), or keeps the
// left side's count (EXCEPT); every other node kind passes its first child's
// estimate through. A node missing from the result means no estimate could
// be derived for it - chooseScanStrategy treats that the same as before,
// falling back to a serial scan.
func EstimateRows(ctx context.Context, lp *logicalplan.LogicalPlan, catalog yachtsql.Catalog) map[*logicalplan.LogicalPlan]int64 {
	estimates := map[*logicalplan.LogicalPlan]int64{}
	estimateNode(ctx, lp, catalog, estimates)
	return estimates
}

func estimateNode(ctx context.Context, lp *logicalplan.LogicalPlan, catalog yachtsql.Catalog, estimates map[*logicalplan.LogicalPlan]int64) (int64, bool) {
	childRows := make([]int64, len(lp.Children))
	childKnown := make([]bool, len(lp.Children))
	for i, c := range lp.Children {
		childRows[i], childKnown[i] = estimateNode(ctx, c, catalog, estimates)
	}

	var rows int64
	var known bool

	switch lp.Kind {
	case logicalplan.NodeScan:
		rows, known = scanRowCount(ctx, lp.TableName, catalog)
	case logicalplan.NodeFilter, logicalplan.NodeProject, logicalplan.NodeDistinct:
		rows, known = firstChild(childRows, childKnown)
	case logicalplan.NodeLimit:
		rows, known = estimateLimit(lp.LimitCount, childRows, childKnown)
	case logicalplan.NodeJoin:
		rows, known = estimateProduct(childRows, childKnown)
	case logicalplan.NodeSetOp:
		rows, known = estimateSetOp(lp.SetOp, childRows, childKnown)
	default:
		rows, known = firstChild(childRows, childKnown)
	}

	if known {
		estimates[lp] = rows
	}
	return rows, known
}

func firstChild(childRows []int64, childKnown []bool) (int64, bool) {
	if len(childRows) == 0 {
		return 0, false
	}
	return childRows[0], childKnown[0]
}

func estimateLimit(limit int64, childRows []int64, childKnown []bool) (int64, bool) {
	input, inputKnown := firstChild(childRows, childKnown)
	if limit <= 0 {
		return input, inputKnown
	}
	if inputKnown && input < limit {
		return input, true
	}
	return limit, true
}

func estimateProduct(childRows []int64, childKnown []bool) (int64, bool) {
	if len(childRows) != 2 || !childKnown[0] || !childKnown[1] {
		return 0, false
	}
	return childRows[0] * childRows[1], true
}

func estimateSetOp(op logicalplan.SetOpKind, childRows []int64, childKnown []bool) (int64, bool) {
	switch op {
	case logicalplan.SetOpUnion, logicalplan.SetOpUnionAll:
		var sum int64
		if len(childRows) == 0 {
			return 0, false
		}
		for i := range childRows {
			if !childKnown[i] {
				return 0, false
			}
			sum += childRows[i]
		}
		return sum, true
	case logicalplan.SetOpIntersect:
		if len(childRows) == 0 || !childKnown[0] {
			return 0, false
		}
		min := childRows[0]
		for i := 1; i < len(childRows); i++ {
			if !childKnown[i] {
				return 0, false
			}
			if childRows[i] < min {
				min = childRows[i]
			}
		}
		return min, true
	case logicalplan.SetOpExcept:
		return firstChild(childRows, childKnown)
	default:
		return firstChild(childRows, childKnown)
	}
}

func scanRowCount(ctx context.Context, tableName string, catalog yachtsql.Catalog) (int64, bool) {
	if catalog == nil {
		return 0, false
	}
	ds, err := catalog.GetDataset(ctx, tableName)
	if err != nil || ds == nil || ds.Backend == nil {
		return 0, false
	}
	rc, ok := ds.Backend.(rowCounter)
	if !ok {
		return 0, false
	}
	return int64(rc.NumRows()), true
}

package optimizer

import (
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

// SortLimitToTopNRule fuses a Limit directly above a Sort into a single
// bounded-sort node so the executor runs one sort operator that returns only
// the top rows (exec.SortOperator still sorts the full input before
// slicing), the relational-plan equivalent of the buildSortSQL appending a
// SQL LIMIT clause to an ORDER BY rather than sorting client-side.
//
// There is no distinct TopN node kind; fusion is represented by annotating
// the Sort node with the Limit's bounds and dropping the separate Limit
// node, which internal/compile recognizes via LimitCount being set on a
// NodeSort.
type SortLimitToTopNRule struct{}

func (r *SortLimitToTopNRule) Name() string { return "sort_limit_to_topn" }

func (r *SortLimitToTopNRule) Apply(p *logicalplan.LogicalPlan) (*logicalplan.LogicalPlan, bool) {
	if p.Kind != logicalplan.NodeLimit || len(p.Children) != 1 {
		return p, false
	}
	child := p.Children[0]
	if child.Kind != logicalplan.NodeSort || child.LimitCount != 0 {
		return p, false
	}
	// A non-zero offset means the bounded-heap TopN strategy (which only
	// tracks the top LimitCount rows) would discard rows the Limit still
	// needs to skip past; keep Limit over Sort in that case.
	if p.LimitOffset != 0 {
		return p, false
	}
	fused := *child
	fused.LimitCount = p.LimitCount
	fused.LimitOffset = p.LimitOffset
	return &fused, true
}

package optimizer

import (
	"testing"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

func TestSortLimitToTopNFusesWithoutOffset(t *testing.T) {
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "amount", Kind: yachtsql.KindInt64}}}
	scan := logicalplan.Scan("accounts", schema)
	sorted := logicalplan.Sort(scan, []yachtsql.SortExpr{{Expr: yachtsql.ColumnRef{Column: "amount"}, Dir: yachtsql.SortDesc}})
	limited := logicalplan.Limit(sorted, 5, 0)

	rule := &SortLimitToTopNRule{}
	rewritten, changed := rule.Apply(limited)
	if !changed {
		t.Fatalf("expected fusion to fire")
	}
	if rewritten.Kind != logicalplan.NodeSort || rewritten.LimitCount != 5 {
		t.Fatalf("expected a fused NodeSort with LimitCount=5, got kind=%v count=%d", rewritten.Kind, rewritten.LimitCount)
	}
}

func TestSortLimitToTopNKeepsLimitWhenOffsetPresent(t *testing.T) {
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "amount", Kind: yachtsql.KindInt64}}}
	scan := logicalplan.Scan("accounts", schema)
	sorted := logicalplan.Sort(scan, []yachtsql.SortExpr{{Expr: yachtsql.ColumnRef{Column: "amount"}, Dir: yachtsql.SortDesc}})
	limited := logicalplan.Limit(sorted, 5, 10)

	rule := &SortLimitToTopNRule{}
	_, changed := rule.Apply(limited)
	if changed {
		t.Fatalf("expected fusion to be skipped when LimitOffset != 0, a bounded heap can't skip rows it never kept")
	}
}

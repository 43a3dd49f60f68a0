package exec

import (
	"context"
	"testing"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
)

func testSchema() yachtsql.Schema {
	return yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "id", Kind: yachtsql.KindInt64},
		{Name: "amount", Kind: yachtsql.KindInt64},
	}}
}

func testBackend() *yachtsql.Table {
	rows := []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.Int64Value(1), yachtsql.Int64Value(10)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(2), yachtsql.Int64Value(20)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(3), yachtsql.Int64Value(30)}},
	}
	return yachtsql.NewTable(testSchema(), rows)
}

func TestScanAndFilter(t *testing.T) {
	ctx := context.Background()
	scan, err := NewScan(ctx, testBackend(), yachtsql.ScanOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pred := yachtsql.BinaryOp{Op: yachtsql.OpGt, Left: yachtsql.ColumnRef{Column: "amount"}, Right: yachtsql.Literal{Value: yachtsql.Int64Value(15)}}
	filter := NewFilter(scan, pred, eval.New(nil))

	rows, err := Run(ctx, filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestLimitOperator(t *testing.T) {
	ctx := context.Background()
	scan, err := NewScan(ctx, testBackend(), yachtsql.ScanOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	limit := NewLimit(scan, 2, 1)
	rows, err := Run(ctx, limit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	id, _ := rows[0].Get(0).AsInt64()
	if id != 2 {
		t.Errorf("expected first row id 2 (offset 1), got %d", id)
	}
}

func TestHashAggregateCountSum(t *testing.T) {
	ctx := context.Background()
	scan, err := NewScan(ctx, testBackend(), yachtsql.ScanOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	schema := yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "cnt", Kind: yachtsql.KindInt64},
		{Name: "total", Kind: yachtsql.KindFloat64},
	}}
	agg := NewHashAggregate(scan, nil, []yachtsql.AggregateFunc{
		{Name: "count", Args: []yachtsql.Expr{yachtsql.ColumnRef{Column: "id"}}},
		{Name: "sum", Args: []yachtsql.Expr{yachtsql.ColumnRef{Column: "amount"}}},
	}, nil, schema, eval.New(nil))

	rows, err := Run(ctx, agg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	cnt, _ := rows[0].Get(0).AsInt64()
	if cnt != 3 {
		t.Errorf("expected count 3, got %d", cnt)
	}
	total, _ := rows[0].Get(1).AsFloat64()
	if total != 60 {
		t.Errorf("expected sum 60, got %v", total)
	}
}

package exec

import (
	"context"
	"testing"
	"time"

	"github.com/yachtsql/yachtsql"
)

func TestGapFillHourlyBucket(t *testing.T) {
	ctx := context.Background()
	schema := yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "ts", Kind: yachtsql.KindTimestamp},
		{Name: "value", Kind: yachtsql.KindInt64},
	}}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.TimestampValue(base), yachtsql.Int64Value(10)}},
		{Values: []yachtsql.Value{yachtsql.TimestampValue(base.Add(2 * time.Hour)), yachtsql.Int64Value(30)}},
	}
	backend := yachtsql.NewTable(schema, rows)
	scan, err := NewScan(ctx, backend, yachtsql.ScanOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gf := NewGapFill(scan, "ts", yachtsql.Interval{Micros: int64(time.Hour / time.Microsecond)}, nil, nil, schema)
	out, err := Run(ctx, gf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 bucketed rows (00,01,02), got %d", len(out))
	}
	v0, _ := out[0].Get(1).AsInt64()
	if v0 != 10 {
		t.Errorf("expected first bucket to carry value 10, got %d", v0)
	}
	if !out[1].Get(1).IsNull() {
		t.Errorf("expected the middle synthesized bucket's value to be null")
	}
	v2, _ := out[2].Get(1).AsInt64()
	if v2 != 30 {
		t.Errorf("expected last bucket to carry value 30, got %d", v2)
	}
}

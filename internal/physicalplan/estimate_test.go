package physicalplan

import (
	"context"
	"testing"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

func testCatalog(t *testing.T, rows int) yachtsql.Catalog {
	t.Helper()
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "id", Kind: yachtsql.KindInt64}}}
	records := make([]yachtsql.Record, rows)
	for i := range records {
		records[i] = yachtsql.Record{Values: []yachtsql.Value{yachtsql.Int64Value(int64(i))}}
	}
	backend := yachtsql.NewTable(schema, records)
	catalog := yachtsql.NewMemCatalog()
	if err := catalog.CreateDataset(context.Background(), &yachtsql.Dataset{
		Name: "t", Kind: yachtsql.DatasetKindTable, Schema: schema, Backend: backend,
	}); err != nil {
		t.Fatalf("create dataset: %v", err)
	}
	return catalog
}

func TestEstimateRowsScanPullsActualCount(t *testing.T) {
	catalog := testCatalog(t, 500)
	scan := logicalplan.Scan("t", yachtsql.Schema{})
	estimates := EstimateRows(context.Background(), scan, catalog)
	if estimates[scan] != 500 {
		t.Errorf("expected scan estimate 500, got %d", estimates[scan])
	}
}

func TestEstimateRowsPassesThroughFilterAndLimit(t *testing.T) {
	catalog := testCatalog(t, 500)
	scan := logicalplan.Scan("t", yachtsql.Schema{})
	filtered := logicalplan.Filter(scan, yachtsql.Literal{Value: yachtsql.BoolValue(true)})
	limited := logicalplan.Limit(filtered, 10, 0)

	estimates := EstimateRows(context.Background(), limited, catalog)
	if estimates[filtered] != 500 {
		t.Errorf("expected Filter to pass through the scan estimate of 500, got %d", estimates[filtered])
	}
	if estimates[limited] != 10 {
		t.Errorf("expected Limit 10 over 500 rows to estimate min(10,500)=10, got %d", estimates[limited])
	}
}

func TestEstimateRowsJoinMultipliesSides(t *testing.T) {
	catalog := testCatalog(t, 4)
	left := logicalplan.Scan("t", yachtsql.Schema{})
	right := logicalplan.Scan("t", yachtsql.Schema{})
	joined := logicalplan.Join(left, right, logicalplan.JoinInner, nil, yachtsql.Schema{})

	estimates := EstimateRows(context.Background(), joined, catalog)
	if estimates[joined] != 16 {
		t.Errorf("expected join estimate 4*4=16, got %d", estimates[joined])
	}
}

func TestChooseScanStrategyUsesPopulatedEstimate(t *testing.T) {
	catalog := testCatalog(t, 10_000)
	scan := logicalplan.Scan("t", yachtsql.Schema{})
	estimates := EstimateRows(context.Background(), scan, catalog)

	hints := Hints{EstimatedRows: estimates, ParallelEnabled: true, ParallelThreshold: 1000, MaxWorkers: 4}
	strategy, workers, _ := chooseScanStrategy(scan, hints)
	if strategy != ScanStrategyParallel {
		t.Errorf("expected a populated 10000-row estimate over a 1000-row threshold to select parallel, got %v", strategy)
	}
	if workers != 4 {
		t.Errorf("expected 4 workers, got %d", workers)
	}
}

func TestChooseScanStrategyFallsBackWhenEstimateUnknown(t *testing.T) {
	scan := logicalplan.Scan("missing", yachtsql.Schema{})
	hints := Hints{ParallelEnabled: true, ParallelThreshold: 1000, MaxWorkers: 4}
	strategy, _, _ := chooseScanStrategy(scan, hints)
	if strategy != ScanStrategySerial {
		t.Errorf("expected an unknown estimate to fall back to serial, got %v", strategy)
	}
}

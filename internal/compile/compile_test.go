package compile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/ddl"
	"github.com/yachtsql/yachtsql/internal/eval"
	"github.com/yachtsql/yachtsql/internal/exec"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
	"github.com/yachtsql/yachtsql/internal/optimizer"
	"github.com/yachtsql/yachtsql/internal/physicalplan"
	"github.com/yachtsql/yachtsql/internal/registry"
	"github.com/yachtsql/yachtsql/internal/window"
)

func accountsSchema() yachtsql.Schema {
	return yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "id", Kind: yachtsql.KindInt64},
		{Name: "name", Kind: yachtsql.KindString},
		{Name: "amount", Kind: yachtsql.KindInt64},
	}}
}

func newTestCompiler(t *testing.T) (*Compiler, yachtsql.Catalog) {
	t.Helper()
	catalog := yachtsql.NewMemCatalog()
	rows := []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.Int64Value(1), yachtsql.StringValue("alice"), yachtsql.Int64Value(10)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(2), yachtsql.StringValue("bob"), yachtsql.Int64Value(25)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(3), yachtsql.StringValue("carol"), yachtsql.Int64Value(40)}},
	}
	backend := yachtsql.NewTable(accountsSchema(), rows)
	err := ddl.CreateTable(context.Background(), catalog, ddl.CreateTableSpec{
		Name: "accounts", Schema: accountsSchema(), Backend: backend,
	})
	require.NoError(t, err)

	evaluator := eval.New(registry.New())
	return New(catalog, evaluator, window.New(evaluator)), catalog
}

func TestBuildScanFilterProject(t *testing.T) {
	compiler, catalog := newTestCompiler(t)
	ctx := context.Background()

	scan := logicalplan.Scan("accounts", accountsSchema())
	pred := yachtsql.BinaryOp{Op: yachtsql.OpGt, Left: yachtsql.ColumnRef{Column: "amount"}, Right: yachtsql.Literal{Value: yachtsql.Int64Value(15)}}
	filtered := logicalplan.Filter(scan, pred)
	projectSchema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "name", Kind: yachtsql.KindString}}}
	projected := logicalplan.Project(filtered, []yachtsql.Expr{yachtsql.ColumnRef{Column: "name"}}, []string{"name"}, projectSchema)

	pp := physicalplan.Plan(projected, physicalplan.Hints{
		EstimatedRows: physicalplan.EstimateRows(ctx, projected, catalog),
	})
	op, err := compiler.Build(ctx, pp)
	require.NoError(t, err)

	rows, err := exec.Run(ctx, op)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	name, _ := rows[0].Get(0).AsString()
	require.Equal(t, "bob", name)
}

func TestBuildTopNFusion(t *testing.T) {
	compiler, catalog := newTestCompiler(t)
	ctx := context.Background()

	scan := logicalplan.Scan("accounts", accountsSchema())
	sorted := logicalplan.Sort(scan, []yachtsql.SortExpr{{Expr: yachtsql.ColumnRef{Column: "amount"}, Dir: yachtsql.SortDesc}})
	limited := logicalplan.Limit(sorted, 1, 0)

	rule := &optimizer.SortLimitToTopNRule{}
	fused, changed := rule.Apply(limited)
	require.True(t, changed, "expected SortLimitToTopNRule to fuse Limit into Sort")
	require.Equal(t, logicalplan.NodeSort, fused.Kind)

	pp := physicalplan.Plan(fused, physicalplan.Hints{
		EstimatedRows: physicalplan.EstimateRows(ctx, fused, catalog),
	})
	op, err := compiler.Build(ctx, pp)
	require.NoError(t, err)

	rows, err := exec.Run(ctx, op)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	amount, _ := rows[0].Get(2).AsInt64()
	require.Equal(t, int64(40), amount)
}

func TestBuildHashJoin(t *testing.T) {
	compiler, catalog := newTestCompiler(t)
	ctx := context.Background()

	ordersSchema := yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "account_id", Kind: yachtsql.KindInt64},
		{Name: "total", Kind: yachtsql.KindInt64},
	}}
	orders := yachtsql.NewTable(ordersSchema, []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.Int64Value(1), yachtsql.Int64Value(100)}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(2), yachtsql.Int64Value(200)}},
	})
	require.NoError(t, ddl.CreateTable(ctx, catalog, ddl.CreateTableSpec{Name: "orders", Schema: ordersSchema, Backend: orders}))

	left := logicalplan.Scan("accounts", accountsSchema())
	right := logicalplan.Scan("orders", ordersSchema)
	joinSchema := yachtsql.Schema{Fields: append(append([]yachtsql.Field{}, accountsSchema().Fields...), ordersSchema.Fields...)}
	cond := yachtsql.BinaryOp{
		Op:    yachtsql.OpEq,
		Left:  yachtsql.ColumnRef{Column: "id"},
		Right: yachtsql.ColumnRef{Column: "account_id"},
	}
	joined := logicalplan.Join(left, right, logicalplan.JoinInner, cond, joinSchema)

	estimates := physicalplan.EstimateRows(ctx, joined, catalog)
	require.Equal(t, int64(6), estimates[joined], "expected left(3) * right(2) row-count estimate for the join")

	pp := physicalplan.Plan(joined, physicalplan.Hints{EstimatedRows: estimates})
	require.Equal(t, physicalplan.JoinStrategyHash, pp.JoinStrategy)

	op, err := compiler.Build(ctx, pp)
	require.NoError(t, err)
	rows, err := exec.Run(ctx, op)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestBuildDMLInsert(t *testing.T) {
	compiler, catalog := newTestCompiler(t)
	ctx := context.Background()

	valuesSchema := accountsSchema()
	values := &logicalplan.LogicalPlan{
		Kind:   logicalplan.NodeValues,
		Schema: valuesSchema,
		ValuesRows: [][]yachtsql.Expr{
			{yachtsql.Literal{Value: yachtsql.Int64Value(4)}, yachtsql.Literal{Value: yachtsql.StringValue("dave")}, yachtsql.Literal{Value: yachtsql.Int64Value(5)}},
		},
	}
	insert := &logicalplan.LogicalPlan{
		Kind:      logicalplan.NodeDML,
		DMLKind:   logicalplan.DMLInsert,
		DMLTable:  "accounts",
		DMLSource: values,
		Children:  []*logicalplan.LogicalPlan{values},
	}

	pp := physicalplan.Plan(insert, physicalplan.Hints{
		EstimatedRows: physicalplan.EstimateRows(ctx, insert, catalog),
	})
	op, err := compiler.Build(ctx, pp)
	require.NoError(t, err)

	rows, err := exec.Run(ctx, op)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	affected, _ := rows[0].Get(0).AsInt64()
	require.Equal(t, int64(1), affected)

	ds, err := catalog.GetDataset(ctx, "accounts")
	require.NoError(t, err)
	require.Equal(t, 4, ds.Backend.(*yachtsql.Table).NumRows())
}

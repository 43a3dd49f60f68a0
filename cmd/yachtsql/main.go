// Command yachtsql wires the engine's packages together end to end: a
// catalog of in-memory tables, the scalar function registry, the
// expression evaluator, the rule-based optimizer, the physical planner,
// and internal/compile's operator compiler, then runs a demo pipeline and
// prints the result.
//
// Grounded on the cmd/server/main.go (zap logger bootstrap,
// env-driven configuration, getEnv/getEnvInt helpers) and cmd/tools/main.go
// (flag.NewFlagSet subcommand dispatch) — generalized from "boot an HTTP
// server over Postgres" into "boot a query engine over in-memory datasets".
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/compile"
	"github.com/yachtsql/yachtsql/internal/ddl"
	"github.com/yachtsql/yachtsql/internal/eval"
	"github.com/yachtsql/yachtsql/internal/exec"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
	"github.com/yachtsql/yachtsql/internal/optimizer"
	"github.com/yachtsql/yachtsql/internal/physicalplan"
	"github.com/yachtsql/yachtsql/internal/registry"
	"github.com/yachtsql/yachtsql/internal/window"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "demo":
		if err := runDemo(logger, os.Args[2:]); err != nil {
			sugar.Fatalf("demo: %v", err)
		}
	case "version":
		fmt.Println("yachtsql dev")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: yachtsql <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  demo      Run a sample query through the full planning/execution pipeline")
	fmt.Println("  version   Print the build version")
}

// runDemo builds a small in-memory "accounts" table, plans and executes
// SELECT name, amount FROM accounts WHERE amount > :threshold ORDER BY
// amount DESC LIMIT :limit, and prints the result in the requested
// ResultFormat, the same env-overridable-default shape
// cmd/server/main.go's DatabaseConfig bootstrap uses.
func runDemo(logger *zap.Logger, args []string) error {
	flags := flag.NewFlagSet("demo", flag.ContinueOnError)
	threshold := flags.Int64("threshold", int64(getEnvInt("YACHTSQL_DEMO_THRESHOLD", 15)), "minimum amount row filter")
	limit := flags.Int64("limit", int64(getEnvInt("YACHTSQL_DEMO_LIMIT", 10)), "max rows returned")
	format := flags.String("format", getEnv("YACHTSQL_RESULT_FORMAT", string(yachtsql.FormatRowOfJSON)), "result format: row_of_json|bigquery_v2")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	sv := yachtsql.DefaultSessionVars(yachtsql.DialectStandard)
	sv.ResultFormat = yachtsql.ResultFormat(*format)

	catalog := yachtsql.NewMemCatalog()
	schema := yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "id", Kind: yachtsql.KindInt64},
		{Name: "name", Kind: yachtsql.KindString},
		{Name: "amount", Kind: yachtsql.KindInt64},
	}}
	backend := yachtsql.NewTable(schema, sampleAccounts())
	if err := ddl.CreateTable(ctx, catalog, ddl.CreateTableSpec{Name: "accounts", Schema: schema, Backend: backend}); err != nil {
		return fmt.Errorf("register accounts table: %w", err)
	}

	funcs := registry.New()
	evaluator := eval.New(funcs)
	windowEngine := window.New(evaluator)
	opt := optimizer.New(logger, 10)
	compiler := compile.New(catalog, evaluator, windowEngine)

	plan := buildDemoPlan(schema, *threshold, *limit)

	optimized, err := opt.Optimize(ctx, plan)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	pp := physicalplan.Plan(optimized, physicalplan.Hints{
		EstimatedRows:     physicalplan.EstimateRows(ctx, optimized, catalog),
		ParallelEnabled:   false,
		ParallelThreshold: 1 << 30,
	})

	start := time.Now()
	op, err := compiler.Build(ctx, pp)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	rows, err := exec.Run(ctx, op)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	result := yachtsql.QueryResult{
		Schema:        optimized.Schema,
		Rows:          rows,
		RowCount:      int64(len(rows)),
		ExecutionTime: time.Since(start),
	}

	encoded, err := result.Render(sv.ResultFormat)
	if err != nil {
		return fmt.Errorf("render result: %w", err)
	}
	fmt.Println(string(encoded))
	logger.Info("demo query complete",
		zap.Int64("row_count", result.RowCount),
		zap.Duration("execution_time", result.ExecutionTime),
	)
	return nil
}

// buildDemoPlan constructs the logical plan literally, standing in for the
// external parser/binder the engine leaves out of scope: Scan -> Filter ->
// Project -> Sort (fused with Limit by the optimizer's
// SortLimitToTopNRule).
func buildDemoPlan(schema yachtsql.Schema, threshold, limit int64) *logicalplan.LogicalPlan {
	scan := logicalplan.Scan("accounts", schema)

	pred := yachtsql.BinaryOp{
		Op:    yachtsql.OpGt,
		Left:  yachtsql.ColumnRef{Column: "amount"},
		Right: yachtsql.Literal{Value: yachtsql.Int64Value(threshold)},
	}
	filtered := logicalplan.Filter(scan, pred)

	projectSchema := yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "name", Kind: yachtsql.KindString},
		{Name: "amount", Kind: yachtsql.KindInt64},
	}}
	projected := logicalplan.Project(
		filtered,
		[]yachtsql.Expr{yachtsql.ColumnRef{Column: "name"}, yachtsql.ColumnRef{Column: "amount"}},
		[]string{"name", "amount"},
		projectSchema,
	)

	sorted := logicalplan.Sort(projected, []yachtsql.SortExpr{
		{Expr: yachtsql.ColumnRef{Column: "amount"}, Dir: yachtsql.SortDesc},
	})

	return logicalplan.Limit(sorted, limit, 0)
}

func sampleAccounts() []yachtsql.Record {
	type row struct {
		id     int64
		name   string
		amount int64
	}
	data := []row{
		{1, "alice", 10},
		{2, "bob", 25},
		{3, "carol", 40},
		{4, "dave", 5},
		{5, "erin", 30},
	}
	rows := make([]yachtsql.Record, len(data))
	for i, r := range data {
		rows[i] = yachtsql.Record{Values: []yachtsql.Value{
			yachtsql.Int64Value(r.id),
			yachtsql.StringValue(r.name),
			yachtsql.Int64Value(r.amount),
		}}
	}
	return rows
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

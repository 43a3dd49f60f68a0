package storageadapter

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/yachtsql/yachtsql"
)

func pgTestSchema() yachtsql.Schema {
	return yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "id", Kind: yachtsql.KindInt64},
		{Name: "name", Kind: yachtsql.KindString, Nullable: true},
	}}
}

func TestPostgresScanConvertsRows(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "alice").AddRow(int64(2), nil)
	mock.ExpectQuery(`SELECT "id", "name" FROM "accounts"`).WillReturnRows(rows)

	backend := NewPostgresBackend(mock, "accounts", pgTestSchema())
	it, err := backend.Scan(ctx, yachtsql.ScanOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer it.Close()

	batch, err := it.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(batch.Rows))
	}
	name, ok := batch.Rows[0].Get(1).AsString()
	if !ok || name != "alice" {
		t.Errorf("expected first row's name to be alice, got %q", name)
	}
	if !batch.Rows[1].Get(1).IsNull() {
		t.Error("expected second row's name to be null")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresInsertBindsArgsPositionally(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO "accounts"`).
		WithArgs(int64(1), "alice").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	backend := NewPostgresBackend(mock, "accounts", pgTestSchema())
	err = backend.Insert(ctx, []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.Int64Value(1), yachtsql.StringValue("alice")}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPushdownSQLRendersEqualityAndAnd(t *testing.T) {
	pred := yachtsql.AndExpr{Operands: []yachtsql.Expr{
		yachtsql.BinaryOp{Op: yachtsql.OpEq, Left: yachtsql.ColumnRef{Column: "id"}, Right: yachtsql.Literal{Value: yachtsql.Int64Value(1)}},
		yachtsql.IsNullExpr{Operand: yachtsql.ColumnRef{Column: "name"}, Negate: true},
	}}
	var args []any
	sql, ok := pushdownSQL(pred, pgPlaceholder, &args)
	if !ok {
		t.Fatal("expected pushdownSQL to handle AND-of-eq-and-not-null")
	}
	want := `(("id" = $1) AND "name" IS NOT NULL)`
	if sql != want {
		t.Errorf("got %q, want %q", sql, want)
	}
	if len(args) != 1 {
		t.Fatalf("expected 1 bound arg, got %d", len(args))
	}
}

func TestPushdownSQLRejectsOr(t *testing.T) {
	pred := yachtsql.OrExpr{Operands: []yachtsql.Expr{
		yachtsql.BinaryOp{Op: yachtsql.OpEq, Left: yachtsql.ColumnRef{Column: "id"}, Right: yachtsql.Literal{Value: yachtsql.Int64Value(1)}},
	}}
	var args []any
	if _, ok := pushdownSQL(pred, pgPlaceholder, &args); ok {
		t.Error("expected OR to be left unpushed")
	}
}

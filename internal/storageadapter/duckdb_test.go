package storageadapter

import (
	"context"
	"testing"

	"github.com/yachtsql/yachtsql"
)

func duckdbTestSchema() yachtsql.Schema {
	return yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "id", Kind: yachtsql.KindInt64},
		{Name: "name", Kind: yachtsql.KindString, Nullable: true},
	}}
}

func TestDuckDBBackendScanAndInsert(t *testing.T) {
	ctx := context.Background()
	client, warnings, err := NewDuckDBClient(ctx, DuckDBConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()
	if len(warnings) != 0 {
		t.Fatalf("unexpected extension warnings with no extensions configured: %v", warnings)
	}

	if _, err := client.DB.ExecContext(ctx, `CREATE TABLE accounts (id BIGINT, name VARCHAR)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	backend := NewDuckDBBackend(client, "accounts", duckdbTestSchema())
	err = backend.Insert(ctx, []yachtsql.Record{
		{Values: []yachtsql.Value{yachtsql.Int64Value(1), yachtsql.StringValue("alice")}},
		{Values: []yachtsql.Value{yachtsql.Int64Value(2), yachtsql.NullValue()}},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	it, err := backend.Scan(ctx, yachtsql.ScanOptions{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	defer it.Close()

	batch, err := it.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if len(batch.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(batch.Rows))
	}
}

func TestDuckDBHealthCheck(t *testing.T) {
	ctx := context.Background()
	client, _, err := NewDuckDBClient(ctx, DuckDBConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("expected health check to pass, got %v", err)
	}
}

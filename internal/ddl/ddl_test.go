package ddl

import (
	"context"
	"testing"

	"github.com/yachtsql/yachtsql"
)

func TestClassifyRoutesKeywords(t *testing.T) {
	cases := map[string]StatementJob{
		"CREATE_TABLE": JobDDL,
		"INSERT":       JobDML,
		"SELECT":       JobQuery,
		"SET":          JobUtility,
		"MERGE":        JobMerge,
		"DECLARE":      JobScripting,
	}
	for kw, want := range cases {
		got := Classify(Statement{Keyword: kw})
		if got != want {
			t.Errorf("Classify(%s) = %s, want %s", kw, got, want)
		}
	}
}

func TestCreateTableThenDuplicateFails(t *testing.T) {
	ctx := context.Background()
	catalog := yachtsql.NewMemCatalog()
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "id", Kind: yachtsql.KindInt64}}}

	if err := CreateTable(ctx, catalog, CreateTableSpec{Name: "t1", Schema: schema}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CreateTable(ctx, catalog, CreateTableSpec{Name: "t1", Schema: schema}); err == nil {
		t.Fatal("expected an error creating a duplicate table")
	}
	if err := CreateTable(ctx, catalog, CreateTableSpec{Name: "t1", Schema: schema, IfNotExists: true}); err != nil {
		t.Fatalf("expected IfNotExists to suppress the duplicate error, got %v", err)
	}
}

func TestAlterTableAddColumn(t *testing.T) {
	ctx := context.Background()
	catalog := yachtsql.NewMemCatalog()
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "id", Kind: yachtsql.KindInt64}}}
	if err := CreateTable(ctx, catalog, CreateTableSpec{Name: "t1", Schema: schema}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := AlterTable(ctx, catalog, AlterTableSpec{
		Table: "t1",
		Op:    AlterAddColumn,
		Column: yachtsql.Field{Name: "name", Kind: yachtsql.KindString, Nullable: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ds, err := catalog.GetDataset(ctx, "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ds.Schema.Field("name"); !ok {
		t.Error("expected the new column to appear in the table's schema")
	}
}

func TestValidateSchemaRejectsDuplicateColumns(t *testing.T) {
	schema := yachtsql.Schema{Fields: []yachtsql.Field{
		{Name: "id", Kind: yachtsql.KindInt64},
		{Name: "ID", Kind: yachtsql.KindInt64},
	}}
	if err := ValidateSchema(schema); err == nil {
		t.Fatal("expected an error for case-insensitively duplicate columns")
	}
}

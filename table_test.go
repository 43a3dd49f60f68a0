package yachtsql

import (
	"context"
	"testing"
)

func sampleSchema() Schema {
	return Schema{Fields: []Field{
		{Name: "id", Kind: KindInt64},
		{Name: "name", Kind: KindString, Nullable: true},
	}}
}

func sampleRows() []Record {
	return []Record{
		{Values: []Value{Int64Value(1), StringValue("alice")}},
		{Values: []Value{Int64Value(2), NullValue()}},
		{Values: []Value{Int64Value(3), StringValue("carol")}},
	}
}

func TestNewTableRowsRoundTrip(t *testing.T) {
	schema := sampleSchema()
	rows := sampleRows()
	table := NewTable(schema, rows)

	if table.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", table.NumRows())
	}
	got := table.Rows()
	for i, row := range got {
		if !row.Get(0).Eq(rows[i].Get(0)) {
			t.Errorf("row %d: id mismatch", i)
		}
	}
	if !got[1].Get(1).IsNull() {
		t.Error("expected row 1's name to be null")
	}
}

func TestTableScanProjection(t *testing.T) {
	ctx := context.Background()
	table := NewTable(sampleSchema(), sampleRows())

	it, err := table.Scan(ctx, ScanOptions{Columns: []string{"name"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer it.Close()

	batch, err := it.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Schema.Fields) != 1 || batch.Schema.Fields[0].Name != "name" {
		t.Errorf("expected projected schema with only 'name', got %+v", batch.Schema.Fields)
	}
	if batch.Len() != 3 {
		t.Errorf("expected 3 rows in batch, got %d", batch.Len())
	}

	_, err = it.Next(ctx)
	if err != ErrIteratorDone {
		t.Errorf("expected ErrIteratorDone after exhausting rows, got %v", err)
	}
}

func TestTableScanUnknownColumn(t *testing.T) {
	ctx := context.Background()
	table := NewTable(sampleSchema(), sampleRows())
	_, err := table.Scan(ctx, ScanOptions{Columns: []string{"nope"}})
	if !IsErrorKind(err, ErrorKindColumnNotFound) {
		t.Errorf("expected ColumnNotFound error, got %v", err)
	}
}

func TestTableInsertDelete(t *testing.T) {
	ctx := context.Background()
	table := NewTable(sampleSchema(), sampleRows())

	if err := table.Insert(ctx, []Record{{Values: []Value{Int64Value(4), StringValue("dave")}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.NumRows() != 4 {
		t.Fatalf("expected 4 rows after insert, got %d", table.NumRows())
	}

	pred := BinaryOp{Op: OpEq, Left: ColumnRef{Column: "id"}, Right: Literal{Value: Int64Value(2)}}
	n, err := table.Delete(ctx, pred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row deleted, got %d", n)
	}
	if table.NumRows() != 3 {
		t.Errorf("expected 3 rows after delete, got %d", table.NumRows())
	}
}

func TestTableUpdate(t *testing.T) {
	ctx := context.Background()
	table := NewTable(sampleSchema(), sampleRows())

	pred := BinaryOp{Op: OpEq, Left: ColumnRef{Column: "id"}, Right: Literal{Value: Int64Value(1)}}
	n, err := table.Update(ctx, pred, func(r Record) (Record, error) {
		r.Values[1] = StringValue("alice-updated")
		return r, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row updated, got %d", n)
	}
	row := table.Row(0)
	name, _ := row.Get(1).AsString()
	if name != "alice-updated" {
		t.Errorf("expected updated name, got %s", name)
	}
}

package yachtsql

import (
	"testing"
)

func TestExprMarshalUnmarshalRoundTrip(t *testing.T) {
	original := AndExpr{Operands: []Expr{
		BinaryOp{Op: OpEq, Left: ColumnRef{Column: "status"}, Right: Literal{Value: StringValue("active")}},
		BinaryOp{Op: OpGt, Left: ColumnRef{Column: "age"}, Right: Literal{Value: Int64Value(18)}},
	}}

	data, err := MarshalExpr(original)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}

	decoded, err := UnmarshalExpr(data)
	if err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}

	and, ok := decoded.(AndExpr)
	if !ok {
		t.Fatalf("expected AndExpr, got %T", decoded)
	}
	if len(and.Operands) != 2 {
		t.Fatalf("expected 2 operands, got %d", len(and.Operands))
	}
	bop, ok := and.Operands[0].(BinaryOp)
	if !ok {
		t.Fatalf("expected BinaryOp, got %T", and.Operands[0])
	}
	if bop.Op != OpEq {
		t.Errorf("expected OpEq, got %s", bop.Op)
	}
	col, ok := bop.Left.(ColumnRef)
	if !ok || col.Column != "status" {
		t.Errorf("expected column ref 'status', got %+v", bop.Left)
	}
}

func TestUnmarshalExprUnknownKind(t *testing.T) {
	_, err := UnmarshalExpr([]byte(`{"kind":"not_a_kind","payload":{}}`))
	if err == nil {
		t.Error("expected error for unknown expr kind")
	}
}

func TestIsNullExprRoundTrip(t *testing.T) {
	original := IsNullExpr{Operand: ColumnRef{Column: "deleted_at"}, Negate: true}
	data, err := MarshalExpr(original)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	decoded, err := UnmarshalExpr(data)
	if err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	isNull, ok := decoded.(IsNullExpr)
	if !ok {
		t.Fatalf("expected IsNullExpr, got %T", decoded)
	}
	if !isNull.Negate {
		t.Error("expected Negate to round-trip true")
	}
}

func TestSchemaFieldLookupCaseInsensitive(t *testing.T) {
	s := Schema{Fields: []Field{
		{Name: "UserID", Kind: KindInt64},
		{Name: "email", Kind: KindString, Nullable: true},
	}}
	if idx := s.FieldIndex("userid"); idx != 0 {
		t.Errorf("expected case-insensitive match at index 0, got %d", idx)
	}
	if _, ok := s.Field("missing"); ok {
		t.Error("expected missing field lookup to fail")
	}
	pk, ok := s.PrimaryKey()
	if ok || pk != nil {
		t.Error("expected no primary key declared")
	}
}

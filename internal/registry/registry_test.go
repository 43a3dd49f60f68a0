package registry

import (
	"testing"

	"github.com/yachtsql/yachtsql"
)

func TestUpperLower(t *testing.T) {
	r := New()
	v, err := r.CallScalar("upper", []yachtsql.Value{yachtsql.StringValue("abc")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, _ := v.AsString()
	if s != "ABC" {
		t.Errorf("expected ABC, got %s", s)
	}
}

func TestCoalescePicksFirstNonNull(t *testing.T) {
	r := New()
	v, err := r.CallScalar("coalesce", []yachtsql.Value{yachtsql.NullValue(), yachtsql.Int64Value(5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, _ := v.AsInt64()
	if n != 5 {
		t.Errorf("expected 5, got %d", n)
	}
}

func TestUnknownFunctionErrors(t *testing.T) {
	r := New()
	_, err := r.CallScalar("nonexistent_fn", nil)
	if err == nil {
		t.Fatal("expected an error for an unregistered function")
	}
}

func TestReturnKindMatchesCall(t *testing.T) {
	r := New()
	k, err := r.ReturnKind("length", []yachtsql.ValueKind{yachtsql.KindString})
	if err != nil || k != yachtsql.KindInt64 {
		t.Fatalf("expected int64, got %v err %v", k, err)
	}
}

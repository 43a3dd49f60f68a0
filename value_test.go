package yachtsql

import (
	"testing"
)

func TestValueIsNull(t *testing.T) {
	if !NullValue().IsNull() {
		t.Error("expected NullValue() to be null")
	}
	if Int64Value(0).IsNull() {
		t.Error("expected Int64Value(0) to not be null")
	}
}

func TestValueEqNullNeverEqual(t *testing.T) {
	if NullValue().Eq(NullValue()) {
		t.Error("expected null = null to be false under Eq (three-valued logic belongs to the evaluator)")
	}
	if NullValue().Eq(Int64Value(0)) {
		t.Error("expected null = 0 to be false")
	}
}

func TestValueEqNumericCrossKind(t *testing.T) {
	if !Int64Value(3).Eq(Float64Value(3.0)) {
		t.Error("expected int64(3) = float64(3.0)")
	}
	if Int64Value(3).Eq(Float64Value(3.0001)) {
		t.Error("expected int64(3) != float64(3.0001) beyond epsilon")
	}
}

func TestValueEqString(t *testing.T) {
	if !StringValue("a").Eq(StringValue("a")) {
		t.Error("expected equal strings to be Eq")
	}
	if StringValue("a").Eq(StringValue("b")) {
		t.Error("expected unequal strings to not be Eq")
	}
}

func TestValueEqArray(t *testing.T) {
	a := ArrayValue([]Value{Int64Value(1), Int64Value(2)})
	b := ArrayValue([]Value{Int64Value(1), Int64Value(2)})
	c := ArrayValue([]Value{Int64Value(1), Int64Value(3)})
	if !a.Eq(b) {
		t.Error("expected equal arrays to be Eq")
	}
	if a.Eq(c) {
		t.Error("expected differing arrays to not be Eq")
	}
}

func TestStructValueFieldByName(t *testing.T) {
	sv := StructValue{Fields: []string{"A", "b"}, Values: []Value{Int64Value(1), StringValue("x")}}
	v, ok := sv.FieldByName("a")
	if !ok {
		t.Fatal("expected case-insensitive field lookup to find 'A'")
	}
	if i, _ := v.AsInt64(); i != 1 {
		t.Errorf("expected 1, got %d", i)
	}
	if _, ok := sv.FieldByName("missing"); ok {
		t.Error("expected missing field lookup to fail")
	}
}

func TestCoerceNumericPair(t *testing.T) {
	a, b, err := CoerceNumericPair(Int64Value(2), Float64Value(3.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Kind != KindFloat64 || b.Kind != KindFloat64 {
		t.Errorf("expected both widened to float64, got %s and %s", a.Kind, b.Kind)
	}
}

func TestCast(t *testing.T) {
	v, err := Cast(StringValue("42"), KindInt64, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.AsInt64(); !ok || i != 42 {
		t.Errorf("expected 42, got %v", v)
	}

	_, err = Cast(StringValue("not a number"), KindInt64, false)
	if err == nil {
		t.Error("expected error for unsafe cast of invalid string")
	}

	v, err = Cast(StringValue("not a number"), KindInt64, true)
	if err != nil {
		t.Fatalf("unexpected error for safe cast: %v", err)
	}
	if !v.IsNull() {
		t.Error("expected safe cast failure to yield null")
	}
}

func TestCompareNullsOrdering(t *testing.T) {
	cmp, err := Compare(NullValue(), Int64Value(1), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp != -1 {
		t.Errorf("expected null to sort low when nullsLow=true, got %d", cmp)
	}

	cmp, err = Compare(NullValue(), Int64Value(1), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp != 1 {
		t.Errorf("expected null to sort high when nullsLow=false, got %d", cmp)
	}
}

func TestNullBitmap(t *testing.T) {
	b := NewNullBitmap(10)
	for i := 0; i < 10; i++ {
		if !b.IsValid(i) {
			t.Errorf("expected row %d to start valid", i)
		}
	}
	b.SetNull(3)
	b.SetNull(7)
	if b.IsValid(3) || b.IsValid(7) {
		t.Error("expected rows 3 and 7 to be null")
	}
	if b.NullCount() != 2 {
		t.Errorf("expected null count 2, got %d", b.NullCount())
	}
	sliced := b.Slice(2, 8)
	if sliced.Len() != 6 {
		t.Errorf("expected slice length 6, got %d", sliced.Len())
	}
	if sliced.IsValid(1) { // original index 3
		t.Error("expected sliced row 1 (orig 3) to remain null")
	}
}

package yachtsql

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValueJSONRoundTrip(t *testing.T) {
	cases := []Value{
		NullValue(),
		BoolValue(true),
		Int64Value(42),
		Float64Value(3.5),
		StringValue("hello"),
		BytesValue([]byte("abc")),
		TimestampValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		ArrayValue([]Value{Int64Value(1), Int64Value(2)}),
		NumericValue(Numeric{Unscaled: 1234, Scale: 2}),
	}
	for _, want := range cases {
		data, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("marshal %v: %v", want, err)
		}
		var got Value
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if !got.Eq(want) && !(got.IsNull() && want.IsNull()) {
			t.Errorf("round trip mismatch: got %v, want %v (json %s)", got, want, data)
		}
		if got.Kind != want.Kind {
			t.Errorf("kind mismatch: got %v, want %v", got.Kind, want.Kind)
		}
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	row := Record{Values: []Value{Int64Value(1), StringValue("a"), NullValue()}}
	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(got.Values))
	}
	if !got.Values[2].IsNull() {
		t.Error("expected third value to stay null")
	}
}

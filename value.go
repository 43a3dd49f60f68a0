package yachtsql

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ValueKind tags the carrier a Value holds. A Value's type tag identifies its
// carrier exactly; IsNull is true iff Kind == KindNull.
type ValueKind string

const (
	KindNull      ValueKind = "null"
	KindBool      ValueKind = "bool"
	KindInt64     ValueKind = "int64"
	KindFloat64   ValueKind = "float64"
	KindNumeric   ValueKind = "numeric"
	KindString    ValueKind = "string"
	KindBytes     ValueKind = "bytes"
	KindDate      ValueKind = "date"
	KindTime      ValueKind = "time"
	KindTimestamp ValueKind = "timestamp"
	KindInterval  ValueKind = "interval"
	KindArray     ValueKind = "array"
	KindStruct    ValueKind = "struct"
	KindMap       ValueKind = "map"
	KindJSON      ValueKind = "json"
	KindUUID      ValueKind = "uuid"
	KindVector    ValueKind = "vector"
	KindGeography ValueKind = "geography"
	KindEnum      ValueKind = "enum"
)

// Numeric is a fixed-point decimal carried as an int64 unscaled value and a scale;
// the execution core does not implement a full bignum library (that belongs
// to a function-library body, out of scope here), so Numeric keeps
// enough precision for comparisons and arithmetic by tracking scale directly.
type Numeric struct {
	Unscaled int64 // unscaled integer value
	Scale    int32 // number of digits after the decimal point
}

func (n Numeric) Float64() float64 {
	return float64(n.Unscaled) / math.Pow10(int(n.Scale))
}

// Interval represents a SQL interval as months/days/micros, the same
// decomposition BigQuery, PostgreSQL and ClickHouse intervals agree on.
type Interval struct {
	Months int32
	Days   int32
	Micros int64
}

// StructValue is an ordered set of named fields, preserving declaration order
// for deterministic struct-literal display and field-index access.
type StructValue struct {
	Fields []string
	Values []Value
}

// FieldByName resolves a struct field case-insensitively.
func (s StructValue) FieldByName(name string) (Value, bool) {
	for i, f := range s.Fields {
		if eqFold(f, name) {
			return s.Values[i], true
		}
	}
	return Value{}, false
}

// EnumValue carries an enum label plus its declared ordinal so that two enum
// values from the same declared enum type can compare by ordinal.
type EnumValue struct {
	TypeName string
	Label    string
	Ordinal  int
}

// Value is a tagged union over every SQL value carrier. Null
// is a first-class variant, not a wrapped absence, so that three-valued-logic
// rules can dispatch on Kind alone.
type Value struct {
	Kind ValueKind

	boolVal   bool
	int64Val  int64
	floatVal  float64
	numVal    Numeric
	strVal    string
	bytesVal  []byte
	timeVal   time.Time
	intervalV Interval
	arrVal    []Value
	structVal StructValue
	mapVal    map[string]Value
	jsonVal   any
	uuidVal   uuid.UUID
	vectorVal []float64
	geoVal    string // WKT-encoded geography; geometric kernels are a function-library body, out of scope
	enumVal   EnumValue
}

func NullValue() Value                 { return Value{Kind: KindNull} }
func BoolValue(b bool) Value           { return Value{Kind: KindBool, boolVal: b} }
func Int64Value(i int64) Value         { return Value{Kind: KindInt64, int64Val: i} }
func Float64Value(f float64) Value     { return Value{Kind: KindFloat64, floatVal: f} }
func NumericValue(n Numeric) Value     { return Value{Kind: KindNumeric, numVal: n} }
func StringValue(s string) Value       { return Value{Kind: KindString, strVal: s} }
func BytesValue(b []byte) Value        { return Value{Kind: KindBytes, bytesVal: b} }
func DateValue(t time.Time) Value      { return Value{Kind: KindDate, timeVal: t} }
func TimeOfDayValue(t time.Time) Value { return Value{Kind: KindTime, timeVal: t} }
func TimestampValue(t time.Time) Value { return Value{Kind: KindTimestamp, timeVal: t} }
func IntervalValue(iv Interval) Value  { return Value{Kind: KindInterval, intervalV: iv} }
func ArrayValue(elems []Value) Value   { return Value{Kind: KindArray, arrVal: elems} }
func StructValueOf(sv StructValue) Value {
	return Value{Kind: KindStruct, structVal: sv}
}
func MapValue(m map[string]Value) Value { return Value{Kind: KindMap, mapVal: m} }
func JSONValue(v any) Value             { return Value{Kind: KindJSON, jsonVal: v} }
func UUIDValue(id uuid.UUID) Value      { return Value{Kind: KindUUID, uuidVal: id} }
func VectorValue(v []float64) Value     { return Value{Kind: KindVector, vectorVal: v} }
func GeographyValue(wkt string) Value   { return Value{Kind: KindGeography, geoVal: wkt} }
func EnumValueOf(ev EnumValue) Value    { return Value{Kind: KindEnum, enumVal: ev} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) AsBool() (bool, bool)           { return v.boolVal, v.Kind == KindBool }
func (v Value) AsInt64() (int64, bool)         { return v.int64Val, v.Kind == KindInt64 }
func (v Value) AsFloat64() (float64, bool)     { return v.floatVal, v.Kind == KindFloat64 }
func (v Value) AsNumeric() (Numeric, bool)     { return v.numVal, v.Kind == KindNumeric }
func (v Value) AsString() (string, bool)       { return v.strVal, v.Kind == KindString }
func (v Value) AsBytes() ([]byte, bool)        { return v.bytesVal, v.Kind == KindBytes }
func (v Value) AsTime() (time.Time, bool) {
	return v.timeVal, v.Kind == KindDate || v.Kind == KindTime || v.Kind == KindTimestamp
}
func (v Value) AsInterval() (Interval, bool)     { return v.intervalV, v.Kind == KindInterval }
func (v Value) AsArray() ([]Value, bool)         { return v.arrVal, v.Kind == KindArray }
func (v Value) AsStruct() (StructValue, bool)    { return v.structVal, v.Kind == KindStruct }
func (v Value) AsMap() (map[string]Value, bool)  { return v.mapVal, v.Kind == KindMap }
func (v Value) AsJSON() (any, bool)              { return v.jsonVal, v.Kind == KindJSON }
func (v Value) AsUUID() (uuid.UUID, bool)        { return v.uuidVal, v.Kind == KindUUID }
func (v Value) AsVector() ([]float64, bool)      { return v.vectorVal, v.Kind == KindVector }
func (v Value) AsGeography() (string, bool)      { return v.geoVal, v.Kind == KindGeography }
func (v Value) AsEnum() (EnumValue, bool)        { return v.enumVal, v.Kind == KindEnum }

// floatEpsilon is the tolerance used for float equality so Values wrapping
// float64 remain usable as map keys / Eq-comparable.
const floatEpsilon = 1e-9

// Eq implements SQL equality under three-valued logic: null compares unequal
// to everything including null (callers needing "null = null -> null" should
// go through the evaluator, which special-cases IS [NOT] DISTINCT FROM).
func (v Value) Eq(o Value) bool {
	if v.Kind == KindNull || o.Kind == KindNull {
		return false
	}
	if isNumericKind(v.Kind) && isNumericKind(o.Kind) {
		return math.Abs(numericAsFloat(v)-numericAsFloat(o)) <= floatEpsilon
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.boolVal == o.boolVal
	case KindString:
		return v.strVal == o.strVal
	case KindBytes:
		return string(v.bytesVal) == string(o.bytesVal)
	case KindDate, KindTime, KindTimestamp:
		return v.timeVal.Equal(o.timeVal)
	case KindInterval:
		return v.intervalV == o.intervalV
	case KindUUID:
		return v.uuidVal == o.uuidVal
	case KindEnum:
		return v.enumVal.TypeName == o.enumVal.TypeName && v.enumVal.Ordinal == o.enumVal.Ordinal
	case KindArray:
		if len(v.arrVal) != len(o.arrVal) {
			return false
		}
		for i := range v.arrVal {
			if !v.arrVal[i].Eq(o.arrVal[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if len(v.structVal.Values) != len(o.structVal.Values) {
			return false
		}
		for i := range v.structVal.Values {
			if !v.structVal.Values[i].Eq(o.structVal.Values[i]) {
				return false
			}
		}
		return true
	case KindGeography:
		return v.geoVal == o.geoVal
	case KindVector:
		if len(v.vectorVal) != len(o.vectorVal) {
			return false
		}
		for i := range v.vectorVal {
			if math.Abs(v.vectorVal[i]-o.vectorVal[i]) > floatEpsilon {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isNumericKind(k ValueKind) bool {
	return k == KindInt64 || k == KindFloat64 || k == KindNumeric
}

func numericAsFloat(v Value) float64 {
	switch v.Kind {
	case KindInt64:
		return float64(v.int64Val)
	case KindFloat64:
		return v.floatVal
	case KindNumeric:
		return v.numVal.Float64()
	default:
		return 0
	}
}

func eqFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return fmt.Sprintf("%v", v.boolVal)
	case KindInt64:
		return fmt.Sprintf("%d", v.int64Val)
	case KindFloat64:
		return fmt.Sprintf("%g", v.floatVal)
	case KindNumeric:
		return fmt.Sprintf("%g", v.numVal.Float64())
	case KindString:
		return v.strVal
	case KindUUID:
		return v.uuidVal.String()
	default:
		return fmt.Sprintf("%v", v.Kind)
	}
}

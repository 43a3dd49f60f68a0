package yachtsql

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// valueJSON is the wire shape a Value (un)marshals through: a Kind tag plus
// one populated field naming which carrier it holds, since Value's actual
// fields are unexported and encoding/json cannot see them directly. Needed
// by internal/snapshotexport, which persists Table rows as JSON.
type valueJSON struct {
	Kind      ValueKind    `json:"kind"`
	Bool      *bool        `json:"bool,omitempty"`
	Int64     *int64       `json:"int64,omitempty"`
	Float64   *float64     `json:"float64,omitempty"`
	Numeric   *Numeric     `json:"numeric,omitempty"`
	String    *string      `json:"string,omitempty"`
	Bytes     []byte       `json:"bytes,omitempty"`
	Time      *time.Time   `json:"time,omitempty"`
	Interval  *Interval    `json:"interval,omitempty"`
	Array     []Value      `json:"array,omitempty"`
	Struct    *StructValue `json:"struct,omitempty"`
	Map       map[string]Value `json:"map,omitempty"`
	JSON      any          `json:"json,omitempty"`
	UUID      *uuid.UUID   `json:"uuid,omitempty"`
	Vector    []float64    `json:"vector,omitempty"`
	Geography *string      `json:"geography,omitempty"`
	Enum      *EnumValue   `json:"enum,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	w := valueJSON{Kind: v.Kind}
	switch v.Kind {
	case KindNull:
	case KindBool:
		w.Bool = &v.boolVal
	case KindInt64:
		w.Int64 = &v.int64Val
	case KindFloat64:
		w.Float64 = &v.floatVal
	case KindNumeric:
		w.Numeric = &v.numVal
	case KindString:
		w.String = &v.strVal
	case KindBytes:
		w.Bytes = v.bytesVal
	case KindDate, KindTime, KindTimestamp:
		w.Time = &v.timeVal
	case KindInterval:
		w.Interval = &v.intervalV
	case KindArray:
		w.Array = v.arrVal
	case KindStruct:
		w.Struct = &v.structVal
	case KindMap:
		w.Map = v.mapVal
	case KindJSON:
		w.JSON = v.jsonVal
	case KindUUID:
		w.UUID = &v.uuidVal
	case KindVector:
		w.Vector = v.vectorVal
	case KindGeography:
		w.Geography = &v.geoVal
	case KindEnum:
		w.Enum = &v.enumVal
	}
	return json.Marshal(w)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var w valueJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "", KindNull:
		*v = NullValue()
	case KindBool:
		*v = BoolValue(derefBool(w.Bool))
	case KindInt64:
		*v = Int64Value(derefInt64(w.Int64))
	case KindFloat64:
		*v = Float64Value(derefFloat64(w.Float64))
	case KindNumeric:
		if w.Numeric != nil {
			*v = NumericValue(*w.Numeric)
		} else {
			*v = NumericValue(Numeric{})
		}
	case KindString:
		*v = StringValue(derefString(w.String))
	case KindBytes:
		*v = BytesValue(w.Bytes)
	case KindDate:
		*v = DateValue(derefTime(w.Time))
	case KindTime:
		*v = TimeOfDayValue(derefTime(w.Time))
	case KindTimestamp:
		*v = TimestampValue(derefTime(w.Time))
	case KindInterval:
		if w.Interval != nil {
			*v = IntervalValue(*w.Interval)
		} else {
			*v = IntervalValue(Interval{})
		}
	case KindArray:
		*v = ArrayValue(w.Array)
	case KindStruct:
		if w.Struct != nil {
			*v = StructValueOf(*w.Struct)
		} else {
			*v = StructValueOf(StructValue{})
		}
	case KindMap:
		*v = MapValue(w.Map)
	case KindJSON:
		*v = JSONValue(w.JSON)
	case KindUUID:
		if w.UUID != nil {
			*v = UUIDValue(*w.UUID)
		} else {
			*v = UUIDValue(uuid.UUID{})
		}
	case KindVector:
		*v = VectorValue(w.Vector)
	case KindGeography:
		*v = GeographyValue(derefString(w.Geography))
	case KindEnum:
		if w.Enum != nil {
			*v = EnumValueOf(*w.Enum)
		} else {
			*v = EnumValueOf(EnumValue{})
		}
	default:
		return fmt.Errorf("unknown value kind %q", w.Kind)
	}
	return nil
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat64(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefTime(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}

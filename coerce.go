package yachtsql

import (
	"fmt"
	"strconv"
	"time"
)

// numericRank orders the numeric coercion lattice int64 -> float64 ->
// Numeric; the higher rank of a mixed binary op's two operands is the kind
// both sides are widened to for comparison/arith.
func numericRank(k ValueKind) int {
	switch k {
	case KindInt64:
		return 0
	case KindFloat64:
		return 1
	case KindNumeric:
		return 2
	default:
		return -1
	}
}

// CoerceNumericPair widens two numeric Values to a common kind following the
// int64 -> float64 -> numeric lattice, returning values of
// matching Kind, or an error if either side isn't numeric.
func CoerceNumericPair(a, b Value) (Value, Value, error) {
	ra, rb := numericRank(a.Kind), numericRank(b.Kind)
	if ra < 0 {
		return Value{}, Value{}, NewTypeMismatchError(KindFloat64, a.Kind)
	}
	if rb < 0 {
		return Value{}, Value{}, NewTypeMismatchError(KindFloat64, b.Kind)
	}
	target := ra
	if rb > target {
		target = rb
	}
	na, err := widenNumeric(a, target)
	if err != nil {
		return Value{}, Value{}, err
	}
	nb, err := widenNumeric(b, target)
	if err != nil {
		return Value{}, Value{}, err
	}
	return na, nb, nil
}

func widenNumeric(v Value, targetRank int) (Value, error) {
	if numericRank(v.Kind) == targetRank {
		return v, nil
	}
	switch targetRank {
	case 1: // float64
		return Float64Value(numericAsFloat(v)), nil
	case 2: // numeric
		f := numericAsFloat(v)
		return NumericValue(Numeric{Unscaled: int64(f * 1e6), Scale: 6}), nil
	default:
		return v, nil
	}
}

// Cast converts v to targetKind under the engine's coercion rules. If
// safe is true, a failed conversion yields NullValue() instead of an error
// (SAFE_CAST semantics); otherwise it returns a TypeMismatch/parse error.
func Cast(v Value, targetKind ValueKind, safe bool) (Value, error) {
	if v.IsNull() {
		return NullValue(), nil
	}
	if v.Kind == targetKind {
		return v, nil
	}
	out, err := castValue(v, targetKind)
	if err != nil {
		if safe {
			return NullValue(), nil
		}
		return Value{}, err
	}
	return out, nil
}

func castValue(v Value, targetKind ValueKind) (Value, error) {
	switch targetKind {
	case KindInt64:
		switch v.Kind {
		case KindFloat64:
			f, _ := v.AsFloat64()
			return Int64Value(int64(f)), nil
		case KindNumeric:
			n, _ := v.AsNumeric()
			return Int64Value(int64(n.Float64())), nil
		case KindBool:
			b, _ := v.AsBool()
			if b {
				return Int64Value(1), nil
			}
			return Int64Value(0), nil
		case KindString:
			s, _ := v.AsString()
			i, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return Value{}, NewTypeMismatchError(KindInt64, KindString).WithDetails(map[string]any{"input": s})
			}
			return Int64Value(i), nil
		}
	case KindFloat64:
		switch v.Kind {
		case KindInt64:
			i, _ := v.AsInt64()
			return Float64Value(float64(i)), nil
		case KindNumeric:
			n, _ := v.AsNumeric()
			return Float64Value(n.Float64()), nil
		case KindString:
			s, _ := v.AsString()
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Value{}, NewTypeMismatchError(KindFloat64, KindString).WithDetails(map[string]any{"input": s})
			}
			return Float64Value(f), nil
		}
	case KindString:
		return StringValue(v.String()), nil
	case KindBool:
		switch v.Kind {
		case KindString:
			s, _ := v.AsString()
			b, err := strconv.ParseBool(s)
			if err != nil {
				return Value{}, NewTypeMismatchError(KindBool, KindString)
			}
			return BoolValue(b), nil
		case KindInt64:
			i, _ := v.AsInt64()
			return BoolValue(i != 0), nil
		}
	case KindTimestamp, KindDate, KindTime:
		switch v.Kind {
		case KindString:
			s, _ := v.AsString()
			layout := time.RFC3339
			if targetKind == KindDate {
				layout = "2006-01-02"
			}
			t, err := time.Parse(layout, s)
			if err != nil {
				return Value{}, NewTypeMismatchError(targetKind, KindString).WithDetails(map[string]any{"input": s})
			}
			return Value{Kind: targetKind, timeVal: t}, nil
		case KindDate, KindTime, KindTimestamp:
			return Value{Kind: targetKind, timeVal: v.timeVal}, nil
		}
	}
	return Value{}, NewTypeMismatchError(targetKind, v.Kind)
}

// Compare returns -1/0/1 comparing a and b under the total ordering
// required for ORDER BY and range predicates. Null sorts according to
// nullsLow (true => null is the minimum, so it sorts first under ASC;
// false => null is the maximum, PostgreSQL's NULLS LAST default under ASC).
func Compare(a, b Value, nullsLow bool) (int, error) {
	if a.IsNull() && b.IsNull() {
		return 0, nil
	}
	if a.IsNull() {
		if nullsLow {
			return -1, nil
		}
		return 1, nil
	}
	if b.IsNull() {
		if nullsLow {
			return 1, nil
		}
		return -1, nil
	}
	if isNumericKind(a.Kind) && isNumericKind(b.Kind) {
		fa, fb := numericAsFloat(a), numericAsFloat(b)
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.Kind != b.Kind {
		return 0, fmt.Errorf("yachtsql: cannot compare %s with %s", a.Kind, b.Kind)
	}
	switch a.Kind {
	case KindString:
		sa, _ := a.AsString()
		sb, _ := b.AsString()
		return stringsCompare(sa, sb), nil
	case KindBool:
		ba, _ := a.AsBool()
		bb, _ := b.AsBool()
		if ba == bb {
			return 0, nil
		}
		if !ba && bb {
			return -1, nil
		}
		return 1, nil
	case KindDate, KindTime, KindTimestamp:
		ta, _ := a.AsTime()
		tb, _ := b.AsTime()
		switch {
		case ta.Before(tb):
			return -1, nil
		case ta.After(tb):
			return 1, nil
		default:
			return 0, nil
		}
	case KindUUID:
		ua, _ := a.AsUUID()
		ub, _ := b.AsUUID()
		return stringsCompare(ua.String(), ub.String()), nil
	case KindEnum:
		return a.enumVal.Ordinal - b.enumVal.Ordinal, nil
	default:
		return 0, fmt.Errorf("yachtsql: %s is not orderable", a.Kind)
	}
}

func stringsCompare(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

package registry

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yachtsql/yachtsql"
)

func registerStringFunctions(r *Registry) {
	stringReturn := func([]yachtsql.ValueKind) (yachtsql.ValueKind, error) { return yachtsql.KindString, nil }
	int64Return := func([]yachtsql.ValueKind) (yachtsql.ValueKind, error) { return yachtsql.KindInt64, nil }

	r.Register(ScalarFunc{Name: "upper", ReturnKind: stringReturn, Call: unaryString(strings.ToUpper)})
	r.Register(ScalarFunc{Name: "lower", ReturnKind: stringReturn, Call: unaryString(strings.ToLower)})
	r.Register(ScalarFunc{Name: "trim", ReturnKind: stringReturn, Call: unaryString(strings.TrimSpace)})
	r.Register(ScalarFunc{Name: "length", ReturnKind: int64Return, Call: func(args []yachtsql.Value) (yachtsql.Value, error) {
		s, err := argString(args, 0, "length")
		if err != nil {
			return yachtsql.Value{}, err
		}
		return yachtsql.Int64Value(int64(len(s))), nil
	}})
	r.Register(ScalarFunc{Name: "concat", ReturnKind: stringReturn, Call: func(args []yachtsql.Value) (yachtsql.Value, error) {
		var b strings.Builder
		for _, a := range args {
			if a.IsNull() {
				return yachtsql.NullValue(), nil
			}
			b.WriteString(a.String())
		}
		return yachtsql.StringValue(b.String()), nil
	}})
	r.Register(ScalarFunc{Name: "substr", ReturnKind: stringReturn, Call: func(args []yachtsql.Value) (yachtsql.Value, error) {
		s, err := argString(args, 0, "substr")
		if err != nil {
			return yachtsql.Value{}, err
		}
		start, _ := args[1].AsInt64()
		length := int64(len(s)) - (start - 1)
		if len(args) > 2 {
			length, _ = args[2].AsInt64()
		}
		return yachtsql.StringValue(sliceSubstr(s, int(start), int(length))), nil
	}})
}

func registerMathFunctions(r *Registry) {
	float64Return := func([]yachtsql.ValueKind) (yachtsql.ValueKind, error) { return yachtsql.KindFloat64, nil }

	r.Register(ScalarFunc{Name: "abs", ReturnKind: float64Return, Call: unaryMath(math.Abs)})
	r.Register(ScalarFunc{Name: "ceil", ReturnKind: float64Return, Call: unaryMath(math.Ceil)})
	r.Register(ScalarFunc{Name: "floor", ReturnKind: float64Return, Call: unaryMath(math.Floor)})
	r.Register(ScalarFunc{Name: "sqrt", ReturnKind: float64Return, Call: unaryMath(math.Sqrt)})
	r.Register(ScalarFunc{Name: "round", ReturnKind: float64Return, Call: func(args []yachtsql.Value) (yachtsql.Value, error) {
		f, err := argFloat(args, 0, "round")
		if err != nil {
			return yachtsql.Value{}, err
		}
		places := 0
		if len(args) > 1 {
			p, _ := args[1].AsInt64()
			places = int(p)
		}
		mult := math.Pow10(places)
		return yachtsql.Float64Value(math.Round(f*mult) / mult), nil
	}})
}

func registerDateTimeFunctions(r *Registry) {
	r.Register(ScalarFunc{
		Name: "current_timestamp",
		ReturnKind: func([]yachtsql.ValueKind) (yachtsql.ValueKind, error) {
			return yachtsql.KindTimestamp, nil
		},
		Call: func([]yachtsql.Value) (yachtsql.Value, error) {
			return yachtsql.TimestampValue(time.Now().UTC()), nil
		},
	})
	r.Register(ScalarFunc{
		Name: "date_add",
		ReturnKind: func([]yachtsql.ValueKind) (yachtsql.ValueKind, error) {
			return yachtsql.KindTimestamp, nil
		},
		Call: func(args []yachtsql.Value) (yachtsql.Value, error) {
			if len(args) < 2 {
				return yachtsql.Value{}, fmt.Errorf("date_add requires 2 arguments")
			}
			t, ok := args[0].AsTime()
			if !ok {
				return yachtsql.Value{}, yachtsql.NewTypeMismatchError(yachtsql.KindTimestamp, args[0].Kind)
			}
			iv, ok := args[1].AsInterval()
			if !ok {
				return yachtsql.Value{}, yachtsql.NewTypeMismatchError(yachtsql.KindInterval, args[1].Kind)
			}
			t = t.AddDate(0, int(iv.Months), int(iv.Days)).Add(time.Duration(iv.Micros) * time.Microsecond)
			return yachtsql.TimestampValue(t), nil
		},
	})
}

// registerNullFunctions covers the COALESCE/IFNULL family, grounded on the
// same null-coalescing semantics internal/eval's Evaluator.evalAnd/evalOr
// already implement for boolean short-circuit, generalized to arbitrary
// value kinds.
func registerNullFunctions(r *Registry) {
	r.Register(ScalarFunc{
		Name: "coalesce",
		ReturnKind: func(argKinds []yachtsql.ValueKind) (yachtsql.ValueKind, error) {
			for _, k := range argKinds {
				if k != yachtsql.KindNull {
					return k, nil
				}
			}
			return yachtsql.KindNull, nil
		},
		Call: func(args []yachtsql.Value) (yachtsql.Value, error) {
			for _, a := range args {
				if !a.IsNull() {
					return a, nil
				}
			}
			return yachtsql.NullValue(), nil
		},
	})
	r.Register(ScalarFunc{
		Name: "ifnull",
		ReturnKind: func(argKinds []yachtsql.ValueKind) (yachtsql.ValueKind, error) {
			if len(argKinds) > 0 {
				return argKinds[0], nil
			}
			return yachtsql.KindNull, nil
		},
		Call: func(args []yachtsql.Value) (yachtsql.Value, error) {
			if len(args) < 2 {
				return yachtsql.Value{}, fmt.Errorf("ifnull requires 2 arguments")
			}
			if !args[0].IsNull() {
				return args[0], nil
			}
			return args[1], nil
		},
	})
}

func unaryString(f func(string) string) func([]yachtsql.Value) (yachtsql.Value, error) {
	return func(args []yachtsql.Value) (yachtsql.Value, error) {
		s, err := argString(args, 0, "")
		if err != nil {
			return yachtsql.Value{}, err
		}
		return yachtsql.StringValue(f(s)), nil
	}
}

func unaryMath(f func(float64) float64) func([]yachtsql.Value) (yachtsql.Value, error) {
	return func(args []yachtsql.Value) (yachtsql.Value, error) {
		v, err := argFloat(args, 0, "")
		if err != nil {
			return yachtsql.Value{}, err
		}
		return yachtsql.Float64Value(f(v)), nil
	}
}

func argString(args []yachtsql.Value, i int, fn string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%s: missing argument %d", fn, i)
	}
	if args[i].IsNull() {
		return "", nil
	}
	s, ok := args[i].AsString()
	if !ok {
		return "", yachtsql.NewTypeMismatchError(yachtsql.KindString, args[i].Kind)
	}
	return s, nil
}

func argFloat(args []yachtsql.Value, i int, fn string) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%s: missing argument %d", fn, i)
	}
	v := args[i]
	if f, ok := v.AsFloat64(); ok {
		return f, nil
	}
	if n, ok := v.AsInt64(); ok {
		return float64(n), nil
	}
	if n, ok := v.AsNumeric(); ok {
		return n.Float64(), nil
	}
	return 0, yachtsql.NewTypeMismatchError(yachtsql.KindFloat64, v.Kind)
}

// sliceSubstr applies SQL's 1-indexed SUBSTR(str, start, length) semantics,
// clamping out-of-range bounds rather than erroring (matching most SQL
// dialects' lenient substring behavior).
func sliceSubstr(s string, start, length int) string {
	if start < 1 {
		start = 1
	}
	if start > len(s) {
		return ""
	}
	begin := start - 1
	end := begin + length
	if length < 0 || end > len(s) {
		end = len(s)
	}
	if end < begin {
		return ""
	}
	return s[begin:end]
}

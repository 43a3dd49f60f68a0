package eval

import (
	"fmt"
	"strings"

	"github.com/yachtsql/yachtsql"
)

// Accumulator folds a stream of rows into a single Value, the per-group
// running state internal/exec's hash-aggregate operator keeps one of per
// distinct group key. This mirrors the stateless single-pass SQL
// clause generation only in spirit: there the database engine owned
// aggregation state, here the executor does.
type Accumulator interface {
	Step(args []yachtsql.Value) error
	Result() (yachtsql.Value, error)
}

// NewAccumulator builds the Accumulator for a named aggregate function.
// Unrecognized names return an error rather than silently no-op'ing, since a
// missing aggregate would otherwise manifest as a silently wrong COUNT/SUM.
func NewAccumulator(name string) (Accumulator, error) {
	switch strings.ToLower(name) {
	case "count":
		return &countAcc{}, nil
	case "count_distinct":
		return &countDistinctAcc{seen: map[string]struct{}{}}, nil
	case "sum":
		return &sumAcc{}, nil
	case "avg":
		return &avgAcc{}, nil
	case "min":
		return &minMaxAcc{isMin: true}, nil
	case "max":
		return &minMaxAcc{isMin: false}, nil
	case "array_agg":
		return &arrayAggAcc{}, nil
	case "any_value":
		return &anyValueAcc{}, nil
	case "string_agg":
		return &stringAggAcc{sep: ","}, nil
	default:
		return nil, fmt.Errorf("eval: unknown aggregate function %q", name)
	}
}

type countAcc struct{ n int64 }

func (a *countAcc) Step(args []yachtsql.Value) error {
	if len(args) == 0 || !args[0].IsNull() {
		a.n++
	}
	return nil
}
func (a *countAcc) Result() (yachtsql.Value, error) { return yachtsql.Int64Value(a.n), nil }

type countDistinctAcc struct {
	n    int64
	seen map[string]struct{}
}

func (a *countDistinctAcc) Step(args []yachtsql.Value) error {
	if len(args) == 0 || args[0].IsNull() {
		return nil
	}
	key := args[0].String()
	if _, ok := a.seen[key]; ok {
		return nil
	}
	a.seen[key] = struct{}{}
	a.n++
	return nil
}
func (a *countDistinctAcc) Result() (yachtsql.Value, error) { return yachtsql.Int64Value(a.n), nil }

type sumAcc struct {
	sum    float64
	any    bool
}

func (a *sumAcc) Step(args []yachtsql.Value) error {
	if len(args) == 0 || args[0].IsNull() {
		return nil
	}
	f, ok := numericAsFloat(args[0])
	if !ok {
		return fmt.Errorf("eval: SUM requires numeric argument")
	}
	a.sum += f
	a.any = true
	return nil
}
func (a *sumAcc) Result() (yachtsql.Value, error) {
	if !a.any {
		return yachtsql.NullValue(), nil
	}
	return yachtsql.Float64Value(a.sum), nil
}

type avgAcc struct {
	sum float64
	n   int64
}

func (a *avgAcc) Step(args []yachtsql.Value) error {
	if len(args) == 0 || args[0].IsNull() {
		return nil
	}
	f, ok := numericAsFloat(args[0])
	if !ok {
		return fmt.Errorf("eval: AVG requires numeric argument")
	}
	a.sum += f
	a.n++
	return nil
}
func (a *avgAcc) Result() (yachtsql.Value, error) {
	if a.n == 0 {
		return yachtsql.NullValue(), nil
	}
	return yachtsql.Float64Value(a.sum / float64(a.n)), nil
}

type minMaxAcc struct {
	isMin bool
	val   yachtsql.Value
	set   bool
}

func (a *minMaxAcc) Step(args []yachtsql.Value) error {
	if len(args) == 0 || args[0].IsNull() {
		return nil
	}
	if !a.set {
		a.val = args[0]
		a.set = true
		return nil
	}
	cmp, err := yachtsql.Compare(args[0], a.val, false)
	if err != nil {
		return err
	}
	if (a.isMin && cmp < 0) || (!a.isMin && cmp > 0) {
		a.val = args[0]
	}
	return nil
}
func (a *minMaxAcc) Result() (yachtsql.Value, error) {
	if !a.set {
		return yachtsql.NullValue(), nil
	}
	return a.val, nil
}

type arrayAggAcc struct {
	vals []yachtsql.Value
}

func (a *arrayAggAcc) Step(args []yachtsql.Value) error {
	if len(args) == 0 {
		return nil
	}
	a.vals = append(a.vals, args[0])
	return nil
}
func (a *arrayAggAcc) Result() (yachtsql.Value, error) {
	return yachtsql.ArrayValue(a.vals), nil
}

type anyValueAcc struct {
	val yachtsql.Value
	set bool
}

func (a *anyValueAcc) Step(args []yachtsql.Value) error {
	if a.set || len(args) == 0 || args[0].IsNull() {
		return nil
	}
	a.val = args[0]
	a.set = true
	return nil
}
func (a *anyValueAcc) Result() (yachtsql.Value, error) {
	if !a.set {
		return yachtsql.NullValue(), nil
	}
	return a.val, nil
}

type stringAggAcc struct {
	parts []string
	sep   string
}

func (a *stringAggAcc) Step(args []yachtsql.Value) error {
	if len(args) == 0 || args[0].IsNull() {
		return nil
	}
	s, ok := args[0].AsString()
	if !ok {
		return fmt.Errorf("eval: STRING_AGG requires string argument")
	}
	if len(args) > 1 {
		if sep, ok := args[1].AsString(); ok {
			a.sep = sep
		}
	}
	a.parts = append(a.parts, s)
	return nil
}
func (a *stringAggAcc) Result() (yachtsql.Value, error) {
	if len(a.parts) == 0 {
		return yachtsql.NullValue(), nil
	}
	return yachtsql.StringValue(strings.Join(a.parts, a.sep)), nil
}

func numericAsFloat(v yachtsql.Value) (float64, bool) {
	if f, ok := v.AsFloat64(); ok {
		return f, true
	}
	if i, ok := v.AsInt64(); ok {
		return float64(i), true
	}
	if n, ok := v.AsNumeric(); ok {
		return n.Float64(), true
	}
	return 0, false
}

package exec

import (
	"context"
	"fmt"
	"strings"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
)

// HashAggregateOperator groups its child's rows by groupBy expressions,
// feeding each aggregate's Accumulator, then emits one row per group.
// HAVING (if set) filters groups after aggregation, mirroring SQL's
// post-aggregation HAVING semantics.
type HashAggregateOperator struct {
	child      Operator
	groupBy    []yachtsql.Expr
	aggregates []yachtsql.AggregateFunc
	having     yachtsql.Expr
	schema     yachtsql.Schema
	evaluator  *eval.Evaluator

	materialized bool
	rows         []yachtsql.Record
	served       bool
}

func NewHashAggregate(child Operator, groupBy []yachtsql.Expr, aggregates []yachtsql.AggregateFunc, having yachtsql.Expr, schema yachtsql.Schema, evaluator *eval.Evaluator) *HashAggregateOperator {
	return &HashAggregateOperator{child: child, groupBy: groupBy, aggregates: aggregates, having: having, schema: schema, evaluator: evaluator}
}

func (h *HashAggregateOperator) Schema() yachtsql.Schema { return h.schema }

func (h *HashAggregateOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if !h.materialized {
		if err := h.materialize(ctx); err != nil {
			return yachtsql.RowBatch{}, err
		}
	}
	if h.served || len(h.rows) == 0 {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	h.served = true
	return yachtsql.RowBatch{Schema: h.schema, Rows: h.rows}, nil
}

type aggGroup struct {
	keyValues []yachtsql.Value
	accs      []eval.Accumulator
}

func (h *HashAggregateOperator) materialize(ctx context.Context) error {
	inSchema := h.child.Schema()
	groups := map[string]*aggGroup{}
	var order []string

	for {
		batch, err := h.child.Next(ctx)
		if err == yachtsql.ErrIteratorDone {
			break
		}
		if err != nil {
			return err
		}
		for _, row := range batch.Rows {
			rr := eval.RecordRow{Schema: inSchema, Record: row}
			keyValues := make([]yachtsql.Value, len(h.groupBy))
			var keyParts []string
			for i, g := range h.groupBy {
				v, err := h.evaluator.Eval(g, rr)
				if err != nil {
					return err
				}
				keyValues[i] = v
				keyParts = append(keyParts, v.String())
			}
			key := strings.Join(keyParts, "\x1f")

			group, ok := groups[key]
			if !ok {
				accs := make([]eval.Accumulator, len(h.aggregates))
				for i, agg := range h.aggregates {
					acc, err := eval.NewAccumulator(agg.Name)
					if err != nil {
						return err
					}
					accs[i] = acc
				}
				group = &aggGroup{keyValues: keyValues, accs: accs}
				groups[key] = group
				order = append(order, key)
			}

			for i, agg := range h.aggregates {
				if agg.Filter != nil {
					fv, err := h.evaluator.Eval(agg.Filter, rr)
					if err != nil {
						return err
					}
					if b, ok := fv.AsBool(); !ok || !b {
						continue
					}
				}
				args := make([]yachtsql.Value, len(agg.Args))
				for j, a := range agg.Args {
					v, err := h.evaluator.Eval(a, rr)
					if err != nil {
						return err
					}
					args[j] = v
				}
				if err := group.accs[i].Step(args); err != nil {
					return err
				}
			}
		}
	}

	if len(order) == 0 && len(h.groupBy) == 0 {
		// COUNT(*) over an empty input still yields one row with a zero.
		group := &aggGroup{}
		accs := make([]eval.Accumulator, len(h.aggregates))
		for i, agg := range h.aggregates {
			acc, err := eval.NewAccumulator(agg.Name)
			if err != nil {
				return err
			}
			accs[i] = acc
		}
		group.accs = accs
		groups[""] = group
		order = append(order, "")
	}

	var rows []yachtsql.Record
	for _, key := range order {
		group := groups[key]
		values := append([]yachtsql.Value{}, group.keyValues...)
		for i, acc := range group.accs {
			v, err := acc.Result()
			if err != nil {
				return fmt.Errorf("aggregate %s: %w", h.aggregates[i].Name, err)
			}
			values = append(values, v)
		}
		row := yachtsql.Record{Values: values}
		if h.having != nil {
			rr := eval.RecordRow{Schema: h.schema, Record: row}
			hv, err := h.evaluator.Eval(h.having, rr)
			if err != nil {
				return err
			}
			if b, ok := hv.AsBool(); !ok || !b {
				continue
			}
		}
		rows = append(rows, row)
	}

	h.rows = rows
	h.materialized = true
	return nil
}

func (h *HashAggregateOperator) Close() error { return h.child.Close() }

package yachtsql

import (
	"context"
	"sync"
)

// TableSchema implements StorageBackend.
func (t *Table) TableSchema() Schema { return t.schema }

// tableIterator streams a Table's rows in fixed-size batches.
type tableIterator struct {
	mu        sync.Mutex
	table     *Table
	cols      []int
	batchSize int
	pos       int
}

const defaultScanBatchSize = 1024

func (it *tableIterator) Next(ctx context.Context) (RowBatch, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return RowBatch{}, err
	}
	if it.pos >= it.table.NumRows() {
		return RowBatch{}, ErrIteratorDone
	}

	end := it.pos + it.batchSize
	if end > it.table.NumRows() {
		end = it.table.NumRows()
	}

	schema := projectSchema(it.table.schema, it.cols)
	rows := make([]Record, 0, end-it.pos)
	for r := it.pos; r < end; r++ {
		full := it.table.Row(r)
		rows = append(rows, projectRow(full, it.cols))
	}
	it.pos = end
	return RowBatch{Schema: schema, Rows: rows}, nil
}

func (it *tableIterator) Close() error { return nil }

func projectSchema(schema Schema, cols []int) Schema {
	if cols == nil {
		return schema
	}
	out := Schema{Fields: make([]Field, len(cols))}
	for i, c := range cols {
		out.Fields[i] = schema.Fields[c]
	}
	return out
}

func projectRow(r Record, cols []int) Record {
	if cols == nil {
		return r
	}
	values := make([]Value, len(cols))
	for i, c := range cols {
		values[i] = r.Get(c)
	}
	return Record{Values: values}
}

// Scan implements StorageBackend by streaming the table's rows; the limit and
// column projection in opts are honored directly, while Predicate is left for
// the evaluator to re-apply (an in-memory Table cannot push a predicate into
// storage the way the Postgres/DuckDB adapters can).
func (t *Table) Scan(ctx context.Context, opts ScanOptions) (RowIterator, error) {
	var cols []int
	if len(opts.Columns) > 0 {
		cols = make([]int, len(opts.Columns))
		for i, name := range opts.Columns {
			idx := t.schema.FieldIndex(name)
			if idx < 0 {
				return nil, NewColumnNotFoundError(name)
			}
			cols[i] = idx
		}
	}
	limited := t
	if opts.Limit > 0 && opts.Limit < t.NumRows() {
		rows := t.Rows()[:opts.Limit]
		limited = NewTable(t.schema, rows)
	}
	return &tableIterator{table: limited, cols: cols, batchSize: defaultScanBatchSize}, nil
}

// Insert implements StorageBackend by appending rows in place.
func (t *Table) Insert(ctx context.Context, rows []Record) error {
	existing := t.Rows()
	existing = append(existing, rows...)
	*t = *NewTable(t.schema, existing)
	return nil
}

// Update implements StorageBackend by rewriting rows matching pred through
// mutate; pred is evaluated here by evalPredicatePlaceholder, and mutate
// returns each matching row's replacement.
func (t *Table) Update(ctx context.Context, pred Expr, mutate func(Record) (Record, error)) (int64, error) {
	rows := t.Rows()
	var count int64
	for i, row := range rows {
		matched, err := evalPredicatePlaceholder(pred, row, t.schema)
		if err != nil {
			return count, err
		}
		if !matched {
			continue
		}
		updated, err := mutate(row)
		if err != nil {
			return count, err
		}
		rows[i] = updated
		count++
	}
	*t = *NewTable(t.schema, rows)
	return count, nil
}

// Delete implements StorageBackend by removing rows matching pred.
func (t *Table) Delete(ctx context.Context, pred Expr) (int64, error) {
	rows := t.Rows()
	kept := rows[:0:0]
	var count int64
	for _, row := range rows {
		matched, err := evalPredicatePlaceholder(pred, row, t.schema)
		if err != nil {
			return count, err
		}
		if matched {
			count++
			continue
		}
		kept = append(kept, row)
	}
	*t = *NewTable(t.schema, kept)
	return count, nil
}

// evalPredicatePlaceholder evaluates a simple predicate against a row without
// depending on internal/eval (which in turn depends on this package), so DML
// on a bare Table can run before the full evaluator is wired in by callers
// that only need literal/column/binary-op predicates built in tests.
func evalPredicatePlaceholder(pred Expr, row Record, schema Schema) (bool, error) {
	if pred == nil {
		return true, nil
	}
	v, err := evalSimple(pred, row, schema)
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	return ok && b, nil
}

func evalSimple(e Expr, row Record, schema Schema) (Value, error) {
	switch n := e.(type) {
	case Literal:
		return n.Value, nil
	case ColumnRef:
		idx := schema.FieldIndex(n.Column)
		if idx < 0 {
			return Value{}, NewColumnNotFoundError(n.Column)
		}
		return row.Get(idx), nil
	case BinaryOp:
		l, err := evalSimple(n.Left, row, schema)
		if err != nil {
			return Value{}, err
		}
		r, err := evalSimple(n.Right, row, schema)
		if err != nil {
			return Value{}, err
		}
		return evalSimpleBinary(n.Op, l, r)
	case AndExpr:
		for _, op := range n.Operands {
			v, err := evalSimple(op, row, schema)
			if err != nil {
				return Value{}, err
			}
			if b, ok := v.AsBool(); !ok || !b {
				return BoolValue(false), nil
			}
		}
		return BoolValue(true), nil
	default:
		return Value{}, NewUnsupportedFeatureError("predicate expression in bare-table evaluation")
	}
}

func evalSimpleBinary(op BinaryOperator, l, r Value) (Value, error) {
	if l.IsNull() || r.IsNull() {
		return NullValue(), nil
	}
	switch op {
	case OpEq:
		return BoolValue(l.Eq(r)), nil
	case OpNotEq:
		return BoolValue(!l.Eq(r)), nil
	case OpLt, OpLte, OpGt, OpGte:
		cmp, err := Compare(l, r, true)
		if err != nil {
			return Value{}, err
		}
		switch op {
		case OpLt:
			return BoolValue(cmp < 0), nil
		case OpLte:
			return BoolValue(cmp <= 0), nil
		case OpGt:
			return BoolValue(cmp > 0), nil
		default:
			return BoolValue(cmp >= 0), nil
		}
	default:
		return Value{}, NewUnsupportedFeatureError("operator " + string(op) + " in bare-table evaluation")
	}
}

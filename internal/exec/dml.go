package exec

import (
	"context"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
	"github.com/yachtsql/yachtsql/internal/logicalplan"
)

// DMLOperator executes INSERT/UPDATE/DELETE against a yachtsql.StorageBackend.
// SET expressions are evaluated through internal/eval; the WHERE predicate is
// passed unevaluated to the backend's Update/Delete, which evaluates it
// itself (the in-memory yachtsql.Table does so with table_backend.go's
// evalSimple, which handles only literal, column, comparison and AND
// predicates).
type DMLOperator struct {
	kind      logicalplan.DMLKind
	backend   yachtsql.StorageBackend
	source    Operator
	predicate yachtsql.Expr
	setExprs  map[string]yachtsql.Expr
	evaluator *eval.Evaluator
	schema    yachtsql.Schema

	done         bool
	affectedRows int64
}

func NewDML(kind logicalplan.DMLKind, backend yachtsql.StorageBackend, source Operator, predicate yachtsql.Expr, setExprs map[string]yachtsql.Expr, evaluator *eval.Evaluator) *DMLOperator {
	schema := yachtsql.Schema{Fields: []yachtsql.Field{{Name: "affected_rows", Kind: yachtsql.KindInt64}}}
	return &DMLOperator{kind: kind, backend: backend, source: source, predicate: predicate, setExprs: setExprs, evaluator: evaluator, schema: schema}
}

func (d *DMLOperator) Schema() yachtsql.Schema { return d.schema }

func (d *DMLOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if d.done {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	d.done = true

	var err error
	switch d.kind {
	case logicalplan.DMLInsert:
		err = d.execInsert(ctx)
	case logicalplan.DMLUpdate:
		err = d.execUpdate(ctx)
	case logicalplan.DMLDelete:
		err = d.execDelete(ctx)
	default:
		return yachtsql.RowBatch{}, yachtsql.NewInvalidQueryError("UNSUPPORTED_DML_KIND", "unsupported DML kind "+string(d.kind))
	}
	if err != nil {
		return yachtsql.RowBatch{}, err
	}

	row := yachtsql.Record{Values: []yachtsql.Value{yachtsql.Int64Value(d.affectedRows)}}
	return yachtsql.RowBatch{Schema: d.schema, Rows: []yachtsql.Record{row}}, nil
}

func (d *DMLOperator) execInsert(ctx context.Context) error {
	rows, err := Run(ctx, d.source)
	if err != nil {
		return err
	}
	if err := d.backend.Insert(ctx, rows); err != nil {
		return err
	}
	d.affectedRows = int64(len(rows))
	return nil
}

func (d *DMLOperator) execUpdate(ctx context.Context) error {
	schema := d.backend.TableSchema()
	n, err := d.backend.Update(ctx, d.predicate, func(row yachtsql.Record) (yachtsql.Record, error) {
		rr := eval.RecordRow{Schema: schema, Record: row}
		out := row.Clone()
		for col, expr := range d.setExprs {
			idx := schema.FieldIndex(col)
			if idx < 0 {
				continue
			}
			v, err := d.evaluator.Eval(expr, rr)
			if err != nil {
				return yachtsql.Record{}, err
			}
			out.Values[idx] = v
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	d.affectedRows = n
	return nil
}

func (d *DMLOperator) execDelete(ctx context.Context) error {
	n, err := d.backend.Delete(ctx, d.predicate)
	if err != nil {
		return err
	}
	d.affectedRows = n
	return nil
}

func (d *DMLOperator) Close() error { return d.source.Close() }

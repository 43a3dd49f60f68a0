package storageadapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
)

// PostgresConfig mirrors the connection-string fields the
// cmd/server/main.go createDatabasePoolFromConfig builds a pgxpool.Pool
// from, trimmed to what a standalone storage adapter needs (no
// TableNames/SchemaRegistry wiring, which belongs to the catalog layer).
type PostgresConfig struct {
	Host            string
	Port            int
	Database        string
	Username        string
	Password        string
	SSLMode         string
	MaxConnections  int32
	MinConnections  int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// NewPostgresPool builds a pgxpool.Pool the same way
// createDatabasePoolFromConfig does: compose a DSN, parse it into a
// pgxpool.Config, then apply the pool-sizing and timeout knobs directly on
// the parsed config rather than re-encoding them into the DSN.
func NewPostgresPool(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, sslMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = cfg.MinConnections
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	return pool, nil
}

// pgxQuerier narrows *pgxpool.Pool to the methods PostgresBackend calls,
// letting tests substitute a pgxmock.PgxPoolIface value.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresBackend implements yachtsql.StorageBackend against a real
// Postgres table, generalizing the
// PostgresPersistentRecordRepository (internal/postgres_persistent_repository.go)
// from its fixed main-table/EAV column layout to an arbitrary declared
// yachtsql.Schema.
type PostgresBackend struct {
	pool   pgxQuerier
	table  string
	schema yachtsql.Schema
}

// NewPostgresBackend wraps an existing pool (or a pgxmock double in tests)
// as a StorageBackend over the named table.
func NewPostgresBackend(pool pgxQuerier, table string, schema yachtsql.Schema) *PostgresBackend {
	return &PostgresBackend{pool: pool, table: table, schema: schema}
}

func (b *PostgresBackend) TableSchema() yachtsql.Schema { return b.schema }

// Scan issues a SELECT, projecting opts.Columns and pushing opts.Predicate
// down to a WHERE clause when pushdownSQL can render it; an un-pushable
// predicate is left for the evaluator to re-apply, the same
// "backends that cannot push a predicate down may ignore it" contract
// storage.go documents.
func (b *PostgresBackend) Scan(ctx context.Context, opts yachtsql.ScanOptions) (yachtsql.RowIterator, error) {
	cols := opts.Columns
	if len(cols) == 0 {
		cols = make([]string, len(b.schema.Fields))
		for i, f := range b.schema.Fields {
			cols[i] = f.Name
		}
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), quoteIdent(b.table))
	var args []any
	if opts.Predicate != nil {
		if where, ok := pushdownSQL(opts.Predicate, pgPlaceholder, &args); ok {
			query += " WHERE " + where
		}
	}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres scan %s: %w", b.table, err)
	}

	outSchema := yachtsql.Schema{Fields: make([]yachtsql.Field, len(cols))}
	for i, c := range cols {
		idx := b.schema.FieldIndex(c)
		if idx < 0 {
			rows.Close()
			return nil, yachtsql.NewColumnNotFoundError(c)
		}
		outSchema.Fields[i] = b.schema.Fields[idx]
	}
	return &pgRowIterator{rows: rows, schema: outSchema}, nil
}

func pgPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }

type pgRowIterator struct {
	rows   pgx.Rows
	schema yachtsql.Schema
}

const pgBatchSize = 1024

func (it *pgRowIterator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	var out []yachtsql.Record
	for len(out) < pgBatchSize && it.rows.Next() {
		raw, err := it.rows.Values()
		if err != nil {
			return yachtsql.RowBatch{}, fmt.Errorf("postgres row values: %w", err)
		}
		values := make([]yachtsql.Value, len(raw))
		for i, r := range raw {
			v, err := toValue(it.schema.Fields[i].Kind, r)
			if err != nil {
				return yachtsql.RowBatch{}, err
			}
			values[i] = v
		}
		out = append(out, yachtsql.Record{Values: values})
	}
	if err := it.rows.Err(); err != nil {
		return yachtsql.RowBatch{}, fmt.Errorf("postgres row iteration: %w", err)
	}
	if len(out) == 0 {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	return yachtsql.RowBatch{Schema: it.schema, Rows: out}, nil
}

func (it *pgRowIterator) Close() error {
	it.rows.Close()
	return nil
}

// Insert appends rows via a single multi-row INSERT statement.
func (b *PostgresBackend) Insert(ctx context.Context, rows []yachtsql.Record) error {
	if len(rows) == 0 {
		return nil
	}
	cols := make([]string, len(b.schema.Fields))
	for i, f := range b.schema.Fields {
		cols[i] = quoteIdent(f.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", quoteIdent(b.table), strings.Join(cols, ", "))
	var args []any
	for ri, row := range rows {
		if ri > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for ci := range b.schema.Fields {
			if ci > 0 {
				sb.WriteString(", ")
			}
			args = append(args, toDriverArg(row.Get(ci)))
			sb.WriteString(pgPlaceholder(len(args)))
		}
		sb.WriteByte(')')
	}

	if _, err := b.pool.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("postgres insert into %s: %w", b.table, err)
	}
	return nil
}

// Update scans rows matching pred, applies mutate in-process, then issues
// one UPDATE per changed row keyed by its full original column values (the
// table carries no declared primary key at this layer, so a whole-row match
// is the only identity pushdown storage.go's interface leaves available).
func (b *PostgresBackend) Update(ctx context.Context, pred yachtsql.Expr, mutate func(yachtsql.Record) (yachtsql.Record, error)) (int64, error) {
	matched, err := b.scanAll(ctx, pred)
	if err != nil {
		return 0, err
	}
	var count int64
	cols := make([]string, len(b.schema.Fields))
	for i, f := range b.schema.Fields {
		cols[i] = quoteIdent(f.Name)
	}
	for _, row := range matched {
		updated, err := mutate(row)
		if err != nil {
			return count, err
		}
		var args []any
		var setClauses []string
		for ci, c := range cols {
			args = append(args, toDriverArg(updated.Get(ci)))
			setClauses = append(setClauses, fmt.Sprintf("%s = %s", c, pgPlaceholder(len(args))))
		}
		whereClause, whereArgs := wholeRowWhere(b.schema, row, len(args))
		args = append(args, whereArgs...)
		query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", quoteIdent(b.table), strings.Join(setClauses, ", "), whereClause)
		if _, err := b.pool.Exec(ctx, query, args...); err != nil {
			return count, fmt.Errorf("postgres update %s: %w", b.table, err)
		}
		count++
	}
	return count, nil
}

// Delete scans rows matching pred, then issues one DELETE per row keyed by
// its full column values, the same whole-row identity Update uses.
func (b *PostgresBackend) Delete(ctx context.Context, pred yachtsql.Expr) (int64, error) {
	matched, err := b.scanAll(ctx, pred)
	if err != nil {
		return 0, err
	}
	var count int64
	for _, row := range matched {
		whereClause, args := wholeRowWhere(b.schema, row, 0)
		query := fmt.Sprintf("DELETE FROM %s WHERE %s", quoteIdent(b.table), whereClause)
		if _, err := b.pool.Exec(ctx, query, args...); err != nil {
			return count, fmt.Errorf("postgres delete from %s: %w", b.table, err)
		}
		count++
	}
	return count, nil
}

func (b *PostgresBackend) scanAll(ctx context.Context, pred yachtsql.Expr) ([]yachtsql.Record, error) {
	it, err := b.Scan(ctx, yachtsql.ScanOptions{Predicate: pred})
	if err != nil {
		return nil, err
	}
	defer it.Close()
	ev := eval.New(nil)
	var rows []yachtsql.Record
	for {
		batch, err := it.Next(ctx)
		if err == yachtsql.ErrIteratorDone {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, row := range batch.Rows {
			if pred != nil {
				v, err := ev.Eval(pred, eval.RecordRow{Schema: b.schema, Record: row})
				if err != nil {
					return nil, err
				}
				if keep, isBool := v.AsBool(); !isBool || !keep {
					continue
				}
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// wholeRowWhere builds a "col1 = $n AND col2 = $n+1 ..." clause matching row
// exactly, numbering placeholders starting after argOffset already-bound
// arguments (the SET clause's values in an UPDATE), using pgPlaceholder's
// $n style.
func wholeRowWhere(schema yachtsql.Schema, row yachtsql.Record, argOffset int) (string, []any) {
	return wholeRowWhereWith(schema, row, argOffset, pgPlaceholder)
}

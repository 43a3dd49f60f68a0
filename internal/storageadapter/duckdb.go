package storageadapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/eval"
)

// DuckDBConfig mirrors the forma.DuckDBConfig (internal/duckdb_conn.go):
// a DB path (or ":memory:"), a connection cap, an explicit extension list,
// and the httpfs/S3 and parquet toggles DuckDB needs for object-store reads.
type DuckDBConfig struct {
	DBPath         string
	MaxConnections int
	Extensions     []string
	EnableS3       bool
	S3AccessKey    string
	S3SecretKey    string
	S3Region       string
	S3Endpoint     string
	EnableParquet  bool
}

// DuckDBClient wraps a database/sql DB opened with the duckdb-go/v2 driver,
// the same shape as the DuckDBClient, generalized from a
// global-accessor singleton into an explicitly constructed value callers
// pass into NewDuckDBBackend per table.
type DuckDBClient struct {
	DB  *sql.DB
	cfg DuckDBConfig
}

// NewDuckDBClient opens the database and best-effort loads the configured
// extensions, logging (via the returned warnings slice rather than a global
// zap logger, so callers without a zap.S() configured still see failures)
// and continuing past any single extension's failure, exactly as
// internal/duckdb_conn.go's NewDuckDBClient does.
func NewDuckDBClient(ctx context.Context, cfg DuckDBConfig) (*DuckDBClient, []string, error) {
	dsn := cfg.DBPath
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open duckdb: %w", err)
	}

	db.SetMaxOpenConns(1)
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping duckdb: %w", err)
	}

	var warnings []string
	exec := func(stmt string) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", stmt, err))
		}
	}

	for _, ext := range cfg.Extensions {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("INSTALL %s;", ext)); err != nil {
			warnings = append(warnings, fmt.Sprintf("install %s: %v", ext, err))
			continue
		}
		exec(fmt.Sprintf("LOAD %s;", ext))
	}

	if cfg.EnableS3 {
		if _, err := db.ExecContext(ctx, "INSTALL httpfs;"); err == nil {
			exec("LOAD httpfs;")
		} else {
			warnings = append(warnings, fmt.Sprintf("install httpfs: %v", err))
		}
		if cfg.S3AccessKey != "" {
			exec(fmt.Sprintf("PRAGMA s3_access_key='%s';", cfg.S3AccessKey))
		}
		if cfg.S3SecretKey != "" {
			exec(fmt.Sprintf("PRAGMA s3_secret_key='%s';", cfg.S3SecretKey))
		}
		if cfg.S3Region != "" {
			exec(fmt.Sprintf("PRAGMA s3_region='%s';", cfg.S3Region))
		}
		if cfg.S3Endpoint != "" {
			exec(fmt.Sprintf("PRAGMA s3_endpoint='%s';", cfg.S3Endpoint))
		}
	}

	if cfg.EnableParquet {
		if _, err := db.ExecContext(ctx, "INSTALL parquet;"); err == nil {
			exec("LOAD parquet;")
		} else {
			warnings = append(warnings, fmt.Sprintf("install parquet: %v", err))
		}
	}

	return &DuckDBClient{DB: db, cfg: cfg}, warnings, nil
}

// Close closes the underlying DB.
func (c *DuckDBClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// HealthCheck runs the SELECT 1 liveness probe.
func (c *DuckDBClient) HealthCheck(ctx context.Context) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("duckdb client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var v int
	if err := c.DB.QueryRowContext(ctx, "SELECT 1;").Scan(&v); err != nil {
		return fmt.Errorf("duckdb health query failed: %w", err)
	}
	if v != 1 {
		return fmt.Errorf("unexpected duckdb health result: %d", v)
	}
	return nil
}

// DuckDBBackend implements yachtsql.StorageBackend over a table in a
// DuckDBClient's database, generalizing the DuckDB side of
// postgres_duckdb_query.go's federated scan into a standalone backend.
type DuckDBBackend struct {
	client *DuckDBClient
	table  string
	schema yachtsql.Schema
}

// NewDuckDBBackend wraps an open DuckDBClient as a StorageBackend over the
// named table.
func NewDuckDBBackend(client *DuckDBClient, table string, schema yachtsql.Schema) *DuckDBBackend {
	return &DuckDBBackend{client: client, table: table, schema: schema}
}

func (b *DuckDBBackend) TableSchema() yachtsql.Schema { return b.schema }

func duckdbPlaceholder(int) string { return "?" }

func (b *DuckDBBackend) Scan(ctx context.Context, opts yachtsql.ScanOptions) (yachtsql.RowIterator, error) {
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
		if where, ok := pushdownSQL(opts.Predicate, duckdbPlaceholder, &args); ok {
			query += " WHERE " + where
		}
	}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := b.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("duckdb scan %s: %w", b.table, err)
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
	return &duckdbRowIterator{rows: rows, schema: outSchema}, nil
}

type duckdbRowIterator struct {
	rows   *sql.Rows
	schema yachtsql.Schema
}

const duckdbBatchSize = 1024

func (it *duckdbRowIterator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	var out []yachtsql.Record
	for len(out) < duckdbBatchSize && it.rows.Next() {
		raw := make([]any, len(it.schema.Fields))
		scanArgs := make([]any, len(raw))
		for i := range raw {
			scanArgs[i] = &raw[i]
		}
		if err := it.rows.Scan(scanArgs...); err != nil {
			return yachtsql.RowBatch{}, fmt.Errorf("duckdb row scan: %w", err)
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
		return yachtsql.RowBatch{}, fmt.Errorf("duckdb row iteration: %w", err)
	}
	if len(out) == 0 {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	return yachtsql.RowBatch{Schema: it.schema, Rows: out}, nil
}

func (it *duckdbRowIterator) Close() error { return it.rows.Close() }

func (b *DuckDBBackend) Insert(ctx context.Context, rows []yachtsql.Record) error {
	if len(rows) == 0 {
		return nil
	}
	cols := make([]string, len(b.schema.Fields))
	placeholders := make([]string, len(b.schema.Fields))
	for i, f := range b.schema.Fields {
		cols[i] = quoteIdent(f.Name)
		placeholders[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(b.table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	for _, row := range rows {
		args := make([]any, len(b.schema.Fields))
		for i := range b.schema.Fields {
			args[i] = toDriverArg(row.Get(i))
		}
		if _, err := b.client.DB.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("duckdb insert into %s: %w", b.table, err)
		}
	}
	return nil
}

func (b *DuckDBBackend) Update(ctx context.Context, pred yachtsql.Expr, mutate func(yachtsql.Record) (yachtsql.Record, error)) (int64, error) {
	matched, err := b.scanAll(ctx, pred)
	if err != nil {
		return 0, err
	}
	var count int64
	for _, row := range matched {
		updated, err := mutate(row)
		if err != nil {
			return count, err
		}
		var setClauses []string
		var args []any
		for i, f := range b.schema.Fields {
			setClauses = append(setClauses, quoteIdent(f.Name)+" = ?")
			args = append(args, toDriverArg(updated.Get(i)))
		}
		whereClause, whereArgs := wholeRowWhereWith(b.schema, row, 0, duckdbPlaceholder)
		args = append(args, whereArgs...)
		query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", quoteIdent(b.table), strings.Join(setClauses, ", "), whereClause)
		if _, err := b.client.DB.ExecContext(ctx, query, args...); err != nil {
			return count, fmt.Errorf("duckdb update %s: %w", b.table, err)
		}
		count++
	}
	return count, nil
}

func (b *DuckDBBackend) Delete(ctx context.Context, pred yachtsql.Expr) (int64, error) {
	matched, err := b.scanAll(ctx, pred)
	if err != nil {
		return 0, err
	}
	var count int64
	for _, row := range matched {
		whereClause, args := wholeRowWhereWith(b.schema, row, 0, duckdbPlaceholder)
		query := fmt.Sprintf("DELETE FROM %s WHERE %s", quoteIdent(b.table), whereClause)
		if _, err := b.client.DB.ExecContext(ctx, query, args...); err != nil {
			return count, fmt.Errorf("duckdb delete from %s: %w", b.table, err)
		}
		count++
	}
	return count, nil
}

func (b *DuckDBBackend) scanAll(ctx context.Context, pred yachtsql.Expr) ([]yachtsql.Record, error) {
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

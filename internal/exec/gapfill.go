package exec

import (
	"context"
	"strings"
	"time"

	"github.com/yachtsql/yachtsql"
)

// GapFillOperator fills time-series gaps: read all source rows, group by a
// partition tuple, and within each partition synthesize one row per
// bucket_width-aligned timestamp bucket between the partition's earliest and
// latest timestamp, filling in-between gaps with null value columns.
//
// Grounded on the unix-millisecond time handling in
// internal/attribute_converter.go (ToAttributeValue's `timeVal.UnixMilli()`
// conversion for numeric storage of time.Time values); GapFill generalizes
// that single timestamp-to-integer conversion into the bucket-alignment
// arithmetic gap filling requires, using microsecond resolution to match
// yachtsql.Interval's own Micros field.
type GapFillOperator struct {
	child            Operator
	tsColumn         string
	bucketWidth      yachtsql.Interval
	partitionColumns []string
	valueColumns     []string
	schema           yachtsql.Schema

	materialized bool
	rows         []yachtsql.Record
	served       bool
}

func NewGapFill(child Operator, tsColumn string, bucketWidth yachtsql.Interval, partitionColumns, valueColumns []string, schema yachtsql.Schema) *GapFillOperator {
	return &GapFillOperator{
		child:            child,
		tsColumn:         tsColumn,
		bucketWidth:      bucketWidth,
		partitionColumns: partitionColumns,
		valueColumns:     valueColumns,
		schema:           schema,
	}
}

func (g *GapFillOperator) Schema() yachtsql.Schema { return g.schema }

func (g *GapFillOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if !g.materialized {
		if err := g.materialize(ctx); err != nil {
			return yachtsql.RowBatch{}, err
		}
		g.materialized = true
	}
	if g.served {
		return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
	}
	g.served = true
	return yachtsql.RowBatch{Schema: g.schema, Rows: g.rows}, nil
}

func (g *GapFillOperator) materialize(ctx context.Context) error {
	bucketMicros := intervalMicros(g.bucketWidth)
	if bucketMicros <= 0 {
		return yachtsql.NewInvalidQueryError(yachtsql.ErrCodeInvalidBucketWidth, "gap_fill bucket_width must be positive")
	}

	tsIdx := g.child.Schema().FieldIndex(g.tsColumn)
	if tsIdx < 0 {
		return yachtsql.NewColumnNotFoundError(g.tsColumn)
	}
	tsField, _ := g.child.Schema().Field(g.tsColumn)
	if tsField.Kind != yachtsql.KindDate && tsField.Kind != yachtsql.KindTimestamp {
		return yachtsql.NewInvalidQueryError(yachtsql.ErrCodeNonTemporalTsColumn,
			"gap_fill ts_column "+g.tsColumn+" must be a date or timestamp column")
	}

	srcRows, err := Run(ctx, g.child)
	if err != nil {
		return err
	}

	schema := g.child.Schema()
	partIdxs := make([]int, len(g.partitionColumns))
	for i, col := range g.partitionColumns {
		partIdxs[i] = schema.FieldIndex(col)
	}

	type partitionState struct {
		minMicros, maxMicros int64
		buckets              map[int64]yachtsql.Record
		keyValues            []yachtsql.Value
	}
	partitions := map[string]*partitionState{}
	var order []string

	for _, row := range srcRows {
		key := partitionKey(row, partIdxs)
		ps, ok := partitions[key]
		if !ok {
			keyValues := make([]yachtsql.Value, len(partIdxs))
			for i, idx := range partIdxs {
				keyValues[i] = row.Get(idx)
			}
			ps = &partitionState{buckets: map[int64]yachtsql.Record{}, keyValues: keyValues}
			partitions[key] = ps
			order = append(order, key)
		}
		micros := timeMicros(row.Get(tsIdx))
		bucket := alignBucket(micros, bucketMicros)
		if len(ps.buckets) == 0 {
			ps.minMicros, ps.maxMicros = micros, micros
		} else {
			if micros < ps.minMicros {
				ps.minMicros = micros
			}
			if micros > ps.maxMicros {
				ps.maxMicros = micros
			}
		}
		// "if multiple, keep the latest seen".
		ps.buckets[bucket] = row
	}

	var out []yachtsql.Record
	for _, key := range order {
		ps := partitions[key]
		startBucket := alignBucket(ps.minMicros, bucketMicros)
		for b := startBucket; b <= ps.maxMicros; b += bucketMicros {
			if row, ok := ps.buckets[b]; ok {
				out = append(out, row)
				continue
			}
			out = append(out, g.synthesizeRow(schema, tsField, tsIdx, b, partIdxs, ps.keyValues))
		}
	}
	g.rows = out
	return nil
}

// synthesizeRow builds a gap-filled row for a bucket with no source row:
// partition columns populated from the partition's key, ts set to the
// bucket timestamp, and every other column (the value columns, whether
// explicitly listed or defaulted to "everything else") left null.
func (g *GapFillOperator) synthesizeRow(schema yachtsql.Schema, tsField yachtsql.Field, tsIdx int, bucketMicros int64, partIdxs []int, keyValues []yachtsql.Value) yachtsql.Record {
	values := make([]yachtsql.Value, len(schema.Fields))
	for i := range values {
		values[i] = yachtsql.NullValue()
	}
	for i, idx := range partIdxs {
		values[idx] = keyValues[i]
	}
	// Output ts preserves the original carrier type (Date vs Timestamp),
	// to preserve round-trip display semantics.
	t := microsToTime(bucketMicros)
	if tsField.Kind == yachtsql.KindDate {
		values[tsIdx] = yachtsql.DateValue(t)
	} else {
		values[tsIdx] = yachtsql.TimestampValue(t)
	}
	return yachtsql.Record{Values: values}
}

func (g *GapFillOperator) Close() error { return g.child.Close() }

func partitionKey(row yachtsql.Record, partIdxs []int) string {
	var b strings.Builder
	for _, idx := range partIdxs {
		b.WriteString(row.Get(idx).String())
		b.WriteByte('\x1f')
	}
	return b.String()
}

func timeMicros(v yachtsql.Value) int64 {
	t, ok := v.AsTime()
	if !ok {
		return 0
	}
	return t.UnixMicro()
}

func microsToTime(micros int64) time.Time {
	return time.UnixMicro(micros).UTC()
}

// intervalMicros converts an Interval to microseconds using the
// months→30d, days→24h convention.
func intervalMicros(iv yachtsql.Interval) int64 {
	const microsPerDay = 24 * 60 * 60 * 1_000_000
	days := int64(iv.Months)*30 + int64(iv.Days)
	return days*microsPerDay + iv.Micros
}

func alignBucket(micros, bucketMicros int64) int64 {
	if bucketMicros <= 0 {
		return micros
	}
	q := micros / bucketMicros
	if micros%bucketMicros != 0 && micros < 0 {
		q--
	}
	return q * bucketMicros
}

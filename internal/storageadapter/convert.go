// Package storageadapter provides StorageBackend implementations over real
// database connections, generalizing the
// PostgresPersistentRecordRepository (internal/postgres_persistent_repository.go)
// and DuckDBClient (internal/duckdb_conn.go) from the EAV/main-table storage
// split into a single yachtsql.StorageBackend surface usable by any table.
package storageadapter

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yachtsql/yachtsql"
)

// toValue converts a driver-native scanned column (the `any` a pgx.Rows.Values
// or a database/sql *any Scan produces) into a yachtsql.Value typed per the
// column's declared Field.Kind, the generalization of the
// per-columnKind scanArgs switch in postgres_duckdb_query.go into a single
// conversion function shared by both backends.
func toValue(kind yachtsql.ValueKind, raw any) (yachtsql.Value, error) {
	if raw == nil {
		return yachtsql.NullValue(), nil
	}
	switch kind {
	case yachtsql.KindBool:
		if b, ok := raw.(bool); ok {
			return yachtsql.BoolValue(b), nil
		}
	case yachtsql.KindInt64:
		switch n := raw.(type) {
		case int64:
			return yachtsql.Int64Value(n), nil
		case int32:
			return yachtsql.Int64Value(int64(n)), nil
		case int16:
			return yachtsql.Int64Value(int64(n)), nil
		case int:
			return yachtsql.Int64Value(int64(n)), nil
		}
	case yachtsql.KindFloat64:
		switch n := raw.(type) {
		case float64:
			return yachtsql.Float64Value(n), nil
		case float32:
			return yachtsql.Float64Value(float64(n)), nil
		}
	case yachtsql.KindNumeric:
		switch n := raw.(type) {
		case float64:
			return yachtsql.NumericValue(yachtsql.Numeric{Unscaled: int64(n * 1e9), Scale: int32(9)}), nil
		case string:
			return parseNumericString(n)
		}
	case yachtsql.KindString:
		if s, ok := raw.(string); ok {
			return yachtsql.StringValue(s), nil
		}
	case yachtsql.KindBytes:
		if b, ok := raw.([]byte); ok {
			return yachtsql.BytesValue(b), nil
		}
	case yachtsql.KindDate:
		if t, ok := raw.(time.Time); ok {
			return yachtsql.DateValue(t), nil
		}
	case yachtsql.KindTime:
		if t, ok := raw.(time.Time); ok {
			return yachtsql.TimeOfDayValue(t), nil
		}
	case yachtsql.KindTimestamp:
		if t, ok := raw.(time.Time); ok {
			return yachtsql.TimestampValue(t), nil
		}
	case yachtsql.KindUUID:
		switch u := raw.(type) {
		case uuid.UUID:
			return yachtsql.UUIDValue(u), nil
		case string:
			id, err := uuid.Parse(u)
			if err != nil {
				return yachtsql.Value{}, fmt.Errorf("parse uuid column: %w", err)
			}
			return yachtsql.UUIDValue(id), nil
		}
	}
	// Fall back to the driver's string rendering rather than erroring, the
	// same lenient "fallback to NullString" shape postgres_duckdb_query.go
	// uses for columnKind it doesn't special-case.
	return yachtsql.StringValue(fmt.Sprintf("%v", raw)), nil
}

func parseNumericString(s string) (yachtsql.Value, error) {
	var whole, frac int64
	_, err := fmt.Sscanf(s, "%d.%d", &whole, &frac)
	if err != nil {
		return yachtsql.Value{}, fmt.Errorf("parse numeric column %q: %w", s, err)
	}
	var scale int32
	for _, c := range s[indexOf(s, '.')+1:] {
		if c < '0' || c > '9' {
			break
		}
		scale++
	}
	unscaled := whole
	for i := int32(0); i < scale; i++ {
		unscaled *= 10
	}
	if whole < 0 {
		unscaled -= frac
	} else {
		unscaled += frac
	}
	return yachtsql.NumericValue(yachtsql.Numeric{Unscaled: unscaled, Scale: scale}), nil
}

func indexOf(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// toDriverArg converts a yachtsql.Value into a plain Go value a SQL driver
// (pgx or database/sql) can bind as a parameter.
func toDriverArg(v yachtsql.Value) any {
	switch v.Kind {
	case yachtsql.KindNull:
		return nil
	case yachtsql.KindBool:
		b, _ := v.AsBool()
		return b
	case yachtsql.KindInt64:
		n, _ := v.AsInt64()
		return n
	case yachtsql.KindFloat64:
		f, _ := v.AsFloat64()
		return f
	case yachtsql.KindNumeric:
		n, _ := v.AsNumeric()
		return n.Float64()
	case yachtsql.KindString:
		s, _ := v.AsString()
		return s
	case yachtsql.KindBytes:
		b, _ := v.AsBytes()
		return b
	case yachtsql.KindDate, yachtsql.KindTime, yachtsql.KindTimestamp:
		t, _ := v.AsTime()
		return t
	case yachtsql.KindUUID:
		id, _ := v.AsUUID()
		return id
	default:
		return v.String()
	}
}

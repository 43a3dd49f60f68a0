package yachtsql

import (
	"os"
	"strconv"
	"time"
)

// Dialect names the SQL dialect a session binds to at connect time. Of the
// session defaults, only the result format depends on it (see
// DefaultSessionVars).
type Dialect string

const (
	DialectStandard Dialect = "standard"
	DialectBigQuery Dialect = "bigquery"
	DialectPostgres Dialect = "postgres"
)

// SessionVars carries per-connection settings, the generalization of the
// env-driven DatabaseConfig bootstrap into a per-session (not just
// per-process) settings bag. cmd/yachtsql is its only reader; the planner
// and evaluator do not consult it.
type SessionVars struct {
	Dialect       Dialect
	ResultFormat  ResultFormat
	TimeZone      string
	QueryTimeout  time.Duration
	IsolationLvl  IsolationLevel
	DefaultNulls  NullsOrder
	MaxRows       int
}

// DefaultSessionVars returns session settings for the given dialect. Only the
// result format varies with the dialect (bigquery gets FormatBigQueryV2);
// DefaultNulls is NullsLast for every dialect.
func DefaultSessionVars(dialect Dialect) SessionVars {
	sv := SessionVars{
		Dialect:      dialect,
		ResultFormat: FormatRowOfJSON,
		TimeZone:     "UTC",
		QueryTimeout: 30 * time.Second,
		IsolationLvl: IsolationReadCommitted,
		DefaultNulls: NullsLast,
		MaxRows:      100000,
	}
	if dialect == DialectBigQuery {
		sv.ResultFormat = FormatBigQueryV2
	}
	return sv
}

// SessionVarsFromEnv builds SessionVars from process environment variables,
// following the same getEnv/getEnvInt fallback pattern the
// cmd/server/main.go uses to build DatabaseConfig from the process
// environment, generalized to session settings.
func SessionVarsFromEnv() SessionVars {
	dialect := Dialect(getEnv("YACHTSQL_DIALECT", string(DialectStandard)))
	sv := DefaultSessionVars(dialect)
	sv.TimeZone = getEnv("YACHTSQL_TIMEZONE", sv.TimeZone)
	sv.QueryTimeout = time.Duration(getEnvInt("YACHTSQL_QUERY_TIMEOUT_SECONDS", int(sv.QueryTimeout.Seconds()))) * time.Second
	sv.MaxRows = getEnvInt("YACHTSQL_MAX_ROWS", sv.MaxRows)
	if format := getEnv("YACHTSQL_RESULT_FORMAT", ""); format != "" {
		sv.ResultFormat = ResultFormat(format)
	}
	return sv
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

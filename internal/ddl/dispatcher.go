// Package ddl implements the DDL Dispatcher: classifying an incoming
// statement into a StatementJob and, for DDL jobs, executing
// CREATE/ALTER/DROP against a yachtsql.Catalog with constraint validation
// against any existing rows.
//
// Grounded on the schema/table tooling (cmd/tools/inline_schema.go,
// cmd/tools/generate_attributes.go, internal/metadata_loader.go,
// internal/relation_index.go), which already parses JSON-Schema-shaped table
// definitions and resolves cross-schema relations; the dispatcher
// generalizes that "read a schema description, register it" flow into a
// full CREATE/ALTER/DROP routing layer operating on yachtsql.Schema instead
// of raw JSON-Schema documents.
package ddl

import (
	"context"
	"strings"

	"github.com/yachtsql/yachtsql"
)

// StatementJob classifies a parsed statement for routing to the right
// execution path.
type StatementJob string

const (
	JobDDL       StatementJob = "ddl"
	JobDML       StatementJob = "dml"
	JobCteDML    StatementJob = "cte_dml"
	JobQuery     StatementJob = "query"
	JobMerge     StatementJob = "merge"
	JobUtility   StatementJob = "utility"
	JobProcedure StatementJob = "procedure"
	JobCopy      StatementJob = "copy"
	JobScripting StatementJob = "scripting"
)

// Statement is the normalized shape the (external) parser/AST layer hands to
// Classify: a keyword tag plus whatever payload the specific job needs.
// yachtsql's scope stops at the logical-plan IR (SQL parsing is out of
// scope), so Statement is deliberately thin — just enough
// structure for the dispatcher to route.
type Statement struct {
	Keyword string // e.g. "CREATE_TABLE", "ALTER_TABLE", "SELECT", "INSERT", "SET", "BEGIN"
	Payload any
}

var scriptingKeywords = map[string]bool{
	"DECLARE": true, "IF": true, "WHILE": true, "LOOP": true, "REPEAT": true,
	"BEGIN_END": true, "CASE": true, "LEAVE": true, "CONTINUE": true,
	"RETURN": true, "EXECUTE_IMMEDIATE": true, "ASSERT": true,
}

var utilityKeywords = map[string]bool{
	"SHOW": true, "DESCRIBE": true, "EXPLAIN": true, "SET": true,
}

var ddlKeywords = map[string]bool{
	"CREATE_TABLE": true, "ALTER_TABLE": true, "DROP_TABLE": true,
	"CREATE_INDEX": true, "DROP_INDEX": true, "CREATE_VIEW": true,
	"DROP_VIEW": true, "COMMENT": true,
}

var dmlKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true,
}

// Classify routes a Statement to its StatementJob.
func Classify(stmt Statement) StatementJob {
	kw := strings.ToUpper(stmt.Keyword)
	switch {
	case ddlKeywords[kw]:
		return JobDDL
	case kw == "MERGE":
		return JobMerge
	case kw == "COPY":
		return JobCopy
	case kw == "WITH_DML":
		return JobCteDML
	case dmlKeywords[kw]:
		return JobDML
	case utilityKeywords[kw]:
		return JobUtility
	case kw == "CALL":
		return JobProcedure
	case scriptingKeywords[kw]:
		return JobScripting
	default:
		return JobQuery
	}
}

// Dispatch classifies stmt and, for DDL jobs, executes it against catalog.
// Non-DDL jobs are returned as-is for the caller to route to the logical
// planner, DML executor, or session-variable handler; the dispatcher only
// owns the DDL execution path itself.
func Dispatch(ctx context.Context, catalog yachtsql.Catalog, stmt Statement) (StatementJob, error) {
	job := Classify(stmt)
	if job != JobDDL {
		return job, nil
	}
	if err := execDDL(ctx, catalog, stmt); err != nil {
		return job, err
	}
	return job, nil
}

func execDDL(ctx context.Context, catalog yachtsql.Catalog, stmt Statement) error {
	switch strings.ToUpper(stmt.Keyword) {
	case "CREATE_TABLE":
		spec, ok := stmt.Payload.(CreateTableSpec)
		if !ok {
			return yachtsql.NewInvalidQueryError("INVALID_DDL_PAYLOAD", "CREATE_TABLE requires a CreateTableSpec payload")
		}
		return CreateTable(ctx, catalog, spec)
	case "ALTER_TABLE":
		spec, ok := stmt.Payload.(AlterTableSpec)
		if !ok {
			return yachtsql.NewInvalidQueryError("INVALID_DDL_PAYLOAD", "ALTER_TABLE requires an AlterTableSpec payload")
		}
		return AlterTable(ctx, catalog, spec)
	case "DROP_TABLE", "DROP_VIEW":
		spec, ok := stmt.Payload.(DropSpec)
		if !ok {
			return yachtsql.NewInvalidQueryError("INVALID_DDL_PAYLOAD", "DROP requires a DropSpec payload")
		}
		return catalog.DropDataset(ctx, spec.Name, spec.Cascade)
	case "CREATE_INDEX":
		spec, ok := stmt.Payload.(CreateIndexSpec)
		if !ok {
			return yachtsql.NewInvalidQueryError("INVALID_DDL_PAYLOAD", "CREATE_INDEX requires a CreateIndexSpec payload")
		}
		return CreateIndex(ctx, catalog, spec)
	case "DROP_INDEX":
		spec, ok := stmt.Payload.(DropIndexSpec)
		if !ok {
			return yachtsql.NewInvalidQueryError("INVALID_DDL_PAYLOAD", "DROP_INDEX requires a DropIndexSpec payload")
		}
		return DropIndex(ctx, catalog, spec)
	case "CREATE_VIEW":
		spec, ok := stmt.Payload.(CreateViewSpec)
		if !ok {
			return yachtsql.NewInvalidQueryError("INVALID_DDL_PAYLOAD", "CREATE_VIEW requires a CreateViewSpec payload")
		}
		return CreateView(ctx, catalog, spec)
	case "COMMENT":
		// Comments are metadata-only and have no catalog-visible effect in
		// this engine's Dataset model; accepted as a no-op for dialect
		// compatibility (PostgreSQL's COMMENT ON ... statement).
		return nil
	default:
		return yachtsql.NewUnsupportedFeatureError("DDL statement " + stmt.Keyword)
	}
}

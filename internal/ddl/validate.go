package ddl

import (
	"fmt"

	"github.com/yachtsql/yachtsql"
)

// ValidateSchema checks structural invariants a Schema must hold before it
// can be registered, generalizing the JSON-Schema property
// validation (internal/metadata_parser.go) from "required properties parse
// as expected primitive types" to yachtsql's richer Field/Constraint model.
func ValidateSchema(schema yachtsql.Schema) error {
	seen := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		if f.Name == "" {
			return yachtsql.NewInvalidQueryError("EMPTY_COLUMN_NAME", "column name must not be empty")
		}
		key := normalizeName(f.Name)
		if seen[key] {
			return yachtsql.NewInvalidQueryError("DUPLICATE_COLUMN", fmt.Sprintf("duplicate column %q", f.Name))
		}
		seen[key] = true
	}

	for _, c := range schema.Constraints {
		for _, col := range c.Columns {
			if schema.FieldIndex(col) < 0 {
				return yachtsql.NewInvalidQueryError("UNKNOWN_CONSTRAINT_COLUMN",
					fmt.Sprintf("constraint %q references unknown column %q", c.Name, col))
			}
		}
	}

	if pk, ok := schema.PrimaryKey(); ok {
		for _, col := range pk {
			idx := schema.FieldIndex(col)
			if idx < 0 {
				return yachtsql.NewInvalidQueryError("UNKNOWN_PRIMARY_KEY_COLUMN",
					fmt.Sprintf("primary key references unknown column %q", col))
			}
		}
	}
	return nil
}

// ValidateConstraintAgainstRows checks constraint c holds over the existing
// rows of a table being altered (ADD CONSTRAINT against a populated table).
// Only UNIQUE and PRIMARY KEY constraints are checked; other kinds pass.
func ValidateConstraintAgainstRows(schema yachtsql.Schema, c yachtsql.Constraint, rows []yachtsql.Record) error {
	switch c.Kind {
	case yachtsql.ConstraintUnique, yachtsql.ConstraintPrimaryKey:
		return validateUniqueRows(schema, c, rows)
	case yachtsql.ConstraintCheck:
		// CHECK expression evaluation against historical rows requires
		// internal/eval, which internal/ddl deliberately does not import to
		// avoid a ddl<->eval<->exec dependency cycle (internal/exec already
		// depends on internal/eval); callers that need CHECK validation
		// against existing rows run it through internal/exec's evaluator
		// before calling AlterTable, the same layering internal/eval's
		// SubqueryRunner indirection already establishes.
		return nil
	default:
		return nil
	}
}

func validateUniqueRows(schema yachtsql.Schema, c yachtsql.Constraint, rows []yachtsql.Record) error {
	idxs := make([]int, len(c.Columns))
	for i, col := range c.Columns {
		idxs[i] = schema.FieldIndex(col)
	}
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		key := ""
		for _, idx := range idxs {
			if idx < 0 || idx >= len(row.Values) {
				continue
			}
			key += row.Values[idx].String() + "\x1f"
		}
		if _, dup := seen[key]; dup {
			kind := yachtsql.ConstraintKindUnique
			if c.Kind == yachtsql.ConstraintPrimaryKey {
				kind = yachtsql.ConstraintKindPrimaryKey
			}
			return yachtsql.NewConstraintViolationError(kind,
				fmt.Sprintf("existing rows violate constraint %q over %v", c.Name, c.Columns))
		}
		seen[key] = struct{}{}
	}
	return nil
}

func normalizeName(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

package yachtsql

// Field describes one column of a Schema, generalizing the
// AttributeMetadata (ValueType + storage location + array-ness) into a
// dialect-neutral column descriptor the planner binds against.
type Field struct {
	Name     string    `json:"name"`
	Kind     ValueKind `json:"kind"`
	Nullable bool      `json:"nullable"`
	Repeated bool      `json:"repeated"` // array-of-Kind, generalizing AttributeMetadata.IsInsideArray
	Fields   []Field   `json:"fields,omitempty"` // nested fields when Kind == KindStruct
}

// ConstraintType enumerates table-level constraints, generalizing the
// reference/relation schema (x-relation) into full SQL constraints.
type ConstraintType string

const (
	ConstraintPrimaryKey ConstraintType = "primary_key"
	ConstraintUnique     ConstraintType = "unique"
	ConstraintCheck      ConstraintType = "check"
	ConstraintForeignKey ConstraintType = "foreign_key"
)

// Constraint is a table-level constraint declaration.
type Constraint struct {
	Kind       ConstraintType `json:"kind"`
	Name       string         `json:"name"`
	Columns    []string       `json:"columns"`
	CheckExpr  Expr           `json:"check_expr,omitempty"`
	RefTable   string         `json:"ref_table,omitempty"`
	RefColumns []string       `json:"ref_columns,omitempty"`
}

// IndexMetadata describes a secondary index over a table. It is schema
// metadata only: the physical planner does not read it and always plans a
// table scan.
type IndexMetadata struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// PartitionInfo records a table's partitioning scheme. The physical planner
// does not read it; parallel scan fan-out does not depend on it.
type PartitionInfo struct {
	Column      string `json:"column"`
	PartitionBy string `json:"partition_by"` // e.g. "day", "month", "hash"
}

// Schema is an ordered set of Fields plus the constraints and indexes that
// apply to rows shaped by it. Every LogicalPlan node carries the Schema its
// output rows conform to.
type Schema struct {
	Fields      []Field         `json:"fields"`
	Constraints []Constraint    `json:"constraints,omitempty"`
	Indexes     []IndexMetadata `json:"indexes,omitempty"`
	Partition   *PartitionInfo  `json:"partition,omitempty"`
}

// FieldIndex returns the position of a field by name, or -1 if absent. Column
// name matching is case-insensitive, matching standard SQL binder semantics.
func (s Schema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if eqFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	idx := s.FieldIndex(name)
	if idx < 0 {
		return Field{}, false
	}
	return s.Fields[idx], true
}

// PrimaryKey returns the primary key constraint's columns, if declared.
func (s Schema) PrimaryKey() ([]string, bool) {
	for _, c := range s.Constraints {
		if c.Kind == ConstraintPrimaryKey {
			return c.Columns, true
		}
	}
	return nil, false
}

// Concat appends another schema's fields, used when building join output
// schemas (left columns followed by right columns).
func (s Schema) Concat(other Schema) Schema {
	fields := make([]Field, 0, len(s.Fields)+len(other.Fields))
	fields = append(fields, s.Fields...)
	fields = append(fields, other.Fields...)
	return Schema{Fields: fields}
}

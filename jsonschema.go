package yachtsql

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// jsonSchemaType maps a ValueKind onto the JSON Schema primitive type name
// used by the google/jsonschema-go bridge, so catalog schemas can be
// exported for external tooling (API docs, client codegen) without the
// engine hand-rolling its own JSON Schema encoder.
func jsonSchemaType(k ValueKind) string {
	switch k {
	case KindBool:
		return "boolean"
	case KindInt64:
		return "integer"
	case KindFloat64, KindNumeric:
		return "number"
	case KindString, KindDate, KindTime, KindTimestamp, KindUUID, KindGeography:
		return "string"
	case KindBytes:
		return "string"
	case KindArray:
		return "array"
	case KindStruct, KindMap, KindJSON:
		return "object"
	case KindNull:
		return "null"
	default:
		return "string"
	}
}

// rawJSONSchema is the plain-map shape we build and interpret Field <->
// jsonschema.Schema conversions through. Building a map and round-tripping it
// via json.Marshal/Unmarshal into jsonschema.Schema (instead of constructing
// the library's struct directly) mirrors how the transformer.go
// bridges into this same package for payload validation.
type rawJSONSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]*rawJSONSchema `json:"properties,omitempty"`
	Items      *rawJSONSchema            `json:"items,omitempty"`
	Required   []string                  `json:"required,omitempty"`
}

// ToJSONSchema renders a Schema as a resolved *jsonschema.Schema document,
// the bridge SPEC_FULL's external-interfaces section calls for so catalog
// metadata can be served to clients that expect JSON Schema, and so incoming
// row payloads can be validated with the library's own Validate method.
func ToJSONSchema(s Schema) (*jsonschema.Schema, error) {
	raw := schemaToRaw(s)
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("yachtsql: marshal schema for jsonschema bridge: %w", err)
	}
	var resolved jsonschema.Schema
	if err := json.Unmarshal(payload, &resolved); err != nil {
		return nil, fmt.Errorf("yachtsql: unmarshal into jsonschema.Schema: %w", err)
	}
	return &resolved, nil
}

func schemaToRaw(s Schema) *rawJSONSchema {
	props := make(map[string]*rawJSONSchema, len(s.Fields))
	var required []string
	for _, f := range s.Fields {
		props[f.Name] = fieldToRaw(f)
		if !f.Nullable {
			required = append(required, f.Name)
		}
	}
	return &rawJSONSchema{Type: "object", Properties: props, Required: required}
}

func fieldToRaw(f Field) *rawJSONSchema {
	if f.Repeated {
		inner := f
		inner.Repeated = false
		return &rawJSONSchema{Type: "array", Items: fieldToRaw(inner)}
	}
	if f.Kind == KindStruct {
		props := make(map[string]*rawJSONSchema, len(f.Fields))
		var required []string
		for _, nested := range f.Fields {
			props[nested.Name] = fieldToRaw(nested)
			if !nested.Nullable {
				required = append(required, nested.Name)
			}
		}
		return &rawJSONSchema{Type: "object", Properties: props, Required: required}
	}
	return &rawJSONSchema{Type: jsonSchemaType(f.Kind)}
}

// ValidateAgainstSchema validates a decoded JSON payload against s using the
// jsonschema-go library's Resolve/Validate pipeline, the same two-step
// transformer.go's Validate path follows.
func ValidateAgainstSchema(s Schema, payload any) error {
	resolved, err := ToJSONSchema(s)
	if err != nil {
		return err
	}
	r, err := resolved.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("yachtsql: resolve json schema: %w", err)
	}
	if err := r.Validate(payload); err != nil {
		return fmt.Errorf("yachtsql: schema validation failed: %w", err)
	}
	return nil
}

// FromJSONSchema builds an engine Schema from a *jsonschema.Schema document,
// the inverse bridge for a dataset declared via an external JSON Schema
// document. No package in this module calls it.
// js is re-marshaled into rawJSONSchema rather than read field-by-field, for
// the same reason ToJSONSchema builds outward through the raw shape.
func FromJSONSchema(js *jsonschema.Schema) (Schema, error) {
	payload, err := json.Marshal(js)
	if err != nil {
		return Schema{}, fmt.Errorf("yachtsql: marshal jsonschema.Schema: %w", err)
	}
	var raw rawJSONSchema
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Schema{}, fmt.Errorf("yachtsql: unmarshal into raw schema: %w", err)
	}
	return rawToSchema(raw), nil
}

func rawToSchema(raw rawJSONSchema) Schema {
	fields := make([]Field, 0, len(raw.Properties))
	required := make(map[string]bool, len(raw.Required))
	for _, r := range raw.Required {
		required[r] = true
	}
	for name, prop := range raw.Properties {
		fields = append(fields, rawToField(name, prop, required[name]))
	}
	return Schema{Fields: fields}
}

func rawToField(name string, prop *rawJSONSchema, required bool) Field {
	field := Field{Name: name, Nullable: !required}
	switch prop.Type {
	case "array":
		field.Repeated = true
		if prop.Items != nil {
			inner := rawToField(name, prop.Items, true)
			field.Kind = inner.Kind
			field.Fields = inner.Fields
		}
	case "object":
		field.Kind = KindStruct
		for fname, fprop := range prop.Properties {
			field.Fields = append(field.Fields, rawToField(fname, fprop, true))
		}
	case "integer":
		field.Kind = KindInt64
	case "number":
		field.Kind = KindFloat64
	case "boolean":
		field.Kind = KindBool
	case "null":
		field.Kind = KindNull
	default:
		field.Kind = KindString
	}
	return field
}

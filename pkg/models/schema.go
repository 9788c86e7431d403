package models

import (
	"fmt"
	"sort"
)

// SchemaType is the value type of a single schema field.
type SchemaType string

const (
	SchemaTypeString  SchemaType = "string"
	SchemaTypeNumber  SchemaType = "number"
	SchemaTypeBoolean SchemaType = "boolean"
	SchemaTypeObject  SchemaType = "object"
	SchemaTypeArray   SchemaType = "array"
	SchemaTypeAny     SchemaType = "any"
)

// SchemaField describes one field of a node input or output contract.
type SchemaField struct {
	Type         SchemaType             `json:"type"                   validate:"required,oneof=string number boolean object array any"`
	Description  string                 `json:"description,omitempty"`
	Required     bool                   `json:"required,omitempty"`
	DefaultValue string                 `json:"defaultValue,omitempty"`
	Properties   map[string]SchemaField `json:"properties,omitempty"`
	Items        *SchemaField           `json:"items,omitempty"`
}

// NodeSchema maps field names to their descriptors.
type NodeSchema map[string]SchemaField

// SchemaValidationResult is the outcome of comparing two schemas.
type SchemaValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

// NewSchemaField creates a field of the given type.
func NewSchemaField(fieldType SchemaType, description string, required bool) SchemaField {
	return SchemaField{
		Type:        fieldType,
		Description: description,
		Required:    required,
	}
}

// NewSimpleSchema builds a schema of optional fields from a name to type mapping.
func NewSimpleSchema(fields map[string]SchemaType) NodeSchema {
	schema := make(NodeSchema, len(fields))
	for name, fieldType := range fields {
		schema[name] = SchemaField{Type: fieldType}
	}

	return schema
}

// IsTypeCompatible reports whether a value of sourceType may flow into targetType.
// Identical types match, a target of any accepts everything and a source of any
// is accepted everywhere.
func IsTypeCompatible(sourceType, targetType SchemaType) bool {
	if sourceType == targetType {
		return true
	}

	if targetType == SchemaTypeAny {
		return true
	}

	return sourceType == SchemaTypeAny
}

// ValidateSchemaCompatibility checks that every required target field exists in
// source and that fields present on both sides have compatible types.
func ValidateSchemaCompatibility(source, target NodeSchema) SchemaValidationResult {
	errs := make([]string, 0)

	for _, name := range target.FieldNames() {
		field := target[name]
		if !field.Required {
			continue
		}

		if _, ok := source[name]; !ok {
			errs = append(errs, fmt.Sprintf("Required field '%s' is missing in source schema", name))
		}
	}

	for _, name := range source.FieldNames() {
		targetField, ok := target[name]
		if !ok {
			continue
		}

		sourceField := source[name]
		if !IsTypeCompatible(sourceField.Type, targetField.Type) {
			errs = append(errs, fmt.Sprintf("Type mismatch for field '%s': %s -> %s", name, sourceField.Type, targetField.Type))
		}
	}

	if len(errs) == 0 {
		return SchemaValidationResult{IsValid: true}
	}

	return SchemaValidationResult{IsValid: false, Errors: errs}
}

// FieldNames returns the schema field names in lexical order.
func (s NodeSchema) FieldNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// RequiredFields returns the names of required fields in lexical order.
func (s NodeSchema) RequiredFields() []string {
	required := make([]string, 0)

	for _, name := range s.FieldNames() {
		if s[name].Required {
			required = append(required, name)
		}
	}

	return required
}

// JSONSchema renders the schema as a JSON Schema object document.
func (s NodeSchema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s))
	for name, field := range s {
		properties[name] = field.jsonSchema()
	}

	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if required := s.RequiredFields(); len(required) > 0 {
		doc["required"] = required
	}

	return doc
}

func (f SchemaField) jsonSchema() map[string]any {
	doc := make(map[string]any)

	if f.Type != SchemaTypeAny {
		doc["type"] = string(f.Type)
	}

	if f.Description != "" {
		doc["description"] = f.Description
	}

	if f.Type == SchemaTypeObject && len(f.Properties) > 0 {
		nested := NodeSchema(f.Properties).JSONSchema()
		doc["properties"] = nested["properties"]

		if required, ok := nested["required"]; ok {
			doc["required"] = required
		}
	}

	if f.Type == SchemaTypeArray && f.Items != nil {
		doc["items"] = f.Items.jsonSchema()
	}

	return doc
}

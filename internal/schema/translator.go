// Package schema turns remote JSON-Schema tool parameter definitions into runtime argument validators.
// file: internal/schema/translator.go
package schema

import (
	"fmt"

	"github.com/dkoosis/muxmcp/internal/logging"
)

// FieldKind is the runtime type a translated property accepts.
type FieldKind string

// Supported field kinds. Only one level of properties is mapped.
const (
	KindString  FieldKind = "string"
	KindNumber  FieldKind = "number"
	KindBoolean FieldKind = "boolean"
	KindArray   FieldKind = "array"
	KindObject  FieldKind = "object"
	KindAny     FieldKind = "any"
)

// Field describes one top-level property of a tool's input.
type Field struct {
	Name        string
	Kind        FieldKind
	Description string
	Required    bool
}

var logger = logging.GetLogger("schema_translator")

// kindFor maps a JSON-Schema "type" value onto a FieldKind.
func kindFor(schemaType any) FieldKind {
	t, _ := schemaType.(string)
	switch t {
	case "string":
		return KindString
	case "number", "integer":
		return KindNumber
	case "boolean":
		return KindBoolean
	case "array":
		return KindArray
	case "object":
		return KindObject
	default:
		return KindAny
	}
}

// Translate converts a tool's input schema into a Validator. It never fails:
// anything that is not an object schema with properties yields a permissive
// validator, and an unexpected failure during translation yields the generic
// id/limit/offset validator.
func Translate(input any) (v *Validator) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Schema translation panicked, using generic schema.", "panic", fmt.Sprint(r))
			v = genericValidator()
		}
	}()

	fields, ok := translateFields(input)
	if !ok {
		return permissiveValidator()
	}

	built, err := newValidator(fields, false)
	if err != nil {
		logger.Warn("Translated schema failed to compile, using generic schema.", "error", err)
		return genericValidator()
	}
	return built
}

// translateFields extracts the flat field list. ok is false when the input
// should be treated permissively.
func translateFields(input any) ([]Field, bool) {
	doc, ok := asObject(input)
	if !ok {
		return nil, false
	}
	if t, _ := doc["type"].(string); t != "object" {
		return nil, false
	}
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		return nil, false
	}

	required := make(map[string]bool)
	if list, ok := doc["required"].([]any); ok {
		for _, item := range list {
			if name, ok := item.(string); ok {
				required[name] = true
			}
		}
	}

	fields := make([]Field, 0, len(props))
	for _, name := range sortedKeys(props) {
		f := Field{Name: name, Kind: KindAny, Required: required[name]}
		if prop, ok := props[name].(map[string]any); ok {
			f.Kind = kindFor(prop["type"])
			f.Description, _ = prop["description"].(string)
		}
		fields = append(fields, f)
	}
	return fields, true
}

func permissiveValidator() *Validator {
	v, err := newValidator(nil, true)
	if err != nil {
		// The empty object schema always compiles.
		panic(err)
	}
	return v
}

func genericValidator() *Validator {
	v, err := newValidator([]Field{
		{Name: "id", Kind: KindString},
		{Name: "limit", Kind: KindNumber},
		{Name: "offset", Kind: KindNumber},
	}, true)
	if err != nil {
		return &Validator{permissive: true, document: map[string]any{"type": "object"}}
	}
	return v
}

// file: internal/schema/validator.go
package schema

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/mcperror"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resourceURL is the in-memory location every translated document is compiled under.
const resourceURL = "mem://muxmcp/tool-input.json"

// Validator checks tool arguments against a translated input schema.
// A Validator is immutable and safe for concurrent use.
type Validator struct {
	fields     []Field
	document   map[string]any
	compiled   *jsonschema.Schema
	permissive bool
}

func newValidator(fields []Field, permissive bool) (*Validator, error) {
	doc := buildDocument(fields)
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, NewValidationError(ErrSchemaCompileFailed, "failed to encode translated schema", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(resourceURL, bytes.NewReader(raw)); err != nil {
		return nil, NewValidationError(ErrSchemaCompileFailed, "failed to add translated schema resource", err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, NewValidationError(ErrSchemaCompileFailed, "failed to compile translated schema", err)
	}

	return &Validator{
		fields:     fields,
		document:   doc,
		compiled:   compiled,
		permissive: permissive,
	}, nil
}

// buildDocument renders fields as a flat JSON-Schema object document.
func buildDocument(fields []Field) map[string]any {
	doc := map[string]any{"type": "object"}
	if len(fields) == 0 {
		return doc
	}

	props := make(map[string]any, len(fields))
	var required []string
	for _, f := range fields {
		prop := map[string]any{}
		if f.Kind != KindAny {
			prop["type"] = string(f.Kind)
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		props[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	doc["properties"] = props
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

// Validate checks args against the schema. A nil map is treated as empty.
// Failures are *ValidationError values marked mcperror.ErrInvalidArguments.
func (v *Validator) Validate(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return errors.Mark(NewValidationError(ErrInvalidJSONFormat, "arguments are not JSON-encodable", err), mcperror.ErrInvalidArguments)
	}
	if v.compiled == nil {
		return nil
	}

	// Round-trip so the validator sees plain JSON values (float64, []any, map[string]any).
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return errors.Mark(NewValidationError(ErrInvalidJSONFormat, "arguments could not be decoded", err), mcperror.ErrInvalidArguments)
	}

	if err := v.compiled.Validate(instance); err != nil {
		var valErr *jsonschema.ValidationError
		if errors.As(err, &valErr) {
			return errors.Mark(convertValidationError(valErr, raw), mcperror.ErrInvalidArguments)
		}
		return errors.Mark(NewValidationError(ErrValidationFailed, "argument validation failed", err), mcperror.ErrInvalidArguments)
	}
	return nil
}

// Fields returns a copy of the translated top-level fields, sorted by name.
func (v *Validator) Fields() []Field {
	return append([]Field(nil), v.fields...)
}

// Document returns a copy of the normalized JSON Schema, suitable for LLM tool definitions.
func (v *Validator) Document() map[string]any {
	return cloneDocument(v.document)
}

// Permissive reports whether the validator fell back to accepting any object.
func (v *Validator) Permissive() bool {
	return v.permissive
}

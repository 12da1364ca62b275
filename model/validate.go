package model

import (
	"fmt"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// ErrorKind classifies a FieldError.
type ErrorKind string

const (
	// KindRequired means a required field was missing, null or empty.
	KindRequired ErrorKind = "required"
	// KindCast means a value could not be converted to the field's type.
	KindCast ErrorKind = "cast"
)

// FieldError describes why one field is invalid.
type FieldError struct {
	Path    string
	Kind    ErrorKind
	Message string
	Value   ldvalue.Value
}

func (e FieldError) Error() string { return e.Message }

// ValidationResult is the outcome of validating a record. Errors has an entry only for each
// field that is invalid, so an empty map means the record is valid.
type ValidationResult struct {
	Model  string
	Errors map[string]FieldError
	// Value is the record after casting, restricted to the schema's fields. Fields that could not
	// be cast are left out.
	Value ldvalue.Value

	order []string
}

// OK returns true if there are no errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Err returns nil if the record is valid, or a *ValidationError describing every invalid field.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Result: r}
}

// ValidationError is the error form of a failed ValidationResult.
type ValidationError struct {
	Result ValidationResult
}

// Error renders all field errors in schema order, for instance:
//
//	User validation failed: name: Path `name` is required., email: Path `email` is required.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Result.Errors))
	for _, name := range e.Result.order {
		if fe, ok := e.Result.Errors[name]; ok {
			parts = append(parts, name+": "+fe.Message)
		}
	}
	return fmt.Sprintf("%s validation failed: %s", e.Result.Model, strings.Join(parts, ", "))
}

// Validate casts and checks a record against the schema. A record that is not a JSON object is
// treated as an empty one.
func (s Schema) Validate(record ldvalue.Value) ValidationResult {
	result := ValidationResult{Model: s.Name, Errors: make(map[string]FieldError)}
	cast := ldvalue.ObjectBuild()
	for _, f := range s.Fields {
		result.order = append(result.order, f.Name)
		raw := record.GetByKey(f.Name)
		value, ok := f.cast(raw)
		if !ok {
			result.Errors[f.Name] = FieldError{
				Path: f.Name,
				Kind: KindCast,
				Message: fmt.Sprintf("Cast to %s failed for value %s (type %s) at path \"%s\"",
					f.Type, raw.JSONString(), raw.Type(), f.Name),
				Value: raw,
			}
			continue
		}
		if f.Required && f.missing(value) {
			result.Errors[f.Name] = FieldError{
				Path:    f.Name,
				Kind:    KindRequired,
				Message: fmt.Sprintf("Path `%s` is required.", f.Name),
				Value:   raw,
			}
		}
		if !value.IsNull() {
			cast.Set(f.Name, value)
		}
	}
	result.Value = cast.Build()
	return result
}

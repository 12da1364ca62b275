package model

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Document is a record bound to a schema. Its properties hold the cast values, so a numeric
// string given for a number field reads back as a number.
type Document struct {
	schema Schema
	raw    ldvalue.Value
	data   ldvalue.Value
}

// New creates a Document from a record. The record is kept as given for validation; only its
// castable schema fields become properties.
func (s Schema) New(record ldvalue.Value) *Document {
	return &Document{schema: s, raw: record, data: s.Validate(record).Value}
}

// NewUser creates a Document for UserSchema.
func NewUser(record ldvalue.Value) *Document {
	return UserSchema.New(record)
}

// Get returns the value of a property, or a null value if it is not set.
func (d *Document) Get(field string) ldvalue.Value {
	return d.data.GetByKey(field)
}

// Has returns true if the property is set.
func (d *Document) Has(field string) bool {
	_, ok := d.data.TryGetByKey(field)
	return ok
}

// Value returns all of the properties as an object.
func (d *Document) Value() ldvalue.Value {
	return d.data
}

// Validate checks the document's original record against its schema.
func (d *Document) Validate() ValidationResult {
	return d.schema.Validate(d.raw)
}

// ValidateWith validates on a separate goroutine and passes the result to callback: nil if the
// document is valid, or a *ValidationError.
func (d *Document) ValidateWith(callback func(err error)) {
	go func() {
		callback(d.Validate().Err())
	}()
}

func (d *Document) String() string {
	return d.data.JSONString()
}

package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// FieldType is the type that a field's value is cast to.
type FieldType int

const (
	// TypeString fields hold text. Numbers and booleans are cast to their string form.
	TypeString FieldType = iota + 1
	// TypeNumber fields hold numbers. Numeric strings and booleans are cast.
	TypeNumber
	// TypeInteger fields hold whole numbers. Casting follows TypeNumber, but a fractional
	// result is a cast failure.
	TypeInteger
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeNumber:
		return "Number"
	case TypeInteger:
		return "Integer"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field describes one property of a Schema.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
}

// Schema is a named list of fields. The name is used in validation error messages.
type Schema struct {
	Name   string
	Fields []Field
}

// UserSchema is the schema of the "User" model: a required name and email, and an optional age.
var UserSchema = Schema{ //nolint:gochecknoglobals
	Name: "User",
	Fields: []Field{
		{Name: "name", Type: TypeString, Required: true},
		{Name: "email", Type: TypeString, Required: true},
		{Name: "age", Type: TypeInteger},
	},
}

// Field returns the definition of a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// cast converts a raw property value to the field's type. A null result means the value is
// absent; ok is false if the value cannot be represented as the field's type.
func (f Field) cast(raw ldvalue.Value) (value ldvalue.Value, ok bool) {
	switch raw.Type() {
	case ldvalue.NullType:
		return ldvalue.Null(), true
	case ldvalue.ArrayType, ldvalue.ObjectType:
		return ldvalue.Null(), false
	}
	switch f.Type {
	case TypeString:
		switch raw.Type() {
		case ldvalue.BoolType, ldvalue.NumberType:
			return ldvalue.String(raw.String()), true
		default:
			return raw, true
		}
	case TypeNumber, TypeInteger:
		n, castOK := castNumber(raw)
		if castOK && f.Type == TypeInteger && !n.IsNull() && !n.IsInt() {
			return ldvalue.Null(), false
		}
		return n, castOK
	}
	return ldvalue.Null(), false
}

func castNumber(raw ldvalue.Value) (ldvalue.Value, bool) {
	switch raw.Type() {
	case ldvalue.BoolType:
		if raw.BoolValue() {
			return ldvalue.Int(1), true
		}
		return ldvalue.Int(0), true
	case ldvalue.StringType:
		s := strings.TrimSpace(raw.StringValue())
		if s == "" {
			return ldvalue.Null(), true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ldvalue.Null(), false
		}
		return ldvalue.Float64(n), true
	case ldvalue.NumberType:
		return raw, true
	}
	return ldvalue.Null(), false
}

// missing reports whether a cast value fails the "required" rule.
func (f Field) missing(value ldvalue.Value) bool {
	if value.IsNull() {
		return true
	}
	return f.Type == TypeString && value.StringValue() == ""
}

// Package model contains the small document model that the example suites validate: a Schema
// of typed fields, the rules for casting and validating a record against it, and Document, a
// record bound to its schema.
//
// Records are ldvalue.Value objects, so they can come from JSON, YAML or code alike. Validation
// follows the conventions of a typical document-database ODM: required text fields reject
// missing, null and empty values; numeric strings are cast to numbers; and fields that are not
// in the schema are dropped.
package model

package model

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
)

func TestEmptyRecordIsMissingRequiredFields(t *testing.T) {
	result := UserSchema.Validate(ldvalue.ObjectBuild().Build())

	assert.False(t, result.OK())
	assert.Contains(t, result.Errors, "name")
	assert.Contains(t, result.Errors, "email")
	assert.NotContains(t, result.Errors, "age")
	assert.Equal(t, FieldError{Path: "name", Kind: KindRequired, Message: "Path `name` is required."},
		result.Errors["name"])
	assert.EqualError(t, result.Err(),
		"User validation failed: name: Path `name` is required., email: Path `email` is required.")
}

func TestNonObjectRecordIsTreatedAsEmpty(t *testing.T) {
	for _, record := range []ldvalue.Value{ldvalue.Null(), ldvalue.String("x"), ldvalue.ArrayOf()} {
		result := UserSchema.Validate(record)
		assert.Len(t, result.Errors, 2, record.JSONString())
	}
}

func TestCompleteRecordIsValid(t *testing.T) {
	record := ldvalue.Parse([]byte(`{"name": "foo", "email": "foo@bar.com", "age": 35}`))
	result := UserSchema.Validate(record)

	assert.True(t, result.OK())
	assert.Nil(t, result.Err())
	m.In(t).Assert(result.Value, m.JSONStrEqual(`{"name": "foo", "email": "foo@bar.com", "age": 35}`))
}

func TestRequiredTextRejectsNullAndEmpty(t *testing.T) {
	record := ldvalue.Parse([]byte(`{"name": null, "email": ""}`))
	result := UserSchema.Validate(record)
	assert.Equal(t, KindRequired, result.Errors["name"].Kind)
	assert.Equal(t, KindRequired, result.Errors["email"].Kind)
}

func TestValuesAreCastToFieldType(t *testing.T) {
	record := ldvalue.Parse([]byte(`{"name": 12, "email": true, "age": " 35 ", "extra": 1}`))
	result := UserSchema.Validate(record)

	require.True(t, result.OK(), "%+v", result.Errors)
	assert.Equal(t, ldvalue.String("12"), result.Value.GetByKey("name"))
	assert.Equal(t, ldvalue.String("true"), result.Value.GetByKey("email"))
	assert.Equal(t, ldvalue.Int(35), result.Value.GetByKey("age"))
	_, hasExtra := result.Value.TryGetByKey("extra")
	assert.False(t, hasExtra)
}

func TestUncastableValueIsACastError(t *testing.T) {
	record := ldvalue.Parse([]byte(`{"name": "foo", "email": "a@b", "age": "old"}`))
	result := UserSchema.Validate(record)

	require.Len(t, result.Errors, 1)
	fe := result.Errors["age"]
	assert.Equal(t, KindCast, fe.Kind)
	assert.Equal(t, `Cast to Integer failed for value "old" (type string) at path "age"`, fe.Message)
	assert.Equal(t, ldvalue.String("old"), fe.Value)

	result = UserSchema.Validate(ldvalue.Parse([]byte(`{"name": {"first": "a"}, "email": "a@b"}`)))
	assert.Equal(t, KindCast, result.Errors["name"].Kind)
}

func TestEmptyNumericStringIsAbsent(t *testing.T) {
	result := UserSchema.Validate(ldvalue.Parse([]byte(`{"name": "foo", "email": "a@b", "age": ""}`)))
	assert.True(t, result.OK())
	_, hasAge := result.Value.TryGetByKey("age")
	assert.False(t, hasAge)
}

func TestSchemaField(t *testing.T) {
	f, ok := UserSchema.Field("age")
	assert.True(t, ok)
	assert.Equal(t, Field{Name: "age", Type: TypeInteger}, f)
	_, ok = UserSchema.Field("nope")
	assert.False(t, ok)
	assert.Equal(t, "Number", TypeNumber.String())
	assert.Equal(t, "Integer", TypeInteger.String())
}

func TestFractionalAgeIsACastError(t *testing.T) {
	for _, age := range []string{`35.5`, `"35.5"`} {
		t.Run(age, func(t *testing.T) {
			result := UserSchema.Validate(ldvalue.Parse([]byte(`{"name": "foo", "email": "a@b", "age": ` + age + `}`)))

			require.Len(t, result.Errors, 1)
			fe := result.Errors["age"]
			assert.Equal(t, KindCast, fe.Kind)
			assert.Contains(t, fe.Message, "Cast to Integer failed for value ")
			assert.Contains(t, fe.Message, `at path "age"`)
		})
	}
	assert.Equal(t, `Cast to Integer failed for value 35.5 (type number) at path "age"`,
		UserSchema.Validate(ldvalue.Parse([]byte(`{"name": "foo", "email": "a@b", "age": 35.5}`))).Errors["age"].Message)
}

func TestWholeNumberFormsAreIntegers(t *testing.T) {
	for _, age := range []string{`35`, `35.0`, `"35"`, `"3.5e1"`} {
		result := UserSchema.Validate(ldvalue.Parse([]byte(`{"name": "foo", "email": "a@b", "age": ` + age + `}`)))
		require.True(t, result.OK(), age)
		assert.Equal(t, ldvalue.Int(35), result.Value.GetByKey("age"), age)
	}
}

func TestNumberFieldKeepsFractions(t *testing.T) {
	schema := Schema{Name: "Reading", Fields: []Field{{Name: "level", Type: TypeNumber}}}
	result := schema.Validate(ldvalue.Parse([]byte(`{"level": "2.5"}`)))
	require.True(t, result.OK())
	assert.Equal(t, ldvalue.Float64(2.5), result.Value.GetByKey("level"))
}

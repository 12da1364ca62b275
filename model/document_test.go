package model

import (
	"errors"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentProperties(t *testing.T) {
	user := NewUser(ldvalue.ObjectBuild().
		Set("name", ldvalue.String("foo")).
		Set("email", ldvalue.String("foo@bar.com")).
		Set("age", ldvalue.Int(35)).
		Build())

	assert.True(t, user.Has("age"))
	assert.Equal(t, 35, user.Get("age").IntValue())
	assert.Equal(t, "foo", user.Get("name").StringValue())
	assert.False(t, user.Has("extra"))
	assert.True(t, user.Get("extra").IsNull())
	assert.JSONEq(t, `{"name": "foo", "email": "foo@bar.com", "age": 35}`, user.String())
}

func TestDocumentWithoutOptionalField(t *testing.T) {
	user := NewUser(ldvalue.Parse([]byte(`{"name": "foo", "email": "foo@bar.com"}`)))
	assert.False(t, user.Has("age"))
	assert.True(t, user.Validate().OK())
}

func TestValidateWithCallsBackWithError(t *testing.T) {
	user := NewUser(ldvalue.Null())
	errCh := make(chan error, 1)
	user.ValidateWith(func(err error) { errCh <- err })

	select {
	case err := <-errCh:
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Contains(t, ve.Result.Errors, "name")
		assert.Contains(t, ve.Result.Errors, "email")
		assert.NotContains(t, ve.Result.Errors, "age")
	case <-time.After(time.Second):
		require.Fail(t, "timed out waiting for validation callback")
	}
}

func TestValidateWithCallsBackWithNil(t *testing.T) {
	user := NewUser(ldvalue.Parse([]byte(`{"name": "foo", "email": "foo@bar.com"}`)))
	errCh := make(chan error, 1)
	user.ValidateWith(func(err error) { errCh <- err })
	assert.NoError(t, <-errCh)
}

package suites

import (
	"errors"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/suite-runner/framework/lifecycle"
	"github.com/launchdarkly/suite-runner/framework/matchers"
	"github.com/launchdarkly/suite-runner/model"
)

func validationErrors() matchers.MatcherTransform {
	return matchers.Transform("validation errors", func(value interface{}) interface{} {
		var ve *model.ValidationError
		if err, ok := value.(error); ok && errors.As(err, &ve) {
			return ve.Result.Errors
		}
		return map[string]model.FieldError(nil)
	})
}

// UserModel declares the "User model" suite, which checks field presence validation of
// model.UserSchema.
func UserModel(b *lifecycle.Builder) {
	b.Describe("User model", func(b *lifecycle.Builder) {
		b.ItAsync("should return errors when required fields are missing", func(t *lifecycle.T, done lifecycle.Done) {
			user := model.NewUser(ldvalue.ObjectBuild().Build())
			user.ValidateWith(func(err error) {
				t.Debug("validation result: %v", err)
				matchers.AssertThat(t, err, validationErrors().Should(matchers.HasKey("name")))
				matchers.AssertThat(t, err, validationErrors().Should(matchers.HasKey("email")))
				matchers.AssertThat(t, err, validationErrors().Should(matchers.Not(matchers.HasKey("age"))))
				done(nil)
			})
		})

		b.ItAsync("should have optional age field", func(t *lifecycle.T, done lifecycle.Done) {
			user := model.NewUser(ldvalue.ObjectBuild().
				Set("name", ldvalue.String("foo")).
				Set("email", ldvalue.String("foo@bar.com")).
				Set("age", ldvalue.Int(35)).
				Build())

			if err := matchers.CheckStrictEqual(user.Has("age"), true); err != nil {
				done(err)
				return
			}
			done(matchers.CheckStrictEqual(user.Get("age").IntValue(), 35))
		})
	})
}

// Package matchers is the assertion library for suite cases and hooks.
//
// A Matcher is built once, independently of any value, and can then be applied to values with
// Test, Check, Assert or Require. Matchers can be negated with Not, combined with AllOf and
// AnyOf, and applied to a part of a value with Transform.
//
// Failure messages always have two lines, the expectation and the value that failed it:
//
//	expected: strictly equal to 2
//	actual value was: 1
package matchers

import (
	"fmt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Matcher tests a value and, when the value fails, describes what was expected of it. The zero
// value passes everything.
type Matcher struct {
	pass   func(actual interface{}) bool
	expect func(actual interface{}) string
}

// New creates a Matcher. The expect function is only called for a value that failed, so it can
// describe the expectation in terms of that value.
func New(pass func(actual interface{}) bool, expect func(actual interface{}) string) Matcher {
	return Matcher{pass: pass, expect: expect}
}

// Expect creates a Matcher whose expectation is a fixed description.
func Expect(description string, pass func(actual interface{}) bool) Matcher {
	return New(pass, func(interface{}) string { return description })
}

func (m Matcher) test(actual interface{}) bool {
	return m.pass == nil || m.pass(actual)
}

func (m Matcher) describe(actual interface{}) string {
	if m.expect == nil {
		return "anything"
	}
	return m.expect(actual)
}

// Test applies the Matcher. On failure, message is the two-line failure description.
func (m Matcher) Test(actual interface{}) (ok bool, message string) {
	if m.test(actual) {
		return true, ""
	}
	return false, fmt.Sprintf("expected: %s\nactual value was: %s", m.describe(actual), Describe(actual))
}

// Check returns an *AssertionError if the value fails, or nil.
func (m Matcher) Check(actual interface{}) error {
	if ok, message := m.Test(actual); !ok {
		return &AssertionError{Message: message, Actual: actual}
	}
	return nil
}

// Assert records a failure on t, such as a *lifecycle.T, if the value fails. The scope keeps
// running either way.
func (m Matcher) Assert(t assert.TestingT, actual interface{}) bool {
	if h, ok := t.(helper); ok {
		h.Helper()
	}
	if ok, message := m.Test(actual); !ok {
		return assert.Fail(t, message)
	}
	return true
}

// Require is Assert, except that a failure also ends the scope.
func (m Matcher) Require(t require.TestingT, actual interface{}) {
	if h, ok := t.(helper); ok {
		h.Helper()
	}
	if ok, message := m.Test(actual); !ok {
		require.Fail(t, message)
	}
}

// AssertThat is m.Assert(t, actual), in the argument order of assertion libraries.
func AssertThat(t assert.TestingT, actual interface{}, m Matcher) bool {
	if h, ok := t.(helper); ok {
		h.Helper()
	}
	return m.Assert(t, actual)
}

// RequireThat is m.Require(t, actual).
func RequireThat(t require.TestingT, actual interface{}, m Matcher) {
	if h, ok := t.(helper); ok {
		h.Helper()
	}
	m.Require(t, actual)
}

// helper is implemented by *testing.T and *lifecycle.T. Calling it keeps these functions out of
// failure stacktraces.
type helper interface{ Helper() }

// Describe renders a value for a failure message: its String method if it is a fmt.Stringer,
// otherwise the "%+v" format.
func Describe(value interface{}) string {
	if s, ok := value.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%+v", value)
}

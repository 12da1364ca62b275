package matchers

// AssertionError is a failed expectation returned by Matcher.Check and the Check functions.
// Message has the same form as other matcher failures:
//
//	expected: strictly equal to 2
//	actual value was: 1
type AssertionError struct {
	Message  string
	Actual   interface{}
	Expected interface{}
}

func (e *AssertionError) Error() string {
	return e.Message
}

// CheckStrictEqual returns nil if actual is StrictEqual to expected, or an *AssertionError.
func CheckStrictEqual(actual, expected interface{}) error {
	return withExpected(StrictEqual(expected).Check(actual), expected)
}

// CheckDeepEqual returns nil if actual is Equal to expected, or an *AssertionError.
func CheckDeepEqual(actual, expected interface{}) error {
	return withExpected(Equal(expected).Check(actual), expected)
}

func withExpected(err error, expected interface{}) error {
	if ae, ok := err.(*AssertionError); ok {
		ae.Expected = expected
		return ae
	}
	return err
}

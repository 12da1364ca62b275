package matchers

// MatcherTransform applies Matchers to a value derived from the one being tested, such as a
// field of a struct. Failure messages name the derived value but show the whole original one:
//
//	nameError := matchers.Transform("error kind for name", func(v interface{}) interface{} {
//	    return v.(model.ValidationResult).Errors["name"].Kind
//	})
//	nameError.Should(matchers.Equal(model.KindRequired)).Assert(t, result)
//
//	expected: error kind for name equal to required
//	actual value was: {Model:User Errors:map[] ...}
type MatcherTransform struct {
	name   string
	derive func(interface{}) interface{}
}

// Transform creates a MatcherTransform. The name is prefixed to the expectation of each
// Matcher passed to Should.
func Transform(name string, derive func(interface{}) interface{}) MatcherTransform {
	return MatcherTransform{name: name, derive: derive}
}

// Should returns a Matcher that tests the derived value with m.
func (mt MatcherTransform) Should(m Matcher) Matcher {
	derive := mt.derive
	if derive == nil {
		derive = func(v interface{}) interface{} { return v }
	}
	return New(
		func(actual interface{}) bool { return m.test(derive(actual)) },
		func(actual interface{}) string { return mt.name + " " + m.describe(derive(actual)) },
	)
}

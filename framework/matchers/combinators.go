package matchers

import "strings"

// Not inverts a Matcher. The expectation reads "not (<expectation>)".
func Not(m Matcher) Matcher {
	return New(
		func(actual interface{}) bool { return !m.test(actual) },
		func(actual interface{}) string { return "not (" + m.describe(actual) + ")" },
	)
}

// AllOf passes if every Matcher passes. On failure, only the unmet expectations are described.
func AllOf(ms ...Matcher) Matcher {
	return New(
		func(actual interface{}) bool { return len(unmet(ms, actual)) == 0 },
		func(actual interface{}) string {
			if failed := unmet(ms, actual); len(failed) != 0 {
				return joinExpectations(failed, " and ")
			}
			return joinExpectations(expectations(ms, actual), " and ")
		},
	)
}

// AnyOf passes if at least one Matcher passes. With no Matchers, it never passes.
func AnyOf(ms ...Matcher) Matcher {
	return New(
		func(actual interface{}) bool { return len(unmet(ms, actual)) < len(ms) },
		func(actual interface{}) string { return joinExpectations(expectations(ms, actual), " or ") },
	)
}

func unmet(ms []Matcher, actual interface{}) []string {
	var ret []string
	for _, m := range ms {
		if !m.test(actual) {
			ret = append(ret, m.describe(actual))
		}
	}
	return ret
}

func expectations(ms []Matcher, actual interface{}) []string {
	ret := make([]string, 0, len(ms))
	for _, m := range ms {
		ret = append(ret, m.describe(actual))
	}
	return ret
}

func joinExpectations(expectations []string, separator string) string {
	if len(expectations) == 1 {
		return expectations[0]
	}
	parts := make([]string, 0, len(expectations))
	for _, e := range expectations {
		parts = append(parts, "("+e+")")
	}
	return strings.Join(parts, separator)
}

package lifecycle

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter decides whether a case should run. Cases that do not match are reported as pending.
type Filter interface {
	Match(Path) bool
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(Path) bool

func (f FilterFunc) Match(p Path) bool { return f(p) }

// SelfDescribingFilter is a Filter that can explain itself before a run.
type SelfDescribingFilter interface {
	Filter
	Describe(w io.Writer)
}

// RegexFilters selects cases by matching their paths against patterns, like mocha's --grep
// and --grep --invert. A case runs if it matches any MustMatch pattern (or there are none)
// and does not match any MustNotMatch pattern.
type RegexFilters struct {
	MustMatch    PathPatternList
	MustNotMatch PathPatternList
}

func (r RegexFilters) Match(p Path) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(p, true)) &&
		!r.MustNotMatch.AnyMatch(p, false)
}

func (r RegexFilters) Describe(w io.Writer) {
	if !r.MustMatch.IsDefined() && !r.MustNotMatch.IsDefined() {
		return
	}
	_, _ = fmt.Fprintln(w, "Some cases will be reported as pending based on the filter criteria for this run:")
	if r.MustMatch.IsDefined() {
		_, _ = fmt.Fprintf(w, "  skip any not matching %s\n", r.MustMatch)
	}
	if r.MustNotMatch.IsDefined() {
		_, _ = fmt.Fprintf(w, "  skip any matching %s\n", r.MustNotMatch)
	}
	_, _ = fmt.Fprintln(w)
}

// PathPattern is a sequence of regexes, one per path component. A pattern "a/b" matches any
// path whose first component matches "a" and whose second matches "b".
type PathPattern []*regexp.Regexp

// Match tests the pattern against a path. If the pattern has more components than the path,
// the result is the value of includeParents: this lets a pattern select everything under a
// suite without naming each case.
func (p PathPattern) Match(path Path, includeParents bool) bool {
	n := len(p)
	if n > len(path) {
		if !includeParents {
			return false
		}
		n = len(path)
	}
	for i := 0; i < n; i++ {
		if !p[i].MatchString(path[i]) {
			return false
		}
	}
	return true
}

func (p PathPattern) String() string {
	ss := make([]string, 0, len(p))
	for _, c := range p {
		ss = append(ss, c.String())
	}
	return strings.Join(ss, "/")
}

// ParsePathPattern parses a "/"-separated list of regexes.
func ParsePathPattern(s string) (PathPattern, error) {
	parts := strings.Split(s, "/")
	ret := make(PathPattern, 0, len(parts))
	for _, part := range parts {
		rx, err := regexp.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", part, err)
		}
		ret = append(ret, rx)
	}
	return ret, nil
}

// PathPatternList is a set of alternative patterns.
type PathPatternList []PathPattern

func (l PathPatternList) String() string {
	ss := make([]string, 0, len(l))
	for _, p := range l {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set parses and adds a pattern.
func (l *PathPatternList) Set(value string) error {
	p, err := ParsePathPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

// IsDefined returns true if the list has any patterns.
func (l PathPatternList) IsDefined() bool {
	return len(l) != 0
}

// AnyMatch returns true if any pattern in the list matches.
func (l PathPatternList) AnyMatch(path Path, includeParents bool) bool {
	for _, p := range l {
		if p.Match(path, includeParents) {
			return true
		}
	}
	return false
}

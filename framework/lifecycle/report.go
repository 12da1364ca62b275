package lifecycle

import (
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// Path identifies a suite or case: the names of all enclosing suites followed by its own name.
type Path []string

func (p Path) String() string {
	return strings.Join(p, "/")
}

// Plus returns a new Path with name appended. The receiver is not modified.
func (p Path) Plus(name string) Path {
	return append(slices.Clone(p), name)
}

// Parent returns the path of the enclosing suite, or nil for a top-level path.
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return nil
	}
	return slices.Clone(p[:len(p)-1])
}

// Equal returns true if both paths have the same components.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}

// Status is the final state of a case.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// Outcome is the result of one case. For a failed case, Reason is the failure description and
// Errors holds the individual errors that caused it; for a pending case, Reason optionally
// says why it did not run.
type Outcome struct {
	Status Status
	Reason string
	Errors []error
}

// Passed returns a passing Outcome.
func Passed() Outcome { return Outcome{Status: StatusPassed} }

// Failed returns a failing Outcome whose reason is the messages of errs, one per line.
func Failed(errs ...error) Outcome {
	return Outcome{Status: StatusFailed, Reason: joinErrors(errs), Errors: errs}
}

// Pending returns an Outcome for a case that did not run.
func Pending(reason string) Outcome { return Outcome{Status: StatusPending, Reason: reason} }

func (o Outcome) String() string {
	if o.Reason == "" {
		return string(o.Status)
	}
	return string(o.Status) + "(" + o.Reason + ")"
}

func joinErrors(errs []error) string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Error())
	}
	return strings.Join(messages, "\n")
}

// CaseResult is the Report entry for one case.
type CaseResult struct {
	Path     Path
	Outcome  Outcome
	Duration time.Duration
}

// HookDiagnostic records a hook failure that is not part of any case's outcome: an "after each"
// hook (Path is the case) or an "after all" hook (Path is the suite).
type HookDiagnostic struct {
	Path   Path
	Kind   HookKind
	Reason string
}

// Counts summarizes the outcomes in a Report.
type Counts struct {
	Passed  int
	Failed  int
	Pending int
}

// Report is everything observed during a run: one CaseResult per declared case, in the order
// the runner reached them, and any hook diagnostics.
type Report struct {
	RunID       string
	Cases       []CaseResult
	Diagnostics []HookDiagnostic
}

// OK returns true if no case failed and no hook reported a diagnostic.
func (r Report) OK() bool {
	return len(r.Failures()) == 0 && len(r.Diagnostics) == 0
}

// Failures returns the failed cases in order.
func (r Report) Failures() []CaseResult {
	var ret []CaseResult
	for _, c := range r.Cases {
		if c.Outcome.Status == StatusFailed {
			ret = append(ret, c)
		}
	}
	return ret
}

// Counts tallies the case outcomes.
func (r Report) Counts() Counts {
	var c Counts
	for _, result := range r.Cases {
		switch result.Outcome.Status {
		case StatusPassed:
			c.Passed++
		case StatusFailed:
			c.Failed++
		case StatusPending:
			c.Pending++
		}
	}
	return c
}

// Find returns the result for the case with the given path.
func (r Report) Find(path Path) (CaseResult, bool) {
	for _, c := range r.Cases {
		if c.Path.Equal(path) {
			return c, true
		}
	}
	return CaseResult{}, false
}

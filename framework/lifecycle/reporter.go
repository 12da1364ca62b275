package lifecycle

import (
	"errors"

	"github.com/launchdarkly/suite-runner/framework"
)

// Reporter receives status information as a run progresses. The runner calls it from a single
// goroutine, in execution order.
type Reporter interface {
	SuiteStarted(path Path)
	SuiteFinished(path Path)
	CaseStarted(path Path)
	CaseError(path Path, err error)
	CaseFinished(result CaseResult, debugOutput framework.CapturedOutput)
	HookFailed(diagnostic HookDiagnostic)
	EndLog(report Report) error
}

type nullReporter struct{}

func (nullReporter) SuiteStarted(Path)                                {}
func (nullReporter) SuiteFinished(Path)                               {}
func (nullReporter) CaseStarted(Path)                                 {}
func (nullReporter) CaseError(Path, error)                            {}
func (nullReporter) CaseFinished(CaseResult, framework.CapturedOutput) {}
func (nullReporter) HookFailed(HookDiagnostic)                        {}
func (nullReporter) EndLog(Report) error                              { return nil }

// MultiReporter sends everything to each of its Reporters in turn.
type MultiReporter struct {
	Reporters []Reporter
}

func (m *MultiReporter) SuiteStarted(path Path) {
	for _, r := range m.Reporters {
		r.SuiteStarted(path)
	}
}

func (m *MultiReporter) SuiteFinished(path Path) {
	for _, r := range m.Reporters {
		r.SuiteFinished(path)
	}
}

func (m *MultiReporter) CaseStarted(path Path) {
	for _, r := range m.Reporters {
		r.CaseStarted(path)
	}
}

func (m *MultiReporter) CaseError(path Path, err error) {
	for _, r := range m.Reporters {
		r.CaseError(path, err)
	}
}

func (m *MultiReporter) CaseFinished(result CaseResult, debugOutput framework.CapturedOutput) {
	for _, r := range m.Reporters {
		r.CaseFinished(result, debugOutput)
	}
}

func (m *MultiReporter) HookFailed(diagnostic HookDiagnostic) {
	for _, r := range m.Reporters {
		r.HookFailed(diagnostic)
	}
}

// EndLog calls EndLog on every Reporter, even if some fail, and returns all of their errors.
func (m *MultiReporter) EndLog(report Report) error {
	var errs []error
	for _, r := range m.Reporters {
		if err := r.EndLog(report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/launchdarkly/suite-runner/framework"
)

// DefaultTimeout is how long an asynchronous case or hook is given to call Done, unless
// configured otherwise. It is the same as mocha's default.
const DefaultTimeout = 2 * time.Second

const excludedByFilter = "excluded by filter parameters"

// Configuration contains options for an entire run.
type Configuration struct {
	// Filter is an optional way to choose which cases run. Cases it excludes are reported as
	// pending.
	Filter Filter

	// Reporter receives status information about each suite, case and hook.
	Reporter Reporter

	// Context is an optional value of any type defined by the application which can be
	// accessed from cases and hooks with T.Context.
	Context interface{}

	// Timeout bounds how long the runner waits for an asynchronous action to call Done. Zero
	// means wait indefinitely.
	Timeout time.Duration

	// RunID identifies the run in the Report. If empty, a random UUID is used.
	RunID string

	// Logger receives a trace of what the runner is doing. If nil, nothing is logged.
	Logger framework.Logger
}

type runner struct {
	config   Configuration
	reporter Reporter
	logger   framework.Logger
	report   Report
}

// Run executes the given top-level suites in order and returns a Report with one entry for
// every case in them.
//
// Failures of cases and hooks never stop the run; they are recorded in the Report. The only
// error Run returns is a *DeclarationError, if the tree is malformed; in that case nothing
// is executed.
func Run(config Configuration, roots ...*Suite) (Report, error) {
	if err := validateTree(roots); err != nil {
		return Report{}, err
	}
	if config.Reporter == nil {
		config.Reporter = nullReporter{}
	}
	if config.Logger == nil {
		config.Logger = framework.NullLogger()
	}
	if config.RunID == "" {
		config.RunID = uuid.New().String()
	}
	r := &runner{
		config:   config,
		reporter: config.Reporter,
		logger:   config.Logger,
		report:   Report{RunID: config.RunID},
	}
	r.logger.Printf("Starting run %s with %d top-level suite(s)", config.RunID, len(roots))
	for _, s := range roots {
		r.runSuite(s, nil, nil, nil)
	}
	r.logger.Printf("Finished run %s", config.RunID)
	return r.report, nil
}

// RunDeclared declares suites with a Builder and then runs them.
func RunDeclared(config Configuration, declare func(*Builder)) (Report, error) {
	b := NewBuilder()
	declare(b)
	roots, err := b.Build()
	if err != nil {
		return Report{}, err
	}
	return Run(config, roots...)
}

// runSuite activates a suite: "before all" hooks, then each child in order, then "after all"
// hooks. ancestors are the enclosing suites, outermost first, whose "each" hooks also apply.
func (r *runner) runSuite(s *Suite, parentPath Path, ancestors []*Suite, parentLog *framework.CapturingLogger) {
	path := parentPath.Plus(s.Name)
	chain := append(append(make([]*Suite, 0, len(ancestors)+1), ancestors...), s)

	r.reporter.SuiteStarted(path)
	defer r.reporter.SuiteFinished(path)

	suiteLog := &framework.CapturingLogger{}
	if parentLog != nil {
		detach := suiteLog.Inherit(parentLog)
		defer detach()
	}

	if !r.hasRunnableCase(s, path) {
		// Nothing here will execute, so the suite is never activated and its hooks don't run.
		r.visitChildren(s, path, chain, suiteLog)
		return
	}

	for _, h := range s.hooksOf(BeforeAll) {
		r.logger.Printf("Running beforeAll hook of [%s]", path)
		res := newScope(path, &r.config, suiteLog).execute(h.Action)
		switch {
		case res.failed:
			r.settleAll(s, path, Outcome{
				Status: StatusFailed,
				Reason: fmt.Sprintf("%s hook error: %s", BeforeAll, res.reason()),
				Errors: res.errors,
			}, suiteLog)
			r.runAfterAll(s, path, suiteLog)
			return
		case res.skipped:
			r.settleAll(s, path, Pending(res.skipReason), suiteLog)
			r.runAfterAll(s, path, suiteLog)
			return
		}
	}

	r.visitChildren(s, path, chain, suiteLog)
	r.runAfterAll(s, path, suiteLog)
}

func (r *runner) visitChildren(s *Suite, path Path, chain []*Suite, suiteLog *framework.CapturingLogger) {
	for _, child := range s.Children {
		switch c := child.(type) {
		case *Case:
			r.runCase(c, path.Plus(c.Name), chain, suiteLog)
		case *Suite:
			r.runSuite(c, path, chain, suiteLog)
		}
	}
}

func (r *runner) runAfterAll(s *Suite, path Path, suiteLog *framework.CapturingLogger) {
	for _, h := range s.hooksOf(AfterAll) {
		r.logger.Printf("Running afterAll hook of [%s]", path)
		res := newScope(path, &r.config, suiteLog).execute(h.Action)
		if res.failed {
			r.diagnose(HookDiagnostic{Path: path, Kind: AfterAll, Reason: res.reason()})
		}
	}
}

// settleAll assigns the same outcome to every case under s without running anything, keeping
// the suite structure visible to the reporter.
func (r *runner) settleAll(s *Suite, path Path, outcome Outcome, suiteLog *framework.CapturingLogger) {
	for _, child := range s.Children {
		switch c := child.(type) {
		case *Case:
			r.record(CaseResult{Path: path.Plus(c.Name), Outcome: outcome}, suiteLog.Output())
		case *Suite:
			childPath := path.Plus(c.Name)
			r.reporter.SuiteStarted(childPath)
			r.settleAll(c, childPath, outcome, suiteLog)
			r.reporter.SuiteFinished(childPath)
		}
	}
}

func (r *runner) runCase(c *Case, path Path, chain []*Suite, suiteLog *framework.CapturingLogger) {
	if !c.Body.IsDefined() {
		r.record(CaseResult{Path: path, Outcome: Pending("")}, nil)
		return
	}
	if !r.included(path) {
		r.record(CaseResult{Path: path, Outcome: Pending(excludedByFilter)}, nil)
		return
	}

	r.reporter.CaseStarted(path)
	started := time.Now()
	caseLog := &framework.CapturingLogger{}
	detach := caseLog.Inherit(suiteLog)
	defer detach()

	outcome, setupDone := r.runBeforeEach(path, chain, caseLog)
	if setupDone {
		r.logger.Printf("Running case [%s]", path)
		t := newScope(path, &r.config, caseLog)
		t.onError = func(err error) { r.reporter.CaseError(path, err) }
		res := t.execute(c.Body.Action())
		switch {
		case res.failed:
			outcome = Outcome{Status: StatusFailed, Reason: res.reason(), Errors: res.errors}
		case res.skipped:
			outcome = Pending(res.skipReason)
		default:
			outcome = Passed()
		}
		r.runAfterEach(path, chain, caseLog)
	}

	r.record(CaseResult{Path: path, Outcome: outcome, Duration: time.Since(started)}, caseLog.Output())
}

// runBeforeEach runs the "before each" hooks that apply to a case, outermost suite first. It
// stops at the first hook that fails or skips, returning the case's outcome and false.
func (r *runner) runBeforeEach(path Path, chain []*Suite, caseLog *framework.CapturingLogger) (Outcome, bool) {
	for _, s := range chain {
		for _, h := range s.hooksOf(BeforeEach) {
			res := newScope(path, &r.config, caseLog).execute(h.Action)
			switch {
			case res.failed:
				return Outcome{
					Status: StatusFailed,
					Reason: fmt.Sprintf("%s hook error: %s", BeforeEach, res.reason()),
					Errors: res.errors,
				}, false
			case res.skipped:
				return Pending(res.skipReason), false
			}
		}
	}
	return Outcome{}, true
}

// runAfterEach runs every "after each" hook that applies to a case, outermost suite first
// (the same order as setup). Failures become diagnostics and do not affect the case outcome.
func (r *runner) runAfterEach(path Path, chain []*Suite, caseLog *framework.CapturingLogger) {
	for _, s := range chain {
		for _, h := range s.hooksOf(AfterEach) {
			res := newScope(path, &r.config, caseLog).execute(h.Action)
			if res.failed {
				r.diagnose(HookDiagnostic{Path: path, Kind: AfterEach, Reason: res.reason()})
			}
		}
	}
}

func (r *runner) hasRunnableCase(s *Suite, path Path) bool {
	found := false
	s.walkCases(path, func(c *Case, casePath Path) {
		if !found && c.Body.IsDefined() && r.included(casePath) {
			found = true
		}
	})
	return found
}

func (r *runner) included(path Path) bool {
	return r.config.Filter == nil || r.config.Filter.Match(path)
}

func (r *runner) record(result CaseResult, debugOutput framework.CapturedOutput) {
	r.report.Cases = append(r.report.Cases, result)
	r.reporter.CaseFinished(result, debugOutput)
}

func (r *runner) diagnose(d HookDiagnostic) {
	r.logger.Printf("%s hook failed for [%s]: %s", d.Kind, d.Path, d.Reason)
	r.report.Diagnostics = append(r.report.Diagnostics, d)
	r.reporter.HookFailed(d)
}

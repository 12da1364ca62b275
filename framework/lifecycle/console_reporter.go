package lifecycle

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/launchdarkly/suite-runner/framework"
)

var consoleSuiteColor = color.New(color.Bold)                    //nolint:gochecknoglobals
var consolePassedColor = color.New(color.FgGreen)                //nolint:gochecknoglobals
var consoleFailedColor = color.New(color.FgRed)                  //nolint:gochecknoglobals
var consoleErrorColor = color.New(color.FgYellow)                //nolint:gochecknoglobals
var consolePendingColor = color.New(color.FgCyan)                //nolint:gochecknoglobals
var consoleDebugOutputColor = color.New(color.Faint)             //nolint:gochecknoglobals
var consoleSlowColor = color.New(color.Faint, color.FgYellow)    //nolint:gochecknoglobals
var consoleHookFailedColor = color.New(color.Faint, color.FgRed) //nolint:gochecknoglobals

// Cases slower than this have their duration shown, as mocha does.
const slowCaseThreshold = 75 * time.Millisecond

// ConsoleReporter writes indented, colored progress in the style of mocha's default reporter.
type ConsoleReporter struct {
	// Output is where to write. If nil, the terminal's color-capable stdout is used.
	Output io.Writer

	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool

	failureCount int
}

func (c *ConsoleReporter) out() io.Writer {
	if c.Output == nil {
		return color.Output
	}
	return c.Output
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

func (c *ConsoleReporter) SuiteStarted(path Path) {
	if len(path) == 1 {
		_, _ = fmt.Fprintln(c.out())
	}
	_, _ = consoleSuiteColor.Fprintf(c.out(), "%s%s\n", indent(len(path)), path[len(path)-1])
}

func (c *ConsoleReporter) SuiteFinished(Path) {}

func (c *ConsoleReporter) CaseStarted(Path) {}

func (c *ConsoleReporter) CaseError(Path, error) {}

func (c *ConsoleReporter) CaseFinished(result CaseResult, debugOutput framework.CapturedOutput) {
	w := c.out()
	depth := len(result.Path)
	name := result.Path[len(result.Path)-1]
	failed := false
	switch result.Outcome.Status {
	case StatusPassed:
		_, _ = consolePassedColor.Fprintf(w, "%s✓ ", indent(depth))
		_, _ = fmt.Fprint(w, name)
		if result.Duration >= slowCaseThreshold {
			_, _ = consoleSlowColor.Fprintf(w, " (%dms)", result.Duration.Milliseconds())
		}
		_, _ = fmt.Fprintln(w)
	case StatusPending:
		if result.Outcome.Reason == "" {
			_, _ = consolePendingColor.Fprintf(w, "%s- %s\n", indent(depth), name)
		} else {
			_, _ = consolePendingColor.Fprintf(w, "%s- %s (%s)\n", indent(depth), name, result.Outcome.Reason)
		}
	case StatusFailed:
		failed = true
		c.failureCount++
		_, _ = consoleFailedColor.Fprintf(w, "%s%d) %s\n", indent(depth), c.failureCount, name)
		for _, line := range strings.Split(result.Outcome.Reason, "\n") {
			_, _ = consoleErrorColor.Fprintf(w, "%s  %s\n", indent(depth), line)
		}
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		_, _ = consoleDebugOutputColor.Fprintln(w, debugOutput.ToString(indent(depth+1)+"DEBUG "))
	}
}

func (c *ConsoleReporter) HookFailed(d HookDiagnostic) {
	_, _ = consoleHookFailedColor.Fprintf(c.out(), "%s\"%s\" hook failed for %s: %s\n",
		indent(len(d.Path)), d.Kind, d.Path, d.Reason)
}

// EndLog prints mocha's closing tally.
func (c *ConsoleReporter) EndLog(report Report) error {
	w := c.out()
	counts := report.Counts()
	_, _ = fmt.Fprintln(w)
	_, _ = consolePassedColor.Fprintf(w, "  %d passing\n", counts.Passed)
	if counts.Failed > 0 {
		_, _ = consoleFailedColor.Fprintf(w, "  %d failing\n", counts.Failed)
	}
	if counts.Pending > 0 {
		_, _ = consolePendingColor.Fprintf(w, "  %d pending\n", counts.Pending)
	}
	if n := len(report.Diagnostics); n > 0 {
		_, _ = consoleHookFailedColor.Fprintf(w, "  %d hook failure(s)\n", n)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

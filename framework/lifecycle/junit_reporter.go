package lifecycle

import (
	"encoding/xml"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/launchdarkly/suite-runner/framework"
)

// JUnitReporter writes a JUnit XML file when the run ends: one <testsuite> per top-level
// suite, one <testcase> per case, and one extra failed <testcase> per hook diagnostic.
type JUnitReporter struct {
	filePath string
	filters  RegexFilters
	entries  []jUnitEntry // in the order they were reported
	lock     sync.Mutex
}

type jUnitEntry struct {
	path    Path
	name    string
	outcome Outcome
	output  string
	elapsed time.Duration
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

// NewJUnitReporter creates a JUnitReporter that will write to filePath. The filters are only
// recorded as properties of the output.
func NewJUnitReporter(filePath string, filters RegexFilters) *JUnitReporter {
	return &JUnitReporter{filePath: filePath, filters: filters}
}

func (j *JUnitReporter) SuiteStarted(Path)     {}
func (j *JUnitReporter) SuiteFinished(Path)    {}
func (j *JUnitReporter) CaseStarted(Path)      {}
func (j *JUnitReporter) CaseError(Path, error) {}

func (j *JUnitReporter) CaseFinished(result CaseResult, debugOutput framework.CapturedOutput) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.entries = append(j.entries, jUnitEntry{
		path:    result.Path,
		name:    result.Path.String(),
		outcome: result.Outcome,
		output:  debugOutput.ToString(""),
		elapsed: result.Duration,
	})
}

func (j *JUnitReporter) HookFailed(d HookDiagnostic) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.entries = append(j.entries, jUnitEntry{
		path:    d.Path,
		name:    fmt.Sprintf("%s \"%s\" hook", d.Path, d.Kind),
		outcome: Outcome{Status: StatusFailed, Reason: d.Reason},
	})
}

func (j *JUnitReporter) EndLog(report Report) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	fmt.Printf("Writing JUnit data to %s\n", j.filePath)

	properties := []jUnitXMLProperty{
		{Name: "run.id", Value: report.RunID},
		{Name: "run.filter.mustMatch", Value: j.filters.MustMatch.String()},
		{Name: "run.filter.mustNotMatch", Value: j.filters.MustNotMatch.String()},
	}

	var doc jUnitXMLDocument
	for _, topLevel := range topLevelNames(j.entries) {
		suite := jUnitXMLTestSuite{Name: topLevel, Properties: properties}
		var total time.Duration
		for _, e := range j.entries {
			if len(e.path) == 0 || e.path[0] != topLevel {
				continue
			}
			suite.Tests++
			total += e.elapsed
			testCase := jUnitXMLTestCase{
				Classname: e.path.Parent().String(),
				Name:      e.name,
				Time:      jUnitDurationString(e.elapsed),
			}
			switch e.outcome.Status {
			case StatusFailed:
				suite.Failures++
				testCase.Failure = &jUnitXMLFailure{
					Message:  failureMessage(e.outcome),
					Contents: e.output,
				}
			case StatusPending:
				suite.Skipped++
				testCase.SkipMessage = &jUnitXMLSkipMessage{Message: e.outcome.Reason}
			}
			suite.TestCases = append(suite.TestCases, testCase)
		}
		suite.Time = jUnitDurationString(total)
		doc.Suites = append(doc.Suites, suite)
	}

	bytes, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	bytes = append(bytes, '\n')

	return os.WriteFile(j.filePath, bytes, 0644) //nolint:gosec
}

func failureMessage(o Outcome) string {
	message := o.Reason
	for _, e := range o.Errors {
		if es, ok := e.(ErrorWithStacktrace); ok {
			message += "\n  Stacktrace:"
			for _, s := range es.Stacktrace {
				message += "\n    " + s.String()
			}
		}
	}
	return message
}

func topLevelNames(entries []jUnitEntry) []string {
	var ret []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if len(e.path) != 0 && !seen[e.path[0]] {
			ret = append(ret, e.path[0])
			seen[e.path[0]] = true
		}
	}
	return ret
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

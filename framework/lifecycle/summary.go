package lifecycle

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type suiteSummary struct {
	name         string
	counts       Counts
	hookFailures int
	duration     time.Duration
}

func summarize(report Report) []*suiteSummary {
	var ordered []*suiteSummary
	byName := make(map[string]*suiteSummary)
	get := func(path Path) *suiteSummary {
		name := ""
		if len(path) != 0 {
			name = path[0]
		}
		s, ok := byName[name]
		if !ok {
			s = &suiteSummary{name: name}
			byName[name] = s
			ordered = append(ordered, s)
		}
		return s
	}
	for _, c := range report.Cases {
		s := get(c.Path)
		s.duration += c.Duration
		switch c.Outcome.Status {
		case StatusPassed:
			s.counts.Passed++
		case StatusFailed:
			s.counts.Failed++
		case StatusPending:
			s.counts.Pending++
		}
	}
	for _, d := range report.Diagnostics {
		get(d.Path).hookFailures++
	}
	return ordered
}

// PrintSummary writes a table of results per top-level suite, followed by the details of
// every failed case and hook diagnostic.
func PrintSummary(w io.Writer, report Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Run " + report.RunID)
	t.AppendHeader(table.Row{"Suite", "Passing", "Failing", "Pending", "Hook failures", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Suite", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Passing", Align: text.AlignRight},
		{Name: "Failing", Align: text.AlignRight},
		{Name: "Pending", Align: text.AlignRight},
		{Name: "Hook failures", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	var total suiteSummary
	for _, s := range summarize(report) {
		t.AppendRow(table.Row{
			s.name, s.counts.Passed, s.counts.Failed, s.counts.Pending, s.hookFailures, formatDuration(s.duration),
		})
		total.counts.Passed += s.counts.Passed
		total.counts.Failed += s.counts.Failed
		total.counts.Pending += s.counts.Pending
		total.hookFailures += s.hookFailures
		total.duration += s.duration
	}

	status := "PASS"
	if !report.OK() {
		status = "FAIL"
	}
	t.AppendFooter(table.Row{
		status, total.counts.Passed, total.counts.Failed, total.counts.Pending, total.hookFailures, formatDuration(total.duration),
	})
	t.SetStyle(table.StyleLight)
	t.Render()

	failures := report.Failures()
	if len(failures) == 0 && len(report.Diagnostics) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	for i, f := range failures {
		_, _ = fmt.Fprintf(w, "  %d) %s\n", i+1, strings.Join(f.Path, " "))
		for _, line := range strings.Split(f.Outcome.Reason, "\n") {
			_, _ = fmt.Fprintf(w, "     %s\n", line)
		}
		_, _ = fmt.Fprintln(w)
	}
	for _, d := range report.Diagnostics {
		_, _ = fmt.Fprintf(w, "  \"%s\" hook for \"%s\": %s\n", d.Kind, strings.Join(d.Path, " "), d.Reason)
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

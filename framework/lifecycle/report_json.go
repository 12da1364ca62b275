package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// MarshalJSON encodes the report in the form served over HTTP and saved by report stores:
//
//	{"runId": "...",
//	 "cases": [{"path": ["suite", "case"], "status": "failed", "reason": "...", "durationMs": 3}],
//	 "diagnostics": [{"path": ["suite"], "hook": "afterAll", "reason": "..."}]}
//
// Only the reason text of a failure survives encoding, not the individual errors.
func (r Report) MarshalJSON() ([]byte, error) {
	return jwriter.MarshalJSONWithWriter(r)
}

// WriteToJSONWriter is the streaming form of MarshalJSON.
func (r Report) WriteToJSONWriter(w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("runId").String(r.RunID)
	cases := obj.Name("cases").Array()
	for _, c := range r.Cases {
		c.WriteToJSONWriter(w)
	}
	cases.End()
	diagnostics := obj.Name("diagnostics").Array()
	for _, d := range r.Diagnostics {
		d.WriteToJSONWriter(w)
	}
	diagnostics.End()
	obj.End()
}

// WriteToJSONWriter encodes one case entry.
func (c CaseResult) WriteToJSONWriter(w *jwriter.Writer) {
	obj := w.Object()
	writePath(obj.Name("path"), c.Path)
	obj.Name("status").String(string(c.Outcome.Status))
	obj.Maybe("reason", c.Outcome.Reason != "").String(c.Outcome.Reason)
	obj.Name("durationMs").Int(int(c.Duration.Milliseconds()))
	obj.End()
}

// WriteToJSONWriter encodes one diagnostic entry.
func (d HookDiagnostic) WriteToJSONWriter(w *jwriter.Writer) {
	obj := w.Object()
	writePath(obj.Name("path"), d.Path)
	obj.Name("hook").String(d.Kind.String())
	obj.Name("reason").String(d.Reason)
	obj.End()
}

func writePath(w *jwriter.Writer, p Path) {
	arr := w.Array()
	for _, name := range p {
		w.String(name)
	}
	arr.End()
}

// UnmarshalJSON decodes the format produced by MarshalJSON.
func (r *Report) UnmarshalJSON(data []byte) error {
	return jreader.UnmarshalJSONWithReader(data, r)
}

// ReadFromJSONReader is the streaming form of UnmarshalJSON.
func (r *Report) ReadFromJSONReader(reader *jreader.Reader) {
	var out Report
	for obj := reader.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "runId":
			out.RunID = reader.String()
		case "cases":
			for arr := reader.Array(); arr.Next(); {
				var c CaseResult
				c.ReadFromJSONReader(reader)
				out.Cases = append(out.Cases, c)
			}
		case "diagnostics":
			for arr := reader.Array(); arr.Next(); {
				var d HookDiagnostic
				d.ReadFromJSONReader(reader)
				out.Diagnostics = append(out.Diagnostics, d)
			}
		}
	}
	if reader.Error() == nil {
		*r = out
	}
}

// ReadFromJSONReader decodes one case entry.
func (c *CaseResult) ReadFromJSONReader(reader *jreader.Reader) {
	for obj := reader.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "path":
			c.Path = readPath(reader)
		case "status":
			status := Status(reader.String())
			switch status {
			case StatusPassed, StatusFailed, StatusPending:
				c.Outcome.Status = status
			default:
				reader.AddError(fmt.Errorf("unknown case status %q", status))
			}
		case "reason":
			c.Outcome.Reason = reader.String()
		case "durationMs":
			c.Duration = time.Duration(reader.Int()) * time.Millisecond
		}
	}
}

// ReadFromJSONReader decodes one diagnostic entry.
func (d *HookDiagnostic) ReadFromJSONReader(reader *jreader.Reader) {
	for obj := reader.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "path":
			d.Path = readPath(reader)
		case "hook":
			kind, err := ParseHookKind(reader.String())
			if err != nil {
				reader.AddError(err)
			}
			d.Kind = kind
		case "reason":
			d.Reason = reader.String()
		}
	}
}

func readPath(reader *jreader.Reader) Path {
	p := Path{}
	for arr := reader.Array(); arr.Next(); {
		p = append(p, reader.String())
	}
	return p
}

// ParseHookKind is the inverse of HookKind.String.
func ParseHookKind(s string) (HookKind, error) {
	for _, k := range []HookKind{BeforeAll, AfterAll, BeforeEach, AfterEach} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, errors.New("unknown hook kind " + s)
}

// MarshalJSON encodes one case entry in the same form as within a Report.
func (c CaseResult) MarshalJSON() ([]byte, error) {
	return jwriter.MarshalJSONWithWriter(c)
}

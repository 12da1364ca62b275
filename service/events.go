package service

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/launchdarkly/eventsource"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/launchdarkly/suite-runner/framework"
	"github.com/launchdarkly/suite-runner/framework/lifecycle"
	"github.com/launchdarkly/suite-runner/framework/opt"
)

// Names of the server-sent events published by EventStream.
const (
	EventSuiteStarted  = "suite-start"
	EventSuiteFinished = "suite-end"
	EventCaseStarted   = "case-start"
	EventCaseError     = "case-error"
	EventCaseFinished  = "case-end"
	EventHookFailed    = "hook-failed"
	EventRunFinished   = "end"
)

// A client that falls this many events behind is disconnected.
const clientBufferSize = 500

type runEvent struct {
	id   string
	name string
	data string
}

func (e runEvent) Event() string { return e.name }
func (e runEvent) Id() string    { return e.id } //nolint:stylecheck
func (e runEvent) Data() string  { return e.data }

// EventStream is a lifecycle.Reporter that publishes run progress as server-sent events. A
// client that connects in the middle of a run first receives every event of that run so far;
// one that connects after a run has ended receives the whole of that run. Each event reaches
// each client exactly once, in order.
//
// It also remembers the report of the last run that ended, so it can serve as a ReportSource.
type EventStream struct {
	logger  framework.Logger
	history []eventsource.Event
	clients map[chan eventsource.Event]struct{}
	nextID  int
	ended   bool
	closed  bool
	latest  opt.Maybe[lifecycle.Report]
	lock    sync.Mutex
}

func NewEventStream(logger framework.Logger) *EventStream {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &EventStream{logger: logger, clients: make(map[chan eventsource.Event]struct{})}
}

// Handler returns the HTTP handler for stream requests.
func (s *EventStream) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming is not supported", http.StatusInternalServerError)
			return
		}
		backlog, live, cancel := s.subscribe()
		defer cancel()
		if live == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		h := w.Header()
		h.Set("Content-Type", "text/event-stream; charset=utf-8")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		enc := eventsource.NewEncoder(w, false)
		send := func(e eventsource.Event) bool {
			if err := enc.Encode(e); err != nil {
				s.logger.Printf("Stream client went away: %s", err)
				return false
			}
			flusher.Flush()
			return true
		}
		for _, e := range backlog {
			if !send(e) {
				return
			}
		}
		for {
			select {
			case <-r.Context().Done():
				return
			case e, ok := <-live:
				if !ok || !send(e) {
					return
				}
			}
		}
	}
}

// subscribe returns the events of the current run so far, and a channel that receives every
// later event. Both are taken under the same lock that publish holds, so no event is in both
// or in neither. live is nil if the stream is closed.
func (s *EventStream) subscribe() (backlog []eventsource.Event, live chan eventsource.Event, cancel func()) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return nil, nil, func() {}
	}
	backlog = append([]eventsource.Event(nil), s.history...)
	live = make(chan eventsource.Event, clientBufferSize)
	s.clients[live] = struct{}{}
	return backlog, live, func() { s.disconnect(live) }
}

func (s *EventStream) disconnect(live chan eventsource.Event) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.clients[live]; ok {
		delete(s.clients, live)
		close(live)
	}
}

// Close disconnects all clients.
func (s *EventStream) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	for live := range s.clients {
		delete(s.clients, live)
		close(live)
	}
}

func (s *EventStream) publish(name string, data ldvalue.Value) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.ended {
		s.history = nil
		s.ended = false
	}
	s.nextID++
	e := runEvent{id: strconv.Itoa(s.nextID), name: name, data: data.JSONString()}
	s.history = append(s.history, e)

	s.logger.Printf("sending %s event with data: %s", e.name, e.data)
	for live := range s.clients {
		select {
		case live <- e:
		default:
			s.logger.Printf("Disconnecting a stream client that is %d events behind", clientBufferSize)
			delete(s.clients, live)
			close(live)
		}
	}
}

func pathValue(path lifecycle.Path) ldvalue.Value {
	arr := ldvalue.ArrayBuild()
	for _, p := range path {
		arr.Add(ldvalue.String(p))
	}
	return arr.Build()
}

func pathEvent(path lifecycle.Path) ldvalue.Value {
	return ldvalue.ObjectBuild().Set("path", pathValue(path)).Build()
}

func (s *EventStream) SuiteStarted(path lifecycle.Path) {
	s.publish(EventSuiteStarted, pathEvent(path))
}

func (s *EventStream) SuiteFinished(path lifecycle.Path) {
	s.publish(EventSuiteFinished, pathEvent(path))
}

func (s *EventStream) CaseStarted(path lifecycle.Path) {
	s.publish(EventCaseStarted, pathEvent(path))
}

func (s *EventStream) CaseError(path lifecycle.Path, err error) {
	s.publish(EventCaseError, ldvalue.ObjectBuild().
		Set("path", pathValue(path)).
		Set("error", ldvalue.String(err.Error())).
		Build())
}

func (s *EventStream) CaseFinished(result lifecycle.CaseResult, _ framework.CapturedOutput) {
	data, _ := result.MarshalJSON()
	s.publish(EventCaseFinished, ldvalue.Parse(data))
}

func (s *EventStream) HookFailed(diagnostic lifecycle.HookDiagnostic) {
	s.publish(EventHookFailed, ldvalue.ObjectBuild().
		Set("path", pathValue(diagnostic.Path)).
		Set("hook", ldvalue.String(diagnostic.Kind.String())).
		Set("reason", ldvalue.String(diagnostic.Reason)).
		Build())
}

func (s *EventStream) EndLog(report lifecycle.Report) error {
	counts := report.Counts()
	s.publish(EventRunFinished, ldvalue.ObjectBuild().
		Set("runId", ldvalue.String(report.RunID)).
		Set("ok", ldvalue.Bool(report.OK())).
		Set("passed", ldvalue.Int(counts.Passed)).
		Set("failed", ldvalue.Int(counts.Failed)).
		Set("pending", ldvalue.Int(counts.Pending)).
		Set("hookFailures", ldvalue.Int(len(report.Diagnostics))).
		Build())

	s.lock.Lock()
	s.ended = true
	s.latest = opt.Some(report)
	s.lock.Unlock()
	return nil
}

// Latest returns the report of the last run that ended.
func (s *EventStream) Latest(context.Context) (opt.Maybe[lifecycle.Report], error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.latest, nil
}

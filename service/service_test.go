package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/launchdarkly/eventsource"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/suite-runner/framework/lifecycle"
	"github.com/launchdarkly/suite-runner/framework/opt"
	"github.com/launchdarkly/suite-runner/metrics"
)

func declareSample(b *lifecycle.Builder) {
	b.Describe("suite", func(b *lifecycle.Builder) {
		b.It("passes", func(t *lifecycle.T) {})
		b.It("fails", func(t *lifecycle.T) { t.Errorf("bad") })
	})
}

func runSample(t *testing.T, reporter lifecycle.Reporter, runID string) lifecycle.Report {
	report, err := lifecycle.RunDeclared(lifecycle.Configuration{Reporter: reporter, RunID: runID}, declareSample)
	require.NoError(t, err)
	require.NoError(t, reporter.EndLog(report))
	return report
}

func get(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

type failingSource struct{}

func (failingSource) Latest(context.Context) (opt.Maybe[lifecycle.Report], error) {
	return opt.None[lifecycle.Report](), errors.New("unreachable")
}

func TestReportEndpoint(t *testing.T) {
	events := NewEventStream(nil)
	defer events.Close()

	httphelpers.WithServer(NewHandler(Config{Reports: events}), func(server *httptest.Server) {
		status, _ := get(t, server.URL+"/report")
		assert.Equal(t, http.StatusNotFound, status)

		report := runSample(t, events, "run-1")

		status, body := get(t, server.URL+"/report")
		assert.Equal(t, http.StatusOK, status)
		expected, _ := report.MarshalJSON()
		m.In(t).Assert(body, m.JSONStrEqual(string(expected)))
	})
}

func TestReportEndpointErrors(t *testing.T) {
	httphelpers.WithServer(NewHandler(Config{Reports: failingSource{}}), func(server *httptest.Server) {
		status, _ := get(t, server.URL+"/report")
		assert.Equal(t, http.StatusInternalServerError, status)
	})

	httphelpers.WithServer(NewHandler(Config{}), func(server *httptest.Server) {
		status, _ := get(t, server.URL+"/report")
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = get(t, server.URL+"/events")
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = get(t, server.URL+"/metrics")
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	runSample(t, metrics.NewReporter(reg), "run-1")

	httphelpers.WithServer(NewHandler(Config{Gatherer: reg}), func(server *httptest.Server) {
		status, body := get(t, server.URL+"/metrics")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `suite_runner_cases_total{status="failed"} 1`)
		assert.Contains(t, body, `suite_runner_cases_total{status="passed"} 1`)
	})
}

func requireEvent(t *testing.T, stream *eventsource.Stream) eventsource.Event {
	t.Helper()
	select {
	case e := <-stream.Events:
		return e
	case <-time.After(time.Second * 5):
		require.FailNow(t, "timed out waiting for event")
		return nil
	}
}

func requireEventNames(t *testing.T, stream *eventsource.Stream, names ...string) []eventsource.Event {
	var ret []eventsource.Event
	for _, name := range names {
		e := requireEvent(t, stream)
		require.Equal(t, name, e.Event(), "event data: %s", e.Data())
		ret = append(ret, e)
	}
	return ret
}

var sampleEventNames = []string{
	EventSuiteStarted,
	EventCaseStarted, EventCaseFinished,
	EventCaseStarted, EventCaseError, EventCaseFinished,
	EventSuiteFinished,
	EventRunFinished,
}

func TestEventStream(t *testing.T) {
	events := NewEventStream(nil)
	defer events.Close()

	runSample(t, events, "run-1")

	httphelpers.WithServer(NewHandler(Config{Events: events}), func(server *httptest.Server) {
		req, _ := http.NewRequest("GET", server.URL+"/events", nil)
		stream, err := eventsource.SubscribeWithRequest("", req)
		require.NoError(t, err)
		defer stream.Close()

		// a client that connects after a run sees that whole run
		replayed := requireEventNames(t, stream, sampleEventNames...)
		m.In(t).Assert(replayed[0].Data(), m.JSONStrEqual(`{"path": ["suite"]}`))
		m.In(t).Assert(replayed[4].Data(), m.JSONStrEqual(`{"path": ["suite", "fails"], "error": "bad"}`))
		m.In(t).Assert(replayed[7].Data(), m.JSONStrEqual(
			`{"runId": "run-1", "ok": false, "passed": 1, "failed": 1, "pending": 0, "hookFailures": 0}`))
		assert.Equal(t, "1", replayed[0].Id())

		// the next run is streamed live
		go func() {
			report, _ := lifecycle.RunDeclared(lifecycle.Configuration{Reporter: events, RunID: "run-2"}, declareSample)
			_ = events.EndLog(report)
		}()
		live := requireEventNames(t, stream, sampleEventNames...)
		assert.Equal(t, "9", live[0].Id())
		m.In(t).Assert(live[7].Data(), m.JSONStrEqual(
			`{"runId": "run-2", "ok": false, "passed": 1, "failed": 1, "pending": 0, "hookFailures": 0}`))
	})
}

func TestEventStreamReplaysOnlyCurrentRun(t *testing.T) {
	events := NewEventStream(nil)
	defer events.Close()

	runSample(t, events, "run-1")
	events.SuiteStarted(lifecycle.Path{"next"})

	backlog, _, cancel := events.subscribe()
	defer cancel()
	require.Len(t, backlog, 1)
	assert.Equal(t, EventSuiteStarted, backlog[0].Event())
	assert.Equal(t, `{"path":["next"]}`, backlog[0].Data())

	latest, err := events.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", latest.Value().RunID)
}

func TestEventStreamClientSeesEachEventOnceWhileRunIsPublishing(t *testing.T) {
	events := NewEventStream(nil)
	defer events.Close()

	const total = 200
	go func() {
		for i := 0; i < total; i++ {
			events.CaseStarted(lifecycle.Path{"suite", strconv.Itoa(i)})
		}
	}()
	backlog, live, cancel := events.subscribe()
	defer cancel()

	var ids []string
	for _, e := range backlog {
		ids = append(ids, e.Id())
	}
	for len(ids) < total {
		select {
		case e := <-live:
			ids = append(ids, e.Id())
		case <-time.After(time.Second * 5):
			require.FailNow(t, "timed out waiting for event", "received %d", len(ids))
		}
	}
	for i, id := range ids {
		assert.Equal(t, strconv.Itoa(i+1), id)
	}
}

func TestEventStreamClose(t *testing.T) {
	events := NewEventStream(nil)
	_, live, _ := events.subscribe()
	events.Close()

	_, ok := <-live
	assert.False(t, ok)
	_, live, cancel := events.subscribe()
	assert.Nil(t, live)
	cancel()
}

func TestStart(t *testing.T) {
	server, err := Start("127.0.0.1:0", NewHandler(Config{Reports: failingSource{}}), nil)
	require.NoError(t, err)
	defer server.Shutdown(context.Background())

	resp, err := http.Head("http://" + server.Addr() + "/anything")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, _ := get(t, "http://"+server.Addr()+"/report")
	assert.Equal(t, http.StatusInternalServerError, status)
}

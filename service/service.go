// Package service exposes a running or finished run over HTTP: the latest report as JSON, live
// progress as a server-sent event stream, and Prometheus metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/launchdarkly/suite-runner/framework"
	"github.com/launchdarkly/suite-runner/framework/lifecycle"
	"github.com/launchdarkly/suite-runner/framework/opt"
)

// ReportSource provides the most recent report. Both EventStream and reportstore.Store
// implement it.
type ReportSource interface {
	Latest(ctx context.Context) (opt.Maybe[lifecycle.Report], error)
}

// Config describes what the service exposes. Any field may be nil, in which case the
// corresponding endpoint responds with 404.
type Config struct {
	Reports  ReportSource
	Events   *EventStream
	Gatherer prometheus.Gatherer
	Logger   framework.Logger
}

type service struct {
	config Config
}

// NewHandler returns a router for these endpoints:
//
//	GET /report   the latest report as JSON, or 404 if there is none yet
//	GET /events   server-sent events for the current run
//	GET /metrics  Prometheus exposition
func NewHandler(config Config) http.Handler {
	if config.Logger == nil {
		config.Logger = framework.NullLogger()
	}
	s := &service{config: config}

	router := mux.NewRouter()
	router.HandleFunc("/report", s.serveReport).Methods("GET")
	if config.Events != nil {
		router.HandleFunc("/events", config.Events.Handler()).Methods("GET")
	}
	if config.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	return router
}

func (s *service) serveReport(w http.ResponseWriter, r *http.Request) {
	if s.config.Reports == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	report, err := s.config.Reports.Latest(r.Context())
	if err != nil {
		s.config.Logger.Printf("Error reading latest report: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !report.IsDefined() {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	data, err := report.Value().MarshalJSON()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Server is a started HTTP listener.
type Server struct {
	server   *http.Server
	listener net.Listener
}

// Start begins serving handler on addr, such as ":8111". When Start returns, the listener is
// already accepting connections. HEAD requests to any path return 200, so the caller can check
// whether the server is up.
func Start(addr string, handler http.Handler, logger framework.Logger) (*Server, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %s: %w", addr, err)
	}
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == "HEAD" {
				w.WriteHeader(200)
				return
			}
			handler.ServeHTTP(w, r)
		}),
		ReadHeaderTimeout: 10 * time.Second, // arbitrary but non-infinite timeout to avoid Slowloris Attack
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("Service stopped: %s", err)
		}
	}()
	logger.Printf("Service listening on %s", listener.Addr())
	return &Server{server: server, listener: listener}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for active requests to finish, or for ctx to
// be done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

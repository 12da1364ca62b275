package main

import (
	"context"
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/launchdarkly/suite-runner/framework"
	"github.com/launchdarkly/suite-runner/framework/lifecycle"
	"github.com/launchdarkly/suite-runner/metrics"
	"github.com/launchdarkly/suite-runner/reportstore"
	"github.com/launchdarkly/suite-runner/service"
	"github.com/launchdarkly/suite-runner/suites"
)

// Exit codes
const (
	exitTestFailure = 1 // the run finished but some case or hook failed
	exitRuntimeErr  = 2 // bad configuration, malformed suites, or a store/service error
)

const shutdownTimeout = time.Second * 5

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newApp(os.Stdout, suites.All).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitRuntimeErr)
	}
}

func newApp(out io.Writer, declare func(*lifecycle.Builder)) *cli.App {
	app := cli.NewApp()
	app.Name = "suite-runner"
	app.Version = strings.TrimSpace(versionString)
	app.Usage = "runs the declared suites and reports the outcome of every case"
	app.Writer = out
	app.Flags = runFlags
	app.Action = func(c *cli.Context) error {
		fmt.Fprintf(out, "suite-runner v%s\n", app.Version)
		params, err := readParams(c)
		if err != nil {
			return cli.Exit(err.Error(), exitRuntimeErr)
		}
		report, err := run(c.Context, params, declare, out)
		if err != nil {
			return cli.Exit(err.Error(), exitRuntimeErr)
		}
		if !report.OK() {
			return cli.Exit("", exitTestFailure)
		}
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:  "last",
			Usage: "print a summary of the most recent report in a store",
			Flags: []cli.Flag{&cli.StringFlag{Name: storeFlag.Name, EnvVars: storeFlag.EnvVars, Usage: storeFlag.Usage}},
			Action: func(c *cli.Context) error {
				return printLatest(c.Context, c.String(storeFlag.Name), out)
			},
		},
	}
	return app
}

func run(
	ctx context.Context,
	params commandParams,
	declare func(*lifecycle.Builder),
	out io.Writer,
) (lifecycle.Report, error) {
	mainDebugLogger := framework.NullLogger()
	if params.DebugAll {
		mainDebugLogger = log.New(out, "", log.LstdFlags)
	}

	registry := prometheus.NewRegistry()
	reporters := []lifecycle.Reporter{
		&lifecycle.ConsoleReporter{
			Output:               out,
			DebugOutputOnFailure: params.Debug || params.DebugAll,
			DebugOutputOnSuccess: params.DebugAll,
		},
		metrics.NewReporter(registry),
	}
	if params.JUnit != "" {
		reporters = append(reporters, lifecycle.NewJUnitReporter(params.JUnit, params.filters))
	}

	var server *service.Server
	var events *service.EventStream
	if params.Serve != "" {
		events = service.NewEventStream(framework.LoggerWithPrefix(mainDebugLogger, "[events] "))
		reporters = append(reporters, events)
		handler := service.NewHandler(service.Config{
			Reports:  events,
			Events:   events,
			Gatherer: registry,
			Logger:   mainDebugLogger,
		})
		var err error
		if server, err = service.Start(params.Serve, handler, mainDebugLogger); err != nil {
			events.Close()
			return lifecycle.Report{}, err
		}
		defer func() {
			// stream clients stay connected until the event server is closed
			events.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}
	reporter := &lifecycle.MultiReporter{Reporters: reporters}

	params.filters.Describe(out)

	report, err := lifecycle.RunDeclared(lifecycle.Configuration{
		Filter:   params.filters,
		Reporter: reporter,
		Timeout:  params.timeout,
		Logger:   mainDebugLogger,
	}, declare)
	if err != nil {
		return report, err
	}

	logErr := reporter.EndLog(report)
	lifecycle.PrintSummary(out, report)
	if logErr != nil {
		return report, fmt.Errorf("error writing log: %v", logErr)
	}

	if params.Store != "" {
		if err := saveReport(ctx, params.Store, report, mainDebugLogger); err != nil {
			return report, err
		}
	}

	if params.RecordFailures != "" {
		if err := recordFailures(params.RecordFailures, report); err != nil {
			return report, err
		}
	}

	if server != nil {
		fmt.Fprintf(out, "Serving results on %s; interrupt to exit\n", server.Addr())
		<-ctx.Done()
	}

	return report, nil
}

func saveReport(ctx context.Context, dsn string, report lifecycle.Report, logger framework.Logger) error {
	store, err := reportstore.Open(ctx, dsn, reportstore.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Save(ctx, report); err != nil {
		return fmt.Errorf("cannot save report: %w", err)
	}
	return nil
}

func recordFailures(path string, report lifecycle.Report) error {
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("cannot create suppression file: %v", err)
	}
	for _, c := range report.Failures() {
		fmt.Fprintln(f, formatRecordedPath(c.Path))
	}
	return f.Close()
}

func printLatest(ctx context.Context, dsn string, out io.Writer) error {
	if dsn == "" {
		return cli.Exit("--store is required", exitRuntimeErr)
	}
	store, err := reportstore.Open(ctx, dsn)
	if err != nil {
		return cli.Exit(err.Error(), exitRuntimeErr)
	}
	defer func() { _ = store.Close() }()
	latest, err := store.Latest(ctx)
	if err != nil {
		return cli.Exit(err.Error(), exitRuntimeErr)
	}
	if !latest.IsDefined() {
		return cli.Exit("no report has been saved", exitRuntimeErr)
	}
	lifecycle.PrintSummary(out, latest.Value())
	if !latest.Value().OK() {
		return cli.Exit("", exitTestFailure)
	}
	return nil
}

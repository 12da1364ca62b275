package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/launchdarkly/suite-runner/config"
	"github.com/launchdarkly/suite-runner/framework/lifecycle"
)

const envVarPrefix = "SUITE_RUNNER_"

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		EnvVars: []string{envVarPrefix + "CONFIG"},
		Usage:   "configuration file in JSON or YAML format (default: " + config.DefaultFileName + " if present)",
	}
	grepFlag = &cli.StringSliceFlag{
		Name:  "grep",
		Usage: "path pattern(s) selecting the cases to run, such as \"User model/should.*\"",
	}
	skipFlag = &cli.StringSliceFlag{
		Name:  "skip",
		Usage: "path pattern(s) selecting cases not to run",
	}
	skipFileFlag = &cli.StringFlag{
		Name:  "skip-file",
		Usage: "file listing the paths of cases not to run, one per line",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "how long an asynchronous case or hook may take to call done",
	}
	junitFlag = &cli.StringFlag{
		Name:  "junit",
		Usage: "write JUnit XML output to the specified path",
	}
	storeFlag = &cli.StringFlag{
		Name:    "store",
		EnvVars: []string{envVarPrefix + "STORE"},
		Usage:   "save the report to a database: redis://host:port, consul://host:port or dynamodb://table?region=..",
	}
	serveFlag = &cli.StringFlag{
		Name:  "serve",
		Usage: "serve the report, live events and metrics on this address (such as :8111) until interrupted",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "show debug output of failed cases",
	}
	debugAllFlag = &cli.BoolFlag{
		Name:  "debug-all",
		Usage: "show debug output of all cases, and log what the runner is doing",
	}
	recordFailuresFlag = &cli.StringFlag{
		Name:  "record-failures",
		Usage: "write the paths of failed cases to this file, in the format used by --skip-file",
	}
)

var runFlags = []cli.Flag{
	configFlag,
	grepFlag,
	skipFlag,
	skipFileFlag,
	timeoutFlag,
	junitFlag,
	storeFlag,
	serveFlag,
	debugFlag,
	debugAllFlag,
	recordFailuresFlag,
}

type commandParams struct {
	config.File
	filters lifecycle.RegexFilters
	timeout time.Duration
}

// readParams loads the configuration file, if any, and then applies the command-line flags
// on top of it. Patterns given with --grep or --skip are added to those from the file.
func readParams(c *cli.Context) (commandParams, error) {
	var (
		file config.File
		err  error
	)
	if c.IsSet(configFlag.Name) {
		file, err = config.Load(c.String(configFlag.Name))
	} else {
		file, err = config.LoadDefault()
	}
	if err != nil {
		return commandParams{}, err
	}

	file.Grep = append(file.Grep, c.StringSlice(grepFlag.Name)...)
	file.Skip = append(file.Skip, c.StringSlice(skipFlag.Name)...)
	if c.IsSet(timeoutFlag.Name) {
		d := config.Duration(c.Duration(timeoutFlag.Name))
		file.Timeout = &d
	}
	for _, s := range []struct {
		flag   *cli.StringFlag
		target *string
	}{
		{junitFlag, &file.JUnit},
		{storeFlag, &file.Store},
		{serveFlag, &file.Serve},
		{recordFailuresFlag, &file.RecordFailures},
	} {
		if c.IsSet(s.flag.Name) {
			*s.target = c.String(s.flag.Name)
		}
	}
	if c.IsSet(debugFlag.Name) {
		file.Debug = c.Bool(debugFlag.Name)
	}
	if c.IsSet(debugAllFlag.Name) {
		file.DebugAll = c.Bool(debugAllFlag.Name)
	}
	if err := file.Validate(); err != nil {
		return commandParams{}, err
	}

	params := commandParams{File: file, timeout: file.TimeoutOrDefault()}
	if params.filters, err = file.Filters(); err != nil {
		return commandParams{}, err
	}
	if skipFile := c.String(skipFileFlag.Name); skipFile != "" {
		if err := loadSuppressions(skipFile, &params.filters); err != nil {
			return commandParams{}, err
		}
	}
	return params, nil
}

func loadSuppressions(path string, filters *lifecycle.RegexFilters) error {
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %v", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		// Ignore blank lines
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := filters.MustNotMatch.Set(quotePath(line)); err != nil {
			return fmt.Errorf("cannot parse suppression: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %v", err)
	}
	return nil
}

// formatRecordedPath writes a case path as one line of a suppression file. Components are
// joined with "/", and a slash or backslash inside a name is escaped with a backslash.
func formatRecordedPath(path lifecycle.Path) string {
	parts := make([]string, 0, len(path))
	for _, name := range path {
		parts = append(parts, recordedNameEscaper.Replace(name))
	}
	return strings.Join(parts, "/")
}

var recordedNameEscaper = strings.NewReplacer(`\`, `\\`, "/", `\/`)

// splitRecordedPath reverses formatRecordedPath.
func splitRecordedPath(line string) []string {
	var (
		parts   []string
		current strings.Builder
	)
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line):
			i++
			current.WriteByte(line[i])
		case line[i] == '/':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(line[i])
		}
	}
	return append(parts, current.String())
}

// quotePath turns a line of a suppression file into a pattern that only matches that path. A
// "/" inside a name is written as \x2f, since the pattern itself is split on "/".
func quotePath(line string) string {
	parts := splitRecordedPath(line)
	for i, p := range parts {
		parts[i] = "^" + strings.ReplaceAll(regexp.QuoteMeta(p), "/", `\x2f`) + "$"
	}
	return strings.Join(parts, "/")
}

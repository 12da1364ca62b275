package main

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/launchdarkly/suite-runner/framework/lifecycle"
)

func init() {
	color.NoColor = true
}

func declarePassing(b *lifecycle.Builder) {
	b.Describe("math", func(b *lifecycle.Builder) {
		b.It("adds", func(t *lifecycle.T) {})
	})
}

func declareFailing(b *lifecycle.Builder) {
	b.Describe("math", func(b *lifecycle.Builder) {
		b.It("adds", func(t *lifecycle.T) {})
		b.It("divides", func(t *lifecycle.T) { t.Errorf("division by zero") })
	})
}

func declareMalformed(b *lifecycle.Builder) {
	b.It("orphan", func(t *lifecycle.T) {})
}

// runApp runs the application in a temporary directory, so that no configuration file is
// picked up unless the test writes one, and returns the exit code and output.
func runApp(t *testing.T, declare func(*lifecycle.Builder), args ...string) (int, string) {
	dir := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(oldDir) }()

	var out bytes.Buffer
	app := newApp(&out, declare)
	app.ExitErrHandler = func(*cli.Context, error) {}
	err = app.RunContext(context.Background(), append([]string{"suite-runner"}, args...))
	if err == nil {
		return 0, out.String()
	}
	var exitErr cli.ExitCoder
	require.True(t, errors.As(err, &exitErr), "unexpected error: %s", err)
	return exitErr.ExitCode(), out.String()
}

func TestExitCodes(t *testing.T) {
	code, out := runApp(t, declarePassing)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "1 passing")

	code, out = runApp(t, declareFailing)
	assert.Equal(t, exitTestFailure, code)
	assert.Contains(t, out, "1 failing")
	assert.Contains(t, out, "division by zero")

	code, _ = runApp(t, declareMalformed)
	assert.Equal(t, exitRuntimeErr, code)

	code, _ = runApp(t, declarePassing, "--config", "does-not-exist.yml")
	assert.Equal(t, exitRuntimeErr, code)

	code, _ = runApp(t, declarePassing, "--grep", "math/(")
	assert.Equal(t, exitRuntimeErr, code)
}

func TestSkipFlagMakesFailingCasePending(t *testing.T) {
	code, out := runApp(t, declareFailing, "--skip", "math/divides")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "1 pending")
}

func TestRecordFailuresThenSkipFile(t *testing.T) {
	dir := t.TempDir()
	failures := filepath.Join(dir, "failures.txt")

	code, _ := runApp(t, declareFailing, "--record-failures", failures)
	assert.Equal(t, exitTestFailure, code)
	data, err := os.ReadFile(failures)
	require.NoError(t, err)
	assert.Equal(t, "math/divides\n", string(data))

	code, _ = runApp(t, declareFailing, "--skip-file", failures)
	assert.Equal(t, 0, code)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	junitPath := filepath.Join(dir, "junit.xml")
	require.NoError(t, os.WriteFile(configPath, []byte("skip:\n  - math/divides\njunit: "+junitPath+"\n"), 0o600))

	code, _ := runApp(t, declareFailing, "--config", configPath)
	assert.Equal(t, 0, code)

	data, err := os.ReadFile(junitPath)
	require.NoError(t, err)
	var doc struct {
		XMLName xml.Name `xml:"testsuites"`
	}
	assert.NoError(t, xml.Unmarshal(data, &doc))

	// patterns on the command line are added to those in the file
	code, _ = runApp(t, declareFailing, "--config", configPath, "--grep", "nothing")
	assert.Equal(t, 0, code)
}

func TestDebugAllLogsRunnerActivity(t *testing.T) {
	code, out := runApp(t, declarePassing, "--debug-all")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Running case [math/adds]")
}

func TestLastCommandErrors(t *testing.T) {
	code, _ := runApp(t, declarePassing, "last")
	assert.Equal(t, exitRuntimeErr, code)

	code, _ = runApp(t, declarePassing, "last", "--store", "mongodb://localhost")
	assert.Equal(t, exitRuntimeErr, code)
}

func TestQuotePath(t *testing.T) {
	pattern, err := lifecycle.ParsePathPattern(quotePath("a.b/c (d)"))
	require.NoError(t, err)
	assert.True(t, pattern.Match(lifecycle.Path{"a.b", "c (d)"}, false))
	assert.False(t, pattern.Match(lifecycle.Path{"axb", "c (d)"}, false))
	assert.False(t, pattern.Match(lifecycle.Path{"a.b", "c (d) e"}, false))
}

func TestRecordedPathWithSlashesRoundTrip(t *testing.T) {
	path := lifecycle.Path{"a/b", `c\d`, "e"}
	line := formatRecordedPath(path)
	assert.Equal(t, `a\/b/c\\d/e`, line)
	assert.Equal(t, []string(path), splitRecordedPath(line))

	pattern, err := lifecycle.ParsePathPattern(quotePath(line))
	require.NoError(t, err)
	assert.True(t, pattern.Match(path, false))
	assert.False(t, pattern.Match(lifecycle.Path{"a", "b", `c\d`, "e"}, false))
	assert.False(t, pattern.Match(lifecycle.Path{"a/b", "cd", "e"}, false))
}

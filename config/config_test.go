package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/suite-runner/framework/lifecycle"
)

func TestParseYAMLFile(t *testing.T) {
	f, err := Parse([]byte(`
timeout: 1500ms
grep:
  - User model
skip:
  - slow
junit: results.xml
store: redis://localhost:6379/2
serve: ":8080"
recordFailures: failures.txt
debug: true
`), "test")
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, f.TimeoutOrDefault())
	assert.Equal(t, []string{"User model"}, f.Grep)
	assert.Equal(t, []string{"slow"}, f.Skip)
	assert.Equal(t, "results.xml", f.JUnit)
	assert.Equal(t, "redis://localhost:6379/2", f.Store)
	assert.Equal(t, ":8080", f.Serve)
	assert.Equal(t, "failures.txt", f.RecordFailures)
	assert.True(t, f.Debug)
	assert.False(t, f.DebugAll)

	filters, err := f.Filters()
	require.NoError(t, err)
	assert.True(t, filters.Match(lifecycle.Path{"User model", "x"}))
	assert.False(t, filters.Match(lifecycle.Path{"User model", "slow"}))
	assert.False(t, filters.Match(lifecycle.Path{"other"}))
}

func TestParseJSONFileWithNumericTimeout(t *testing.T) {
	f, err := Parse([]byte(`{"timeout": 250}`), "test")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, f.TimeoutOrDefault())
}

func TestDefaultTimeout(t *testing.T) {
	assert.Equal(t, lifecycle.DefaultTimeout, File{}.TimeoutOrDefault())
}

func TestInvalidFiles(t *testing.T) {
	for _, input := range []string{
		`timeout: soon`,
		`timeout: -1s`,
		`grep: ["("]`,
		`timeout: [1]`,
		`grep: [unclosed`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse([]byte(input), "bad.yml")
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suiterc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"junit": "x.xml"}`), 0600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x.xml", f.JUnit)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

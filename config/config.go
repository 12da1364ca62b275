// Package config reads the runner's optional configuration file. Every setting in the file can
// also be given on the command line, which takes precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/launchdarkly/suite-runner/framework/lifecycle"
)

// DefaultFileName is the file that is read from the working directory if no path is given.
const DefaultFileName = ".suiterc.yml"

// Duration is a time.Duration that is written in files as a string such as "1500ms" or "2s".
// A bare number is taken as milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("duration must be a string or a number of milliseconds, not %s", string(data))
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// File is the content of a configuration file.
type File struct {
	// Timeout bounds how long an asynchronous case or hook may take.
	Timeout *Duration `json:"timeout,omitempty"`

	// Grep and Skip are path patterns, as for the --grep and --skip options.
	Grep []string `json:"grep,omitempty"`
	Skip []string `json:"skip,omitempty"`

	JUnit          string `json:"junit,omitempty"`
	Store          string `json:"store,omitempty"`
	Serve          string `json:"serve,omitempty"`
	RecordFailures string `json:"recordFailures,omitempty"`

	Debug    bool `json:"debug,omitempty"`
	DebugAll bool `json:"debugAll,omitempty"`
}

// Load reads a configuration file in JSON or YAML format.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return File{}, err
	}
	return Parse(data, path)
}

// LoadDefault reads DefaultFileName if it exists. A missing file is not an error.
func LoadDefault() (File, error) {
	f, err := Load(DefaultFileName)
	if errors.Is(err, os.ErrNotExist) {
		return File{}, nil
	}
	return f, err
}

// Parse reads configuration from JSON or YAML data. The name is only used in error messages.
func Parse(data []byte, name string) (File, error) {
	var f File
	if err := decodeDocument(data, &f); err != nil {
		return File{}, fmt.Errorf("error parsing %q: %w", name, err)
	}
	if err := f.Validate(); err != nil {
		return File{}, fmt.Errorf("invalid configuration in %q: %w", name, err)
	}
	return f, nil
}

// Validate checks that the settings can be used.
func (f File) Validate() error {
	if f.Timeout != nil && *f.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	_, err := f.Filters()
	return err
}

// Filters converts Grep and Skip into a filter.
func (f File) Filters() (lifecycle.RegexFilters, error) {
	var filters lifecycle.RegexFilters
	for _, p := range f.Grep {
		if err := filters.MustMatch.Set(p); err != nil {
			return filters, fmt.Errorf("grep: %w", err)
		}
	}
	for _, p := range f.Skip {
		if err := filters.MustNotMatch.Set(p); err != nil {
			return filters, fmt.Errorf("skip: %w", err)
		}
	}
	return filters, nil
}

// TimeoutOrDefault returns the configured timeout, or lifecycle.DefaultTimeout.
func (f File) TimeoutOrDefault() time.Duration {
	if f.Timeout == nil {
		return lifecycle.DefaultTimeout
	}
	return time.Duration(*f.Timeout)
}

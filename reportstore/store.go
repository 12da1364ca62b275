// Package reportstore saves finished run reports to an external database, so that results can be
// compared across runs or read by other tools. Redis, Consul and DynamoDB are supported; see Open.
package reportstore

import (
	"context"
	"fmt"
	"net/url"

	"github.com/launchdarkly/suite-runner/framework"
	"github.com/launchdarkly/suite-runner/framework/helpers"
	"github.com/launchdarkly/suite-runner/framework/lifecycle"
	"github.com/launchdarkly/suite-runner/framework/opt"
)

// DefaultKeyPrefix is the namespace used for all keys unless WithKeyPrefix is given.
const DefaultKeyPrefix = "suite-runner"

// Store persists reports.
type Store interface {
	// Save writes every case result of the report, and records it as the latest report.
	Save(ctx context.Context, report lifecycle.Report) error

	// Latest returns the most recently saved report, if any.
	Latest(ctx context.Context) (opt.Maybe[lifecycle.Report], error)

	// Close releases the connection.
	Close() error
}

// Config holds the settings shared by all store types.
type Config struct {
	KeyPrefix string
	Logger    framework.Logger
}

// Option is an optional setting for Open.
type Option helpers.ConfigOption[Config]

// WithKeyPrefix sets the namespace that all keys are written under.
func WithKeyPrefix(prefix string) Option {
	return helpers.ConfigOptionFunc[Config](func(c *Config) error {
		if prefix == "" {
			return fmt.Errorf("key prefix cannot be empty")
		}
		c.KeyPrefix = prefix
		return nil
	})
}

// WithLogger sets where the store logs what it writes.
func WithLogger(logger framework.Logger) Option {
	return helpers.ConfigOptionFunc[Config](func(c *Config) error {
		c.Logger = logger
		return nil
	})
}

// Open connects to a store described by a URL:
//
//	redis://[:password@]host:port[/db]
//	consul://host:port
//	dynamodb://table?region=us-east-1[&endpoint=http://localhost:8000][&create=true]
func Open(ctx context.Context, dsn string, options ...Option) (Store, error) {
	config := Config{KeyPrefix: DefaultKeyPrefix, Logger: framework.NullLogger()}
	if err := helpers.ApplyOptions(&config, options...); err != nil {
		return nil, err
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid store URL: %w", err)
	}
	switch u.Scheme {
	case "redis", "rediss":
		return openRedis(dsn, config)
	case "consul":
		return openConsul(u, config)
	case "dynamodb":
		return openDynamoDB(ctx, u, config)
	default:
		return nil, fmt.Errorf("unsupported store type %q in %q", u.Scheme, dsn)
	}
}

// caseKey names the stored record of the case at index i of a report. Two cases can have the
// same path, so the index is the key. It is zero-padded so that keys sort in report order.
func caseKey(i int) string {
	return fmt.Sprintf("%05d", i)
}

func caseRecord(c lifecycle.CaseResult) []byte {
	data, _ := c.MarshalJSON()
	return data
}

func decodeReport(data []byte) (opt.Maybe[lifecycle.Report], error) {
	var r lifecycle.Report
	if err := r.UnmarshalJSON(data); err != nil {
		return opt.None[lifecycle.Report](), fmt.Errorf("stored report is malformed: %w", err)
	}
	return opt.Some(r), nil
}

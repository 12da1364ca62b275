package reportstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/launchdarkly/suite-runner/framework/lifecycle"
	"github.com/launchdarkly/suite-runner/framework/opt"
)

type redisClient interface {
	redis.Cmdable
	Close() error
}

// RedisStore writes each run to a hash of its cases, and the whole report as a string.
//
//	<prefix>:run:<runId>   hash of case number -> case JSON
//	<prefix>:report:<runId> report JSON
//	<prefix>:latest        report JSON
type RedisStore struct {
	client redisClient
	config Config
}

func openRedis(dsn string, config Config) (Store, error) {
	options, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return &RedisStore{client: redis.NewClient(options), config: config}, nil
}

func (r *RedisStore) key(parts ...string) string {
	k := r.config.KeyPrefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (r *RedisStore) Save(ctx context.Context, report lifecycle.Report) error {
	data, err := report.MarshalJSON()
	if err != nil {
		return err
	}
	if len(report.Cases) != 0 {
		fields := make(map[string]string, len(report.Cases))
		for i, c := range report.Cases {
			fields[caseKey(i)] = string(caseRecord(c))
		}
		if _, err := r.client.HSet(ctx, r.key("run", report.RunID), fields).Result(); err != nil {
			return fmt.Errorf("failed to write cases of run %s to Redis: %w", report.RunID, err)
		}
	}
	if err := r.client.Set(ctx, r.key("report", report.RunID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write run %s to Redis: %w", report.RunID, err)
	}
	if err := r.client.Set(ctx, r.key("latest"), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write run %s to Redis: %w", report.RunID, err)
	}
	r.config.Logger.Printf("Saved run %s (%d cases) to Redis", report.RunID, len(report.Cases))
	return nil
}

func (r *RedisStore) Latest(ctx context.Context) (opt.Maybe[lifecycle.Report], error) {
	data, err := r.client.Get(ctx, r.key("latest")).Bytes()
	if errors.Is(err, redis.Nil) {
		return opt.None[lifecycle.Report](), nil
	}
	if err != nil {
		return opt.None[lifecycle.Report](), err
	}
	return decodeReport(data)
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

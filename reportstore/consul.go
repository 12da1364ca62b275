package reportstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	consul "github.com/hashicorp/consul/api"

	"github.com/launchdarkly/suite-runner/framework/lifecycle"
	"github.com/launchdarkly/suite-runner/framework/opt"
)

// Consul allows at most this many operations in one transaction.
const consulMaxTxnOps = 64

type consulKV interface {
	Txn(txn consul.KVTxnOps, q *consul.QueryOptions) (bool, *consul.KVTxnResponse, *consul.QueryMeta, error)
	Get(key string, q *consul.QueryOptions) (*consul.KVPair, *consul.QueryMeta, error)
}

// ConsulStore writes each run under its own key tree:
//
//	<prefix>/runs/<runId>/cases/<n>  case JSON, numbered in report order
//	<prefix>/runs/<runId>/report     report JSON
//	<prefix>/latest                  report JSON
type ConsulStore struct {
	kv     consulKV
	config Config
}

func openConsul(u *url.URL, config Config) (Store, error) {
	consulConfig := consul.DefaultConfig()
	if u.Host != "" {
		consulConfig.Address = u.Host
	}
	if token := u.Query().Get("token"); token != "" {
		consulConfig.Token = token
	}
	client, err := consul.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}
	return &ConsulStore{kv: client.KV(), config: config}, nil
}

func (c *ConsulStore) key(parts ...string) string {
	return strings.Join(append([]string{c.config.KeyPrefix}, parts...), "/")
}

func (c *ConsulStore) Save(ctx context.Context, report lifecycle.Report) error {
	data, err := report.MarshalJSON()
	if err != nil {
		return err
	}
	ops := make([]*consul.KVTxnOp, 0, len(report.Cases)+2)
	for i, result := range report.Cases {
		ops = append(ops, &consul.KVTxnOp{
			Verb:  consul.KVSet,
			Key:   c.key("runs", report.RunID, "cases", caseKey(i)),
			Value: caseRecord(result),
		})
	}
	ops = append(ops,
		&consul.KVTxnOp{Verb: consul.KVSet, Key: c.key("runs", report.RunID, "report"), Value: data},
		&consul.KVTxnOp{Verb: consul.KVSet, Key: c.key("latest"), Value: data},
	)
	if err := c.batchOperations(ctx, ops); err != nil {
		return err
	}
	c.config.Logger.Printf("Saved run %s (%d cases) to Consul", report.RunID, len(report.Cases))
	return nil
}

// batchOperations submits the operations using as many transactions as needed. The batches are
// not atomic as a whole, but the "latest" key is written last so it never refers to a run whose
// cases are missing.
func (c *ConsulStore) batchOperations(ctx context.Context, ops []*consul.KVTxnOp) error {
	for i := 0; i < len(ops); {
		j := i + consulMaxTxnOps
		if j > len(ops) {
			j = len(ops)
		}
		ok, resp, _, err := c.kv.Txn(ops[i:j], (&consul.QueryOptions{}).WithContext(ctx))
		if err != nil {
			return err
		}
		if !ok {
			errs := make([]string, 0)
			if resp != nil {
				for _, te := range resp.Errors {
					errs = append(errs, te.What)
				}
			}
			//nolint:stylecheck // this error message is capitalized on purpose
			return fmt.Errorf("Consul transaction failed: %s", strings.Join(errs, ", "))
		}
		i = j
	}
	return nil
}

func (c *ConsulStore) Latest(ctx context.Context) (opt.Maybe[lifecycle.Report], error) {
	pair, _, err := c.kv.Get(c.key("latest"), (&consul.QueryOptions{}).WithContext(ctx))
	if err != nil || pair == nil {
		return opt.None[lifecycle.Report](), err
	}
	return decodeReport(pair.Value)
}

func (c *ConsulStore) Close() error {
	return nil
}

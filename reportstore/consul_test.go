package reportstore

import (
	"context"
	"fmt"
	"testing"

	consul "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsulKV struct {
	values   map[string][]byte
	txnSizes []int
	reject   bool
}

func newFakeConsulKV() *fakeConsulKV {
	return &fakeConsulKV{values: make(map[string][]byte)}
}

func (f *fakeConsulKV) Txn(txn consul.KVTxnOps, _ *consul.QueryOptions) (bool, *consul.KVTxnResponse, *consul.QueryMeta, error) {
	f.txnSizes = append(f.txnSizes, len(txn))
	if f.reject {
		return false, &consul.KVTxnResponse{Errors: consul.TxnErrors{{OpIndex: 0, What: "permission denied"}}}, nil, nil
	}
	for _, op := range txn {
		if op.Verb != consul.KVSet {
			return false, nil, nil, fmt.Errorf("unexpected verb %s", op.Verb)
		}
		f.values[op.Key] = op.Value
	}
	return true, &consul.KVTxnResponse{}, nil, nil
}

func (f *fakeConsulKV) Get(key string, _ *consul.QueryOptions) (*consul.KVPair, *consul.QueryMeta, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, nil, nil
	}
	return &consul.KVPair{Key: key, Value: v}, nil, nil
}

func TestConsulStoreSaveBatchesOperations(t *testing.T) {
	kv := newFakeConsulKV()
	store := &ConsulStore{kv: kv, config: testConfig()}
	report := sampleReport(99) // 100 cases + report + latest

	require.NoError(t, store.Save(context.Background(), report))

	assert.Equal(t, []int{64, 38}, kv.txnSizes)
	assert.Len(t, kv.values, 102)
	assert.JSONEq(t, `{"path": ["suite", "broken"], "status": "failed", "reason": "bad", "durationMs": 0}`,
		string(kv.values["test/runs/run-1/cases/00099"]))

	latest, err := store.Latest(context.Background())
	require.NoError(t, err)
	require.True(t, latest.IsDefined())
	assertSameReport(t, report, latest.Value())
}

func TestConsulStoreLatestWhenEmpty(t *testing.T) {
	store := &ConsulStore{kv: newFakeConsulKV(), config: testConfig()}
	latest, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, latest.IsDefined())
}

func TestConsulStoreRejectedTransaction(t *testing.T) {
	kv := newFakeConsulKV()
	kv.reject = true
	store := &ConsulStore{kv: kv, config: testConfig()}
	err := store.Save(context.Background(), sampleReport(1))
	assert.EqualError(t, err, "Consul transaction failed: permission denied")
}

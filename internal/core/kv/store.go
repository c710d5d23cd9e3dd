// internal/core/kv/store.go
package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/solatis/tripwire/internal/types"
)

/*
 * JetStream key-value rule store.
 *
 * One key per rule, "rules.<id>", holding the JSON encoded RuleRecord.
 * Each record is one Create, so readers never observe a partial record.
 *
 * List reads the key set, sorts it (UUIDv7 ids sort in insertion order)
 * and fetches each value. A key deleted between the listing and the fetch
 * is skipped, which still yields a valid prior-or-current rule set. Clear
 * purges key by key and is not atomic against concurrent inserts.
 *
 * A bucket shared by several engine instances gives them one rule set;
 * each engine compiles the records it reads through its own cache.
 */

const keyPrefix = "rules."

// Bucket is the subset of jetstream.KeyValue the store uses.
type Bucket interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Create(ctx context.Context, key string, value []byte) (uint64, error)
	Purge(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
}

// KVStore persists rules in a JetStream key-value bucket.
type KVStore struct {
	bucket Bucket
}

// NewKVStore returns a store over bucket.
func NewKVStore(bucket Bucket) *KVStore {
	return &KVStore{bucket: bucket}
}

func ruleKey(id types.RuleID) string {
	return keyPrefix + string(id)
}

func (s *KVStore) ruleKeys(ctx context.Context) ([]string, error) {
	keys, err := s.bucket.Keys(ctx, jetstream.IgnoreDeletes())
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	out := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, keyPrefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *KVStore) List(ctx context.Context) ([]types.RuleRecord, error) {
	keys, err := s.ruleKeys(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]types.RuleRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := s.get(ctx, key)
		if errors.Is(err, types.ErrRuleNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *KVStore) Insert(ctx context.Context, condition, action string) (types.RuleRecord, error) {
	rec := types.RuleRecord{
		ID:        types.NewRuleID(),
		Condition: condition,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return types.RuleRecord{}, fmt.Errorf("encode rule: %w", err)
	}
	if _, err := s.bucket.Create(ctx, ruleKey(rec.ID), value); err != nil {
		return types.RuleRecord{}, fmt.Errorf("kv create %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *KVStore) Get(ctx context.Context, id types.RuleID) (types.RuleRecord, error) {
	if _, err := types.ParseRuleID(string(id)); err != nil {
		return types.RuleRecord{}, types.ErrRuleNotFound
	}
	return s.get(ctx, ruleKey(id))
}

func (s *KVStore) get(ctx context.Context, key string) (types.RuleRecord, error) {
	entry, err := s.bucket.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return types.RuleRecord{}, types.ErrRuleNotFound
	}
	if err != nil {
		return types.RuleRecord{}, fmt.Errorf("kv get %s: %w", key, err)
	}

	var rec types.RuleRecord
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return types.RuleRecord{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return rec, nil
}

func (s *KVStore) Remove(ctx context.Context, id types.RuleID) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		if errors.Is(err, types.ErrRuleNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := s.bucket.Purge(ctx, ruleKey(id)); err != nil {
		return false, fmt.Errorf("kv purge %s: %w", id, err)
	}
	return true, nil
}

func (s *KVStore) Clear(ctx context.Context) error {
	keys, err := s.ruleKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.bucket.Purge(ctx, key); err != nil {
			return fmt.Errorf("kv purge %s: %w", key, err)
		}
	}
	return nil
}

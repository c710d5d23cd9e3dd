package rules

import (
	"context"
	"sync"
	"time"

	"github.com/solatis/tripwire/internal/types"
)

// MemoryStore is an in-process RuleStore. Records live until removed or the
// process exits. Safe for concurrent use; List copies under the read lock.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []types.RuleID
	records map[types.RuleID]types.RuleRecord
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[types.RuleID]types.RuleRecord)}
}

func (s *MemoryStore) List(ctx context.Context) ([]types.RuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.RuleRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, condition, action string) (types.RuleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// ids are minted under the lock so order stays ascending
	rec := types.RuleRecord{
		ID:        types.NewRuleID(),
		Condition: condition,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	s.order = append(s.order, rec.ID)
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *MemoryStore) Get(ctx context.Context, id types.RuleID) (types.RuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return types.RuleRecord{}, types.ErrRuleNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Remove(ctx context.Context, id types.RuleID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.records = make(map[types.RuleID]types.RuleRecord)
	return nil
}

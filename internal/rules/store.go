// internal/rules/store.go
package rules

import (
	"context"

	"github.com/solatis/tripwire/internal/types"
)

/*
 * Rule persistence capability.
 *
 * The engine only needs list/insert/remove/clear/get over raw rule records.
 * Backends (memory, SQL, NATS key-value) implement RuleStore and are chosen
 * at construction time; the engine never inspects backend internals.
 *
 * Contract every backend honors:
 *   - Insert assigns the id with types.NewRuleID, so ids are unique and
 *     time ordered in every backend.
 *   - List returns a snapshot: a complete prior-or-current rule set, never
 *     a partially written record. Order is ascending id, which equals
 *     insertion order.
 *   - Get returns types.ErrRuleNotFound for unknown ids.
 *   - Remove reports whether a record was deleted; unknown ids are not an
 *     error.
 *   - Stored records are not validated; the engine validates before Insert.
 */

// RuleStore persists rule records.
type RuleStore interface {
	List(ctx context.Context) ([]types.RuleRecord, error)
	Insert(ctx context.Context, condition, action string) (types.RuleRecord, error)
	Get(ctx context.Context, id types.RuleID) (types.RuleRecord, error)
	Remove(ctx context.Context, id types.RuleID) (bool, error)
	Clear(ctx context.Context) error
}

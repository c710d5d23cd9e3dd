// internal/types/rules.go
package types

import "time"

/*
 * Persisted rule representation.
 *
 * RuleRecord is what every rule store keeps: the raw condition text (for
 * display and audit), the action label and the store-assigned id. The
 * compiled expression is never persisted; the engine recompiles through its
 * condition cache, which returns the already-parsed tree for known text.
 */

// RuleRecord is a stored rule as returned by a rule store.
type RuleRecord struct {
	ID        RuleID    `json:"id" db:"rule_id"`
	Condition string    `json:"condition" db:"condition"`
	Action    string    `json:"action" db:"action"`
	CreatedAt time.Time `json:"created_at" db:"-"`
}

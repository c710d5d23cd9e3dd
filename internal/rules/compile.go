// internal/rules/compile.go
package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/tripwire/internal/condition"
	"github.com/solatis/tripwire/internal/types"
)

/*
 * Rule validation and compilation.
 *
 * A rule is validated in full before it reaches the store: the action label
 * must be non-blank and within types.MaxActionLength, and the condition must
 * compile. A record that fails here is never inserted, so every stored
 * record written through the engine has a condition that parses.
 *
 * Records are recompiled from their raw condition text on every pass
 * through the shared condition.Cache. After the first pass this is a map
 * lookup; it also lets the engine pick up records written by another
 * process into a shared SQL or NATS store.
 */

// compiledRule pairs a stored record with its parsed condition.
type compiledRule struct {
	record types.RuleRecord
	expr   condition.Expression
}

// validateAction checks the action label.
func validateAction(action string) error {
	if strings.TrimSpace(action) == "" {
		return types.ErrEmptyAction
	}
	if len(action) > types.MaxActionLength {
		return fmt.Errorf("%w: %d bytes, limit %d", types.ErrActionTooLong, len(action), types.MaxActionLength)
	}
	return nil
}

// compileRecord parses a stored record's condition through the cache.
func (e *Engine) compileRecord(rec types.RuleRecord) (compiledRule, error) {
	expr, err := e.cache.Compile(rec.Condition)
	if err != nil {
		return compiledRule{}, fmt.Errorf("rule %s: %w", rec.ID, err)
	}
	return compiledRule{record: rec, expr: expr}, nil
}

// internal/rules/evaluate.go
package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/solatis/tripwire/internal/condition"
	"github.com/solatis/tripwire/internal/types"
)

/*
 * Per-message evaluation pass.
 *
 * One pass lists the store once, then evaluates every record in the order
 * the store returned. A rule that cannot be evaluated (missing field, type
 * mismatch, unsupported operator, or a stored condition that no longer
 * compiles) is skipped for this message only: it is reported in its
 * MatchResult, counted in EvaluationErrors, logged at debug, and the pass
 * continues with the next rule.
 *
 * The timed section covers listing and evaluation, i.e. the whole pass.
 */

// MatchResult is the outcome of one rule against one message.
type MatchResult struct {
	RuleID    types.RuleID
	Condition string
	Action    string
	Matched   bool
	Err       error // non-nil when the rule was skipped
}

// EvaluateAll evaluates every stored rule against msg and returns one
// result per rule. Counts as one processed message in the statistics.
// Only a store failure is returned as an error.
func (e *Engine) EvaluateAll(ctx context.Context, msg condition.Message) ([]MatchResult, error) {
	start := time.Now()

	records, err := e.store.List(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to list rules")
		return nil, fmt.Errorf("list rules: %w", err)
	}

	results := make([]MatchResult, 0, len(records))
	triggered, errs := 0, 0

	for _, rec := range records {
		result := MatchResult{RuleID: rec.ID, Condition: rec.Condition, Action: rec.Action}

		compiled, err := e.compileRecord(rec)
		if err == nil {
			result.Matched, err = condition.Evaluate(compiled.expr, msg)
		}
		if err != nil {
			result.Err = err
			errs++
			e.logger.Debug().Str("rule_id", rec.ID.String()).Err(err).Msg("Rule skipped")
		} else if result.Matched {
			triggered++
		}
		results = append(results, result)
	}

	elapsed := time.Since(start)
	e.stats.record(triggered, errs, elapsed)
	e.metrics.observe(len(records), triggered, errs, elapsed)

	return results, nil
}

// ProcessMessage evaluates every stored rule against msg and returns the
// actions of the rules that matched, in store order. An empty (non-nil)
// slice means nothing matched.
func (e *Engine) ProcessMessage(ctx context.Context, msg condition.Message) ([]string, error) {
	results, err := e.EvaluateAll(ctx, msg)
	if err != nil {
		return nil, err
	}

	actions := make([]string, 0, len(results))
	for _, r := range results {
		if r.Matched {
			actions = append(actions, r.Action)
		}
	}
	return actions, nil
}

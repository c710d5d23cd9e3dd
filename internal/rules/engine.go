// internal/rules/engine.go
package rules

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/solatis/tripwire/internal/condition"
	"github.com/solatis/tripwire/internal/types"
)

/*
 * Rule matching engine.
 *
 * Registers rules (validate, compile, persist) and matches messages
 * against the stored set. State held by an Engine:
 *   - store:   external RuleStore, the only source of rules
 *   - cache:   condition text -> parsed tree, shareable between engines
 *   - stats:   resettable counters, owned by this instance
 *   - metrics: optional Prometheus export, never reset
 *
 * Safe for concurrent use when the store is. Registration and matching
 * never hold an engine-wide lock; consistency of the rule set seen by one
 * pass is the store's List snapshot.
 */

// Engine evaluates messages against the rules in a RuleStore.
type Engine struct {
	store   RuleStore
	cache   *condition.Cache
	stats   Statistics
	metrics *Metrics
	logger  zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache shares a condition cache between engines.
func WithCache(cache *condition.Cache) Option {
	return func(e *Engine) {
		if cache != nil {
			e.cache = cache
		}
	}
}

// WithMetrics exports engine activity to Prometheus.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the engine logger. Default is a disabled logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a rules engine backed by store.
func NewEngine(store RuleStore, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		cache:  condition.NewCache(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddRule validates and compiles the rule, then persists it.
// Malformed conditions return *condition.LexError or *condition.ParseError
// (possibly wrapping a types sentinel) and nothing is stored.
func (e *Engine) AddRule(ctx context.Context, cond, action string) (types.RuleID, error) {
	if err := validateAction(action); err != nil {
		return "", err
	}
	if _, err := e.cache.Compile(cond); err != nil {
		return "", err
	}

	rec, err := e.store.Insert(ctx, cond, action)
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to insert rule")
		return "", fmt.Errorf("insert rule: %w", err)
	}

	e.logger.Debug().
		Str("rule_id", rec.ID.String()).
		Str("condition", cond).
		Str("action", action).
		Msg("Rule added")
	return rec.ID, nil
}

// DeleteRule removes a rule. Returns types.ErrRuleNotFound if id is unknown.
func (e *Engine) DeleteRule(ctx context.Context, id types.RuleID) error {
	removed, err := e.store.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("remove rule %s: %w", id, err)
	}
	if !removed {
		return types.ErrRuleNotFound
	}
	e.logger.Debug().Str("rule_id", id.String()).Msg("Rule deleted")
	return nil
}

// GetRule returns one stored rule.
func (e *Engine) GetRule(ctx context.Context, id types.RuleID) (types.RuleRecord, error) {
	return e.store.Get(ctx, id)
}

// ListRules returns every stored rule in store order.
func (e *Engine) ListRules(ctx context.Context) ([]types.RuleRecord, error) {
	records, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return records, nil
}

// ClearRules removes every stored rule. Statistics are kept.
func (e *Engine) ClearRules(ctx context.Context) error {
	if err := e.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	e.logger.Debug().Msg("Rules cleared")
	return nil
}

// GetStatistics returns a copy of the current counters.
func (e *Engine) GetStatistics() StatisticsSnapshot {
	return e.stats.Snapshot()
}

// ResetStatistics zeroes the counters. Stored rules are untouched.
func (e *Engine) ResetStatistics() {
	e.stats.Reset()
}

// DrainStatistics returns the counters and zeroes them in one step.
func (e *Engine) DrainStatistics() StatisticsSnapshot {
	return e.stats.Drain()
}

// Cache exposes the condition cache, e.g. for reporting.
func (e *Engine) Cache() *condition.Cache {
	return e.cache
}

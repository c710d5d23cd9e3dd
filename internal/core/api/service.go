// Package api provides the gRPC and HTTP surfaces of the Tripwire rule engine.
package api

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/solatis/tripwire/internal/condition"
	"github.com/solatis/tripwire/internal/rules"
	"github.com/solatis/tripwire/internal/types"
)

// Service holds the transport-independent operations shared by the gRPC
// and HTTP handlers. Thin orchestration layer over rules.Engine.
type Service struct {
	engine       *rules.Engine
	maxBatchSize int
	logger       zerolog.Logger
}

// NewService creates service instance with dependencies.
func NewService(engine *rules.Engine, maxBatchSize int, logger zerolog.Logger) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if maxBatchSize <= 0 {
		return nil, fmt.Errorf("maxBatchSize must be positive, got %d", maxBatchSize)
	}
	return &Service{
		engine:       engine,
		maxBatchSize: maxBatchSize,
		logger:       logger.With().Str("component", "api").Logger(),
	}, nil
}

// BatchResult is the outcome of one message in a batch.
// Exactly one of Actions and Err is meaningful.
type BatchResult struct {
	Actions []string
	Err     error
}

// ruleList is a rule listing plus the ETAG computed over it.
type ruleList struct {
	Rules []types.RuleRecord
	ETag  string
}

func (s *Service) addRule(ctx context.Context, cond, action string) (types.RuleID, error) {
	id, err := s.engine.AddRule(ctx, cond, action)
	if err != nil {
		return "", err
	}
	s.logger.Info().Str("rule_id", id.String()).Str("action", action).Msg("Rule registered")
	return id, nil
}

func (s *Service) deleteRule(ctx context.Context, raw string) error {
	id, err := parseID(raw)
	if err != nil {
		return err
	}
	if err := s.engine.DeleteRule(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("rule_id", id.String()).Msg("Rule deleted")
	return nil
}

func (s *Service) getRule(ctx context.Context, raw string) (types.RuleRecord, error) {
	id, err := parseID(raw)
	if err != nil {
		return types.RuleRecord{}, err
	}
	return s.engine.GetRule(ctx, id)
}

func (s *Service) listRules(ctx context.Context) (ruleList, error) {
	recs, err := s.engine.ListRules(ctx)
	if err != nil {
		return ruleList{}, err
	}
	return ruleList{Rules: recs, ETag: computeETag(recs)}, nil
}

func (s *Service) clearRules(ctx context.Context) error {
	if err := s.engine.ClearRules(ctx); err != nil {
		return err
	}
	s.logger.Info().Msg("All rules cleared")
	return nil
}

func (s *Service) processMessage(ctx context.Context, fields map[string]any) ([]string, error) {
	return s.engine.ProcessMessage(ctx, condition.MessageFromMap(fields))
}

// processBatch evaluates each message independently so one store failure
// does not discard the results of messages already processed.
func (s *Service) processBatch(ctx context.Context, batch []map[string]any) ([]BatchResult, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: batch is empty", errInvalidRequest)
	}
	if len(batch) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d messages, maximum %d", types.ErrBatchTooLarge, len(batch), s.maxBatchSize)
	}

	results := make([]BatchResult, len(batch))
	for i, fields := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		actions, err := s.processMessage(ctx, fields)
		results[i] = BatchResult{Actions: actions, Err: err}
	}
	return results, nil
}

func (s *Service) statistics() rules.StatisticsSnapshot {
	return s.engine.GetStatistics()
}

func (s *Service) resetStatistics() {
	s.engine.ResetStatistics()
	s.logger.Info().Msg("Statistics reset")
}

func parseID(raw string) (types.RuleID, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: id required", errInvalidRequest)
	}
	id, err := types.ParseRuleID(raw)
	if err != nil {
		// Malformed ids cannot name a stored rule.
		return "", fmt.Errorf("%w: %s", types.ErrRuleNotFound, raw)
	}
	return id, nil
}

// computeETag hashes the sorted id list together with creation times.
// Same rule set always produces the same ETAG.
func computeETag(recs []types.RuleRecord) string {
	h := sha256.New()
	// Store listings are already in ascending id order.
	for _, r := range recs {
		h.Write([]byte(r.ID))
		h.Write([]byte{':'})
		h.Write([]byte(r.CreatedAt.UTC().Format(time.RFC3339Nano)))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

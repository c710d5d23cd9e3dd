// Package report logs engine statistics on a cron schedule.
package report

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/solatis/tripwire/internal/condition"
	"github.com/solatis/tripwire/internal/rules"
)

// Source provides the statistics being reported. *rules.Engine satisfies it.
type Source interface {
	GetStatistics() rules.StatisticsSnapshot
	DrainStatistics() rules.StatisticsSnapshot
	Cache() *condition.Cache
}

// Reporter emits one log line per schedule tick. With reset enabled each
// line covers the interval since the previous one; otherwise counters are
// cumulative since start (or the last explicit reset).
type Reporter struct {
	source   Source
	schedule string
	reset    bool
	cron     *cron.Cron
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
}

// NewReporter validates schedule (standard five-field cron syntax or
// descriptors such as "@every 1m") and creates a stopped reporter.
func NewReporter(source Source, schedule string, reset bool, logger zerolog.Logger) (*Reporter, error) {
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", schedule, err)
	}
	return &Reporter{
		source:   source,
		schedule: schedule,
		reset:    reset,
		cron:     cron.New(),
		logger:   logger.With().Str("component", "report").Logger(),
	}, nil
}

// Start schedules the report and returns immediately. The reporter stops
// when ctx is cancelled or Stop is called.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}
	if _, err := r.cron.AddFunc(r.schedule, r.Report); err != nil {
		return fmt.Errorf("failed to schedule report: %w", err)
	}
	r.cron.Start()
	r.running = true
	r.logger.Info().Str("schedule", r.schedule).Bool("reset", r.reset).Msg("Statistics reporter started")

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Report logs one statistics snapshot.
func (r *Reporter) Report() {
	var snap rules.StatisticsSnapshot
	if r.reset {
		snap = r.source.DrainStatistics()
	} else {
		snap = r.source.GetStatistics()
	}
	cache := r.source.Cache().Stats()

	r.logger.Info().
		Uint64("messages_processed", snap.MessagesProcessed).
		Uint64("rules_triggered", snap.RulesTriggered).
		Uint64("evaluation_errors", snap.EvaluationErrors).
		Dur("total_evaluation_time", snap.TotalEvaluationTime).
		Dur("average_evaluation_time", snap.AverageEvaluationTime).
		Int("cache_entries", cache.Entries).
		Uint64("cache_hits", cache.Hits).
		Uint64("cache_misses", cache.Misses).
		Msg("Engine statistics")
}

// Stop stops the scheduler and waits for a running report to finish.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
	r.logger.Info().Msg("Statistics reporter stopped")
}

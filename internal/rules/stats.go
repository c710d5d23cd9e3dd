// internal/rules/stats.go
package rules

import (
	"sync/atomic"
	"time"
)

/*
 * Engine statistics.
 *
 * Owned by one Engine instance; there is no package-level state, so engines
 * in the same process (tests, benchmarks) never share counters.
 *
 * Every counter is an independent atomic, so concurrent ProcessMessage calls
 * never lose updates. A Snapshot taken while messages are in flight may mix
 * counters from adjacent passes; each individual counter is exact.
 */

// Statistics accumulates per-message counters.
type Statistics struct {
	messagesProcessed atomic.Uint64
	rulesTriggered    atomic.Uint64
	evaluationErrors  atomic.Uint64
	evaluationNanos   atomic.Int64
}

// StatisticsSnapshot is a read-only copy of the counters.
type StatisticsSnapshot struct {
	MessagesProcessed     uint64
	RulesTriggered        uint64
	EvaluationErrors      uint64
	TotalEvaluationTime   time.Duration
	AverageEvaluationTime time.Duration // zero when no messages were processed
}

// record adds the outcome of one pass over the rule set.
func (s *Statistics) record(triggered, errs int, elapsed time.Duration) {
	s.messagesProcessed.Add(1)
	s.rulesTriggered.Add(uint64(triggered))
	s.evaluationErrors.Add(uint64(errs))
	s.evaluationNanos.Add(int64(elapsed))
}

// Snapshot returns the current counters and the derived average.
func (s *Statistics) Snapshot() StatisticsSnapshot {
	return newSnapshot(
		s.messagesProcessed.Load(),
		s.rulesTriggered.Load(),
		s.evaluationErrors.Load(),
		s.evaluationNanos.Load(),
	)
}

// Drain returns the current counters and zeroes them. Each counter is
// swapped atomically, so an update lands either in the returned snapshot
// or in the next one, never in neither.
func (s *Statistics) Drain() StatisticsSnapshot {
	return newSnapshot(
		s.messagesProcessed.Swap(0),
		s.rulesTriggered.Swap(0),
		s.evaluationErrors.Swap(0),
		s.evaluationNanos.Swap(0),
	)
}

func newSnapshot(messages, triggered, errs uint64, nanos int64) StatisticsSnapshot {
	snap := StatisticsSnapshot{
		MessagesProcessed:   messages,
		RulesTriggered:      triggered,
		EvaluationErrors:    errs,
		TotalEvaluationTime: time.Duration(nanos),
	}
	if messages > 0 {
		snap.AverageEvaluationTime = snap.TotalEvaluationTime / time.Duration(messages)
	}
	return snap
}

// Reset zeroes every counter.
func (s *Statistics) Reset() {
	s.messagesProcessed.Store(0)
	s.rulesTriggered.Store(0)
	s.evaluationErrors.Store(0)
	s.evaluationNanos.Store(0)
}

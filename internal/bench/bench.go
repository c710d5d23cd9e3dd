// Package bench measures rule registration and message throughput for a
// rule store backend.
package bench

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/solatis/tripwire/internal/condition"
	"github.com/solatis/tripwire/internal/rules"
)

// SensorRules is the fixed rule set cycled through when registering rules.
var SensorRules = []rules.RuleDefinition{
	{Condition: "temperature > 25", Action: "High temperature alert"},
	{Condition: "humidity < 30", Action: "Low humidity warning"},
	{Condition: "pressure > 1013", Action: "High pressure detected"},
	{Condition: "temperature < 0", Action: "Freezing temperature alert"},
	{Condition: "humidity > 80", Action: "High humidity warning"},
	{Condition: "pressure < 950", Action: "Low pressure alert"},
	{Condition: "temperature > 40", Action: "Critical temperature"},
	{Condition: "humidity > 90", Action: "Excessive humidity"},
	{Condition: "pressure > 1050", Action: "Extreme pressure"},
	{Condition: "temperature < -10", Action: "Extreme cold"},
}

// Options configures one run.
type Options struct {
	Rules    int
	Messages int
	Seed     int64
}

// Result is the outcome of one run.
type Result struct {
	Backend           string        `json:"backend"`
	Rules             int           `json:"rules"`
	Messages          int           `json:"messages"`
	AddRuleTime       time.Duration `json:"add_rule_time_ns"`
	ProcessTime       time.Duration `json:"process_message_time_ns"`
	MessagesPerSecond float64       `json:"messages_per_second"`
	RulesTriggered    uint64        `json:"rules_triggered"`
	HeapDeltaBytes    int64         `json:"heap_delta_bytes"`
}

// GenerateMessages returns n random sensor readings: temperature in
// [-20, 50), humidity in [10, 100), pressure in [900, 1100) and a unix
// timestamp.
func GenerateMessages(rng *rand.Rand, n int) []condition.Message {
	msgs := make([]condition.Message, n)
	now := float64(time.Now().Unix())
	for i := range msgs {
		msgs[i] = condition.Message{
			"temperature": condition.Number(uniform(rng, -20, 50)),
			"humidity":    condition.Number(uniform(rng, 10, 100)),
			"pressure":    condition.Number(uniform(rng, 900, 1100)),
			"timestamp":   condition.Number(now),
		}
	}
	return msgs
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Run clears the engine's store, registers opts.Rules rules and processes
// opts.Messages random messages, timing both phases separately. Engine
// statistics are reset before processing so RulesTriggered covers the run.
func Run(ctx context.Context, backend string, engine *rules.Engine, opts Options) (Result, error) {
	if opts.Rules <= 0 || opts.Messages <= 0 {
		return Result{}, fmt.Errorf("rules and messages must be positive, got %d and %d", opts.Rules, opts.Messages)
	}
	if err := engine.ClearRules(ctx); err != nil {
		return Result{}, fmt.Errorf("clear rules: %w", err)
	}

	res := Result{Backend: backend, Rules: opts.Rules, Messages: opts.Messages}

	start := time.Now()
	for i := 0; i < opts.Rules; i++ {
		def := SensorRules[i%len(SensorRules)]
		if _, err := engine.AddRule(ctx, def.Condition, def.Action); err != nil {
			return Result{}, fmt.Errorf("add rule %d: %w", i, err)
		}
	}
	res.AddRuleTime = time.Since(start)

	msgs := GenerateMessages(rand.New(rand.NewSource(opts.Seed)), opts.Messages)
	engine.ResetStatistics()

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	start = time.Now()
	for _, msg := range msgs {
		if _, err := engine.ProcessMessage(ctx, msg); err != nil {
			return Result{}, fmt.Errorf("process message: %w", err)
		}
	}
	res.ProcessTime = time.Since(start)

	runtime.ReadMemStats(&after)
	res.HeapDeltaBytes = int64(after.HeapAlloc) - int64(before.HeapAlloc)
	if res.ProcessTime > 0 {
		res.MessagesPerSecond = float64(opts.Messages) / res.ProcessTime.Seconds()
	}
	res.RulesTriggered = engine.GetStatistics().RulesTriggered

	return res, nil
}

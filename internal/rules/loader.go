package rules

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solatis/tripwire/internal/types"
)

// RuleDefinition is one rule in a rule file.
type RuleDefinition struct {
	Condition string `yaml:"condition"`
	Action    string `yaml:"action"`
}

type ruleFile struct {
	Rules []RuleDefinition `yaml:"rules"`
}

// LoadRuleFile reads a YAML rule file of the form
//
//	rules:
//	  - condition: temperature > 25
//	    action: alert_hot
func LoadRuleFile(path string) ([]RuleDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return ParseRuleFile(data)
}

// ParseRuleFile decodes YAML rule definitions. Unknown keys are rejected.
func ParseRuleFile(data []byte) ([]RuleDefinition, error) {
	var f ruleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse rule file: %w", err)
	}
	return f.Rules, nil
}

// LoadRules registers each definition in order and stops at the first one
// that fails. Rules registered before the failure stay registered.
func (e *Engine) LoadRules(ctx context.Context, defs []RuleDefinition) ([]types.RuleID, error) {
	ids := make([]types.RuleID, 0, len(defs))
	for i, def := range defs {
		id, err := e.AddRule(ctx, def.Condition, def.Action)
		if err != nil {
			return ids, fmt.Errorf("rule %d (%q): %w", i+1, def.Condition, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

package api

import (
	"fmt"
	"time"

	"github.com/solatis/tripwire/internal/rules"
	"github.com/solatis/tripwire/internal/types"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * structpb wire shapes.
 *
 * Rule:       {id, condition, action, created_at (RFC3339Nano)}
 * Statistics: {messages_processed, rules_triggered, evaluation_errors,
 *              total_evaluation_seconds, average_evaluation_seconds}
 *
 * Message values arrive as protobuf Values: numbers are float64, strings
 * and bools map directly. Nulls, lists and nested structs have no condition
 * Kind and are dropped by condition.MessageFromMap, so rules reading those
 * fields report a missing field.
 */

func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", errInvalidRequest, name)
	}
	return s.StringValue, nil
}

func structField(req *structpb.Struct, name string) (map[string]any, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s required", errInvalidRequest, name)
	}
	s := v.GetStructValue()
	if s == nil {
		return nil, fmt.Errorf("%w: %s must be an object", errInvalidRequest, name)
	}
	return s.AsMap(), nil
}

func structListField(req *structpb.Struct, name string) ([]map[string]any, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s required", errInvalidRequest, name)
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: %s must be a list", errInvalidRequest, name)
	}
	out := make([]map[string]any, len(list.GetValues()))
	for i, item := range list.GetValues() {
		s := item.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("%w: %s[%d] must be an object", errInvalidRequest, name, i)
		}
		out[i] = s.AsMap()
	}
	return out, nil
}

func ruleToStruct(r types.RuleRecord) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":         structpb.NewStringValue(r.ID.String()),
		"condition":  structpb.NewStringValue(r.Condition),
		"action":     structpb.NewStringValue(r.Action),
		"created_at": structpb.NewStringValue(r.CreatedAt.UTC().Format(time.RFC3339Nano)),
	}}
}

func ruleFromStruct(s *structpb.Struct) (types.RuleRecord, error) {
	f := s.GetFields()
	rec := types.RuleRecord{
		ID:        types.RuleID(f["id"].GetStringValue()),
		Condition: f["condition"].GetStringValue(),
		Action:    f["action"].GetStringValue(),
	}
	if ts := f["created_at"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return types.RuleRecord{}, fmt.Errorf("parse created_at: %w", err)
		}
		rec.CreatedAt = t
	}
	return rec, nil
}

func stringList(items []string) *structpb.Value {
	values := make([]*structpb.Value, len(items))
	for i, s := range items {
		values[i] = structpb.NewStringValue(s)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func stringsFromList(v *structpb.Value) []string {
	items := v.GetListValue().GetValues()
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.GetStringValue()
	}
	return out
}

func statisticsToStruct(s rules.StatisticsSnapshot) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"messages_processed":         structpb.NewNumberValue(float64(s.MessagesProcessed)),
		"rules_triggered":            structpb.NewNumberValue(float64(s.RulesTriggered)),
		"evaluation_errors":          structpb.NewNumberValue(float64(s.EvaluationErrors)),
		"total_evaluation_seconds":   structpb.NewNumberValue(s.TotalEvaluationTime.Seconds()),
		"average_evaluation_seconds": structpb.NewNumberValue(s.AverageEvaluationTime.Seconds()),
	}}
}

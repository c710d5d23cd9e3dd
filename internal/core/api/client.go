package api

import (
	"context"
	"time"

	"github.com/solatis/tripwire/internal/rules"
	"github.com/solatis/tripwire/internal/types"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a typed RuleEngine client.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, name string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+name, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func request(fields map[string]*structpb.Value) *structpb.Struct {
	return &structpb.Struct{Fields: fields}
}

// AddRule registers a rule and returns its id.
func (c *Client) AddRule(ctx context.Context, cond, action string, opts ...grpc.CallOption) (types.RuleID, error) {
	resp, err := c.invoke(ctx, "AddRule", request(map[string]*structpb.Value{
		"condition": structpb.NewStringValue(cond),
		"action":    structpb.NewStringValue(action),
	}), opts...)
	if err != nil {
		return "", err
	}
	return types.RuleID(resp.GetFields()["id"].GetStringValue()), nil
}

// GetRule fetches one rule.
func (c *Client) GetRule(ctx context.Context, id types.RuleID, opts ...grpc.CallOption) (types.RuleRecord, error) {
	resp, err := c.invoke(ctx, "GetRule", request(map[string]*structpb.Value{
		"id": structpb.NewStringValue(id.String()),
	}), opts...)
	if err != nil {
		return types.RuleRecord{}, err
	}
	return ruleFromStruct(resp)
}

// DeleteRule removes one rule.
func (c *Client) DeleteRule(ctx context.Context, id types.RuleID, opts ...grpc.CallOption) error {
	_, err := c.invoke(ctx, "DeleteRule", request(map[string]*structpb.Value{
		"id": structpb.NewStringValue(id.String()),
	}), opts...)
	return err
}

// ListRules returns all rules and the current ETAG. Passing the ETAG of a
// previous listing returns notModified=true and no rules when nothing changed.
func (c *Client) ListRules(ctx context.Context, ifNoneMatch string, opts ...grpc.CallOption) (recs []types.RuleRecord, etag string, notModified bool, err error) {
	req := request(map[string]*structpb.Value{})
	if ifNoneMatch != "" {
		req.Fields["if_none_match"] = structpb.NewStringValue(ifNoneMatch)
	}
	resp, err := c.invoke(ctx, "ListRules", req, opts...)
	if err != nil {
		return nil, "", false, err
	}

	f := resp.GetFields()
	for _, item := range f["rules"].GetListValue().GetValues() {
		rec, err := ruleFromStruct(item.GetStructValue())
		if err != nil {
			return nil, "", false, err
		}
		recs = append(recs, rec)
	}
	return recs, f["etag"].GetStringValue(), f["not_modified"].GetBoolValue(), nil
}

// ClearRules removes every rule.
func (c *Client) ClearRules(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := c.invoke(ctx, "ClearRules", nil, opts...)
	return err
}

// ProcessMessage evaluates one message and returns the triggered actions.
func (c *Client) ProcessMessage(ctx context.Context, msg map[string]any, opts ...grpc.CallOption) ([]string, error) {
	s, err := structpb.NewStruct(msg)
	if err != nil {
		return nil, err
	}
	resp, err := c.invoke(ctx, "ProcessMessage", request(map[string]*structpb.Value{
		"message": structpb.NewStructValue(s),
	}), opts...)
	if err != nil {
		return nil, err
	}
	return stringsFromList(resp.GetFields()["actions"]), nil
}

// BatchOutcome is one entry of a ProcessBatch response.
type BatchOutcome struct {
	Actions []string
	Error   string
}

// ProcessBatch evaluates several messages in one call.
func (c *Client) ProcessBatch(ctx context.Context, msgs []map[string]any, opts ...grpc.CallOption) ([]BatchOutcome, error) {
	items := make([]*structpb.Value, len(msgs))
	for i, m := range msgs {
		s, err := structpb.NewStruct(m)
		if err != nil {
			return nil, err
		}
		items[i] = structpb.NewStructValue(s)
	}
	resp, err := c.invoke(ctx, "ProcessBatch", request(map[string]*structpb.Value{
		"messages": structpb.NewListValue(&structpb.ListValue{Values: items}),
	}), opts...)
	if err != nil {
		return nil, err
	}

	entries := resp.GetFields()["results"].GetListValue().GetValues()
	out := make([]BatchOutcome, len(entries))
	for i, e := range entries {
		f := e.GetStructValue().GetFields()
		out[i] = BatchOutcome{Actions: stringsFromList(f["actions"]), Error: f["error"].GetStringValue()}
	}
	return out, nil
}

// GetStatistics returns the server's engine statistics.
func (c *Client) GetStatistics(ctx context.Context, opts ...grpc.CallOption) (rules.StatisticsSnapshot, error) {
	resp, err := c.invoke(ctx, "GetStatistics", nil, opts...)
	if err != nil {
		return rules.StatisticsSnapshot{}, err
	}
	f := resp.GetFields()
	seconds := func(name string) time.Duration {
		return time.Duration(f[name].GetNumberValue() * float64(time.Second))
	}
	return rules.StatisticsSnapshot{
		MessagesProcessed:     uint64(f["messages_processed"].GetNumberValue()),
		RulesTriggered:        uint64(f["rules_triggered"].GetNumberValue()),
		EvaluationErrors:      uint64(f["evaluation_errors"].GetNumberValue()),
		TotalEvaluationTime:   seconds("total_evaluation_seconds"),
		AverageEvaluationTime: seconds("average_evaluation_seconds"),
	}, nil
}

// ResetStatistics zeroes the server's engine statistics.
func (c *Client) ResetStatistics(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := c.invoke(ctx, "ResetStatistics", nil, opts...)
	return err
}

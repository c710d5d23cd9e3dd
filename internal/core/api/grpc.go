// internal/core/api/grpc.go
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * gRPC service tripwire.v1.RuleEngine.
 *
 * Every method takes and returns a google.protobuf.Struct, so the service
 * needs no generated code: the descriptor below is what protoc-gen-go-grpc
 * would emit for
 *
 *   service RuleEngine {
 *     rpc AddRule(google.protobuf.Struct) returns (google.protobuf.Struct);
 *     ...
 *   }
 *
 * and the default proto codec handles the messages.
 */

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tripwire.v1.RuleEngine"

// RuleEngineServer is the server API for the RuleEngine service.
type RuleEngineServer interface {
	AddRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClearRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ProcessMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ProcessBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStatistics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetStatistics(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(RuleEngineServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func method(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RuleEngineServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(RuleEngineServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// RuleEngineServiceDesc is the grpc.ServiceDesc for the RuleEngine service.
var RuleEngineServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RuleEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		method("AddRule", RuleEngineServer.AddRule),
		method("GetRule", RuleEngineServer.GetRule),
		method("DeleteRule", RuleEngineServer.DeleteRule),
		method("ListRules", RuleEngineServer.ListRules),
		method("ClearRules", RuleEngineServer.ClearRules),
		method("ProcessMessage", RuleEngineServer.ProcessMessage),
		method("ProcessBatch", RuleEngineServer.ProcessBatch),
		method("GetStatistics", RuleEngineServer.GetStatistics),
		method("ResetStatistics", RuleEngineServer.ResetStatistics),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tripwire/v1/rule_engine.proto",
}

// RegisterRuleEngineServer registers srv on s.
func RegisterRuleEngineServer(s grpc.ServiceRegistrar, srv RuleEngineServer) {
	s.RegisterService(&RuleEngineServiceDesc, srv)
}

// GRPCHandler adapts Service to RuleEngineServer.
type GRPCHandler struct {
	svc *Service
}

// NewGRPCHandler wraps svc for registration on a gRPC server.
func NewGRPCHandler(svc *Service) *GRPCHandler {
	return &GRPCHandler{svc: svc}
}

var _ RuleEngineServer = (*GRPCHandler)(nil)

// AddRule registers {condition, action} and returns {id}.
func (h *GRPCHandler) AddRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cond, err := stringField(req, "condition")
	if err != nil {
		return nil, toStatus(err)
	}
	action, err := stringField(req, "action")
	if err != nil {
		return nil, toStatus(err)
	}
	id, err := h.svc.addRule(ctx, cond, action)
	if err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id": structpb.NewStringValue(id.String()),
	}}, nil
}

// GetRule returns the rule named by {id}.
func (h *GRPCHandler) GetRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(req, "id")
	if err != nil {
		return nil, toStatus(err)
	}
	rec, err := h.svc.getRule(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return ruleToStruct(rec), nil
}

// DeleteRule removes the rule named by {id}; NOT_FOUND when absent.
func (h *GRPCHandler) DeleteRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(req, "id")
	if err != nil {
		return nil, toStatus(err)
	}
	if err := h.svc.deleteRule(ctx, id); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

// ListRules returns {rules, etag}. When {if_none_match} equals the current
// ETAG the rule list is omitted and not_modified is true.
func (h *GRPCHandler) ListRules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ifNoneMatch, err := stringField(req, "if_none_match")
	if err != nil {
		return nil, toStatus(err)
	}
	list, err := h.svc.listRules(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &structpb.Struct{Fields: map[string]*structpb.Value{
		"etag":         structpb.NewStringValue(list.ETag),
		"not_modified": structpb.NewBoolValue(ifNoneMatch == list.ETag),
	}}
	if ifNoneMatch == list.ETag {
		return resp, nil
	}

	items := make([]*structpb.Value, len(list.Rules))
	for i, r := range list.Rules {
		items[i] = structpb.NewStructValue(ruleToStruct(r))
	}
	resp.Fields["rules"] = structpb.NewListValue(&structpb.ListValue{Values: items})
	return resp, nil
}

// ClearRules removes every rule.
func (h *GRPCHandler) ClearRules(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := h.svc.clearRules(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

// ProcessMessage evaluates {message} and returns {actions}.
func (h *GRPCHandler) ProcessMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields, err := structField(req, "message")
	if err != nil {
		return nil, toStatus(err)
	}
	actions, err := h.svc.processMessage(ctx, fields)
	if err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"actions": stringList(actions),
	}}, nil
}

// ProcessBatch evaluates {messages} and returns one result per message:
// {actions} on success, {error} when the pass failed.
func (h *GRPCHandler) ProcessBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	batch, err := structListField(req, "messages")
	if err != nil {
		return nil, toStatus(err)
	}
	results, err := h.svc.processBatch(ctx, batch)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]*structpb.Value, len(results))
	processed := 0
	for i, r := range results {
		entry := &structpb.Struct{Fields: map[string]*structpb.Value{}}
		if r.Err != nil {
			entry.Fields["error"] = structpb.NewStringValue(r.Err.Error())
		} else {
			entry.Fields["actions"] = stringList(r.Actions)
			processed++
		}
		items[i] = structpb.NewStructValue(entry)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"results":   structpb.NewListValue(&structpb.ListValue{Values: items}),
		"processed": structpb.NewNumberValue(float64(processed)),
	}}, nil
}

// GetStatistics returns the engine statistics snapshot.
func (h *GRPCHandler) GetStatistics(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return statisticsToStruct(h.svc.statistics()), nil
}

// ResetStatistics zeroes the engine statistics.
func (h *GRPCHandler) ResetStatistics(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	h.svc.resetStatistics()
	return &structpb.Struct{}, nil
}

package api

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/solatis/tripwire/internal/core/auth"
	"github.com/solatis/tripwire/internal/rules"
	"github.com/solatis/tripwire/internal/types"
)

const testAPIKey = "test-api-key-0123456789"

func newTestService(t *testing.T, maxBatch int) *Service {
	t.Helper()
	svc, err := NewService(rules.NewEngine(rules.NewMemoryStore()), maxBatch, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

// startGRPC serves svc over an in-memory listener and returns a client.
func startGRPC(t *testing.T, svc *Service, keys ...string) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	authn := auth.NewAuthenticator(keys)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(authn.UnaryInterceptor()))
	RegisterRuleEngineServer(srv, NewGRPCHandler(svc))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestNewService_Validation(t *testing.T) {
	if _, err := NewService(nil, 10, zerolog.Nop()); err == nil {
		t.Error("NewService(nil engine) error = nil, want error")
	}
	if _, err := NewService(rules.NewEngine(rules.NewMemoryStore()), 0, zerolog.Nop()); err == nil {
		t.Error("NewService(maxBatch 0) error = nil, want error")
	}
}

func TestGRPC_RuleLifecycle(t *testing.T) {
	ctx := context.Background()
	c := startGRPC(t, newTestService(t, 10))

	id, err := c.AddRule(ctx, "temperature > 25", "alert")
	if err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}

	rec, err := c.GetRule(ctx, id)
	if err != nil {
		t.Fatalf("GetRule() error = %v", err)
	}
	if rec.ID != id || rec.Condition != "temperature > 25" || rec.Action != "alert" {
		t.Errorf("GetRule() = %+v", rec)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("GetRule() CreatedAt is zero")
	}

	recs, etag, notModified, err := c.ListRules(ctx, "")
	if err != nil {
		t.Fatalf("ListRules() error = %v", err)
	}
	if len(recs) != 1 || notModified || etag == "" {
		t.Fatalf("ListRules() = %d rules, etag %q, notModified %v", len(recs), etag, notModified)
	}

	if err := c.DeleteRule(ctx, id); err != nil {
		t.Fatalf("DeleteRule() error = %v", err)
	}
	if err := c.DeleteRule(ctx, id); status.Code(err) != codes.NotFound {
		t.Errorf("second DeleteRule() code = %v, want NotFound", status.Code(err))
	}
	if _, err := c.GetRule(ctx, id); status.Code(err) != codes.NotFound {
		t.Errorf("GetRule(deleted) code = %v, want NotFound", status.Code(err))
	}
}

func TestGRPC_ListRulesETag(t *testing.T) {
	ctx := context.Background()
	c := startGRPC(t, newTestService(t, 10))

	if _, err := c.AddRule(ctx, "a == 1", "x"); err != nil {
		t.Fatal(err)
	}
	_, etag, _, err := c.ListRules(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	recs, again, notModified, err := c.ListRules(ctx, etag)
	if err != nil {
		t.Fatal(err)
	}
	if !notModified || len(recs) != 0 || again != etag {
		t.Errorf("ListRules(current etag) = %d rules, notModified %v, etag %q", len(recs), notModified, again)
	}

	if _, err := c.AddRule(ctx, "b == 2", "y"); err != nil {
		t.Fatal(err)
	}
	recs, changed, notModified, err := c.ListRules(ctx, etag)
	if err != nil {
		t.Fatal(err)
	}
	if notModified || len(recs) != 2 || changed == etag {
		t.Errorf("ListRules(stale etag) = %d rules, notModified %v, etag changed %v", len(recs), notModified, changed != etag)
	}
}

func TestGRPC_AddRuleErrors(t *testing.T) {
	ctx := context.Background()
	c := startGRPC(t, newTestService(t, 10))

	tests := []struct {
		name      string
		condition string
		action    string
	}{
		{"lex error", "temperature @ 5", "a"},
		{"parse error", "temperature > ", "a"},
		{"empty condition", "   ", "a"},
		{"empty action", "temperature > 5", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.AddRule(ctx, tt.condition, tt.action)
			if status.Code(err) != codes.InvalidArgument {
				t.Errorf("AddRule() code = %v, want InvalidArgument (err %v)", status.Code(err), err)
			}
		})
	}

	recs, _, _, err := c.ListRules(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("rejected rules were stored: %d", len(recs))
	}
}

func TestGRPC_ProcessMessageAndStatistics(t *testing.T) {
	ctx := context.Background()
	c := startGRPC(t, newTestService(t, 10))

	for _, r := range []struct{ cond, action string }{
		{"temperature > 25", "hot"},
		{"humidity < 30", "dry"},
		{"status == \"ok\" and active == true", "healthy"},
	} {
		if _, err := c.AddRule(ctx, r.cond, r.action); err != nil {
			t.Fatalf("AddRule(%q) error = %v", r.cond, err)
		}
	}

	got, err := c.ProcessMessage(ctx, map[string]any{
		"temperature": 30,
		"humidity":    50.5,
		"status":      "ok",
		"active":      true,
	})
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if diff := cmp.Diff([]string{"hot", "healthy"}, got); diff != "" {
		t.Errorf("ProcessMessage() mismatch (-want +got):\n%s", diff)
	}

	stats, err := c.GetStatistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.MessagesProcessed != 1 || stats.RulesTriggered != 2 || stats.EvaluationErrors != 0 {
		t.Errorf("GetStatistics() = %+v", stats)
	}

	if err := c.ResetStatistics(ctx); err != nil {
		t.Fatal(err)
	}
	stats, err = c.GetStatistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats != (rules.StatisticsSnapshot{}) {
		t.Errorf("GetStatistics() after reset = %+v, want zero", stats)
	}
}

func TestGRPC_ProcessMessageNestedFieldIsMissing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 10)
	c := startGRPC(t, svc)

	if _, err := c.AddRule(ctx, "reading > 1", "x"); err != nil {
		t.Fatal(err)
	}
	got, err := c.ProcessMessage(ctx, map[string]any{"reading": map[string]any{"value": 5}})
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ProcessMessage() = %v, want no actions", got)
	}
	if stats := svc.statistics(); stats.EvaluationErrors != 1 {
		t.Errorf("EvaluationErrors = %d, want 1", stats.EvaluationErrors)
	}
}

func TestGRPC_ProcessBatch(t *testing.T) {
	ctx := context.Background()
	c := startGRPC(t, newTestService(t, 3))

	if _, err := c.AddRule(ctx, "temperature > 25", "hot"); err != nil {
		t.Fatal(err)
	}

	got, err := c.ProcessBatch(ctx, []map[string]any{
		{"temperature": 30},
		{"temperature": 10},
		{"humidity": 10},
	})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	want := []BatchOutcome{
		{Actions: []string{"hot"}},
		{Actions: []string{}},
		{Actions: []string{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ProcessBatch() mismatch (-want +got):\n%s", diff)
	}

	_, err = c.ProcessBatch(ctx, make([]map[string]any, 4))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("oversized batch code = %v, want InvalidArgument", status.Code(err))
	}
	_, err = c.ProcessBatch(ctx, nil)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("empty batch code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestGRPC_Authentication(t *testing.T) {
	ctx := context.Background()
	c := startGRPC(t, newTestService(t, 10), testAPIKey)

	if _, _, _, err := c.ListRules(ctx, ""); status.Code(err) != codes.Unauthenticated {
		t.Errorf("ListRules() without key code = %v, want Unauthenticated", status.Code(err))
	}

	authed := metadata.AppendToOutgoingContext(ctx, auth.HeaderName, testAPIKey)
	if _, _, _, err := c.ListRules(authed, ""); err != nil {
		t.Errorf("ListRules() with key error = %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", types.ErrRuleNotFound, codes.NotFound},
		{"batch", types.ErrBatchTooLarge, codes.InvalidArgument},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"store", errors.New("connection refused"), codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/solatis/tripwire/internal/core/api"
	"github.com/solatis/tripwire/internal/core/auth"
	"github.com/solatis/tripwire/internal/core/config"
	"github.com/solatis/tripwire/internal/rules"
)

func newService(t *testing.T) *api.Service {
	t.Helper()
	svc, err := api.NewService(rules.NewEngine(rules.NewMemoryStore()), 10, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return lis
}

func TestNewGRPCServer_Validation(t *testing.T) {
	cfg := config.DefaultConfig().Server
	if _, err := NewGRPCServer(cfg, nil, auth.NewAuthenticator(nil), zerolog.Nop()); err == nil {
		t.Error("nil handler accepted")
	}
	if _, err := NewGRPCServer(cfg, api.NewGRPCHandler(newService(t)), nil, zerolog.Nop()); err == nil {
		t.Error("nil authenticator accepted")
	}
}

func TestGRPCServer_HealthWithoutKeyAndShutdown(t *testing.T) {
	cfg := config.DefaultConfig().Server
	authn := auth.NewAuthenticator([]string{"server-test-key-0123"})
	srv, err := NewGRPCServer(cfg, api.NewGRPCHandler(newService(t)), authn, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	lis := listen(t)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: api.ServiceName})
	if err != nil {
		t.Fatalf("health Check() error = %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("health status = %v, want SERVING", resp.GetStatus())
	}

	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("Serve() returned %v after graceful stop", err)
	}
}

func TestHTTPServer_ServeAndShutdown(t *testing.T) {
	cfg := config.DefaultConfig().Server
	handler := api.NewRouter(newService(t), api.RouterConfig{Logger: zerolog.Nop()})
	srv, err := NewHTTPServer(cfg, handler)
	if err != nil {
		t.Fatal(err)
	}

	lis := listen(t)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("Serve() returned %v after shutdown", err)
	}
}

func TestNewHTTPServer_NilHandler(t *testing.T) {
	if _, err := NewHTTPServer(config.DefaultConfig().Server, nil); err == nil {
		t.Error("nil handler accepted")
	}
}

package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig("localhost:59357")

	if cfg.Target != "localhost:59357" {
		t.Errorf("Target = %v, want localhost:59357", cfg.Target)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.KeepaliveInterval != 0 {
		t.Errorf("KeepaliveInterval = %v, want 0 (disabled)", cfg.KeepaliveInterval)
	}
	if cfg.Block {
		t.Error("Block should default to false")
	}
}

func TestDialOptions_Keepalive(t *testing.T) {
	cfg := DefaultClientConfig("x")
	without := len(DialOptions(cfg))

	cfg.KeepaliveInterval = time.Minute
	with := len(DialOptions(cfg))

	if with != without+1 {
		t.Errorf("keepalive should add exactly one option: without=%d with=%d", without, with)
	}
}

func TestDial_NonBlocking(t *testing.T) {
	conn, err := DialSimple("localhost:1")
	if err != nil {
		t.Fatalf("DialSimple() error = %v", err)
	}
	defer conn.Close()
}

func TestDial_BlockingTimeout(t *testing.T) {
	cfg := DefaultClientConfig("passthrough:///unreachable")
	cfg.Block = true
	cfg.Timeout = 50 * time.Millisecond

	_, err := Dial(cfg, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return nil, context.DeadlineExceeded
	}))
	if err == nil {
		t.Fatal("expected blocking dial to fail")
	}
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()

	if cfg.Port != 59357 {
		t.Errorf("Port = %v, want 59357", cfg.Port)
	}
	if cfg.Host != "localhost" {
		t.Errorf("Host = %v, want localhost", cfg.Host)
	}
}

func TestServer_RoundTrip(t *testing.T) {
	lis := bufconn.Listen(1024 * 1024)
	srv := NewServer(DefaultServerConfig())
	healthpb.RegisterHealthServer(srv.GRPCServer(), health.NewServer())

	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := Dial(DefaultClientConfig("passthrough:///bufnet"),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("Status = %v, want SERVING", resp.Status)
	}
	if srv.Address() != "bufconn" {
		t.Errorf("Address() = %v, want bufconn", srv.Address())
	}
}

func TestServer_StopWithTimeout(t *testing.T) {
	srv := NewServer(DefaultServerConfig())
	lis := bufconn.Listen(1024)
	go func() { _ = srv.Serve(lis) }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		srv.StopWithTimeout(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("StopWithTimeout did not return")
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor()

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/test"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			panic("boom")
		})

	if status.Code(err) != codes.Internal {
		t.Errorf("code = %v, want Internal", status.Code(err))
	}
}

func TestRequestIDInterceptor(t *testing.T) {
	interceptor := RequestIDInterceptor()

	t.Run("generated", func(t *testing.T) {
		var got string
		_, _ = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{},
			func(ctx context.Context, req interface{}) (interface{}, error) {
				got = GetRequestID(ctx)
				return nil, nil
			})
		if got == "" {
			t.Error("expected a generated request id")
		}
	})

	t.Run("from metadata", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "req-1"))
		var got string
		_, _ = interceptor(ctx, nil, &grpc.UnaryServerInfo{},
			func(ctx context.Context, req interface{}) (interface{}, error) {
				got = GetRequestID(ctx)
				return nil, nil
			})
		if got != "req-1" {
			t.Errorf("request id = %v, want req-1", got)
		}
	})
}

func TestClientRequestIDInterceptor(t *testing.T) {
	interceptor := ClientRequestIDInterceptor()
	ctx := WithRequestID(context.Background(), "abc")

	var sent []string
	err := interceptor(ctx, "/m", nil, nil, nil,
		func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			md, _ := metadata.FromOutgoingContext(ctx)
			sent = md.Get(RequestIDHeader)
			return nil
		})
	if err != nil {
		t.Fatalf("interceptor error = %v", err)
	}
	if len(sent) != 1 || sent[0] != "abc" {
		t.Errorf("outgoing %s = %v, want [abc]", RequestIDHeader, sent)
	}
}

func TestClientLoggingInterceptor_PassesError(t *testing.T) {
	interceptor := ClientLoggingInterceptor()
	want := status.Error(codes.Unavailable, "down")

	err := interceptor(context.Background(), "/m", nil, nil, nil,
		func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			return want
		})
	if err != want {
		t.Errorf("err = %v, want %v", err, want)
	}
}

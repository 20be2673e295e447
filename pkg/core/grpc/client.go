package grpc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// ClientConfig holds gRPC client configuration
type ClientConfig struct {
	Target            string
	Timeout           time.Duration // Only used when Block is set
	MaxRecvMsgSize    int
	MaxSendMsgSize    int
	KeepaliveInterval time.Duration // Zero disables client keepalive pings
	KeepaliveTimeout  time.Duration
	Block             bool // Block until connection is established
}

// DefaultClientConfig returns a default client configuration.
// Keepalive stays off: the sidecar keeps the grpc-go server enforcement
// policy and answers frequent pings with GOAWAY.
func DefaultClientConfig(target string) ClientConfig {
	return ClientConfig{
		Target:         target,
		Timeout:        30 * time.Second,
		MaxRecvMsgSize: 4 * 1024 * 1024, // 4MB
		MaxSendMsgSize: 4 * 1024 * 1024, // 4MB
	}
}

// DialOptions returns the dial options Dial would use for cfg
func DialOptions(cfg ClientConfig) []grpc.DialOption {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.MaxRecvMsgSize),
			grpc.MaxCallSendMsgSize(cfg.MaxSendMsgSize),
		),
		grpc.WithChainUnaryInterceptor(
			ClientRequestIDInterceptor(),
			ClientMetricsInterceptor(),
			ClientLoggingInterceptor(),
		),
		grpc.WithChainStreamInterceptor(
			ClientStreamRequestIDInterceptor(),
			ClientStreamLoggingInterceptor(),
		),
	}

	if cfg.KeepaliveInterval > 0 {
		dialOpts = append(dialOpts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepaliveInterval,
			Timeout:             cfg.KeepaliveTimeout,
			PermitWithoutStream: true,
		}))
	}
	return dialOpts
}

// Dial creates a new gRPC client connection
func Dial(cfg ClientConfig, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialOpts := append(DialOptions(cfg), opts...)

	if !cfg.Block {
		conn, err := grpc.NewClient(cfg.Target, dialOpts...)
		if err != nil {
			return nil, errors.Wrapf(err, "could not connect to %s", cfg.Target)
		}
		return conn, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	dialOpts = append(dialOpts, grpc.WithBlock())
	conn, err := grpc.DialContext(ctx, cfg.Target, dialOpts...) //nolint:staticcheck // blocking dial is opt-in
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s", cfg.Target)
	}
	return conn, nil
}

// DialSimple creates a non-blocking connection with the default configuration
func DialSimple(target string) (*grpc.ClientConn, error) {
	return Dial(DefaultClientConfig(target))
}

// DialWithTimeout creates a connection that blocks until ready or timeout
func DialWithTimeout(target string, timeout time.Duration) (*grpc.ClientConn, error) {
	cfg := DefaultClientConfig(target)
	cfg.Timeout = timeout
	cfg.Block = true
	return Dial(cfg)
}

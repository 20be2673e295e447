package sdk

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	sdkpb "agones.dev/agones/pkg/sdk"
	alphapb "agones.dev/agones/pkg/sdk/alpha"
	betapb "agones.dev/agones/pkg/sdk/beta"
	"github.com/pkg/errors"
	"google.golang.org/grpc"

	coregrpc "github.com/msto63/agones-sdk-go/pkg/core/grpc"
	"github.com/msto63/agones-sdk-go/pkg/core/logging"
)

// Default sidecar address
const (
	DefaultHost = "localhost"
	DefaultPort = 59357
)

// ErrNoConnection is returned by Alpha and Beta calls on an SDK built
// without the corresponding handle.
var ErrNoConnection = errors.New("no sidecar handle configured")

// SidecarClient is the part of the generated stable SDK client used here.
// sdkpb.SDKClient satisfies it.
type SidecarClient interface {
	Ready(ctx context.Context, in *sdkpb.Empty, opts ...grpc.CallOption) (*sdkpb.Empty, error)
	Allocate(ctx context.Context, in *sdkpb.Empty, opts ...grpc.CallOption) (*sdkpb.Empty, error)
	Shutdown(ctx context.Context, in *sdkpb.Empty, opts ...grpc.CallOption) (*sdkpb.Empty, error)
	Health(ctx context.Context, opts ...grpc.CallOption) (sdkpb.SDK_HealthClient, error)
	GetGameServer(ctx context.Context, in *sdkpb.Empty, opts ...grpc.CallOption) (*sdkpb.GameServer, error)
	WatchGameServer(ctx context.Context, in *sdkpb.Empty, opts ...grpc.CallOption) (sdkpb.SDK_WatchGameServerClient, error)
	SetLabel(ctx context.Context, in *sdkpb.KeyValue, opts ...grpc.CallOption) (*sdkpb.Empty, error)
	SetAnnotation(ctx context.Context, in *sdkpb.KeyValue, opts ...grpc.CallOption) (*sdkpb.Empty, error)
	Reserve(ctx context.Context, in *sdkpb.Duration, opts ...grpc.CallOption) (*sdkpb.Empty, error)
}

// HealthStream is the open client stream health pings are pushed onto
type HealthStream interface {
	Send(*sdkpb.Empty) error
	CloseSend() error
}

// SDK is an instance of the Agones SDK
type SDK struct {
	ctx    context.Context
	cancel context.CancelFunc
	conn   *grpc.ClientConn // nil unless the SDK dialed it
	client SidecarClient
	alpha  *Alpha
	beta   *Beta
	logger *logging.Logger

	healthMu sync.Mutex
	health   HealthStream

	closeOnce sync.Once
	closeErr  error
}

// NewSDK connects to the sidecar on localhost:59357
func NewSDK(opts ...Option) (*SDK, error) {
	return New(DefaultHost, DefaultPort, opts...)
}

// New connects to the sidecar at host:port and opens the health stream
func New(host string, port int, opts ...Option) (*SDK, error) {
	o := buildOptions(opts)
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	cfg := coregrpc.DefaultClientConfig(addr)
	cfg.Block = o.block
	if o.dialTimeout > 0 {
		cfg.Timeout = o.dialTimeout
	}
	if o.keepaliveInterval > 0 {
		cfg.KeepaliveInterval = o.keepaliveInterval
		cfg.KeepaliveTimeout = 10 * time.Second
	}

	conn, err := coregrpc.Dial(cfg, o.dialOpts...)
	if err != nil {
		return nil, err
	}

	s, err := newFromConn(conn, o)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	s.conn = conn
	o.logger.Debug("connected to sidecar", "address", addr)
	return s, nil
}

// NewFromConn derives the SDK handles from an existing connection.
// The caller keeps ownership of conn.
func NewFromConn(conn grpc.ClientConnInterface, opts ...Option) (*SDK, error) {
	return newFromConn(conn, buildOptions(opts))
}

func newFromConn(conn grpc.ClientConnInterface, o *options) (*SDK, error) {
	if o.alphaClient == nil {
		o.alphaClient = alphapb.NewSDKClient(conn)
	}
	if o.betaClient == nil {
		o.betaClient = betapb.NewSDKClient(conn)
	}
	return newSDK(sdkpb.NewSDKClient(conn), o)
}

// NewWithClient builds an SDK around an existing stable client. The health
// stream is opened through client.Health.
func NewWithClient(client SidecarClient, opts ...Option) (*SDK, error) {
	return newSDK(client, buildOptions(opts))
}

func newSDK(client SidecarClient, o *options) (*SDK, error) {
	ctx, cancel := context.WithCancel(o.ctx)
	s := &SDK{
		ctx:    ctx,
		cancel: cancel,
		client: client,
		alpha:  newAlpha(o.alphaClient),
		beta:   newBeta(o.betaClient),
		logger: o.logger,
	}

	health, err := client.Health(ctx)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "could not set up health check")
	}
	s.health = health
	return s, nil
}

// Ready marks the Game Server as ready to receive connections
func (s *SDK) Ready(ctx context.Context) error {
	_, err := s.client.Ready(ctx, &sdkpb.Empty{})
	return errors.Wrap(err, "could not send Ready message")
}

// Allocate self marks this gameserver as Allocated
func (s *SDK) Allocate(ctx context.Context) error {
	_, err := s.client.Allocate(ctx, &sdkpb.Empty{})
	return errors.Wrap(err, "could not mark self as Allocated")
}

// Shutdown marks the Game Server as ready to shutdown
func (s *SDK) Shutdown(ctx context.Context) error {
	_, err := s.client.Shutdown(ctx, &sdkpb.Empty{})
	return errors.Wrap(err, "could not send Shutdown message")
}

// Reserve marks the Game Server as Reserved for d, after which the sidecar
// moves it back to Ready. Sub-second precision is dropped; zero means no limit.
func (s *SDK) Reserve(ctx context.Context, d time.Duration) error {
	_, err := s.client.Reserve(ctx, &sdkpb.Duration{Seconds: int64(d / time.Second)})
	return errors.Wrap(err, "could not send Reserve message")
}

// Health sends a ping on the health stream to indicate that this server is healthy
func (s *SDK) Health() error {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	return errors.Wrap(s.health.Send(&sdkpb.Empty{}), "could not send Health ping")
}

// SetLabel sets a metadata label on the GameServer. The sidecar stores it
// with the prefix agones.dev/sdk-
func (s *SDK) SetLabel(ctx context.Context, key, value string) error {
	_, err := s.client.SetLabel(ctx, &sdkpb.KeyValue{Key: key, Value: value})
	return errors.Wrap(err, "could not set label")
}

// SetAnnotation sets a metadata annotation on the GameServer. The sidecar
// stores it with the prefix agones.dev/sdk-
func (s *SDK) SetAnnotation(ctx context.Context, key, value string) error {
	_, err := s.client.SetAnnotation(ctx, &sdkpb.KeyValue{Key: key, Value: value})
	return errors.Wrap(err, "could not set annotation")
}

// GameServer retrieves the current GameServer snapshot
func (s *SDK) GameServer(ctx context.Context) (*sdkpb.GameServer, error) {
	gs, err := s.client.GetGameServer(ctx, &sdkpb.Empty{})
	if err != nil {
		return nil, errors.Wrap(err, "could not retrieve gameserver")
	}
	return gs, nil
}

// WatchGameServer opens one watch stream and delivers every GameServer
// snapshot the sidecar pushes to w, in arrival order, on a separate goroutine.
// The watch ends when ctx is cancelled, the stream ends or the SDK is closed.
// It can be called multiple times to register more than one Watcher.
func (s *SDK) WatchGameServer(ctx context.Context, w Watcher) error {
	stream, err := s.client.WatchGameServer(ctx, &sdkpb.Empty{})
	if err != nil {
		return errors.Wrap(err, "could not watch gameserver")
	}

	go receive(ctx, stream, w, s.logger)
	return nil
}

// Alpha returns the Alpha SDK
func (s *SDK) Alpha() *Alpha {
	return s.alpha
}

// Beta returns the Beta SDK
func (s *SDK) Beta() *Beta {
	return s.beta
}

// Close closes the health stream and, if the SDK dialed it, the connection.
// Safe to call more than once.
func (s *SDK) Close() error {
	s.closeOnce.Do(func() {
		s.healthMu.Lock()
		err := s.health.CloseSend()
		s.healthMu.Unlock()

		s.cancel()
		if s.conn != nil {
			if cerr := s.conn.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		s.closeErr = errors.Wrap(err, "could not close sdk")
	})
	return s.closeErr
}

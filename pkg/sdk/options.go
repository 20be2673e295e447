package sdk

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/msto63/agones-sdk-go/pkg/core/logging"
)

type options struct {
	ctx               context.Context
	dialTimeout       time.Duration
	block             bool
	keepaliveInterval time.Duration
	dialOpts          []grpc.DialOption
	logger            *logging.Logger
	alphaClient       AlphaClient
	betaClient        BetaClient
}

// Option configures an SDK at construction
type Option func(*options)

func buildOptions(opts []Option) *options {
	o := &options{ctx: context.Background()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.New("sdk")
	}
	return o
}

// WithContext sets the parent context of the health stream. Cancelling it
// closes the stream, as does Close.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithBlock makes New wait until the connection is ready.
func WithBlock() Option {
	return func(o *options) {
		o.block = true
	}
}

// WithDialTimeout bounds a blocking dial. Implies WithBlock.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		o.block = true
		o.dialTimeout = d
	}
}

// WithKeepalive enables client keepalive pings at the given interval.
func WithKeepalive(interval time.Duration) Option {
	return func(o *options) {
		o.keepaliveInterval = interval
	}
}

// WithDialOptions appends raw gRPC dial options.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) {
		o.dialOpts = append(o.dialOpts, opts...)
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAlphaClient injects the alpha handle, for use with NewWithClient.
func WithAlphaClient(client AlphaClient) Option {
	return func(o *options) {
		o.alphaClient = client
	}
}

// WithBetaClient injects the beta handle, for use with NewWithClient.
func WithBetaClient(client BetaClient) Option {
	return func(o *options) {
		o.betaClient = client
	}
}

// Package server exposes the local sidecar service over the Agones SDK gRPC
// services and serves liveness, readiness and metrics over HTTP.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	sdkpb "agones.dev/agones/pkg/sdk"
	alphapb "agones.dev/agones/pkg/sdk/alpha"
	betapb "agones.dev/agones/pkg/sdk/beta"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"

	"github.com/msto63/agones-sdk-go/internal/localsidecar/service"
	coreGrpc "github.com/msto63/agones-sdk-go/pkg/core/grpc"
	"github.com/msto63/agones-sdk-go/pkg/core/health"
	"github.com/msto63/agones-sdk-go/pkg/core/logging"
	"github.com/msto63/agones-sdk-go/pkg/core/metrics"
	"github.com/msto63/agones-sdk-go/pkg/core/version"
)

// Config holds server configuration
type Config struct {
	Host string
	Port int
	// HTTPPort serves /live, /ready and /metrics; 0 disables HTTP
	HTTPPort int
	Service  service.Config
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     59357,
		HTTPPort: 59358,
		Service:  service.DefaultConfig(),
	}
}

// Server is the local sidecar gRPC server
type Server struct {
	sdkpb.UnimplementedSDKServer
	service *service.Service
	grpc    *coreGrpc.Server
	http    *http.Server
	probes  healthcheck.Handler
	health  *health.Registry
	logger  *logging.Logger
	config  Config
}

// New creates the local sidecar and registers the stable, alpha and beta services
func New(cfg Config) (*Server, error) {
	logger := logging.New("local-sidecar-server")

	svc, err := service.NewService(cfg.Service)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create local sidecar service")
	}

	grpcCfg := coreGrpc.DefaultServerConfig()
	grpcCfg.Host = cfg.Host
	grpcCfg.Port = cfg.Port
	grpcServer := coreGrpc.NewServer(grpcCfg)

	s := &Server{
		service: svc,
		grpc:    grpcServer,
		health:  health.NewRegistry("local-sidecar", version.SDK),
		logger:  logger,
		config:  cfg,
	}

	s.health.RegisterFunc("gameserver", func(ctx context.Context) health.CheckResult {
		state := svc.State()
		if state == service.StateShutdown {
			return health.CheckResult{Status: health.StatusUnhealthy, Message: "gameserver is shut down"}
		}
		return health.CheckResult{Status: health.StatusHealthy, Message: "state " + state}
	})

	s.probes = healthcheck.NewHandler()
	s.probes.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	s.probes.AddReadinessCheck("sidecar", func() error {
		report := s.health.CheckWithTimeout(time.Second)
		if report.Status == health.StatusUnhealthy {
			return errors.New(report.String())
		}
		return nil
	})

	sdkpb.RegisterSDKServer(grpcServer.GRPCServer(), s)
	alphapb.RegisterSDKServer(grpcServer.GRPCServer(), &playerServer{service: svc})
	betapb.RegisterSDKServer(grpcServer.GRPCServer(), &countsServer{service: svc})

	return s, nil
}

// Service returns the GameServer record behind the server
func (s *Server) Service() *service.Service {
	return s.service
}

// Handler returns the HTTP handler serving probes and metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/live", s.probes)
	mux.Handle("/ready", s.probes)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// Serve serves gRPC on lis, blocking until Stop
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// StartAsync starts gRPC and, if configured, HTTP in the background
func (s *Server) StartAsync() error {
	if err := s.grpc.StartAsync(); err != nil {
		return err
	}
	s.health.Register(health.TCPCheck("grpc", s.grpc.Address(), time.Second))

	if s.config.HTTPPort > 0 {
		addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.HTTPPort))
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			s.grpc.Stop()
			return errors.Wrapf(err, "failed to listen on %s", addr)
		}
		s.http = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := s.http.Serve(lis); err != nil && err != http.ErrServerClosed {
				s.logger.Error("HTTP server error", "error", err)
			}
		}()
		s.logger.Info("probes listening", "address", lis.Addr().String())
	}

	s.logger.Info("local sidecar listening", "address", s.grpc.Address(), "gameserver", s.service.Summary())
	return nil
}

// GRPCAddress returns the address the gRPC server listens on
func (s *Server) GRPCAddress() string {
	return s.grpc.Address()
}

// Stop ends open watch streams, then stops gRPC and HTTP within ctx
func (s *Server) Stop(ctx context.Context) error {
	err := s.service.Close()
	s.grpc.StopWithTimeout(ctx)
	if s.http != nil {
		if herr := s.http.Shutdown(ctx); herr != nil && err == nil {
			err = herr
		}
	}
	s.logger.Info("local sidecar stopped", "requests", len(s.service.Requests()))
	return err
}

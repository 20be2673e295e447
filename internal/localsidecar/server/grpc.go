package server

import (
	"context"
	"io"
	"time"

	sdkpb "agones.dev/agones/pkg/sdk"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/msto63/agones-sdk-go/internal/localsidecar/service"
)

// Ensure Server implements the stable SDK service
var _ sdkpb.SDKServer = (*Server)(nil)

// Ready implements SDKServer.Ready
func (s *Server) Ready(ctx context.Context, _ *sdkpb.Empty) (*sdkpb.Empty, error) {
	s.service.Record("ready")
	s.service.SetState(service.StateReady)
	return &sdkpb.Empty{}, nil
}

// Allocate implements SDKServer.Allocate
func (s *Server) Allocate(ctx context.Context, _ *sdkpb.Empty) (*sdkpb.Empty, error) {
	s.service.Record("allocate")
	s.service.SetState(service.StateAllocated)
	return &sdkpb.Empty{}, nil
}

// Shutdown implements SDKServer.Shutdown
func (s *Server) Shutdown(ctx context.Context, _ *sdkpb.Empty) (*sdkpb.Empty, error) {
	s.service.Record("shutdown")
	s.service.SetState(service.StateShutdown)
	return &sdkpb.Empty{}, nil
}

// Reserve implements SDKServer.Reserve
func (s *Server) Reserve(ctx context.Context, d *sdkpb.Duration) (*sdkpb.Empty, error) {
	if d.GetSeconds() < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "reserve duration must not be negative, found %d", d.GetSeconds())
	}
	s.service.Record("reserve")
	s.service.Reserve(time.Duration(d.GetSeconds()) * time.Second)
	return &sdkpb.Empty{}, nil
}

// Health implements SDKServer.Health. Every message on the stream is one ping.
func (s *Server) Health(stream sdkpb.SDK_HealthServer) error {
	for {
		_, err := stream.Recv()
		if err == io.EOF {
			s.logger.Debug("health stream closed", "pings", s.service.HealthPings())
			return stream.SendAndClose(&sdkpb.Empty{})
		}
		if err != nil {
			return err
		}
		s.service.Record("health")
		s.service.RecordHealth()
	}
}

// SetLabel implements SDKServer.SetLabel
func (s *Server) SetLabel(ctx context.Context, kv *sdkpb.KeyValue) (*sdkpb.Empty, error) {
	if kv == nil {
		return nil, status.Error(codes.InvalidArgument, "key/value is required")
	}
	s.service.Record("setlabel")
	s.service.SetLabel(kv.Key, kv.Value)
	return &sdkpb.Empty{}, nil
}

// SetAnnotation implements SDKServer.SetAnnotation
func (s *Server) SetAnnotation(ctx context.Context, kv *sdkpb.KeyValue) (*sdkpb.Empty, error) {
	if kv == nil {
		return nil, status.Error(codes.InvalidArgument, "key/value is required")
	}
	s.service.Record("setannotation")
	s.service.SetAnnotation(kv.Key, kv.Value)
	return &sdkpb.Empty{}, nil
}

// GetGameServer implements SDKServer.GetGameServer
func (s *Server) GetGameServer(ctx context.Context, _ *sdkpb.Empty) (*sdkpb.GameServer, error) {
	s.service.Record("gameserver")
	return s.service.GameServer(), nil
}

// WatchGameServer implements SDKServer.WatchGameServer. It sends the current
// record, then one record per change, until the client leaves or the
// sidecar stops.
func (s *Server) WatchGameServer(_ *sdkpb.Empty, stream sdkpb.SDK_WatchGameServerServer) error {
	s.service.Record("watch")
	changes, cancel := s.service.Subscribe()
	defer cancel()

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := stream.Send(s.service.GameServer()); err != nil {
				s.logger.Warn("error sending gameserver", "error", err)
				return err
			}
		}
	}
}

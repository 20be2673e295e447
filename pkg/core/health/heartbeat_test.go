package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/msto63/agones-sdk-go/pkg/core/metrics"
)

type countingSender struct {
	pings atomic.Int32
	err   error
}

func (s *countingSender) Health() error {
	s.pings.Add(1)
	return s.err
}

func TestHeartbeat_Beat(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		err    error
		want   string
		pings  int32
	}{
		{"healthy", StatusHealthy, nil, metrics.PingSent, 1},
		{"degraded still pings", StatusDegraded, nil, metrics.PingSent, 1},
		{"unhealthy skips", StatusUnhealthy, nil, metrics.PingSkipped, 0},
		{"send error", StatusHealthy, errors.New("stream closed"), metrics.PingFailed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry("simple-game-server", "1.0.0")
			registry.RegisterFunc("game", func(ctx context.Context) CheckResult {
				return CheckResult{Status: tt.status}
			})
			sender := &countingSender{err: tt.err}
			hb := NewHeartbeat(registry, sender)

			before := testutil.ToFloat64(metrics.HealthPings.WithLabelValues(tt.want))
			got := hb.Beat(context.Background())
			if got != tt.want {
				t.Errorf("Beat() = %v, want %v", got, tt.want)
			}
			if sender.pings.Load() != tt.pings {
				t.Errorf("pings = %v, want %v", sender.pings.Load(), tt.pings)
			}
			after := testutil.ToFloat64(metrics.HealthPings.WithLabelValues(tt.want))
			if after-before != 1 {
				t.Errorf("%s counter delta = %v, want 1", tt.want, after-before)
			}
		})
	}
}

func TestHeartbeat_NilRegistryAlwaysPings(t *testing.T) {
	sender := &countingSender{}
	hb := &Heartbeat{Sender: sender, Interval: time.Second}

	if got := hb.Beat(context.Background()); got != metrics.PingSent {
		t.Errorf("Beat() = %v, want %v", got, metrics.PingSent)
	}
}

func TestHeartbeat_Run(t *testing.T) {
	sender := &countingSender{}
	hb := NewHeartbeat(nil, sender)
	hb.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hb.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for sender.pings.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if sender.pings.Load() < 3 {
		t.Errorf("pings = %v, want at least 3", sender.pings.Load())
	}
}

func TestHeartbeat_RunValidates(t *testing.T) {
	if err := (&Heartbeat{Interval: time.Second}).Run(context.Background()); err == nil {
		t.Error("Run() without sender should fail")
	}
	if err := (&Heartbeat{Sender: &countingSender{}}).Run(context.Background()); err == nil {
		t.Error("Run() with zero interval should fail")
	}
}

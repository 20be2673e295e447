package health

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/msto63/agones-sdk-go/pkg/core/logging"
	"github.com/msto63/agones-sdk-go/pkg/core/metrics"
)

// Sender pushes one ping onto the sidecar health channel.
// *sdk.SDK satisfies it.
type Sender interface {
	Health() error
}

// Heartbeat pings the sidecar every Interval while the Registry does not
// report unhealthy. A nil Registry always pings.
type Heartbeat struct {
	Registry     *Registry
	Sender       Sender
	Interval     time.Duration
	CheckTimeout time.Duration
	Logger       *logging.Logger
}

// NewHeartbeat returns a Heartbeat with the default sidecar cadence: the
// Agones default health period is 5s, so pinging every 2s leaves margin.
func NewHeartbeat(registry *Registry, sender Sender) *Heartbeat {
	return &Heartbeat{
		Registry:     registry,
		Sender:       sender,
		Interval:     2 * time.Second,
		CheckTimeout: time.Second,
	}
}

// Run pings immediately and then on every tick until ctx is done.
// A failed send is logged and counted; the loop keeps going.
func (h *Heartbeat) Run(ctx context.Context) error {
	if h.Sender == nil {
		return errors.New("heartbeat has no sender")
	}
	if h.Interval <= 0 {
		return errors.Errorf("invalid heartbeat interval %s", h.Interval)
	}
	if h.Logger == nil {
		h.Logger = logging.New("heartbeat")
	}

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	for {
		h.Beat(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Beat runs the checks once and sends a ping if they allow it. It returns
// the metrics result label of what happened.
func (h *Heartbeat) Beat(ctx context.Context) string {
	if h.Registry != nil {
		timeout := h.CheckTimeout
		if timeout <= 0 {
			timeout = time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		report := h.Registry.Check(checkCtx)
		cancel()

		if report.Status == StatusUnhealthy {
			h.log().Warn("skipping health ping", "report", report.String())
			metrics.HealthPings.WithLabelValues(metrics.PingSkipped).Inc()
			return metrics.PingSkipped
		}
	}

	if err := h.Sender.Health(); err != nil {
		h.log().Error("health ping failed", "error", err)
		metrics.HealthPings.WithLabelValues(metrics.PingFailed).Inc()
		return metrics.PingFailed
	}
	metrics.HealthPings.WithLabelValues(metrics.PingSent).Inc()
	return metrics.PingSent
}

func (h *Heartbeat) log() *logging.Logger {
	if h.Logger == nil {
		h.Logger = logging.New("heartbeat")
	}
	return h.Logger
}

// Package service holds the GameServer record of the local development
// sidecar and every state change the SDK can request on it.
package service

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	sdkpb "agones.dev/agones/pkg/sdk"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"

	"github.com/msto63/agones-sdk-go/pkg/core/logging"
	"github.com/msto63/agones-sdk-go/pkg/core/metrics"
)

// MetadataPrefix is prepended to every label and annotation key set through the SDK
const MetadataPrefix = "agones.dev/sdk-"

// ListMaxCapacity bounds the capacity of a list
const ListMaxCapacity = 1000

// GameServer states the local sidecar moves through
const (
	StateScheduled = "Scheduled"
	StateReady     = "Ready"
	StateAllocated = "Allocated"
	StateReserved  = "Reserved"
	StateShutdown  = "Shutdown"
)

// Config holds service configuration
type Config struct {
	// GameServerFile is an optional YAML GameServer resource. When set it
	// replaces the built-in record and is reloaded whenever it is written.
	GameServerFile string
}

// DefaultConfig returns default service configuration
func DefaultConfig() Config {
	return Config{}
}

// Service is the in-memory GameServer of the local sidecar
type Service struct {
	mu sync.RWMutex
	gs *sdkpb.GameServer

	reserveTimer *time.Timer
	reserveGen   uint64

	obsMu     sync.Mutex
	observers map[chan struct{}]struct{}
	closed    bool

	reqMu    sync.Mutex
	requests []string

	healthPings atomic.Int64
	lastHealth  atomic.Int64

	watcher *fsnotify.Watcher
	logger  *logging.Logger
}

// defaultGameServer is the record served when no file is configured
func defaultGameServer() *sdkpb.GameServer {
	return &sdkpb.GameServer{
		ObjectMeta: &sdkpb.GameServer_ObjectMeta{
			Name:              "local",
			Namespace:         "default",
			Uid:               uuid.NewString(),
			Generation:        1,
			ResourceVersion:   "v1",
			CreationTimestamp: time.Now().Unix(),
			Labels:            map[string]string{"islocal": "true"},
			Annotations:       map[string]string{"annotation": "true"},
		},
		Spec: &sdkpb.GameServer_Spec{
			Health: &sdkpb.GameServer_Spec_Health{
				PeriodSeconds:       3,
				FailureThreshold:    5,
				InitialDelaySeconds: 10,
			},
		},
		Status: &sdkpb.GameServer_Status{
			State:   StateScheduled,
			Address: "127.0.0.1",
			Ports:   []*sdkpb.GameServer_Status_Port{{Name: "default", Port: 7777}},
			Players: &sdkpb.GameServer_Status_PlayerStatus{},
			Counters: map[string]*sdkpb.GameServer_Status_CounterStatus{
				"rooms": {Count: 1, Capacity: 10},
			},
			Lists: map[string]*sdkpb.GameServer_Status_ListStatus{
				"players": {Values: []string{"test0", "test1", "test2"}, Capacity: 100},
			},
		},
	}
}

// NewService creates the service, loading and watching cfg.GameServerFile if set
func NewService(cfg Config) (*Service, error) {
	s := &Service{
		gs:        defaultGameServer(),
		observers: make(map[chan struct{}]struct{}),
		logger:    logging.New("local-sidecar"),
	}

	if cfg.GameServerFile != "" {
		if err := s.loadFile(cfg.GameServerFile); err != nil {
			return nil, err
		}
		if err := s.watchFile(cfg.GameServerFile); err != nil {
			s.logger.Error("could not watch GameServer file", "file", cfg.GameServerFile, "error", err)
		}
	}

	s.ensureStatus()
	return s, nil
}

// ensureStatus fills the nil collections the RPCs write into. Caller holds mu
// or has exclusive access.
func (s *Service) ensureStatus() {
	if s.gs.ObjectMeta == nil {
		s.gs.ObjectMeta = &sdkpb.GameServer_ObjectMeta{}
	}
	if s.gs.Status == nil {
		s.gs.Status = &sdkpb.GameServer_Status{}
	}
	st := s.gs.Status
	if st.Players == nil {
		st.Players = &sdkpb.GameServer_Status_PlayerStatus{}
	}
	if st.Counters == nil {
		st.Counters = make(map[string]*sdkpb.GameServer_Status_CounterStatus)
	}
	if st.Lists == nil {
		st.Lists = make(map[string]*sdkpb.GameServer_Status_ListStatus)
	}
}

// GameServer returns a copy of the current record
func (s *Service) GameServer() *sdkpb.GameServer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return proto.Clone(s.gs).(*sdkpb.GameServer)
}

// State returns the current status.state
func (s *Service) State() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gs.GetStatus().GetState()
}

// Record appends an RPC name to the request log
func (s *Service) Record(method string) {
	s.reqMu.Lock()
	s.requests = append(s.requests, method)
	s.reqMu.Unlock()
	metrics.LocalRequests.WithLabelValues(method).Inc()
}

// Requests returns the RPC names received so far, in order
func (s *Service) Requests() []string {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()
	return append([]string(nil), s.requests...)
}

// RecordHealth counts one health ping
func (s *Service) RecordHealth() {
	s.healthPings.Add(1)
	s.lastHealth.Store(time.Now().UnixNano())
}

// HealthPings returns the number of health pings received
func (s *Service) HealthPings() int64 {
	return s.healthPings.Load()
}

// LastHealth returns the time of the latest health ping, zero if none
func (s *Service) LastHealth() time.Time {
	n := s.lastHealth.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// SetState moves the GameServer to state and cancels a pending reserve timeout
func (s *Service) SetState(state string) {
	s.mu.Lock()
	s.stopReserveLocked()
	s.gs.Status.State = state
	s.mu.Unlock()

	s.logger.Info("gameserver state changed", "state", state)
	s.notify()
}

// Reserve moves the GameServer to Reserved. With d > 0 it returns to Ready
// after d unless another state change happens first.
func (s *Service) Reserve(d time.Duration) {
	s.mu.Lock()
	s.stopReserveLocked()
	s.gs.Status.State = StateReserved
	if d > 0 {
		gen := s.reserveGen
		s.reserveTimer = time.AfterFunc(d, func() { s.endReserve(gen) })
	}
	s.mu.Unlock()

	s.logger.Info("gameserver reserved", "duration", d)
	s.notify()
}

func (s *Service) endReserve(gen uint64) {
	s.mu.Lock()
	if gen != s.reserveGen || s.gs.Status.State != StateReserved {
		s.mu.Unlock()
		return
	}
	s.reserveTimer = nil
	s.gs.Status.State = StateReady
	s.mu.Unlock()

	s.logger.Info("reserve expired, back to Ready")
	s.notify()
}

func (s *Service) stopReserveLocked() {
	if s.reserveTimer != nil {
		s.reserveTimer.Stop()
		s.reserveTimer = nil
	}
	s.reserveGen++
}

// SetLabel stores value under the prefixed label key
func (s *Service) SetLabel(key, value string) {
	s.mu.Lock()
	if s.gs.ObjectMeta.Labels == nil {
		s.gs.ObjectMeta.Labels = map[string]string{}
	}
	s.gs.ObjectMeta.Labels[MetadataPrefix+key] = value
	s.mu.Unlock()
	s.notify()
}

// SetAnnotation stores value under the prefixed annotation key
func (s *Service) SetAnnotation(key, value string) {
	s.mu.Lock()
	if s.gs.ObjectMeta.Annotations == nil {
		s.gs.ObjectMeta.Annotations = map[string]string{}
	}
	s.gs.ObjectMeta.Annotations[MetadataPrefix+key] = value
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers for change notifications. The channel holds at most
// one pending signal and starts with one, so a new watcher sees the current
// record first. cancel must be called when done.
func (s *Service) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}

	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.observers[ch] = struct{}{}

	return ch, func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		if _, ok := s.observers[ch]; ok {
			delete(s.observers, ch)
			close(ch)
		}
	}
}

// Watchers returns the number of active subscriptions
func (s *Service) Watchers() int {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	return len(s.observers)
}

func (s *Service) notify() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	for ch := range s.observers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close ends all subscriptions, stops the reserve timer and the file watcher
func (s *Service) Close() error {
	s.obsMu.Lock()
	if !s.closed {
		s.closed = true
		for ch := range s.observers {
			delete(s.observers, ch)
			close(ch)
		}
	}
	s.obsMu.Unlock()

	s.mu.Lock()
	s.stopReserveLocked()
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Summary returns a short description for logs
func (s *Service) Summary() map[string]string {
	gs := s.GameServer()
	keys := make([]string, 0, len(gs.Status.Counters))
	for k := range gs.Status.Counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := map[string]string{
		"name":    gs.ObjectMeta.Name,
		"state":   gs.Status.State,
		"players": strconv.FormatInt(gs.Status.Players.Count, 10),
	}
	for _, k := range keys {
		c := gs.Status.Counters[k]
		out["counter."+k] = strconv.FormatInt(c.Count, 10) + "/" + strconv.FormatInt(c.Capacity, 10)
	}
	return out
}

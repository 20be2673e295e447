package sdk

import (
	"context"
	"sync"

	sdkpb "agones.dev/agones/pkg/sdk"
	alphapb "agones.dev/agones/pkg/sdk/alpha"
	betapb "agones.dev/agones/pkg/sdk/beta"
	"github.com/stretchr/testify/mock"
	"google.golang.org/grpc"
)

var (
	_ SidecarClient = &sidecarMock{}
	_ AlphaClient   = &alphaMock{}
	_ BetaClient    = &betaMock{}

	_ sdkpb.SDK_HealthClient           = &healthMock{}
	_ sdkpb.SDK_WatchGameServerClient = &watchMock{}
)

type sidecarMock struct {
	mock.Mock
}

func (m *sidecarMock) empty(method string, in any) (*sdkpb.Empty, error) {
	args := m.MethodCalled(method, in)
	return &sdkpb.Empty{}, args.Error(0)
}

func (m *sidecarMock) Ready(ctx context.Context, in *sdkpb.Empty, _ ...grpc.CallOption) (*sdkpb.Empty, error) {
	return m.empty("Ready", in)
}

func (m *sidecarMock) Allocate(ctx context.Context, in *sdkpb.Empty, _ ...grpc.CallOption) (*sdkpb.Empty, error) {
	return m.empty("Allocate", in)
}

func (m *sidecarMock) Shutdown(ctx context.Context, in *sdkpb.Empty, _ ...grpc.CallOption) (*sdkpb.Empty, error) {
	return m.empty("Shutdown", in)
}

func (m *sidecarMock) SetLabel(ctx context.Context, in *sdkpb.KeyValue, _ ...grpc.CallOption) (*sdkpb.Empty, error) {
	return m.empty("SetLabel", in)
}

func (m *sidecarMock) SetAnnotation(ctx context.Context, in *sdkpb.KeyValue, _ ...grpc.CallOption) (*sdkpb.Empty, error) {
	return m.empty("SetAnnotation", in)
}

func (m *sidecarMock) Reserve(ctx context.Context, in *sdkpb.Duration, _ ...grpc.CallOption) (*sdkpb.Empty, error) {
	return m.empty("Reserve", in)
}

func (m *sidecarMock) Health(ctx context.Context, _ ...grpc.CallOption) (sdkpb.SDK_HealthClient, error) {
	args := m.Called()
	hc, _ := args.Get(0).(sdkpb.SDK_HealthClient)
	return hc, args.Error(1)
}

func (m *sidecarMock) GetGameServer(ctx context.Context, in *sdkpb.Empty, _ ...grpc.CallOption) (*sdkpb.GameServer, error) {
	args := m.Called(in)
	gs, _ := args.Get(0).(*sdkpb.GameServer)
	return gs, args.Error(1)
}

func (m *sidecarMock) WatchGameServer(ctx context.Context, in *sdkpb.Empty, _ ...grpc.CallOption) (sdkpb.SDK_WatchGameServerClient, error) {
	args := m.Called(in)
	wc, _ := args.Get(0).(sdkpb.SDK_WatchGameServerClient)
	return wc, args.Error(1)
}

// healthMock counts pings; grpc.ClientStream is embedded only to satisfy
// the generated interface.
type healthMock struct {
	grpc.ClientStream

	mu     sync.Mutex
	sent   int
	closed int
	err    error
}

func (h *healthMock) Send(*sdkpb.Empty) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent++
	return h.err
}

func (h *healthMock) CloseSend() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return nil
}

func (h *healthMock) CloseAndRecv() (*sdkpb.Empty, error) {
	return &sdkpb.Empty{}, h.CloseSend()
}

func (h *healthMock) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sent, h.closed
}

// watchMock replays a fixed sequence of snapshots and then returns err
type watchMock struct {
	grpc.ClientStream

	items []*sdkpb.GameServer
	err   error
}

func (w *watchMock) Recv() (*sdkpb.GameServer, error) {
	if len(w.items) == 0 {
		return nil, w.err
	}
	gs := w.items[0]
	w.items = w.items[1:]
	return gs, nil
}

// recordingWatcher records what it was given and closes done when the
// sequence ends.
type recordingWatcher struct {
	mu        sync.Mutex
	received  []*sdkpb.GameServer
	err       error
	completed bool
	done      chan struct{}
}

func newRecordingWatcher() *recordingWatcher {
	return &recordingWatcher{done: make(chan struct{})}
}

func (r *recordingWatcher) OnNext(gs *sdkpb.GameServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, gs)
}

func (r *recordingWatcher) OnError(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	close(r.done)
}

func (r *recordingWatcher) OnCompleted() {
	r.mu.Lock()
	r.completed = true
	r.mu.Unlock()
	close(r.done)
}

type alphaMock struct {
	mock.Mock
}

func (m *alphaMock) PlayerConnect(_ context.Context, in *alphapb.PlayerID, _ ...grpc.CallOption) (*alphapb.Bool, error) {
	args := m.Called(in)
	return &alphapb.Bool{Bool: args.Bool(0)}, args.Error(1)
}

func (m *alphaMock) PlayerDisconnect(_ context.Context, in *alphapb.PlayerID, _ ...grpc.CallOption) (*alphapb.Bool, error) {
	args := m.Called(in)
	return &alphapb.Bool{Bool: args.Bool(0)}, args.Error(1)
}

func (m *alphaMock) SetPlayerCapacity(_ context.Context, in *alphapb.Count, _ ...grpc.CallOption) (*alphapb.Empty, error) {
	args := m.Called(in)
	return &alphapb.Empty{}, args.Error(0)
}

func (m *alphaMock) GetPlayerCapacity(_ context.Context, in *alphapb.Empty, _ ...grpc.CallOption) (*alphapb.Count, error) {
	args := m.Called(in)
	return &alphapb.Count{Count: args.Get(0).(int64)}, args.Error(1)
}

func (m *alphaMock) GetPlayerCount(_ context.Context, in *alphapb.Empty, _ ...grpc.CallOption) (*alphapb.Count, error) {
	args := m.Called(in)
	return &alphapb.Count{Count: args.Get(0).(int64)}, args.Error(1)
}

func (m *alphaMock) IsPlayerConnected(_ context.Context, in *alphapb.PlayerID, _ ...grpc.CallOption) (*alphapb.Bool, error) {
	args := m.Called(in)
	return &alphapb.Bool{Bool: args.Bool(0)}, args.Error(1)
}

func (m *alphaMock) GetConnectedPlayers(_ context.Context, in *alphapb.Empty, _ ...grpc.CallOption) (*alphapb.PlayerIDList, error) {
	args := m.Called(in)
	list, _ := args.Get(0).([]string)
	return &alphapb.PlayerIDList{List: list}, args.Error(1)
}

type betaMock struct {
	mock.Mock
}

func (m *betaMock) GetCounter(_ context.Context, in *betapb.GetCounterRequest, _ ...grpc.CallOption) (*betapb.Counter, error) {
	args := m.Called(in)
	c, _ := args.Get(0).(*betapb.Counter)
	return c, args.Error(1)
}

func (m *betaMock) UpdateCounter(_ context.Context, in *betapb.UpdateCounterRequest, _ ...grpc.CallOption) (*betapb.Counter, error) {
	args := m.Called(in)
	return &betapb.Counter{}, args.Error(0)
}

func (m *betaMock) GetList(_ context.Context, in *betapb.GetListRequest, _ ...grpc.CallOption) (*betapb.List, error) {
	args := m.Called(in)
	l, _ := args.Get(0).(*betapb.List)
	return l, args.Error(1)
}

func (m *betaMock) UpdateList(_ context.Context, in *betapb.UpdateListRequest, _ ...grpc.CallOption) (*betapb.List, error) {
	args := m.Called(in)
	return &betapb.List{}, args.Error(0)
}

func (m *betaMock) AddListValue(_ context.Context, in *betapb.AddListValueRequest, _ ...grpc.CallOption) (*betapb.List, error) {
	args := m.Called(in)
	return &betapb.List{}, args.Error(0)
}

func (m *betaMock) RemoveListValue(_ context.Context, in *betapb.RemoveListValueRequest, _ ...grpc.CallOption) (*betapb.List, error) {
	args := m.Called(in)
	return &betapb.List{}, args.Error(0)
}

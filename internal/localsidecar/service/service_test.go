package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestNewService_Defaults(t *testing.T) {
	svc := newTestService(t)
	gs := svc.GameServer()

	if gs.ObjectMeta.Name != "local" || gs.ObjectMeta.Namespace != "default" {
		t.Errorf("meta = %s/%s, want default/local", gs.ObjectMeta.Namespace, gs.ObjectMeta.Name)
	}
	if gs.ObjectMeta.Uid == "" {
		t.Error("Uid should be generated")
	}
	if gs.Status.State != StateScheduled {
		t.Errorf("State = %v, want %v", gs.Status.State, StateScheduled)
	}
	if len(gs.Status.Ports) != 1 || gs.Status.Ports[0].Port != 7777 {
		t.Errorf("Ports = %v, want default:7777", gs.Status.Ports)
	}
	if gs.Status.Counters["rooms"].Capacity != 10 {
		t.Errorf("rooms capacity = %v, want 10", gs.Status.Counters["rooms"].Capacity)
	}
	if len(gs.Status.Lists["players"].Values) != 3 {
		t.Errorf("players list = %v, want 3 values", gs.Status.Lists["players"].Values)
	}
}

func TestService_GameServerIsCopy(t *testing.T) {
	svc := newTestService(t)

	gs := svc.GameServer()
	gs.Status.State = "Mutated"
	gs.ObjectMeta.Labels["x"] = "y"

	again := svc.GameServer()
	if again.Status.State != StateScheduled {
		t.Errorf("State = %v, caller mutation leaked", again.Status.State)
	}
	if _, ok := again.ObjectMeta.Labels["x"]; ok {
		t.Error("label mutation leaked")
	}
}

func TestService_StateTransitions(t *testing.T) {
	svc := newTestService(t)

	for _, state := range []string{StateReady, StateAllocated, StateShutdown} {
		svc.SetState(state)
		if got := svc.State(); got != state {
			t.Errorf("State() = %v, want %v", got, state)
		}
	}
}

func TestService_ReserveReturnsToReady(t *testing.T) {
	svc := newTestService(t)

	svc.Reserve(20 * time.Millisecond)
	if got := svc.State(); got != StateReserved {
		t.Fatalf("State() = %v, want Reserved", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for svc.State() != StateReady && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := svc.State(); got != StateReady {
		t.Errorf("State() = %v, want Ready after reserve expired", got)
	}
}

func TestService_ReserveCancelledByAllocate(t *testing.T) {
	svc := newTestService(t)

	svc.Reserve(20 * time.Millisecond)
	svc.SetState(StateAllocated)
	time.Sleep(60 * time.Millisecond)

	if got := svc.State(); got != StateAllocated {
		t.Errorf("State() = %v, want Allocated", got)
	}
}

func TestService_ReserveWithoutDuration(t *testing.T) {
	svc := newTestService(t)

	svc.Reserve(0)
	time.Sleep(20 * time.Millisecond)
	if got := svc.State(); got != StateReserved {
		t.Errorf("State() = %v, want Reserved", got)
	}
}

func TestService_LabelsAndAnnotations(t *testing.T) {
	svc := newTestService(t)

	svc.SetLabel("foo", "bar")
	svc.SetAnnotation("map", "dust")

	gs := svc.GameServer()
	if got := gs.ObjectMeta.Labels[MetadataPrefix+"foo"]; got != "bar" {
		t.Errorf("label = %q, want bar", got)
	}
	if got := gs.ObjectMeta.Annotations[MetadataPrefix+"map"]; got != "dust" {
		t.Errorf("annotation = %q, want dust", got)
	}
	if _, ok := gs.ObjectMeta.Labels["foo"]; ok {
		t.Error("label stored without prefix")
	}
}

func TestService_Subscribe(t *testing.T) {
	svc := newTestService(t)

	ch, cancel := svc.Subscribe()
	defer cancel()

	select {
	case <-ch:
	default:
		t.Fatal("new subscription should start with a pending signal")
	}

	svc.SetLabel("a", "1")
	svc.SetLabel("b", "2")

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no signal after change")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce")
	default:
	}

	if svc.Watchers() != 1 {
		t.Errorf("Watchers() = %d, want 1", svc.Watchers())
	}
	cancel()
	if svc.Watchers() != 0 {
		t.Errorf("Watchers() after cancel = %d, want 0", svc.Watchers())
	}
}

func TestService_CloseEndsSubscriptions(t *testing.T) {
	svc, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	ch, cancel := svc.Subscribe()
	<-ch

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
	cancel()

	late, _ := svc.Subscribe()
	<-late
	if _, ok := <-late; ok {
		t.Error("subscription after Close should be closed")
	}
}

func TestService_RequestsAndHealth(t *testing.T) {
	svc := newTestService(t)

	svc.Record("ready")
	svc.Record("health")
	svc.RecordHealth()
	svc.RecordHealth()

	got := svc.Requests()
	if len(got) != 2 || got[0] != "ready" || got[1] != "health" {
		t.Errorf("Requests() = %v", got)
	}
	if svc.HealthPings() != 2 {
		t.Errorf("HealthPings() = %d, want 2", svc.HealthPings())
	}
	if svc.LastHealth().IsZero() {
		t.Error("LastHealth() should be set")
	}
}

func TestService_Players(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.PlayerConnect("p1"); errors.Cause(err) != ErrOutOfRange {
		t.Errorf("PlayerConnect at zero capacity error = %v, want out of range", err)
	}

	if err := svc.SetPlayerCapacity(2); err != nil {
		t.Fatalf("SetPlayerCapacity() error = %v", err)
	}
	if ok, err := svc.PlayerConnect("p1"); !ok || err != nil {
		t.Errorf("PlayerConnect(p1) = %v, %v", ok, err)
	}
	if ok, _ := svc.PlayerConnect("p1"); ok {
		t.Error("second connect of p1 should report false")
	}
	if ok, _ := svc.PlayerConnect("p2"); !ok {
		t.Error("PlayerConnect(p2) should succeed")
	}
	if _, err := svc.PlayerConnect("p3"); errors.Cause(err) != ErrOutOfRange {
		t.Errorf("PlayerConnect over capacity error = %v", err)
	}

	if svc.PlayerCount() != 2 || !svc.IsPlayerConnected("p2") {
		t.Errorf("count = %d, connected = %v", svc.PlayerCount(), svc.ConnectedPlayers())
	}
	if !svc.PlayerDisconnect("p1") || svc.PlayerDisconnect("p1") {
		t.Error("PlayerDisconnect should succeed once")
	}
	if got := svc.ConnectedPlayers(); len(got) != 1 || got[0] != "p2" {
		t.Errorf("ConnectedPlayers() = %v, want [p2]", got)
	}
	if svc.PlayerCapacity() != 2 {
		t.Errorf("PlayerCapacity() = %d", svc.PlayerCapacity())
	}
	if err := svc.SetPlayerCapacity(-1); errors.Cause(err) != ErrInvalidArgument {
		t.Errorf("negative capacity error = %v", err)
	}
}

func int64p(v int64) *int64 { return &v }

func TestService_UpdateCounter(t *testing.T) {
	tests := []struct {
		name      string
		update    CounterUpdate
		wantCount int64
		wantCap   int64
		wantErr   error
	}{
		{"increment", CounterUpdate{Name: "rooms", Diff: 2}, 3, 10, nil},
		{"decrement below zero", CounterUpdate{Name: "rooms", Diff: -2}, 0, 0, ErrOutOfRange},
		{"set count", CounterUpdate{Name: "rooms", Count: int64p(7)}, 7, 10, nil},
		{"count over capacity", CounterUpdate{Name: "rooms", Count: int64p(11)}, 0, 0, ErrOutOfRange},
		{"set capacity", CounterUpdate{Name: "rooms", Capacity: int64p(20)}, 1, 20, nil},
		{"negative capacity", CounterUpdate{Name: "rooms", Capacity: int64p(-1)}, 0, 0, ErrOutOfRange},
		{"missing", CounterUpdate{Name: "nope", Diff: 1}, 0, 0, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			count, capacity, err := svc.UpdateCounter(tt.update)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("UpdateCounter() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				c, _, _ := svc.Counter("rooms")
				if c != 1 {
					t.Errorf("failed update changed count to %d", c)
				}
				return
			}
			if count != tt.wantCount || capacity != tt.wantCap {
				t.Errorf("UpdateCounter() = %d/%d, want %d/%d", count, capacity, tt.wantCount, tt.wantCap)
			}
		})
	}
}

func TestService_Lists(t *testing.T) {
	svc := newTestService(t)

	if _, _, err := svc.AddListValue("players", "test0"); errors.Cause(err) != ErrAlreadyExists {
		t.Errorf("duplicate add error = %v", err)
	}
	if _, values, err := svc.AddListValue("players", "test3"); err != nil || len(values) != 4 {
		t.Errorf("AddListValue() = %v, %v", values, err)
	}
	if _, _, err := svc.RemoveListValue("players", "missing"); errors.Cause(err) != ErrNotFound {
		t.Errorf("remove missing error = %v", err)
	}
	if _, values, err := svc.RemoveListValue("players", "test0"); err != nil || len(values) != 3 {
		t.Errorf("RemoveListValue() = %v, %v", values, err)
	}

	capacity, values, err := svc.UpdateList("players", []string{"capacity"}, 2, nil)
	if err != nil {
		t.Fatalf("UpdateList() error = %v", err)
	}
	if capacity != 2 || len(values) != 2 {
		t.Errorf("UpdateList() = %d %v, want capacity 2 with truncated values", capacity, values)
	}
	if _, _, err := svc.AddListValue("players", "x"); errors.Cause(err) != ErrOutOfRange {
		t.Errorf("add over capacity error = %v", err)
	}

	if _, _, err := svc.UpdateList("players", []string{"capacity"}, ListMaxCapacity+1, nil); errors.Cause(err) != ErrOutOfRange {
		t.Errorf("capacity over max error = %v", err)
	}
	if _, _, err := svc.UpdateList("players", []string{"name"}, 1, nil); errors.Cause(err) != ErrInvalidArgument {
		t.Errorf("bad mask error = %v", err)
	}
	if _, _, err := svc.UpdateList("nope", []string{"capacity"}, 1, nil); errors.Cause(err) != ErrNotFound {
		t.Errorf("missing list error = %v", err)
	}

	_, values, err = svc.UpdateList("players", []string{"capacity", "values"}, 10, []string{"a", "b", "a"})
	if err != nil || len(values) != 2 {
		t.Errorf("UpdateList(values) = %v, %v, want deduplicated [a b]", values, err)
	}
}

const testGameServerYAML = `
metadata:
  name: from-file
  namespace: games
  labels:
    mode: ctf
spec:
  health:
    periodSeconds: 7
  players:
    initialCapacity: 4
  counters:
    sessions:
      count: 2
      capacity: 5
  lists:
    maps:
      capacity: 3
      values: [dust, nuke]
status:
  state: Ready
  ports:
    - name: game
      port: 7654
`

func TestNewService_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameserver.yaml")
	if err := os.WriteFile(path, []byte(testGameServerYAML), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	svc, err := NewService(Config{GameServerFile: path})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	defer svc.Close()

	gs := svc.GameServer()
	if gs.ObjectMeta.Name != "from-file" || gs.ObjectMeta.Labels["mode"] != "ctf" {
		t.Errorf("meta = %v", gs.ObjectMeta)
	}
	if gs.Spec.Health.PeriodSeconds != 7 {
		t.Errorf("PeriodSeconds = %d, want 7", gs.Spec.Health.PeriodSeconds)
	}
	if gs.Status.State != StateReady || gs.Status.Address != "127.0.0.1" {
		t.Errorf("status = %s %s", gs.Status.State, gs.Status.Address)
	}
	if gs.Status.Players.Capacity != 4 {
		t.Errorf("player capacity = %d, want 4", gs.Status.Players.Capacity)
	}
	if c := gs.Status.Counters["sessions"]; c == nil || c.Count != 2 || c.Capacity != 5 {
		t.Errorf("sessions counter = %v", c)
	}
	if l := gs.Status.Lists["maps"]; l == nil || len(l.Values) != 2 {
		t.Errorf("maps list = %v", l)
	}
	if len(gs.Status.Ports) != 1 || gs.Status.Ports[0].Port != 7654 {
		t.Errorf("ports = %v", gs.Status.Ports)
	}
}

func TestNewService_FileReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameserver.yaml")
	if err := os.WriteFile(path, []byte(testGameServerYAML), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	svc, err := NewService(Config{GameServerFile: path})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	defer svc.Close()

	updated := []byte("metadata:\n  name: reloaded\nstatus:\n  state: Allocated\n")
	if err := os.WriteFile(path, updated, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for svc.GameServer().ObjectMeta.Name != "reloaded" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := svc.GameServer().ObjectMeta.Name; got != "reloaded" {
		t.Errorf("Name after reload = %v, want reloaded", got)
	}
}

func TestNewService_MissingFile(t *testing.T) {
	_, err := NewService(Config{GameServerFile: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Error("NewService() should fail for a missing file")
	}
}

func TestParseGameServerFile_Invalid(t *testing.T) {
	if _, err := parseGameServerFile([]byte("metadata: [unclosed")); err == nil {
		t.Error("parseGameServerFile() should fail on invalid YAML")
	}
}

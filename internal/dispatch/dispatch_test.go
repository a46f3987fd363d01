package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ios-xr/xrd-ha-agent/internal/action"
	"github.com/ios-xr/xrd-ha-agent/internal/vrrpstate"
)

type fakeBinding struct {
	mu      sync.Mutex
	calls   int
	applyFn func() error
}

func (f *fakeBinding) Apply(ctx context.Context, precheck bool) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.applyFn != nil {
		return f.applyFn()
	}
	return nil
}

func (f *fakeBinding) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeBinding) String() string { return "fake" }

var _ action.Binding = (*fakeBinding)(nil)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

// S1: basic go-active submits exactly one action call and records ACTIVE.
func TestHandleEvent_BasicGoActive(t *testing.T) {
	sess := vrrpstate.Session{Interface: "HundredGigE0/0/0/1", VRID: 1}
	store := vrrpstate.New()
	store.Init([]vrrpstate.Session{sess})
	binding := &fakeBinding{}
	d := New(map[vrrpstate.Session]action.Binding{sess: binding}, store, nil)
	defer d.Close()

	d.HandleEvent(context.Background(), Event{Session: sess, State: vrrpstate.Active})

	waitFor(t, func() bool { return binding.callCount() == 1 })
	got, _ := store.Get(sess)
	if got != vrrpstate.Active {
		t.Fatalf("expected ACTIVE, got %v", got)
	}
}

// S2: event for an unregistered session is ignored entirely.
func TestHandleEvent_UnknownSessionIgnored(t *testing.T) {
	store := vrrpstate.New()
	bound := vrrpstate.Session{Interface: "HundredGigE0/0/0/1", VRID: 1}
	store.Init([]vrrpstate.Session{bound})
	binding := &fakeBinding{}
	d := New(map[vrrpstate.Session]action.Binding{bound: binding}, store, nil)
	defer d.Close()

	unknown := vrrpstate.Session{Interface: "HundredGigE0/0/0/5", VRID: 20}
	d.HandleEvent(context.Background(), Event{Session: unknown, State: vrrpstate.Active})

	time.Sleep(20 * time.Millisecond)
	if binding.callCount() != 0 {
		t.Fatalf("expected zero action calls for an unknown session, got %d", binding.callCount())
	}
	if _, ok := store.Get(unknown); ok {
		t.Fatalf("unknown session must not be written to the state store")
	}
}

// S3: already-ACTIVE session receiving another ACTIVE report triggers no
// new action submission (no edge).
func TestHandleEvent_NoEdgeNoNewSubmission(t *testing.T) {
	sess := vrrpstate.Session{Interface: "Hun0/0/0/1", VRID: 1}
	store := vrrpstate.New()
	store.Init([]vrrpstate.Session{sess})
	store.Set(sess, vrrpstate.Active)
	binding := &fakeBinding{}
	d := New(map[vrrpstate.Session]action.Binding{sess: binding}, store, nil)
	defer d.Close()

	d.HandleEvent(context.Background(), Event{Session: sess, State: vrrpstate.Active})

	time.Sleep(20 * time.Millisecond)
	if binding.callCount() != 0 {
		t.Fatalf("expected zero new action calls without an edge, got %d", binding.callCount())
	}
}

func TestHandleEvent_ActionFailureLeavesStateActive(t *testing.T) {
	sess := vrrpstate.Session{Interface: "Hun0/0/0/1", VRID: 1}
	store := vrrpstate.New()
	store.Init([]vrrpstate.Session{sess})
	var calls int32
	binding := &fakeBinding{applyFn: func() error {
		atomic.AddInt32(&calls, 1)
		return context.DeadlineExceeded
	}}
	d := New(map[vrrpstate.Session]action.Binding{sess: binding}, store, nil)
	defer d.Close()

	d.HandleEvent(context.Background(), Event{Session: sess, State: vrrpstate.Active})

	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 1 })
	got, _ := store.Get(sess)
	if got != vrrpstate.Active {
		t.Fatalf("expected session to remain ACTIVE after a failed go-active action, got %v", got)
	}
}

func TestDisconnect_ResetsAllSessions(t *testing.T) {
	sessA := vrrpstate.Session{Interface: "Hun0/0/0/1", VRID: 1}
	sessB := vrrpstate.Session{Interface: "Hun0/0/0/2", VRID: 2}
	store := vrrpstate.New()
	store.Init([]vrrpstate.Session{sessA, sessB})
	store.Set(sessA, vrrpstate.Active)
	store.Set(sessB, vrrpstate.Active)

	d := New(nil, store, nil)
	defer d.Close()
	d.Disconnect()

	for _, sess := range []vrrpstate.Session{sessA, sessB} {
		got, _ := store.Get(sess)
		if got != vrrpstate.Inactive {
			t.Fatalf("session %v: expected INACTIVE after Disconnect, got %v", sess, got)
		}
	}
}

package vrrpstate

import "testing"

func TestInitDefaultsToInactive(t *testing.T) {
	s := New()
	sess := Session{Interface: "HundredGigE0/0/0/1", VRID: 1}
	s.Init([]Session{sess})

	got, ok := s.Get(sess)
	if !ok {
		t.Fatalf("expected session to be bound after Init")
	}
	if got != Inactive {
		t.Fatalf("expected Inactive, got %v", got)
	}
}

func TestGetUnboundSession(t *testing.T) {
	s := New()
	s.Init([]Session{{Interface: "Hun0/0/0/1", VRID: 1}})

	_, ok := s.Get(Session{Interface: "Hun0/0/0/5", VRID: 20})
	if ok {
		t.Fatalf("expected unbound session to report ok=false")
	}
}

func TestResetAllMarksEveryBoundSessionInactive(t *testing.T) {
	s := New()
	sessA := Session{Interface: "Hun0/0/0/1", VRID: 1}
	sessB := Session{Interface: "Hun0/0/0/2", VRID: 2}
	s.Init([]Session{sessA, sessB})
	s.Set(sessA, Active)
	s.Set(sessB, Active)

	s.ResetAll()

	for _, sess := range []Session{sessA, sessB} {
		got, _ := s.Get(sess)
		if got != Inactive {
			t.Fatalf("session %v: expected Inactive after ResetAll, got %v", sess, got)
		}
	}
}

func TestSnapshotIsKeyStable(t *testing.T) {
	s := New()
	sessA := Session{Interface: "Hun0/0/0/1", VRID: 1}
	s.Init([]Session{sessA})

	snap := s.Snapshot()
	if len(snap) != 1 || snap[0] != sessA {
		t.Fatalf("unexpected snapshot: %v", snap)
	}

	// Values may change concurrently; the snapshot's key set is unaffected.
	s.Set(sessA, Active)
	got, _ := s.Get(snap[0])
	if got != Active {
		t.Fatalf("expected re-read to observe the latest value, got %v", got)
	}
}

func TestSessionString(t *testing.T) {
	sess := Session{Interface: "HundredGigE0/0/0/1", VRID: 12}
	want := "<xr_interface=HundredGigE0/0/0/1,vrid=12>"
	if got := sess.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

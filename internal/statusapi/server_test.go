package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ios-xr/xrd-ha-agent/internal/vrrpstate"
)

type fakeState struct {
	sessions map[vrrpstate.Session]vrrpstate.State
}

func (f *fakeState) All() map[vrrpstate.Session]vrrpstate.State { return f.sessions }

func TestHandleHealthz(t *testing.T) {
	s := New(":0", &fakeState{}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.handleHealthz(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
}

func TestHandleStatus_ReportsSessions(t *testing.T) {
	sess := vrrpstate.Session{Interface: "Hun0/0/0/1", VRID: 1}
	s := New(":0", &fakeState{sessions: map[vrrpstate.Session]vrrpstate.State{sess: vrrpstate.Active}}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	s.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Hun0/0/0/1") {
		t.Fatalf("expected session interface in response body, got %s", w.Body.String())
	}
}

func TestHandleMetrics_NilProviderReturns404(t *testing.T) {
	s := New(":0", &fakeState{}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.handleMetrics(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with no metrics provider, got %d", w.Code)
	}
}

func TestHandleMetrics_RendersCounters(t *testing.T) {
	var c Counters
	c.GoActiveSubmitted.Store(3)
	s := New(":0", &fakeState{}, &c, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.handleMetrics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ha_agent_go_active_submitted_total 3") {
		t.Fatalf("expected counter value in metrics body, got %s", w.Body.String())
	}
}

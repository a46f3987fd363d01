package telemetry

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"

	"github.com/ios-xr/xrd-ha-agent/internal/telemetry/gpb"
	"github.com/ios-xr/xrd-ha-agent/internal/vrrpstate"
)

func vrrpRecord(iface string, vrid uint32, state string) gpb.TelemetryField {
	return gpb.TelemetryField{
		Fields: []gpb.TelemetryField{
			{
				Name: "keys",
				Fields: []gpb.TelemetryField{
					{Name: "interface-name", ValueKind: gpb.ValueString, StringValue: iface},
					{Name: "virtual-router-id", ValueKind: gpb.ValueUint32, Uint32Value: vrid},
				},
			},
			{
				Name: "content",
				Fields: []gpb.TelemetryField{
					{Name: "vrrp-state", ValueKind: gpb.ValueString, StringValue: state},
				},
			},
		},
	}
}

func TestExtractVRRPEvent_Master(t *testing.T) {
	ev, err := extractVRRPEvent(vrrpRecord("HundredGigE0/0/0/1", 1, "state-master"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Event{Session: vrrpstate.Session{Interface: "HundredGigE0/0/0/1", VRID: 1}, State: vrrpstate.Active}
	if *ev != want {
		t.Fatalf("got %+v, want %+v", *ev, want)
	}
}

func TestExtractVRRPEvent_NonMasterMapsToInactive(t *testing.T) {
	ev, err := extractVRRPEvent(vrrpRecord("HundredGigE0/0/0/1", 1, "state-backup"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.State != vrrpstate.Inactive {
		t.Fatalf("expected INACTIVE for non-master state, got %v", ev.State)
	}
}

func TestExtractVRRPEvent_MissingKeysErrors(t *testing.T) {
	entry := gpb.TelemetryField{Fields: []gpb.TelemetryField{
		{Name: "content", Fields: []gpb.TelemetryField{
			{Name: "vrrp-state", ValueKind: gpb.ValueString, StringValue: "state-master"},
		}},
	}}
	if _, err := extractVRRPEvent(entry); err == nil {
		t.Fatalf("expected an error for a missing keys field")
	}
}

func newTestServer() (*Server, *[]Event, *int) {
	var mu sync.Mutex
	events := []Event{}
	disconnects := 0
	s := New(
		func(ctx context.Context, ev Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		},
		func() { disconnects++ },
		nil,
	)
	return s, &events, &disconnects
}

// S7: a JSON payload is logged and dropped, never treated as a decode
// failure that would terminate the stream.
func TestHandleFrame_JSONPayloadIsDroppedNotErrored(t *testing.T) {
	s, events, _ := newTestServer()
	payload, err := json.Marshal(map[string]string{"not": "gpb"})
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}

	var unexpected []string
	if err := s.handleFrame(context.Background(), payload, &unexpected); err != nil {
		t.Fatalf("expected no error for a JSON payload, got %v", err)
	}
	if len(*events) != 0 {
		t.Fatalf("expected no events from a JSON payload")
	}
}

func TestHandleFrame_UnknownPathIgnored(t *testing.T) {
	s, events, _ := newTestServer()
	msg := gpb.Telemetry{EncodingPath: "Cisco-IOS-XR-something-else:unrelated"}
	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var unexpected []string
	if err := s.handleFrame(context.Background(), data, &unexpected); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*events) != 0 {
		t.Fatalf("expected no events for an unrelated encoding path")
	}
	if len(unexpected) != 1 || unexpected[0] != msg.EncodingPath {
		t.Fatalf("expected the path to be remembered once, got %v", unexpected)
	}
}

func TestWarnUnexpectedPath_FIFOBounded(t *testing.T) {
	s, _, _ := newTestServer()
	var unexpected []string
	for i := 0; i < maxUnexpectedPaths+5; i++ {
		s.warnUnexpectedPath(strconv.Itoa(i), &unexpected)
	}
	if len(unexpected) != maxUnexpectedPaths {
		t.Fatalf("expected the unexpected-path list bounded at %d, got %d", maxUnexpectedPaths, len(unexpected))
	}
}

func TestHandleFrame_VRRPMessageEmitsEvent(t *testing.T) {
	s, events, _ := newTestServer()
	msg := gpb.Telemetry{
		EncodingPath: vrrpEncodingPath,
		DataGPBKV:    []gpb.TelemetryField{vrrpRecord("Hun0/0/0/1", 1, "state-master")},
	}
	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var unexpected []string
	if err := s.handleFrame(context.Background(), data, &unexpected); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(*events))
	}
}

// A malformed entry in data_gpbkv is logged and skipped; it never aborts
// processing of the remaining entries.
func TestHandleFrame_MalformedEntrySkippedNotFatal(t *testing.T) {
	s, events, _ := newTestServer()
	malformed := gpb.TelemetryField{Name: "broken"}
	good := vrrpRecord("Hun0/0/0/2", 2, "state-master")
	msg := gpb.Telemetry{
		EncodingPath: vrrpEncodingPath,
		DataGPBKV:    []gpb.TelemetryField{malformed, good},
	}
	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var unexpected []string
	if err := s.handleFrame(context.Background(), data, &unexpected); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*events) != 1 {
		t.Fatalf("expected the malformed entry to be skipped and the good one processed, got %d events", len(*events))
	}
}

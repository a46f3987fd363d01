// Package telemetry implements the gRPC MDT dialout receiver: the paired
// router connects out to this process and streams self-describing-gpb
// telemetry frames, from which VRRP state transitions are extracted and
// handed to a dispatcher callback.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"

	"github.com/ios-xr/xrd-ha-agent/internal/telemetry/dialoutpb"
	"github.com/ios-xr/xrd-ha-agent/internal/telemetry/gpb"
	"github.com/ios-xr/xrd-ha-agent/internal/vrrpstate"
)

// vrrpEncodingPath is the only telemetry subscription this receiver
// understands; anything else is logged once and dropped.
const vrrpEncodingPath = "Cisco-IOS-XR-ipv4-vrrp-oper:vrrp/ipv4/virtual-routers/virtual-router"

// maxUnexpectedPaths bounds the set of distinct unrecognised encoding paths
// remembered per connection, so an adversarial or misconfigured peer can't
// exhaust memory by varying the path on every frame.
const maxUnexpectedPaths = 10

// Event is a single observed VRRP state report, handed to OnEvent.
type Event struct {
	Session vrrpstate.Session
	State   vrrpstate.State
}

// Server owns the gRPC dialout listener. Only one peer connection is
// expected (the paired router); a second concurrent connection is rejected
// outright.
type Server struct {
	grpcServer *grpc.Server
	onEvent    func(ctx context.Context, ev Event)
	onDisconnect func()
	logger     *slog.Logger

	inFlight chan struct{} // capacity 1, acts as the single-connection guard
}

// New constructs a Server. onEvent is called for each extracted VRRP event;
// onDisconnect is called whenever the dialout stream ends, for any reason.
func New(onEvent func(ctx context.Context, ev Event), onDisconnect func(), logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		onEvent:      onEvent,
		onDisconnect: onDisconnect,
		logger:       logger,
		inFlight:     make(chan struct{}, 1),
	}
	s.grpcServer = grpc.NewServer(
		grpc.MaxConcurrentStreams(1),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    time.Second,
			Timeout: time.Second,
		}),
	)
	dialoutpb.RegisterGRPCMdtDialoutServer(s.grpcServer, s)
	return s
}

// Start begins listening on port and serving in a background goroutine.
// errCh receives the eventual Serve error (nil only after a graceful Stop).
func (s *Server) Start(port int) (<-chan error, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, fmt.Errorf("listening on port %d: %w", port, err)
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("telemetry dialout server listening", "port", port)
		errCh <- s.grpcServer.Serve(lis)
	}()
	return errCh, nil
}

// Stop gracefully stops the server, forcing a hard stop if grace elapses
// first.
func (s *Server) Stop(grace time.Duration) {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		s.grpcServer.Stop()
	}
}

// MdtDialout implements dialoutpb.GRPCMdtDialoutServer. Belt-and-braces
// single-connection enforcement: grpc.MaxConcurrentStreams(1) is a
// transport-level HTTP/2 setting, so a second dialed-in peer is additionally
// rejected here with a precise error.
func (s *Server) MdtDialout(stream dialoutpb.GRPCMdtDialout_MdtDialoutServer) error {
	select {
	case s.inFlight <- struct{}{}:
	default:
		return status.Error(codes.ResourceExhausted, "concurrent RPC limit exceeded")
	}
	defer func() { <-s.inFlight }()

	peer := peerAddr(stream.Context())
	s.logger.Info("connection established with gRPC peer", "peer", peer)

	unexpectedPaths := make([]string, 0, maxUnexpectedPaths)

	for {
		msg, err := stream.Recv()
		if err != nil {
			if s.onDisconnect != nil {
				s.onDisconnect()
			}
			if isEOF(err) {
				s.logger.Info("connection closed by gRPC peer", "peer", peer)
				return nil
			}
			s.logger.Info("connection lost with gRPC peer", "peer", peer, "error", err)
			return err
		}

		if err := s.handleFrame(stream.Context(), msg.Data, &unexpectedPaths); err != nil {
			s.logger.Error("unexpected exception handling frame from gRPC peer", "peer", peer, "error", err)
			if s.onDisconnect != nil {
				s.onDisconnect()
			}
			return err
		}
	}
}

func (s *Server) handleFrame(ctx context.Context, data []byte, unexpectedPaths *[]string) error {
	var msg gpb.Telemetry
	if err := msg.Unmarshal(data); err != nil {
		if json.Valid(data) {
			s.logger.Warn("ignoring message with JSON payload, only self-describing-gpb encoding is supported")
			return nil
		}
		return fmt.Errorf("decoding telemetry frame: %w", err)
	}

	if msg.EncodingPath != vrrpEncodingPath {
		s.warnUnexpectedPath(msg.EncodingPath, unexpectedPaths)
		return nil
	}

	if len(msg.DataGPBKV) == 0 {
		s.logger.Warn("ignoring telemetry message without gpbkv data", "path", msg.EncodingPath)
		return nil
	}

	s.handleVRRPMessage(ctx, msg.DataGPBKV)
	return nil
}

func (s *Server) warnUnexpectedPath(path string, unexpectedPaths *[]string) {
	for _, p := range *unexpectedPaths {
		if p == path {
			return
		}
	}
	s.logger.Warn("received unexpected telemetry message path, subsequent messages on it will be silently dropped",
		"path", path)
	if len(*unexpectedPaths) >= maxUnexpectedPaths {
		*unexpectedPaths = (*unexpectedPaths)[1:]
	}
	*unexpectedPaths = append(*unexpectedPaths, path)
}

func (s *Server) handleVRRPMessage(ctx context.Context, sessions []gpb.TelemetryField) {
	for _, entry := range sessions {
		event, err := extractVRRPEvent(entry)
		if err != nil {
			s.logger.Error("VRRP session data has unexpected structure", "error", err)
			continue
		}
		if s.onEvent != nil {
			s.onEvent(ctx, *event)
		}
	}
}

func extractVRRPEvent(entry gpb.TelemetryField) (*Event, error) {
	keys, ok := gpb.Get(entry.Fields, "keys")
	if !ok {
		return nil, fmt.Errorf("missing keys field")
	}
	content, ok := gpb.Get(entry.Fields, "content")
	if !ok {
		return nil, fmt.Errorf("missing content field")
	}

	ifaceField, ok := gpb.Get(keys.Fields, "interface-name")
	if !ok || ifaceField.ValueKind != gpb.ValueString {
		return nil, fmt.Errorf("missing or malformed interface-name")
	}
	vridField, ok := gpb.Get(keys.Fields, "virtual-router-id")
	if !ok || vridField.ValueKind != gpb.ValueUint32 {
		return nil, fmt.Errorf("missing or malformed virtual-router-id")
	}
	stateField, ok := gpb.Get(content.Fields, "vrrp-state")
	if !ok || stateField.ValueKind != gpb.ValueString {
		return nil, fmt.Errorf("missing or malformed vrrp-state")
	}

	state := vrrpstate.Inactive
	if stateField.StringValue == "state-master" {
		state = vrrpstate.Active
	}

	return &Event{
		Session: vrrpstate.Session{
			Interface: ifaceField.StringValue,
			VRID:      uint8(vridField.Uint32Value),
		},
		State: state,
	}, nil
}

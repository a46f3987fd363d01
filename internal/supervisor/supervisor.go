// Package supervisor wires the agent's components together and owns its
// start-up and shutdown sequence.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/ios-xr/xrd-ha-agent/internal/action"
	"github.com/ios-xr/xrd-ha-agent/internal/cloud"
	"github.com/ios-xr/xrd-ha-agent/internal/config"
	"github.com/ios-xr/xrd-ha-agent/internal/dispatch"
	"github.com/ios-xr/xrd-ha-agent/internal/reconcile"
	"github.com/ios-xr/xrd-ha-agent/internal/statusapi"
	"github.com/ios-xr/xrd-ha-agent/internal/telemetry"
	"github.com/ios-xr/xrd-ha-agent/internal/vrrpstate"
)

// telemetryStopGrace bounds how long Stop waits for GracefulStop before
// forcing the dialout connection closed.
const telemetryStopGrace = time.Second

// ErrInit wraps any failure encountered during start-up: bad config, a cloud
// client that could not be constructed, a group whose referenced resource
// does not exist, or a telemetry listener that could not bind its port.
var ErrInit = errors.New("supervisor initialisation failed")

// Supervisor owns the full set of the agent's components and their
// lifecycle: construction, the blocking run loop, and shutdown.
type Supervisor struct {
	cfg    config.Config
	logger *slog.Logger

	store      *vrrpstate.Store
	dispatcher *dispatch.Dispatcher
	reconciler *reconcile.Reconciler
	telemetry  *telemetry.Server
	statusSrv  *statusapi.Server
	counters   *statusapi.Counters
}

// New performs the ordered start-up sequence: load+validate config, build
// the cloud client, bind each group's action (validating the resources it
// references), initialise the session store, and construct the dispatcher,
// reconciler, and telemetry server. Any failure here is wrapped in ErrInit.
func New(ctx context.Context, configPath string, logger *slog.Logger) (*Supervisor, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: loading config: %v", ErrInit, err)
	}

	var cloudOpts []cloud.Option
	if cfg.Global.AWS.EC2PrivateEndpointURL != "" {
		cloudOpts = append(cloudOpts, cloud.WithEndpointURL(cfg.Global.AWS.EC2PrivateEndpointURL))
	}
	cloudClient, err := cloud.New(ctx, cloudOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: constructing cloud client: %v", ErrInit, err)
	}

	return newWithClient(ctx, cfg, cloudClient, logger)
}

// newWithClient performs the remainder of start-up given an already
// constructed cloud client, so tests can exercise it against a fake EC2 API
// without going through IMDSv2.
func newWithClient(ctx context.Context, cfg config.Config, cloudClient *cloud.Client, logger *slog.Logger) (*Supervisor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bindings, sessions, err := buildBindings(ctx, cfg.Groups, cloudClient)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}

	store := vrrpstate.New()
	store.Init(sessions)

	counters := &statusapi.Counters{}

	disp := dispatch.New(bindings, store, logger.With("component", "dispatch"))
	disp.SetMetricsHooks(
		func() { counters.GoActiveSubmitted.Add(1) },
		func() { counters.GoActiveFailed.Add(1) },
	)

	rec := reconcile.New(bindings, store, time.Duration(cfg.Global.ConsistencyCheckIntervalSeconds)*time.Second,
		logger.With("component", "reconcile"))
	rec.SetMetricsHooks(
		func() { counters.ReconcileRuns.Add(1) },
		func() { counters.ReconcileErrors.Add(1) },
	)

	onEvent := func(ctx context.Context, ev telemetry.Event) {
		disp.HandleEvent(ctx, dispatch.Event{Session: ev.Session, State: ev.State})
	}
	onDisconnect := func() {
		counters.TelemetryDisconnects.Add(1)
		disp.Disconnect()
	}
	telSrv := telemetry.New(onEvent, onDisconnect, logger.With("component", "telemetry"))

	s := &Supervisor{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		dispatcher: disp,
		reconciler: rec,
		telemetry:  telSrv,
		counters:   counters,
	}

	if cfg.Global.StatusAddr != "" {
		s.statusSrv = statusapi.New(cfg.Global.StatusAddr, store, counters, logger.With("component", "statusapi"))
	}

	if _, err := telSrv.Start(cfg.Global.Port); err != nil {
		return nil, fmt.Errorf("%w: starting telemetry server: %v", ErrInit, err)
	}

	if s.statusSrv != nil {
		if err := s.statusSrv.Start(); err != nil {
			return nil, fmt.Errorf("%w: starting status API: %v", ErrInit, err)
		}
	}

	return s, nil
}

// Run blocks on the reconciliation loop until ctx is cancelled or the
// reconciler returns a non-context error.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("ha-agent starting",
		"port", s.cfg.Global.Port,
		"groups", len(s.cfg.Groups),
		"reconcile_interval_seconds", s.cfg.Global.ConsistencyCheckIntervalSeconds,
	)
	err := s.reconciler.Run(ctx)
	s.Shutdown()
	return err
}

// Shutdown releases every resource started by New: it stops accepting new
// go-active work (in-flight actions finish, queued-but-unstarted ones are
// dropped), stops the telemetry listener, and stops the optional status API.
func (s *Supervisor) Shutdown() {
	s.logger.Info("ha-agent shutting down")
	s.dispatcher.Close()
	s.telemetry.Stop(telemetryStopGrace)
	if s.statusSrv != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.statusSrv.Stop(stopCtx); err != nil {
			s.logger.Warn("status API shutdown error", "error", err)
		}
	}
}

// buildBindings constructs one action.Binding per group, validating every
// resource it references against the cloud client (ENI existence, route
// table existence). Returns the bindings map and the full set of sessions to
// initialise in the state store.
func buildBindings(ctx context.Context, groups []config.Group, client *cloud.Client) (map[vrrpstate.Session]action.Binding, []vrrpstate.Session, error) {
	bindings := make(map[vrrpstate.Session]action.Binding, len(groups))
	sessions := make([]vrrpstate.Session, 0, len(groups))

	for _, g := range groups {
		sess := vrrpstate.Session{Interface: g.XRInterface, VRID: uint8(g.VRID)}

		binding, err := bindAction(ctx, g.Action, client)
		if err != nil {
			return nil, nil, fmt.Errorf("group %s/%d: %w", g.XRInterface, g.VRID, err)
		}

		bindings[sess] = binding
		sessions = append(sessions, sess)
	}

	return bindings, sessions, nil
}

func bindAction(ctx context.Context, a config.Action, client *cloud.Client) (action.Binding, error) {
	switch a.Type {
	case config.ActionAssignVIP:
		vip, err := netip.ParseAddr(a.VIP)
		if err != nil {
			return nil, fmt.Errorf("invalid vip %q: %w", a.VIP, err)
		}
		deviceIndex := int32(*a.DeviceIndex)
		if _, err := client.LookupENIByIndex(deviceIndex); err != nil {
			return nil, err
		}
		return &action.AssignVIP{Client: client, DeviceIndex: deviceIndex, VIP: vip}, nil

	case config.ActionUpdateRouteTable:
		dest, err := netip.ParsePrefix(a.Destination)
		if err != nil {
			return nil, fmt.Errorf("invalid destination %q: %w", a.Destination, err)
		}
		if err := client.LookupRouteTable(ctx, a.RouteTableID); err != nil {
			return nil, err
		}
		if err := client.LookupENI(ctx, a.TargetNetworkInterface); err != nil {
			return nil, err
		}
		return &action.UpdateRouteTable{
			Client:       client,
			RouteTableID: a.RouteTableID,
			Destination:  dest,
			TargetENI:    a.TargetNetworkInterface,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported action type: %s", a.Type)
	}
}

// Package dispatch implements the edge-triggered state machine that maps
// VRRP events onto bounded, parallel cloud-action execution.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/ios-xr/xrd-ha-agent/internal/action"
	"github.com/ios-xr/xrd-ha-agent/internal/vrrpstate"
)

// poolSize is the number of go-active actions that may run concurrently.
const poolSize = 8

// Event is a single observed VRRP state report for a session.
type Event struct {
	Session vrrpstate.Session
	State   vrrpstate.State
}

// Dispatcher routes INACTIVE->ACTIVE edges to their bound action, running
// each go-active action on a fixed-size worker pool so that a slow cloud
// call for one session never blocks another.
type Dispatcher struct {
	bindings map[vrrpstate.Session]action.Binding
	store    *vrrpstate.Store
	pool     *workerPool
	logger   *slog.Logger

	onSubmitted func()
	onFailed    func()
}

// SetMetricsHooks wires optional counters for submitted and failed go-active
// actions. Either argument may be nil. Must be called before HandleEvent is
// first invoked from another goroutine.
func (d *Dispatcher) SetMetricsHooks(onSubmitted, onFailed func()) {
	d.onSubmitted = onSubmitted
	d.onFailed = onFailed
}

// New constructs a Dispatcher over the given session-to-action bindings and
// state store. The worker pool is started immediately and must be stopped
// with Close.
func New(bindings map[vrrpstate.Session]action.Binding, store *vrrpstate.Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		bindings: bindings,
		store:    store,
		pool:     newWorkerPool(poolSize, logger),
		logger:   logger,
	}
}

// HandleEvent implements the rule order spec'd for the dispatch plane: an
// event for an unknown session is logged and dropped; otherwise the new
// state is written unconditionally, and an INACTIVE->ACTIVE edge submits the
// session's bound action for execution.
//
// The state write happens before the action is submitted, so a go-active
// action that later fails still leaves the session marked ACTIVE — the next
// edge or reconciliation cycle will retry it. This optimistic behaviour is
// intentional.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev Event) {
	binding, ok := d.bindings[ev.Session]
	if !ok {
		d.logger.Debug("event for unbound session, ignoring", "session", ev.Session)
		return
	}

	prev, _ := d.store.Get(ev.Session)
	d.store.Set(ev.Session, ev.State)

	if prev == vrrpstate.Inactive && ev.State == vrrpstate.Active {
		d.submitGoActive(ctx, ev.Session, binding)
	}
}

func (d *Dispatcher) submitGoActive(ctx context.Context, sess vrrpstate.Session, binding action.Binding) {
	task := func() {
		if err := binding.Apply(ctx, false); err != nil {
			d.logger.Error("go-active action failed, session remains ACTIVE for retry",
				"session", sess, "action", binding.String(), "error", err)
			if d.onFailed != nil {
				d.onFailed()
			}
		}
	}
	if d.onSubmitted != nil {
		d.onSubmitted()
	}
	d.pool.submit(task, sess)
}

// Disconnect resets every bound session to INACTIVE, invoked when the
// telemetry stream to the router is lost.
func (d *Dispatcher) Disconnect() {
	d.store.ResetAll()
}

// Close stops accepting new work and waits for in-flight actions to finish.
// Queued-but-not-started tasks are dropped.
func (d *Dispatcher) Close() {
	d.pool.close()
}

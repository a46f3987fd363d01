// Package reconcile periodically re-applies bound actions in precheck mode
// against every currently-active session, so that externally-induced drift
// converges back to the intended state.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/ios-xr/xrd-ha-agent/internal/action"
	"github.com/ios-xr/xrd-ha-agent/internal/vrrpstate"
)

// minSleep is the floor applied to the inter-interval sleep, so that a slow
// reconciliation pass never causes back-to-back runs with no pause at all.
const minSleep = time.Second

// Reconciler drives one periodic re-application pass over every ACTIVE
// session.
type Reconciler struct {
	bindings map[vrrpstate.Session]action.Binding
	store    *vrrpstate.Store
	interval time.Duration
	logger   *slog.Logger
	sleepFn  func(context.Context, time.Duration) error

	onRun   func()
	onError func()
}

// SetMetricsHooks wires optional counters for completed passes and
// per-session action errors. Either argument may be nil. Must be called
// before Run is first invoked from another goroutine.
func (r *Reconciler) SetMetricsHooks(onRun, onError func()) {
	r.onRun = onRun
	r.onError = onError
}

// New constructs a Reconciler. interval is the nominal time between
// reconciliation passes.
func New(bindings map[vrrpstate.Session]action.Binding, store *vrrpstate.Store, interval time.Duration, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		bindings: bindings,
		store:    store,
		interval: interval,
		logger:   logger,
		sleepFn: func(ctx context.Context, d time.Duration) error {
			select {
			case <-time.After(d):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// Run loops until ctx is cancelled, sleeping interval (minus the time since
// the last pass, floored at minSleep) and only then performing a pass — the
// first pass happens after the first sleep, never at t=0. A single
// session's action failure is logged and does not interrupt the loop or
// the rest of the pass.
func (r *Reconciler) Run(ctx context.Context) error {
	lastCheck := time.Now()
	for {
		sleepTime := r.interval - time.Since(lastCheck)
		if sleepTime < minSleep {
			sleepTime = minSleep
		}
		if err := r.sleepFn(ctx, sleepTime); err != nil {
			return err
		}

		lastCheck = time.Now()
		r.runOnce(ctx)
	}
}

func (r *Reconciler) runOnce(ctx context.Context) {
	if r.onRun != nil {
		r.onRun()
	}
	for _, sess := range r.store.Snapshot() {
		state, ok := r.store.Get(sess)
		if !ok || state != vrrpstate.Active {
			continue
		}
		binding, ok := r.bindings[sess]
		if !ok {
			continue
		}
		if err := binding.Apply(ctx, true); err != nil {
			r.logger.Error("reconciliation action failed, will retry next cycle",
				"session", sess, "action", binding.String(), "error", err)
			if r.onError != nil {
				r.onError()
			}
		}
	}
}

// Package action defines the tagged set of cloud mutations a VRRP session is
// bound to, and the single operation ("apply, optionally prechecked") common
// to all of them.
package action

import "context"

// Binding is a cloud action bound to a single VRRP session at start-up. A
// Binding is immutable and safe for concurrent use by the dispatcher and the
// reconciler.
type Binding interface {
	// Apply executes the bound action. When precheck is true, the action
	// first checks whether the desired state already holds and, if so,
	// returns nil without mutating anything.
	Apply(ctx context.Context, precheck bool) error

	// String returns a short human-readable description for logging.
	String() string
}

package statusapi

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Counters tracks the small set of operational counters the status API
// exposes. All fields are safe for concurrent use from the dispatcher and
// reconciler goroutines.
type Counters struct {
	GoActiveSubmitted   atomic.Int64
	GoActiveFailed       atomic.Int64
	ReconcileRuns        atomic.Int64
	ReconcileErrors      atomic.Int64
	TelemetryDisconnects atomic.Int64
}

// MetricsText renders the counters as Prometheus text exposition format.
func (c *Counters) MetricsText() string {
	var b strings.Builder
	writeMetric(&b, "ha_agent_go_active_submitted_total", "Total go-active actions submitted.", c.GoActiveSubmitted.Load())
	writeMetric(&b, "ha_agent_go_active_failed_total", "Total go-active actions that returned an error.", c.GoActiveFailed.Load())
	writeMetric(&b, "ha_agent_reconcile_runs_total", "Total reconciliation passes completed.", c.ReconcileRuns.Load())
	writeMetric(&b, "ha_agent_reconcile_errors_total", "Total per-session errors observed during reconciliation.", c.ReconcileErrors.Load())
	writeMetric(&b, "ha_agent_telemetry_disconnects_total", "Total times the telemetry stream was lost or closed.", c.TelemetryDisconnects.Load())
	return b.String()
}

func writeMetric(b *strings.Builder, name, help string, value int64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s counter\n", name)
	fmt.Fprintf(b, "%s %d\n", name, value)
}

var _ MetricsProvider = (*Counters)(nil)

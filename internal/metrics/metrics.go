package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geogate_decisions_total",
		Help: "Total number of access decisions evaluated, by reason",
	}, []string{"reason"})
	blockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geogate_blocked_total",
		Help: "Total number of requests blocked by the access engine",
	})
	auditWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geogate_audit_write_failures_total",
		Help: "Total number of audit entries that failed to persist",
	})
	artifactFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geogate_artifact_failures_total",
		Help: "Total number of block-page screenshot captures that failed",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(decisionsTotal, blockedTotal, auditWriteFailures, artifactFailures)
}

// IncDecision increments the evaluated decisions counter for a reason code.
func IncDecision(reason string, allowed bool) {
	decisionsTotal.WithLabelValues(reason).Inc()
	if !allowed {
		blockedTotal.Inc()
	}
}

// IncAuditWriteFailure increments the failed audit write counter.
func IncAuditWriteFailure() { auditWriteFailures.Inc() }

// IncArtifactFailure increments the failed screenshot capture counter.
func IncArtifactFailure() { artifactFailures.Inc() }

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics. Registered on the default registerer at init so every
// binary that imports this package exposes the same series.
var (
	// VendorAttempts counts vendor calls by capability and vendor.
	VendorAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argus_vendor_attempts_total",
		Help: "Vendor fetch attempts by capability and vendor",
	}, []string{"capability", "vendor"})

	// VendorFailures counts failed vendor calls by capability and vendor.
	VendorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argus_vendor_failures_total",
		Help: "Vendor fetch failures by capability and vendor",
	}, []string{"capability", "vendor"})

	// VendorFallbacks counts how often a capability succeeded on a
	// non-primary vendor.
	VendorFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argus_vendor_fallbacks_total",
		Help: "Capability fetches served by a non-primary vendor",
	}, []string{"capability"})

	// ProviderRetries counts LLM call retries by provider.
	ProviderRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argus_provider_retries_total",
		Help: "LLM provider call retries by provider",
	}, []string{"provider"})

	// PhaseDuration observes wall time spent per workflow phase.
	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "argus_phase_duration_seconds",
		Help:    "Workflow phase duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"phase"})

	// RunsCompleted counts runs by terminal status.
	RunsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argus_runs_completed_total",
		Help: "Completed runs by terminal status",
	}, []string{"status"})
)

package health

import (
	"time"
)

// Classification is the three-tier-plus-unknown health verdict derived from
// combining independent probe results.
type Classification string

const (
	ClassHealthy   Classification = "healthy"
	ClassDegraded  Classification = "degraded"
	ClassUnhealthy Classification = "unhealthy"
	ClassUnknown   Classification = "unknown"
)

// ExitCode maps a classification to the process exit code contract:
// 0 healthy, 1 degraded, 2 unhealthy, 3 unknown.
func (c Classification) ExitCode() int {
	switch c {
	case ClassHealthy:
		return 0
	case ClassDegraded:
		return 1
	case ClassUnhealthy:
		return 2
	default:
		return 3
	}
}

// Probe names reported by the checker.
const (
	ProbeHealthEndpoint = "health_endpoint"
	ProbeRootEndpoint   = "root_endpoint"
	ProbeTLSCertificate = "https_certificate"
)

// ProbeResult records the outcome of one probe after retries.
type ProbeResult struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Attempts   int    `json:"attempts"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Report is the full result of one status check run.
type Report struct {
	TargetURL string         `json:"target_url"`
	CheckedAt time.Time      `json:"checked_at"`
	Class     Classification `json:"classification"`
	Service   string         `json:"service,omitempty"`
	Version   string         `json:"version,omitempty"`
	Probes    []ProbeResult  `json:"probes"`
}

// Probe returns the named probe result when present.
func (r Report) Probe(name string) (ProbeResult, bool) {
	for i := range r.Probes {
		if r.Probes[i].Name == name {
			return r.Probes[i], true
		}
	}
	return ProbeResult{}, false
}

// Classify combines the three probe outcomes. The health endpoint dominates:
// its failure means unhealthy regardless of the rest. A passing health
// endpoint with a failing root or certificate probe is degraded.
func Classify(health, root, cert ProbeResult) Classification {
	if !health.OK {
		return ClassUnhealthy
	}
	if !root.OK || !cert.OK {
		return ClassDegraded
	}
	return ClassHealthy
}

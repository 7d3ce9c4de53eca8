package api

import (
	"net/http"
	"strings"
)

// healthCheckAgents are user-agent fragments of the load-balancer and
// orchestrator probes that hit GET / instead of a dedicated health endpoint.
var healthCheckAgents = []string{
	"GoogleHC",
	"kube-probe",
	"ELB-HealthChecker",
	"HealthCheck",
	"UptimeRobot",
}

// isHealthCheck reports whether the request is a health probe, by user agent
// or by explicit header.
func isHealthCheck(r *http.Request) bool {
	if r.Header.Get("X-Health-Check") != "" {
		return true
	}
	ua := r.UserAgent()
	for _, agent := range healthCheckAgents {
		if strings.Contains(ua, agent) {
			return true
		}
	}
	return false
}

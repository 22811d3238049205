package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsAreRegistered(t *testing.T) {
	for name, c := range map[string]prometheus.Collector{
		"http_requests_total":        HTTPRequestsTotal,
		"http_request_duration":      HTTPRequestDuration,
		"profiles_resolved_total":    ProfilesResolvedTotal,
		"guard_decisions_total":      GuardDecisionsTotal,
		"stale_results_dropped":      StaleResultsDroppedTotal,
		"profile_stream_subscribers": ProfileSubscribers,
		"membership_actions_total":   MembershipActionsTotal,
	} {
		if err := prometheus.Register(c); err == nil {
			t.Errorf("%s was not registered with the default registry", name)
			prometheus.Unregister(c)
		}
	}
}

func TestGuardDecisionsCounter(t *testing.T) {
	c := GuardDecisionsTotal.WithLabelValues("PENDING", "redirect")
	before := testutil.ToFloat64(c)
	c.Inc()
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}

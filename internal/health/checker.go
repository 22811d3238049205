// Package health reports readiness of the service's dependencies to /healthz and to the
// standard gRPC health service.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger checks database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks that the policy engine can evaluate (e.g. the OPA evaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Status values in a Report.
const (
	StatusOK   = "ok"
	StatusFail = "fail"
)

// Report is the outcome of one readiness check.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Ready reports whether every dependency passed.
func (r Report) Ready() bool { return r.Status == StatusOK }

// Checker runs the readiness checks. Nil dependencies are skipped.
type Checker struct {
	pinger  Pinger
	policy  PolicyChecker
	timeout time.Duration
}

// NewChecker returns a checker. pinger and policy may be nil.
func NewChecker(pinger Pinger, policy PolicyChecker) *Checker {
	return &Checker{pinger: pinger, policy: policy, timeout: 2 * time.Second}
}

// Check runs all checks and returns the report.
func (c *Checker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	r := Report{Status: StatusOK, Checks: map[string]string{}}
	record := func(name string, err error) {
		if err != nil {
			zap.L().Warn("health: check failed", zap.String("check", name), zap.Error(err))
			r.Status = StatusFail
			r.Checks[name] = StatusFail
			return
		}
		r.Checks[name] = StatusOK
	}
	if c.pinger != nil {
		record("database", c.pinger.PingContext(ctx))
	}
	if c.policy != nil {
		record("policy", c.policy.HealthCheck(ctx))
	}
	return r
}

// Watch runs Check every interval until ctx is done and publishes the result for service (and
// the overall "" service) on hs.
func (c *Checker) Watch(ctx context.Context, hs *health.Server, service string, interval time.Duration) {
	publish := func() {
		st := healthpb.HealthCheckResponse_SERVING
		if !c.Check(ctx).Ready() {
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(service, st)
	}
	publish()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish()
		}
	}
}

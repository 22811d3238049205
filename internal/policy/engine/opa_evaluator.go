package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"go.uber.org/zap"

	"farmgate/backend/internal/policy/repository"
)

const membershipQuery = "data.farmgate.membership.allow"

// Default membership administration policy. Org policies stored in the policies table replace it.
const defaultRegoPolicy = `package farmgate.membership

default allow := false

admin_roles := {"owner", "admin", "manager"}

allow if {
	input.actor.status == "ACTIVE"
	input.actor.mode == "MANAGEMENT"
	lower(input.actor.role) in admin_roles
	input.actor.org_id == input.org_id
	input.actor.user_id != input.target.user_id
}

allow if {
	input.action == "list_pending"
	input.actor.status == "ACTIVE"
	input.actor.mode == "MANAGEMENT"
	lower(input.actor.role) in admin_roles
	input.actor.org_id == input.org_id
}
`

// OPAEvaluator evaluates membership administration policies using OPA Rego.
type OPAEvaluator struct {
	policyRepo repository.Repository
	fallback   rego.PreparedEvalQuery
}

var _ Evaluator = (*OPAEvaluator)(nil)

// NewOPAEvaluator compiles the default policy and returns an evaluator. policyRepo may be nil,
// in which case only the default policy is used.
func NewOPAEvaluator(ctx context.Context, policyRepo repository.Repository) (*OPAEvaluator, error) {
	prepared, err := prepare(ctx, []string{defaultRegoPolicy})
	if err != nil {
		return nil, fmt.Errorf("prepare default policy: %w", err)
	}
	return &OPAEvaluator{policyRepo: policyRepo, fallback: prepared}, nil
}

// HealthCheck verifies that the default policy still evaluates. Does not touch the database.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := evalAllow(ctx, e.fallback, map[string]any{
		"action": string(ActionListPending),
		"org_id": "",
		"actor":  map[string]any{},
		"target": map[string]any{},
	})
	return err
}

// AuthorizeMembership evaluates the org's enabled policies, or the default policy when the org has
// none or they fail to compile. Evaluation errors deny.
func (e *OPAEvaluator) AuthorizeMembership(ctx context.Context, req Request) (bool, error) {
	if req.Actor == nil {
		return false, nil
	}
	input := buildInput(req)
	query := e.fallback
	if e.policyRepo != nil {
		if q, ok := e.orgQuery(ctx, req.Actor.OrgID); ok {
			query = q
		}
	}
	allowed, err := evalAllow(ctx, query, input)
	if err != nil {
		return false, fmt.Errorf("evaluate membership policy: %w", err)
	}
	return allowed, nil
}

func (e *OPAEvaluator) orgQuery(ctx context.Context, orgID string) (rego.PreparedEvalQuery, bool) {
	policies, err := e.policyRepo.GetEnabledPoliciesByOrg(ctx, orgID)
	if err != nil {
		zap.L().Warn("policy: failed to load org policies", zap.String("org_id", orgID), zap.Error(err))
		return rego.PreparedEvalQuery{}, false
	}
	var modules []string
	for _, p := range policies {
		if p.Enabled && strings.TrimSpace(p.Rules) != "" {
			modules = append(modules, p.Rules)
		}
	}
	if len(modules) == 0 {
		return rego.PreparedEvalQuery{}, false
	}
	q, err := prepare(ctx, modules)
	if err != nil {
		zap.L().Warn("policy: org policy rejected, using default", zap.String("org_id", orgID), zap.Error(err))
		return rego.PreparedEvalQuery{}, false
	}
	return q, true
}

func prepare(ctx context.Context, policies []string) (rego.PreparedEvalQuery, error) {
	modules := make(map[string]string, len(policies))
	for i, p := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = p
	}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("compile policies: %w", err)
	}
	return rego.New(rego.Query(membershipQuery), rego.Compiler(compiler)).PrepareForEval(ctx)
}

func evalAllow(ctx context.Context, q rego.PreparedEvalQuery, input map[string]any) (bool, error) {
	rs, err := q.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, err
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, _ := rs[0].Expressions[0].Value.(bool)
	return allowed, nil
}

func buildInput(req Request) map[string]any {
	actor := map[string]any{
		"user_id": req.Actor.UserID,
		"org_id":  req.Actor.OrgID,
		"status":  string(req.Actor.Status),
		"role":    req.Actor.Role,
		"mode":    string(req.Actor.ActiveMode),
	}
	target := map[string]any{}
	orgID := req.Actor.OrgID
	if req.Target != nil {
		target = map[string]any{
			"user_id": req.Target.UserID,
			"org_id":  req.Target.OrgID,
			"status":  string(req.Target.Status),
			"role":    req.Target.Role,
		}
		orgID = req.Target.OrgID
	}
	return map[string]any{
		"action": string(req.Action),
		"org_id": orgID,
		"actor":  actor,
		"target": target,
	}
}

package membership

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"farmgate/backend/internal/membership/domain"
	"farmgate/backend/internal/membership/repository"
	orgdomain "farmgate/backend/internal/organization/domain"
	"farmgate/backend/internal/platform/rbac"
	"farmgate/backend/internal/policy/engine"
	"farmgate/backend/internal/telemetry/metrics"
)

// ActionError is a mutation failure shown to the user as a notification. It never changes
// the navigation profile.
type ActionError struct {
	Code    string
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *ActionError) Unwrap() error { return e.Err }

// Action error codes.
const (
	CodeOrgUnavailable = "org_unavailable"
	CodeAlreadyMember  = "already_member"
	CodeNoMembership   = "no_membership"
	CodeNotActive      = "not_active"
	CodeInvalidMode    = "invalid_mode"
	CodeForbidden      = "forbidden"
	CodeInvalidState   = "invalid_state"
)

func actionError(code, msg string, err error) *ActionError {
	return &ActionError{Code: code, Message: msg, Err: err}
}

// OrgGetter looks up organizations. Returns (nil, nil) when not found.
type OrgGetter interface {
	GetOrganizationByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// ChangeNotifier is told about every committed membership change so subscribed sessions re-render.
type ChangeNotifier interface {
	MembershipChanged(ctx context.Context, userID string)
}

// Service mutates memberships on behalf of users and administrators.
type Service struct {
	repo      repository.Repository
	orgs      OrgGetter
	evaluator engine.Evaluator
	notifier  ChangeNotifier
}

// NewService returns a membership administration service. notifier may be nil.
func NewService(repo repository.Repository, orgs OrgGetter, evaluator engine.Evaluator, notifier ChangeNotifier) *Service {
	return &Service{repo: repo, orgs: orgs, evaluator: evaluator, notifier: notifier}
}

// SetNotifier replaces the change notifier. Used at wiring time to break the constructor cycle
// with the navigator.
func (s *Service) SetNotifier(n ChangeNotifier) { s.notifier = n }

// Join files a request for userID to join orgID. A previously rejected user may reapply.
func (s *Service) Join(ctx context.Context, userID, orgID string) (m *domain.Membership, err error) {
	defer observe("join", &err)
	org, err := s.orgs.GetOrganizationByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if !org.AcceptsMembers() {
		return nil, actionError(CodeOrgUnavailable, "organization not found or not accepting members", nil)
	}
	m = &domain.Membership{UserID: userID, OrgID: orgID, OrgName: org.Name, Role: domain.JoinRole}
	if err := s.repo.CreateRequest(ctx, m); err != nil {
		if errors.Is(err, repository.ErrAlreadyMember) {
			return nil, actionError(CodeAlreadyMember, "you already belong to or requested an organization", err)
		}
		return nil, err
	}
	s.changed(ctx, userID)
	return m, nil
}

// SwitchMode changes the active mode of the user's ACTIVE membership.
func (s *Service) SwitchMode(ctx context.Context, userID string, mode domain.Mode) (m *domain.Membership, err error) {
	defer observe("switch_mode", &err)
	parsed, perr := domain.ParseMode(string(mode))
	if perr != nil || parsed == "" {
		return nil, actionError(CodeInvalidMode, "mode must be OFFICER or MANAGEMENT", perr)
	}
	if _, err := s.requireActive(ctx, userID); err != nil {
		return nil, err
	}
	m, err = s.repo.UpdateActiveMode(ctx, userID, parsed)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, actionError(CodeNoMembership, "membership disappeared", nil)
	}
	s.changed(ctx, userID)
	return m, nil
}

// Approve activates targetUserID's PENDING request.
func (s *Service) Approve(ctx context.Context, actorID, targetUserID string) (m *domain.Membership, err error) {
	defer observe("approve", &err)
	return s.decide(ctx, engine.ActionApprove, actorID, targetUserID, domain.StatusActive, domain.StatusPending)
}

// Reject rejects a PENDING request or revokes an ACTIVE membership.
func (s *Service) Reject(ctx context.Context, actorID, targetUserID string) (m *domain.Membership, err error) {
	defer observe("reject", &err)
	return s.decide(ctx, engine.ActionReject, actorID, targetUserID, domain.StatusRejected, domain.StatusPending, domain.StatusActive)
}

// ListPending lists the PENDING requests of the actor's organization.
func (s *Service) ListPending(ctx context.Context, actorID string) (list []*domain.Membership, err error) {
	defer observe("list_pending", &err)
	actor, err := s.requireActive(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, engine.Request{Action: engine.ActionListPending, Actor: actor}); err != nil {
		return nil, err
	}
	return s.repo.ListPendingByOrg(ctx, actor.OrgID)
}

func (s *Service) decide(ctx context.Context, action engine.Action, actorID, targetUserID string, to domain.Status, from ...domain.Status) (*domain.Membership, error) {
	actor, err := s.requireActive(ctx, actorID)
	if err != nil {
		return nil, err
	}
	target, err := s.repo.GetMembershipByUser(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("load target membership: %w", err)
	}
	if target == nil || target.OrgID != actor.OrgID {
		// Memberships of other organizations are reported as missing.
		return nil, actionError(CodeNoMembership, "no such membership request", nil)
	}
	if err := s.authorize(ctx, engine.Request{Action: action, Actor: actor, Target: target}); err != nil {
		return nil, err
	}
	allowed := false
	for _, st := range from {
		if target.Status == st {
			allowed = true
		}
	}
	if !allowed {
		return nil, actionError(CodeInvalidState, fmt.Sprintf("cannot %s a %s membership", action, target.Status), nil)
	}
	m, err := s.repo.UpdateStatus(ctx, targetUserID, to)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, actionError(CodeNoMembership, "no such membership request", nil)
	}
	zap.L().Info("membership decided",
		zap.String("action", string(action)),
		zap.String("actor_id", actorID),
		zap.String("target_user_id", targetUserID),
		zap.String("org_id", m.OrgID),
		zap.String("status", string(m.Status)))
	s.changed(ctx, targetUserID)
	return m, nil
}

func (s *Service) requireActive(ctx context.Context, userID string) (*domain.Membership, error) {
	m, err := rbac.RequireActiveMember(ctx, s.repo, userID)
	switch {
	case errors.Is(err, rbac.ErrNoMembership):
		return nil, actionError(CodeNoMembership, "you are not a member of an organization", err)
	case errors.Is(err, rbac.ErrNotActive):
		return nil, actionError(CodeNotActive, "your membership is not active", err)
	case err != nil:
		return nil, err
	}
	return m, nil
}

func (s *Service) authorize(ctx context.Context, req engine.Request) error {
	ok, err := s.evaluator.AuthorizeMembership(ctx, req)
	if err != nil {
		return err
	}
	if !ok {
		return actionError(CodeForbidden, "you are not allowed to manage memberships", nil)
	}
	return nil
}

func (s *Service) changed(ctx context.Context, userID string) {
	if s.notifier != nil {
		s.notifier.MembershipChanged(ctx, userID)
	}
}

func observe(action string, err *error) {
	result := "ok"
	var ae *ActionError
	switch {
	case errors.As(*err, &ae):
		result = ae.Code
	case *err != nil:
		result = "error"
	}
	metrics.MembershipActionsTotal.WithLabelValues(action, result).Inc()
}

package engine

import (
	"context"

	membershipdomain "farmgate/backend/internal/membership/domain"
)

// Action is a membership administration action subject to policy.
type Action string

const (
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionListPending Action = "list_pending"
)

// Request is the input of a membership administration decision. Target is nil for
// org-wide actions such as listing pending requests.
type Request struct {
	Action Action
	Actor  *membershipdomain.Membership
	Target *membershipdomain.Membership
}

// Evaluator decides whether an actor may perform a membership administration action.
type Evaluator interface {
	AuthorizeMembership(ctx context.Context, req Request) (bool, error)
}

package repository

import (
	"context"
	"errors"

	"farmgate/backend/internal/membership/domain"
)

// ErrAlreadyMember is returned by CreateRequest when the user already holds a non-rejected membership.
var ErrAlreadyMember = errors.New("membership already exists")

// Repository defines persistence for memberships. A user holds at most one membership.
type Repository interface {
	GetMembershipByUser(ctx context.Context, userID string) (*domain.Membership, error)
	CreateRequest(ctx context.Context, m *domain.Membership) error
	UpdateStatus(ctx context.Context, userID string, status domain.Status) (*domain.Membership, error)
	UpdateActiveMode(ctx context.Context, userID string, mode domain.Mode) (*domain.Membership, error)
	ListPendingByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error)
}

// Package rbac holds the membership preconditions shared by mutation paths.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"farmgate/backend/internal/membership/domain"
)

var (
	// ErrNoMembership is returned when the user has no membership record.
	ErrNoMembership = errors.New("no membership")
	// ErrNotActive is returned when the user's membership exists but is not ACTIVE.
	ErrNotActive = errors.New("membership not active")
)

// MembershipGetter returns a user's membership, or nil if the user has none.
type MembershipGetter interface {
	GetMembershipByUser(ctx context.Context, userID string) (*domain.Membership, error)
}

// RequireActiveMember returns the user's membership when it is ACTIVE. It returns ErrNoMembership
// or ErrNotActive otherwise, and a wrapped lookup error on storage failure.
func RequireActiveMember(ctx context.Context, getter MembershipGetter, userID string) (*domain.Membership, error) {
	if userID == "" {
		return nil, ErrNoMembership
	}
	m, err := getter.GetMembershipByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve membership: %w", err)
	}
	if m == nil {
		return nil, ErrNoMembership
	}
	if !m.IsActive() {
		return m, ErrNotActive
	}
	return m, nil
}

// Package membership provides the membership source consumed by navigation and the
// administration service that mutates memberships.
package membership

import (
	"context"
	"fmt"

	"farmgate/backend/internal/membership/domain"
	"farmgate/backend/internal/membership/repository"
)

// FetchError reports that the membership could not be fetched. Navigation treats it as a
// transient state to retry, never as PENDING or GRANTED.
type FetchError struct {
	UserID string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch membership for %s: %v", e.UserID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Source is the membership collaborator consumed by navigation. Both methods return
// (nil, nil) for a user without a membership.
type Source interface {
	GetMyMembership(ctx context.Context, userID string) (*domain.Membership, error)
	// Refetch returns the freshest value, bypassing any caching.
	Refetch(ctx context.Context, userID string) (*domain.Membership, error)
}

// RepositorySource reads memberships straight from the repository.
type RepositorySource struct {
	repo repository.Repository
}

var _ Source = (*RepositorySource)(nil)

// NewRepositorySource returns a Source backed by repo.
func NewRepositorySource(repo repository.Repository) *RepositorySource {
	return &RepositorySource{repo: repo}
}

func (s *RepositorySource) GetMyMembership(ctx context.Context, userID string) (*domain.Membership, error) {
	m, err := s.repo.GetMembershipByUser(ctx, userID)
	if err != nil {
		return nil, &FetchError{UserID: userID, Err: err}
	}
	return m, nil
}

func (s *RepositorySource) Refetch(ctx context.Context, userID string) (*domain.Membership, error) {
	return s.GetMyMembership(ctx, userID)
}

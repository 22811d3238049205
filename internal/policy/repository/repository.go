package repository

import (
	"context"

	"farmgate/backend/internal/policy/domain"
)

// Repository defines persistence for policies.
type Repository interface {
	GetEnabledPoliciesByOrg(ctx context.Context, orgID string) ([]*domain.Policy, error)
	Create(ctx context.Context, p *domain.Policy) error
}

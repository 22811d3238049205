package repository

import (
	"context"

	"farmgate/backend/internal/organization/domain"
)

// Repository defines persistence for organizations.
type Repository interface {
	GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error)
	UpsertOrganization(ctx context.Context, o *domain.Org) error
}

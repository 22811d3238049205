package repository

import (
	"context"

	"farmgate/backend/internal/identity/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpsertUser(ctx context.Context, u *domain.User) error
}

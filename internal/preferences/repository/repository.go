package repository

import "context"

// Repository persists per-user key/value preferences.
type Repository interface {
	// List returns every stored preference of the user.
	List(ctx context.Context, userID string) (map[string]string, error)
	Set(ctx context.Context, userID, key, value string) error
}

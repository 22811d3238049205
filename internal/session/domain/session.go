package domain

import (
	"time"

	identitydomain "farmgate/backend/internal/identity/domain"
)

// Session is a validated, signed-in session.
type Session struct {
	Identity  identitydomain.Identity
	TokenID   string
	ExpiresAt time.Time
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"farmgate/backend/internal/security"
	"farmgate/backend/internal/session"
)

const bearerPrefix = "bearer "

// SessionKey is the gin key under which RequireSession stores the *domain.Session.
const SessionKey = "session"

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	ValidateAccess(token string) (*security.AccessClaims, error)
}

// OptionalAuth validates the bearer token when present and records its user on the request
// context. It never rejects: a missing or invalid token leaves the request anonymous.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" || verifier == nil {
			c.Next()
			return
		}
		claims, err := verifier.ValidateAccess(token)
		if err != nil {
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), claims.UserID(), token))
		c.Next()
	}
}

// RequireSession rejects requests without a live session with 401. Signed-out tokens are
// rejected even while their signature is still valid.
func RequireSession(sessions session.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := GetToken(c.Request.Context())
		if !ok {
			abortUnauthenticated(c)
			return
		}
		sess, err := sessions.GetSession(c.Request.Context(), token)
		if err != nil || sess == nil {
			abortUnauthenticated(c)
			return
		}
		c.Set(SessionKey, sess)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthenticated",
		"message": "sign in to continue",
	})
}

// extractBearer returns the token of an Authorization header value, or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

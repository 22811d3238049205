package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignOut revokes the caller's token and returns the unauthenticated profile. The local profile
// is cleared even when revocation fails.
func (h *Handler) SignOut(c *gin.Context) {
	userID, token := caller(c)
	snap, err := h.nav.SignOut(c.Request.Context(), userID, token)
	if h.prefs != nil {
		h.prefs.Forget(userID)
	}
	if err != nil {
		zap.L().Warn("sign-out revocation failed", zap.String("user_id", userID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"revoked": err == nil, "profile": renderProfile(snap)})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmgate/backend/internal/health"
)

// Health reports readiness: 200 when every dependency passed, 503 otherwise.
func (h *Handler) Health(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, health.Report{Status: health.StatusOK, Checks: map[string]string{}})
		return
	}
	r := h.health.Check(c.Request.Context())
	status := http.StatusOK
	if !r.Ready() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, r)
}

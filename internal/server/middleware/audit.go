package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmgate/backend/internal/audit"
)

// Gin keys handlers set to enrich the audit entry of their request.
const (
	AuditOrgKey      = "audit_org_id"
	AuditMetadataKey = "audit_metadata"
)

// SetAudit records the organization and metadata of the audit entry for the current request.
func SetAudit(c *gin.Context, orgID string, metadata map[string]any) {
	if orgID != "" {
		c.Set(AuditOrgKey, orgID)
	}
	if len(metadata) > 0 {
		c.Set(AuditMetadataKey, metadata)
	}
}

// Audit records an audit log entry after each successful authenticated mutation.
// Logging is best-effort and never changes the response.
func Audit(logger audit.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if logger == nil || !audit.Audited(c.Request.Method) || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		userID, ok := GetUserID(c.Request.Context())
		if !ok {
			return
		}
		ar := audit.ParseRoute(c.Request.Method, c.FullPath())
		var metadata map[string]any
		if v, ok := c.Get(AuditMetadataKey); ok {
			metadata, _ = v.(map[string]any)
		}
		logger.LogEvent(c.Request.Context(), c.GetString(AuditOrgKey), userID, ar.Action, ar.Resource, metadata)
	}
}

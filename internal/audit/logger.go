package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"farmgate/backend/internal/audit/domain"
	auditrepo "farmgate/backend/internal/audit/repository"
)

// SentinelOrgID is the org_id used for audit events that have no org (e.g. sign-out, join requests that failed).
const SentinelOrgID = "_system"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, orgID, userID, action, resource string, metadata map[string]any)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo. ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry.
func (l *Logger) LogEvent(ctx context.Context, orgID, userID, action, resource string, metadata map[string]any) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	if orgID == "" {
		orgID = SentinelOrgID
	}
	var meta string
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			zap.L().Warn("audit: metadata not encodable", zap.String("action", action), zap.Error(err))
		} else {
			meta = string(b)
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		zap.L().Error("audit: failed to log event",
			zap.String("action", action), zap.String("resource", resource), zap.Error(err))
	}
}

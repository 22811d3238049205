package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"farmgate/backend/internal/membership/domain"
	"farmgate/backend/internal/server/middleware"
)

type membershipResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	OrgID      string    `json:"org_id"`
	OrgName    string    `json:"org_name,omitempty"`
	Status     string    `json:"status"`
	Role       string    `json:"role,omitempty"`
	ActiveMode string    `json:"active_mode,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func renderMembership(m *domain.Membership) *membershipResponse {
	if m == nil {
		return nil
	}
	return &membershipResponse{
		ID:         m.ID,
		UserID:     m.UserID,
		OrgID:      m.OrgID,
		OrgName:    m.OrgName,
		Status:     string(m.Status),
		Role:       m.Role,
		ActiveMode: string(m.ActiveMode),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type membershipChangeResponse struct {
	Membership *membershipResponse `json:"membership"`
	Profile    profileResponse     `json:"profile"`
}

type joinRequest struct {
	OrgID string `json:"org_id" binding:"required"`
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// RefreshMembership refetches the caller's membership and returns the resulting profile.
func (h *Handler) RefreshMembership(c *gin.Context) {
	userID, token := caller(c)
	snap := h.nav.Refresh(c.Request.Context(), userID, token)
	if snap.Membership != nil {
		middleware.SetAudit(c, snap.Membership.OrgID, map[string]any{"verdict": string(snap.Profile.Verdict)})
	}
	c.JSON(http.StatusOK, renderProfile(snap))
}

// Join files a request for the caller to join an organization.
func (h *Handler) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "org_id is required")
		return
	}
	userID, token := caller(c)
	ctx := c.Request.Context()
	m, err := h.memberships.Join(ctx, userID, req.OrgID)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetAudit(c, m.OrgID, map[string]any{"role": m.Role})
	c.JSON(http.StatusCreated, membershipChangeResponse{
		Membership: renderMembership(m),
		Profile:    renderProfile(h.nav.Refresh(ctx, userID, token)),
	})
}

// SwitchMode changes the caller's active mode.
func (h *Handler) SwitchMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "mode is required")
		return
	}
	userID, token := caller(c)
	ctx := c.Request.Context()
	m, err := h.memberships.SwitchMode(ctx, userID, domain.Mode(req.Mode))
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetAudit(c, m.OrgID, map[string]any{"mode": string(m.ActiveMode)})
	c.JSON(http.StatusOK, membershipChangeResponse{
		Membership: renderMembership(m),
		Profile:    renderProfile(h.nav.Refresh(ctx, userID, token)),
	})
}

// ListPending lists the pending join requests of the caller's organization.
func (h *Handler) ListPending(c *gin.Context) {
	userID, _ := caller(c)
	list, err := h.memberships.ListPending(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]*membershipResponse, 0, len(list))
	for _, m := range list {
		out = append(out, renderMembership(m))
	}
	c.JSON(http.StatusOK, gin.H{"requests": out})
}

// Approve activates the pending membership of the user in the path.
func (h *Handler) Approve(c *gin.Context) {
	h.decide(c, h.memberships.Approve)
}

// Reject rejects or revokes the membership of the user in the path.
func (h *Handler) Reject(c *gin.Context) {
	h.decide(c, h.memberships.Reject)
}

func (h *Handler) decide(c *gin.Context, fn func(ctx context.Context, actorID, targetUserID string) (*domain.Membership, error)) {
	target := c.Param("user_id")
	actorID, _ := caller(c)
	m, err := fn(c.Request.Context(), actorID, target)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetAudit(c, m.OrgID, map[string]any{"target_user_id": target, "status": string(m.Status)})
	c.JSON(http.StatusOK, gin.H{"membership": renderMembership(m)})
}

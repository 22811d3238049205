package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"farmgate/backend/internal/preferences"
)

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

type themeResponse struct {
	Theme preferences.Theme `json:"theme"`
}

// GetTheme returns the caller's theme once their preferences have loaded.
func (h *Handler) GetTheme(c *gin.Context) {
	st, err := h.loadedStore(c)
	if err != nil {
		writeError(c, err)
		return
	}
	theme, err := st.Theme()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, themeResponse{Theme: theme})
}

// SetTheme stores the caller's theme.
func (h *Handler) SetTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "theme is required")
		return
	}
	theme, err := preferences.ParseTheme(req.Theme)
	if err != nil {
		writeError(c, err)
		return
	}
	st, err := h.loadedStore(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := st.SetTheme(c.Request.Context(), theme); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, themeResponse{Theme: theme})
}

func (h *Handler) loadedStore(c *gin.Context) (*preferences.Store, error) {
	userID, _ := caller(c)
	st := h.prefs.Store(c.Request.Context(), userID)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.hydrationTimeout)
	defer cancel()
	if err := st.WaitLoaded(ctx); err != nil {
		return nil, preferences.ErrNotLoaded
	}
	return st, nil
}

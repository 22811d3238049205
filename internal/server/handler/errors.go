package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"farmgate/backend/internal/membership"
	"farmgate/backend/internal/preferences"
	"farmgate/backend/internal/server/middleware"
	"farmgate/backend/internal/session"
)

// errorResponse is the body of every 4xx/5xx response. Clients show Message as a notification.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var actionStatus = map[string]int{
	membership.CodeOrgUnavailable: http.StatusNotFound,
	membership.CodeNoMembership:   http.StatusNotFound,
	membership.CodeAlreadyMember:  http.StatusConflict,
	membership.CodeInvalidState:   http.StatusConflict,
	membership.CodeNotActive:      http.StatusForbidden,
	membership.CodeForbidden:      http.StatusForbidden,
	membership.CodeInvalidMode:    http.StatusBadRequest,
}

// writeError maps err to a status code and JSON body. It is the only place that does so.
func writeError(c *gin.Context, err error) {
	var ae *membership.ActionError
	switch {
	case errors.As(err, &ae):
		status, ok := actionStatus[ae.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		c.JSON(status, errorResponse{Error: ae.Code, Message: ae.Message})
	case errors.Is(err, preferences.ErrInvalidTheme):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_theme", Message: "theme must be light, dark or system"})
	case errors.Is(err, preferences.ErrNotLoaded), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "not_loaded", Message: "preferences are still loading, try again"})
	case errors.Is(err, session.ErrUnauthenticated), errors.Is(err, session.ErrSignedOut):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthenticated", Message: "sign in to continue"})
	default:
		zap.L().Error("request failed",
			zap.String("request_id", middleware.GetRequestID(c.Request.Context())),
			zap.String("route", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal", Message: "something went wrong"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

// caller returns the authenticated user id and token of the request.
func caller(c *gin.Context) (userID, token string) {
	ctx := c.Request.Context()
	userID, _ = middleware.GetUserID(ctx)
	token, _ = middleware.GetToken(ctx)
	return userID, token
}

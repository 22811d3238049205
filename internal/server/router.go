// Package server wires the HTTP API and the gRPC health server.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"farmgate/backend/internal/audit"
	"farmgate/backend/internal/server/handler"
	"farmgate/backend/internal/server/middleware"
	"farmgate/backend/internal/session"
)

// Deps holds the dependencies of the HTTP router.
type Deps struct {
	Handler  *handler.Handler
	Verifier middleware.TokenVerifier
	Sessions session.Source
	// Audit records successful mutations. If nil, nothing is audited.
	Audit audit.AuditLogger
	// RateLimiter throttles mutations. If nil, mutations are not limited.
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
	// ServiceName enables otelgin tracing when set.
	ServiceName string
}

// NewRouter returns the gin engine serving the HTTP API.
//
// Navigation reads accept anonymous callers and answer with an unauthenticated profile.
// Everything else requires a live session.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger), middleware.Metrics())
	if d.ServiceName != "" {
		r.Use(otelgin.Middleware(d.ServiceName))
	}

	h := d.Handler
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1", middleware.OptionalAuth(d.Verifier))

	nav := v1.Group("/navigation")
	nav.GET("/profile", h.Profile)
	nav.GET("/guard", h.Guard)
	nav.GET("/stream", h.Stream)

	authed := v1.Group("", middleware.RequireSession(d.Sessions), middleware.Audit(d.Audit))
	authed.GET("/membership/pending", h.ListPending)
	authed.GET("/preferences/theme", h.GetTheme)

	mutations := authed.Group("", d.RateLimiter.Handler())
	mutations.POST("/membership/refresh", h.RefreshMembership)
	mutations.POST("/membership/join", h.Join)
	mutations.PUT("/membership/mode", h.SwitchMode)
	mutations.POST("/membership/:user_id/approve", h.Approve)
	mutations.POST("/membership/:user_id/reject", h.Reject)
	mutations.POST("/session/sign-out", h.SignOut)
	mutations.PUT("/preferences/theme", h.SetTheme)

	return r
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"farmgate/backend/internal/access"
	"farmgate/backend/internal/access/guard"
	"farmgate/backend/internal/access/store"
	"farmgate/backend/internal/navigation"
)

type profileResponse struct {
	Verdict      access.Verdict        `json:"verdict"`
	Mode         access.Mode           `json:"mode,omitempty"`
	Reason       access.StatusReason   `json:"reason,omitempty"`
	Destinations []access.Destination  `json:"destinations"`
	Landing      string                `json:"landing"`
	TabBar       []navigation.Item     `json:"tab_bar"`
	Drawer       navigation.DrawerMenu `json:"drawer"`
	Version      uint64                `json:"version"`
}

func renderProfile(snap store.Snapshot) profileResponse {
	p := snap.Profile
	dests := p.Destinations
	if dests == nil {
		dests = []access.Destination{}
	}
	var account *navigation.Account
	if snap.Identity != nil {
		account = &navigation.Account{Name: snap.Identity.Name, Email: snap.Identity.Email}
		if snap.Membership != nil {
			account.Organization = snap.Membership.OrgName
		}
	}
	return profileResponse{
		Verdict:      p.Verdict,
		Mode:         p.Mode,
		Reason:       p.Reason,
		Destinations: dests,
		Landing:      guard.Canonical(p),
		TabBar:       navigation.TabBar(p),
		Drawer:       navigation.Drawer(p, account),
		Version:      snap.Version,
	}
}

type guardResponse struct {
	Allowed     bool               `json:"allowed"`
	Destination access.Destination `json:"destination,omitempty"`
	Screen      guard.Screen       `json:"screen,omitempty"`
	RedirectTo  string             `json:"redirect_to,omitempty"`
	Verdict     access.Verdict     `json:"verdict"`
}

// Profile returns the caller's navigation profile with its tab bar and drawer. Anonymous
// callers get the unauthenticated profile.
func (h *Handler) Profile(c *gin.Context) {
	userID, token := caller(c)
	c.JSON(http.StatusOK, renderProfile(h.nav.Profile(c.Request.Context(), userID, token)))
}

// Guard evaluates the navigation intent in the path query parameter.
func (h *Handler) Guard(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		badRequest(c, "path is required")
		return
	}
	userID, token := caller(c)
	ctx := c.Request.Context()
	d := h.nav.Guard(ctx, h.nav.Profile(ctx, userID, token), path)
	c.JSON(http.StatusOK, guardResponse{
		Allowed:     d.Allowed,
		Destination: d.Destination,
		Screen:      d.Screen,
		RedirectTo:  d.RedirectTo,
		Verdict:     d.Verdict,
	})
}

// Stream sends the caller's profile as a server-sent "profile" event and then every change to
// it until the client disconnects, the server shuts down or the session signs out. Anonymous
// callers get one event.
func (h *Handler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	userID, token := caller(c)
	var (
		snap store.Snapshot
		ch   <-chan store.Snapshot
	)
	if userID != "" && token != "" {
		var stop func()
		snap, ch, stop = h.nav.Subscribe(ctx, userID, token)
		defer stop()
	} else {
		snap = h.nav.Profile(ctx, userID, token)
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	send := func(s store.Snapshot) {
		c.SSEvent("profile", renderProfile(s))
		c.Writer.Flush()
	}
	send(snap)
	if ch == nil || snap.Profile.Verdict == access.VerdictUnauthenticated {
		return
	}

	last := snap.Profile
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case s, ok := <-ch:
			if !ok {
				return
			}
			if s.Profile.Equal(last) {
				continue
			}
			last = s.Profile
			send(s)
			if s.Profile.Verdict == access.VerdictUnauthenticated {
				return
			}
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}

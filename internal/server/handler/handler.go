// Package handler implements the gin handlers of the HTTP API.
package handler

import (
	"context"
	"time"

	"farmgate/backend/internal/access/guard"
	"farmgate/backend/internal/access/store"
	"farmgate/backend/internal/health"
	"farmgate/backend/internal/membership/domain"
	"farmgate/backend/internal/preferences"
)

// Navigator resolves, guards and streams navigation profiles.
type Navigator interface {
	Profile(ctx context.Context, userID, token string) store.Snapshot
	Refresh(ctx context.Context, userID, token string) store.Snapshot
	Guard(ctx context.Context, snap store.Snapshot, path string) guard.Decision
	Subscribe(ctx context.Context, userID, token string) (store.Snapshot, <-chan store.Snapshot, func())
	SignOut(ctx context.Context, userID, token string) (store.Snapshot, error)
}

// Memberships mutates memberships.
type Memberships interface {
	Join(ctx context.Context, userID, orgID string) (*domain.Membership, error)
	SwitchMode(ctx context.Context, userID string, mode domain.Mode) (*domain.Membership, error)
	Approve(ctx context.Context, actorID, targetUserID string) (*domain.Membership, error)
	Reject(ctx context.Context, actorID, targetUserID string) (*domain.Membership, error)
	ListPending(ctx context.Context, actorID string) ([]*domain.Membership, error)
}

// Preferences hands out per-user preference stores.
type Preferences interface {
	Store(ctx context.Context, userID string) *preferences.Store
	Forget(userID string)
}

// HealthChecker reports readiness.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Deps holds the collaborators of the handlers. Health may be nil.
type Deps struct {
	Navigator   Navigator
	Memberships Memberships
	Preferences Preferences
	Health      HealthChecker
	// Heartbeat is the interval of keep-alive events on profile streams. Default 25s.
	Heartbeat time.Duration
	// HydrationTimeout bounds how long preference requests wait for the first load. Default 2s.
	HydrationTimeout time.Duration
	// Done ends every open profile stream when closed. May be nil.
	Done <-chan struct{}
}

// Handler serves the HTTP API.
type Handler struct {
	nav              Navigator
	memberships      Memberships
	prefs            Preferences
	health           HealthChecker
	heartbeat        time.Duration
	hydrationTimeout time.Duration
	done             <-chan struct{}
}

// New returns a handler for deps.
func New(deps Deps) *Handler {
	if deps.Heartbeat <= 0 {
		deps.Heartbeat = 25 * time.Second
	}
	if deps.HydrationTimeout <= 0 {
		deps.HydrationTimeout = 2 * time.Second
	}
	return &Handler{
		nav:              deps.Navigator,
		memberships:      deps.Memberships,
		prefs:            deps.Preferences,
		health:           deps.Health,
		heartbeat:        deps.Heartbeat,
		hydrationTimeout: deps.HydrationTimeout,
		done:             deps.Done,
	}
}

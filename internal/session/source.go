// Package session resolves bearer tokens into signed-in sessions.
//
// Resolved sessions are cached by token id. A cached session younger than the fresh TTL is
// served directly; within the following stale window it is served while a single background
// revalidation refreshes it; after that the lookup is synchronous again. Sign-out denylists the
// token id until the token expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	identitydomain "farmgate/backend/internal/identity/domain"
	"farmgate/backend/internal/security"
	"farmgate/backend/internal/session/domain"
)

var (
	// ErrUnauthenticated is returned when the token is missing, invalid or expired.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSignedOut is returned for a token that was explicitly signed out.
	ErrSignedOut = errors.New("session signed out")
)

// Source is the session collaborator consumed by navigation.
type Source interface {
	GetSession(ctx context.Context, token string) (*domain.Session, error)
	SignOut(ctx context.Context, token string) error
}

// Verifier validates access tokens.
type Verifier interface {
	ValidateAccess(token string) (*security.AccessClaims, error)
}

// Directory looks up display details for a user. A nil user with nil error means unknown.
type Directory interface {
	GetUser(ctx context.Context, id string) (*identitydomain.User, error)
}

// Options tunes the cache windows.
type Options struct {
	FreshTTL          time.Duration
	StaleTTL          time.Duration
	RevalidateTimeout time.Duration
}

// Service implements Source.
type Service struct {
	verifier  Verifier
	directory Directory
	cache     Cache
	opts      Options
	group     singleflight.Group
	now       func() time.Time
}

var _ Source = (*Service)(nil)

// NewService returns a session source. directory may be nil, in which case identities come
// from token claims alone.
func NewService(verifier Verifier, directory Directory, cache Cache, opts Options) *Service {
	if opts.FreshTTL <= 0 {
		opts.FreshTTL = 30 * time.Second
	}
	if opts.StaleTTL < 0 {
		opts.StaleTTL = 0
	}
	if opts.RevalidateTimeout <= 0 {
		opts.RevalidateTimeout = 5 * time.Second
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Service{
		verifier:  verifier,
		directory: directory,
		cache:     cache,
		opts:      opts,
		now:       time.Now,
	}
}

// GetSession validates token and returns its session.
func (s *Service) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.claims(token)
	if err != nil {
		return nil, err
	}
	denied, err := s.cache.IsDenied(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if denied {
		return nil, ErrSignedOut
	}

	entry, err := s.cache.Get(ctx, claims.ID)
	if err != nil {
		zap.L().Warn("session cache read failed", zap.Error(err))
		entry = nil
	}
	if entry != nil {
		age := s.now().Sub(entry.LoadedAt)
		switch {
		case age < s.opts.FreshTTL:
			sess := entry.Session
			return &sess, nil
		case age < s.opts.FreshTTL+s.opts.StaleTTL:
			s.revalidate(ctx, claims)
			sess := entry.Session
			return &sess, nil
		}
	}

	v, err, _ := s.group.Do(claims.ID, func() (any, error) {
		return s.load(ctx, claims)
	})
	if err != nil {
		return nil, err
	}
	sess := *v.(*domain.Session)
	return &sess, nil
}

// SignOut denylists the token until it expires and drops its cached session.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.claims(token)
	if err != nil {
		return err
	}
	if err := s.cache.Deny(ctx, claims.ID, time.Until(claims.Expiry())); err != nil {
		return err
	}
	return s.cache.Delete(ctx, claims.ID)
}

func (s *Service) claims(token string) (*security.AccessClaims, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.verifier.ValidateAccess(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

func (s *Service) revalidate(ctx context.Context, claims *security.AccessClaims) {
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.RevalidateTimeout)
	ch := s.group.DoChan(claims.ID, func() (any, error) {
		return s.load(bg, claims)
	})
	go func() {
		defer cancel()
		if res := <-ch; res.Err != nil {
			zap.L().Warn("session revalidation failed", zap.String("token_id", claims.ID), zap.Error(res.Err))
		}
	}()
}

func (s *Service) load(ctx context.Context, claims *security.AccessClaims) (*domain.Session, error) {
	ident := identitydomain.Identity{ID: claims.UserID(), Name: claims.Name, Email: claims.Email}
	if s.directory != nil {
		u, err := s.directory.GetUser(ctx, claims.UserID())
		if err != nil {
			return nil, fmt.Errorf("load user %s: %w", claims.UserID(), err)
		}
		if u != nil {
			ident = *u.Identity()
		}
	}
	if ident.Name == "" {
		ident.Name = ident.Email
	}
	sess := &domain.Session{Identity: ident, TokenID: claims.ID, ExpiresAt: claims.Expiry()}

	now := s.now()
	ttl := s.opts.FreshTTL + s.opts.StaleTTL
	if remaining := sess.ExpiresAt.Sub(now); !sess.ExpiresAt.IsZero() && remaining < ttl {
		ttl = remaining
	}
	if err := s.cache.Set(ctx, claims.ID, &Entry{Session: *sess, LoadedAt: now}, ttl); err != nil {
		zap.L().Warn("session cache write failed", zap.Error(err))
	}
	return sess, nil
}

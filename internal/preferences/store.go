// Package preferences holds per-user display settings with an explicit load lifecycle.
//
// A Store starts uninitialized and becomes loaded once hydrated from persistence. Reads before
// that fail with ErrNotLoaded instead of returning a default that would later flip.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"farmgate/backend/internal/preferences/repository"
)

var (
	ErrNotLoaded    = errors.New("preferences not loaded")
	ErrInvalidTheme = errors.New("invalid theme")
)

// Theme is the app color scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"

	DefaultTheme = ThemeSystem
)

const themeKey = "theme"

// ParseTheme parses s case-insensitively.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	}
	return "", ErrInvalidTheme
}

// Store holds one user's preferences.
type Store struct {
	userID string
	repo   repository.Repository

	mu      sync.RWMutex
	done    chan struct{}
	once    sync.Once
	loadErr error
	theme   Theme
}

// NewStore returns an uninitialized store for userID.
func NewStore(userID string, repo repository.Repository) *Store {
	return &Store{userID: userID, repo: repo, done: make(chan struct{})}
}

// Hydrate loads persisted values. Only the first call does any work. A failed load leaves the
// store unloaded for good; callers drop it and retry with a new store.
func (s *Store) Hydrate(ctx context.Context) error {
	s.once.Do(func() {
		theme := DefaultTheme
		prefs, err := s.repo.List(ctx, s.userID)
		if err != nil {
			err = fmt.Errorf("load preferences for %s: %w", s.userID, err)
		} else if t, perr := ParseTheme(prefs[themeKey]); perr == nil {
			theme = t
		}
		s.mu.Lock()
		s.theme = theme
		s.loadErr = err
		s.mu.Unlock()
		close(s.done)
	})
	return s.Err()
}

// Loaded reports whether hydration finished successfully.
func (s *Store) Loaded() bool {
	select {
	case <-s.done:
		return s.Err() == nil
	default:
		return false
	}
}

// WaitLoaded blocks until hydration finishes or ctx is done. A failed hydration yields an error
// wrapping ErrNotLoaded.
func (s *Store) WaitLoaded(ctx context.Context) error {
	select {
	case <-s.done:
		if err := s.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrNotLoaded, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the hydration error, if any.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Theme returns the current theme, or ErrNotLoaded unless hydration succeeded.
func (s *Store) Theme() (Theme, error) {
	if !s.Loaded() {
		return "", ErrNotLoaded
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme, nil
}

// SetTheme persists and applies t. Writes before hydration fail with ErrNotLoaded so a late
// hydration cannot overwrite them.
func (s *Store) SetTheme(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	if !s.Loaded() {
		return ErrNotLoaded
	}
	if err := s.repo.Set(ctx, s.userID, themeKey, string(t)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	s.mu.Lock()
	s.theme = t
	s.mu.Unlock()
	return nil
}

// Options bounds the stores a Service keeps. Zero values select defaults.
type Options struct {
	// MaxStores caps the number of cached users; the least recently used is dropped. Default 10000.
	MaxStores int
	// IdleTTL drops a cached user this long after it was loaded. Default 15m.
	IdleTTL time.Duration
}

// Service hands out one Store per user and hydrates it on first use.
type Service struct {
	repo repository.Repository

	mu     sync.Mutex
	stores *expirable.LRU[string, *Store]
}

// NewService returns a preferences service backed by repo.
func NewService(repo repository.Repository, opts Options) *Service {
	if opts.MaxStores <= 0 {
		opts.MaxStores = 10000
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 15 * time.Minute
	}
	return &Service{repo: repo, stores: expirable.NewLRU[string, *Store](opts.MaxStores, nil, opts.IdleTTL)}
}

// Store returns the user's store, starting hydration in the background the first time. A store
// whose hydration fails is dropped so the next call retries.
func (s *Service) Store(ctx context.Context, userID string) *Store {
	s.mu.Lock()
	st, ok := s.stores.Get(userID)
	if ok && st.Err() != nil {
		ok = false
	}
	if !ok {
		st = NewStore(userID, s.repo)
		s.stores.Add(userID, st)
	}
	s.mu.Unlock()
	if !ok {
		go func() {
			if err := st.Hydrate(context.WithoutCancel(ctx)); err != nil {
				zap.L().Warn("preferences: hydration failed", zap.String("user_id", userID), zap.Error(err))
				s.drop(userID, st)
			}
		}()
	}
	return st
}

// Forget drops the user's store, e.g. on sign-out.
func (s *Service) Forget(userID string) {
	s.mu.Lock()
	s.stores.Remove(userID)
	s.mu.Unlock()
}

// Len returns the number of cached users.
func (s *Service) Len() int {
	return s.stores.Len()
}

func (s *Service) drop(userID string, st *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.stores.Peek(userID); ok && cur == st {
		s.stores.Remove(userID)
	}
}

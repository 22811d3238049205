package store

import "sync"

// Registry keeps one Store per signed-in session, grouped by user so a membership change can
// reach every session of that user.
type Registry struct {
	mu     sync.Mutex
	stores map[string]map[string]*Store // user id -> session key -> store
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]map[string]*Store)}
}

// Get returns the store for the session, creating it on first use.
func (r *Registry) Get(userID, sessionKey string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(userID, sessionKey)
}

// Subscribe subscribes to the session's store, creating it if needed, so no Evict can drop the
// store between lookup and subscription. The returned function unsubscribes and evicts the store
// once it has no subscribers left.
func (r *Registry) Subscribe(userID, sessionKey string) (*Store, <-chan Snapshot, func()) {
	r.mu.Lock()
	s := r.getLocked(userID, sessionKey)
	ch, unsubscribe := s.Subscribe()
	r.mu.Unlock()
	return s, ch, func() {
		unsubscribe()
		r.Evict(userID, sessionKey)
	}
}

func (r *Registry) getLocked(userID, sessionKey string) *Store {
	sessions, ok := r.stores[userID]
	if !ok {
		sessions = make(map[string]*Store)
		r.stores[userID] = sessions
	}
	s, ok := sessions[sessionKey]
	if !ok {
		s = New()
		sessions[sessionKey] = s
	}
	return s
}

// Lookup returns the store for the session if one exists.
func (r *Registry) Lookup(userID, sessionKey string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[userID][sessionKey]
	return s, ok
}

// ForUser returns the stores of every tracked session of userID.
func (r *Registry) ForUser(userID string) []*Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Store, 0, len(r.stores[userID]))
	for _, s := range r.stores[userID] {
		out = append(out, s)
	}
	return out
}

// Evict drops the session's store when it has no subscribers. Returns true if it was removed.
func (r *Registry) Evict(userID, sessionKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := r.stores[userID]
	s, ok := sessions[sessionKey]
	if !ok || s.Subscribers() > 0 {
		return false
	}
	delete(sessions, sessionKey)
	if len(sessions) == 0 {
		delete(r.stores, userID)
	}
	return true
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, sessions := range r.stores {
		n += len(sessions)
	}
	return n
}

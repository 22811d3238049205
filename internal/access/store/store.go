// Package store holds the latest session and membership results for one signed-in session and
// publishes the NavigationProfile derived from them to any number of subscribers.
package store

import (
	"sync"

	"farmgate/backend/internal/access"
	identitydomain "farmgate/backend/internal/identity/domain"
	membershipdomain "farmgate/backend/internal/membership/domain"
)

// Ticket orders fetch requests. A result is applied only if no newer request of the same kind has
// already been applied, so a slow superseded response cannot overwrite a fresher one.
type Ticket uint64

// Store is the single owner of a session's NavigationProfile. All methods are safe for concurrent use.
type Store struct {
	mu sync.Mutex

	nextTicket Ticket

	sessionApplied Ticket
	identity       *identitydomain.Identity
	sessionErr     error

	membershipApplied Ticket
	membershipLoaded  bool
	membership        *membershipdomain.Membership
	membershipErr     error

	profile   access.NavigationProfile
	version   uint64
	subs      map[uint64]chan Snapshot
	nextSubID uint64
}

// Snapshot is a profile together with the store version it was computed at.
type Snapshot struct {
	Version    uint64
	Profile    access.NavigationProfile
	Identity   *identitydomain.Identity
	Membership *membershipdomain.Membership
}

// New returns a store whose initial profile is unauthenticated.
func New() *Store {
	s := &Store{subs: make(map[uint64]chan Snapshot)}
	s.profile = access.ResolveFetch(s.fetchStateLocked())
	return s
}

// BeginSession returns a ticket for a session fetch that is about to start.
func (s *Store) BeginSession() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTicket++
	return s.nextTicket
}

// BeginMembership returns a ticket for a membership fetch that is about to start. Until the first
// result for the current identity is applied the profile is unresolved; later refetches keep the
// last applied membership visible while they are in flight.
func (s *Store) BeginMembership() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTicket++
	return s.nextTicket
}

// CompleteSession applies a session result. It returns false when the result was superseded.
// Signing out (nil identity) clears the membership so no privileged state survives it.
func (s *Store) CompleteSession(t Ticket, identity *identitydomain.Identity, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t <= s.sessionApplied {
		return false
	}
	s.sessionApplied = t
	changedUser := s.identity != nil && identity != nil && s.identity.ID != identity.ID
	s.identity, s.sessionErr = identity, err
	if identity == nil || changedUser {
		s.membership, s.membershipErr, s.membershipLoaded = nil, nil, false
	}
	s.recomputeLocked()
	return true
}

// CompleteMembership applies a membership result. It returns false when the result was superseded.
func (s *Store) CompleteMembership(t Ticket, m *membershipdomain.Membership, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t <= s.membershipApplied {
		return false
	}
	s.membershipApplied = t
	s.membership, s.membershipErr = m, err
	s.membershipLoaded = err == nil
	s.recomputeLocked()
	return true
}

// SignOut clears identity and membership immediately.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTicket++
	s.sessionApplied = s.nextTicket
	s.membershipApplied = s.nextTicket
	s.identity, s.sessionErr = nil, nil
	s.membership, s.membershipErr, s.membershipLoaded = nil, nil, false
	s.recomputeLocked()
}

// Current returns the most recently computed snapshot.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives the current snapshot immediately and every newer one
// after it. A slow reader only ever sees the latest snapshot; intermediate ones are dropped.
// The returned function unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Snapshot, 1)
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscribers.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) fetchStateLocked() access.FetchState {
	return access.FetchState{
		Identity:          s.identity,
		SessionErr:        s.sessionErr,
		Membership:        s.membership,
		MembershipErr:     s.membershipErr,
		MembershipLoading: !s.membershipLoaded && s.membershipErr == nil,
	}
}

func (s *Store) recomputeLocked() {
	next := access.ResolveFetch(s.fetchStateLocked())
	s.version++
	s.profile = next
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Version:    s.version,
		Profile:    s.profile.Clone(),
		Identity:   s.identity,
		Membership: s.membership,
	}
}

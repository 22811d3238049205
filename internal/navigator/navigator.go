// Package navigator owns the per-session profile stores of the BFF. It fetches session and
// membership, applies results to the session's store in request order, evaluates route guards
// and reports what it resolved.
package navigator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"farmgate/backend/internal/access"
	"farmgate/backend/internal/access/guard"
	"farmgate/backend/internal/access/store"
	identitydomain "farmgate/backend/internal/identity/domain"
	"farmgate/backend/internal/membership"
	membershipdomain "farmgate/backend/internal/membership/domain"
	"farmgate/backend/internal/session"
	"farmgate/backend/internal/telemetry"
	telemetrydomain "farmgate/backend/internal/telemetry/domain"
	"farmgate/backend/internal/telemetry/metrics"
)

const defaultFetchTimeout = 10 * time.Second

// Navigator serves navigation profiles. It is safe for concurrent use.
type Navigator struct {
	sessions     session.Source
	memberships  membership.Source
	registry     *store.Registry
	emitter      telemetry.EventEmitter
	fetchTimeout time.Duration
}

// Options configures a Navigator. Zero values select defaults.
type Options struct {
	// FetchTimeout bounds a single session or membership fetch.
	FetchTimeout time.Duration
	// Emitter receives navigation telemetry. May be nil.
	Emitter telemetry.EventEmitter
}

var _ membership.ChangeNotifier = (*Navigator)(nil)

// New returns a navigator. registry may be nil, in which case a private one is created.
func New(sessions session.Source, memberships membership.Source, registry *store.Registry, opts Options) *Navigator {
	if registry == nil {
		registry = store.NewRegistry()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	return &Navigator{
		sessions:     sessions,
		memberships:  memberships,
		registry:     registry,
		emitter:      opts.Emitter,
		fetchTimeout: opts.FetchTimeout,
	}
}

// Profile fetches session and membership for the bearer of token concurrently and returns the
// resulting snapshot. An empty userID yields the unauthenticated snapshot without touching any store.
func (n *Navigator) Profile(ctx context.Context, userID, token string) store.Snapshot {
	return n.once(ctx, userID, token, false)
}

// Refresh refetches the session and the membership, bypassing the membership cache, and returns
// the resulting snapshot.
func (n *Navigator) Refresh(ctx context.Context, userID, token string) store.Snapshot {
	return n.once(ctx, userID, token, true)
}

// once resolves into the session's store and drops the store again unless someone watches it.
func (n *Navigator) once(ctx context.Context, userID, token string, fresh bool) store.Snapshot {
	if userID == "" || token == "" {
		return store.New().Current()
	}
	key := sessionKey(token)
	snap := n.resolve(ctx, n.registry.Get(userID, key), userID, token, fresh)
	n.registry.Evict(userID, key)
	return snap
}

// resolve applies fresh session and membership results to st. When this request's own session
// fetch failed the caller is unauthenticated, whatever st holds.
func (n *Navigator) resolve(ctx context.Context, st *store.Store, userID, token string, fresh bool) store.Snapshot {
	before := st.Current()
	sessionTicket, membershipTicket := st.BeginSession(), st.BeginMembership()

	var sessionErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessionErr = n.fetchSession(gctx, st, sessionTicket, token)
		return nil
	})
	g.Go(func() error {
		n.fetchMembership(gctx, st, membershipTicket, userID, fresh)
		return nil
	})
	_ = g.Wait()

	after := st.Current()
	if sessionErr != nil {
		after = store.Snapshot{
			Version: after.Version,
			Profile: access.ResolveFetch(access.FetchState{SessionErr: sessionErr}),
		}
	}
	return n.published(ctx, userID, before, after)
}

// MembershipChanged refetches the membership of userID once and applies it to every watched
// session of that user, so open streams re-render. Users nobody is watching are resolved on their
// next request instead.
func (n *Navigator) MembershipChanged(ctx context.Context, userID string) {
	stores := n.registry.ForUser(userID)
	if len(stores) == 0 {
		return
	}
	befores := make([]store.Snapshot, len(stores))
	tickets := make([]store.Ticket, len(stores))
	for i, st := range stores {
		befores[i], tickets[i] = st.Current(), st.BeginMembership()
	}
	m, err := n.loadMembership(context.WithoutCancel(ctx), userID, true)

	var after store.Snapshot
	for i, st := range stores {
		if !st.CompleteMembership(tickets[i], m, err) {
			metrics.StaleResultsDroppedTotal.WithLabelValues("membership").Inc()
		}
		after = n.published(ctx, userID, befores[i], st.Current())
	}
	ev := telemetry.NewEvent(telemetrydomain.EventMembershipChanged, orgOf(after), userID)
	ev.Verdict, ev.Mode = string(after.Profile.Verdict), string(after.Profile.Mode)
	telemetry.EmitAsync(ctx, n.emitter, ev)
}

// Guard evaluates path against the profile of snap and records the decision.
func (n *Navigator) Guard(ctx context.Context, snap store.Snapshot, path string) guard.Decision {
	d := guard.Evaluate(snap.Profile, path)
	outcome := "allow"
	if !d.Allowed {
		outcome = "redirect"
	}
	metrics.GuardDecisionsTotal.WithLabelValues(string(d.Verdict), outcome).Inc()
	if !d.Allowed {
		ev := telemetry.NewEvent(telemetrydomain.EventRouteRedirected, orgOf(snap), userOf(snap))
		ev.Verdict, ev.Mode, ev.Path = string(snap.Profile.Verdict), string(snap.Profile.Mode), path
		ev.Metadata = metadata(map[string]string{"redirect_to": d.RedirectTo})
		telemetry.EmitAsync(ctx, n.emitter, ev)
	}
	return d
}

// Subscribe resolves the session of token like Profile and keeps its store watched. The channel
// receives every newer snapshot of that session only. The returned function must be called once
// the caller stops reading; it drops the store when it was the last subscriber.
func (n *Navigator) Subscribe(ctx context.Context, userID, token string) (store.Snapshot, <-chan store.Snapshot, func()) {
	key := sessionKey(token)
	st, ch, unsubscribe := n.registry.Subscribe(userID, key)
	metrics.ProfileSubscribers.Inc()
	snap := n.resolve(ctx, st, userID, token, false)
	return snap, ch, func() {
		unsubscribe()
		metrics.ProfileSubscribers.Dec()
	}
}

// SignOut revokes token and clears the profile of that session immediately. Other sessions of
// the same user are untouched. The profile is cleared even when revocation fails.
func (n *Navigator) SignOut(ctx context.Context, userID, token string) (store.Snapshot, error) {
	var orgID string
	key := sessionKey(token)
	if st, ok := n.registry.Lookup(userID, key); ok {
		orgID = orgOf(st.Current())
		st.SignOut()
		n.registry.Evict(userID, key)
	}
	err := n.sessions.SignOut(ctx, token)
	if err != nil {
		zap.L().Warn("navigator: revoke session failed", zap.String("user_id", userID), zap.Error(err))
	}
	telemetry.EmitAsync(ctx, n.emitter, telemetry.NewEvent(telemetrydomain.EventSignedOut, orgID, userID))
	return store.New().Current(), err
}

func (n *Navigator) fetchSession(ctx context.Context, st *store.Store, t store.Ticket, token string) error {
	ctx, cancel := context.WithTimeout(ctx, n.fetchTimeout)
	defer cancel()
	var identity *identitydomain.Identity
	sess, err := n.sessions.GetSession(ctx, token)
	if err == nil && sess != nil {
		id := sess.Identity
		identity = &id
	}
	if err != nil {
		zap.L().Debug("navigator: session fetch failed", zap.Error(err))
	}
	if !st.CompleteSession(t, identity, err) {
		metrics.StaleResultsDroppedTotal.WithLabelValues("session").Inc()
	}
	return err
}

func (n *Navigator) fetchMembership(ctx context.Context, st *store.Store, t store.Ticket, userID string, fresh bool) {
	m, err := n.loadMembership(ctx, userID, fresh)
	if !st.CompleteMembership(t, m, err) {
		metrics.StaleResultsDroppedTotal.WithLabelValues("membership").Inc()
	}
}

func (n *Navigator) loadMembership(ctx context.Context, userID string, fresh bool) (*membershipdomain.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, n.fetchTimeout)
	defer cancel()
	fetch := n.memberships.GetMyMembership
	if fresh {
		fetch = n.memberships.Refetch
	}
	m, err := fetch(ctx, userID)
	if err != nil {
		zap.L().Warn("navigator: membership fetch failed", zap.String("user_id", userID), zap.Error(err))
	}
	return m, err
}

// published records a resolved snapshot and emits a telemetry event when the profile changed.
func (n *Navigator) published(ctx context.Context, userID string, before, after store.Snapshot) store.Snapshot {
	p := after.Profile
	metrics.ProfilesResolvedTotal.WithLabelValues(string(p.Verdict), string(p.Mode)).Inc()
	if !p.Equal(before.Profile) {
		ev := telemetry.NewEvent(telemetrydomain.EventProfileResolved, orgOf(after), userID)
		ev.Verdict, ev.Mode = string(p.Verdict), string(p.Mode)
		ev.Metadata = metadata(map[string]string{"reason": string(p.Reason), "previous_verdict": string(before.Profile.Verdict)})
		telemetry.EmitAsync(ctx, n.emitter, ev)
	}
	return after
}

func orgOf(s store.Snapshot) string {
	if s.Membership == nil || s.Profile.Verdict == access.VerdictUnauthenticated {
		return ""
	}
	return s.Membership.OrgID
}

func userOf(s store.Snapshot) string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.ID
}

// sessionKey identifies the session of token without keeping the token itself.
func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}

func metadata(m map[string]string) json.RawMessage {
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return b
}

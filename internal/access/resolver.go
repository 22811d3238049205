package access

import (
	identitydomain "farmgate/backend/internal/identity/domain"
	membershipdomain "farmgate/backend/internal/membership/domain"
)

// Resolve derives the navigation profile for identity and membership. Rules are evaluated in
// order and the first match wins. Resolve has no side effects and never panics.
func Resolve(identity *identitydomain.Identity, membership *membershipdomain.Membership, membershipLoading bool) NavigationProfile {
	if identity == nil {
		return NavigationProfile{Verdict: VerdictUnauthenticated, Reason: ReasonSignedOut}
	}
	if membershipLoading {
		return unresolved(ReasonLoading)
	}
	if membership == nil {
		return NavigationProfile{Verdict: VerdictPending, Reason: ReasonNoMembership}
	}
	switch membership.Status {
	case membershipdomain.StatusRejected:
		return NavigationProfile{Verdict: VerdictRejected, Reason: ReasonRejected}
	case membershipdomain.StatusActive:
		mode := membership.ActiveMode
		if _, known := destinationSets[mode]; !known {
			mode = DefaultMode
		}
		return NavigationProfile{
			Verdict:      VerdictGranted,
			Mode:         mode,
			Destinations: DestinationsFor(mode),
		}
	default:
		// PENDING and any status this build does not know about.
		return NavigationProfile{Verdict: VerdictPending, Reason: ReasonAwaitingApproval}
	}
}

// FetchState is the latest completed outcome of the session and membership fetches.
type FetchState struct {
	Identity          *identitydomain.Identity
	SessionErr        error
	Membership        *membershipdomain.Membership
	MembershipErr     error
	MembershipLoading bool
}

// ResolveFetch maps fetch failures to the least-privileged verdict and resolves the rest.
// A session error resolves as unauthenticated; a membership error as unresolved, never as
// pending or granted.
func ResolveFetch(s FetchState) NavigationProfile {
	if s.SessionErr != nil {
		return NavigationProfile{Verdict: VerdictUnauthenticated, Reason: ReasonSessionError}
	}
	if s.Identity != nil && s.MembershipErr != nil && !s.MembershipLoading {
		return unresolved(ReasonMembershipError)
	}
	return Resolve(s.Identity, s.Membership, s.MembershipLoading)
}

func unresolved(reason StatusReason) NavigationProfile {
	return NavigationProfile{Verdict: VerdictUnresolved, Reason: reason}
}

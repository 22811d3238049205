// Package access derives what a user may navigate to from their identity and organization membership.
//
// Resolve is the only place that interprets raw membership fields. Navigation surfaces and the
// route guard consume the NavigationProfile it returns and never look at a Membership directly.
package access

import (
	"slices"

	membershipdomain "farmgate/backend/internal/membership/domain"
)

// Verdict classifies the access state of a profile.
type Verdict string

const (
	// VerdictUnresolved is the transient state while membership is loading or failed to load.
	// It is not a terminal verdict and must never be cached as one.
	VerdictUnresolved      Verdict = "UNRESOLVED"
	VerdictUnauthenticated Verdict = "UNAUTHENTICATED"
	VerdictPending         Verdict = "PENDING"
	VerdictRejected        Verdict = "REJECTED"
	VerdictGranted         Verdict = "GRANTED"
)

// Terminal reports whether v is one of the four terminal verdicts.
func (v Verdict) Terminal() bool {
	switch v {
	case VerdictUnauthenticated, VerdictPending, VerdictRejected, VerdictGranted:
		return true
	}
	return false
}

// Mode is the operating context that selects a destination set.
type Mode = membershipdomain.Mode

const (
	ModeOfficer    = membershipdomain.ModeOfficer
	ModeManagement = membershipdomain.ModeManagement
)

// DefaultMode applies when an ACTIVE membership has no active mode set.
const DefaultMode = ModeOfficer

// StatusReason distinguishes the causes behind a non-granted verdict for status screens.
type StatusReason string

const (
	ReasonNone             StatusReason = ""
	ReasonSignedOut        StatusReason = "signed_out"
	ReasonSessionError     StatusReason = "session_error"
	ReasonLoading          StatusReason = "loading"
	ReasonMembershipError  StatusReason = "membership_error"
	ReasonNoMembership     StatusReason = "no_membership"
	ReasonAwaitingApproval StatusReason = "awaiting_approval"
	ReasonRejected         StatusReason = "rejected"
)

// NavigationProfile is the derived, read-only summary of what a user may navigate to.
// Destinations is fully determined by Verdict and Mode.
type NavigationProfile struct {
	Verdict      Verdict
	Mode         Mode // meaningful only when Verdict is VerdictGranted
	Destinations []Destination
	Reason       StatusReason
}

// Granted reports whether the profile grants operational screens.
func (p NavigationProfile) Granted() bool {
	return p.Verdict == VerdictGranted
}

// Allows reports whether d is a visible destination.
func (p NavigationProfile) Allows(d Destination) bool {
	return p.Granted() && slices.Contains(p.Destinations, d)
}

// Landing returns the landing destination (Home or Overview) or "" when nothing is visible.
func (p NavigationProfile) Landing() Destination {
	if len(p.Destinations) == 0 {
		return ""
	}
	return p.Destinations[0]
}

// Equal reports structural equality.
func (p NavigationProfile) Equal(o NavigationProfile) bool {
	return p.Verdict == o.Verdict && p.Mode == o.Mode && p.Reason == o.Reason &&
		slices.Equal(p.Destinations, o.Destinations)
}

// Clone returns a copy whose destination slice is not shared with p.
func (p NavigationProfile) Clone() NavigationProfile {
	p.Destinations = slices.Clone(p.Destinations)
	return p
}

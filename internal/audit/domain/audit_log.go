package domain

import "time"

// AuditLog represents an audit event.
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Actions recorded for navigation-affecting mutations.
const (
	ActionMembershipRequested = "membership_requested"
	ActionMembershipApproved  = "membership_approved"
	ActionMembershipRejected  = "membership_rejected"
	ActionMembershipRefreshed = "membership_refreshed"
	ActionModeSwitched        = "mode_switched"
	ActionSignedOut           = "signed_out"
	ActionPreferenceUpdated   = "preference_updated"
)

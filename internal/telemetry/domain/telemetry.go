package domain

import (
	"encoding/json"
	"time"
)

// Event types emitted by navigation.
const (
	EventProfileResolved   = "profile_resolved"
	EventRouteRedirected   = "route_redirected"
	EventMembershipChanged = "membership_changed"
	EventSignedOut         = "signed_out"
)

// SourceBFF is the source label of events produced by this service.
const SourceBFF = "farmgate"

// Event is a navigation telemetry event. It is the Kafka message value, encoded as JSON.
type Event struct {
	ID        string          `json:"id"`
	OrgID     string          `json:"orgId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	EventType string          `json:"eventType"`
	Source    string          `json:"source"`
	Verdict   string          `json:"verdict,omitempty"`
	Mode      string          `json:"mode,omitempty"`
	Path      string          `json:"path,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

package domain

import (
	"errors"
	"strings"
	"time"
)

// Membership links a user to exactly one organization at a time.
// Role is a free-form organizational label; access is decided by Status and ActiveMode.
type Membership struct {
	ID         string
	UserID     string
	OrgID      string
	OrgName    string
	Status     Status
	Role       string
	ActiveMode Mode // empty when never set
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// JoinRole is the role every join request is filed with. Administrators grant other roles.
const JoinRole = "officer"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusRejected Status = "REJECTED"
)

type Mode string

const (
	ModeOfficer    Mode = "OFFICER"
	ModeManagement Mode = "MANAGEMENT"
)

var (
	ErrInvalidStatus = errors.New("invalid membership status")
	ErrInvalidMode   = errors.New("invalid membership mode")
)

// ParseStatus parses s case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusActive, StatusRejected:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// ParseMode parses s case-insensitively. An empty string is returned as the empty Mode.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	switch m := Mode(strings.ToUpper(s)); m {
	case ModeOfficer, ModeManagement:
		return m, nil
	}
	return "", ErrInvalidMode
}

// IsActive reports whether the membership has been approved.
func (m *Membership) IsActive() bool {
	return m != nil && m.Status == StatusActive
}

// Validate validates the membership for persistence. Returns an error describing the first validation failure.
func (m *Membership) Validate() error {
	if m.UserID == "" {
		return errors.New("user_id is required")
	}
	if m.OrgID == "" {
		return errors.New("org_id is required")
	}
	if m.Status == "" {
		m.Status = StatusPending
	}
	if _, err := ParseStatus(string(m.Status)); err != nil {
		return err
	}
	if _, err := ParseMode(string(m.ActiveMode)); err != nil {
		return err
	}
	return nil
}

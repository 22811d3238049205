package domain

import (
	"errors"
	"strings"
	"time"
)

// Policy is an org-specific Rego module for membership administration.
type Policy struct {
	ID        string
	OrgID     string
	Rules     string
	Enabled   bool
	CreatedAt time.Time
}

// Validate validates the policy for persistence.
func (p *Policy) Validate() error {
	if p.OrgID == "" {
		return errors.New("org_id is required")
	}
	if strings.TrimSpace(p.Rules) == "" {
		return errors.New("rules are required")
	}
	return nil
}

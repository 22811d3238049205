package audit

import (
	"testing"

	"farmgate/backend/internal/audit/domain"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		method, route    string
		action, resource string
	}{
		{"POST", "/v1/membership/:user_id/approve", domain.ActionMembershipApproved, "membership"},
		{"POST", "/v1/membership/:user_id/reject", domain.ActionMembershipRejected, "membership"},
		{"POST", "/v1/membership/join", domain.ActionMembershipRequested, "membership"},
		{"PUT", "/v1/membership/mode", domain.ActionModeSwitched, "membership"},
		{"POST", "/v1/session/sign-out", domain.ActionSignedOut, "session"},
		{"PUT", "/v1/preferences/theme", domain.ActionPreferenceUpdated, "preferences"},
		{"DELETE", "/v1/preferences/theme", "delete", "preferences"},
		{"PATCH", "/v2/widgets/:id", "update", "widgets"},
		{"POST", "", "create", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.route, func(t *testing.T) {
			ar := ParseRoute(tt.method, tt.route)
			if ar.Action != tt.action || ar.Resource != tt.resource {
				t.Errorf("ParseRoute = %+v, want %s/%s", ar, tt.action, tt.resource)
			}
		})
	}
}

func TestAudited(t *testing.T) {
	for _, m := range []string{"POST", "PUT", "PATCH", "DELETE"} {
		if !Audited(m) {
			t.Errorf("Audited(%s) = false", m)
		}
	}
	for _, m := range []string{"GET", "HEAD", "OPTIONS"} {
		if Audited(m) {
			t.Errorf("Audited(%s) = true", m)
		}
	}
}

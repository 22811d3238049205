package rbac

import (
	"context"
	"errors"
	"testing"

	"farmgate/backend/internal/membership/domain"
)

// mockMembershipGetter implements MembershipGetter for tests.
type mockMembershipGetter struct {
	memberships map[string]*domain.Membership
	err         error
}

func (m *mockMembershipGetter) GetMembershipByUser(ctx context.Context, userID string) (*domain.Membership, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.memberships[userID], nil
}

func TestRequireActiveMember(t *testing.T) {
	dbErr := errors.New("db down")
	getter := &mockMembershipGetter{memberships: map[string]*domain.Membership{
		"active":   {UserID: "active", OrgID: "o1", Status: domain.StatusActive},
		"pending":  {UserID: "pending", OrgID: "o1", Status: domain.StatusPending},
		"rejected": {UserID: "rejected", OrgID: "o1", Status: domain.StatusRejected},
	}}

	tests := []struct {
		name    string
		getter  *mockMembershipGetter
		userID  string
		wantErr error
	}{
		{"active", getter, "active", nil},
		{"pending", getter, "pending", ErrNotActive},
		{"rejected", getter, "rejected", ErrNotActive},
		{"none", getter, "ghost", ErrNoMembership},
		{"empty user", getter, "", ErrNoMembership},
		{"lookup failure", &mockMembershipGetter{err: dbErr}, "active", dbErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := RequireActiveMember(context.Background(), tt.getter, tt.userID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (m == nil || m.UserID != tt.userID) {
				t.Errorf("membership = %+v", m)
			}
		})
	}
}

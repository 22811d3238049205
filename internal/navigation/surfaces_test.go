package navigation

import (
	"testing"

	"farmgate/backend/internal/access"
	identitydomain "farmgate/backend/internal/identity/domain"
	membershipdomain "farmgate/backend/internal/membership/domain"
)

func profiles() map[string]access.NavigationProfile {
	ident := &identitydomain.Identity{ID: "u1", Name: "Yaw", Email: "yaw@example.com"}
	m := func(s membershipdomain.Status, mode membershipdomain.Mode) *membershipdomain.Membership {
		return &membershipdomain.Membership{UserID: "u1", OrgID: "o1", Status: s, ActiveMode: mode}
	}
	return map[string]access.NavigationProfile{
		"signed out": access.Resolve(nil, nil, false),
		"loading":    access.Resolve(ident, nil, true),
		"no org":     access.Resolve(ident, nil, false),
		"pending":    access.Resolve(ident, m(membershipdomain.StatusPending, ""), false),
		"rejected":   access.Resolve(ident, m(membershipdomain.StatusRejected, ""), false),
		"officer":    access.Resolve(ident, m(membershipdomain.StatusActive, membershipdomain.ModeOfficer), false),
		"management": access.Resolve(ident, m(membershipdomain.StatusActive, membershipdomain.ModeManagement), false),
	}
}

func TestSurfaces_TabBarAndDrawerAgree(t *testing.T) {
	account := &Account{Name: "Yaw", Email: "yaw@example.com", Organization: "Sunrise Farms"}
	for name, p := range profiles() {
		t.Run(name, func(t *testing.T) {
			tabs := TabBar(p)
			drawer := Drawer(p, account)
			if len(tabs) != len(drawer.Items) {
				t.Fatalf("tab bar has %d items, drawer %d", len(tabs), len(drawer.Items))
			}
			seen := map[access.Destination]bool{}
			for _, it := range tabs {
				seen[it.Destination] = true
			}
			for _, it := range drawer.Items {
				if !seen[it.Destination] {
					t.Errorf("drawer item %s missing from tab bar", it.Destination)
				}
			}
			for i, it := range tabs {
				if it.Destination != p.Destinations[i] {
					t.Errorf("tab %d = %s, want profile order %s", i, it.Destination, p.Destinations[i])
				}
				if !p.Allows(it.Destination) {
					t.Errorf("tab %s not allowed by profile", it.Destination)
				}
			}
		})
	}
}

func TestSurfaces_NonGrantedAreEmpty(t *testing.T) {
	for name, p := range profiles() {
		if p.Granted() {
			continue
		}
		if n := len(TabBar(p)); n != 0 {
			t.Errorf("%s: tab bar has %d items", name, n)
		}
	}
}

func TestDrawer_HeaderAndSignOut(t *testing.T) {
	ps := profiles()
	account := &Account{Name: "Yaw", Email: "yaw@example.com", Organization: "Sunrise Farms"}

	d := Drawer(ps["management"], account)
	if d.Header == nil || d.Header.ModeLabel != "Management" {
		t.Errorf("management header = %+v", d.Header)
	}
	if d.SignOut == nil || d.SignOut.Path != "/sign-out" {
		t.Errorf("sign out item = %+v", d.SignOut)
	}

	d = Drawer(ps["rejected"], account)
	if d.SignOut == nil {
		t.Error("sign out must stay reachable when rejected")
	}
	if d.Header == nil || d.Header.ModeLabel != "" {
		t.Errorf("rejected header should carry no mode: %+v", d.Header)
	}

	d = Drawer(ps["signed out"], account)
	if d.Header != nil || d.SignOut != nil {
		t.Errorf("signed out drawer = %+v, want no header or sign out", d)
	}
}

func TestItemFor(t *testing.T) {
	it := ItemFor(access.DestOrders)
	if it.Label != "Feed Orders" || it.Path != "/orders" {
		t.Errorf("ItemFor(orders) = %+v", it)
	}
}

// Package navigation renders the tab bar and drawer from a NavigationProfile.
//
// Surfaces read only the profile. They never inspect membership status, role or mode fields,
// so the tab bar and drawer cannot disagree for the same session.
package navigation

import (
	"farmgate/backend/internal/access"
	"farmgate/backend/internal/access/guard"
)

// Item is one entry of a navigation surface.
type Item struct {
	Destination access.Destination `json:"destination"`
	Label       string             `json:"label"`
	Icon        string             `json:"icon"`
	Path        string             `json:"path"`
}

type presentation struct {
	label string
	icon  string
}

var catalogue = map[access.Destination]presentation{
	access.DestHome:     {"Home", "home"},
	access.DestOverview: {"Overview", "dashboard"},
	access.DestOfficers: {"Officers", "badge"},
	access.DestFarmers:  {"Farmers", "people"},
	access.DestCycles:   {"Cycles", "autorenew"},
	access.DestOrders:   {"Feed Orders", "local_shipping"},
	access.DestSettings: {"Settings", "settings"},
}

// ItemFor returns the presentation of d.
func ItemFor(d access.Destination) Item {
	p, ok := catalogue[d]
	if !ok {
		p = presentation{label: string(d), icon: "circle"}
	}
	return Item{Destination: d, Label: p.label, Icon: p.icon, Path: guard.DestinationPath(d)}
}

// TabBar returns the tab bar items for profile, in profile order.
func TabBar(profile access.NavigationProfile) []Item {
	return items(profile)
}

// DrawerHeader is the account summary shown at the top of the drawer.
type DrawerHeader struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization,omitempty"`
	ModeLabel    string `json:"mode_label,omitempty"`
}

// DrawerMenu is the drawer surface.
type DrawerMenu struct {
	Header  *DrawerHeader `json:"header,omitempty"`
	Items   []Item        `json:"items"`
	SignOut *Item         `json:"sign_out,omitempty"`
}

// Account is the display-only account information the drawer header shows.
type Account struct {
	Name         string
	Email        string
	Organization string
}

// Drawer returns the drawer for profile. account may be nil when signed out.
func Drawer(profile access.NavigationProfile, account *Account) DrawerMenu {
	menu := DrawerMenu{Items: items(profile)}
	if profile.Verdict == access.VerdictUnauthenticated || account == nil {
		return menu
	}
	menu.Header = &DrawerHeader{Name: account.Name, Email: account.Email, Organization: account.Organization}
	if profile.Granted() {
		menu.Header.ModeLabel = ModeLabel(profile.Mode)
	}
	menu.SignOut = &Item{Label: "Sign out", Icon: "logout", Path: guard.ScreenSignOut.Path()}
	return menu
}

// ModeLabel returns the human label of a mode.
func ModeLabel(m access.Mode) string {
	switch m {
	case access.ModeManagement:
		return "Management"
	case access.ModeOfficer:
		return "Officer"
	}
	return ""
}

func items(profile access.NavigationProfile) []Item {
	if !profile.Granted() {
		return []Item{}
	}
	out := make([]Item, 0, len(profile.Destinations))
	for _, d := range profile.Destinations {
		out = append(out, ItemFor(d))
	}
	return out
}

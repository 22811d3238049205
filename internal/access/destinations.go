package access

import "slices"

// Destination identifies a top-level navigation destination.
type Destination string

const (
	DestHome     Destination = "home"
	DestOverview Destination = "overview"
	DestOfficers Destination = "officers"
	DestFarmers  Destination = "farmers"
	DestCycles   Destination = "cycles"
	DestOrders   Destination = "orders"
	DestSettings Destination = "settings"
)

// destinationSets is the static mode → destinations table. The first entry is the landing
// destination; Home and Overview occupy the same slot and never appear together.
var destinationSets = map[Mode][]Destination{
	ModeOfficer:    {DestHome, DestCycles, DestFarmers, DestOrders, DestSettings},
	ModeManagement: {DestOverview, DestOfficers, DestFarmers, DestCycles, DestOrders, DestSettings},
}

// DestinationsFor returns a copy of the destination set registered for mode, or nil for an unknown mode.
func DestinationsFor(mode Mode) []Destination {
	return slices.Clone(destinationSets[mode])
}

// AllDestinations returns every known destination, landing slot first.
func AllDestinations() []Destination {
	return []Destination{DestHome, DestOverview, DestOfficers, DestFarmers, DestCycles, DestOrders, DestSettings}
}

// ParseDestination returns the destination named s and true, or "", false.
func ParseDestination(s string) (Destination, bool) {
	d := Destination(s)
	if slices.Contains(AllDestinations(), d) {
		return d, true
	}
	return "", false
}

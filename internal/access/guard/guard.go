// Package guard enforces a NavigationProfile on every navigation intent, including deep links
// and the initial launch route.
package guard

import (
	"strings"

	"farmgate/backend/internal/access"
)

// Screen is a canonical non-destination screen the guard redirects to.
type Screen string

const (
	ScreenSignIn  Screen = "sign-in"
	ScreenStatus  Screen = "status"
	ScreenLoading Screen = "loading"
	ScreenSignOut Screen = "sign-out"
)

// Path returns the route path of the screen.
func (s Screen) Path() string { return "/" + string(s) }

// DestinationPath returns the route path of a destination.
func DestinationPath(d access.Destination) string { return "/" + string(d) }

// Decision is the outcome of evaluating one navigation intent.
type Decision struct {
	Allowed bool
	// Destination is set when the request targets a destination (allowed or not).
	Destination access.Destination
	// Screen is set when the request targets a canonical screen that is allowed.
	Screen Screen
	// RedirectTo is the path to navigate to instead; empty when Allowed.
	RedirectTo string
	Verdict    access.Verdict
}

// Evaluate decides whether path may render under profile. It is pure: repeated evaluation with an
// unchanged profile yields the same decision, and the redirect target of a decision is always
// allowed, so following redirects never loops.
func Evaluate(profile access.NavigationProfile, path string) Decision {
	root := rootSegment(path)
	d := Decision{Verdict: profile.Verdict}

	if dest, ok := access.ParseDestination(root); ok {
		d.Destination = dest
		if profile.Allows(dest) {
			d.Allowed = true
			return d
		}
		d.RedirectTo = Canonical(profile)
		return d
	}

	switch screen := Screen(root); screen {
	case ScreenSignIn, ScreenStatus, ScreenLoading:
		if canonicalScreen(profile.Verdict) == screen {
			d.Allowed, d.Screen = true, screen
			return d
		}
	case ScreenSignOut:
		if profile.Verdict != access.VerdictUnauthenticated {
			d.Allowed, d.Screen = true, screen
			return d
		}
	}
	d.RedirectTo = Canonical(profile)
	return d
}

// Canonical returns the path a profile lands on: the landing destination when granted, otherwise
// the canonical screen for the verdict.
func Canonical(profile access.NavigationProfile) string {
	if profile.Granted() {
		if l := profile.Landing(); l != "" {
			return DestinationPath(l)
		}
	}
	return canonicalScreen(profile.Verdict).Path()
}

func canonicalScreen(v access.Verdict) Screen {
	switch v {
	case access.VerdictUnauthenticated:
		return ScreenSignIn
	case access.VerdictPending, access.VerdictRejected:
		return ScreenStatus
	case access.VerdictGranted:
		return ""
	default:
		return ScreenLoading
	}
}

// rootSegment returns the lower-cased first path segment, ignoring any query or fragment and an
// optional app scheme prefix such as "farmapp://".
func rootSegment(path string) string {
	if i := strings.Index(path, "://"); i >= 0 {
		path = path[i+3:]
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/ ")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return strings.ToLower(path)
}

package audit

import (
	"net/http"
	"strings"

	"farmgate/backend/internal/audit/domain"
)

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

var routeOverrides = map[string]ActionResource{
	"POST /v1/membership/join":             {domain.ActionMembershipRequested, "membership"},
	"POST /v1/membership/:user_id/approve": {domain.ActionMembershipApproved, "membership"},
	"POST /v1/membership/:user_id/reject":  {domain.ActionMembershipRejected, "membership"},
	"POST /v1/membership/refresh":          {domain.ActionMembershipRefreshed, "membership"},
	"PUT /v1/membership/mode":              {domain.ActionModeSwitched, "membership"},
	"POST /v1/session/sign-out":            {domain.ActionSignedOut, "session"},
	"PUT /v1/preferences/theme":            {domain.ActionPreferenceUpdated, "preferences"},
}

// Audited reports whether requests with method are audited. Only mutations are.
func Audited(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// ParseRoute returns action and resource for a route template (e.g. "PUT", "/v1/membership/mode").
// Unlisted routes derive the resource from the first segment after the version and the action from the method.
func ParseRoute(method, route string) ActionResource {
	if ar, ok := routeOverrides[method+" "+route]; ok {
		return ar
	}
	segments := strings.Split(strings.Trim(route, "/"), "/")
	if len(segments) > 0 && strings.HasPrefix(segments[0], "v") {
		segments = segments[1:]
	}
	resource := "unknown"
	if len(segments) > 0 && segments[0] != "" {
		resource = segments[0]
	}
	return ActionResource{Action: methodToAction(method), Resource: resource}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodGet:
		return "get"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

const (
	unknownRoute          = "unknown"
	methodNotAllowedRoute = "method_not_allowed"
)

// RouteMatcher names the route a request is for, keeping metric labels and span names bounded
type RouteMatcher interface {
	Match(r *http.Request) string
}

// MuxRouteMatcher names requests after the mux route they match
type MuxRouteMatcher struct {
	Router *mux.Router
}

// Match returns the name of the matched route, its path template if it has no name, or a placeholder when nothing matched
func (m *MuxRouteMatcher) Match(r *http.Request) string {
	var match mux.RouteMatch
	matched := m.Router.Match(r, &match)

	if errors.Is(match.MatchErr, mux.ErrMethodMismatch) {
		return methodNotAllowedRoute
	}

	if !matched {
		return unknownRoute
	}

	// A router with a NotFoundHandler matches everything, without a route
	if match.Route == nil {
		return unknownRoute
	}

	if name := match.Route.GetName(); name != "" {
		return name
	}

	if tmpl, err := match.Route.GetPathTemplate(); err == nil {
		return tmpl
	}

	return unknownRoute
}

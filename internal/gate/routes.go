package gate

import "strings"

// Page routes the gate makes decisions about. Kept in one place so the
// middleware and the handlers never drift apart.
const (
	RouteRoot      = "/"
	RouteLogin     = "/login"
	RouteRegister  = "/register"
	RouteHome      = "/home"
	RouteMyCourses = "/myCourses"
	RouteCourse    = "/course" // detail pages live under /course/{id}
	RouteAdmin     = "/admin"
)

// classification of a request path, resolved before any handler runs.
type routeClass int

const (
	classOpen routeClass = iota
	classPublicAuth
	classProtected
	classProtectedAdmin
)

func classify(path string) routeClass {
	switch path {
	case RouteLogin, RouteRegister:
		return classPublicAuth
	case RouteMyCourses:
		return classProtected
	}
	if strings.HasPrefix(path, RouteCourse+"/") {
		return classProtected
	}
	if path == RouteAdmin || strings.HasPrefix(path, RouteAdmin+"/") {
		return classProtectedAdmin
	}
	return classOpen
}

// bypassed paths never reach the auth logic.
func bypassed(path string) bool {
	return strings.HasPrefix(path, "/static/") || path == "/favicon.ico"
}

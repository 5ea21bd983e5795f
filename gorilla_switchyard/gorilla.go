// Package gorilla_switchyard connects switchyard to a gorilla/mux router.
package gorilla_switchyard

import (
	"net/http"

	"github.com/augustoroman/switchyard"
	"github.com/gorilla/mux"
)

// Matcher matches the requests that one of r's routes matches.
func Matcher(r *switchyard.Router) mux.MatcherFunc {
	return func(req *http.Request, _ *mux.RouteMatch) bool {
		m, err := r.Collection.Match(switchyard.TargetOf(switchyard.NewHTTPRequest(req)))
		return err == nil && m != nil
	}
}

// Mount adds a route to m that sends every request r can match to r.
// Routes registered on m before Mount take precedence.
func Mount(m *mux.Router, r *switchyard.Router) *mux.Route {
	return m.MatcherFunc(Matcher(r)).Handler(r)
}

// Handler returns an http.Handler that dispatches action through r's
// autoloaded middleware plus the given middleware tokens, with mux doing the
// matching.  The mux vars are the named params of the context and the
// handler gets no positional params:
//
//	m.Handle("/users/{id:[0-9]+}", gorilla_switchyard.Handler(r, "User@show"))
func Handler(r *switchyard.Router, action any, middleware ...string) http.Handler {
	route := switchyard.NewRoute("", action, middleware...)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.ServeMatch(w, req, &switchyard.Match{Route: route, Named: mux.Vars(req)})
	})
}

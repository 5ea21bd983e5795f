// Package martini_switchyard runs switchyard routes inside a martini app.
package martini_switchyard

import (
	"net/http"
	"sort"

	"github.com/augustoroman/switchyard"
	"github.com/go-martini/martini"
)

// Handler returns a martini middleware that dispatches requests matching one
// of r's routes and passes everything else on to the next martini handler:
//
//	m := martini.Classic()
//	m.Use(martini_switchyard.Handler(r))
func Handler(r *switchyard.Router) martini.Handler {
	return func(c martini.Context, w http.ResponseWriter, req *http.Request) {
		m, err := r.Collection.Match(switchyard.TargetOf(switchyard.NewHTTPRequest(req)))
		if err != nil || m == nil {
			c.Next()
			return
		}
		r.ServeMatch(w, req, m)
	}
}

// Route returns a martini handler that dispatches action through r's
// autoloaded middleware plus the given middleware tokens, with martini doing
// the matching.  The martini params are the named params of the context;
// the handler params are their values, ordered by param name.
func Route(r *switchyard.Router, action any, middleware ...string) martini.Handler {
	route := switchyard.NewRoute("", action, middleware...)
	return func(w http.ResponseWriter, req *http.Request, p martini.Params) {
		m := &switchyard.Match{Route: route, Named: map[string]string(p)}
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Params = append(m.Params, p[k])
		}
		r.ServeMatch(w, req, m)
	}
}

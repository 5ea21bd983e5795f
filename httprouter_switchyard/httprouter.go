// Package httprouter_switchyard connects switchyard to httprouter, either as
// the fallback for paths httprouter does not know, or route by route with
// httprouter doing the matching.
package httprouter_switchyard

import (
	"net/http"

	"github.com/augustoroman/switchyard"
	"github.com/julienschmidt/httprouter"
)

// Mount makes r handle every request hr has no route for.
func Mount(hr *httprouter.Router, r *switchyard.Router) {
	hr.NotFound = r
}

// Handle returns an httprouter handle that dispatches action through r's
// autoloaded middleware plus the given middleware tokens.  The httprouter
// params become the handler params, in path order, and the named params of
// the context:
//
//	hr := httprouter.New()
//	hr.GET("/say/:greeting/:name", httprouter_switchyard.Handle(r, greet))
//
//	func greet(c *switchyard.Context, p []string) (string, error) {
//	    return p[0] + " " + c.Param("name"), nil
//	}
func Handle(r *switchyard.Router, action any, middleware ...string) httprouter.Handle {
	route := switchyard.NewRoute("", action, middleware...)
	return func(w http.ResponseWriter, req *http.Request, p httprouter.Params) {
		m := &switchyard.Match{Route: route, Named: make(map[string]string, len(p))}
		for _, param := range p {
			m.Params = append(m.Params, param.Value)
			m.Named[param.Key] = param.Value
		}
		r.ServeMatch(w, req, m)
	}
}

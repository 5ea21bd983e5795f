// Package switchyard is a request router and middleware dispatcher for web
// and console applications.
//
// Routes are declared on a Collection, usually inside nested groups that
// add a path prefix, a host, middleware or a request type to every route
// registered within them.  A request is matched against the routes of its
// verb in registration order; the first route whose pattern matches wins.
// The route's middleware then runs around its handler.
//
// # Example
//
// Here's a simple complete program using switchyard:
//
//	package main
//
//	import (
//	    "log"
//	    "net/http"
//
//	    "github.com/augustoroman/switchyard"
//	)
//
//	func main() {
//	    r := switchyard.TheUsual()
//	    r.GET("/hello/{name:alpha}", func(c *switchyard.Context, params []string) (string, error) {
//	        return "Hello " + params[0] + "!", nil
//	    })
//	    if err := http.ListenAndServe(":6060", r); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Patterns
//
// A route uri is a template.  Placeholders are written {name} or
// {name:pattern}, where pattern names a fragment registered with
// Collection.Patterns (DefaultPatterns provides any, num, alpha and
// alphanum) or set on the route with Route.Where.  Everything else in the
// template is a regular expression, and the compiled expression is anchored
// and case-insensitive.
//
//	c.Patterns(map[string]string{"slug": "[a-z0-9-]+"})
//	c.GET("/post/{id:num}/{slug}", "Post@show(slug, id)")
//
// Placeholders with no pattern registered are left in the expression as
// written and logged.
//
// # Actions
//
// A route runs either a closure (a HandlerFunc or any Handler) or a
// controller method named "Controller@method".  Controllers are registered
// on Router.Controllers by name; a new controller is built for every
// request.  Unknown controllers and methods are reported by
// Collection.Refresh and fail the requests that reach them.
//
// Handlers receive the captured values in capture order, or in the order
// the action declares: "Post@show(slug, id)" passes the slug first.
//
// # Middleware
//
// Middleware is registered on the Router under a name, and routes refer to
// it by token: "auth" or "role:admin", where the part after the colon is
// handed to the middleware factory.  The autoload list (RegisterAutoload or
// the "router.autoload" config key) runs before every route's own tokens.
// Tokens naming unregistered middleware are skipped.
//
// Each middleware gets a next func.  Not calling it, or returning Done, ends
// the request phase without running the handler.  Middleware implementing
// Terminator runs again once the body is produced, in the same order.
//
//	r.RegisterMiddleware("role", func(role string) switchyard.Middleware {
//	    return switchyard.MiddlewareFunc(func(c *switchyard.Context, next switchyard.Next) error {
//	        if !hasRole(c, role) {
//	            return switchyard.Error{Code: 403, ClientMsg: "Forbidden"}
//	        }
//	        return next()
//	    })
//	})
//
// # Errors
//
// A handler or middleware error aborts the request.  When serving HTTP the
// error becomes the response through HandleError: an Error picks the status
// code and the message sent to the client, and anything else is a 500.
// Panics are recovered and reported as chain.PanicError.
//
// Unmatched requests are not errors.  They get a 404 status and are handed
// to the "index" method of the errors controller ("Error" unless configured
// otherwise).
//
// # Logging
//
// TheUsual registers the "log" middleware, which writes one colored line per
// request to stderr.  Handlers can add notes to it:
//
//	switchyard.LogEntryOf(c).Note["user"] = userID
//
// Router diagnostics go to the reco logger in Router.Logger, and the
// prometheus collectors in Router.Metrics count matches and failures.
package switchyard

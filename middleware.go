package switchyard

import (
	"strings"

	"github.com/augustoroman/switchyard/chain"
	"github.com/spf13/cast"
)

// Next continues the request phase.  See chain.Next.
type Next = chain.Next

// Middleware runs during the request phase.  It calls next to continue with
// the rest of the chain and the handler; returning without calling next
// short-circuits the request, skipping the handler.
type Middleware interface {
	Handle(c *Context, next Next) error
}

// Terminator is implemented by middleware that needs to run after the
// response body has been produced, typically to set cookies or headers or
// to clean up.  Terminate hooks run in the same order as the request phase.
type Terminator interface {
	Terminate(c *Context)
}

// MiddlewareFunc adapts a func to Middleware.
type MiddlewareFunc func(c *Context, next Next) error

func (f MiddlewareFunc) Handle(c *Context, next Next) error { return f(c, next) }

// MiddlewareFactory builds the middleware instance for one request.  param
// is the part of the route token after the first colon, e.g. "admin" for
// "role:admin", or "" if the token has none.
type MiddlewareFactory func(param string) Middleware

// Static returns a factory that always hands out m, ignoring the token
// parameter.
func Static(m Middleware) MiddlewareFactory {
	return func(string) Middleware { return m }
}

// Wrap is a middleware made of two funcs: Before runs during the request
// phase and After runs during the terminate phase.  Either may be nil.  If
// Before returns an error the request phase is aborted.
type Wrap struct {
	Before func(c *Context) error
	After  func(c *Context)
}

func (w Wrap) Handle(c *Context, next Next) error {
	if w.Before != nil {
		if err := w.Before(c); err != nil {
			return err
		}
	}
	return next()
}

func (w Wrap) Terminate(c *Context) {
	if w.After != nil {
		w.After(c)
	}
}

// MiddlewareRef is one resolved middleware token.
type MiddlewareRef struct {
	Name  string
	Param string
}

func (m MiddlewareRef) String() string {
	if m.Param == "" {
		return m.Name
	}
	return m.Name + ":" + m.Param
}

// ParseMiddleware splits a "name" or "name:param" token on the first colon.
func ParseMiddleware(token string) MiddlewareRef {
	name, param, _ := strings.Cut(token, ":")
	return MiddlewareRef{Name: strings.TrimSpace(name), Param: param}
}

// RegisterMiddleware makes factory available under name to route middleware
// tokens and to the autoload list.  Empty names and nil factories are
// ignored.  Registering a name again replaces the factory.
func (rt *Router) RegisterMiddleware(name string, factory MiddlewareFactory) *Router {
	if name == "" || factory == nil {
		return rt
	}
	rt.middleware[name] = factory
	return rt
}

// RegisterAutoload appends middleware tokens that run before the route's
// own middleware on every request.  Empty and duplicate tokens are ignored.
// A "router.autoload" config value replaces this list.
func (rt *Router) RegisterAutoload(tokens ...string) *Router {
	for _, tok := range tokens {
		if tok == "" || contains(rt.autoload, tok) {
			continue
		}
		rt.autoload = append(rt.autoload, tok)
	}
	return rt
}

// Autoload returns the tokens run before every route's middleware.
func (rt *Router) Autoload() []string {
	return cast.ToStringSlice(rt.Config.Get("router.autoload", rt.autoload))
}

// ResolveMiddleware lists the middleware to run for r: the autoload tokens
// first, then the route's tokens, in order.  Tokens naming unregistered
// middleware are left out.
func (rt *Router) ResolveMiddleware(r *Route) []MiddlewareRef {
	var refs []MiddlewareRef
	for _, tokens := range [][]string{rt.Autoload(), r.middleware} {
		for _, tok := range tokens {
			ref := ParseMiddleware(tok)
			if _, ok := rt.middleware[ref.Name]; !ok {
				rt.diag.skippedMiddleware(r, ref)
				continue
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

// links instantiates the middleware of refs for one request.
func (rt *Router) links(refs []MiddlewareRef) []chain.Link[*Context] {
	links := make([]chain.Link[*Context], 0, len(refs))
	for _, ref := range refs {
		m := rt.middleware[ref.Name](ref.Param)
		if m == nil {
			continue
		}
		link := chain.Link[*Context]{Name: ref.String(), Handle: m.Handle}
		if t, ok := m.(Terminator); ok {
			link.Terminate = t.Terminate
		}
		links = append(links, link)
	}
	return links
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

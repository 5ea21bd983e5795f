package switchyard

import (
	"bytes"
	"context"

	"github.com/fenthope/reco"
)

// Context is the per-request state handed to middleware and handlers.  It
// replaces any process-wide "current application" lookup: everything a
// handler needs hangs off of it.
type Context struct {
	Ctx      context.Context
	Request  Request
	Response Response
	Config   Config
	// Match is set by Router.Match.
	Match *Match
	// Output collects whatever the handler writes directly.  It is trimmed
	// and prepended to the returned body.
	Output *bytes.Buffer
	Logger *reco.Logger

	router *Router
	values map[string]any
}

// NewContext returns a context for req and resp.  A nil ctx is replaced by
// context.Background().
func NewContext(ctx context.Context, req Request, resp Response) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		Ctx:      ctx,
		Request:  req,
		Response: resp,
		Config:   MapConfig{},
		Output:   &bytes.Buffer{},
	}
}

// Route is the matched route, or nil before matching.
func (c *Context) Route() *Route {
	if c.Match == nil {
		return nil
	}
	return c.Match.Route
}

// Param returns the value captured for a placeholder of the matched route.
func (c *Context) Param(name string) string { return c.Match.Param(name) }

// Params are the handler arguments of the matched route.
func (c *Context) Params() []string {
	if c.Match == nil {
		return nil
	}
	return c.Match.Params
}

// RouteIs reports whether the matched route is named name.
func (c *Context) RouteIs(name string) bool {
	r := c.Route()
	return r != nil && r.name != "" && r.name == name
}

// Set stores a per-request value for later middleware or the handler.
func (c *Context) Set(key string, val any) {
	if c.values == nil {
		c.values = map[string]any{}
	}
	c.values[key] = val
}

// Get returns a value stored with Set.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Router is the router dispatching this request, or nil outside of dispatch.
func (c *Context) Router() *Router { return c.router }

// Handler is the final handler of a route.  It receives the matched
// parameters and returns the response body.
type Handler interface {
	Invoke(c *Context, params []string) (string, error)
}

// HandlerFunc adapts a func to Handler.
type HandlerFunc func(c *Context, params []string) (string, error)

func (f HandlerFunc) Invoke(c *Context, params []string) (string, error) {
	return f(c, params)
}

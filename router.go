package switchyard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/augustoroman/switchyard/chain"
	"github.com/fenthope/reco"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel/trace"
)

// DefaultErrorsController is the controller dispatched for unmatched requests
// unless "router.errors" says otherwise.  Its "index" method runs with the
// response status already set to 404.
const DefaultErrorsController = "Error"

// Router matches requests against its route Collection and dispatches them
// through the route's middleware into the route's handler.
//
// Routes are registered through the embedded Collection:
//
//	r := switchyard.TheUsual()
//	r.Controllers.Register("Post", newPostController)
//	r.Prefix("/blog", func(c *switchyard.Collection) {
//	    c.GET("/{id:num}", "Post@show").Name("post.show")
//	})
//	http.ListenAndServe(":8080", r)
type Router struct {
	*Collection

	Controllers *Controllers
	Config      Config
	// Logger receives diagnostics; nil disables them.
	Logger *reco.Logger
	// Metrics is updated on every dispatch; nil disables it.
	Metrics *Metrics
	Tracer  trace.Tracer

	middleware map[string]MiddlewareFactory
	autoload   []string
	errorsCtrl string
	diag       *diagnostics
}

// New returns a router with no middleware.  Until an "Error" controller is
// registered, unmatched requests get the status text as body.
func New() *Router {
	rt := &Router{
		Collection:  NewCollection(),
		Controllers: NewControllers(),
		Config:      MapConfig{},
		Tracer:      defaultTracer(),
		middleware:  map[string]MiddlewareFactory{},
	}
	rt.diag = &diagnostics{rt}
	rt.Collection.diag = rt.diag
	rt.Collection.resolve = rt.resolveRoute
	rt.Controllers.owner = rt.Collection
	return rt
}

// TheUsual returns a router that logs every request: the "log" middleware
// (LogRequests) is registered and autoloaded.  "nolog" (NoLog) and "gzip"
// (Gzip) are registered for routes to opt into.
func TheUsual() *Router {
	rt := New()
	rt.RegisterMiddleware("log", Static(LogRequests))
	rt.RegisterMiddleware("nolog", Static(NoLog))
	rt.RegisterMiddleware("gzip", Static(Gzip))
	rt.RegisterAutoload("log")
	return rt
}

func statusText(c *Context, _ []string) (string, error) {
	code := c.Response.StatusCode()
	return fmt.Sprintf("%d %s\n", code, http.StatusText(code)), nil
}

// Register applies settings: patterns are added to the collection, autoload
// tokens are appended, and the controller namespace and errors controller
// are set when not empty.
func (rt *Router) Register(s Settings) *Router {
	if len(s.Patterns) > 0 {
		rt.Patterns(s.Patterns)
	}
	rt.RegisterAutoload(s.Autoload...)
	if s.Controllers != "" {
		rt.Controllers.Namespace = s.Controllers
		rt.markDirty()
	}
	if s.Errors != "" {
		rt.errorsCtrl = s.Errors
	}
	return rt
}

// Configure makes cfg the router's config and registers the settings of its
// "router" section.
func (rt *Router) Configure(cfg Config) error {
	s, err := decodeSettings(cfg)
	if err != nil {
		return err
	}
	rt.Config = cfg
	rt.Register(s)
	return nil
}

// ErrorsController is the controller dispatched for unmatched requests: the
// "router.errors" config value, else the registered Settings.Errors, else
// DefaultErrorsController.
func (rt *Router) ErrorsController() string {
	def := rt.errorsCtrl
	if def == "" {
		def = DefaultErrorsController
	}
	name := cast.ToString(rt.Config.Get("router.errors", def))
	if name == "" {
		return DefaultErrorsController
	}
	return name
}

func (rt *Router) resolveRoute(r *Route) (Handler, error) {
	if r.action.IsClosure() {
		return r.action.Closure, nil
	}
	return rt.Controllers.Resolve(r.action)
}

// Match matches the request of c and stores the result in c.Match.  A
// request that matches nothing gets a 404 status and a route to the errors
// controller.  The only error is a *PatternError from a route whose pattern
// does not compile.
func (rt *Router) Match(c *Context) error {
	t := TargetOf(c.Request)
	m, err := rt.Collection.Match(t)
	if err != nil {
		return err
	}
	if m == nil {
		rt.diag.notFound(t)
		c.Response.SetStatusCode(http.StatusNotFound)
		r := notFoundRoute(rt.ErrorsController())
		r.handler, r.resolveErr = rt.resolveRoute(r)
		if errors.Is(r.resolveErr, ErrControllerNotFound) && r.action.Controller == DefaultErrorsController {
			r.handler, r.resolveErr = HandlerFunc(statusText), nil
		}
		m = &Match{Route: r, Named: map[string]string{}, NotFound: true}
	} else {
		rt.Metrics.matched(t.Method, m.Route)
	}
	c.Match = m
	return nil
}

// Run dispatches the matched route of c: the middleware request phase, the
// handler, then the terminate phase.  A middleware that does not call next
// (or returns Done) skips the handler; the terminate phase still runs.
//
// Unknown controllers or methods, handler errors and panics are returned
// and the terminate phase is skipped.
func (rt *Router) Run(c *Context) error {
	r := c.Route()
	if r == nil {
		return errors.New("switchyard: Run called before Match")
	}
	c.router = rt
	if c.Logger == nil {
		c.Logger = rt.Logger
	}

	ch := chain.New[*Context]().Then(rt.links(rt.ResolveMiddleware(r))...)
	_, err := ch.Run(c, func(c *Context) error { return rt.invoke(c, r) })
	if errors.Is(err, Done) {
		err = nil
	}
	if err != nil {
		return err
	}
	return ch.Terminate(c)
}

// invoke calls the route handler and hands its output and body to the
// response.
func (rt *Router) invoke(c *Context, r *Route) error {
	if r.resolveErr != nil {
		return r.resolveErr
	}
	if r.handler == nil {
		return fmt.Errorf("route %s has no handler", r)
	}
	content, err := r.handler.Invoke(c, c.Params())
	if err != nil {
		return err
	}
	c.Response.SetOutput(strings.TrimLeft(c.Output.String(), " \t\n\r\x00\x0B"))
	c.Response.SetBody(content)
	return nil
}

// Dispatch matches and runs one request, tracing and timing it.  The
// response is filled in but not sent.
func (rt *Router) Dispatch(ctx context.Context, req Request, resp Response) (*Context, error) {
	return rt.dispatch(ctx, req, resp, rt.Match)
}

// DispatchMatch runs m for req without matching, for routes that were
// matched by another router.  m.Route is usually built with NewRoute.
func (rt *Router) DispatchMatch(ctx context.Context, req Request, resp Response, m *Match) (*Context, error) {
	return rt.dispatch(ctx, req, resp, func(c *Context) error {
		r := *m.Route
		r.handler, r.resolveErr = rt.resolveRoute(&r)
		c.Match = &Match{Route: &r, Params: m.Params, Named: m.Named, NotFound: m.NotFound}
		if c.Match.Named == nil {
			c.Match.Named = map[string]string{}
		}
		return nil
	})
}

func (rt *Router) dispatch(ctx context.Context, req Request, resp Response, match func(*Context) error) (*Context, error) {
	c := NewContext(ctx, req, resp)
	c.Config = rt.Config
	c.Logger = rt.Logger

	t := TargetOf(req)
	tracer := rt.Tracer
	if tracer == nil {
		tracer = defaultTracer()
	}
	spanCtx, span := startSpan(c.Ctx, tracer, t)
	c.Ctx = spanCtx

	start := time_Now()
	err := match(c)
	if err == nil {
		err = rt.Run(c)
	}
	rt.Metrics.dispatched(time_Now().Sub(start).Seconds(), err)
	if err != nil {
		rt.diag.dispatchFailed(t, err)
	}
	endSpan(span, c, err)
	return c, err
}

// ServeHTTP dispatches r and sends the response.  Dispatch errors are turned
// into error responses by HandleError and recorded on the request log.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := NewHTTPResponse(w)
	c, err := rt.Dispatch(r.Context(), NewHTTPRequest(r), resp)
	rt.send(c, resp, err)
}

// ServeMatch is ServeHTTP for a route matched by another router.
func (rt *Router) ServeMatch(w http.ResponseWriter, r *http.Request, m *Match) {
	resp := NewHTTPResponse(w)
	c, err := rt.DispatchMatch(r.Context(), NewHTTPRequest(r), resp, m)
	rt.send(c, resp, err)
}

func (rt *Router) send(c *Context, resp *HTTPResponse, err error) {
	if err != nil {
		_, logged := c.Get(logEntryKey)
		entry := LogEntryOf(c)
		HandleError(resp, entry, err)
		if logged {
			defer entry.Commit(resp)
		}
	}
	if err := resp.Send(); err != nil {
		rt.diag.dispatchFailed(TargetOf(c.Request), err)
	}
}

// Call dispatches a console invocation, e.g. Call(ctx, os.Stdout, "cache",
// "clear") for the path "/cache/clear", and writes the response to w.
func (rt *Router) Call(ctx context.Context, w io.Writer, args ...string) (*Context, error) {
	return rt.CallRequest(ctx, w, ConsoleRequest{Args: args})
}

// CallRequest is Call for a console request that also names a host, for
// domain scoped console routes.
func (rt *Router) CallRequest(ctx context.Context, w io.Writer, req ConsoleRequest) (*Context, error) {
	resp := NewBufferedResponse(w)
	c, err := rt.Dispatch(ctx, req, resp)
	if err != nil {
		return c, err
	}
	return c, resp.Send()
}

package switchyard

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Collection holds every registered route and matches requests against them.
//
// Routes are registered through Add and its shorthands, optionally inside
// groups that scope a prefix, domain, middleware or request type to every
// route registered within:
//
//	c.Prefix("/admin", func(c *switchyard.Collection) {
//	    c.Middleware([]string{"auth"}, func(c *switchyard.Collection) {
//	        c.GET("/dashboard", "Dashboard@index")
//	    })
//	})
//
// Registration is not safe for concurrent use.  Once registration is done,
// Match may be called from any number of goroutines.
type Collection struct {
	mu     sync.RWMutex
	dirty  bool
	routes []*Route
	tables map[string]*methodTable
	names  map[string]*Route

	patterns map[string]string

	middlewareStack [][]string
	prefixStack     []string
	domainStack     []string
	typeStack       [][]RequestType

	// resolve binds a route action to its handler during Refresh.
	resolve func(*Route) (Handler, error)
	diag    *diagnostics
}

// NewCollection returns an empty collection with the DefaultPatterns.
func NewCollection() *Collection {
	c := &Collection{
		tables:   map[string]*methodTable{},
		names:    map[string]*Route{},
		patterns: map[string]string{},
	}
	for k, v := range DefaultPatterns {
		c.patterns[k] = v
	}
	return c
}

// methodTable is the compiled lookup table of one verb: compiled expression
// to route, in registration order.
type methodTable struct {
	order []string
	byKey map[string]*Route
}

func (t *methodTable) put(key string, r *Route) {
	if _, exists := t.byKey[key]; !exists {
		t.order = append(t.order, key)
	}
	t.byKey[key] = r
}

func (t *methodTable) routes() []*Route {
	if t == nil {
		return nil
	}
	out := make([]*Route, len(t.order))
	for i, k := range t.order {
		out[i] = t.byKey[k]
	}
	return out
}

func (c *Collection) markDirty() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// Add registers a route.  methods may be empty, in which case the route is
// registered under every verb.  action is a controller action string (see
// ParseAction), an Action, a Handler, a HandlerFunc or a plain
// func(*Context, []string) (string, error).
//
// Add panics if the action is invalid.
func (c *Collection) Add(methods []string, uri string, action any) *Route {
	a, err := toAction(action)
	if err != nil {
		panic(fmt.Errorf("cannot register route %#q: %w", uri, err))
	}

	r := &Route{
		owner:      c,
		methods:    normalizeMethods(methods),
		uri:        joinPath(append(append([]string(nil), c.prefixStack...), uri)...),
		prefixes:   append([]string(nil), c.prefixStack...),
		middleware: flatten(c.middlewareStack),
		types:      AllRequestTypes,
		action:     a,
	}
	if n := len(c.domainStack); n > 0 {
		r.domain = c.domainStack[n-1]
	}
	if n := len(c.typeStack); n > 0 {
		r.types = c.typeStack[n-1]
	}

	c.mu.Lock()
	c.routes = append(c.routes, r)
	c.dirty = true
	c.mu.Unlock()
	return r
}

// normalizeMethods uppercases methods.  If none of them is a known verb the
// route answers to every verb.
func normalizeMethods(methods []string) []string {
	known := false
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		for _, v := range Methods {
			if m == v {
				known = true
			}
		}
		out = append(out, m)
	}
	if !known {
		return append([]string(nil), Methods...)
	}
	return out
}

func flatten(stack [][]string) []string {
	var out []string
	for _, frame := range stack {
		out = append(out, frame...)
	}
	return out
}

// GET registers a route for the GET verb.
func (c *Collection) GET(uri string, action any) *Route {
	return c.Add([]string{http.MethodGet}, uri, action)
}

// POST registers a route for the POST verb.
func (c *Collection) POST(uri string, action any) *Route {
	return c.Add([]string{http.MethodPost}, uri, action)
}

// PUT registers a route for the PUT verb.
func (c *Collection) PUT(uri string, action any) *Route {
	return c.Add([]string{http.MethodPut}, uri, action)
}

// DELETE registers a route for the DELETE verb.
func (c *Collection) DELETE(uri string, action any) *Route {
	return c.Add([]string{http.MethodDelete}, uri, action)
}

// OPTIONS registers a route for the OPTIONS verb.
func (c *Collection) OPTIONS(uri string, action any) *Route {
	return c.Add([]string{http.MethodOptions}, uri, action)
}

// HEAD registers a route for the HEAD verb.
func (c *Collection) HEAD(uri string, action any) *Route {
	return c.Add([]string{http.MethodHead}, uri, action)
}

// Any registers a route for every verb.
func (c *Collection) Any(uri string, action any) *Route {
	return c.Add(nil, uri, action)
}

// Patterns registers placeholder fragments.  Names that are already
// registered keep their current fragment.
func (c *Collection) Patterns(patterns map[string]string) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, regex := range patterns {
		if _, exists := c.patterns[name]; !exists {
			c.patterns[name] = regex
		}
	}
	c.dirty = true
	return c
}

// Middleware attaches middleware tokens ("name" or "name:param") to every
// route registered by group.  Without a group the tokens apply to every
// route registered afterwards.
func (c *Collection) Middleware(names []string, group ...func(*Collection)) *Collection {
	c.middlewareStack = append(c.middlewareStack, names)
	c.scope(group, func() { c.middlewareStack = c.middlewareStack[:len(c.middlewareStack)-1] })
	return c
}

// Prefix prepends prefix to the uri of every route registered by group.
// Nested prefixes concatenate, outer first.  Without a group the prefix
// applies to every route registered afterwards.
func (c *Collection) Prefix(prefix string, group ...func(*Collection)) *Collection {
	c.prefixStack = append(c.prefixStack, prefix)
	c.scope(group, func() { c.prefixStack = c.prefixStack[:len(c.prefixStack)-1] })
	return c
}

// Domain restricts every route registered by group to the host template
// domain, which may contain placeholders.  The innermost domain wins.
func (c *Collection) Domain(domain string, group ...func(*Collection)) *Collection {
	c.domainStack = append(c.domainStack, domain)
	c.scope(group, func() { c.domainStack = c.domainStack[:len(c.domainStack)-1] })
	return c
}

// Web restricts every route registered by group to plain web requests.
func (c *Collection) Web(group ...func(*Collection)) *Collection {
	return c.requestTypes([]RequestType{Web}, group)
}

// Console restricts every route registered by group to console requests.
func (c *Collection) Console(group ...func(*Collection)) *Collection {
	return c.requestTypes([]RequestType{Console}, group)
}

// Ajax restricts every route registered by group to ajax requests.
func (c *Collection) Ajax(group ...func(*Collection)) *Collection {
	return c.requestTypes([]RequestType{Ajax}, group)
}

func (c *Collection) requestTypes(types []RequestType, group []func(*Collection)) *Collection {
	c.typeStack = append(c.typeStack, types)
	c.scope(group, func() { c.typeStack = c.typeStack[:len(c.typeStack)-1] })
	return c
}

// scope runs the groups with the frame just pushed and pops it when they
// return or panic.  With no groups the frame stays pushed.
func (c *Collection) scope(group []func(*Collection), pop func()) {
	if len(group) == 0 {
		return
	}
	defer pop()
	for _, fn := range group {
		if fn != nil {
			fn(c)
		}
	}
}

// Refresh rebuilds the name index and the per-verb lookup tables, compiling
// every route pattern and resolving every route action.  It returns the
// joined resolution errors; routes that failed to resolve are still
// registered and fail when dispatched.
func (c *Collection) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked()
}

func (c *Collection) refreshLocked() error {
	var errs []error
	c.names = map[string]*Route{}
	c.tables = map[string]*methodTable{}

	for _, r := range c.routes {
		if r.name != "" {
			c.names[r.name] = r
		}

		r.compiled = compilePattern(r.domain+r.uri, r.patterns, c.patterns)
		for _, p := range r.compiled.unresolved {
			c.diag.unresolvedPlaceholder(r, p)
		}

		if c.resolve != nil {
			r.handler, r.resolveErr = c.resolve(r)
			if r.resolveErr != nil {
				errs = append(errs, fmt.Errorf("route %s: %w", r, r.resolveErr))
			}
		}

		for _, m := range r.methods {
			t := c.tables[m]
			if t == nil {
				t = &methodTable{byKey: map[string]*Route{}}
				c.tables[m] = t
			}
			t.put(r.compiled.expr, r)
		}
	}
	c.dirty = false
	return errors.Join(errs...)
}

// ensureCompiled refreshes the collection if routes changed since the last
// refresh.
func (c *Collection) ensureCompiled() {
	c.mu.RLock()
	dirty := c.dirty
	c.mu.RUnlock()
	if !dirty {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dirty {
		c.refreshLocked() // resolution failures surface at dispatch
	}
}

// All returns the compiled routes of every verb.
func (c *Collection) All() map[string][]*Route {
	c.ensureCompiled()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]*Route, len(c.tables))
	for m, t := range c.tables {
		out[m] = t.routes()
	}
	return out
}

// Get returns the compiled routes of one verb in match order.
func (c *Collection) Get(method string) []*Route {
	c.ensureCompiled()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tables[strings.ToUpper(method)].routes()
}

// Routes returns every registered route in registration order.
func (c *Collection) Routes() []*Route {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Route(nil), c.routes...)
}

// Names returns the named routes, keyed by name.
func (c *Collection) Names() map[string]*Route {
	c.ensureCompiled()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*Route, len(c.names))
	for k, v := range c.names {
		out[k] = v
	}
	return out
}

// GetNamed returns the route with the given name.
func (c *Collection) GetNamed(name string) (*Route, bool) {
	c.ensureCompiled()
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.names[name]
	return r, ok
}

// Path builds the uri of a named route, substituting {key} and
// {key:pattern} placeholders with params.  It returns false if there is no
// route with that name.
func (c *Collection) Path(name string, params map[string]string) (string, bool) {
	r, ok := c.GetNamed(name)
	if !ok {
		return "", false
	}
	uri := placeholderRe.ReplaceAllStringFunc(r.uri, func(ph string) string {
		m := placeholderRe.FindStringSubmatch(ph)
		if v, ok := params[m[1]]; ok {
			return v
		}
		return ph
	})
	return uri, true
}

// Redirect points resp at the uri of a named route with a 302.  It returns
// false, leaving resp alone, if there is no route with that name.
func (c *Collection) Redirect(resp Response, name string, params map[string]string) bool {
	uri, ok := c.Path(name, params)
	if !ok {
		return false
	}
	resp.Header().Set("Location", uri)
	resp.SetStatusCode(http.StatusFound)
	return true
}

// stackDepths reports the depth of the four group stacks.
func (c *Collection) stackDepths() [4]int {
	return [4]int{len(c.middlewareStack), len(c.prefixStack), len(c.domainStack), len(c.typeStack)}
}

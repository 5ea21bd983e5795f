package switchyard

import (
	"fmt"
	"net/http"
	"strings"
)

// Methods a route can be registered under.  A route registered without any
// of these is registered under all of them.
var Methods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut,
	http.MethodDelete, http.MethodOptions, http.MethodHead,
}

// Action is what a route runs once matched: either a closure or a
// controller method.
type Action struct {
	Closure Handler

	Controller string
	Method     string

	// Params are the declared handler parameter names, in the order the
	// handler expects them.  A name is either a placeholder name from the
	// route's uri or a capture position ("$2" or "2").  When empty the
	// handler gets every capture in order.
	Params []string
}

// IsClosure reports whether the action is a closure.
func (a Action) IsClosure() bool { return a.Closure != nil }

func (a Action) String() string {
	if a.IsClosure() {
		return "<closure>"
	}
	s := a.Controller + "@" + a.Method
	if len(a.Params) > 0 {
		s += "(" + strings.Join(a.Params, ", ") + ")"
	}
	return s
}

// ParseAction parses the controller action forms "Controller@method",
// "Controller::method" and either of those with a declared parameter list,
// e.g. "Post@show(slug, id)" or "Post@show($2, $1)".
func ParseAction(s string) (Action, error) {
	var a Action
	s = strings.TrimSpace(s)
	if open := strings.IndexByte(s, '('); open >= 0 {
		if !strings.HasSuffix(s, ")") {
			return a, fmt.Errorf("action %q: unterminated parameter list", s)
		}
		for _, p := range strings.Split(s[open+1:len(s)-1], ",") {
			if p = strings.TrimSpace(p); p != "" {
				a.Params = append(a.Params, p)
			}
		}
		s = s[:open]
	}
	ctrl, method, ok := strings.Cut(s, "@")
	if !ok {
		ctrl, method, ok = strings.Cut(s, "::")
	}
	if !ok || ctrl == "" || method == "" {
		return Action{}, fmt.Errorf("action %q: expected Controller@method", s)
	}
	a.Controller, a.Method = ctrl, method
	return a, nil
}

// toAction converts the action argument of Collection.Add.
func toAction(action any) (Action, error) {
	switch a := action.(type) {
	case nil:
		return Action{}, fmt.Errorf("action is <nil>")
	case Action:
		if a.Closure == nil && (a.Controller == "" || a.Method == "") {
			return Action{}, fmt.Errorf("action %v has neither closure nor controller method", a)
		}
		return a, nil
	case string:
		return ParseAction(a)
	case HandlerFunc:
		if a == nil {
			return Action{}, fmt.Errorf("action is a nil HandlerFunc")
		}
		return Action{Closure: a}, nil
	case func(*Context, []string) (string, error):
		if a == nil {
			return Action{}, fmt.Errorf("action is a nil func")
		}
		return Action{Closure: HandlerFunc(a)}, nil
	case Handler:
		return Action{Closure: a}, nil
	}
	return Action{}, fmt.Errorf("unsupported action type %T", action)
}

// Route is one registered route.  Routes are created by Collection.Add and
// its shorthands; the setters return the route so they can be chained:
//
//	c.GET("/post/{id}/{slug}", "Post@show(slug, id)").
//	    Where("id", "[0-9]+").
//	    Name("post.show")
type Route struct {
	owner *Collection

	methods    []string
	uri        string
	domain     string
	prefixes   []string
	middleware []string
	types      []RequestType
	name       string
	patterns   map[string]string
	action     Action

	// Set by Collection.Refresh.
	compiled compiledPattern
	handler  Handler
	// resolveErr is returned when the route is dispatched.
	resolveErr error
}

// NewRoute builds a route that is not registered in any collection, for
// dispatching requests matched elsewhere through Router.DispatchMatch.  It
// panics if the action is invalid.
func NewRoute(uri string, action any, middleware ...string) *Route {
	a, err := toAction(action)
	if err != nil {
		panic(fmt.Errorf("cannot build route %#q: %w", uri, err))
	}
	return &Route{
		methods:    append([]string(nil), Methods...),
		uri:        uri,
		middleware: middleware,
		types:      AllRequestTypes,
		action:     a,
	}
}

// Name sets the name used for reverse lookup.
func (r *Route) Name(name string) *Route {
	r.name = name
	r.touch()
	return r
}

// Where sets a route-local placeholder fragment that overrides the
// collection's pattern of the same name.
func (r *Route) Where(placeholder, regex string) *Route {
	if r.patterns == nil {
		r.patterns = map[string]string{}
	}
	r.patterns[placeholder] = regex
	r.touch()
	return r
}

// Params declares the handler parameter names.  See Action.Params.
func (r *Route) Params(names ...string) *Route {
	r.action.Params = names
	r.touch()
	return r
}

func (r *Route) touch() {
	if r.owner != nil {
		r.owner.markDirty()
	}
}

// GetName returns the route name, or "" if unnamed.
func (r *Route) GetName() string { return r.name }

// URI returns the route template including its prefixes.
func (r *Route) URI() string { return r.uri }

// Domain returns the host template, or "" for host-agnostic routes.
func (r *Route) Domain() string { return r.domain }

// Prefixes returns the prefix frames active at registration, outer first.
func (r *Route) Prefixes() []string { return r.prefixes }

// Methods returns the verbs the route is registered under.
func (r *Route) Methods() []string { return r.methods }

// Middleware returns the middleware tokens, in execution order.
func (r *Route) Middleware() []string { return r.middleware }

// RequestTypes returns the request types the route answers to.
func (r *Route) RequestTypes() []RequestType { return r.types }

// Action returns the route action.
func (r *Route) Action() Action { return r.action }

// Pattern returns the compiled expression, or "" before compilation.
func (r *Route) Pattern() string { return r.compiled.expr }

func (r *Route) allows(t RequestType) bool {
	for _, allowed := range r.types {
		if allowed == t {
			return true
		}
	}
	return false
}

func (r *Route) String() string {
	return fmt.Sprintf("%s %s%s -> %v", strings.Join(r.methods, "|"), r.domain, r.uri, r.action)
}

// joinPath joins prefix frames and a uri into a single slash separated path.
func joinPath(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			b.WriteString("/")
			b.WriteString(p)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

package switchyard

import (
	"fmt"
	"strconv"
	"strings"
)

// Target is what a request is matched on.
type Target struct {
	Method string
	Path   string
	Host   string
	Type   RequestType
}

// TargetOf builds the match target of req.  Console requests match on their
// console path.
func TargetOf(req Request) Target {
	t := Target{Method: req.Method(), Path: req.Path(), Host: req.Host(), Type: TypeOf(req)}
	if t.Type == Console {
		t.Path = req.ConsolePath()
	}
	return t
}

// Match is the outcome of matching one request.  It is owned by the request
// and never shared between requests.
type Match struct {
	Route *Route
	// Params are the handler arguments: the captures in declared parameter
	// order, or in capture order if the action declares none.
	Params []string
	// Named maps each placeholder name to its captured value.
	Named map[string]string
	// NotFound is set on the synthesized route of an unmatched request.
	NotFound bool
}

// Param returns the value captured for a placeholder.
func (m *Match) Param(name string) string {
	if m == nil {
		return ""
	}
	return m.Named[name]
}

// PatternError is returned by Match when a candidate route's pattern is not
// a valid regular expression.
type PatternError struct {
	Route *Route
	Expr  string
	Err   error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("route %s: invalid pattern %#q: %v", e.Route, e.Expr, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Match scans the routes registered under t.Method in registration order and
// returns the first one that allows t.Type and whose pattern matches either
// t.Host+t.Path or t.Path.  It returns nil, nil if nothing matches.
func (c *Collection) Match(t Target) (*Match, error) {
	c.ensureCompiled()
	c.mu.RLock()
	defer c.mu.RUnlock()

	table := c.tables[strings.ToUpper(t.Method)]
	if table == nil {
		return nil, nil
	}
	for _, key := range table.order {
		r := table.byKey[key]
		if !r.allows(t.Type) {
			continue
		}
		if r.compiled.err != nil {
			return nil, &PatternError{Route: r, Expr: r.compiled.expr, Err: r.compiled.err}
		}
		sub := r.compiled.re.FindStringSubmatch(t.Host + t.Path)
		if sub == nil {
			sub = r.compiled.re.FindStringSubmatch(t.Path)
		}
		if sub == nil {
			continue
		}
		return bind(r, sub[1:]), nil
	}
	return nil, nil
}

func bind(r *Route, captures []string) *Match {
	m := &Match{Route: r, Named: map[string]string{}}
	for name, idx := range r.compiled.groups {
		if idx <= len(captures) {
			m.Named[name] = captures[idx-1]
		}
	}

	declared := r.action.Params
	if len(declared) == 0 {
		m.Params = captures
		return m
	}
	for _, p := range declared {
		v := declaredValue(p, captures, r.compiled.groups)
		if v != "" {
			m.Params = append(m.Params, v)
		}
	}
	return m
}

// declaredValue resolves one declared parameter name: "$n" or "n" is the
// n-th capture, a placeholder name is that placeholder's capture, and
// anything else is passed as the literal token.
func declaredValue(p string, captures []string, groups map[string]int) string {
	if n, err := strconv.Atoi(strings.TrimPrefix(p, "$")); err == nil {
		if n >= 1 && n <= len(captures) {
			return captures[n-1]
		}
		return p
	}
	if idx, ok := groups[p]; ok && idx <= len(captures) {
		return captures[idx-1]
	}
	return p
}

// notFoundRoute is the route dispatched when nothing matches.  It is not
// registered in any collection.
func notFoundRoute(controller string) *Route {
	return NewRoute("/", Action{Controller: controller, Method: "index"})
}

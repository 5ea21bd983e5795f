package switchyard

import (
	"net"
	"net/http"
	"strings"
)

// RequestType classifies the channel a request came in on.
type RequestType string

const (
	Web     RequestType = "web"
	Console RequestType = "console"
	Ajax    RequestType = "ajax"
)

// AllRequestTypes is the request-type scope of a route registered outside of
// any Web/Console/Ajax group.
var AllRequestTypes = []RequestType{Web, Console, Ajax}

// Request is the inbound request as seen by the router.
type Request interface {
	Method() string
	Path() string
	Host() string
	IsConsole() bool
	IsAjax() bool
	// ConsolePath is the pseudo-path matched for console invocations.
	ConsolePath() string
}

// CookieReader is implemented by requests that carry cookies.
type CookieReader interface {
	Cookie(name string) (string, bool)
}

// TypeOf classifies r.  Console wins over ajax, and anything else is web.
func TypeOf(r Request) RequestType {
	switch {
	case r.IsConsole():
		return Console
	case r.IsAjax():
		return Ajax
	}
	return Web
}

// HTTPRequest adapts an *http.Request.
type HTTPRequest struct{ R *http.Request }

// NewHTTPRequest wraps r.
func NewHTTPRequest(r *http.Request) HTTPRequest { return HTTPRequest{r} }

func (h HTTPRequest) Method() string      { return strings.ToUpper(h.R.Method) }
func (h HTTPRequest) Path() string        { return h.R.URL.Path }
func (h HTTPRequest) IsConsole() bool     { return false }
func (h HTTPRequest) ConsolePath() string { return "" }

// IsAjax reports whether the request was sent by XMLHttpRequest.
func (h HTTPRequest) IsAjax() bool {
	return strings.EqualFold(h.R.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// Host returns the request host without any port.
func (h HTTPRequest) Host() string {
	host := h.R.Host
	if host == "" {
		host = h.R.URL.Host
	}
	if hostname, _, err := net.SplitHostPort(host); err == nil {
		return hostname
	}
	return host
}

func (h HTTPRequest) Cookie(name string) (string, bool) {
	c, err := h.R.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

// ConsoleRequest is a command-line invocation.  Args are the path segments,
// e.g. `app cache clear` has Args {"cache", "clear"}.
type ConsoleRequest struct {
	Args []string
	// Hostname is optional and only used for domain-scoped routes.
	Hostname string
}

func (c ConsoleRequest) Method() string  { return http.MethodGet }
func (c ConsoleRequest) Host() string    { return c.Hostname }
func (c ConsoleRequest) IsConsole() bool { return true }
func (c ConsoleRequest) IsAjax() bool    { return false }
func (c ConsoleRequest) Path() string    { return c.ConsolePath() }

// ConsolePath joins the arguments into a slash separated path.
func (c ConsoleRequest) ConsolePath() string {
	parts := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		if a = strings.Trim(a, "/"); a != "" {
			parts = append(parts, a)
		}
	}
	return "/" + strings.Join(parts, "/")
}

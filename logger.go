package switchyard

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fenthope/reco"
)

// Injected for testing
var time_Now = time.Now
var os_Stderr io.Writer = os.Stderr

// LogEntry is the request log line tracked for each request by the "log"
// middleware.  All fields other than Note are filled in automatically.  Note
// is a free-form key-value map for per-request metadata; handlers reach the
// entry through LogEntryOf:
//
//	func (p *PostController) show(c *switchyard.Context, params []string) (string, error) {
//	    switchyard.LogEntryOf(c).Note["post"] = params[0]
//	    ...
//	}
type LogEntry struct {
	RemoteIp     string
	Start        time.Time
	Method       string
	Path         string
	StatusCode   int
	ResponseSize int
	Elapsed      time.Duration
	Error        error
	Note         map[string]string
	// set to true to suppress logging this request
	Quiet bool
}

const logEntryKey = "switchyard.log"

// NewLogEntry creates a *LogEntry for req.
func NewLogEntry(req Request) *LogEntry {
	e := &LogEntry{
		Start:  time_Now(),
		Method: req.Method(),
		Path:   req.Path(),
		Note:   map[string]string{},
	}
	if h, ok := req.(HTTPRequest); ok {
		e.RemoteIp = remoteIp(h)
		e.Path = h.R.RequestURI
	} else if req.IsConsole() {
		e.RemoteIp = "console"
	}
	return e
}

// LogEntryOf returns the log entry of the request, creating it if the "log"
// middleware has not run yet.
func LogEntryOf(c *Context) *LogEntry {
	if v, ok := c.Get(logEntryKey); ok {
		return v.(*LogEntry)
	}
	e := NewLogEntry(c.Request)
	c.Set(logEntryKey, e)
	return e
}

// StartLog starts timing the request.
func StartLog(c *Context) error {
	c.Set(logEntryKey, NewLogEntry(c.Request))
	return nil
}

// CommitLog fills in the remaining fields of the request's log entry and
// writes it out.
func CommitLog(c *Context) {
	LogEntryOf(c).Commit(c.Response)
}

// LogRequests starts the request log entry in the request phase and writes
// it in the terminate phase.  It is registered as the "log" middleware by
// TheUsual.
var LogRequests = Wrap{Before: StartLog, After: CommitLog}

// NoLog is a middleware that suppresses the log line of the request.  For
// example, with NoLog registered as "nolog":
//
//	// suppress logging of the favicon request to reduce log spam.
//	r.Middleware([]string{"nolog"}, func(r *switchyard.Collection) {
//	    r.GET("/favicon.ico", serveFavicon)
//	})
//
// This depends on WriteLog respecting the Quiet flag, which the default
// implementation does.
var NoLog = MiddlewareFunc(func(c *Context, next Next) error {
	LogEntryOf(c).Quiet = true
	return next()
})

// Commit fills in the remaining *LogEntry fields from resp and writes the
// entry out.
func (entry *LogEntry) Commit(resp Response) {
	entry.Elapsed = time_Now().Sub(entry.Start)
	entry.StatusCode = resp.StatusCode()
	body, _ := resp.Body()
	entry.ResponseSize = len(resp.Output()) + len(body)
	if h, ok := resp.(*HTTPResponse); ok {
		if code, size := h.Sent(); code != 0 {
			entry.StatusCode, entry.ResponseSize = code, size
		}
	}
	WriteLog(*entry)
}

// Some nice escape codes
const (
	_GREEN  = "\033[32m"
	_YELLOW = "\033[33m"
	_RESET  = "\033[0m"
	_RED    = "\033[91m"
)

// WriteLog is called to actually write a LogEntry out to the log. By default,
// it writes to stderr and colors normal requests green, slow requests yellow,
// and errors red.  You can replace the function to adjust the formatting or use
// whatever logging library you like.
var WriteLog = func(e LogEntry) {
	if e.Quiet {
		return
	}
	col, reset := logColors(e)
	fmt.Fprintf(os_Stderr, "%s%s %s \"%s %s\" (%d %dB %s) %s%s\n",
		col,
		e.Start.Format(time.RFC3339), e.RemoteIp,
		e.Method, e.Path,
		e.StatusCode, e.ResponseSize, e.Elapsed,
		e.NotesAndError(),
		reset)
}

// NotesAndError formats the Note values and error (if any) for logging.
func (l LogEntry) NotesAndError() string {
	pairs := make([]string, 0, len(l.Note))
	for k, v := range l.Note {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, v))
	}
	sort.Strings(pairs)
	msg := strings.Join(pairs, " ")
	if l.Error != nil {
		msg += "\n  ERROR: " + l.Error.Error()
	}
	return msg
}

func logColors(e LogEntry) (start, reset string) {
	col := _GREEN
	if e.Elapsed > 30*time.Millisecond {
		col = _YELLOW
	}
	if e.StatusCode >= 400 || e.Error != nil {
		col = _RED
	}
	return col, _RESET
}

// remoteIp prefers the proxy headers over the connection address.
func remoteIp(h HTTPRequest) string {
	if addr := h.R.Header.Get("X-Real-IP"); addr != "" {
		return addr
	} else if addr := h.R.Header.Get("X-Forwarded-For"); addr != "" {
		return addr
	}
	return h.R.RemoteAddr
}

// DefaultLoggerConfig is the reco configuration used by NewLogger callers
// that have no preference.
var DefaultLoggerConfig = reco.Config{
	Level:      reco.LevelInfo,
	Mode:       reco.ModeText,
	TimeFormat: time.RFC3339,
	Output:     os.Stderr,
	Async:      true,
}

// NewLogger builds a reco logger for Router.Logger.  It returns nil, which
// disables diagnostics, if the config is rejected.
func NewLogger(cfg reco.Config) *reco.Logger {
	logger, err := reco.New(cfg)
	if err != nil {
		log.Printf("switchyard: creating logger: %v", err)
		return nil
	}
	return logger
}

// diagnostics reports the lookups the router tolerates: unknown middleware,
// unresolved placeholders and unmatched requests.  It reads the router's
// Logger and Metrics at call time, so either may be swapped after New.
type diagnostics struct{ rt *Router }

func (d *diagnostics) logger() *reco.Logger {
	if d == nil || d.rt == nil {
		return nil
	}
	return d.rt.Logger
}

func (d *diagnostics) metrics() *Metrics {
	if d == nil || d.rt == nil {
		return nil
	}
	return d.rt.Metrics
}

func (d *diagnostics) unresolvedPlaceholder(r *Route, placeholder string) {
	if l := d.logger(); l != nil {
		l.Warnf("route %s: no pattern registered for placeholder %s, matching it literally", r, placeholder)
	}
	d.metrics().unresolved()
}

func (d *diagnostics) skippedMiddleware(r *Route, ref MiddlewareRef) {
	if l := d.logger(); l != nil {
		l.Debugf("route %s: skipping unregistered middleware %q", r, ref.String())
	}
	d.metrics().skipped(ref.Name)
}

func (d *diagnostics) notFound(t Target) {
	if l := d.logger(); l != nil {
		l.Debugf("no route for %s %s%s (%s)", t.Method, t.Host, t.Path, t.Type)
	}
	d.metrics().notFound()
}

func (d *diagnostics) dispatchFailed(t Target, err error) {
	if l := d.logger(); l != nil {
		l.Errorf("dispatching %s %s: %v", t.Method, t.Path, err)
	}
}

package switchyard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	now     time.Time
	advance time.Duration
}

func (f *fakeClock) Now() time.Time {
	now := f.now
	f.now = now.Add(f.advance)
	return now
}

func (f *fakeClock) Sleep(dt time.Duration) {
	f.now = f.now.Add(dt)
}

func validateLogMessage(t *testing.T, logs, expectedColor, expectedMsg string) {
	t.Helper()
	logs = strings.TrimSpace(logs)

	if !strings.HasPrefix(logs, expectedColor) {
		t.Errorf("Expected color prefix of %q: %q", expectedColor, logs)
	} else {
		logs = strings.TrimPrefix(logs, expectedColor)
	}
	if !strings.HasSuffix(logs, _RESET) {
		t.Errorf("Expected reset suffix: %q", logs)
	} else {
		logs = strings.TrimSuffix(logs, _RESET)
	}
	logs = strings.TrimSpace(logs)
	expectedMsg = strings.TrimSpace(expectedMsg)
	if logs != expectedMsg {
		t.Errorf("Wrong log message:\nExp: %q\nGot: %q", expectedMsg, logs)
	}
}

func TestLogger(t *testing.T) {
	// Restore the world from insanity when we're done:
	orig := WriteLog
	defer func() { time_Now = time.Now; os_Stderr = os.Stderr; WriteLog = orig }()

	// Setup our fake world.
	var logBuf bytes.Buffer
	os_Stderr = &logBuf
	clk := &fakeClock{time.Date(2001, 2, 3, 4, 5, 6, 7, time.UTC), 13 * time.Millisecond}
	time_Now = clk.Now

	// Useful handlers:
	sendMsg := func(c *Context, _ []string) (string, error) { fmt.Fprint(c.Output, "Hi there"); return "", nil }
	slowSendMsg := func(c *Context, p []string) (string, error) { clk.Sleep(100 * time.Millisecond); return sendMsg(c, p) }
	fail := func(*Context, []string) (string, error) { return "", errors.New("It went horribly wrong") }
	slowFail := func(c *Context, p []string) (string, error) { clk.Sleep(time.Second); return fail(c, p) }
	panics := func(c *Context, p []string) (string, error) { sendMsg(c, p); panic("oops") }
	addsNote := func(c *Context, p []string) (string, error) {
		e := LogEntryOf(c)
		e.Note["a"] = "x"
		e.Note["b"] = "y"
		return sendMsg(c, p)
	}

	rt := TheUsual()
	rt.GET("/", addsNote)
	rt.POST("/slow", slowSendMsg)
	rt.DELETE("/fail", fail)
	rt.PUT("/slowfail", slowFail)
	rt.PUT("/panic", panics)
	rt.Middleware([]string{"nolog"}, func(c *Collection) {
		c.GET("/quiet", addsNote)
	})
	rt.Console(func(c *Collection) {
		c.GET("/cache/clear", func(*Context, []string) (string, error) { return "ok", nil })
	})

	// Test a normal response:
	logBuf.Reset()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Add("X-Real-IP", "123.456.789.0")
	rt.ServeHTTP(httptest.NewRecorder(), req)
	validateLogMessage(t, logBuf.String(), _GREEN,
		`2001-02-03T04:05:06Z 123.456.789.0 "GET /" (200 8B 13ms)   a="x" b="y"`)

	// Test a slow response:
	logBuf.Reset()
	req = httptest.NewRequest("POST", "/slow", nil)
	req.Header.Add("X-Forwarded-For", "<any string>")
	rt.ServeHTTP(httptest.NewRecorder(), req)
	validateLogMessage(t, logBuf.String(), _YELLOW,
		`2001-02-03T04:05:06Z <any string> "POST /slow" (200 8B 113ms)`)

	// Test a failed response.  The entry is committed after sending, once the
	// router has stopped the clock.
	logBuf.Reset()
	req = httptest.NewRequest("DELETE", "/fail", nil)
	req.RemoteAddr = "[::1]:56596"
	rt.ServeHTTP(httptest.NewRecorder(), req)
	validateLogMessage(t, logBuf.String(), _RED,
		`2001-02-03T04:05:06Z [::1]:56596 "DELETE /fail" (500 22B 26ms) `+"\n"+
			`  ERROR: (500) Failure: It went horribly wrong`)

	// Test a slow failed response (should still be red):
	logBuf.Reset()
	req = httptest.NewRequest("PUT", "/slowfail", nil)
	req.RemoteAddr = "[::1]:56596"
	req.Header.Add("X-Forwarded-For", "<any string>")
	req.Header.Add("X-Real-IP", "123.456.789.0") // takes precedence
	rt.ServeHTTP(httptest.NewRecorder(), req)
	validateLogMessage(t, logBuf.String(), _RED,
		`2001-02-03T04:05:06Z 123.456.789.0 "PUT /slowfail" (500 22B 1.026s) `+"\n"+
			`  ERROR: (500) Failure: It went horribly wrong`)

	// Test a console request:
	logBuf.Reset()
	var out bytes.Buffer
	_, err := rt.Call(context.Background(), &out, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	validateLogMessage(t, logBuf.String(), _GREEN,
		`2001-02-03T04:05:06Z console "GET /cache/clear" (200 2B 13ms)`)

	// Test a suppressed log.
	logBuf.Reset()
	rt.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/quiet", nil))
	if logBuf.String() != "" {
		t.Errorf("Expected no log output, but got [%s]", logBuf.String())
	}

	// Test that a panic should be recorded.
	var log LogEntry
	WriteLog = func(e LogEntry) { log = e }
	resp := httptest.NewRecorder()
	req = httptest.NewRequest("PUT", "/panic", nil)
	req.RemoteAddr = "<remote>"
	rt.ServeHTTP(resp, req)

	if log.Error == nil {
		t.Errorf("log error should be a panic, but is nil")
	} else if msg := log.Error.Error(); !strings.Contains(msg, `Panic executing middleware`) {
		t.Errorf("Bad err message: %s", msg)
	} else if !strings.Contains(msg, `oops`) {
		t.Errorf("Bad err message: %s", msg)
	}
	if log.StatusCode != 500 || log.RemoteIp != "<remote>" {
		t.Errorf("Wrong log entry: %#v", log)
	}

	if resp.Body.String() != "Internal Server Error\n" {
		t.Errorf("Incorrect client response: %q", resp.Body.String())
	}
}

func TestNotesAndError(t *testing.T) {
	e := LogEntry{Note: map[string]string{"z": "1", "a": "two words"}}
	if got := e.NotesAndError(); got != `a="two words" z="1"` {
		t.Errorf("Wrong notes: %q", got)
	}
	e.Error = errors.New("bad")
	if got := e.NotesAndError(); got != `a="two words" z="1"`+"\n  ERROR: bad" {
		t.Errorf("Wrong notes: %q", got)
	}
}

func TestNewLoggerRoutesDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultLoggerConfig
	cfg.Output = &buf
	cfg.Async = false
	logger := NewLogger(cfg)
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}

	rt := New()
	rt.Logger = logger
	rt.GET("/u/{nope}", reply(""))
	rt.GET("/broken", "Nope@index")
	if _, _, err := serve(rt, "GET", "/broken"); err == nil {
		t.Fatal("Expected an error dispatching an unknown controller")
	}

	logs := buf.String()
	for _, want := range []string{"{nope}", "dispatching GET /broken", "controller not found"} {
		if !strings.Contains(logs, want) {
			t.Errorf("Expected %q in logs:\n%s", want, logs)
		}
	}
}

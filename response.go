package switchyard

import (
	"io"
	"net/http"
	"strings"
)

// Response is the outbound response the router fills in.  The body sent to
// the client is the captured handler output followed by the body.
type Response interface {
	SetStatusCode(code int)
	StatusCode() int
	SetBody(body string)
	// Body returns the body and whether one has been set.
	Body() (string, bool)
	SetOutput(output string)
	Output() string
	SetCookie(cookie *http.Cookie)
	Header() http.Header
	Send() error
}

// BufferedResponse collects the response in memory and writes output+body to
// W when sent.  It is the response used for console requests.
type BufferedResponse struct {
	W io.Writer

	code    int
	body    *string
	output  string
	header  http.Header
	cookies []*http.Cookie
}

// NewBufferedResponse returns a 200 response that sends to w.
func NewBufferedResponse(w io.Writer) *BufferedResponse {
	return &BufferedResponse{W: w, code: http.StatusOK, header: http.Header{}}
}

func (b *BufferedResponse) SetStatusCode(code int) { b.code = code }
func (b *BufferedResponse) StatusCode() int        { return b.code }
func (b *BufferedResponse) SetBody(body string)    { b.body = &body }
func (b *BufferedResponse) SetOutput(out string)   { b.output = out }
func (b *BufferedResponse) Output() string         { return b.output }
func (b *BufferedResponse) Header() http.Header    { return b.header }

func (b *BufferedResponse) Body() (string, bool) {
	if b.body == nil {
		return "", false
	}
	return *b.body, true
}

// SetCookie records a cookie, replacing any earlier cookie of the same name.
func (b *BufferedResponse) SetCookie(cookie *http.Cookie) {
	for i, c := range b.cookies {
		if c.Name == cookie.Name {
			b.cookies[i] = cookie
			return
		}
	}
	b.cookies = append(b.cookies, cookie)
}

// Cookies returns the cookies set so far.
func (b *BufferedResponse) Cookies() []*http.Cookie { return b.cookies }

// Content is the full payload: output followed by body.
func (b *BufferedResponse) Content() string {
	body, _ := b.Body()
	return b.output + body
}

func (b *BufferedResponse) Send() error {
	if b.W == nil {
		return nil
	}
	_, err := io.WriteString(b.W, b.Content())
	return err
}

// HTTPResponse sends the buffered response to an http.ResponseWriter.
type HTTPResponse struct {
	*BufferedResponse
	w    http.ResponseWriter
	sent struct{ code, size int }
}

// NewHTTPResponse returns a response that sends to w.
func NewHTTPResponse(w http.ResponseWriter) *HTTPResponse {
	return &HTTPResponse{BufferedResponse: NewBufferedResponse(nil), w: w}
}

// Writer is the underlying http.ResponseWriter.
func (h *HTTPResponse) Writer() http.ResponseWriter { return h.w }

// Sent reports the status code and number of bytes written by Send, or zeros
// if Send has not been called.
func (h *HTTPResponse) Sent() (code, size int) { return h.sent.code, h.sent.size }

func (h *HTTPResponse) Send() error {
	dst := h.w.Header()
	for k, v := range h.header {
		dst[k] = v
	}
	for _, c := range h.cookies {
		http.SetCookie(h.w, c)
	}
	content := h.Content()
	if dst.Get("Content-Type") == "" && content != "" {
		dst.Set("Content-Type", detectContentType(content))
	}
	h.w.WriteHeader(h.code)
	n, err := io.WriteString(h.w, content)
	h.sent.code, h.sent.size = h.code, n
	return err
}

func detectContentType(content string) string {
	if strings.HasPrefix(strings.TrimSpace(content), "{") {
		return "application/json"
	}
	return http.DetectContentType([]byte(content))
}

package switchyard

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGzip(t *testing.T) {
	greet := func(c *Context, _ []string) (string, error) {
		fmt.Fprintf(c.Output, "Hi ")
		return "there!", nil
	}
	rt := TheUsual()
	rt.RegisterAutoload("gzip")
	rt.GET("/", greet)
	rt.GET("/img", func(c *Context, _ []string) (string, error) {
		c.Response.Header().Set(headerContentType, "image/png")
		return "\x89PNG", nil
	})

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Add(headerAcceptEncoding, "gzip")
	rt.ServeHTTP(resp, req)

	if resp.Header().Get(headerContentEncoding) != "gzip" {
		t.Errorf("Not gzip'd? Content-encoding: %q", resp.Header())
	}
	if resp.Header().Get(headerVary) != headerAcceptEncoding {
		t.Errorf("Missing vary header: %q", resp.Header())
	}
	if resp.Header().Get(headerContentLength) != "" {
		t.Errorf("Not supposed to include content-length: %q", resp.Header())
	}

	r, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if body, err := io.ReadAll(r); err != nil {
		t.Fatal(err)
	} else if string(body) != "Hi there!" {
		t.Errorf("Wrong response: %q", string(body))
	}

	// Also, test without the accept header and make sure it's NOT gzip'd.
	resp = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/", nil)
	rt.ServeHTTP(resp, req)
	if resp.Header().Get(headerContentEncoding) == "gzip" {
		t.Errorf("Unexpectedly gzip'd: Content-encoding: %q", resp.Header())
	}
	if resp.Body.String() != "Hi there!" {
		t.Errorf("Wrong response: %q", resp.Body.String())
	}

	// Already compressed content is passed through.
	resp = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/img", nil)
	req.Header.Add(headerAcceptEncoding, "gzip, deflate")
	rt.ServeHTTP(resp, req)
	if resp.Header().Get(headerContentEncoding) != "" {
		t.Errorf("Unexpectedly gzip'd: Content-encoding: %q", resp.Header())
	}
	if resp.Body.String() != "\x89PNG" {
		t.Errorf("Wrong response: %q", resp.Body.String())
	}
}

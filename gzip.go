package switchyard

import (
	"bytes"
	"compress/gzip"
	"strings"
)

const (
	headerAcceptEncoding  = "Accept-Encoding"
	headerContentEncoding = "Content-Encoding"
	headerContentLength   = "Content-Length"
	headerContentType     = "Content-Type"
	headerVary            = "Vary"
)

// compressible lists the content type prefixes Gzip compresses.
var compressible = []string{
	"text/", "application/javascript", "application/json",
	"application/xml", "image/svg+xml",
}

const gzipAcceptedKey = "switchyard.gzip"

// Gzip compresses the response of clients that accept gzip.  Compression
// happens in the terminate phase, once output and body are final.
//
// For example, to gzip everything:
//
//	r.RegisterMiddleware("gzip", switchyard.Static(switchyard.Gzip))
//	r.RegisterAutoload("gzip")
//
// Content that is already compressed, like images, is left alone.
var Gzip = Wrap{Before: acceptsGzip, After: compressResponse}

func acceptsGzip(c *Context) error {
	if h, ok := c.Request.(HTTPRequest); ok && strings.Contains(h.R.Header.Get(headerAcceptEncoding), "gzip") {
		c.Set(gzipAcceptedKey, true)
	}
	return nil
}

func compressResponse(c *Context) {
	if _, ok := c.Get(gzipAcceptedKey); !ok {
		return
	}
	resp := c.Response
	body, _ := resp.Body()
	content := resp.Output() + body
	headers := resp.Header()
	if content == "" || headers.Get(headerContentEncoding) != "" {
		return
	}
	if headers.Get(headerContentType) == "" {
		headers.Set(headerContentType, detectContentType(content))
	}
	if !isCompressible(headers.Get(headerContentType)) {
		return
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(content)); err != nil {
		return
	}
	if err := zw.Close(); err != nil {
		return
	}
	headers.Set(headerContentEncoding, "gzip")
	headers.Set(headerVary, headerAcceptEncoding)
	headers.Del(headerContentLength)
	resp.SetOutput("")
	resp.SetBody(buf.String())
}

func isCompressible(contentType string) bool {
	for _, prefix := range compressible {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

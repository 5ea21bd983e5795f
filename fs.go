package switchyard

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	rice "github.com/GeertJohan/go.rice"
)

// ServeFS returns a handler serving files from a subdirectory of an fs.FS,
// named by the placeholder param of the route.  This is especially useful
// with embedded files:
//
//	//go:embed server_files
//	var all_files embed.FS
//
//	r.GET("/css/{path:any}", switchyard.ServeFS(all_files, "static/css", "path"))
//	r.GET("/js/{path:any}", switchyard.ServeFS(all_files, "dist/js", "path"))
//
// ServeFS panics if fsRoot is not a valid path.
func ServeFS(f fs.FS, fsRoot string, param string) HandlerFunc {
	sub, err := fs.Sub(f, fsRoot)
	if err != nil {
		panic(err)
	}
	return serveFile(param, func(name string) ([]byte, error) {
		return fs.ReadFile(sub, name)
	})
}

// ServeBox is ServeFS for a go.rice box.
func ServeBox(box *rice.Box, param string) HandlerFunc {
	return serveFile(param, box.Bytes)
}

func serveFile(param string, read func(name string) ([]byte, error)) HandlerFunc {
	return func(c *Context, _ []string) (string, error) {
		name := path.Clean("/" + c.Param(param))
		name = strings.TrimPrefix(name, "/")
		if name == "" {
			name = "."
		}
		data, err := read(name)
		if err != nil {
			return "", Error{Code: http.StatusNotFound, LogMsg: "cannot read " + name, Cause: err}
		}
		if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
			c.Response.Header().Set("Content-Type", ct)
		}
		return string(data), nil
	}
}

package switchyard

import (
	"embed"
	"io/fs"
	"net/http"
	"testing"
	"testing/fstest"

	rice "github.com/GeertJohan/go.rice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed examples
var examples embed.FS

func TestServeFS(t *testing.T) {
	rt := New()
	rt.GET("/src/{path:any}", ServeFS(examples, "examples/0-helloworld", "path"))

	_, resp, err := serve(rt, "GET", "/src/main.go")
	require.NoError(t, err)
	contents, err := fs.ReadFile(examples, "examples/0-helloworld/main.go")
	require.NoError(t, err)
	assert.Equal(t, string(contents), resp.Content())
}

func TestServeFSContentTypeAndMissingFiles(t *testing.T) {
	files := fstest.MapFS{
		"public/app.js":     {Data: []byte("console.log(1)")},
		"public/index.html": {Data: []byte("<p>hi</p>")},
		"secret.txt":        {Data: []byte("nope")},
	}
	rt := New()
	rt.GET("/static/{path:any}", ServeFS(files, "public", "path"))

	_, resp, err := serve(rt, "GET", "/static/app.js")
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", resp.Content())
	assert.Contains(t, resp.Header().Get("Content-Type"), "javascript")

	// cannot escape the root
	_, _, err = serve(rt, "GET", "/static/../secret.txt")
	var e Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusNotFound, e.Code)

	_, _, err = serve(rt, "GET", "/static/missing.css")
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusNotFound, e.Code)

	assert.Panics(t, func() { ServeFS(files, "../up", "path") })
}

func TestServeBox(t *testing.T) {
	conf := rice.Config{LocateOrder: []rice.LocateMethod{rice.LocateWorkingDirectory}}
	box, err := conf.FindBox("testdata/static")
	require.NoError(t, err)

	rt := New()
	rt.GET("/assets/{path:any}", ServeBox(box, "path"))

	_, resp, err := serve(rt, "GET", "/assets/site.css")
	require.NoError(t, err)
	assert.Equal(t, "body { color: teal; }\n", resp.Content())
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/css")

	_, _, err = serve(rt, "GET", "/assets/other.css")
	var e Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusNotFound, e.Code)
}

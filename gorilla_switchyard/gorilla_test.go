package gorilla_switchyard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/augustoroman/switchyard"
	"github.com/augustoroman/switchyard/gorilla_switchyard"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestMountDispatchesMatchedRoutes(t *testing.T) {
	r := switchyard.New()
	r.GET("/post/{id:num}", func(_ *switchyard.Context, p []string) (string, error) {
		return "post " + p[0], nil
	})

	m := mux.NewRouter()
	m.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	gorilla_switchyard.Mount(m, r)

	rw := httptest.NewRecorder()
	m.ServeHTTP(rw, httptest.NewRequest("GET", "/post/12", nil))
	assert.Equal(t, "post 12", rw.Body.String())

	rw = httptest.NewRecorder()
	m.ServeHTTP(rw, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, "ok", rw.Body.String())

	// unmatched by both: mux's own 404
	rw = httptest.NewRecorder()
	m.ServeHTTP(rw, httptest.NewRequest("GET", "/post/abc", nil))
	assert.Equal(t, http.StatusNotFound, rw.Code)
	assert.Equal(t, "404 page not found\n", rw.Body.String())
}

func TestHandlerUsesMuxVars(t *testing.T) {
	r := switchyard.New()
	r.Controllers.Register("User", func() switchyard.Controller {
		return switchyard.MethodSet{"show": func(c *switchyard.Context, _ []string) (string, error) {
			return "user " + c.Param("id"), nil
		}}
	})

	m := mux.NewRouter()
	m.Handle("/users/{id:[0-9]+}", gorilla_switchyard.Handler(r, "User@show"))

	rw := httptest.NewRecorder()
	m.ServeHTTP(rw, httptest.NewRequest("GET", "/users/5", nil))
	assert.Equal(t, "user 5", rw.Body.String())
}

package martini_switchyard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/augustoroman/switchyard"
	"github.com/augustoroman/switchyard/martini_switchyard"
	"github.com/go-martini/martini"
	"github.com/stretchr/testify/assert"
)

func TestMartiniParamsAvailability(t *testing.T) {
	greet := func(c *switchyard.Context, _ []string) (string, error) {
		return c.Param("greeting") + " " + c.Param("name"), nil
	}

	r := switchyard.New()
	m := martini.New()
	rtr := martini.NewRouter()
	rtr.Get("/say/:greeting/:name", martini_switchyard.Route(r, greet))
	m.Action(rtr.Handle)

	rw := httptest.NewRecorder()
	m.ServeHTTP(rw, httptest.NewRequest("GET", "/say/Hi/Bob", nil))

	assert.Equal(t, "Hi Bob", rw.Body.String())
}

func TestHandlerFallsThrough(t *testing.T) {
	r := switchyard.New()
	r.GET("/post/{id:num}", func(_ *switchyard.Context, p []string) (string, error) {
		return "post " + p[0], nil
	})

	m := martini.New()
	m.Use(martini_switchyard.Handler(r))
	m.Action(func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("martini"))
	})

	rw := httptest.NewRecorder()
	m.ServeHTTP(rw, httptest.NewRequest("GET", "/post/3", nil))
	assert.Equal(t, "post 3", rw.Body.String())

	rw = httptest.NewRecorder()
	m.ServeHTTP(rw, httptest.NewRequest("GET", "/elsewhere", nil))
	assert.Equal(t, http.StatusTeapot, rw.Code)
	assert.Equal(t, "martini", rw.Body.String())
}

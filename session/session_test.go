package session_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/augustoroman/switchyard"
	"github.com/augustoroman/switchyard/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(c *switchyard.Context, _ []string) (string, error) {
	s := session.From(c)
	n, _ := s.Get("n")
	count, _ := n.(int)
	count++
	s.Set("n", count)
	return fmt.Sprint(count), nil
}

func newServer(opts session.Options) *switchyard.Router {
	r := switchyard.New()
	r.RegisterMiddleware("session", session.Middleware(opts))
	r.Middleware([]string{"session"}, func(c *switchyard.Collection) {
		c.GET("/count", counter)
	})
	return r
}

func get(r http.Handler, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/count", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionPersistsAcrossRequests(t *testing.T) {
	store := session.NewMemoryStore()
	ids := 0
	r := newServer(session.Options{
		Store: store,
		NewID: func() string { ids++; return fmt.Sprintf("id-%d", ids) },
		Intn:  func(int) int { return 999 },
	})

	w := get(r)
	assert.Equal(t, "1", w.Body.String())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "id-1", cookies[0].Value)
	assert.Equal(t, 7200, cookies[0].MaxAge)

	w = get(r, cookies[0])
	assert.Equal(t, "2", w.Body.String())
	assert.Equal(t, "id-1", w.Result().Cookies()[0].Value)

	// unknown ids get a fresh session
	w = get(r, &http.Cookie{Name: "session", Value: "bogus"})
	assert.Equal(t, "1", w.Body.String())
	assert.Equal(t, "id-2", w.Result().Cookies()[0].Value)
	assert.Equal(t, 2, store.Len())
}

func TestNilStoreDisablesSessions(t *testing.T) {
	r := switchyard.New()
	r.RegisterMiddleware("session", session.Middleware(session.Options{}))
	r.Middleware([]string{"session"}).GET("/", func(c *switchyard.Context, _ []string) (string, error) {
		return fmt.Sprint(session.From(c) == nil), nil
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, "true", w.Body.String())
	assert.Empty(t, w.Result().Cookies())
}

func TestGCLottery(t *testing.T) {
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	store := session.NewMemoryStore()
	store.Now = func() time.Time { return now }
	require.NoError(t, store.Save(context.Background(), "stale", map[string]any{}, time.Minute))

	draw := 1
	r := newServer(session.Options{
		Store:   store,
		Lottery: [2]int{1, 10},
		Intn:    func(n int) int { assert.Equal(t, 10, n); return draw },
	})

	now = now.Add(time.Hour)
	get(r) // draws 2 of 10: no gc
	assert.Equal(t, 2, store.Len())

	draw = 0
	get(r) // draws 1 of 10: gc drops the stale session
	assert.Equal(t, 2, store.Len())
	_, ok, _ := store.Load(context.Background(), "stale")
	assert.False(t, ok)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg, err := switchyard.LoadConfig([]byte(`
session:
  cookie: sid
  expiration: 90
  gc_lottery: [5, 100]
`))
	require.NoError(t, err)

	o := session.OptionsFromConfig(cfg, nil)
	assert.Equal(t, "sid", o.Cookie)
	assert.Equal(t, 90*time.Second, o.Expiration)
	assert.Equal(t, [2]int{5, 100}, o.Lottery)

	cfg, err = switchyard.LoadConfig([]byte("session:\n  expiration: 1h\n"))
	require.NoError(t, err)
	o = session.OptionsFromConfig(cfg, nil)
	assert.Equal(t, time.Hour, o.Expiration)
	assert.Equal(t, "", o.Cookie)
}

// Package session provides the cookie-backed session middleware.
//
// Register it under a name and attach it to the routes that need a session:
//
//	store := session.NewMemoryStore()
//	r.RegisterMiddleware("session", session.Middleware(session.Options{Store: store}))
//	r.Middleware([]string{"session"}, func(c *switchyard.Collection) {
//	    c.GET("/cart", "Cart@show")
//	})
//
// Handlers reach the session of the request through session.From.
package session

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/augustoroman/switchyard"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// Session is the session of one request.
type Session struct {
	ID     string
	Values map[string]any
	// New is set when the session was created by this request.
	New bool
}

func (s *Session) Get(key string) (any, bool) {
	v, ok := s.Values[key]
	return v, ok
}

func (s *Session) Set(key string, val any) { s.Values[key] = val }

func (s *Session) Delete(key string) { delete(s.Values, key) }

// Store persists sessions between requests.
type Store interface {
	// Load returns the values of session id, and false if there is no live
	// session with that id.
	Load(ctx context.Context, id string) (map[string]any, bool, error)
	Save(ctx context.Context, id string, values map[string]any, ttl time.Duration) error
	// GC drops expired sessions.
	GC(ctx context.Context) error
}

// Options configure the session middleware.  Zero fields take the defaults
// below.
type Options struct {
	Store Store
	// Cookie is the name of the session cookie ("session").
	Cookie string
	// Expiration is the lifetime of the cookie and of the stored session
	// (2 hours).
	Expiration time.Duration
	// Lottery is the chance that a request runs the store's GC: Lottery[0]
	// in Lottery[1] ({2, 1000}).
	Lottery [2]int

	// NewID generates session ids (uuid.NewString).
	NewID func() string
	// Intn is the random source of the lottery (math/rand.Intn).
	Intn func(n int) int
}

func (o Options) withDefaults() Options {
	if o.Cookie == "" {
		o.Cookie = "session"
	}
	if o.Expiration <= 0 {
		o.Expiration = 2 * time.Hour
	}
	if o.Lottery[1] <= 0 {
		o.Lottery = [2]int{2, 1000}
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Intn == nil {
		o.Intn = rand.Intn
	}
	return o
}

// OptionsFromConfig reads the "session" config section: session.cookie,
// session.expiration (a duration like "2h" or seconds) and
// session.gc_lottery (two integers).
func OptionsFromConfig(cfg switchyard.Config, store Store) Options {
	o := Options{
		Store:      store,
		Cookie:     cast.ToString(cfg.Get("session.cookie", "")),
		Expiration: toDuration(cfg.Get("session.expiration", nil)),
	}
	if lottery := cast.ToIntSlice(cfg.Get("session.gc_lottery", nil)); len(lottery) == 2 {
		o.Lottery = [2]int{lottery[0], lottery[1]}
	}
	return o
}

// toDuration reads plain numbers as seconds.
func toDuration(v any) time.Duration {
	if v == nil {
		return 0
	}
	if n, err := cast.ToInt64E(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return cast.ToDuration(v)
}

const contextKey = "switchyard.session"

// From returns the session of the request, or nil if the session middleware
// did not run.
func From(c *switchyard.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		return v.(*Session)
	}
	return nil
}

// Middleware returns the factory of the session middleware.  A nil store
// disables it: requests pass through without a session.
func Middleware(opts Options) switchyard.MiddlewareFactory {
	opts = opts.withDefaults()
	return func(string) switchyard.Middleware {
		return &startSession{opts: opts}
	}
}

// startSession loads the session in the request phase and stores it, sets
// the cookie and runs the GC lottery in the terminate phase.
type startSession struct {
	opts    Options
	session *Session
}

func (s *startSession) Handle(c *switchyard.Context, next switchyard.Next) error {
	if s.opts.Store == nil {
		return next()
	}
	var id string
	if cr, ok := c.Request.(switchyard.CookieReader); ok {
		id, _ = cr.Cookie(s.opts.Cookie)
	}

	sess := &Session{ID: id}
	if id != "" {
		values, ok, err := s.opts.Store.Load(c.Ctx, id)
		if err != nil {
			return err
		}
		if ok {
			sess.Values = values
		}
	}
	if sess.Values == nil {
		sess.ID, sess.Values, sess.New = s.opts.NewID(), map[string]any{}, true
	}
	s.session = sess
	c.Set(contextKey, sess)
	return next()
}

func (s *startSession) Terminate(c *switchyard.Context) {
	if s.session == nil {
		return
	}
	c.Response.SetCookie(&http.Cookie{
		Name:     s.opts.Cookie,
		Value:    s.session.ID,
		Path:     "/",
		MaxAge:   int(s.opts.Expiration / time.Second),
		HttpOnly: true,
	})
	if err := s.opts.Store.Save(c.Ctx, s.session.ID, s.session.Values, s.opts.Expiration); err != nil {
		s.logf(c, "saving session %s: %v", s.session.ID, err)
	}
	if s.lottery() {
		if err := s.opts.Store.GC(c.Ctx); err != nil {
			s.logf(c, "session gc: %v", err)
		}
	}
}

func (s *startSession) lottery() bool {
	return s.opts.Intn(s.opts.Lottery[1])+1 <= s.opts.Lottery[0]
}

func (s *startSession) logf(c *switchyard.Context, format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Errorf(format, args...)
	}
}

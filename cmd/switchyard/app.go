package main

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	rice "github.com/GeertJohan/go.rice"
	"github.com/augustoroman/switchyard"
	"github.com/augustoroman/switchyard/session"
	"github.com/fenthope/reco"
	"github.com/prometheus/client_golang/prometheus"
)

// app is the demo blog served by the command.
type app struct {
	router   *switchyard.Router
	registry *prometheus.Registry
	posts    *postStore
	sessions *session.MemoryStore
}

func newApp(cfg switchyard.Config, logger *reco.Logger) (*app, error) {
	a := &app{
		router:   switchyard.TheUsual(),
		registry: prometheus.NewRegistry(),
		posts:    newPostStore(),
		sessions: session.NewMemoryStore(),
	}
	r := a.router
	r.Logger = logger
	r.Metrics = switchyard.NewMetrics(a.registry)
	if err := r.Configure(cfg); err != nil {
		return nil, err
	}
	r.Patterns(map[string]string{"slug": "[a-z0-9-]+"})
	r.RegisterMiddleware("session", session.Middleware(session.OptionsFromConfig(cfg, a.sessions)))

	r.Controllers.Register("Home", func() switchyard.Controller { return &homeController{} })
	r.Controllers.Register("Post", func() switchyard.Controller { return &postController{posts: a.posts} })
	r.Controllers.Register("Error", func() switchyard.Controller { return switchyard.MethodSet{"index": notFound} })

	r.Middleware([]string{"session", "gzip"}, func(c *switchyard.Collection) {
		c.GET("/", "Home@index").Name("home")
		c.GET("/visits", "Home@visits").Name("visits")
		c.Prefix("/posts", func(c *switchyard.Collection) {
			c.GET("/", "Post@index").Name("posts")
			c.GET("/{id:num}", "Post@canonical").Name("post.canonical")
			c.GET("/{id:num}/{slug}", "Post@show(id)").Name("post.show")
		})
	})

	if box, err := rice.FindBox("static"); err != nil {
		if logger != nil {
			logger.Warnf("static files disabled: %v", err)
		}
	} else {
		r.Middleware([]string{"nolog"}, func(c *switchyard.Collection) {
			c.GET("/static/{path:any}", switchyard.ServeBox(box, "path"))
		})
	}

	r.Console(func(c *switchyard.Collection) {
		c.GET("/routes", a.listRoutes)
		c.GET("/posts/count", "Post@count")
		c.GET("/sessions/count", func(*switchyard.Context, []string) (string, error) {
			return fmt.Sprintln(a.sessions.Len()), nil
		})
	})

	return a, r.Refresh()
}

// handler serves the router and the metrics of its registry.
func (a *app) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler(a.registry))
	mux.Handle("/", a.router)
	return mux
}

func (a *app) listRoutes(c *switchyard.Context, _ []string) (string, error) {
	writeRoutes(c.Output, a.router)
	return "", nil
}

func writeRoutes(out io.Writer, r *switchyard.Router) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METHODS\tURI\tNAME\tACTION\tMIDDLEWARE")
	for _, route := range r.Routes() {
		fmt.Fprintf(w, "%s\t%s%s\t%s\t%v\t%s\n",
			strings.Join(route.Methods(), "|"), route.Domain(), route.URI(),
			route.GetName(), route.Action(), strings.Join(route.Middleware(), ","))
	}
	w.Flush()
}

func notFound(c *switchyard.Context, _ []string) (string, error) {
	return fmt.Sprintf("Nothing at %s\n", c.Request.Path()), nil
}

type homeController struct {
	switchyard.BaseController
}

func (h *homeController) Method(name string) (switchyard.HandlerFunc, bool) {
	switch name {
	case "index":
		return h.index, true
	case "visits":
		return h.visits, true
	}
	return nil, false
}

func (h *homeController) index(c *switchyard.Context, _ []string) (string, error) {
	posts, _ := h.Ctx.Router().Path("posts", nil)
	return fmt.Sprintf("Welcome!  Posts are at %s\n", posts), nil
}

func (h *homeController) visits(c *switchyard.Context, _ []string) (string, error) {
	s := session.From(c)
	if s == nil {
		return "", switchyard.Error{Code: http.StatusInternalServerError, LogMsg: "no session"}
	}
	n, _ := s.Get("visits")
	count, _ := n.(int)
	count++
	s.Set("visits", count)
	switchyard.LogEntryOf(c).Note["visits"] = fmt.Sprint(count)
	return fmt.Sprintln(count), nil
}

type post struct {
	ID    string
	Slug  string
	Title string
}

type postStore struct {
	mu    sync.RWMutex
	posts map[string]post
}

func newPostStore() *postStore {
	s := &postStore{posts: map[string]post{}}
	s.put(post{ID: "1", Slug: "hello-world", Title: "Hello, world"})
	s.put(post{ID: "2", Slug: "routing-tables", Title: "Routing tables"})
	return s
}

func (s *postStore) put(p post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
}

func (s *postStore) get(id string) (post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	return p, ok
}

func (s *postStore) all() []post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]post, 0, len(s.posts))
	for _, p := range s.posts {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

type postController struct {
	switchyard.BaseController
	posts *postStore
}

func (p *postController) Method(name string) (switchyard.HandlerFunc, bool) {
	switch name {
	case "index":
		return p.index, true
	case "show":
		return p.show, true
	case "canonical":
		return p.canonical, true
	case "count":
		return p.count, true
	}
	return nil, false
}

func (p *postController) index(c *switchyard.Context, _ []string) (string, error) {
	var b strings.Builder
	for _, post := range p.posts.all() {
		path, _ := c.Router().Path("post.show", map[string]string{"id": post.ID, "slug": post.Slug})
		fmt.Fprintf(&b, "%s  %s\n", path, post.Title)
	}
	return b.String(), nil
}

func (p *postController) lookup(id string) (post, error) {
	found, ok := p.posts.get(id)
	if !ok {
		return post{}, switchyard.Error{Code: http.StatusNotFound, ClientMsg: "No such post", LogMsg: "post " + id}
	}
	return found, nil
}

func (p *postController) show(c *switchyard.Context, params []string) (string, error) {
	found, err := p.lookup(params[0])
	if err != nil {
		return "", err
	}
	if c.Param("slug") != found.Slug {
		return p.canonical(c, params)
	}
	return found.Title + "\n", nil
}

// canonical redirects to the slugged url of a post.
func (p *postController) canonical(c *switchyard.Context, params []string) (string, error) {
	found, err := p.lookup(params[0])
	if err != nil {
		return "", err
	}
	c.Router().Redirect(c.Response, "post.show", map[string]string{"id": found.ID, "slug": found.Slug})
	return "", nil
}

func (p *postController) count(c *switchyard.Context, _ []string) (string, error) {
	return fmt.Sprintln(len(p.posts.all())), nil
}

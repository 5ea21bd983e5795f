package switchyard_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/augustoroman/switchyard"
)

type PostController struct {
	switchyard.BaseController
}

func (p *PostController) Method(name string) (switchyard.HandlerFunc, bool) {
	switch name {
	case "show":
		return p.show, true
	}
	return nil, false
}

func (p *PostController) show(c *switchyard.Context, params []string) (string, error) {
	slug, id := params[0], params[1]
	return fmt.Sprintf("post %s (%s) as %s\n", id, slug, p.Ctx.Request.Method()), nil
}

func ExampleRouter() {
	r := switchyard.New()
	r.Controllers.Register("Post", func() switchyard.Controller { return &PostController{} })

	r.RegisterMiddleware("auth", func(role string) switchyard.Middleware {
		return switchyard.MiddlewareFunc(func(c *switchyard.Context, next switchyard.Next) error {
			if c.Request.(switchyard.HTTPRequest).R.Header.Get("X-Role") != role {
				return switchyard.Error{Code: http.StatusForbidden, ClientMsg: "admins only"}
			}
			return next()
		})
	})

	r.Prefix("/blog", func(c *switchyard.Collection) {
		c.GET("/{id:num}/{slug}", "Post@show(slug, id)").
			Where("slug", "[a-z-]+").
			Name("post.show")
	})
	r.Middleware([]string{"auth:admin"}, func(c *switchyard.Collection) {
		c.GET("/admin", func(*switchyard.Context, []string) (string, error) {
			return "welcome\n", nil
		})
	})

	for _, path := range []string{"/blog/7/hello-world", "/admin", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		fmt.Printf("%d %s", w.Code, w.Body.String())
	}

	path, _ := r.Path("post.show", map[string]string{"id": "8", "slug": "reverse"})
	fmt.Println(path)

	// Output:
	// 200 post 7 (hello-world) as GET
	// 403 admins only
	// 404 404 Not Found
	// /blog/8/reverse
}

func ExampleRouter_Call() {
	r := switchyard.New()
	r.Console(func(c *switchyard.Collection) {
		c.GET("/greet/{name:alpha}", func(c *switchyard.Context, params []string) (string, error) {
			return "hello " + strings.ToLower(params[0]) + "\n", nil
		})
	})

	if _, err := r.Call(context.Background(), os.Stdout, "greet", "World"); err != nil {
		fmt.Println(err)
	}

	// Output:
	// hello world
}

func ExampleWrap() {
	r := switchyard.New()
	r.RegisterMiddleware("timing", switchyard.Static(switchyard.Wrap{
		Before: func(c *switchyard.Context) error {
			fmt.Println("before", c.Route().URI())
			return nil
		},
		After: func(c *switchyard.Context) {
			body, _ := c.Response.Body()
			fmt.Printf("after %q\n", body)
		},
	}))
	r.RegisterAutoload("timing")
	r.GET("/ping", func(*switchyard.Context, []string) (string, error) {
		fmt.Println("handler")
		return "pong", nil
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ping", nil))

	// Output:
	// before /ping
	// handler
	// after "pong"
}

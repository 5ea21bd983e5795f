package chain_test

import (
	"fmt"

	"github.com/augustoroman/switchyard/chain"
)

type request struct {
	path string
	log  []string
}

func ExampleChain() {
	timing := chain.Link[*request]{
		Name: "timing",
		Handle: func(r *request, next chain.Next) error {
			r.log = append(r.log, "start "+r.path)
			return next()
		},
		Terminate: func(r *request) {
			r.log = append(r.log, "done "+r.path)
		},
	}
	auth := chain.Link[*request]{
		Name: "auth",
		Handle: func(r *request, next chain.Next) error {
			if r.path == "/private" {
				r.log = append(r.log, "denied")
				return nil // short-circuit: the handler never runs
			}
			return next()
		},
	}

	c := chain.New[*request]().Then(timing, auth)
	for _, path := range []string{"/public", "/private"} {
		r := &request{path: path}
		reached, err := c.Run(r, func(r *request) error {
			r.log = append(r.log, "handled")
			return nil
		})
		if err == nil {
			err = c.Terminate(r)
		}
		fmt.Println(reached, err, r.log)
	}

	// Output:
	// true <nil> [start /public handled done /public]
	// false <nil> [start /private denied done /private]
}

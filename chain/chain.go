// Package chain is the ordered middleware pipeline that powers the switchyard
// dispatcher. A Chain runs two phases: the request phase, where every link
// wraps the rest of the chain and the final handler, and the terminate phase,
// which runs after the response body has been produced.
package chain

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"text/tabwriter"
)

// ErrNextCalledTwice is returned when a link invokes its next func more than
// once during a single run.
var ErrNextCalledTwice = errors.New("chain: next called more than once")

// Next continues the request phase with the following link, or with the final
// handler once every link has been entered.
type Next func() error

// Link is one middleware in the chain.  Handle is required.  Terminate is
// optional and runs during the terminate phase.
type Link[C any] struct {
	Name      string
	Handle    func(c C, next Next) error
	Terminate func(c C)
}

// Chain holds the stack of links to execute.  Chain is immutable: all
// operations will return a new chain.
type Chain[C any] struct{ links []Link[C] }

// New returns an empty chain.
func New[C any]() Chain[C] { return Chain[C]{} }

// Clone this chain and add the extra links to the clone.
func (c Chain[C]) with(links ...Link[C]) Chain[C] {
	l := make([]Link[C], 0, len(c.links)+len(links))
	l = append(l, c.links...)
	l = append(l, links...)
	return Chain[C]{l}
}

// Then adds one or more links to the end of the chain.
func (c Chain[C]) Then(links ...Link[C]) Chain[C] {
	for i, link := range links {
		if link.Handle == nil {
			panicf("%s arg of Then(...) (%q) has no Handle func", ordinalize(i+1), link.Name)
		}
	}
	return c.with(links...)
}

// Len is the number of links in the chain.
func (c Chain[C]) Len() int { return len(c.links) }

// Names lists the link names in execution order.
func (c Chain[C]) Names() []string {
	names := make([]string, len(c.links))
	for i, l := range c.links {
		names[i] = l.Name
	}
	return names
}

// Run executes the request phase.  Each link is handed a Next that continues
// with the following link; the innermost Next calls final.  A link that
// returns without calling Next short-circuits the chain, in which case final
// is not called and reached is false.
//
// A panic in any link or in final is recovered and returned as a PanicError.
func (c Chain[C]) Run(ctx C, final func(C) error) (reached bool, err error) {
	var stack []string
	defer func() {
		if perr := wrapPanic(recover(), stack); perr != nil {
			err = perr
		}
	}()

	var step func(i int) Next
	step = func(i int) Next {
		called := false
		return func() error {
			if called {
				return ErrNextCalledTwice
			}
			called = true
			if i == len(c.links) {
				reached = true
				stack = append(stack, "<handler>")
				return final(ctx)
			}
			link := c.links[i]
			stack = append(stack, link.Name)
			return link.Handle(ctx, step(i+1))
		}
	}
	err = step(0)()
	return reached, err
}

// Terminate executes the terminate phase: the Terminate func of every link
// that has one, in the same order as the request phase.
func (c Chain[C]) Terminate(ctx C) (err error) {
	var stack []string
	defer func() {
		if perr := wrapPanic(recover(), stack); perr != nil {
			err = perr
		}
	}()
	for _, link := range c.links {
		if link.Terminate == nil {
			continue
		}
		stack = append(stack, link.Name+".Terminate")
		link.Terminate(ctx)
	}
	return nil
}

func wrapPanic(x any, executed []string) error {
	if x == nil {
		return nil
	}
	var stack [8192]byte
	n := runtime.Stack(stack[:], false)

	N := len(executed)
	mwStack := make([]string, N)
	for i := range executed {
		mwStack[i] = executed[N-i-1]
	}
	return PanicError{
		Val:             x,
		RawStack:        string(stack[:n]),
		MiddlewareStack: mwStack,
	}
}

// PanicError is the error that is returned if a link or the final handler
// panics.  It includes the panic'd value (Val), the raw Go stack trace
// (RawStack), and the middleware execution history (MiddlewareStack, most
// recent first) that shows what links had already been entered.
type PanicError struct {
	Val             any
	RawStack        string
	MiddlewareStack []string
}

// FilteredStack returns the stack trace without the internal chain.*
// frames, since these are generally just noise.
func (p PanicError) FilteredStack() []string {
	lines := strings.Split(p.RawStack, "\n")
	var filtered []string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, "github.com/augustoroman/switchyard/chain.") {
			i++
			continue
		}
		filtered = append(filtered, line)
	}
	return filtered
}

func (p PanicError) Error() string {
	var mwStack bytes.Buffer
	w := tabwriter.NewWriter(&mwStack, 5, 7, 2, ' ', 0)
	for i, name := range p.MiddlewareStack {
		fmt.Fprintf(w, "    %s\t(%s entered)\n", name, ordinalize(len(p.MiddlewareStack)-i))
	}
	w.Flush()
	at := "<none>"
	if len(p.MiddlewareStack) > 0 {
		at = p.MiddlewareStack[0]
	}
	return fmt.Sprintf(
		"Panic executing middleware %s: %v\n"+
			"  Middleware executed:\n%s"+
			"  Filtered call stack:\n    %s",
		at, p.Val,
		mwStack.String(),
		strings.Join(p.FilteredStack(), "\n    "))
}

package switchyard

import (
	"fmt"
	"sort"
	"strings"
)

// Controller is a named set of handler methods.  A fresh controller is
// built for every request that dispatches to it.
type Controller interface {
	// Method returns the handler registered under name.
	Method(name string) (HandlerFunc, bool)
}

// ContextBinder is implemented by controllers that want the request context
// before their method is invoked.
type ContextBinder interface {
	BindContext(c *Context)
}

// BaseController can be embedded in a controller to receive the request
// context.
type BaseController struct {
	Ctx *Context
}

func (b *BaseController) BindContext(c *Context) { b.Ctx = c }

// MethodSet is a Controller made of a static method table.
type MethodSet map[string]HandlerFunc

func (m MethodSet) Method(name string) (HandlerFunc, bool) {
	h, ok := m[name]
	return h, ok && h != nil
}

// ControllerFactory builds one controller instance.
type ControllerFactory func() Controller

// DefaultNamespace is the namespace bare controller names are qualified with.
const DefaultNamespace = "controllers"

// Controllers maps qualified controller names to factories.
type Controllers struct {
	// Namespace qualifies bare controller names: "Home" is looked up as
	// "<Namespace>/Home".  A name with a leading "/" is already qualified.
	Namespace string

	factories map[string]ControllerFactory
	// owner is recompiled when the registry changes.
	owner *Collection
}

// NewControllers returns an empty registry using DefaultNamespace.
func NewControllers() *Controllers {
	return &Controllers{Namespace: DefaultNamespace, factories: map[string]ControllerFactory{}}
}

// Qualify returns the fully qualified form of a controller name.
func (cs *Controllers) Qualify(name string) string {
	if strings.HasPrefix(name, "/") {
		return strings.TrimPrefix(name, "/")
	}
	ns := strings.Trim(cs.Namespace, "/")
	if ns == "" {
		return name
	}
	return ns + "/" + name
}

// Register adds a controller.  name is qualified the same way as the
// controller names of route actions.
func (cs *Controllers) Register(name string, factory ControllerFactory) {
	if factory == nil {
		panic(fmt.Errorf("controller %q: nil factory", name))
	}
	cs.factories[cs.Qualify(name)] = factory
	if cs.owner != nil {
		cs.owner.markDirty()
	}
}

// Lookup returns the factory of a controller name.
func (cs *Controllers) Lookup(name string) (ControllerFactory, bool) {
	f, ok := cs.factories[cs.Qualify(name)]
	return f, ok
}

// Names lists the qualified names of the registered controllers.
func (cs *Controllers) Names() []string {
	names := make([]string, 0, len(cs.factories))
	for n := range cs.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the handler for a controller action.  The controller and
// method are checked once here; the controller itself is built per request.
func (cs *Controllers) Resolve(a Action) (Handler, error) {
	factory, ok := cs.Lookup(a.Controller)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrControllerNotFound, cs.Qualify(a.Controller))
	}
	if _, ok := factory().Method(a.Method); !ok {
		return nil, fmt.Errorf("%w: %s::%s", ErrMethodNotFound, cs.Qualify(a.Controller), a.Method)
	}
	return controllerHandler{factory: factory, method: a.Method}, nil
}

type controllerHandler struct {
	factory ControllerFactory
	method  string
}

func (h controllerHandler) Invoke(c *Context, params []string) (string, error) {
	ctrl := h.factory()
	if b, ok := ctrl.(ContextBinder); ok {
		b.BindContext(c)
	}
	fn, ok := ctrl.Method(h.method)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMethodNotFound, h.method)
	}
	return fn(c, params)
}

// Package panel implements the component model: the Panel interface, the
// per-session tree of panel instances, stable panel identity, and the codec
// that moves a whole tree in and out of a session record.
//
// Panels live in a flat arena owned by the Tree; a panel's id is its arena
// index, assigned once and never reused within a session. Parent and child
// links are indices into the arena, not pointers, which keeps the graph
// trivially serializable.
package panel

import (
	"fmt"
	"reflect"
	"sync"
)

// Event carries the event name to a handler. The routine name already chose
// the handler; the event name tells it which control fired.
type Event struct {
	Name string
}

// Handler is one entry in a panel's handler table.
type Handler func(pc *Context, ev Event) error

// Panel is a node in the component tree. Concrete panel types are plain
// structs whose exported fields are the panel's persistent state.
//
// Render produces the panel's markup, recursing into children through
// Context.RenderChild. Handlers returns the panel's routine table; a panel
// with no interactive controls returns nil.
type Panel interface {
	Render(pc *Context) (string, error)
	Handlers() map[string]Handler
}

// Initializer is implemented by panels that populate themselves when created
// fresh (typically the root adding its default children on a session's first
// cycle). Panels restored from a session record are not re-initialized.
type Initializer interface {
	Init(pc *Context) error
}

// The type registry maps stable names to concrete panel types so a restored
// session record can rebuild the instances it describes. Register is called
// from the package that defines the panel type, usually in an init func.
var (
	regMu     sync.RWMutex
	factories = map[string]func() Panel{}
	typeNames = map[reflect.Type]string{}
)

// Register associates a stable name with a panel constructor. The name is
// written into session records, so renaming it invalidates stored sessions.
func Register(name string, factory func() Panel) {
	if name == "" || factory == nil {
		panic("panel: Register with empty name or nil factory")
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("panel: Register called twice for %q", name))
	}
	factories[name] = factory
	typeNames[reflect.TypeOf(factory())] = name
}

func typeNameOf(p Panel) (string, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	name, ok := typeNames[reflect.TypeOf(p)]
	if !ok {
		return "", fmt.Errorf("panel: type %T is not registered", p)
	}
	return name, nil
}

func newByName(name string) (Panel, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("panel: unknown panel type %q in session record", name)
	}
	return factory(), nil
}

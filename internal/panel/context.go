package panel

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/jask/panelkit/internal/wire"
)

// Context is the per-cycle environment threaded through dispatch and render.
// It gives a panel everything it may touch during one request: its tree, the
// session id, and its own slice of the inbound parameters. One Context is
// built per cycle and shared by every panel in it.
type Context struct {
	ctx       context.Context
	tree      *Tree
	sessionID string
	params    url.Values
	log       *slog.Logger
}

// NewContext builds the cycle environment. params is the normalized inbound
// parameter set; log may be nil.
func NewContext(ctx context.Context, tree *Tree, sessionID string, params url.Values, log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}
	return &Context{ctx: ctx, tree: tree, sessionID: sessionID, params: params, log: log}
}

// Ctx returns the request context for blocking work inside handlers.
func (c *Context) Ctx() context.Context { return c.ctx }

// Tree returns the session's panel tree.
func (c *Context) Tree() *Tree { return c.tree }

// SessionID returns the id the current cycle runs under.
func (c *Context) SessionID() string { return c.sessionID }

// Logger returns the cycle logger.
func (c *Context) Logger() *slog.Logger { return c.log }

// Param returns the inbound value of one of p's own fields, or "" if the
// request did not carry it. Sibling panels using the same local name never
// see each other's values.
func (c *Context) Param(p Panel, local string) string {
	return c.Params(p)[local]
}

// Params returns all inbound fields addressed to p, keyed by local name.
func (c *Context) Params(p Panel) map[string]string {
	return wire.DecodeParams(c.tree.GetOrAssignID(p), c.params)
}

// FieldName returns the wire name p should use for one of its input fields.
func (c *Context) FieldName(p Panel, local string) (string, error) {
	return wire.EncodeParam(c.tree.GetOrAssignID(p), local)
}

// ButtonName returns the wire name for a submit control that fires the given
// event and routine on p.
func (c *Context) ButtonName(p Panel, event, routine string) (string, error) {
	tok, err := wire.EncodeEvent(event, routine, c.tree.GetOrAssignID(p))
	if err != nil {
		return "", err
	}
	return wire.ButtonPrefix + tok, nil
}

// LinkValue returns the value a link should carry in the wire.LinkParam
// query parameter to fire the given event and routine on p.
func (c *Context) LinkValue(p Panel, event, routine string) (string, error) {
	return wire.EncodeEvent(event, routine, c.tree.GetOrAssignID(p))
}

// Render renders any panel, guaranteeing its id is resolvable first.
func (c *Context) Render(p Panel) (string, error) {
	c.tree.GetOrAssignID(p)
	return p.Render(c)
}

// RenderChild renders the named child of container.
func (c *Context) RenderChild(container Panel, name string) (string, error) {
	child, err := c.tree.ChildByName(container, name)
	if err != nil {
		return "", err
	}
	return c.Render(child)
}

// AddChild attaches a new child panel, running its Init if it has one.
func (c *Context) AddChild(container Panel, name string, child Panel) error {
	if err := c.tree.Add(container, name, child); err != nil {
		return err
	}
	if init, ok := child.(Initializer); ok {
		return init.Init(c)
	}
	return nil
}

// RemoveChildren discards every direct child of container.
func (c *Context) RemoveChildren(container Panel) {
	c.tree.RemoveChildren(container)
}

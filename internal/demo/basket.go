// Package demo is the reference application: a shop page with a basket
// child panel. It shows the intended shape of a concrete panel type — plain
// struct state, a handler table, markup built with the Context helpers — and
// backs the end-to-end tests.
package demo

import (
	"fmt"
	"html"
	"strings"

	"github.com/jask/panelkit/internal/panel"
)

func init() {
	panel.Register("demo.shop", func() panel.Panel { return &ShopPanel{} })
	panel.Register("demo.basket", func() panel.Panel { return &BasketPanel{} })
}

// ShopPanel is the root: a visit counter and the basket child.
type ShopPanel struct {
	Counter int `json:"counter"`
}

// NewShop returns a root panel; its state is populated by Init on the
// session's first cycle.
func NewShop() panel.Panel { return &ShopPanel{} }

func (s *ShopPanel) Init(pc *panel.Context) error {
	s.Counter = 1
	return pc.AddChild(s, "basket", &BasketPanel{})
}

func (s *ShopPanel) Handlers() map[string]panel.Handler {
	return map[string]panel.Handler{
		"add":   s.onAdd,
		"reset": s.onReset,
	}
}

func (s *ShopPanel) onAdd(pc *panel.Context, ev panel.Event) error {
	s.Counter++
	return nil
}

// onReset discards the basket wholesale and hangs a fresh one in its place.
func (s *ShopPanel) onReset(pc *panel.Context, ev panel.Event) error {
	pc.RemoveChildren(s)
	return pc.AddChild(s, "basket", &BasketPanel{})
}

func (s *ShopPanel) Render(pc *panel.Context) (string, error) {
	addBtn, err := pc.ButtonName(s, "add", "add")
	if err != nil {
		return "", err
	}
	resetLink, err := pc.LinkValue(s, "reset", "reset")
	if err != nil {
		return "", err
	}
	basket, err := pc.RenderChild(s, "basket")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h1>Shop</h1>\n")
	fmt.Fprintf(&b, "<p>Visits: %d</p>\n", s.Counter)
	fmt.Fprintf(&b, "<input type=\"submit\" name=%q value=\"Add\">\n", addBtn)
	fmt.Fprintf(&b, "<a href=\"?n=%s\">Start over</a>\n", html.EscapeString(resetLink))
	b.WriteString(basket)
	return b.String(), nil
}

// BasketPanel holds the items picked so far, with its own "name" field — the
// field name is namespaced, so siblings using "name" never collide.
type BasketPanel struct {
	Items []string `json:"items"`
}

func (p *BasketPanel) Handlers() map[string]panel.Handler {
	return map[string]panel.Handler{
		"put": p.onPut,
	}
}

func (p *BasketPanel) onPut(pc *panel.Context, ev panel.Event) error {
	item := strings.TrimSpace(pc.Param(p, "name"))
	if item != "" {
		p.Items = append(p.Items, item)
	}
	return nil
}

func (p *BasketPanel) Render(pc *panel.Context) (string, error) {
	field, err := pc.FieldName(p, "name")
	if err != nil {
		return "", err
	}
	putBtn, err := pc.ButtonName(p, "put", "put")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<h2>Basket</h2>\n<ul>\n")
	for _, item := range p.Items {
		fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(item))
	}
	b.WriteString("</ul>\n")
	fmt.Fprintf(&b, "<input type=\"text\" name=%q>\n", field)
	fmt.Fprintf(&b, "<input type=\"submit\" name=%q value=\"Put\">\n", putBtn)
	return b.String(), nil
}

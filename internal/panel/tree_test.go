package panel

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// containerPanel and leafPanel are the test fixtures for tree and codec
// behavior. Registered once in init.
type containerPanel struct {
	Label string `json:"label"`
}

func (p *containerPanel) Render(pc *Context) (string, error) {
	out := "[" + p.Label
	if sub, err := pc.RenderChild(p, "leaf"); err == nil {
		out += " " + sub
	}
	return out + "]", nil
}

func (p *containerPanel) Handlers() map[string]Handler { return nil }

type leafPanel struct {
	Count int `json:"count"`
}

func (p *leafPanel) Render(pc *Context) (string, error) {
	return fmt.Sprintf("leaf:%d", p.Count), nil
}

func (p *leafPanel) Handlers() map[string]Handler { return nil }

func init() {
	Register("test.container", func() Panel { return &containerPanel{} })
	Register("test.leaf", func() Panel { return &leafPanel{} })
}

func TestAddSetsParentAndName(t *testing.T) {
	t.Parallel()

	root := &containerPanel{Label: "root"}
	child := &leafPanel{}
	tr := NewTree(root)
	require.NoError(t, tr.Add(root, "leaf", child))

	got, err := tr.ChildByName(root, "leaf")
	require.NoError(t, err)
	require.Same(t, Panel(child), got)

	main, err := tr.Main(child)
	require.NoError(t, err)
	require.Same(t, Panel(root), main)
}

func TestGetOrAssignIDIdempotent(t *testing.T) {
	t.Parallel()

	root := &containerPanel{}
	tr := NewTree(root)
	require.Equal(t, 0, tr.GetOrAssignID(root))
	require.Equal(t, 0, tr.GetOrAssignID(root))

	loose := &leafPanel{}
	id := tr.GetOrAssignID(loose)
	require.Equal(t, 1, id)
	require.Equal(t, id, tr.GetOrAssignID(loose))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	root := &containerPanel{}
	child := &leafPanel{}
	tr := NewTree(root)
	require.NoError(t, tr.Add(root, "leaf", child))

	got, err := tr.Resolve(1)
	require.NoError(t, err)
	require.Same(t, Panel(child), got)

	var unknown *UnknownPanelError
	_, err = tr.Resolve(7)
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, 7, unknown.ID)
	_, err = tr.Resolve(-1)
	require.Error(t, err)
}

func TestIDsNeverReused(t *testing.T) {
	t.Parallel()

	root := &containerPanel{}
	tr := NewTree(root)
	require.NoError(t, tr.Add(root, "a", &leafPanel{}))
	tr.RemoveChildren(root)

	// slot 1 is dead now
	_, err := tr.Resolve(1)
	var unknown *UnknownPanelError
	require.ErrorAs(t, err, &unknown)

	// the next panel gets a fresh id, not the dead one
	b := &leafPanel{}
	require.NoError(t, tr.Add(root, "b", b))
	require.Equal(t, 2, tr.GetOrAssignID(b))
}

func TestReparentingRejected(t *testing.T) {
	t.Parallel()

	root := &containerPanel{}
	other := &containerPanel{}
	child := &leafPanel{}
	tr := NewTree(root)
	require.NoError(t, tr.Add(root, "other", other))
	require.NoError(t, tr.Add(root, "leaf", child))

	var attached *AlreadyAttachedError
	require.ErrorAs(t, tr.Add(other, "leaf", child), &attached)
}

func TestDuplicateChildNameRejected(t *testing.T) {
	t.Parallel()

	root := &containerPanel{}
	tr := NewTree(root)
	require.NoError(t, tr.Add(root, "leaf", &leafPanel{}))

	var dup *DuplicateChildError
	require.ErrorAs(t, tr.Add(root, "leaf", &leafPanel{}), &dup)
}

func TestChildByNameMiss(t *testing.T) {
	t.Parallel()

	root := &containerPanel{}
	tr := NewTree(root)

	var missing *NoSuchPanelError
	_, err := tr.ChildByName(root, "nope")
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "nope", missing.Name)
}

func TestMainOnDetachedPanel(t *testing.T) {
	t.Parallel()

	root := &containerPanel{}
	tr := NewTree(root)
	loose := &leafPanel{}
	tr.GetOrAssignID(loose)

	var detached *MissingParentError
	_, err := tr.Main(loose)
	require.True(t, errors.As(err, &detached))
}

package panel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTreeRoundTrip(t *testing.T) {
	t.Parallel()

	root := &containerPanel{Label: "shop"}
	leaf := &leafPanel{Count: 41}
	tr := NewTree(root)
	require.NoError(t, tr.Add(root, "leaf", leaf))
	leaf.Count++

	data, err := tr.Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)

	gotRoot, ok := got.Root().(*containerPanel)
	require.True(t, ok)
	require.Equal(t, "shop", gotRoot.Label)
	require.Equal(t, 0, got.GetOrAssignID(gotRoot))

	child, err := got.ChildByName(gotRoot, "leaf")
	require.NoError(t, err)
	gotLeaf, ok := child.(*leafPanel)
	require.True(t, ok)
	require.Equal(t, 42, gotLeaf.Count)
	require.Equal(t, 1, got.GetOrAssignID(gotLeaf))

	main, err := got.Main(gotLeaf)
	require.NoError(t, err)
	require.Same(t, got.Root(), main)
}

func TestMarshalDropsUnreachable(t *testing.T) {
	t.Parallel()

	root := &containerPanel{Label: "root"}
	mid := &containerPanel{Label: "mid"}
	grand := &leafPanel{Count: 9}
	tr := NewTree(root)
	require.NoError(t, tr.Add(root, "mid", mid))
	require.NoError(t, tr.Add(mid, "leaf", grand))
	tr.RemoveChildren(root)

	data, err := tr.Marshal()
	require.NoError(t, err)
	got, err := Unmarshal(data)
	require.NoError(t, err)

	// ids 1 and 2 are burned: slots survive as holes, never resolve
	for _, id := range []int{1, 2} {
		_, err := got.Resolve(id)
		var unknown *UnknownPanelError
		require.ErrorAs(t, err, &unknown)
	}

	// new panels continue after the holes
	next := &leafPanel{}
	require.NoError(t, got.Add(got.Root(), "next", next))
	require.Equal(t, 3, got.GetOrAssignID(next))
}

func TestMarshalUnregisteredType(t *testing.T) {
	t.Parallel()

	tr := NewTree(&unregisteredPanel{})
	_, err := tr.Marshal()
	require.Error(t, err)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Unmarshal([]byte("not json"))
	require.Error(t, err)

	_, err = Unmarshal([]byte(`{"version":1,"root":0,"nodes":[null]}`))
	require.Error(t, err)

	_, err = Unmarshal([]byte(`{"version":99,"root":0,"nodes":[]}`))
	require.Error(t, err)

	_, err = Unmarshal([]byte(`{"version":1,"root":0,"nodes":[{"type":"no.such.type","parent":-1,"state":{}}]}`))
	require.Error(t, err)
}

type unregisteredPanel struct{}

func (p *unregisteredPanel) Render(pc *Context) (string, error) { return "", nil }
func (p *unregisteredPanel) Handlers() map[string]Handler       { return nil }

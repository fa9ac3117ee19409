package panel

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

const recordVersion = 1

// wireNode is the serialized form of one arena slot. Parent and children are
// arena indices, so the record needs no cycle-aware encoding; State is the
// concrete panel struct itself.
type wireNode struct {
	Type     string          `json:"type"`
	Parent   int             `json:"parent"`
	Children map[string]int  `json:"children,omitempty"`
	State    json.RawMessage `json:"state"`
}

// wireTree is the session-record payload: the arena in index order, with
// null entries holding the place of dead ids so id assignment stays
// monotonic across cycles.
type wireTree struct {
	Version int         `json:"version"`
	Root    int         `json:"root"`
	Nodes   []*wireNode `json:"nodes"`
}

// Marshal serializes the tree for the session record. Only nodes reachable
// from the root are written; garbage left behind by child removal is dropped
// here, while its ids remain burned.
func (t *Tree) Marshal() ([]byte, error) {
	live := t.reachable()
	wt := wireTree{Version: recordVersion, Root: t.root, Nodes: make([]*wireNode, len(t.nodes))}
	for id := range t.nodes {
		if !live[id] {
			continue
		}
		n := t.nodes[id]
		typeName, err := typeNameOf(n.panel)
		if err != nil {
			return nil, err
		}
		state, err := sonic.Marshal(n.panel)
		if err != nil {
			return nil, fmt.Errorf("panel: marshal state of panel %d (%s): %w", id, typeName, err)
		}
		wt.Nodes[id] = &wireNode{
			Type:     typeName,
			Parent:   n.parent,
			Children: n.children,
			State:    state,
		}
	}
	data, err := sonic.Marshal(wt)
	if err != nil {
		return nil, fmt.Errorf("panel: marshal tree: %w", err)
	}
	return data, nil
}

// Unmarshal rebuilds a tree from a session record, constructing each panel
// through the type registry and restoring its state, ids, and links exactly
// as persisted.
func Unmarshal(data []byte) (*Tree, error) {
	var wt wireTree
	if err := sonic.Unmarshal(data, &wt); err != nil {
		return nil, fmt.Errorf("panel: unmarshal tree: %w", err)
	}
	if wt.Version != recordVersion {
		return nil, fmt.Errorf("panel: unsupported session record version %d", wt.Version)
	}
	if wt.Root < 0 || wt.Root >= len(wt.Nodes) || wt.Nodes[wt.Root] == nil {
		return nil, fmt.Errorf("panel: session record has no root node")
	}
	t := &Tree{
		nodes: make([]*node, len(wt.Nodes)),
		index: make(map[Panel]int),
		root:  wt.Root,
	}
	for id, wn := range wt.Nodes {
		if wn == nil {
			continue
		}
		p, err := newByName(wn.Type)
		if err != nil {
			return nil, err
		}
		if err := sonic.Unmarshal(wn.State, p); err != nil {
			return nil, fmt.Errorf("panel: unmarshal state of panel %d (%s): %w", id, wn.Type, err)
		}
		t.nodes[id] = &node{panel: p, parent: wn.Parent, children: wn.Children}
		t.index[p] = id
	}
	for id, n := range t.nodes {
		if n == nil {
			continue
		}
		if n.parent != -1 && (n.parent < 0 || n.parent >= len(t.nodes) || t.nodes[n.parent] == nil) {
			return nil, fmt.Errorf("panel: panel %d references missing parent %d", id, n.parent)
		}
		for name, cid := range n.children {
			if cid < 0 || cid >= len(t.nodes) || t.nodes[cid] == nil {
				return nil, fmt.Errorf("panel: child %q of panel %d references missing panel %d", name, id, cid)
			}
		}
	}
	return t, nil
}

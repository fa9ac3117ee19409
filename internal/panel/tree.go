package panel

import "fmt"

// node is one arena slot. A nil slot in Tree.nodes is a dead id: the panel
// was removed, the id is never handed out again.
type node struct {
	panel    Panel
	parent   int // arena index, -1 when detached or root
	children map[string]int
}

// Tree is the rooted composition of one session's panels plus its identity
// registry. The arena index of a panel is its public id: assignment is
// monotonic, ids are stable for the session's lifetime, and emptied slots
// stay empty.
//
// Tree is not safe for concurrent use; a cycle owns its tree exclusively.
type Tree struct {
	nodes []*node
	index map[Panel]int
	root  int
}

// NewTree creates a session tree rooted at root, which receives id 0.
func NewTree(root Panel) *Tree {
	t := &Tree{index: make(map[Panel]int), root: 0}
	t.register(root)
	return t
}

// Root returns the tree's root panel.
func (t *Tree) Root() Panel {
	return t.nodes[t.root].panel
}

// register appends p to the arena and returns its id. Idempotent.
func (t *Tree) register(p Panel) int {
	if id, ok := t.index[p]; ok {
		return id
	}
	id := len(t.nodes)
	t.nodes = append(t.nodes, &node{panel: p, parent: -1})
	t.index[p] = id
	return id
}

// GetOrAssignID returns p's stable id, registering p first if this is its
// first external reference. Calling it twice returns the same id.
func (t *Tree) GetOrAssignID(p Panel) int {
	return t.register(p)
}

// Resolve returns the live panel with the given id.
func (t *Tree) Resolve(id int) (Panel, error) {
	if id < 0 || id >= len(t.nodes) || t.nodes[id] == nil {
		return nil, &UnknownPanelError{ID: id}
	}
	return t.nodes[id].panel, nil
}

// Add attaches child under the given name in parent. This is the only way a
// panel enters the tree: it sets the child's parent link, so the
// one-parent invariant holds by construction. Re-parenting is rejected.
func (t *Tree) Add(parent Panel, name string, child Panel) error {
	if name == "" {
		return fmt.Errorf("panel: empty child name")
	}
	pid := t.register(parent)
	cid := t.register(child)
	if cid == pid {
		return fmt.Errorf("panel: cannot add panel %d to itself", pid)
	}
	if cid == t.root {
		return &AlreadyAttachedError{ID: cid}
	}
	if t.nodes[cid].parent != -1 {
		return &AlreadyAttachedError{ID: cid}
	}
	pn := t.nodes[pid]
	if pn.children == nil {
		pn.children = make(map[string]int)
	}
	if _, dup := pn.children[name]; dup {
		return &DuplicateChildError{Name: name}
	}
	pn.children[name] = cid
	t.nodes[cid].parent = pid
	return nil
}

// ChildByName returns the named child of container.
func (t *Tree) ChildByName(container Panel, name string) (Panel, error) {
	id, ok := t.index[container]
	if !ok {
		return nil, &NoSuchPanelError{Name: name}
	}
	cid, ok := t.nodes[id].children[name]
	if !ok {
		return nil, &NoSuchPanelError{Name: name}
	}
	return t.nodes[cid].panel, nil
}

// RemoveChildren detaches and discards every direct child of container.
// The children's ids die with them; their own subtrees become unreachable
// and are dropped the next time the tree is persisted.
func (t *Tree) RemoveChildren(container Panel) {
	id, ok := t.index[container]
	if !ok {
		return
	}
	n := t.nodes[id]
	for _, cid := range n.children {
		delete(t.index, t.nodes[cid].panel)
		t.nodes[cid] = nil
	}
	n.children = nil
}

// Main walks parent links from p to the session's root panel.
func (t *Tree) Main(p Panel) (Panel, error) {
	id, ok := t.index[p]
	if !ok {
		return nil, &MissingParentError{ID: -1}
	}
	for t.nodes[id].parent != -1 {
		id = t.nodes[id].parent
	}
	if id != t.root {
		return nil, &MissingParentError{ID: id}
	}
	return t.nodes[id].panel, nil
}

// reachable returns the set of arena ids reachable from the root.
func (t *Tree) reachable() map[int]bool {
	seen := make(map[int]bool)
	stack := []int{t.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] || t.nodes[id] == nil {
			continue
		}
		seen[id] = true
		for _, cid := range t.nodes[id].children {
			stack = append(stack, cid)
		}
	}
	return seen
}

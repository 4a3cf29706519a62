package canopy

// node is one entry in the active-state forest. A node exists iff its
// instance is currently entered. Children are keyed by state type; a type
// cannot appear twice as a direct sibling of itself. order preserves
// insertion order so traversal between orthogonal branches is deterministic.
type node struct {
	stateType StateType
	instance  State
	parent    *node
	children  map[StateType]*node
	order     []StateType
	detached  bool
}

func newNode(stateType StateType, instance State) *node {
	return &node{
		stateType: stateType,
		instance:  instance,
		children:  make(map[StateType]*node),
	}
}

// child returns the direct child keyed by the given type, or nil.
func (n *node) child(stateType StateType) *node {
	return n.children[stateType]
}

// insertChild attaches a new child node keyed by the given type.
func (n *node) insertChild(stateType StateType, instance State) (*node, error) {
	if _, exists := n.children[stateType]; exists {
		return nil, NewDuplicateSiblingError(n.stateType, stateType)
	}
	child := newNode(stateType, instance)
	child.parent = n
	n.children[stateType] = child
	n.order = append(n.order, stateType)
	return child, nil
}

// detachChild unlinks the direct child keyed by the given type without
// touching its descendants.
func (n *node) detachChild(stateType StateType) *node {
	child, exists := n.children[stateType]
	if !exists {
		return nil
	}
	delete(n.children, stateType)
	for i, t := range n.order {
		if t == stateType {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	child.detached = true
	return child
}

// removeSubtree detaches the child keyed by the given type and everything
// beneath it, returning the removed nodes in the order their exit hooks must
// run: deepest leaves first, the removed child itself last. Every returned
// node is marked detached so an in-flight dispatch pass can skip it.
func (n *node) removeSubtree(stateType StateType) []*node {
	child := n.detachChild(stateType)
	if child == nil {
		return nil
	}
	var collected []*node
	child.collectPostOrder(&collected)
	for _, removed := range collected {
		removed.detached = true
	}
	return collected
}

// collectPostOrder appends the subtree rooted at n in children-before-parent
// order, siblings in insertion order.
func (n *node) collectPostOrder(out *[]*node) {
	for _, t := range n.order {
		n.children[t].collectPostOrder(out)
	}
	*out = append(*out, n)
}

// activeTree is the forest of currently entered state instances. The root
// node is a sentinel: its children are the active root types.
type activeTree struct {
	root *node
}

func newActiveTree() *activeTree {
	return &activeTree{root: newNode("", nil)}
}

// empty reports whether no state is active.
func (t *activeTree) empty() bool {
	return len(t.root.order) == 0
}

// nodeAt walks from the forest root following the given prefix of types and
// returns the innermost matching node plus the number of links followed. It
// stops early if a link is missing; callers must check the matched length
// against their expectations.
func (t *activeTree) nodeAt(prefix []StateType) (*node, int) {
	current := t.root
	for i, stateType := range prefix {
		next := current.child(stateType)
		if next == nil {
			return current, i
		}
		current = next
	}
	return current, len(prefix)
}

// nodeAtExact returns the node at the full prefix, or nil if any link in the
// chain is missing.
func (t *activeTree) nodeAtExact(prefix []StateType) *node {
	n, matched := t.nodeAt(prefix)
	if matched != len(prefix) {
		return nil
	}
	return n
}

// allActive returns every active node in children-before-parents order
// across the whole forest: a post-order walk with siblings (and independent
// root trees) visited in insertion order. This is the dispatch and exit
// traversal order.
func (t *activeTree) allActive() []*node {
	var collected []*node
	for _, stateType := range t.root.order {
		t.root.children[stateType].collectPostOrder(&collected)
	}
	return collected
}

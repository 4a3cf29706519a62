// Package canopy provides a hierarchical, orthogonal-state state machine
// engine. A caller declares a tree of state types, each with an optional
// parent, and the engine maintains the forest of currently active state
// instances: transitions add orthogonal substates, collapse subtrees back to
// an ancestor, or switch between siblings, running enter and exit hooks in
// children-before-parents order. Events are dispatched to every active
// instance without the caller knowing the tree shape.
package canopy

// StateType identifies one declared kind of state in the hierarchy.
type StateType string

// Factory creates a fresh state instance when a state type is entered.
// The returned instance lives until the type is exited.
type Factory func(ctx Context) State

// declaration records the parent link and factory for one state type.
type declaration struct {
	parent    StateType
	hasParent bool
	factory   Factory
}

// Hierarchy is the registration table mapping each state type to its declared
// parent (if any) and its instance factory. It is built once, validated
// eagerly, and shared read-only by any number of machines.
type Hierarchy struct {
	declarations map[StateType]declaration
	order        []StateType
	err          error
}

// NewHierarchy creates an empty hierarchy registry.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		declarations: make(map[StateType]declaration),
	}
}

// Root declares a state type with no parent. Root types form independent
// trees in the active-state forest.
func (h *Hierarchy) Root(stateType StateType, factory Factory) *Hierarchy {
	return h.declare(stateType, "", false, factory)
}

// Child declares a state type nested under the given parent type.
func (h *Hierarchy) Child(stateType StateType, parent StateType, factory Factory) *Hierarchy {
	return h.declare(stateType, parent, true, factory)
}

func (h *Hierarchy) declare(stateType StateType, parent StateType, hasParent bool, factory Factory) *Hierarchy {
	if h.err != nil {
		return h
	}
	if _, exists := h.declarations[stateType]; exists {
		h.err = NewDuplicateDeclarationError(stateType)
		return h
	}
	if factory == nil {
		factory = func(Context) State { return BaseState{} }
	}
	h.declarations[stateType] = declaration{
		parent:    parent,
		hasParent: hasParent,
		factory:   factory,
	}
	h.order = append(h.order, stateType)
	return h
}

// Validate checks the declaration table for consistency: every declared
// parent must itself be declared, and parent links must not form a cycle.
// A hierarchy that fails validation cannot be used to construct a machine.
func (h *Hierarchy) Validate() error {
	if h.err != nil {
		return h.err
	}
	for _, stateType := range h.order {
		if _, err := h.PathOf(stateType); err != nil {
			return err
		}
	}
	return nil
}

// Declared reports whether the given state type has been declared.
func (h *Hierarchy) Declared(stateType StateType) bool {
	_, exists := h.declarations[stateType]
	return exists
}

// IsRoot reports whether the given state type is declared with no parent.
func (h *Hierarchy) IsRoot(stateType StateType) bool {
	decl, exists := h.declarations[stateType]
	return exists && !decl.hasParent
}

// ParentOf returns the declared parent of a state type. The second return
// value is false for root types and undeclared types.
func (h *Hierarchy) ParentOf(stateType StateType) (StateType, bool) {
	decl, exists := h.declarations[stateType]
	if !exists || !decl.hasParent {
		return "", false
	}
	return decl.parent, true
}

// PathOf resolves the root-to-leaf hierarchy path of a state type: the first
// element is a root type and the last element is the type itself. Resolution
// that walks an undeclared parent or fails to reach a root within the number
// of declared types fails with a cycle error.
func (h *Hierarchy) PathOf(stateType StateType) ([]StateType, error) {
	if _, exists := h.declarations[stateType]; !exists {
		return nil, NewStateNotDeclaredError(stateType)
	}

	// Worst case an acyclic chain visits every declared type once.
	path := []StateType{stateType}
	current := stateType
	for steps := 0; ; steps++ {
		decl, exists := h.declarations[current]
		if !exists {
			return nil, NewCycleDetectedError(current, "parent is not declared")
		}
		if !decl.hasParent {
			break
		}
		if steps >= len(h.declarations) {
			return nil, NewCycleDetectedError(stateType, "parent chain does not terminate")
		}
		current = decl.parent
		path = append(path, current)
	}

	// Reverse into root-first order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Types returns all declared state types in declaration order.
func (h *Hierarchy) Types() []StateType {
	types := make([]StateType, len(h.order))
	copy(types, h.order)
	return types
}

// factoryOf returns the instance factory for a declared state type.
func (h *Hierarchy) factoryOf(stateType StateType) Factory {
	return h.declarations[stateType].factory
}

// commonPrefixLen returns the length of the longest common prefix of two
// hierarchy paths, comparing element-wise from the root and stopping at the
// first mismatch. Paths are contiguous parent chains, so an element matching
// again past the first divergence cannot be a real common ancestor.
func commonPrefixLen(a, b []StateType) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

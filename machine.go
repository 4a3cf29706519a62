package canopy

import (
	"context"
	"encoding/json"
)

// Machine is the engine facade: it owns the caller's shared context value,
// the active-state forest, and the observers, and exposes the transition and
// dispatch operations.
//
// A machine is a single logical unit of execution. Every operation runs to
// completion synchronously, including transitions requested recursively from
// inside enter hooks. Re-entrant calls from hooks share the caller's stack;
// concurrent calls from independent goroutines are not supported and must be
// serialized by the caller.
type Machine struct {
	hierarchy *Hierarchy
	tree      *activeTree
	context   *machineContext
	observers *ObserverManager
}

// NewMachine creates a machine over a validated hierarchy. The shared value
// is the opaque context exposed to every state instance for the machine's
// lifetime; it must be non-nil.
func NewMachine(hierarchy *Hierarchy, shared any) (*Machine, error) {
	return NewMachineWithContext(context.Background(), hierarchy, shared)
}

// NewMachineWithContext creates a machine whose Context embeds the given
// parent context.Context.
func NewMachineWithContext(parent context.Context, hierarchy *Hierarchy, shared any) (*Machine, error) {
	if shared == nil {
		return nil, NewMissingContextError()
	}
	if err := hierarchy.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		hierarchy: hierarchy,
		tree:      newActiveTree(),
		observers: NewObserverManager(),
	}
	m.context = newMachineContext(parent, m, shared)
	return m, nil
}

// Start creates and enters an instance of the given root type. It is the one
// entry into the tree not expressed through Transition: the root has no
// source state. Several independent root types may be started side by side.
func (m *Machine) Start(rootType StateType) error {
	if !m.hierarchy.IsRoot(rootType) {
		return NewInvalidRootStateError(rootType)
	}
	if m.tree.root.child(rootType) != nil {
		return NewAlreadyRunningError(rootType)
	}

	wasEmpty := m.tree.empty()
	if err := m.enterState(m.tree.root, rootType); err != nil {
		return err
	}
	if wasEmpty {
		m.observers.NotifyMachineStarted(m.context)
	}
	return nil
}

// Transition moves the active tree from the currently active source type to
// the target type. The move is classified by the relative depth of the two
// hierarchy paths:
//
//   - enter-child: the target's parent is exactly the source; a new child
//     node is added without disturbing co-active branches.
//   - exit-to-ancestor: the source branch under the common ancestor exits,
//     deepest first, then the target enters under that ancestor.
//   - sibling-switch: source and target share a direct parent; the source
//     subtree exits and the target enters in its place.
//
// The classification is validated fully before any tree mutation, so a
// rejected transition leaves the tree unchanged. Enter hooks run after their
// node is attached and may request further transitions before returning.
func (m *Machine) Transition(from, to StateType) error {
	if m.tree.empty() {
		return NewNotRunningError("Transition")
	}

	pathFrom, err := m.hierarchy.PathOf(from)
	if err != nil {
		return err
	}
	pathTo, err := m.hierarchy.PathOf(to)
	if err != nil {
		return err
	}

	fromNode := m.tree.nodeAtExact(pathFrom)
	if fromNode == nil {
		return NewInvalidTransitionSourceError(from, to)
	}

	common := commonPrefixLen(pathFrom, pathTo)

	switch {
	case len(pathTo) > len(pathFrom):
		if len(pathTo)-len(pathFrom) != 1 || common != len(pathFrom) {
			return NewInvalidTransitionShapeError(from, to, "target is not a direct child of the source")
		}
		if fromNode.child(to) != nil {
			return NewDuplicateSiblingError(from, to)
		}
		if err := m.enterState(fromNode, to); err != nil {
			return err
		}

	case len(pathTo) < len(pathFrom):
		// The target must enter as a new child of the common ancestor,
		// otherwise the parent-chain invariant breaks.
		if common != len(pathTo)-1 {
			return NewInvalidTransitionShapeError(from, to, "target is not a new child of a common ancestor")
		}
		if err := m.switchBranch(pathFrom, pathTo, common); err != nil {
			return err
		}

	default:
		if to == from || common != len(pathFrom)-1 {
			return NewInvalidTransitionShapeError(from, to, "source and target are not siblings")
		}
		if err := m.switchBranch(pathFrom, pathTo, common); err != nil {
			return err
		}
	}

	m.observers.NotifyTransition(from, to, m.context)
	return nil
}

// switchBranch removes the source branch below the common ancestor and
// enters the target in its place. common is the length of the shared path
// prefix; pathTo[common] is the target type itself.
func (m *Machine) switchBranch(pathFrom, pathTo []StateType, common int) error {
	parent := m.tree.nodeAtExact(pathFrom[:common])
	if parent.child(pathTo[common]) != nil {
		return NewDuplicateSiblingError(pathFrom[len(pathFrom)-1], pathTo[common])
	}

	for _, removed := range parent.removeSubtree(pathFrom[common]) {
		m.exitNode(removed)
	}
	return m.enterState(parent, pathTo[common])
}

// Exit removes every active node, deepest first, running each exit hook
// exactly once in children-before-parents order.
func (m *Machine) Exit() error {
	if m.tree.empty() {
		return NewNotRunningError("Exit")
	}

	for len(m.tree.root.order) > 0 {
		rootType := m.tree.root.order[0]
		for _, removed := range m.tree.root.removeSubtree(rootType) {
			m.exitNode(removed)
		}
	}
	m.observers.NotifyMachineStopped(m.context)
	return nil
}

// ExitTo removes active nodes in children-before-parents traversal order up
// to and including the first node whose type matches the boundary, leaving
// the rest of the forest untouched.
func (m *Machine) ExitTo(boundary StateType) error {
	if m.tree.empty() {
		return NewNotRunningError("ExitTo")
	}

	snapshot := m.tree.allActive()
	found := false
	for _, n := range snapshot {
		if n.stateType == boundary {
			found = true
			break
		}
	}
	if !found {
		return NewStateNotActiveError("ExitTo", boundary)
	}

	// Post-order guarantees a node's descendants are detached before the
	// node itself, so each node can be unlinked from its parent directly.
	for _, n := range snapshot {
		n.parent.detachChild(n.stateType)
		m.exitNode(n)
		if n.stateType == boundary {
			break
		}
	}
	if m.tree.empty() {
		m.observers.NotifyMachineStopped(m.context)
	}
	return nil
}

// Dispatch creates an event and delivers it to every active state instance.
func (m *Machine) Dispatch(eventName string, eventData any) *DispatchResult {
	return m.DispatchEvent(NewEvent(eventName, eventData))
}

// DispatchEvent delivers an event to every active state instance in
// children-before-parents order. The traversal snapshot is taken before any
// handler runs: an instance exited by an earlier handler in the same pass is
// skipped (its exit hooks already ran), and states entered during the pass
// do not receive this event.
func (m *Machine) DispatchEvent(event Event) *DispatchResult {
	result := &DispatchResult{}
	if m.tree.empty() {
		result.Error = NewNotRunningError("Dispatch")
		m.observers.NotifyError(result.Error, m.context)
		return result
	}

	snapshot := m.tree.allActive()

	previous := m.context.GetCurrentEvent()
	m.context.updateCurrentEvent(event)
	defer m.context.updateCurrentEvent(previous)

	for _, n := range snapshot {
		if n.detached {
			result.Skipped = append(result.Skipped, n.stateType)
			m.observers.NotifyEventSkipped(n.stateType, event, m.context)
			continue
		}
		m.runEventHook(n, event)
		result.Delivered = append(result.Delivered, n.stateType)
	}

	m.observers.NotifyEventDispatched(event, m.context)
	return result
}

// Running reports whether any state is active.
func (m *Machine) Running() bool {
	return !m.tree.empty()
}

// ActiveStates returns the active state types in children-before-parents
// traversal order.
func (m *Machine) ActiveStates() []StateType {
	nodes := m.tree.allActive()
	states := make([]StateType, len(nodes))
	for i, n := range nodes {
		states[i] = n.stateType
	}
	return states
}

// IsStateActive reports whether the given type has an active node anywhere
// in the forest.
func (m *Machine) IsStateActive(stateType StateType) bool {
	for _, n := range m.tree.allActive() {
		if n.stateType == stateType {
			return true
		}
	}
	return false
}

// Context returns the machine-owned execution context.
func (m *Machine) Context() Context {
	return m.context
}

// Hierarchy returns the declaration table the machine was built over.
func (m *Machine) Hierarchy() *Hierarchy {
	return m.hierarchy
}

// AddObserver adds an observer to the machine
func (m *Machine) AddObserver(observer Observer) {
	m.observers.AddObserver(observer)
}

// RemoveObserver removes an observer from the machine
func (m *Machine) RemoveObserver(observer Observer) {
	m.observers.RemoveObserver(observer)
}

// SnapshotNode is one node of the active-tree shape reported by Snapshot.
type SnapshotNode struct {
	Type     StateType      `json:"type"`
	Children []SnapshotNode `json:"children,omitempty"`
}

// Snapshot returns the current shape of the active-state forest, suitable
// for introspection and visualization tooling.
func (m *Machine) Snapshot() []SnapshotNode {
	return snapshotChildren(m.tree.root)
}

func snapshotChildren(n *node) []SnapshotNode {
	if len(n.order) == 0 {
		return nil
	}
	children := make([]SnapshotNode, 0, len(n.order))
	for _, stateType := range n.order {
		child := n.children[stateType]
		children = append(children, SnapshotNode{
			Type:     stateType,
			Children: snapshotChildren(child),
		})
	}
	return children
}

// MarshalJSON serializes the active-tree snapshot
func (m *Machine) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"active": m.Snapshot(),
	})
}

// enterState creates an instance of the given type, attaches it under the
// parent node, and runs its enter hook. The hook may call back into the
// machine; by the time it runs the node is already part of the tree.
func (m *Machine) enterState(parent *node, stateType StateType) error {
	instance := m.hierarchy.factoryOf(stateType)(m.context)
	child, err := parent.insertChild(stateType, instance)
	if err != nil {
		return err
	}

	m.observers.NotifyStateEnter(stateType, m.context)
	m.runEnterHook(child)
	return nil
}

// exitNode runs the exit hook of an already-detached node.
func (m *Machine) exitNode(n *node) {
	m.runExitHook(n)
	m.observers.NotifyStateExit(n.stateType, m.context)
}

func (m *Machine) runEnterHook(n *node) {
	defer func() {
		if r := recover(); r != nil {
			m.observers.NotifyError(&HookError{Hook: "enter", StateType: n.stateType, Recovered: r}, m.context)
		}
	}()
	n.instance.Enter(m.context)
}

func (m *Machine) runExitHook(n *node) {
	defer func() {
		if r := recover(); r != nil {
			m.observers.NotifyError(&HookError{Hook: "exit", StateType: n.stateType, Recovered: r}, m.context)
		}
	}()
	n.instance.Exit(m.context)
}

func (m *Machine) runEventHook(n *node, event Event) {
	defer func() {
		if r := recover(); r != nil {
			m.observers.NotifyError(&HookError{Hook: "event", StateType: n.stateType, Recovered: r}, m.context)
		}
	}()
	n.instance.HandleEvent(m.context, event)
}

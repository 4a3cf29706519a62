package canopy

// State is the behavior attached to one active occurrence of a state type.
// An instance is created by its type's Factory when the type is entered and
// discarded when it is exited; between those two points it may receive any
// number of dispatched events.
//
// Enter may request further transitions through ctx.GetMachine(); each such
// call completes its own tree mutation and hook invocations before returning.
type State interface {
	Enter(ctx Context)
	Exit(ctx Context)
	HandleEvent(ctx Context, event Event)
}

// BaseState provides no-op implementations of the State interface. Embed it
// to implement only the hooks a state type cares about.
type BaseState struct{}

// Enter implements the State interface
func (BaseState) Enter(ctx Context) {}

// Exit implements the State interface
func (BaseState) Exit(ctx Context) {}

// HandleEvent implements the State interface
func (BaseState) HandleEvent(ctx Context, event Event) {}

// FuncState adapts plain functions into a State
type FuncState struct {
	OnEnter func(ctx Context)
	OnExit  func(ctx Context)
	OnEvent func(ctx Context, event Event)
}

// Enter calls OnEnter when set
func (s *FuncState) Enter(ctx Context) {
	if s.OnEnter != nil {
		s.OnEnter(ctx)
	}
}

// Exit calls OnExit when set
func (s *FuncState) Exit(ctx Context) {
	if s.OnExit != nil {
		s.OnExit(ctx)
	}
}

// HandleEvent calls OnEvent when set
func (s *FuncState) HandleEvent(ctx Context, event Event) {
	if s.OnEvent != nil {
		s.OnEvent(ctx, event)
	}
}

package canopy

import "fmt"

// Observer represents an entity that observes state machine lifecycle
type Observer interface {
	// Required methods

	// OnTransition is called after a transition completes
	OnTransition(from StateType, to StateType, ctx Context)

	// OnStateEnter is called when a state instance is entered
	OnStateEnter(state StateType, ctx Context)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnStateExit is called when a state instance is exited
	OnStateExit(state StateType, ctx Context)

	// OnEventDispatched is called after an event has been delivered to the
	// active states
	OnEventDispatched(event Event, ctx Context)

	// OnEventSkipped is called when an instance in the dispatch snapshot was
	// exited by an earlier handler in the same pass
	OnEventSkipped(state StateType, event Event, ctx Context)

	// OnError is called when a hook panics or an operation is rejected
	OnError(err error, ctx Context)

	// OnMachineStarted is called when the first root state becomes active
	OnMachineStarted(ctx Context)

	// OnMachineStopped is called when the last active state exits
	OnMachineStopped(ctx Context)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver struct{}

// OnTransition implements the required Observer method
func (o *BaseObserver) OnTransition(from StateType, to StateType, ctx Context) {
	// Default implementation - no operation
}

// OnStateEnter implements the required Observer method
func (o *BaseObserver) OnStateEnter(state StateType, ctx Context) {
	// Default implementation - no operation
}

// OnStateExit implements the optional ExtendedObserver method
func (o *BaseObserver) OnStateExit(state StateType, ctx Context) {
	// Default implementation - no operation
}

// OnEventDispatched implements the optional ExtendedObserver method
func (o *BaseObserver) OnEventDispatched(event Event, ctx Context) {
	// Default implementation - no operation
}

// OnEventSkipped implements the optional ExtendedObserver method
func (o *BaseObserver) OnEventSkipped(state StateType, event Event, ctx Context) {
	// Default implementation - no operation
}

// OnError implements the optional ExtendedObserver method
func (o *BaseObserver) OnError(err error, ctx Context) {
	// Default implementation - no operation
}

// OnMachineStarted implements the optional ExtendedObserver method
func (o *BaseObserver) OnMachineStarted(ctx Context) {
	// Default implementation - no operation
}

// OnMachineStopped implements the optional ExtendedObserver method
func (o *BaseObserver) OnMachineStopped(ctx Context) {
	// Default implementation - no operation
}

// ObserverManager manages a collection of observers
type ObserverManager struct {
	observers []Observer
}

// NewObserverManager creates a new observer manager
func NewObserverManager() *ObserverManager {
	return &ObserverManager{
		observers: make([]Observer, 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager) AddObserver(observer Observer) {
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager
func (om *ObserverManager) RemoveObserver(observer Observer) {
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

// notify runs fn for every observer, isolating observer panics so a broken
// observer cannot corrupt the transition in progress.
func (om *ObserverManager) notify(method string, ctx Context, fn func(Observer)) {
	observers := make([]Observer, len(om.observers))
	copy(observers, om.observers)

	for _, observer := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if extObs, ok := observer.(ExtendedObserver); ok {
						func() {
							defer func() { recover() }()
							extObs.OnError(fmt.Errorf("observer panic in %s: %v", method, r), ctx)
						}()
					}
				}
			}()
			fn(observer)
		}()
	}
}

// NotifyTransition notifies all observers of a completed transition
func (om *ObserverManager) NotifyTransition(from StateType, to StateType, ctx Context) {
	om.notify("OnTransition", ctx, func(observer Observer) {
		observer.OnTransition(from, to, ctx)
	})
}

// NotifyStateEnter notifies all observers of state entry
func (om *ObserverManager) NotifyStateEnter(state StateType, ctx Context) {
	om.notify("OnStateEnter", ctx, func(observer Observer) {
		observer.OnStateEnter(state, ctx)
	})
}

// NotifyStateExit notifies all observers of state exit
func (om *ObserverManager) NotifyStateExit(state StateType, ctx Context) {
	om.notify("OnStateExit", ctx, func(observer Observer) {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnStateExit(state, ctx)
		}
	})
}

// NotifyEventDispatched notifies all observers of a completed dispatch pass
func (om *ObserverManager) NotifyEventDispatched(event Event, ctx Context) {
	om.notify("OnEventDispatched", ctx, func(observer Observer) {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnEventDispatched(event, ctx)
		}
	})
}

// NotifyEventSkipped notifies all observers of a skipped instance
func (om *ObserverManager) NotifyEventSkipped(state StateType, event Event, ctx Context) {
	om.notify("OnEventSkipped", ctx, func(observer Observer) {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnEventSkipped(state, event, ctx)
		}
	})
}

// NotifyError notifies all observers of errors
func (om *ObserverManager) NotifyError(err error, ctx Context) {
	om.notify("OnError", ctx, func(observer Observer) {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnError(err, ctx)
		}
	})
}

// NotifyMachineStarted notifies all observers that the machine has started
func (om *ObserverManager) NotifyMachineStarted(ctx Context) {
	om.notify("OnMachineStarted", ctx, func(observer Observer) {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnMachineStarted(ctx)
		}
	})
}

// NotifyMachineStopped notifies all observers that the machine has stopped
func (om *ObserverManager) NotifyMachineStopped(ctx Context) {
	om.notify("OnMachineStopped", ctx, func(observer Observer) {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnMachineStopped(ctx)
		}
	})
}

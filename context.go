package canopy

import (
	"context"
	"sync"
)

// Context provides access to shared data and machine information during
// enter, exit, and event handler execution. The Shared value is the opaque
// context supplied by the caller at machine construction; the engine never
// creates or destroys it, every active instance borrows it.
type Context interface {
	context.Context

	Get(key string) (any, bool)
	Set(key string, value any)
	GetAll() map[string]any

	Shared() any
	GetMachine() *Machine

	GetCurrentEvent() Event
	GetEventName() string
	GetEventData() any
}

// machineContext implements the Context interface
type machineContext struct {
	context.Context
	data         map[string]any
	machine      *Machine
	shared       any
	currentEvent Event

	mutex sync.RWMutex
}

// newMachineContext creates the machine-owned execution context
func newMachineContext(parent context.Context, machine *Machine, shared any) *machineContext {
	return &machineContext{
		Context: parent,
		data:    make(map[string]any),
		machine: machine,
		shared:  shared,
	}
}

// Get retrieves a value from the scratch data
func (ctx *machineContext) Get(key string) (any, bool) {
	ctx.mutex.RLock()
	defer ctx.mutex.RUnlock()
	value, exists := ctx.data[key]
	return value, exists
}

// Set stores a value in the scratch data
func (ctx *machineContext) Set(key string, value any) {
	ctx.mutex.Lock()
	defer ctx.mutex.Unlock()
	ctx.data[key] = value
}

// GetAll returns a copy of the scratch data
func (ctx *machineContext) GetAll() map[string]any {
	ctx.mutex.RLock()
	defer ctx.mutex.RUnlock()
	result := make(map[string]any, len(ctx.data))
	for k, v := range ctx.data {
		result[k] = v
	}
	return result
}

// Shared returns the caller-supplied shared context value
func (ctx *machineContext) Shared() any {
	return ctx.shared
}

// GetMachine returns the machine that owns this context
func (ctx *machineContext) GetMachine() *Machine {
	return ctx.machine
}

// GetCurrentEvent returns the event being dispatched, if any
func (ctx *machineContext) GetCurrentEvent() Event {
	ctx.mutex.RLock()
	defer ctx.mutex.RUnlock()
	return ctx.currentEvent
}

// GetEventName returns the name of the event being dispatched
func (ctx *machineContext) GetEventName() string {
	if event := ctx.GetCurrentEvent(); event != nil {
		return event.GetName()
	}
	return ""
}

// GetEventData returns the payload of the event being dispatched
func (ctx *machineContext) GetEventData() any {
	if event := ctx.GetCurrentEvent(); event != nil {
		return event.GetData()
	}
	return nil
}

// updateCurrentEvent records the event for the duration of a dispatch pass
func (ctx *machineContext) updateCurrentEvent(event Event) {
	ctx.mutex.Lock()
	defer ctx.mutex.Unlock()
	ctx.currentEvent = event
}

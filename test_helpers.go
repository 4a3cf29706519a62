package canopy

import (
	"fmt"
	"sync"
	"testing"
)

// RecordingObserver is a test observer that captures all notifications
type RecordingObserver struct {
	mutex       sync.RWMutex
	Transitions []TransitionRecord
	Enters      []StateType
	Exits       []StateType
	Dispatched  []string
	Skipped     []StateType
	Errors      []error
	Started     int
	Stopped     int
}

type TransitionRecord struct {
	From StateType
	To   StateType
}

// NewRecordingObserver creates a new recording observer
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

func (o *RecordingObserver) OnTransition(from StateType, to StateType, ctx Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Transitions = append(o.Transitions, TransitionRecord{From: from, To: to})
}

func (o *RecordingObserver) OnStateEnter(state StateType, ctx Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Enters = append(o.Enters, state)
}

func (o *RecordingObserver) OnStateExit(state StateType, ctx Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Exits = append(o.Exits, state)
}

func (o *RecordingObserver) OnEventDispatched(event Event, ctx Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Dispatched = append(o.Dispatched, event.GetName())
}

func (o *RecordingObserver) OnEventSkipped(state StateType, event Event, ctx Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Skipped = append(o.Skipped, state)
}

func (o *RecordingObserver) OnError(err error, ctx Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Errors = append(o.Errors, err)
}

func (o *RecordingObserver) OnMachineStarted(ctx Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Started++
}

func (o *RecordingObserver) OnMachineStopped(ctx Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Stopped++
}

// Reset clears all captured notifications
func (o *RecordingObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Transitions = nil
	o.Enters = nil
	o.Exits = nil
	o.Dispatched = nil
	o.Skipped = nil
	o.Errors = nil
	o.Started = 0
	o.Stopped = 0
}

// hookLog records hook invocations in order, shared by the states of a test
// hierarchy through the machine context.
type hookLog struct {
	entries []string
}

func (l *hookLog) add(format string, args ...any) {
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

// loggingState records its lifecycle into the shared hookLog
type loggingState struct {
	BaseState
	name StateType
	log  *hookLog
}

func (s *loggingState) Enter(ctx Context) {
	s.log.add("enter:%s", s.name)
}

func (s *loggingState) Exit(ctx Context) {
	s.log.add("exit:%s", s.name)
}

func (s *loggingState) HandleEvent(ctx Context, event Event) {
	s.log.add("event:%s:%s", s.name, event.GetName())
}

// loggingFactory creates a factory producing loggingState instances
func loggingFactory(name StateType, log *hookLog) Factory {
	return func(ctx Context) State {
		return &loggingState{name: name, log: log}
	}
}

// newTestHierarchy declares device / on / lamp-under-on / beam-under-lamp /
// blink-under-on, the shape used by most machine tests:
//
//	device
//	└── on
//	    ├── lamp
//	    │   └── beam
//	    └── blink
func newTestHierarchy(log *hookLog) *Hierarchy {
	return NewHierarchy().
		Root("device", loggingFactory("device", log)).
		Child("on", "device", loggingFactory("on", log)).
		Child("lamp", "on", loggingFactory("lamp", log)).
		Child("beam", "lamp", loggingFactory("beam", log)).
		Child("blink", "on", loggingFactory("blink", log))
}

// newTestMachine builds a machine over the standard test hierarchy
func newTestMachine(t *testing.T, log *hookLog) *Machine {
	t.Helper()
	machine, err := NewMachine(newTestHierarchy(log), log)
	if err != nil {
		t.Fatalf("Expected no error constructing machine, got: %v", err)
	}
	return machine
}

// AssertActiveStates fails the test unless the machine's active states match
// the expected children-before-parents order exactly
func AssertActiveStates(t *testing.T, machine *Machine, expected ...StateType) {
	t.Helper()
	actual := machine.ActiveStates()
	if len(actual) != len(expected) {
		t.Fatalf("Expected active states %v, got %v", expected, actual)
	}
	for i := range expected {
		if actual[i] != expected[i] {
			t.Fatalf("Expected active states %v, got %v", expected, actual)
		}
	}
}

// AssertHookLog fails the test unless the recorded hook invocations match
func AssertHookLog(t *testing.T, log *hookLog, expected ...string) {
	t.Helper()
	if len(log.entries) != len(expected) {
		t.Fatalf("Expected hook log %v, got %v", expected, log.entries)
	}
	for i := range expected {
		if log.entries[i] != expected[i] {
			t.Fatalf("Expected hook log %v, got %v", expected, log.entries)
		}
	}
}

// AssertErrorCode fails the test unless the error carries the expected code
func AssertErrorCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error with code %v, got nil", code)
	}
	if GetErrorCode(err) != code {
		t.Fatalf("Expected error code %v, got %v (%v)", code, GetErrorCode(err), err)
	}
}

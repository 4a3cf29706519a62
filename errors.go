package canopy

import "fmt"

// ErrorCode represents specific error conditions in the state machine
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// Parent declarations form a cycle or reference an undeclared type
	ErrCodeCycleDetected
	// State type was declared more than once
	ErrCodeDuplicateDeclaration
	// State type was never declared in the hierarchy
	ErrCodeStateNotDeclared
	// Machine was constructed without a context value
	ErrCodeMissingContext
	// Start was requested for a type that is not a declared root
	ErrCodeInvalidRootState
	// Transition was requested from a type that is not currently active
	ErrCodeInvalidTransitionSource
	// Transition source and target do not form a legal tree move
	ErrCodeInvalidTransitionShape
	// Target type is already active under the same parent node
	ErrCodeDuplicateSibling
	// Root type is already active
	ErrCodeAlreadyRunning
	// Machine has no active states
	ErrCodeNotRunning
	// Requested state type has no active node
	ErrCodeStateNotActive
)

// HierarchyError represents declaration and path resolution errors
type HierarchyError struct {
	Code      ErrorCode
	StateType StateType
	Message   string
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("hierarchy error [%s]: %s", e.StateType, e.Message)
}

// NewCycleDetectedError creates a new cycle detected error
func NewCycleDetectedError(stateType StateType, reason string) *HierarchyError {
	return &HierarchyError{
		Code:      ErrCodeCycleDetected,
		StateType: stateType,
		Message:   reason,
	}
}

// NewDuplicateDeclarationError creates a new duplicate declaration error
func NewDuplicateDeclarationError(stateType StateType) *HierarchyError {
	return &HierarchyError{
		Code:      ErrCodeDuplicateDeclaration,
		StateType: stateType,
		Message:   fmt.Sprintf("state type '%s' declared more than once", stateType),
	}
}

// NewStateNotDeclaredError creates a new state not declared error
func NewStateNotDeclaredError(stateType StateType) *HierarchyError {
	return &HierarchyError{
		Code:      ErrCodeStateNotDeclared,
		StateType: stateType,
		Message:   fmt.Sprintf("state type '%s' is not declared", stateType),
	}
}

// TransitionError represents transition-shape errors
type TransitionError struct {
	Code   ErrorCode
	From   StateType
	To     StateType
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition error [%s->%s]: %s", e.From, e.To, e.Reason)
}

// NewInvalidTransitionSourceError creates a new invalid transition source error
func NewInvalidTransitionSourceError(from, to StateType) *TransitionError {
	return &TransitionError{
		Code:   ErrCodeInvalidTransitionSource,
		From:   from,
		To:     to,
		Reason: fmt.Sprintf("source state '%s' is not active", from),
	}
}

// NewInvalidTransitionShapeError creates a new invalid transition shape error
func NewInvalidTransitionShapeError(from, to StateType, reason string) *TransitionError {
	return &TransitionError{
		Code:   ErrCodeInvalidTransitionShape,
		From:   from,
		To:     to,
		Reason: reason,
	}
}

// NewDuplicateSiblingError creates a new duplicate sibling error
func NewDuplicateSiblingError(from, to StateType) *TransitionError {
	return &TransitionError{
		Code:   ErrCodeDuplicateSibling,
		From:   from,
		To:     to,
		Reason: fmt.Sprintf("state '%s' is already active under its parent", to),
	}
}

// MachineError represents machine lifecycle and construction errors
type MachineError struct {
	Code      ErrorCode
	Operation string
	StateType StateType
	Message   string
}

func (e *MachineError) Error() string {
	return fmt.Sprintf("machine error during %s: %s", e.Operation, e.Message)
}

// NewMissingContextError creates a new missing context error
func NewMissingContextError() *MachineError {
	return &MachineError{
		Code:      ErrCodeMissingContext,
		Operation: "NewMachine",
		Message:   "machine requires a non-nil context value",
	}
}

// NewInvalidRootStateError creates a new invalid root state error
func NewInvalidRootStateError(stateType StateType) *MachineError {
	return &MachineError{
		Code:      ErrCodeInvalidRootState,
		Operation: "Start",
		StateType: stateType,
		Message:   fmt.Sprintf("state '%s' is not a declared root type", stateType),
	}
}

// NewAlreadyRunningError creates a new already running error
func NewAlreadyRunningError(stateType StateType) *MachineError {
	return &MachineError{
		Code:      ErrCodeAlreadyRunning,
		Operation: "Start",
		StateType: stateType,
		Message:   fmt.Sprintf("root state '%s' is already active", stateType),
	}
}

// NewNotRunningError creates a new not running error
func NewNotRunningError(operation string) *MachineError {
	return &MachineError{
		Code:      ErrCodeNotRunning,
		Operation: operation,
		Message:   "machine has no active states",
	}
}

// NewStateNotActiveError creates a new state not active error
func NewStateNotActiveError(operation string, stateType StateType) *MachineError {
	return &MachineError{
		Code:      ErrCodeStateNotActive,
		Operation: operation,
		StateType: stateType,
		Message:   fmt.Sprintf("state '%s' is not active", stateType),
	}
}

// HookError wraps a panic raised by a state's enter, exit, or event handler
type HookError struct {
	Hook      string
	StateType StateType
	Recovered any
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook panicked in state '%s': %v", e.Hook, e.StateType, e.Recovered)
}

// IsHierarchyError checks if an error is a HierarchyError
func IsHierarchyError(err error) bool {
	_, ok := err.(*HierarchyError)
	return ok
}

// IsTransitionError checks if an error is a TransitionError
func IsTransitionError(err error) bool {
	_, ok := err.(*TransitionError)
	return ok
}

// IsMachineError checks if an error is a MachineError
func IsMachineError(err error) bool {
	_, ok := err.(*MachineError)
	return ok
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	switch e := err.(type) {
	case *HierarchyError:
		return e.Code
	case *TransitionError:
		return e.Code
	case *MachineError:
		return e.Code
	default:
		return ErrCodeNone
	}
}

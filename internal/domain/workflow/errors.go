package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned by strict callers when a trigger leaves the state unchanged
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidTrigger is returned when a trigger is not valid
	ErrInvalidTrigger = errors.New("invalid trigger")
)

// StateError reports a value that does not name a review state
type StateError struct {
	Value string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidState, e.Value)
}

func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// TransitionError reports a trigger that had no effect in the given state
type TransitionError struct {
	State   State
	Trigger Trigger
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: trigger %s from state %s", ErrInvalidTransition, e.Trigger, e.State)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

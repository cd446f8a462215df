package statemachine

import (
	"errors"
	"fmt"
)

var ErrActionFailed = errors.New("statemachine: transition action failed")

// NoTransitionError is returned when the current state has no transition for
// the fired event. Terminal is set when the state accepts no events at all.
type NoTransitionError struct {
	State    string
	Event    string
	Terminal bool
}

func (e *NoTransitionError) Error() string {
	if e.Terminal {
		return fmt.Sprintf("state '%s' is terminal, event '%s' rejected", e.State, e.Event)
	}
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.State, e.Event)
}

// RejectedError is returned when transitions exist but every guard refused.
type RejectedError struct {
	State string
	Event string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.State, e.Event)
}

func IsNoTransition(err error) bool {
	var e *NoTransitionError
	return errors.As(err, &e)
}

func IsRejected(err error) bool {
	var e *RejectedError
	return errors.As(err, &e)
}

package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition: state is not declared")
	ErrUnknownState      = errors.New("unknown state")
	ErrNotRunning        = errors.New("state machine is not running")

	// ErrNotAccepted matches every *NotAcceptedError.
	ErrNotAccepted = errors.New("event not accepted")
)

// Reason tells why an event was not accepted.
type Reason uint8

const (
	// ReasonNoTransition: nothing is defined for the event in the current state.
	ReasonNoTransition Reason = iota + 1
	// ReasonRejected: transitions exist but guards vetoed all of them.
	ReasonRejected
)

func (r Reason) String() string {
	switch r {
	case ReasonNoTransition:
		return "no transition"
	case ReasonRejected:
		return "rejected by guards"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

// NotAcceptedError reports an event the machine declined without changing state.
type NotAcceptedError struct {
	MachineID string
	State     any
	Event     any
	Reason    Reason
}

func (e *NotAcceptedError) Error() string {
	if e.Reason == ReasonRejected {
		return fmt.Sprintf("machine %s: transition from state '%v' for event '%v' was rejected by guards", e.MachineID, e.State, e.Event)
	}
	return fmt.Sprintf("machine %s: no transition available from state '%v' for event '%v'", e.MachineID, e.State, e.Event)
}

func (e *NotAcceptedError) Is(target error) bool {
	return target == ErrNotAccepted
}

func IsNoTransitionAvailableError(err error) bool {
	return reasonOf(err) == ReasonNoTransition
}

func IsTransitionRejectedError(err error) bool {
	return reasonOf(err) == ReasonRejected
}

// IsNotAcceptedError reports whether err means the machine declined the event
// without failing.
func IsNotAcceptedError(err error) bool {
	return errors.Is(err, ErrNotAccepted)
}

func reasonOf(err error) Reason {
	var e *NotAcceptedError
	if errors.As(err, &e) {
		return e.Reason
	}
	return 0
}

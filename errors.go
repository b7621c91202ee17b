package fsmbind

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the root of every error returned while constructing a service.
	ErrConfiguration = errors.New("fsmbind: configuration error")

	// ErrConsistency is the root of errors caused by entity state drifting from its machine.
	ErrConsistency = errors.New("fsmbind: consistency error")

	// ErrInternal is the root of runtime failures inside the binding layer.
	ErrInternal = errors.New("fsmbind: internal error")

	ErrLoad       = errors.New("fsmbind: failed to load state machine")
	ErrNotStarted = errors.New("fsmbind: service is not started")
)

var (
	ErrEntityType          = fmt.Errorf("%w: entity must be a pointer to a struct", ErrConfiguration)
	ErrNoStateField        = fmt.Errorf("%w: no state field", ErrConfiguration)
	ErrMultipleStateFields = fmt.Errorf("%w: multiple state fields", ErrConfiguration)
	ErrStateFieldType      = fmt.Errorf("%w: state field type mismatch", ErrConfiguration)
	ErrStateFieldImmutable = fmt.Errorf("%w: state field is immutable", ErrConfiguration)
	ErrInvalidConfig       = fmt.Errorf("%w: invalid config", ErrConfiguration)

	ErrStateMismatch = fmt.Errorf("%w: entity state mismatch", ErrConsistency)

	// ErrAccess means the state attribute could not be read or written.
	ErrAccess = fmt.Errorf("%w: state access failed", ErrInternal)

	// ErrNoBinding means no entity is bound to the machine an action or guard runs on.
	ErrNoBinding = fmt.Errorf("%w: no binding", ErrInternal)
)

// accessError marks err as a state access failure unless it already is one.
func accessError(err error) error {
	if err == nil || errors.Is(err, ErrAccess) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrAccess, err)
}

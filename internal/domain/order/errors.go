package order

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyExists is returned by CreateOrder when the stream is not empty.
	ErrAlreadyExists = errors.New("order already exists")

	// ErrEmptyOrder is returned by ConfirmOrder when no items were added.
	ErrEmptyOrder = errors.New("order has no items")
)

// InvalidStateError reports a command that is not legal for the order's
// current status per the lifecycle state machine.
type InvalidStateError struct {
	Command string
	Status  Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed while order is %s", e.Command, e.Status)
}

// IsInvalidState reports whether err is a state-machine rejection.
func IsInvalidState(err error) bool {
	var ise *InvalidStateError
	return errors.As(err, &ise)
}

// ValidationError reports a malformed command rejected before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a command validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

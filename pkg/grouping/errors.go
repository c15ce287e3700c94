package grouping

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyRoster is returned when there are no registrants to partition
	ErrEmptyRoster = errors.New("roster is empty")
	// ErrInvalidGroupSize is returned when the target group size is not positive
	ErrInvalidGroupSize = errors.New("target group size must be a positive integer")
	// ErrInvariantViolation is wrapped by every InvariantViolationError
	ErrInvariantViolation = errors.New("partition invariant violated")
)

// DuplicatePhoneError is returned when two registrants in one roster share a phone
type DuplicatePhoneError struct {
	Phone string
}

func (e *DuplicatePhoneError) Error() string {
	return fmt.Sprintf("duplicate phone in roster: %s", e.Phone)
}

// InvariantViolationError reports a postcondition that failed after all passes ran.
// It should never surface from a correct partitioner.
type InvariantViolationError struct {
	Check  string
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("partition invariant %q violated: %s", e.Check, e.Detail)
}

func (e *InvariantViolationError) Unwrap() error {
	return ErrInvariantViolation
}

func violation(check, format string, args ...any) error {
	return &InvariantViolationError{Check: check, Detail: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err was caused by the request rather than the partitioner
func IsInputError(err error) bool {
	var dup *DuplicatePhoneError
	return errors.Is(err, ErrEmptyRoster) || errors.Is(err, ErrInvalidGroupSize) || errors.As(err, &dup)
}

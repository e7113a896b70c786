package expect

import (
	"errors"
	"fmt"
)

// ErrVerificationFailed is wrapped by every VerificationError.
var ErrVerificationFailed = errors.New("expectation verification failed")

// VerificationError describes the first expectation found unsatisfied.
type VerificationError struct {
	// Expectation describes the HTTP expectation or WebSocket path.
	Expectation string
	// Expected describes the contract, e.g. "exactly 1".
	Expected string
	// Calls is the number of matched requests at the deadline.
	Calls int
	// Detail carries the WebSocket snapshot for WebSocket failures.
	Detail string
}

func (e *VerificationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s\n%s", ErrVerificationFailed, e.Expectation, e.Detail)
	}
	return fmt.Sprintf("%s: %s expected %s call(s) but was called %d time(s)",
		ErrVerificationFailed, e.Expectation, e.Expected, e.Calls)
}

func (e *VerificationError) Unwrap() error {
	return ErrVerificationFailed
}

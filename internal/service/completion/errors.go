package completion

import (
	"errors"
	"fmt"
)

// ErrRequestFailed is the single failure kind of a completion call. Network
// errors, non-2xx statuses and unreadable bodies all wrap it.
var ErrRequestFailed = errors.New("completion request failed")

// Error carries what is known about a failed completion call.
type Error struct {
	StatusCode  int
	Description string
	Err         error
}

func (e *Error) Error() string {
	switch {
	case e.Description != "" && e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", ErrRequestFailed, e.StatusCode, e.Description)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", ErrRequestFailed, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", ErrRequestFailed, e.Err)
	default:
		return ErrRequestFailed.Error()
	}
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRequestFailed}
	}
	return []error{ErrRequestFailed, e.Err}
}

// Describe returns the server supplied error description carried by err, or
// "" when there is none.
func Describe(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Description
	}
	return ""
}

package channel

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("channel not found")

// ValidationError rejects a malformed channel before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid channel: %s %s", e.Field, e.Reason)
}

// UnsupportedActionError means an action type has no rendering directive.
type UnsupportedActionError struct {
	Channel    string
	Action     string
	ActionType ActionType
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("channel %q action %q: unsupported action type %q", e.Channel, e.Action, e.ActionType)
}

// PersistenceError wraps a Store failure. The registry was not touched.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("channel store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("channel store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// RebuildError wraps a failed registry rebuild. Any store write that
// preceded it has already happened.
type RebuildError struct {
	Err error
}

func (e *RebuildError) Error() string {
	return "failed to rebuild native categories: " + e.Err.Error()
}

func (e *RebuildError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsUnsupportedAction(err error) bool {
	var target *UnsupportedActionError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

func IsRebuild(err error) bool {
	var target *RebuildError
	return errors.As(err, &target)
}

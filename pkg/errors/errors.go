// Package errors provides the error helpers used throughout sitesync. Errors
// are annotated with short context strings as they propagate up the stack so
// that the final message reads like a trace of what was being attempted.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// New creates a new error with the given printf-style message.
func New(msg string, args ...interface{}) error {
	return &simpleError{fmt.Sprintf(msg, args...)}
}

type simpleError struct {
	msg string
}

func (err *simpleError) Error() string {
	return err.msg
}

// contextError wraps an error with a description of what was happening when
// the error occurred.
type contextError struct {
	context string
	err     error
}

// WithContext annotates `err` with `context`. It returns nil if `err` is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{context: context, err: err}
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

// Cause implements the causer interface from github.com/pkg/errors.
func (err contextError) Cause() error {
	return err.err
}

// Unwrap allows the standard library helpers to see through the context.
func (err contextError) Unwrap() error {
	return err.err
}

// FriendlyError is an error whose message is meant to be shown directly to
// the user, rather than as a chain of context.
type FriendlyError struct {
	template string
	args     []interface{}
}

// NewFriendlyError creates a FriendlyError. The template and args are
// formatted lazily so that tests can compare errors structurally.
func NewFriendlyError(template string, args ...interface{}) error {
	return FriendlyError{template: template, args: args}
}

func (err FriendlyError) Error() string {
	return err.FriendlyMessage()
}

// FriendlyMessage returns the user facing message.
func (err FriendlyError) FriendlyMessage() string {
	return fmt.Sprintf(err.template, err.args...)
}

// Friendly is implemented by errors that carry a user facing message.
type Friendly interface {
	FriendlyMessage() string
}

// RootCause returns the innermost error by unwrapping any context.
func RootCause(err error) error {
	return errors.Cause(err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetFriendlyMessage returns the message of the outermost Friendly error in
// the chain, if there is one.
func GetFriendlyMessage(err error) (string, bool) {
	for err != nil {
		if friendly, ok := err.(Friendly); ok {
			return friendly.FriendlyMessage(), true
		}

		wrapped, ok := err.(interface{ Cause() error })
		if !ok {
			return "", false
		}
		err = wrapped.Cause()
	}
	return "", false
}

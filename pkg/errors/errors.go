package errors

import (
	"errors"
	"fmt"
)

// New returns an error with the given message.
func New(format string, args ...interface{}) error {
	if len(args) == 0 {
		return errors.New(format)
	}
	return fmt.Errorf(format, args...)
}

// contextError annotates an error with a short description of what was being
// attempted when it occurred. The resulting message reads like
// "collect state: fetch have files: <root cause>".
type contextError struct {
	context string
	err     error
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err contextError) Unwrap() error {
	return err.err
}

// WithContext wraps `err` with `context`. A nil error stays nil so that
// callers can wrap return values unconditionally.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{context: context, err: err}
}

// FriendlyError is an error whose message is meant to be shown to the user
// as-is, without the chain of contexts that led to it.
type FriendlyError struct {
	msg string
}

// NewFriendlyError creates a FriendlyError using a format string.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{fmt.Sprintf(format, args...)}
}

func (err FriendlyError) Error() string {
	return err.msg
}

// FriendlyMessage returns the message that should be shown to the user.
func (err FriendlyError) FriendlyMessage() string {
	return err.msg
}

type friendlyMessager interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the message that should be printed for `err`.
// If any error in the chain has a friendly message, that message is used.
// Otherwise, the full error string is returned.
func GetPrintableMessage(err error) string {
	for curr := err; curr != nil; curr = errors.Unwrap(curr) {
		if friendly, ok := curr.(friendlyMessager); ok {
			return friendly.FriendlyMessage()
		}
	}
	return err.Error()
}

// RootCause strips all the contexts added by WithContext and returns the
// original error.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(contextError)
		if !ok {
			return err
		}
		err = ctxErr.err
	}
}

// Is and As are re-exported so that callers don't need to import both this
// package and the standard library one.
var (
	Is = errors.Is
	As = errors.As
)

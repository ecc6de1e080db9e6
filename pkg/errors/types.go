package errors

import (
	"fmt"
	"strings"
)

var (
	// ErrInterrupted is returned when the user interrupts the run.
	ErrInterrupted = New("interrupted")

	// ErrUnsupportedPlatform is returned when there's no link resolver for
	// the current operating system.
	ErrUnsupportedPlatform = New("unsupported platform")
)

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// ConfigurationError is a fatal problem with the client workspace or the
// user's configuration, such as a malformed client view.
type ConfigurationError struct {
	Msg string
}

func (err ConfigurationError) Error() string {
	return err.Msg
}

// FriendlyMessage returns the message shown to the user.
func (err ConfigurationError) FriendlyMessage() string {
	return "Configuration error: " + err.Msg
}

// NewConfigurationError creates a ConfigurationError using a format string.
func NewConfigurationError(format string, args ...interface{}) error {
	return ConfigurationError{fmt.Sprintf(format, args...)}
}

// ProtocolError contains the error messages reported by the server for a
// single command.
type ProtocolError struct {
	Command  string
	Messages []string
}

func (err ProtocolError) Error() string {
	return fmt.Sprintf("p4 %s: %s", err.Command, strings.Join(err.Messages, "; "))
}

// LinkResolutionError is returned when a directory entry is a reparse point
// whose data can't be decoded into a target path.
type LinkResolutionError struct {
	Path string
	Tag  uint32
}

func (err LinkResolutionError) Error() string {
	if err.Path == "" {
		return fmt.Sprintf("unsupported reparse tag %#x", err.Tag)
	}
	return fmt.Sprintf("%s: unsupported reparse tag %#x", err.Path, err.Tag)
}

// NotInViewError is returned when a path isn't mapped by the client view.
type NotInViewError struct {
	Path string
}

func (err NotInViewError) Error() string {
	return fmt.Sprintf("%s is not in the client view", err.Path)
}

// InconsistentStateError is returned when a local file was removed, but the
// follow-up server action failed. The workspace needs manual attention.
type InconsistentStateError struct {
	Path string
	Err  error
}

func (err InconsistentStateError) Error() string {
	return fmt.Sprintf("%s was deleted but not reverted: %s", err.Path, err.Err)
}

func (err InconsistentStateError) Unwrap() error {
	return err.Err
}

// FriendlyMessage returns the message shown to the user.
func (err InconsistentStateError) FriendlyMessage() string {
	return fmt.Sprintf("%q was deleted from disk, but reverting it failed:\n%s\n\n"+
		"Run `p4 revert` on the file manually.", err.Path, err.Err)
}

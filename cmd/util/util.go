package util

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/p4workspace/pkg/errors"
)

// Mocked for unit testing.
var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// HandleFatalError prints the error and exits. Errors reported by the server
// are printed line by line, the way the server sent them.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")

	var inconsistentErr errors.InconsistentStateError
	var protocolErr errors.ProtocolError
	switch {
	case errors.As(err, &inconsistentErr):
		fmt.Fprintln(stderr, inconsistentErr.FriendlyMessage())
	case errors.As(err, &protocolErr):
		for _, msg := range protocolErr.Messages {
			fmt.Fprintln(stderr, msg)
		}
	case errors.Is(err, errors.ErrInterrupted):
		fmt.Fprintln(stderr, "Interrupted.")
	default:
		fmt.Fprintln(stderr, errors.GetPrintableMessage(err))
	}
	exit(1)
}

// HandlePanic logs the stack trace of a panic before re-panicking. It should
// be deferred.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).Error("Unexpected panic")
		panic(r)
	}
}

package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidkik/p4workspace/pkg/errors"
)

func TestHandleFatalError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		expOutput string
	}{
		{
			name: "ProtocolError",
			err: errors.WithContext(errors.ProtocolError{
				Command: "revert",
				Messages: []string{
					"//ws/a.txt - file(s) not opened on this client.",
					"//ws/b.txt - file(s) not opened on this client.",
				},
			}, "clean edited"),
			expOutput: "//ws/a.txt - file(s) not opened on this client.\n" +
				"//ws/b.txt - file(s) not opened on this client.\n",
		},
		{
			name: "InconsistentStateError",
			err: errors.WithContext(errors.InconsistentStateError{
				Path: "new.txt",
				Err: errors.ProtocolError{
					Command:  "revert",
					Messages: []string{"Connect to server failed."},
				},
			}, "clean added"),
			expOutput: "\"new.txt\" was deleted from disk, but reverting it failed:\n" +
				"p4 revert: Connect to server failed.\n\n" +
				"Run `p4 revert` on the file manually.\n",
		},
		{
			name:      "Interrupted",
			err:       errors.WithContext(errors.ErrInterrupted, "collect state"),
			expOutput: "Interrupted.\n",
		},
		{
			name:      "FriendlyError",
			err:       errors.WithContext(errors.NewFriendlyError("nope"), "run"),
			expOutput: "nope\n",
		},
		{
			name:      "PlainError",
			err:       errors.WithContext(errors.New("boom"), "run"),
			expOutput: "run: boom\n",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			var exitCode int
			stderr = &out
			exit = func(code int) { exitCode = code }

			HandleFatalError(test.err)
			assert.Equal(t, test.expOutput, out.String())
			assert.Equal(t, 1, exitCode)
		})
	}
}

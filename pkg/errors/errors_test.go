package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	assert.NoError(t, WithContext(nil, "ignored"))

	err := WithContext(WithContext(FileNotFound{Path: "a"}, "open"), "read config")
	assert.EqualError(t, err, `read config: open: "a" does not exist`)
	assert.Equal(t, FileNotFound{Path: "a"}, RootCause(err))

	var notFound FileNotFound
	assert.True(t, As(err, &notFound))
	assert.Equal(t, "a", notFound.Path)
}

func TestGetPrintableMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		exp  string
	}{
		{
			name: "PlainError",
			err:  WithContext(New("boom"), "run"),
			exp:  "run: boom",
		},
		{
			name: "FriendlyError",
			err:  WithContext(NewFriendlyError("please fix %q", "x"), "run"),
			exp:  `please fix "x"`,
		},
		{
			name: "ConfigurationError",
			err:  WithContext(NewConfigurationError("bad view line %d", 2), "parse"),
			exp:  "Configuration error: bad view line 2",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, GetPrintableMessage(test.err))
		})
	}
}

func TestInconsistentStateUnwrap(t *testing.T) {
	cause := ProtocolError{Command: "revert", Messages: []string{"file(s) not opened"}}
	err := WithContext(InconsistentStateError{Path: "a.txt", Err: cause}, "clean added")

	var protocolErr ProtocolError
	assert.True(t, As(err, &protocolErr))
	assert.Equal(t, cause, protocolErr)
}

package config

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/p4workspace/pkg/errors"
)

func mockHomedir(t *testing.T, configPath string) {
	homedirExpand = func(path string) (string, error) {
		if path == UserConfigPath {
			return configPath, nil
		}
		return path, nil
	}
	t.Cleanup(func() { homedirExpand = homedirExpandDefault })
}

var homedirExpandDefault = homedirExpand

func TestParseUser(t *testing.T) {
	out := ".p4workspace.yaml"
	userEmptyVersion := User{
		P4Path:           "/opt/perforce/bin/p4",
		Charset:          "iso8859-1",
		Ignore:           []string{".vs", "build/out"},
		ProgressInterval: 500,
	}
	userInitialVersion := userEmptyVersion
	userInitialVersion.Version = InitialUserConfigVersion
	userInitialVersion.Ignore = []string{".vs", filepath.Join("build", "out")}

	userIncorrectVersion := userEmptyVersion
	userIncorrectVersion.Version = "incorrect_version"

	userEmptyVersionString, err := yaml.Marshal(userEmptyVersion)
	assert.NoError(t, err)
	userIncorrectVersionString, err := yaml.Marshal(userIncorrectVersion)
	assert.NoError(t, err)

	tests := []struct {
		name      string
		input     []byte
		expConfig User
		expError  error
	}{
		{
			name:      "Default version",
			input:     userEmptyVersionString,
			expConfig: userInitialVersion,
		},
		{
			name:  "Defaults for missing fields",
			input: []byte(fmt.Sprintf("version: %s\n", SupportedUserConfigVersion)),
			expConfig: User{
				Version:          SupportedUserConfigVersion,
				P4Path:           "p4",
				ProgressInterval: DefaultProgressInterval,
			},
		},
		{
			name:      "Incorrect version",
			input:     userIncorrectVersionString,
			expConfig: User{},
			expError: errors.WithContext(incompatibleVersionError{
				path:   out,
				exp:    SupportedUserConfigVersion,
				actual: userIncorrectVersion.Version,
			}, "parse"),
		},
		{
			name: "Extra fields",
			input: []byte(fmt.Sprintf(
				"version: %s\nextra: fields", SupportedUserConfigVersion)),
			expError: errors.WithContext(
				errors.NewFriendlyError(parseErrTemplate, out,
					errors.New("error unmarshaling JSON: while decoding JSON: "+
						`json: unknown field "extra"`)),
				"parse"),
		},
		{
			name: "Version checked before extra fields",
			input: []byte(`
version: incorrect_version
extra: fields
`),
			expError: errors.WithContext(incompatibleVersionError{
				path:   out,
				exp:    SupportedUserConfigVersion,
				actual: "incorrect_version",
			}, "parse"),
		},
		{
			name:     "Negative progress interval",
			input:    []byte("progressInterval: -1\n"),
			expError: errors.NewConfigurationError("%s: progressInterval must be positive, got -1", out),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs = afero.NewMemMapFs()
			mockHomedir(t, out)

			err := afero.WriteFile(fs, out, test.input, 0644)
			assert.NoError(t, err)
			config, err := ParseUser("")
			assert.Equal(t, test.expConfig, config)
			assert.Equal(t, test.expError, err)
		})
	}
}

func TestParseUserMissing(t *testing.T) {
	fs = afero.NewMemMapFs()
	mockHomedir(t, ".p4workspace.yaml")

	config, err := ParseUser("")
	assert.NoError(t, err)
	assert.Equal(t, DefaultUser(), config)
}

func TestParseUserExplicitPath(t *testing.T) {
	fs = afero.NewMemMapFs()
	mockHomedir(t, ".p4workspace.yaml")

	assert.NoError(t, afero.WriteFile(fs, "/etc/p4workspace.yaml",
		[]byte("charset: shiftjis\n"), 0644))
	assert.NoError(t, afero.WriteFile(fs, ".p4workspace.yaml",
		[]byte("charset: utf8\n"), 0644))

	config, err := ParseUser("/etc/p4workspace.yaml")
	assert.NoError(t, err)
	assert.Equal(t, "shiftjis", config.Charset)
}

func TestParseWrittenUser(t *testing.T) {
	fs = afero.NewMemMapFs()
	mockHomedir(t, ".p4workspace.yaml")

	cfg := User{
		P4Path:           "/usr/local/bin/p4",
		Charset:          "utf8",
		Ignore:           []string{"build"},
		ProgressInterval: 250,
	}
	path, err := WriteUser("", cfg)
	assert.NoError(t, err)
	assert.Equal(t, ".p4workspace.yaml", path)

	parsed, err := ParseUser("")
	assert.NoError(t, err)

	cfg.Version = SupportedUserConfigVersion
	assert.Equal(t, cfg, parsed)
}

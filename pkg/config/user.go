package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/p4workspace/pkg/errors"
)

const (
	// UserConfigPath is the default path to the user config.
	UserConfigPath = "~/.p4workspace.yaml"

	// InitialUserConfigVersion is the first version of the user config.
	// Config files that do not specify a version default to this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the user config version supported by
	// this binary.
	SupportedUserConfigVersion = "v1alpha1"

	// DefaultProgressInterval is the number of verified files between
	// progress updates.
	DefaultProgressInterval = 1000
)

// User contains the user's preferences. Every field is optional.
type User struct {
	Version string `json:"version,omitempty"`

	// P4Path is the command line client binary.
	P4Path string `json:"p4Path,omitempty"`

	// Charset overrides the encoding of server output for servers that
	// aren't in unicode mode.
	Charset string `json:"charset,omitempty"`

	// Ignore lists paths, relative to the working directory, that are never
	// reported or removed.
	Ignore []string `json:"ignore,omitempty"`

	ProgressInterval int `json:"progressInterval,omitempty"`
}

// DefaultUser returns the config used when the user hasn't created one.
func DefaultUser() User {
	return User{
		Version:          SupportedUserConfigVersion,
		P4Path:           "p4",
		ProgressInterval: DefaultProgressInterval,
	}
}

// Mocked for unit testing.
var (
	fs            = afero.NewOsFs()
	homedirExpand = homedir.Expand
)

// parseErrTemplate is shown when the user config isn't valid YAML, or has
// unknown fields or fields of the wrong type. The parser's message doesn't
// say which line is wrong, so it's included verbatim.
const parseErrTemplate = "Failed to parse the user config at %q.\n" +
	"Check that every field is spelled correctly and has the right type.\n\n" +
	"Parser error: %s"

type incompatibleVersionError struct {
	path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The user config at %q has version %q, but this "+
		"version of p4workspace only reads version %q.",
		err.path, err.actual, err.exp)
}

// ParseUser parses the user config at `path`, or at UserConfigPath if `path`
// is empty. A missing config file isn't an error.
func ParseUser(path string) (User, error) {
	path, err := GetUserConfigPath(path)
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config, err := readUser(path)
	if err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			log.WithField("path", path).Debug("No user config. Using defaults.")
			return DefaultUser(), nil
		}
		return User{}, errors.WithContext(err, "parse")
	}

	if config.P4Path == "" {
		config.P4Path = "p4"
	} else if config.P4Path, err = homedirExpand(config.P4Path); err != nil {
		return User{}, errors.WithContext(err, "expand p4 path")
	}

	switch {
	case config.ProgressInterval == 0:
		config.ProgressInterval = DefaultProgressInterval
	case config.ProgressInterval < 0:
		return User{}, errors.NewConfigurationError(
			"%s: progressInterval must be positive, got %d",
			path, config.ProgressInterval)
	}

	for i, ignored := range config.Ignore {
		config.Ignore[i] = filepath.Clean(filepath.FromSlash(ignored))
	}
	return config, nil
}

// readUser decodes the config at `path`. A config from another release is
// reported as such even if it also has fields this release doesn't know.
func readUser(path string) (User, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return User{}, errors.FileNotFound{Path: path}
		}
		return User{}, errors.WithContext(err, "read file")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return User{}, errors.NewFriendlyError(parseErrTemplate, path, err)
	}

	if config.Version != SupportedUserConfigVersion {
		return User{}, incompatibleVersionError{path, SupportedUserConfigVersion, config.Version}
	}

	if err := yaml.UnmarshalStrict(data, &config, yaml.DisallowUnknownFields); err != nil {
		return User{}, errors.NewFriendlyError(parseErrTemplate, path, err)
	}
	return config, nil
}

// WriteUser writes `cfg` to `path`, or to UserConfigPath if `path` is empty.
// It returns the expanded path that was written.
func WriteUser(path string, cfg User) (string, error) {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath(path)
	if err != nil {
		return "", errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return "", errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return "", errors.WithContext(err, "write")
	}
	return path, nil
}

// GetUserConfigPath returns the expanded path to the user config. An empty
// `path` means UserConfigPath.
func GetUserConfigPath(path string) (string, error) {
	if path == "" {
		path = UserConfigPath
	}
	return homedirExpand(path)
}

package p4

import (
	"regexp"

	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/p4workspace/pkg/errors"
)

// MinimumServerRelease is the oldest server release that supports
// `files -e` and `diff -sl`.
const MinimumServerRelease = "2009.2"

// serverVersionRE matches the release in a server version string such as
// `P4D/LINUX26X86_64/2019.1/1796703 (2019/05/15)`.
var serverVersionRE = regexp.MustCompile(`^[^/]+/[^/]+/(\d+\.\d+)`)

// CheckServerVersion returns a ConfigurationError if the server is older than
// MinimumServerRelease. Version strings that can't be parsed are allowed.
func CheckServerVersion(serverVersion string) error {
	match := serverVersionRE.FindStringSubmatch(serverVersion)
	if match == nil {
		log.WithField("serverVersion", serverVersion).Debug(
			"Failed to parse server version. Skipping version check.")
		return nil
	}

	release, err := goversion.NewVersion(match[1])
	if err != nil {
		log.WithError(err).WithField("serverVersion", serverVersion).Debug(
			"Failed to parse server release. Skipping version check.")
		return nil
	}

	minimum := goversion.Must(goversion.NewVersion(MinimumServerRelease))
	if release.LessThan(minimum) {
		return errors.NewConfigurationError(
			"server release %s is older than the minimum supported release %s",
			match[1], MinimumServerRelease)
	}
	return nil
}

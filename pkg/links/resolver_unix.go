//go:build unix

package links

import (
	"os"

	"github.com/sidkik/p4workspace/pkg/errors"
)

var platformResolver Resolver = symlinkResolver{}

// symlinkResolver uses lstat and readlink.
type symlinkResolver struct{}

func (symlinkResolver) IsLink(path string) (bool, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return false, errors.WithContext(err, "lstat")
	}
	return fi.Mode()&os.ModeSymlink != 0, nil
}

func (symlinkResolver) ReadLinkTarget(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", errors.WithContext(err, "readlink")
	}
	return target, nil
}

// Package links detects directory entries that redirect to another location,
// such as symbolic links and NTFS junctions, and resolves their targets.
//
// Files beneath a link belong to a different logical location, so they must
// never be reported as extra files or deleted.
package links

import (
	"path/filepath"

	"github.com/sidkik/p4workspace/pkg/errors"
)

// Resolver is implemented once per platform.
type Resolver interface {
	// IsLink returns whether the entry at `path` is a link. The entry
	// itself is inspected, not what it points to.
	IsLink(path string) (bool, error)

	// ReadLinkTarget returns the raw target of the link at `path`. The
	// target may be relative to the link's directory.
	ReadLinkTarget(path string) (string, error)
}

// NewResolver returns the Resolver for the current platform.
func NewResolver() (Resolver, error) {
	if platformResolver == nil {
		return nil, errors.ErrUnsupportedPlatform
	}
	return platformResolver, nil
}

// Resolve returns the absolute, cleaned target of the link at `path`.
// Relative targets are resolved against the directory containing the link.
func Resolve(r Resolver, path string) (string, error) {
	target, err := r.ReadLinkTarget(path)
	if err != nil {
		return "", err
	}

	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target), nil
}

// Package workspace translates between server paths and paths on the local
// filesystem for a single client workspace.
package workspace

import (
	"path/filepath"
	"strings"

	"github.com/sidkik/p4workspace/pkg/errors"
)

// Workspace holds everything needed to translate paths for one run: the
// client name, its root on disk, the directory the run is scoped to, and the
// client view in both directions.
type Workspace struct {
	ClientName string
	Root       string
	WorkDir    string

	view    View
	reverse View
}

// New builds a Workspace from the fields of a client spec. `workDir` is the
// directory that's being reconciled, and must be absolute.
func New(clientName, root string, viewLines []string, workDir string) (*Workspace, error) {
	if clientName == "" {
		return nil, errors.NewConfigurationError("client spec has no name")
	}
	if root == "" {
		return nil, errors.NewConfigurationError("client %q has no root", clientName)
	}

	view, err := ParseView(viewLines)
	if err != nil {
		return nil, errors.WithContext(err, "parse view")
	}

	clientPrefix := "//" + clientName + "/"
	for _, rhs := range view.rightSides() {
		if !hasPrefixFold(rhs, clientPrefix) {
			return nil, errors.NewConfigurationError(
				"view mapping %q is not under %s", rhs, clientPrefix)
		}
	}

	return &Workspace{
		ClientName: clientName,
		Root:       filepath.Clean(root),
		WorkDir:    filepath.Clean(workDir),
		view:       view,
		reverse:    view.Reverse(),
	}, nil
}

// ToLocal returns the absolute local path of a server path.
func (w *Workspace) ToLocal(serverPath string) (string, error) {
	clientPath, ok := w.view.Translate(serverPath)
	if !ok {
		return "", errors.NotInViewError{Path: serverPath}
	}

	prefix := w.clientPrefix()
	if !hasPrefixFold(clientPath, prefix) {
		return "", errors.NotInViewError{Path: serverPath}
	}

	rest := Unescape(clientPath[len(prefix):])
	return filepath.Join(w.Root, filepath.FromSlash(rest)), nil
}

// ToServer returns the server path of an absolute local path.
func (w *Workspace) ToServer(localPath string) (string, error) {
	rel, ok := relFold(w.Root, localPath)
	if !ok || rel == "." {
		return "", errors.NotInViewError{Path: localPath}
	}

	clientPath := w.clientPrefix() + Escape(filepath.ToSlash(rel))
	serverPath, ok := w.reverse.Translate(clientPath)
	if !ok {
		return "", errors.NotInViewError{Path: localPath}
	}
	return serverPath, nil
}

// Rel returns `path` relative to the working directory. It returns false if
// `path` isn't inside the working directory. The comparison ignores case.
func (w *Workspace) Rel(path string) (string, bool) {
	rel, ok := relFold(w.WorkDir, filepath.Clean(path))
	if !ok || rel == "." {
		return "", false
	}
	return rel, true
}

// Abs returns the absolute path of a path relative to the working directory.
func (w *Workspace) Abs(rel string) string {
	return filepath.Join(w.WorkDir, rel)
}

// Key normalizes a path relative to the working directory for set
// membership tests. The filesystem is case-insensitive, so keys are
// lower-cased.
func Key(rel string) string {
	return strings.ToLower(rel)
}

// Beneath returns whether `key` is `dirKey` or inside it. Unlike a plain
// string prefix, `a/bc` is not beneath `a/b`.
func Beneath(key, dirKey string) bool {
	if key == dirKey {
		return true
	}
	return strings.HasPrefix(key, dirKey) &&
		strings.HasPrefix(key[len(dirKey):], string(filepath.Separator))
}

func (w *Workspace) clientPrefix() string {
	return "//" + w.ClientName + "/"
}

// relFold is filepath.Rel restricted to paths inside `base`, ignoring case.
func relFold(base, path string) (string, bool) {
	if strings.EqualFold(base, path) {
		return ".", true
	}

	prefix := base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if len(path) <= len(prefix) || !hasPrefixFold(path, prefix) {
		return "", false
	}
	return path[len(prefix):], true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// Package cleanup brings the working directory back in line with the server
// by acting on the differences found by reconcile.
package cleanup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/p4workspace/pkg/errors"
	"github.com/sidkik/p4workspace/pkg/p4"
	"github.com/sidkik/p4workspace/pkg/reconcile"
	"github.com/sidkik/p4workspace/pkg/workspace"
)

// fs is used for mock tests. It will be overridden by afero.NewMemMapFs()
// in the tests.
var fs = afero.NewOsFs()

// Selection is the set of remediations to run.
type Selection struct {
	Missing bool
	Edited  bool
	Added   bool
	Extra   bool
	Empty   bool
}

// Executor runs remediations. Server failures abort the run, but failures
// to remove a local file are logged and the remaining files are still
// processed.
type Executor struct {
	Client    p4.Client
	Workspace *workspace.Workspace
	Log       logrus.FieldLogger

	// Out receives the paths of the files that were fixed.
	Out io.Writer
}

// Run applies the selected remediations in order: missing, edited, added,
// extra, then empty directories.
func (e Executor) Run(ctx context.Context, c reconcile.Classification,
	local reconcile.LocalState, sel Selection) error {
	if sel.Missing && len(c.Missing) != 0 {
		fmt.Fprintln(e.Out, "\nSyncing missing files...")
		if err := e.syncMissing(ctx, c.Missing); err != nil {
			return errors.WithContext(err, "sync missing files")
		}
	}

	if sel.Edited && len(c.Edited) != 0 {
		fmt.Fprintln(e.Out, "\nReverting edited files...")
		if err := e.revertEdited(ctx, c.Edited); err != nil {
			return errors.WithContext(err, "revert edited files")
		}
	}

	if sel.Added && len(c.Added) != 0 {
		fmt.Fprintln(e.Out, "\nCleaning added files...")
		if err := e.cleanAdded(ctx, c.Added); err != nil {
			return errors.WithContext(err, "clean added files")
		}
	}

	if sel.Extra && len(c.Extra) != 0 {
		fmt.Fprintln(e.Out, "\nCleaning extra files...")
		for _, rel := range c.Extra {
			if ctx.Err() != nil {
				return errors.ErrInterrupted
			}

			if err := e.removeFile(rel); err != nil {
				e.logRemoveError(err, rel)
				continue
			}
			fmt.Fprintln(e.Out, rel)
		}
	}

	if sel.Empty {
		if ctx.Err() != nil {
			return errors.ErrInterrupted
		}

		fmt.Fprintln(e.Out, "\nCleaning empty directories...")
		if err := e.pruneEmptyDirs(ctx, local); err != nil {
			return err
		}
	}
	return nil
}

func (e Executor) syncMissing(ctx context.Context, paths []string) error {
	for _, rel := range paths {
		serverPath, ok := e.serverPath(rel)
		if !ok {
			continue
		}

		if err := e.Client.ForceSync(ctx, serverPath+"#have"); err != nil {
			return err
		}
		fmt.Fprintln(e.Out, rel)
	}
	return nil
}

func (e Executor) revertEdited(ctx context.Context, paths []string) error {
	for _, rel := range paths {
		serverPath, ok := e.serverPath(rel)
		if !ok {
			continue
		}

		if err := e.Client.Revert(ctx, serverPath); err != nil {
			return err
		}
		fmt.Fprintln(e.Out, rel)
	}
	return nil
}

// cleanAdded deletes each file and then reverts the add. Once a file is
// deleted, a failed revert can't be undone, so it's returned as an
// InconsistentStateError rather than retried.
func (e Executor) cleanAdded(ctx context.Context, paths []string) error {
	for _, rel := range paths {
		serverPath, ok := e.serverPath(rel)
		if !ok {
			continue
		}

		if err := e.removeFile(rel); err != nil {
			e.logRemoveError(err, rel)
			continue
		}

		if err := e.Client.Revert(ctx, serverPath); err != nil {
			return errors.InconsistentStateError{Path: rel, Err: err}
		}
		fmt.Fprintln(e.Out, rel)
	}
	return nil
}

func (e Executor) serverPath(rel string) (string, bool) {
	serverPath, err := e.Workspace.ToServer(e.Workspace.Abs(rel))
	if err != nil {
		e.Log.WithError(err).WithField("path", rel).Warn(
			"Failed to get server path. Skipping.")
		return "", false
	}
	return serverPath, true
}

// removeFile deletes a file, clearing its read-only attribute first.
func (e Executor) removeFile(rel string) error {
	path := e.Workspace.Abs(rel)
	if err := makeWritable(path); err != nil {
		return errors.WithContext(err, "make writable")
	}
	return fs.Remove(path)
}

func (e Executor) logRemoveError(err error, rel string) {
	e.Log.WithError(err).WithField("path", rel).Warn("Failed to remove file")
}

func makeWritable(path string) error {
	var fi os.FileInfo
	var err error
	if lstater, ok := fs.(afero.Lstater); ok {
		fi, _, err = lstater.LstatIfPossible(path)
	} else {
		fi, err = fs.Stat(path)
	}
	if err != nil {
		return err
	}

	// Changing the mode of a link would change its target.
	if fi.Mode()&os.ModeSymlink != 0 || fi.Mode().Perm()&0200 != 0 {
		return nil
	}
	return fs.Chmod(path, fi.Mode().Perm()|0200)
}

// pruneEmptyDirs removes empty directories bottom-up, so that directories
// containing only empty directories are removed as well. Links and their
// targets are never removed, and the walk doesn't descend into links.
func (e Executor) pruneEmptyDirs(ctx context.Context, local reconcile.LocalState) error {
	return e.prune(ctx, "", local)
}

func (e Executor) prune(ctx context.Context, dirRel string, local reconcile.LocalState) error {
	if ctx.Err() != nil {
		return errors.ErrInterrupted
	}

	dir := e.Workspace.Abs(dirRel)
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		e.Log.WithError(err).WithField("path", dir).Warn("Failed to read directory")
		return nil
	}

	for _, fi := range entries {
		if !fi.IsDir() {
			continue
		}

		rel := filepath.Join(dirRel, fi.Name())
		if local.Links.Contains(rel) {
			continue
		}

		if err := e.prune(ctx, rel, local); err != nil {
			return err
		}
		if local.LinkTargets.Contains(rel) {
			continue
		}

		if err := removeEmptyDir(e.Workspace.Abs(rel)); err != nil {
			if err != errNotEmpty {
				e.Log.WithError(err).WithField("path", rel).Warn(
					"Failed to remove empty directory")
			}
			continue
		}
		fmt.Fprintln(e.Out, rel)
	}
	return nil
}

var errNotEmpty = errors.New("directory not empty")

// removeEmptyDir removes `path` if it's an empty directory. It returns
// errNotEmpty if the directory has any entries.
func removeEmptyDir(path string) error {
	empty, err := afero.IsEmpty(fs, path)
	if err != nil {
		return err
	}
	if !empty {
		return errNotEmpty
	}

	if err := fs.Remove(path); err != nil {
		if isNotEmpty(err) {
			return errNotEmpty
		}
		return err
	}
	return nil
}

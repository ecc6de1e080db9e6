package reconcile

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/p4workspace/pkg/errors"
	"github.com/sidkik/p4workspace/pkg/links"
	"github.com/sidkik/p4workspace/pkg/workspace"
)

// fs is used for mock tests. It will be overridden by afero.NewMemMapFs()
// in the tests.
var fs = afero.NewOsFs()

// Snapshot maps the key of a path relative to the working directory to the
// path itself, with its original case.
type Snapshot map[string]string

// Add records `rel` in the snapshot.
func (snap Snapshot) Add(rel string) {
	snap[workspace.Key(rel)] = rel
}

// Contains returns whether the snapshot has an entry with the same key as
// `rel`.
func (snap Snapshot) Contains(rel string) bool {
	_, ok := snap[workspace.Key(rel)]
	return ok
}

// LocalState is the contents of the working directory on disk.
type LocalState struct {
	// Files are the regular files, including links to files.
	Files Snapshot

	// Links are the directory links. The walk doesn't descend into them.
	Links Snapshot

	// LinkTargets are the targets of Links that are inside the working
	// directory.
	LinkTargets Snapshot
}

// SnapshotLocal walks the working directory of `ws` through `filesystem`,
// or through the OS filesystem if it's nil.
//
// Directories that can't be read and links that can't be resolved are
// logged and skipped, so that one bad entry doesn't prevent the rest of the
// working directory from being reconciled. The walk stops with
// ErrInterrupted once `ctx` is cancelled.
func SnapshotLocal(ctx context.Context, filesystem afero.Fs, resolver links.Resolver,
	ws *workspace.Workspace, log logrus.FieldLogger) (LocalState, error) {
	if filesystem == nil {
		filesystem = fs
	}

	state := LocalState{
		Files:       Snapshot{},
		Links:       Snapshot{},
		LinkTargets: Snapshot{},
	}

	entries, err := afero.ReadDir(filesystem, ws.WorkDir)
	if err != nil {
		return LocalState{}, errors.WithContext(err, "read working directory")
	}

	w := walker{
		ctx:      ctx,
		fs:       filesystem,
		resolver: resolver,
		ws:       ws,
		log:      log,
		state:    state,
	}
	if err := w.walk("", entries); err != nil {
		return LocalState{}, err
	}
	return state, nil
}

type walker struct {
	ctx      context.Context
	fs       afero.Fs
	resolver links.Resolver
	ws       *workspace.Workspace
	log      logrus.FieldLogger
	state    LocalState
}

func (w walker) walk(dirRel string, entries []os.FileInfo) error {
	if w.ctx.Err() != nil {
		return errors.ErrInterrupted
	}

	for _, fi := range entries {
		rel := filepath.Join(dirRel, fi.Name())
		path := w.ws.Abs(rel)

		if !w.isDirLike(path, fi) {
			w.state.Files.Add(rel)
			continue
		}

		isLink, err := w.resolver.IsLink(path)
		if err != nil {
			// Don't descend into entries that might be links.
			w.log.WithError(err).WithField("path", path).Warn(
				"Failed to check whether directory is a link. Skipping.")
			w.state.Links.Add(rel)
			continue
		}

		if isLink {
			w.addLink(rel, path)
			continue
		}

		if fi.Mode()&os.ModeIrregular != 0 {
			w.state.Files.Add(rel)
			continue
		}

		children, err := afero.ReadDir(w.fs, path)
		if err != nil {
			w.log.WithError(err).WithField("path", path).Warn(
				"Failed to read directory. Skipping.")
			continue
		}
		if err := w.walk(rel, children); err != nil {
			return err
		}
	}

	if w.ctx.Err() != nil {
		return errors.ErrInterrupted
	}
	return nil
}

// isDirLike returns whether the entry is a directory or something that may
// be a link to one. Links to files and dangling links are treated as files.
func (w walker) isDirLike(path string, fi os.FileInfo) bool {
	switch {
	case fi.IsDir():
		return true
	case fi.Mode()&os.ModeSymlink != 0:
		target, err := w.fs.Stat(path)
		return err == nil && target.IsDir()
	case fi.Mode()&os.ModeIrregular != 0:
		// Junctions show up as irregular files on Windows.
		return true
	}
	return false
}

func (w walker) addLink(rel, path string) {
	w.state.Links.Add(rel)

	target, err := links.Resolve(w.resolver, path)
	if err != nil {
		w.log.WithError(err).WithField("path", path).Warn(
			"Failed to resolve link target. Files beneath the link will " +
				"still be skipped, but its target may be pruned.")
		return
	}

	if targetRel, ok := w.ws.Rel(target); ok {
		w.state.LinkTargets.Add(targetRel)
	}
}

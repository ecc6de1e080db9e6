// Package reconcile compares the working directory on disk with the files
// that the server thinks are there, and classifies every difference.
package reconcile

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/p4workspace/pkg/errors"
	"github.com/sidkik/p4workspace/pkg/links"
	"github.com/sidkik/p4workspace/pkg/p4"
	"github.com/sidkik/p4workspace/pkg/workspace"
)

// State is everything that's known about the working directory before it's
// classified.
type State struct {
	// Have are the files synced to the workspace, excluding files whose head
	// revision is deleted.
	Have Snapshot

	// Opened are the files opened in any of the client's changelists.
	Opened Snapshot

	Local LocalState

	// Ignored are never reported as extra.
	Ignored Snapshot
}

// Collector gathers the State of a working directory.
type Collector struct {
	Client    p4.Client
	Workspace *workspace.Workspace
	Resolver  links.Resolver
	Log       logrus.FieldLogger

	// Fs is the filesystem the working directory is read from. Defaults to
	// the OS filesystem.
	Fs afero.Fs

	// Ignore lists paths relative to the working directory that are never
	// reported or removed, such as the P4CONFIG file.
	Ignore []string
}

// Collect queries the server and walks the working directory.
func (c Collector) Collect(ctx context.Context) (State, error) {
	state := State{Ignored: Snapshot{}}
	for _, path := range c.Ignore {
		state.Ignored.Add(filepath.Clean(path))
	}

	c.Log.Info("Fetching opened files from p4...")
	opened, err := c.Client.FetchOpenedFiles(ctx, c.Workspace.ClientName)
	if err != nil {
		return State{}, errors.WithContext(err, "fetch opened files")
	}
	state.Opened = c.toSnapshot(opened)
	c.Log.Infof(" got %d opened files from the server", len(state.Opened))

	c.Log.Info("Fetching depot files from p4...")
	have, err := c.Client.FetchHaveFiles(ctx)
	if err != nil {
		return State{}, errors.WithContext(err, "fetch have files")
	}
	state.Have = c.toSnapshot(have)
	c.Log.Infof(" got %d synced files from the server", len(state.Have))

	c.Log.Info("Fetching files from fs...")
	state.Local, err = SnapshotLocal(ctx, c.Fs, c.Resolver, c.Workspace, c.Log)
	if err != nil {
		return State{}, errors.WithContext(err, "snapshot local files")
	}
	c.Log.Infof(" got %d files from the file system", len(state.Local.Files))

	if len(state.Local.Links) != 0 {
		c.Log.Infof("  will skip files below %d links:", len(state.Local.Links))
		for _, link := range sortedValues(state.Local.Links) {
			c.Log.Info("   " + link)
		}
	}
	if len(state.Local.LinkTargets) != 0 {
		c.Log.Infof("  will preserve %d link targets:", len(state.Local.LinkTargets))
		for _, target := range sortedValues(state.Local.LinkTargets) {
			c.Log.Info("   " + target)
		}
	}
	return state, nil
}

// toSnapshot translates server paths into paths relative to the working
// directory. Paths outside the working directory are dropped.
func (c Collector) toSnapshot(serverPaths []string) Snapshot {
	snap := Snapshot{}
	for _, serverPath := range serverPaths {
		local, err := c.Workspace.ToLocal(serverPath)
		if err != nil {
			c.Log.WithError(err).WithField("path", serverPath).Debug(
				"Skipping file that isn't mapped by the client view")
			continue
		}

		rel, ok := c.Workspace.Rel(local)
		if !ok {
			c.Log.WithField("path", local).Debug(
				"Skipping file outside the working directory")
			continue
		}
		snap.Add(rel)
	}
	return snap
}

// FindConfigFile returns the path, relative to the working directory, of the
// P4CONFIG file named `name` that applies to the working directory. Like p4,
// it searches the working directory and then each of its parents. It returns
// false if there's no such file, or if the file is outside the working
// directory and so can't be mistaken for an extra file.
func FindConfigFile(ws *workspace.Workspace, name string) (string, bool) {
	if name == "" || name == "noconfig" {
		return "", false
	}

	for dir := ws.WorkDir; ; dir = filepath.Dir(dir) {
		path := filepath.Join(dir, name)
		if fi, err := fs.Stat(path); err == nil && !fi.IsDir() {
			return ws.Rel(path)
		}

		if parent := filepath.Dir(dir); parent == dir {
			return "", false
		}
	}
}

func sortedValues(snap Snapshot) []string {
	var values []string
	for _, v := range snap {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

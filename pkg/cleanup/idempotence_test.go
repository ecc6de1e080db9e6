package cleanup

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/p4workspace/pkg/errors"
	"github.com/sidkik/p4workspace/pkg/p4"
	"github.com/sidkik/p4workspace/pkg/reconcile"
	"github.com/sidkik/p4workspace/pkg/workspace"
)

// fakeServer keeps just enough state to act like a server for a single
// workspace. Syncing and reverting update the in-memory filesystem.
type fakeServer struct {
	p4.Client

	ws     *workspace.Workspace
	have   map[string]string
	opened map[string]string
}

func (s *fakeServer) FetchOpenedFiles(context.Context, string) ([]string, error) {
	return sortedKeys(s.opened), nil
}

func (s *fakeServer) FetchHaveFiles(context.Context) ([]string, error) {
	return sortedKeys(s.have), nil
}

func (s *fakeServer) ForceSync(_ context.Context, fileAtRevision string) error {
	serverPath := strings.TrimSuffix(fileAtRevision, "#have")
	contents, ok := s.have[serverPath]
	if !ok {
		return errors.ProtocolError{Command: "sync",
			Messages: []string{serverPath + " - no such file(s)."}}
	}
	return s.write(serverPath, contents)
}

func (s *fakeServer) Revert(_ context.Context, serverPath string) error {
	action, ok := s.opened[serverPath]
	if !ok {
		return errors.ProtocolError{Command: "revert",
			Messages: []string{serverPath + " - file(s) not opened on this client."}}
	}

	delete(s.opened, serverPath)
	if action != "add" {
		return s.write(serverPath, s.have[serverPath])
	}
	return nil
}

func (s *fakeServer) write(serverPath, contents string) error {
	local, err := s.ws.ToLocal(serverPath)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, local, []byte(contents), 0444)
}

func sortedKeys(m map[string]string) (keys []string) {
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type noLinks struct{}

func (noLinks) IsLink(string) (bool, error)          { return false, nil }
func (noLinks) ReadLinkTarget(string) (string, error) { return "", nil }

func TestRemediationIsIdempotent(t *testing.T) {
	fs = afero.NewMemMapFs()
	ws := newTestWorkspace(t)
	server := &fakeServer{
		ws: ws,
		have: map[string]string{
			"//depot/main/a.txt":      "a",
			"//depot/main/gone.txt":   "gone",
			"//depot/main/sub/e.txt":  "e",
			"//depot/main/deleted.md": "deleted",
		},
		opened: map[string]string{
			"//depot/main/sub/e.txt":   "edit",
			"//depot/main/new/new.txt": "add",
			"//depot/main/deleted.md":  "delete",
		},
	}

	writeFiles(t, "a.txt", "sub/e.txt", "new/new.txt", "junk/x.txt", "junk/y/z.txt")
	require.NoError(t, afero.WriteFile(fs, abs("READONLY.txt"), nil, 0444))
	mkdirs(t, "empty/nested")

	reconcileOnce := func() (reconcile.Classification, reconcile.LocalState) {
		log, _ := logrusTest.NewNullLogger()
		state, err := reconcile.Collector{
			Client:    server,
			Workspace: ws,
			Resolver:  noLinks{},
			Log:       log,
			Fs:        fs,
		}.Collect(context.Background())
		require.NoError(t, err)
		return reconcile.Classify(state), state.Local
	}

	classification, local := reconcileOnce()
	assert.Equal(t, reconcile.Classification{
		Missing: rels("gone.txt"),
		Edited:  rels("deleted.md", "sub/e.txt"),
		Added:   rels("new/new.txt"),
		Extra:   rels("READONLY.txt", "junk/x.txt", "junk/y/z.txt"),
	}, classification)

	all := Selection{Missing: true, Edited: true, Added: true, Extra: true, Empty: true}
	run := func(c reconcile.Classification, sel Selection) error {
		log, _ := logrusTest.NewNullLogger()
		return Executor{
			Client:    server,
			Workspace: ws,
			Log:       log,
			Out:       &bytes.Buffer{},
		}.Run(context.Background(), c, local, sel)
	}
	require.NoError(t, run(classification, all))

	after, _ := reconcileOnce()
	assert.True(t, after.Clean(), "%+v", after)
	for _, dir := range []string{"empty", "junk", "new"} {
		assert.False(t, exists(t, dir), dir)
	}

	// Syncing files that are already present is a no-op.
	require.NoError(t, run(reconcile.Classification{Missing: classification.Missing},
		Selection{Missing: true}))

	// Nothing is left to do on a clean workspace.
	require.NoError(t, run(after, all))

	again, _ := reconcileOnce()
	assert.True(t, again.Clean(), "%+v", again)
}

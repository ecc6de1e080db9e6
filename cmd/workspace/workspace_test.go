package workspace

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/p4workspace/pkg/config"
	"github.com/sidkik/p4workspace/pkg/errors"
	"github.com/sidkik/p4workspace/pkg/links"
	"github.com/sidkik/p4workspace/pkg/p4"
	"github.com/sidkik/p4workspace/pkg/p4/mocks"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name string
		opts options
		exp  options
	}{
		{
			name: "No composite flags",
			opts: options{cleanExtra: true, verify: true},
			exp:  options{cleanExtra: true, verify: true},
		},
		{
			name: "Clean all",
			opts: options{cleanAll: true},
			exp: options{
				cleanAll:     true,
				cleanMissing: true,
				cleanEdited:  true,
				cleanAdded:   true,
				cleanExtra:   true,
				cleanEmpty:   true,
			},
		},
		{
			name: "Reset",
			opts: options{reset: true, quiet: true},
			exp: options{
				quiet:        true,
				reset:        true,
				verify:       true,
				repair:       true,
				cleanAll:     true,
				cleanMissing: true,
				cleanEdited:  true,
				cleanAdded:   true,
				cleanExtra:   true,
				cleanEmpty:   true,
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			test.opts.expand()
			assert.Equal(t, test.exp, test.opts)
		})
	}
}

func TestFlags(t *testing.T) {
	cmd := New()
	require.NoError(t, cmd.ParseFlags([]string{"-q", "-x", "-d", "--verify", "--config", "cfg.yaml"}))

	for _, name := range []string{"quiet", "clean_extra", "clean_empty", "verify"} {
		value, err := cmd.Flags().GetBool(name)
		assert.NoError(t, err)
		assert.True(t, value, name)
	}

	value, err := cmd.Flags().GetBool("reset")
	assert.NoError(t, err)
	assert.False(t, value)

	path, err := cmd.Flags().GetString("config")
	assert.NoError(t, err)
	assert.Equal(t, "cfg.yaml", path)
}

func TestRunUnsupportedPlatform(t *testing.T) {
	newResolver = func() (links.Resolver, error) {
		return nil, errors.ErrUnsupportedPlatform
	}
	defer func() { newResolver = links.NewResolver }()

	err := run(options{})
	assert.True(t, errors.Is(err, errors.ErrUnsupportedPlatform))
}

func TestRunBadConfig(t *testing.T) {
	newResolver = func() (links.Resolver, error) { return nil, nil }
	configErr := errors.NewFriendlyError("bad config")
	parseUserConfig = func(string) (config.User, error) {
		return config.User{}, configErr
	}
	defer func() {
		newResolver = links.NewResolver
		parseUserConfig = config.ParseUser
	}()

	err := run(options{configPath: "cfg.yaml"})
	assert.Equal(t, "bad config", errors.GetPrintableMessage(err))
}

type noLinks struct{}

func (noLinks) IsLink(string) (bool, error)          { return false, nil }
func (noLinks) ReadLinkTarget(string) (string, error) { return "", nil }

// newTestServer returns a client for a workspace rooted at `root`, with
// a.txt and b.txt synced to the `main` working directory.
func newTestServer(root string) *mocks.Client {
	client := &mocks.Client{}
	client.On("Connect", mock.Anything).Return(p4.ServerInfo{
		ClientName:    "ws",
		ClientRoot:    root,
		ServerVersion: "P4D/LINUX26X86_64/2019.1/1796703 (2019/05/15)",
	}, nil)
	client.On("FetchClientSpec", mock.Anything).Return(p4.ClientSpec{
		Name: "ws",
		Root: root,
		View: []string{"//depot/... //ws/..."},
	}, nil)
	client.On("ConfigFileName", mock.Anything).Return(".p4config", nil)
	client.On("FetchOpenedFiles", mock.Anything, "ws").Return(nil, nil)
	client.On("FetchHaveFiles", mock.Anything).Return([]string{
		"//depot/main/a.txt",
		"//depot/main/b.txt",
	}, nil)
	return client
}

func TestReconcileWorkspace(t *testing.T) {
	root := t.TempDir()
	workDir := filepath.Join(root, "main")
	require.NoError(t, os.MkdirAll(workDir, 0755))
	for _, path := range []string{"a.txt", "junk.txt", ".p4config"} {
		require.NoError(t, ioutil.WriteFile(filepath.Join(workDir, path), nil, 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "empty"), 0755))

	client := newTestServer(root)
	client.On("ForceSync", mock.Anything, "//depot/main/b.txt#have").Return(nil)

	var out bytes.Buffer
	stdout = &out
	defer func() { stdout = os.Stdout }()

	opts := options{cleanAll: true}
	opts.expand()
	err := reconcileWorkspace(context.Background(), client, noLinks{},
		config.DefaultUser(), workDir, opts)
	require.NoError(t, err)
	client.AssertExpectations(t)

	assert.Equal(t, "\nFiles missing from your disk:\nb.txt\n"+
		"\nFiles on your disk not known to the server:\njunk.txt\n"+
		"\nSyncing missing files...\nb.txt\n"+
		"\nCleaning extra files...\njunk.txt\n"+
		"\nCleaning empty directories...\nempty\n", out.String())

	_, err = os.Stat(filepath.Join(workDir, "junk.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(workDir, ".p4config"))
	assert.NoError(t, err)
}

func TestReconcileWorkspaceOldServer(t *testing.T) {
	client := &mocks.Client{}
	client.On("Connect", mock.Anything).Return(p4.ServerInfo{
		ClientName:    "ws",
		ServerVersion: "P4D/NTX86/2008.2/179173 (2008/12/11)",
	}, nil)

	err := reconcileWorkspace(context.Background(), client, noLinks{},
		config.DefaultUser(), "/ws", options{})

	var configErr errors.ConfigurationError
	assert.True(t, errors.As(err, &configErr))
	client.AssertNotCalled(t, "FetchClientSpec", mock.Anything)
}

// interruptingResolver cancels the run while the working directory is being
// walked.
type interruptingResolver struct {
	cancel context.CancelFunc
}

func (r interruptingResolver) IsLink(string) (bool, error) {
	r.cancel()
	return false, nil
}

func (interruptingResolver) ReadLinkTarget(string) (string, error) {
	return "", nil
}

func TestReconcileWorkspaceInterrupted(t *testing.T) {
	root := t.TempDir()
	workDir := filepath.Join(root, "main")
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "sub", "empty"), 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(workDir, "a.txt"), nil, 0644))

	tests := []struct {
		name string
		opts options
	}{
		{name: "Report only", opts: options{}},
		{name: "Clean all", opts: options{cleanAll: true}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			test.opts.expand()
			client := newTestServer(root)

			var out bytes.Buffer
			stdout = &out
			defer func() { stdout = os.Stdout }()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := reconcileWorkspace(ctx, client, interruptingResolver{cancel},
				config.DefaultUser(), workDir, test.opts)
			assert.True(t, errors.Is(err, errors.ErrInterrupted), "%v", err)
			assert.Empty(t, out.String())
			client.AssertNotCalled(t, "ForceSync", mock.Anything, mock.Anything)

			_, err = os.Stat(filepath.Join(workDir, "sub", "empty"))
			assert.NoError(t, err)
		})
	}
}

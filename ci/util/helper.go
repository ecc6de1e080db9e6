package util

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/p4workspace/pkg/errors"
)

// TestHelper contains methods commonly used during integration tests.
type TestHelper struct {
	// Binary is the p4workspace binary under test.
	Binary string

	// WorkDir is a directory inside a synced client workspace. Every command
	// runs in it.
	WorkDir string
}

// NewTestHelper creates a new TestHelper.
func NewTestHelper(binary, workDir string) (*TestHelper, error) {
	if binary == "" {
		binary = "p4workspace"
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, errors.WithContext(err, "find binary")
	}

	info, err := os.Stat(workDir)
	if err != nil {
		return nil, errors.WithContext(err, "stat working directory")
	}
	if !info.IsDir() {
		return nil, errors.New("%s is not a directory", workDir)
	}

	return &TestHelper{Binary: path, WorkDir: workDir}, nil
}

// Run runs p4workspace with the given arguments, and returns its stdout.
func (helper *TestHelper) Run(ctx context.Context, args ...string) (string, error) {
	log.WithField("args", args).Info("Running p4workspace")

	cmd := exec.CommandContext(ctx, helper.Binary, args...)
	cmd.Dir = helper.WorkDir

	stdout := bytes.NewBuffer(nil)
	stderr := bytes.NewBuffer(nil)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("crashed (%s): stderr: %s", err, stderr)
	}
	return stdout.String(), nil
}

// Path returns the absolute path of `rel`, which is relative to the working
// directory.
func (helper *TestHelper) Path(rel string) string {
	return filepath.Join(helper.WorkDir, filepath.FromSlash(rel))
}

// WriteFile writes `contents` to `rel`, making it writable first. Synced
// files are read-only.
func (helper *TestHelper) WriteFile(rel, contents string) error {
	path := helper.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithContext(err, "create parent")
	}

	if info, err := os.Stat(path); err == nil {
		if err := os.Chmod(path, info.Mode()|0200); err != nil {
			return errors.WithContext(err, "chmod")
		}
	}
	return ioutil.WriteFile(path, []byte(contents), 0644)
}

// Exists returns whether `rel` exists.
func (helper *TestHelper) Exists(rel string) bool {
	_, err := os.Lstat(helper.Path(rel))
	return err == nil
}

// FindSyncedFile returns the relative path of a regular file in the working
// directory, skipping hidden files such as the P4CONFIG file.
func (helper *TestHelper) FindSyncedFile() (string, error) {
	var found string
	err := filepath.Walk(helper.WorkDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || found != "" {
			return err
		}

		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() && path != helper.WorkDir {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode().IsRegular() {
			found, err = filepath.Rel(helper.WorkDir, path)
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if found == "" {
		return "", errors.New("no synced files in %s", helper.WorkDir)
	}
	return found, nil
}

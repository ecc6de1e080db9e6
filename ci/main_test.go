//go:build ci
// +build ci

package main

import (
	"context"
	"os"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/p4workspace/ci/util"
)

type TestFunction func(*testing.T, *util.TestHelper)

// TestP4Workspace runs the binary against a real server. CI_WORKSPACE_DIR
// must be a directory inside a fully synced client workspace, with the
// connection settings in the environment or a P4CONFIG file.
func TestP4Workspace(t *testing.T) {
	workDir, ok := os.LookupEnv("CI_WORKSPACE_DIR")
	if !ok {
		t.Error("missing required environment variable CI_WORKSPACE_DIR")
		return
	}

	helper, err := util.NewTestHelper(os.Getenv("CI_P4WORKSPACE_BIN"), workDir)
	require.NoError(t, err)

	tests := []struct {
		name   string
		testFn TestFunction
	}{
		{name: "InitiallyClean", testFn: testClean},
		{name: "CleanExtra", testFn: testCleanExtra},
		{name: "CleanMissing", testFn: testCleanMissing},
		{name: "Reset", testFn: testReset},
		{name: "FinallyClean", testFn: testClean},
	}

	for _, test := range tests {
		test := test
		if !t.Run(test.name, func(t *testing.T) { test.testFn(t, helper) }) {
			log.WithField("test", test.name).Error("Stopping after failure")
			return
		}
	}
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	t.Cleanup(cancel)
	return ctx
}

func testClean(t *testing.T, helper *util.TestHelper) {
	out, err := helper.Run(testContext(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Working directory clean!")
}

func testCleanExtra(t *testing.T, helper *util.TestHelper) {
	ctx := testContext(t)
	require.NoError(t, helper.WriteFile("ci-extra/junk.txt", "junk"))

	out, err := helper.Run(ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "Files on your disk not known to the server:")

	_, err = helper.Run(ctx, "-q", "-x", "-d")
	require.NoError(t, err)
	assert.False(t, helper.Exists("ci-extra/junk.txt"))
	assert.False(t, helper.Exists("ci-extra"))
}

func testCleanMissing(t *testing.T, helper *util.TestHelper) {
	ctx := testContext(t)
	rel, err := helper.FindSyncedFile()
	require.NoError(t, err)
	require.NoError(t, os.Remove(helper.Path(rel)))

	out, err := helper.Run(ctx, "-m")
	require.NoError(t, err)
	assert.Contains(t, out, "Files missing from your disk:")
	assert.Contains(t, out, "Syncing missing files...")
	assert.True(t, helper.Exists(rel))
}

func testReset(t *testing.T, helper *util.TestHelper) {
	ctx := testContext(t)
	rel, err := helper.FindSyncedFile()
	require.NoError(t, err)
	require.NoError(t, helper.WriteFile(rel, "corrupted by ci"))

	out, err := helper.Run(ctx, "-R")
	require.NoError(t, err)
	assert.Contains(t, out, "Repairing corrupted files:")
	assert.Contains(t, out, rel)
}

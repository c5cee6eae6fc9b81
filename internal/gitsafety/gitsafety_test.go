// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gitsafety

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestIsRepoAndClean(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := initRepo(t)
	s := New(dir, nil)
	ctx := context.Background()

	require.True(t, s.IsRepo(ctx))
	clean, err := s.IsClean(ctx)
	require.NoError(t, err)
	require.True(t, clean)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dirty.txt"), []byte("x"), 0o644))
	clean, err = s.IsClean(ctx)
	require.NoError(t, err)
	require.False(t, clean)
}

func TestCaptureBaselineAndResetToBaseline(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := initRepo(t)
	s := New(dir, nil)
	ctx := context.Background()

	baseline, err := s.CaptureBaseline(ctx)
	require.NoError(t, err)
	require.Equal(t, "main", baseline.Branch)

	require.NoError(t, s.CreateThreadBranch(ctx, "thread1"))
	require.True(t, s.ThreadBranchExists(ctx, "thread1"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "change.txt"), []byte("x"), 0o644))
	cmd := exec.Command("git", "add", ".")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())
	cmd = exec.Command("git", "-c", "user.name=t", "-c", "user.email=t@e.com", "commit", "-q", "-m", "change")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	require.NoError(t, s.ResetToBaseline(ctx, baseline))

	branch, err := s.CurrentBranch(ctx)
	require.NoError(t, err)
	require.Equal(t, baseline.Branch, branch)

	sha, err := s.HeadSHA(ctx)
	require.NoError(t, err)
	require.Equal(t, baseline.CommitSHA, sha)

	// The thread branch must still exist.
	require.True(t, s.ThreadBranchExists(ctx, "thread1"))
}

func TestThreadBranchNaming(t *testing.T) {
	branch, err := ThreadBranch("abc-123")
	require.NoError(t, err)
	require.Equal(t, "ralf/abc-123", branch)

	_, err = ThreadBranch("bad/id")
	require.Error(t, err)
}

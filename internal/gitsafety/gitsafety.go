// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gitsafety implements the git-safety layer from spec §4.3: it
// detects repository state, captures baselines, and creates/switches/resets
// thread branches without ever rewinding the operator's base branch.
//
// Operations do not check for a repository themselves: outside one, each
// returns the error git reports (CurrentBranch reports it as DetachedHead),
// and no operation returns a NotARepo error. IsRepo is the check; callers
// such as preflight and the runner call it first and treat a non-repository
// working directory as a case to skip rather than an error.
package gitsafety

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/ralfcli/ralf/internal/ralferr"
	"github.com/ralfcli/ralf/internal/threadstore"
	"github.com/ralfcli/ralf/pkg/logging"
)

// DefaultTimeout bounds every git subprocess invocation.
const DefaultTimeout = 30 * time.Second

// Safety wraps git command execution against a single working tree.
//
// Thread Safety: Safety is safe for concurrent use; git itself serializes
// index access, and the package does not attempt to arbitrate with
// concurrent external git usage on the same working tree.
type Safety struct {
	repoPath string
	timeout  time.Duration
	log      *logging.Logger
}

// New returns a Safety rooted at repoPath.
func New(repoPath string, log *logging.Logger) *Safety {
	if log == nil {
		log = logging.Discard()
	}
	return &Safety{repoPath: repoPath, timeout: DefaultTimeout, log: log}
}

// Baseline is the (branch, commit_id, captured_at) triple captured at entry
// to implementation.
type Baseline struct {
	Branch     string
	CommitSHA  string
	CapturedAt time.Time
}

func (s *Safety) run(ctx context.Context, args ...string) (stdout string, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.repoPath

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err = cmd.Run()

	s.log.Debug("git command", "args", args, "exit_err", err)
	return strings.TrimRight(out.String(), "\n"), err
}

// IsRepo reports whether the working directory is inside a git repository.
func (s *Safety) IsRepo(ctx context.Context) bool {
	_, err := s.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// IsClean reports whether the working tree has no staged, unstaged, or
// untracked changes.
func (s *Safety) IsClean(ctx context.Context) (bool, error) {
	out, err := s.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, ralferr.Wrap(ralferr.KindIO, fmt.Errorf("git status: %w", err))
	}
	return strings.TrimSpace(out) == "", nil
}

// CurrentBranch returns the checked-out branch name, or DetachedHead if
// HEAD is detached.
func (s *Safety) CurrentBranch(ctx context.Context) (string, error) {
	if _, err := s.run(ctx, "symbolic-ref", "-q", "HEAD"); err != nil {
		return "", ralferr.New(ralferr.KindDetachedHead, "HEAD is detached")
	}
	out, err := s.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", ralferr.Wrap(ralferr.KindIO, fmt.Errorf("git rev-parse: %w", err))
	}
	return out, nil
}

// HeadSHA returns the full 40-hex commit id at HEAD.
func (s *Safety) HeadSHA(ctx context.Context) (string, error) {
	out, err := s.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", ralferr.Wrap(ralferr.KindIO, fmt.Errorf("git rev-parse HEAD: %w", err))
	}
	return out, nil
}

// CaptureBaseline snapshots the current branch, head sha, and time.
func (s *Safety) CaptureBaseline(ctx context.Context) (Baseline, error) {
	branch, err := s.CurrentBranch(ctx)
	if err != nil {
		return Baseline{}, err
	}
	sha, err := s.HeadSHA(ctx)
	if err != nil {
		return Baseline{}, err
	}
	return Baseline{Branch: branch, CommitSHA: sha, CapturedAt: time.Now().UTC()}, nil
}

// ThreadBranch returns the "ralf/<id>" branch name for a thread id,
// validated with the same id rule the thread store uses.
func ThreadBranch(threadID string) (string, error) {
	if err := threadstore.ValidateID(threadID); err != nil {
		return "", err
	}
	return "ralf/" + threadID, nil
}

// CreateThreadBranch creates and checks out "ralf/<id>" from HEAD.
func (s *Safety) CreateThreadBranch(ctx context.Context, threadID string) error {
	branch, err := ThreadBranch(threadID)
	if err != nil {
		return err
	}
	if s.ThreadBranchExists(ctx, threadID) {
		return ralferr.New(ralferr.KindBranchExists, "branch already exists: "+branch)
	}
	if _, err := s.run(ctx, "checkout", "-b", branch); err != nil {
		return ralferr.Wrap(ralferr.KindIO, fmt.Errorf("creating branch %s: %w", branch, err))
	}
	return nil
}

// ThreadBranchExists reports whether "ralf/<id>" exists locally.
func (s *Safety) ThreadBranchExists(ctx context.Context, threadID string) bool {
	branch, err := ThreadBranch(threadID)
	if err != nil {
		return false
	}
	_, err = s.run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// DeleteThreadBranch force-deletes "ralf/<id>".
func (s *Safety) DeleteThreadBranch(ctx context.Context, threadID string) error {
	branch, err := ThreadBranch(threadID)
	if err != nil {
		return err
	}
	if !s.ThreadBranchExists(ctx, threadID) {
		return ralferr.New(ralferr.KindBranchNotFound, "branch not found: "+branch)
	}
	if _, err := s.run(ctx, "branch", "-D", branch); err != nil {
		return ralferr.Wrap(ralferr.KindIO, fmt.Errorf("deleting branch %s: %w", branch, err))
	}
	return nil
}

// Checkout switches to an existing branch.
func (s *Safety) Checkout(ctx context.Context, branch string) error {
	if _, err := s.run(ctx, "checkout", branch); err != nil {
		return ralferr.Wrap(ralferr.KindIO, fmt.Errorf("checking out %s: %w", branch, err))
	}
	return nil
}

// EnsureBranch checks out branch, creating it from HEAD first if it does
// not already exist locally. Unlike CreateThreadBranch, branch need not
// match the "ralf/<id>" naming convention — used for the operator-supplied
// --branch flag on `ralf run`.
func (s *Safety) EnsureBranch(ctx context.Context, branch string) error {
	if _, err := s.run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch); err == nil {
		return s.Checkout(ctx, branch)
	}
	if _, err := s.run(ctx, "checkout", "-b", branch); err != nil {
		return ralferr.Wrap(ralferr.KindIO, fmt.Errorf("creating branch %s: %w", branch, err))
	}
	return nil
}

// ResetHard discards tracked-file modifications down to sha. Untracked
// files created during the reset window are not removed — that is the
// intended contract; user confirmation of data loss is an outer concern.
func (s *Safety) ResetHard(ctx context.Context, sha string) error {
	if _, err := s.run(ctx, "reset", "--hard", sha); err != nil {
		return ralferr.Wrap(ralferr.KindIO, fmt.Errorf("reset --hard %s: %w", sha, err))
	}
	return nil
}

var threadBranchPattern = regexp.MustCompile(`^ralf/[A-Za-z0-9_-]+$`)

// ResetToBaseline checks out baseline.Branch then hard-resets to
// baseline.CommitSHA. It refuses to run unless the *current* branch is a
// "ralf/<id>" thread branch, so it can never rewind the operator's base
// branch.
func (s *Safety) ResetToBaseline(ctx context.Context, baseline Baseline) error {
	current, err := s.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if !threadBranchPattern.MatchString(current) {
		return fmt.Errorf("gitsafety: refusing reset-to-baseline from non-thread branch %q", current)
	}
	if err := s.Checkout(ctx, baseline.Branch); err != nil {
		return err
	}
	return s.ResetHard(ctx, baseline.CommitSHA)
}

// DiffStat returns the raw "git diff --stat" text between the baseline
// commit and the working tree.
func (s *Safety) DiffStat(ctx context.Context, baselineSHA string) (string, error) {
	out, err := s.run(ctx, "diff", "--stat", baselineSHA)
	if err != nil {
		return "", ralferr.Wrap(ralferr.KindIO, fmt.Errorf("git diff --stat: %w", err))
	}
	return out, nil
}

// HasChangesSince reports whether the working tree differs from baselineSHA.
func (s *Safety) HasChangesSince(ctx context.Context, baselineSHA string) (bool, error) {
	stat, err := s.DiffStat(ctx, baselineSHA)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(stat) != "", nil
}

// CommitAll stages every change in the working tree and commits with
// message, returning the new commit's sha. Used for the runner's
// optional checkpoint commits after a non-promise iteration that left
// the tree dirty.
func (s *Safety) CommitAll(ctx context.Context, message string) (string, error) {
	if _, err := s.run(ctx, "add", "-A"); err != nil {
		return "", ralferr.Wrap(ralferr.KindIO, fmt.Errorf("git add -A: %w", err))
	}
	if _, err := s.run(ctx, "commit", "-m", message); err != nil {
		return "", ralferr.Wrap(ralferr.KindIO, fmt.Errorf("git commit: %w", err))
	}
	return s.HeadSHA(ctx)
}

// Package vcs finds the git checkout a toolcount project lives in, so init
// can keep results out of version control.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// git runs a git subcommand in dir and returns its trimmed stdout. Tests
// replace it.
var git = func(ctx context.Context, dir string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// RepoRoot returns the top level of the git checkout containing startDir,
// or of the working directory when startDir is empty. Outside a checkout, or
// without git installed, it errors.
func RepoRoot(ctx context.Context, startDir string) (string, error) {
	dir := strings.TrimSpace(startDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}
	root, err := git(ctx, dir, "rev-parse", "--show-toplevel")
	switch {
	case err != nil:
		return "", fmt.Errorf("discover git root: %w", err)
	case root == "":
		return "", errors.New("discover git root: empty output")
	}
	return root, nil
}

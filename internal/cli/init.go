package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"toolcount/internal/config"
	"toolcount/internal/vcs"
)

// initInput is a test seam for the init prompts.
var initInput io.Reader = os.Stdin

// discoverRepoRoot is a test seam for git root discovery.
var discoverRepoRoot = vcs.RepoRoot

// runInit scaffolds a config file after asking where results should go.
func runInit(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		specPath := flags.String("spec", "", "Path of the config file to create (default: .toolcount/config.yml at the git root)")
		if err := flags.Parse(args); err != nil {
			fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if flags.NArg() > 0 {
			fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(flags.Args(), " "))
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		path, repoRoot, err := initTarget(*specPath)
		if err != nil {
			fmt.Fprintf(stderr, "Init failed: %v\n", err)
			return ExitError
		}
		if err := checkInitTarget(path); err != nil {
			fmt.Fprintf(stderr, "Init failed: %v\n", err)
			return ExitError
		}

		p := newPrompter(initInput, stdout)
		ok, err := p.confirm(fmt.Sprintf("Initialize toolcount config in %s?", filepath.Dir(path)), true)
		if err != nil {
			fmt.Fprintf(stderr, "Init failed: %v\n", err)
			return ExitError
		}
		if !ok {
			fmt.Fprintln(stderr, "Init cancelled.")
			return ExitError
		}
		outputDir, err := p.ask("Results folder", config.DefaultOutputDir)
		if err != nil {
			fmt.Fprintf(stderr, "Init failed: %v\n", err)
			return ExitError
		}
		ignore := false
		if repoRoot != "" {
			if ignore, err = p.confirm("Add results folder to .gitignore?", true); err != nil {
				fmt.Fprintf(stderr, "Init failed: %v\n", err)
				return ExitError
			}
		}

		if err := config.Scaffold(path, outputDir); err != nil {
			fmt.Fprintf(stderr, "Init failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		if !ignore {
			return ExitOK
		}
		changed, err := ignoreResultsDir(repoRoot, outputDir)
		if err != nil {
			fmt.Fprintf(stderr, "Init failed: update .gitignore: %v\n", err)
			return ExitError
		}
		if changed {
			fmt.Fprintf(stdout, "Updated %s\n", filepath.Join(repoRoot, ".gitignore"))
		}
		return ExitOK
	}
}

// initTarget picks the config path to create and the enclosing git root, if any.
// Without --spec the config goes under the git root, or the working directory
// outside a repository.
func initTarget(specPath string) (path, repoRoot string, err error) {
	if specPath = strings.TrimSpace(specPath); specPath != "" {
		abs, err := filepath.Abs(specPath)
		if err != nil {
			return "", "", err
		}
		return abs, gitRoot(config.RootFromConfigPath(abs)), nil
	}
	repoRoot = gitRoot("")
	base := repoRoot
	if base == "" {
		if base, err = os.Getwd(); err != nil {
			return "", "", err
		}
	}
	return config.ConfigPath(base), repoRoot, nil
}

// checkInitTarget refuses to overwrite an existing config.
func checkInitTarget(path string) error {
	if info, err := os.Stat(filepath.Dir(path)); err == nil && !info.IsDir() {
		return fmt.Errorf("config directory %q is not a directory", filepath.Dir(path))
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return fmt.Errorf("config path %q is a directory", path)
	default:
		return fmt.Errorf("config already exists at %q", path)
	}
}

// gitRoot returns the repository root containing dir, or "" outside git.
func gitRoot(dir string) string {
	root, err := discoverRepoRoot(context.Background(), dir)
	if err != nil {
		return ""
	}
	return root
}

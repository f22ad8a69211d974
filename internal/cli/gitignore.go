package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ignoreResultsDir appends the results folder to repoRoot/.gitignore unless
// an equivalent entry exists. It reports whether the file changed.
func ignoreResultsDir(repoRoot, outputDir string) (bool, error) {
	entry, err := ignoreEntry(repoRoot, outputDir)
	if err != nil {
		return false, err
	}
	path := filepath.Join(repoRoot, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("read .gitignore: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		existing := strings.Trim(strings.TrimSpace(line), "/")
		if existing == entry {
			return false, nil
		}
	}

	var b strings.Builder
	b.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString(entry + "/\n")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return false, fmt.Errorf("write .gitignore: %w", err)
	}
	return true, nil
}

// ignoreEntry converts outputDir into a slash-separated path relative to repoRoot.
func ignoreEntry(repoRoot, outputDir string) (string, error) {
	if strings.TrimSpace(outputDir) == "" {
		return "", fmt.Errorf("results folder is required")
	}
	dir := filepath.Clean(outputDir)
	if filepath.IsAbs(dir) {
		rel, err := filepath.Rel(repoRoot, dir)
		if err != nil {
			return "", fmt.Errorf("resolve results folder: %w", err)
		}
		dir = rel
	}
	if dir == "." || dir == ".." || strings.HasPrefix(dir, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("results folder %q is outside the repository", outputDir)
	}
	return filepath.ToSlash(dir), nil
}

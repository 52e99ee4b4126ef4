// Package util holds small filesystem path helpers shared across packages.
package util

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeDir returns the user's home directory.
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// ExpandPath expands a leading ~ to the home directory and resolves
// relative paths against baseDir. Returns "" for empty input.
func ExpandPath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "~") {
		return filepath.Join(HomeDir(), strings.TrimPrefix(path, "~"))
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ExpandPaths expands every path in the slice, dropping empties.
func ExpandPaths(paths []string, baseDir string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if expanded := ExpandPath(p, baseDir); expanded != "" {
			out = append(out, expanded)
		}
	}
	return out
}

// ProjectStatePath returns the rulealign state directory for a project.
func ProjectStatePath(projectDir string) string {
	return filepath.Join(projectDir, ".rulealign")
}

// BackupsPath returns the default backup directory for a project.
func BackupsPath(projectDir string) string {
	return filepath.Join(ProjectStatePath(projectDir), "backups")
}

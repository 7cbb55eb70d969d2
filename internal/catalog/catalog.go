// Package catalog resolves the set of candidate native filter modules.
//
// Discovery is the single source of truth for which modules a run attempts.
// Candidates come from explicit paths and from directory scans filtered by
// the platform's native-module Extension. Every candidate is canonicalized
// (absolute, symlinks resolved) before deduplication, so one shared object is
// never loaded twice under two spellings. Names are kept byte for byte: two
// files whose names differ only in Unicode normalization are two modules.
//
// Nothing in discovery is fatal: missing explicit paths are dropped and
// unreadable directories are reported and skipped.
package catalog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
)

// Discover returns the deduplicated candidate module paths, sorted ascending.
//
// The set itself has no semantic order; sorting only makes discovery output
// reproducible across filesystems. A nil logger discards diagnostics.
func Discover(explicit, dirs []string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	seen := make(map[string]struct{})
	add := func(path string) {
		canonical, err := Canonicalize(path)
		if err != nil {
			logger.Debug("dropping candidate", "path", path, "error", err)
			return
		}
		if _, dup := seen[canonical]; dup {
			logger.Debug("duplicate candidate", "path", path, "canonical", canonical)
			return
		}
		seen[canonical] = struct{}{}
	}

	for _, path := range explicit {
		if _, err := os.Stat(path); err != nil {
			logger.Debug("explicit module path does not exist", "path", path, "error", err)
			continue
		}
		add(path)
	}

	for _, dir := range dirs {
		for _, path := range scanDir(dir, logger) {
			add(path)
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// scanDir lists the regular files in dir carrying the platform Extension.
// Symlinks are followed. A read failure is reported and yields nothing.
func scanDir(dir string, logger *slog.Logger) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("cannot scan module directory", "dir", dir, "error", err)
		return nil
	}

	var found []string
	for _, entry := range entries {
		if !HasExtension(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			logger.Debug("skipping unreadable entry", "path", path, "error", err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		found = append(found, path)
	}
	return found
}

// HasExtension reports whether name ends in the platform module Extension.
func HasExtension(name string) bool {
	return filepath.Ext(name) == Extension
}

// Canonicalize returns the absolute, symlink-free spelling of path. The bytes
// of each name are preserved so the result stays openable. The path must
// exist.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", path, err)
	}
	return resolved, nil
}

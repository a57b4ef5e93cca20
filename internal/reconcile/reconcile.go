// Package reconcile removes stale files from the routing directory before
// forwarding modules are regenerated.
package reconcile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/agentic-research/routemap/internal/logging"
)

// Clean deletes every file under pagesDir that is not covered by
// preservePaths, then prunes the directories those deletions emptied.
// All work happens through a chroot of fs at pagesDir, so no path outside
// the routing directory can be touched. pagesDir itself is never removed.
func Clean(fs billy.Filesystem, pagesDir string, preservePaths []string, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	root := chroot.New(fs, pagesDir)

	stale, guard, err := Plan(root, preservePaths)
	if err != nil {
		return err
	}

	for _, path := range stale {
		if err := root.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := prune(root, filepath.Dir(path), guard); err != nil {
			return err
		}
	}

	logger.Trace("cleaned pages directory")
	return nil
}

// Plan snapshots root and returns the leaves that are not protected by
// preservePaths, along with the resolved protection. The snapshot is
// complete before Plan returns, so callers may mutate root afterwards.
func Plan(root billy.Filesystem, preservePaths []string) ([]string, *Protection, error) {
	tree, err := Snapshot(root, ".")
	if err != nil {
		return nil, nil, err
	}
	guard := Protect(root, preservePaths)

	var stale []string
	for _, leaf := range tree.Leaves() {
		if !guard.Covers(leaf) {
			stale = append(stale, leaf)
		}
	}
	return stale, guard, nil
}

// Protection is the resolved form of a preserve list.
type Protection struct {
	files map[string]bool
	dirs  []string
}

// Protect resolves preservePaths against root. Entries that do not exist,
// or that point outside root, protect nothing.
func Protect(root billy.Filesystem, preservePaths []string) *Protection {
	p := &Protection{files: make(map[string]bool)}
	for _, raw := range preservePaths {
		rel := filepath.Join(".", raw)
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		info, err := root.Lstat(rel)
		if err != nil {
			continue
		}
		if info.IsDir() {
			p.dirs = append(p.dirs, rel)
		} else {
			p.files[rel] = true
		}
	}
	return p
}

// Covers reports whether path is a protected file or lies inside a
// protected directory. Directory matches respect path segments.
func (p *Protection) Covers(path string) bool {
	if p.files[path] {
		return true
	}
	for _, d := range p.dirs {
		if d == "." || path == d || strings.HasPrefix(path, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// prune removes dir if it is empty and repeats for its parents, stopping at
// the root, at a protected directory, or at the first non-empty directory.
func prune(root billy.Filesystem, dir string, guard *Protection) error {
	for dir != "." && dir != "" && !guard.Covers(dir) {
		entries, err := root.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if len(entries) > 0 {
			return nil
		}
		if err := root.Remove(dir); err != nil {
			return err
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

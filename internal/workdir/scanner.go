// Package workdir enumerates and removes compute-session working directories
// on the shared volume. Directories live at a fixed depth,
// <root>/<category>/<subcategory>/default/<serverID>; the scan never recurses
// beyond that shape so infrastructure directories are never candidates.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultLevel is the fixed directory name between the subcategory and the
// per-server directories.
const defaultLevel = "default"

// Dir is one working-directory candidate found on the volume.
type Dir struct {
	Path     string
	ServerID string
}

// Scanner lists and removes working directories under a volume root.
type Scanner struct {
	Root string
}

// NewScanner creates a scanner rooted at root.
func NewScanner(root string) *Scanner {
	return &Scanner{Root: root}
}

// ListServerDirs walks the fixed category/subcategory/default layout and
// returns every serverID directory found. Files and malformed levels are
// skipped silently; a missing root is an error since it usually means the
// volume is not mounted.
func (s *Scanner) ListServerDirs() ([]Dir, error) {
	categories, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan root %s: %w", s.Root, err)
	}

	var dirs []Dir
	for _, category := range categories {
		if !category.IsDir() {
			continue
		}
		categoryPath := filepath.Join(s.Root, category.Name())

		subcategories, err := os.ReadDir(categoryPath)
		if err != nil {
			// Category vanished or is unreadable; nothing under it to sweep.
			continue
		}
		for _, sub := range subcategories {
			if !sub.IsDir() {
				continue
			}
			defaultPath := filepath.Join(categoryPath, sub.Name(), defaultLevel)

			servers, err := os.ReadDir(defaultPath)
			if err != nil {
				continue
			}
			for _, server := range servers {
				if !server.IsDir() {
					continue
				}
				dirs = append(dirs, Dir{
					Path:     filepath.Join(defaultPath, server.Name()),
					ServerID: server.Name(),
				})
			}
		}
	}
	return dirs, nil
}

// Remove deletes a working directory and its contents. Removing a directory
// that is already absent is a success, so a re-run after a partial failure is
// safe.
func (s *Scanner) Remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", path, err)
	}
	return nil
}

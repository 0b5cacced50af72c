package fileutil

import (
	"os"
	"path/filepath"
	"sort"
)

// PruneOldest keeps at most `keep` files matching the glob pattern in dir,
// deleting the lexicographically-oldest first. Filenames across the repo
// that need this (lock status snapshots, refresh hints) are timestamp
// prefixed, so lexicographic order is chronological order.
func PruneOldest(dir, pattern string, keep int) error {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return err
	}
	if len(matches) <= keep {
		return nil
	}
	sort.Strings(matches)
	excess := len(matches) - keep
	for _, path := range matches[:excess] {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

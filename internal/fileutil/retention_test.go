package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPruneOldestKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a-1.json", "a-2.json", "a-3.json", "a-4.json"}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatalf("seed write failed: %v", err)
		}
	}

	if err := PruneOldest(dir, "a-*.json", 2); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 files remaining, got %d: %v", len(entries), entries)
	}
	remaining := map[string]bool{}
	for _, e := range entries {
		remaining[e.Name()] = true
	}
	if !remaining["a-3.json"] || !remaining["a-4.json"] {
		t.Errorf("expected the two newest files to remain, got %v", remaining)
	}
}

func TestPruneOldestNoopUnderLimit(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a-1.json"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed write failed: %v", err)
	}
	if err := PruneOldest(dir, "a-*.json", 5); err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected no deletions, got %d entries", len(entries))
	}
}

func TestPruneOldestIgnoresNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed write failed: %v", err)
	}
	if err := PruneOldest(dir, "a-*.json", 0); err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "other.txt")); err != nil {
		t.Errorf("expected non-matching file to survive, stat err = %v", err)
	}
}

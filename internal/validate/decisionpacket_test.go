package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderAndParseDecisionPacketRoundTrip(t *testing.T) {
	fm := DecisionPacketFrontMatter{
		Version:    1,
		DecisionID: "DP-SOFT-STALE-20260731_abcd1234",
		Status:     DecisionOpen,
		RepoID:     "repo-a",
		CreatedAt:  "2026-07-31T09:00:00.000Z",
	}
	content, err := RenderDecisionPacket(fm, "## Why this is stale\n\nrepo_head_drift\n")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.HasPrefix(content, "---\n") {
		t.Fatalf("expected front matter delimiter at start, got: %q", content[:20])
	}

	got, err := ParseDecisionPacket(content)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got != fm {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, fm)
	}
}

func TestParseDecisionPacketRejectsMissingDelimiter(t *testing.T) {
	if _, err := ParseDecisionPacket("no front matter here"); err == nil {
		t.Fatal("expected error for missing front matter delimiter")
	}
}

func TestParseDecisionPacketRejectsUnterminatedFrontMatter(t *testing.T) {
	if _, err := ParseDecisionPacket("---\nversion: 1\n"); err == nil {
		t.Fatal("expected error for unterminated front matter")
	}
}

func TestLoadDecisionPacketFromDisk(t *testing.T) {
	dir := t.TempDir()
	fm := DecisionPacketFrontMatter{Version: 1, DecisionID: "DP-1", Status: DecisionOpen, CreatedAt: "2026-07-31T09:00:00.000Z"}
	content, err := RenderDecisionPacket(fm, "body\n")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	path := filepath.Join(dir, "DP-1.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := LoadDecisionPacket(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.DecisionID != "DP-1" || got.Status != DecisionOpen {
		t.Errorf("unexpected loaded front matter: %+v", got)
	}
}

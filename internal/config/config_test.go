package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/re-cinq/lanectl/internal/staleness"
)

func TestLoadRequiresProjectRoot(t *testing.T) {
	t.Setenv("AI_PROJECT_ROOT", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error when AI_PROJECT_ROOT is unset")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("AI_PROJECT_ROOT", "/tmp/proj")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProjectRoot != "/tmp/proj" {
		t.Errorf("ProjectRoot = %q", cfg.ProjectRoot)
	}
	if cfg.LockTTL != 8*time.Minute {
		t.Errorf("expected default lock TTL, got %v", cfg.LockTTL)
	}
	if cfg.SoftStale.EscalateMode != staleness.ModeUpdateMeeting {
		t.Errorf("expected default escalate mode, got %v", cfg.SoftStale.EscalateMode)
	}
}

func TestLoadSettingsFileOverlay(t *testing.T) {
	t.Setenv("AI_PROJECT_ROOT", "/tmp/proj")
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	content := `
repos_root: /srv/repos
lock_ttl_seconds: 120
soft_stale:
  escalate_mode: decision_packet
  escalate_cap_per_day: 5
scan_stale_window_hours: 12
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ReposRoot != "/srv/repos" {
		t.Errorf("ReposRoot = %q", cfg.ReposRoot)
	}
	if cfg.LockTTL != 120*time.Second {
		t.Errorf("LockTTL = %v", cfg.LockTTL)
	}
	if cfg.SoftStale.EscalateMode != staleness.ModeDecisionPacket {
		t.Errorf("EscalateMode = %v", cfg.SoftStale.EscalateMode)
	}
	if cfg.SoftStale.EscalateCapPerDay != 5 {
		t.Errorf("EscalateCapPerDay = %d", cfg.SoftStale.EscalateCapPerDay)
	}
	if cfg.Staleness.ScanStaleWindow != 12*time.Hour {
		t.Errorf("ScanStaleWindow = %v", cfg.Staleness.ScanStaleWindow)
	}
}

func TestEnvOverridesBeatSettingsFile(t *testing.T) {
	t.Setenv("AI_PROJECT_ROOT", "/tmp/proj")
	t.Setenv("REPOS_ROOT", "/from/env")
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(path, []byte("repos_root: /from/file\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ReposRoot != "/from/env" {
		t.Errorf("expected env override to win, got %q", cfg.ReposRoot)
	}
}

func TestLoadRejectsUnknownEscalateMode(t *testing.T) {
	t.Setenv("AI_PROJECT_ROOT", "/tmp/proj")
	t.Setenv("LANE_A_SOFT_STALE_ESCALATE_MODE", "bogus_mode")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown escalate mode")
	}
}

// Package config resolves the orchestrator's environment-driven
// configuration (§5), with an optional YAML settings file layered on top
// for values teams want to check into source control rather than export as
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/re-cinq/lanectl/internal/lock"
	"github.com/re-cinq/lanectl/internal/staleness"
)

// Config is the fully-resolved set of knobs the orchestrator needs.
type Config struct {
	ProjectRoot      string
	ReposRoot        string
	KnowledgeRepoDir string
	LockTTL          time.Duration
	SoftStale        staleness.Config
	Staleness        staleness.Policy
}

// fileSettings is the optional YAML overlay (§5: "implementers should
// expose these as configuration"). A field, when set, takes precedence over
// the built-in default but not over an explicitly-set environment variable;
// scan_stale_window_hours and hard_stale_after_hours have no environment
// variable and are set only here.
type fileSettings struct {
	ReposRoot        string `yaml:"repos_root,omitempty"`
	KnowledgeRepoDir string `yaml:"knowledge_repo_dir,omitempty"`
	LockTTLSeconds   int    `yaml:"lock_ttl_seconds,omitempty"`
	SoftStale        struct {
		Banner            *bool  `yaml:"banner,omitempty"`
		EscalateAfterMins int    `yaml:"escalate_after_minutes,omitempty"`
		EscalateMode      string `yaml:"escalate_mode,omitempty"`
		EscalateCapPerDay int    `yaml:"escalate_cap_per_day,omitempty"`
	} `yaml:"soft_stale,omitempty"`
	ScanStaleWindowHours int `yaml:"scan_stale_window_hours,omitempty"`
	HardStaleAfterHours  int `yaml:"hard_stale_after_hours,omitempty"`
}

// Load resolves configuration from the environment, optionally overlaying
// a YAML settings file at settingsPath (ignored if empty or absent).
func Load(settingsPath string) (*Config, error) {
	root := os.Getenv("AI_PROJECT_ROOT")
	if root == "" {
		return nil, fmt.Errorf("AI_PROJECT_ROOT is required")
	}

	cfg := &Config{
		ProjectRoot:      root,
		ReposRoot:        envOr("REPOS_ROOT", ""),
		KnowledgeRepoDir: envOr("KNOWLEDGE_REPO_DIR", ""),
		LockTTL:          lock.DefaultTTL(),
		SoftStale:        staleness.DefaultConfig(),
		Staleness:        staleness.DefaultPolicy(),
	}

	if settingsPath != "" {
		if err := applySettingsFile(cfg, settingsPath); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applySettingsFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading settings file: %w", err)
	}
	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("parsing settings file: %w", err)
	}

	if fs.ReposRoot != "" {
		cfg.ReposRoot = fs.ReposRoot
	}
	if fs.KnowledgeRepoDir != "" {
		cfg.KnowledgeRepoDir = fs.KnowledgeRepoDir
	}
	if fs.LockTTLSeconds > 0 {
		cfg.LockTTL = time.Duration(fs.LockTTLSeconds) * time.Second
	}
	if fs.SoftStale.Banner != nil {
		cfg.SoftStale.BannerEnabled = *fs.SoftStale.Banner
	}
	if fs.SoftStale.EscalateAfterMins > 0 {
		cfg.SoftStale.EscalateAfterMinutes = fs.SoftStale.EscalateAfterMins
	}
	if fs.SoftStale.EscalateMode != "" {
		mode, err := parseEscalateMode(fs.SoftStale.EscalateMode)
		if err != nil {
			return err
		}
		cfg.SoftStale.EscalateMode = mode
	}
	if fs.SoftStale.EscalateCapPerDay > 0 {
		cfg.SoftStale.EscalateCapPerDay = fs.SoftStale.EscalateCapPerDay
	}
	if fs.ScanStaleWindowHours > 0 {
		cfg.Staleness.ScanStaleWindow = time.Duration(fs.ScanStaleWindowHours) * time.Hour
	}
	if fs.HardStaleAfterHours > 0 {
		cfg.Staleness.HardStaleAfter = time.Duration(fs.HardStaleAfterHours) * time.Hour
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("REPOS_ROOT"); v != "" {
		cfg.ReposRoot = v
	}
	if v := os.Getenv("KNOWLEDGE_REPO_DIR"); v != "" {
		cfg.KnowledgeRepoDir = v
	}
	if v := os.Getenv("LANE_A_LOCK_TTL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LANE_A_LOCK_TTL_MS: %w", err)
		}
		if ms > 0 {
			cfg.LockTTL = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("LANE_A_SOFT_STALE_BANNER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LANE_A_SOFT_STALE_BANNER: %w", err)
		}
		cfg.SoftStale.BannerEnabled = b
	}
	if v := os.Getenv("LANE_A_SOFT_STALE_ESCALATE_AFTER_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LANE_A_SOFT_STALE_ESCALATE_AFTER_MINUTES: %w", err)
		}
		cfg.SoftStale.EscalateAfterMinutes = n
	}
	if v := os.Getenv("LANE_A_SOFT_STALE_ESCALATE_MODE"); v != "" {
		mode, err := parseEscalateMode(v)
		if err != nil {
			return err
		}
		cfg.SoftStale.EscalateMode = mode
	}
	if v := os.Getenv("LANE_A_SOFT_STALE_ESCALATE_CAP_PER_DAY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LANE_A_SOFT_STALE_ESCALATE_CAP_PER_DAY: %w", err)
		}
		cfg.SoftStale.EscalateCapPerDay = n
	}
	return nil
}

func parseEscalateMode(v string) (staleness.EscalateMode, error) {
	switch staleness.EscalateMode(v) {
	case staleness.ModeUpdateMeeting, staleness.ModeDecisionPacket:
		return staleness.EscalateMode(v), nil
	default:
		return "", fmt.Errorf("unknown escalate mode %q", v)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

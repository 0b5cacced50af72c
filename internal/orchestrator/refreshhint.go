package orchestrator

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/staleness"
)

const refreshHintCap = 50

// RefreshHint is a lightweight nudge artifact (§6.1 `refresh_hints/`)
// written when the system is stale but no update meeting is already open
// to carry that signal.
type RefreshHint struct {
	Version        int      `json:"version"`
	At             string   `json:"at"`
	StaleRepos     []string `json:"stale_repos"`
	HardStaleRepos []string `json:"hard_stale_repos"`
	Reason         string   `json:"reason"`
}

// maybeWriteRefreshHint writes at most one refresh hint file per call when
// the system snapshot is stale and no update meeting is open, then prunes
// the directory back to refreshHintCap entries.
func maybeWriteRefreshHint(layout fileutil.Layout, system staleness.SystemSnapshot, meetingOpen bool, now time.Time) error {
	if !system.Stale || meetingOpen {
		return nil
	}
	hint := RefreshHint{
		Version:        1,
		At:             fileutil.NowISO(now),
		StaleRepos:     system.StaleRepos,
		HardStaleRepos: system.HardStaleRepos,
		Reason:         "system knowledge is stale and no update meeting is open",
	}
	scopeSlug := "system"
	if len(system.StaleRepos) == 1 {
		scopeSlug = strings.ReplaceAll(system.StaleRepos[0], "/", "-")
	}
	name := fmt.Sprintf("RH-%s__%s.json", fileutil.NowFSSafe(now), scopeSlug)
	path := filepath.Join(layout.RefreshHintsDir(), name)
	if err := fileutil.WriteJSON(path, hint); err != nil {
		return fmt.Errorf("writing refresh hint: %w", err)
	}
	return fileutil.PruneOldest(layout.RefreshHintsDir(), "RH-*.json", refreshHintCap)
}

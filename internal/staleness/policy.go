// Package staleness implements the repo-level staleness snapshot, the
// system-wide union, and the soft-stale escalation tracker described in
// §4.5.
package staleness

import (
	"sort"
	"time"
)

// Reason codes — a closed vocabulary (§4.5).
const (
	ReasonRepoHeadDrift        = "repo_head_drift"
	ReasonUnconsumedMergeEvents = "unconsumed_merge_events"
	ReasonScanOlderThanWindow  = "scan_older_than_window"
)

// Policy carries the thresholds spec.md §9 leaves as an open question,
// exposed as configuration with documented defaults (DESIGN.md records the
// decision).
type Policy struct {
	// ScanStaleWindow is how long a repo may go without a scan before
	// scan_older_than_window fires.
	ScanStaleWindow time.Duration
	// HardStaleAfter is how long after its last scan a stale repo is
	// promoted to hard-stale.
	HardStaleAfter time.Duration
}

// DefaultPolicy matches the teacher's preference for conservative,
// generous defaults (the teacher's own 5s daemon grace period, 8-minute
// lock TTL) over aggressive ones.
func DefaultPolicy() Policy {
	return Policy{
		ScanStaleWindow: 24 * time.Hour,
		HardStaleAfter:  72 * time.Hour,
	}
}

// RepoSnapshot is one repo's staleness classification (§4.5).
type RepoSnapshot struct {
	RepoID              string    `json:"repo_id"`
	Stale               bool      `json:"stale"`
	HardStale           bool      `json:"hard_stale"`
	Reasons             []string  `json:"reasons"`
	LastScanTime        *time.Time `json:"last_scan_time,omitempty"`
	LastMergeEventTime  *time.Time `json:"last_merge_event_time,omitempty"`
	RepoHeadSHA         string    `json:"repo_head_sha"`
	LastScannedHeadSHA  string    `json:"last_scanned_head_sha"`
}

// RepoObservation is the raw input the orchestrator assembles for one repo
// before classification.
type RepoObservation struct {
	RepoID               string
	RepoHeadSHA          string
	LastScannedHeadSHA   string
	LastScanTime         *time.Time
	LastMergeEventTime   *time.Time
	UnconsumedMergeCount int
}

// ClassifyRepo computes a RepoSnapshot for one repo (§4.5).
func ClassifyRepo(obs RepoObservation, now time.Time, policy Policy) RepoSnapshot {
	var reasons []string

	if obs.RepoHeadSHA != "" && obs.LastScannedHeadSHA != "" && obs.RepoHeadSHA != obs.LastScannedHeadSHA {
		reasons = append(reasons, ReasonRepoHeadDrift)
	}
	if obs.UnconsumedMergeCount > 0 {
		reasons = append(reasons, ReasonUnconsumedMergeEvents)
	}
	if obs.LastScanTime == nil || now.Sub(*obs.LastScanTime) > policy.ScanStaleWindow {
		reasons = append(reasons, ReasonScanOlderThanWindow)
	}
	sort.Strings(reasons)

	stale := len(reasons) > 0
	hardStale := stale && obs.LastScanTime != nil && now.Sub(*obs.LastScanTime) > policy.HardStaleAfter
	// A never-scanned repo is stale but not hard-stale — it belongs to
	// NEEDS_INDEX/NEEDS_SCAN, not the hard-stale decision-packet path.
	if obs.LastScanTime == nil {
		hardStale = false
	}

	return RepoSnapshot{
		RepoID:             obs.RepoID,
		Stale:              stale,
		HardStale:          hardStale,
		Reasons:            reasons,
		LastScanTime:       obs.LastScanTime,
		LastMergeEventTime: obs.LastMergeEventTime,
		RepoHeadSHA:        obs.RepoHeadSHA,
		LastScannedHeadSHA: obs.LastScannedHeadSHA,
	}
}

// SystemSnapshot is the union over every active repo (§4.5).
type SystemSnapshot struct {
	Stale          bool     `json:"stale"`
	HardStaleRepos []string `json:"hard_stale_repos"`
	StaleRepos     []string `json:"stale_repos"`
}

// ClassifySystem unions repo snapshots into a system view.
func ClassifySystem(snapshots []RepoSnapshot) SystemSnapshot {
	var hard, soft []string
	for _, s := range snapshots {
		if s.Stale {
			soft = append(soft, s.RepoID)
		}
		if s.HardStale {
			hard = append(hard, s.RepoID)
		}
	}
	sort.Strings(hard)
	sort.Strings(soft)
	return SystemSnapshot{
		Stale:          len(soft) > 0,
		HardStaleRepos: hard,
		StaleRepos:     soft,
	}
}

// SoftStaleOnly returns repos that are stale but not hard-stale — the set
// the soft-stale tracker (not the orchestrator's decision-packet path)
// owns (§4.5: "When a repo becomes hard-stale, the tracker entry is
// removed").
func SoftStaleOnly(snapshots []RepoSnapshot) []RepoSnapshot {
	var out []RepoSnapshot
	for _, s := range snapshots {
		if s.Stale && !s.HardStale {
			out = append(out, s)
		}
	}
	return out
}

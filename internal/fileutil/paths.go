package fileutil

import "path/filepath"

// Layout builds every on-disk path named in §6.1, rooted at OPS_ROOT.
type Layout struct {
	OpsRoot string
}

// NewLayout roots a Layout at the given OPS_ROOT (AI_PROJECT_ROOT).
func NewLayout(opsRoot string) Layout {
	return Layout{OpsRoot: opsRoot}
}

func (l Layout) laneA(parts ...string) string {
	return filepath.Join(append([]string{l.OpsRoot, "ai", "lane_a"}, parts...)...)
}

// LaneADir is the root of all Lane A operational state.
func (l Layout) LaneADir() string { return l.laneA() }

// RegistryFile holds the repository registry entries.
func (l Layout) RegistryFile() string { return l.laneA("registry.json") }

// CheckpointsDir holds the orchestrator's own state artifacts (not to be
// confused with per-consumer event checkpoints under EventsCheckpointsDir).
func (l Layout) CheckpointsDir() string { return l.laneA("checkpoints") }

func (l Layout) StateFile() string           { return filepath.Join(l.CheckpointsDir(), "state.json") }
func (l Layout) StateMarkdownFile() string   { return filepath.Join(l.CheckpointsDir(), "STATE.md") }
func (l Layout) NextActionHintFile() string {
	return filepath.Join(l.CheckpointsDir(), "next_action_hint.json")
}
func (l Layout) StateErrorFile() string {
	return filepath.Join(l.CheckpointsDir(), "state.error.json")
}

// EventsDir is the root of the event log.
func (l Layout) EventsDir() string           { return l.laneA("events") }
func (l Layout) EventsSegmentsDir() string   { return filepath.Join(l.EventsDir(), "segments") }
func (l Layout) EventsCheckpointsDir() string {
	return filepath.Join(l.EventsDir(), "checkpoints")
}
func (l Layout) ConsumerCheckpointFile(consumer string) string {
	return filepath.Join(l.EventsCheckpointsDir(), "consumer-"+consumer+".json")
}
func (l Layout) QAFollowupsDir() string { return filepath.Join(l.EventsDir(), "qa_followups") }

func (l Layout) StalenessDir() string { return l.laneA("staleness") }
func (l Layout) SoftStaleTrackerFile() string {
	return filepath.Join(l.StalenessDir(), "soft_stale_tracker.json")
}
func (l Layout) SoftStaleDailyCounterFile(yyyymmdd string) string {
	return filepath.Join(l.StalenessDir(), "soft_stale_escalations_"+yyyymmdd+".json")
}

func (l Layout) DecisionPacketsDir() string { return l.laneA("decision_packets") }
func (l Layout) MeetingsDir() string        { return l.laneA("meetings") }
func (l Layout) RefreshHintsDir() string    { return l.laneA("refresh_hints") }

func (l Layout) LocksDir() string       { return l.laneA("locks") }
func (l Layout) LockFile() string       { return filepath.Join(l.LocksDir(), "lane-a-orchestrate.lock.json") }
func (l Layout) LockStatusDir() string  { return filepath.Join(l.LocksDir(), "status") }

func (l Layout) LogsDir() string { return l.laneA("logs") }

// KickoffStatusFile, SufficiencyStatusFile, CommitteeStatusFile, and
// IntegrationStatusFile are the supplemented read paths (SPEC_FULL §4) for
// artifacts produced by out-of-scope collaborators (committees/writer) but
// consumed by the in-scope orchestrator stage machine.
func (l Layout) KickoffStatusFile() string {
	return filepath.Join(l.laneA("kickoff"), "STATUS.json")
}
func (l Layout) SufficiencyStatusFile() string {
	return filepath.Join(l.laneA("sufficiency"), "STATUS.json")
}
func (l Layout) CommitteeDir(repoID string) string {
	return filepath.Join(l.laneA("committees"), repoID)
}
func (l Layout) CommitteeStatusFile(repoID string) string {
	return filepath.Join(l.CommitteeDir(repoID), "STATUS.json")
}
func (l Layout) CommitteeStaleFile(repoID string) string {
	return filepath.Join(l.CommitteeDir(repoID), "STALE.json")
}
func (l Layout) IntegrationStatusFile() string {
	return filepath.Join(l.laneA("integration"), "STATUS.json")
}
func (l Layout) SystemCommitteeStaleFile() string {
	return filepath.Join(l.laneA("integration"), "STALE.json")
}

// RepoOutputDir is where a repo's index and fingerprints are written.
func (l Layout) RepoOutputDir(repoID string) string {
	return filepath.Join(l.laneA("repos"), repoID)
}
func (l Layout) RepoIndexFile(repoID string) string {
	return filepath.Join(l.RepoOutputDir(repoID), "repo_index.json")
}
func (l Layout) RepoFingerprintsFile(repoID string) string {
	return filepath.Join(l.RepoOutputDir(repoID), "repo_fingerprints.json")
}
func (l Layout) RepoIndexErrorDir() string {
	return filepath.Join(l.laneA("repos"), "_errors")
}

// LaneBInboxDir is where Lane B intake stubs are dropped.
func (l Layout) LaneBInboxDir() string {
	return filepath.Join(l.OpsRoot, "ai", "lane_b", "inbox")
}

// KnowledgeEventsSummaryFile lives under K_ROOT, not OPS_ROOT.
func KnowledgeEventsSummaryFile(kRoot string) string {
	return filepath.Join(kRoot, "events", "summary.json")
}

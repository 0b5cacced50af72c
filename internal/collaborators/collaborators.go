// Package collaborators names the external contracts the core consumes
// (§6.3) without reimplementing them: the LLM-calling writer/committee
// chairs, the knowledge-scan job, and the knowledge-update-meeting tool.
// Each is an opaque Go callable; a failure is surfaced to the caller but
// must never crash the orchestrator (§7: LLM/collaborator unavailability
// is non-fatal).
package collaborators

import "context"

// ScanRequest and ScanResult mirror the `Run({projectRoot, repoId, limit,
// concurrency, dryRun})` contract in §6.3.
type ScanRequest struct {
	ProjectRoot string
	RepoID      string
	Limit       int
	Concurrency int
	DryRun      bool
}

type ScanResult struct {
	OK     bool
	Failed []string
}

// ScanFunc runs a knowledge scan for one repo.
type ScanFunc func(ctx context.Context, req ScanRequest) (ScanResult, error)

// MeetingMode selects the knowledge-update-meeting behavior.
type MeetingMode string

const (
	MeetingStatus MeetingMode = "status"
	MeetingStart  MeetingMode = "start"
	MeetingClose  MeetingMode = "close"
)

type MeetingRequest struct {
	ProjectRoot string
	Mode        MeetingMode
	Scope       string
	DryRun      bool
}

type MeetingResult struct {
	OK        bool
	Sessions  []string
	MeetingID string
	Artifact  string
}

// MeetingFunc opens, checks, or closes a knowledge update meeting.
type MeetingFunc func(ctx context.Context, req MeetingRequest) (MeetingResult, error)

// NoopScan is a stub ScanFunc for environments with no real scanner wired
// in (tests, local development). It reports success with nothing failed.
func NoopScan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	return ScanResult{OK: true}, nil
}

// NoopMeeting is a stub MeetingFunc used the same way as NoopScan.
func NoopMeeting(ctx context.Context, req MeetingRequest) (MeetingResult, error) {
	return MeetingResult{OK: true}, nil
}

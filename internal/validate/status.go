// Package validate holds the narrow, hand-rolled validators for the
// on-disk shapes the orchestrator reads but doesn't produce: committee
// status, integration status, kickoff status, sufficiency status, committee
// stale markers, and decision packets (§6.3, §9). Each loader reads one file
// into a typed struct and returns an error when the file cannot be read or
// parsed; there is no general JSON-schema engine (spec.md §1 Non-goals excludes domain-schema
// validator frameworks — these are purpose-built, not generic).
package validate

import (
	"fmt"
	"os"

	"github.com/re-cinq/lanectl/internal/fileutil"
)

// CommitteeStatus is the per-repo committee verdict an out-of-scope
// committee-chair collaborator produces.
type CommitteeStatus struct {
	Version      int    `json:"version"`
	RepoID       string `json:"repo_id"`
	EvidenceValid bool  `json:"evidence_valid"`
	EvaluatedAt  string `json:"evaluated_at"`
}

// IntegrationStatus is the system-wide integration committee verdict.
type IntegrationStatus struct {
	Version      int    `json:"version"`
	EvidenceValid bool  `json:"evidence_valid"`
	EvaluatedAt  string `json:"evaluated_at"`
}

// KickoffStatus records whether the interactive kickoff/interview
// collaborator (out of scope) has produced sufficient project framing.
type KickoffStatus struct {
	Version     int  `json:"version"`
	Present     bool `json:"present"`
	Sufficient  bool `json:"sufficient"`
}

// SufficiencyStatus is the minimum-knowledge-sufficiency gate.
type SufficiencyStatus struct {
	Version    int    `json:"version"`
	Sufficient bool   `json:"sufficient"`
	Reason     string `json:"reason,omitempty"`
}

// LoadCommitteeStatus reads a per-repo committee status file. A missing
// file is reported via present=false rather than an error —
// "missing" is a legitimate stage-machine input (§4.1 step 8).
func LoadCommitteeStatus(path string) (status CommitteeStatus, present bool, err error) {
	err = fileutil.ReadJSON(path, &status)
	if os.IsNotExist(err) {
		return CommitteeStatus{}, false, nil
	}
	if err != nil {
		return CommitteeStatus{}, false, fmt.Errorf("loading committee status: %w", err)
	}
	return status, true, nil
}

// LoadIntegrationStatus reads the system integration committee status file.
func LoadIntegrationStatus(path string) (status IntegrationStatus, present bool, err error) {
	err = fileutil.ReadJSON(path, &status)
	if os.IsNotExist(err) {
		return IntegrationStatus{}, false, nil
	}
	if err != nil {
		return IntegrationStatus{}, false, fmt.Errorf("loading integration status: %w", err)
	}
	return status, true, nil
}

// LoadKickoffStatus reads the kickoff status file.
func LoadKickoffStatus(path string) (status KickoffStatus, present bool, err error) {
	err = fileutil.ReadJSON(path, &status)
	if os.IsNotExist(err) {
		return KickoffStatus{}, false, nil
	}
	if err != nil {
		return KickoffStatus{}, false, fmt.Errorf("loading kickoff status: %w", err)
	}
	return status, true, nil
}

// LoadSufficiencyStatus reads the sufficiency status file. A missing file
// is treated as "not sufficient" (conservative default, §9 open questions).
func LoadSufficiencyStatus(path string) (SufficiencyStatus, error) {
	var s SufficiencyStatus
	err := fileutil.ReadJSON(path, &s)
	if os.IsNotExist(err) {
		return SufficiencyStatus{Sufficient: false, Reason: "no sufficiency status recorded"}, nil
	}
	if err != nil {
		return SufficiencyStatus{}, fmt.Errorf("loading sufficiency status: %w", err)
	}
	return s, nil
}

// CommitteeStaleMarker is written by the refresh consumer to invalidate a committee's prior conclusion (§4.3 step 4).
type CommitteeStaleMarker struct {
	Version int    `json:"version"`
	Reason  string `json:"reason"`
	SetAt   string `json:"set_at"`
}

func LoadCommitteeStale(path string) (marker CommitteeStaleMarker, present bool, err error) {
	err = fileutil.ReadJSON(path, &marker)
	if os.IsNotExist(err) {
		return CommitteeStaleMarker{}, false, nil
	}
	if err != nil {
		return CommitteeStaleMarker{}, false, fmt.Errorf("loading stale marker: %w", err)
	}
	return marker, true, nil
}

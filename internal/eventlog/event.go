// Package eventlog implements the segmented, append-only JSON-line event
// store (§4.7) and its consumer-facing reading protocol. Segment files are
// owned exclusively by their producer (§3.2); this package only appends
// (for tests) and reads.
package eventlog

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Known event types. The set is open-ended in the source system (the "…"
// in §3.1); these are the ones the in-scope consumers branch on.
const (
	TypeMerge = "merge"
	TypeScan  = "scan"
	TypeIndex = "index"
)

// Artifacts is the explicitly-extensible artifact-paths container (§9).
type Artifacts struct {
	Paths []string `json:"paths,omitempty"`
}

// Event is a knowledge-change event (§3.1). Obligations is kept as raw JSON
// both because its shape varies by event type and because the QA-merge
// follow-up consumer content-seeds its deterministic filenames on the raw
// obligations bytes (§4.2 step 3).
type Event struct {
	EventID       string          `json:"event_id"`
	Timestamp     string          `json:"timestamp"`
	Type          string          `json:"type"`
	Scope         string          `json:"scope,omitempty"`
	RepoID        string          `json:"repo_id,omitempty"`
	WorkID        string          `json:"work_id,omitempty"`
	Commit        string          `json:"commit,omitempty"`
	Summary       string          `json:"summary,omitempty"`
	Artifacts     Artifacts       `json:"artifacts,omitempty"`
	Obligations   json.RawMessage `json:"obligations,omitempty"`
	ChangedPaths  []string        `json:"changed_paths,omitempty"`
	AffectedPaths []string        `json:"affected_paths,omitempty"`
	RiskLevel     string          `json:"risk_level,omitempty"`
}

// Obligations is the decoded shape of Event.Obligations relevant to the
// QA-merge follow-up consumer (§4.2).
type Obligations struct {
	MustAddE2E bool `json:"must_add_e2e"`
}

// DecodeObligations best-effort decodes Event.Obligations. A missing or
// malformed block yields the zero value, not an error — obligations are
// optional (§3.1 uses a trailing `?`).
func (e Event) DecodeObligations() Obligations {
	var o Obligations
	if len(e.Obligations) == 0 {
		return o
	}
	_ = json.Unmarshal(e.Obligations, &o)
	return o
}

// Paths returns ChangedPaths if set, else AffectedPaths — the two fields
// are alternatives for the same concept (§3.1's `changed_paths?/affected_paths?`).
func (e Event) Paths() []string {
	if len(e.ChangedPaths) > 0 {
		return e.ChangedPaths
	}
	return e.AffectedPaths
}

// Validate normalizes a raw JSON line into an Event, or returns a
// structured error list (§9: each on-disk entity has a dedicated
// validator; unknown top-level keys are an error).
func Validate(raw []byte) (Event, []string) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Event{}, []string{fmt.Sprintf("invalid JSON: %s", err)}
	}

	known := map[string]bool{
		"event_id": true, "timestamp": true, "type": true, "scope": true,
		"repo_id": true, "work_id": true, "commit": true, "summary": true,
		"artifacts": true, "obligations": true, "changed_paths": true,
		"affected_paths": true, "risk_level": true,
	}
	var errs []string
	keys := make([]string, 0, len(generic))
	for k := range generic {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !known[k] {
			errs = append(errs, fmt.Sprintf("unknown field %q", k))
		}
	}

	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		errs = append(errs, fmt.Sprintf("decoding event: %s", err))
		return Event{}, errs
	}
	if e.EventID == "" {
		errs = append(errs, "event_id is required")
	}
	if e.Timestamp == "" {
		errs = append(errs, "timestamp is required")
	}
	if e.Type == "" {
		errs = append(errs, "type is required")
	}
	if len(errs) > 0 {
		return Event{}, errs
	}
	return e, nil
}

// Package orchestrator implements the Lane A state machine (§4.1): the
// reducer that computes evidence state, decides the next stage, and
// executes at most one action per tick under the Lane A lock.
package orchestrator

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/re-cinq/lanectl/internal/fileutil"
)

// Evidence levels (§3.1).
const (
	EvidenceNone    = "none"
	EvidencePartial = "partial"
	EvidenceComplete = "complete"
)

// EvidenceState mirrors the §3.1 Lane A state entity's evidence_state block.
type EvidenceState struct {
	EvidenceLevel         string   `json:"evidence_level"`
	ScanCoverageComplete   bool     `json:"scan_coverage_complete"`
	MinimumSufficient     bool     `json:"minimum_sufficient"`
	PendingEvents         int      `json:"pending_events"`
	LastIndexAt           string   `json:"last_index_at,omitempty"`
	LastScanAt            string   `json:"last_scan_at,omitempty"`
	LastSynthAt           string   `json:"last_synth_at,omitempty"`
	MilestoneStatus       string   `json:"milestone_status,omitempty"`
}

// NextAction is the single scheduled or executed action for this tick.
type NextAction struct {
	Type         string   `json:"type"`
	TargetRepos  []string `json:"target_repos"`
	Reason       string   `json:"reason"`
}

// State is the full Lane A state artifact (§3.1, written as state.json).
type State struct {
	Version       int           `json:"version"`
	Stage         string        `json:"stage"`
	EvidenceState EvidenceState `json:"evidence_state"`
	NextAction    NextAction    `json:"next_action"`
	UpdatedAt     string        `json:"updated_at"`
}

// ErrorArtifact is written to state.error.json on any caught failure (§7).
type ErrorArtifact struct {
	OK         bool   `json:"ok"`
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
	CapturedAt string `json:"captured_at"`
}

func writeState(layout fileutil.Layout, st State) error {
	if err := fileutil.WriteJSON(layout.StateFile(), st); err != nil {
		return fmt.Errorf("writing state.json: %w", err)
	}
	if err := fileutil.AtomicWriteFile(layout.StateMarkdownFile(), []byte(renderStateMarkdown(st)), 0o644); err != nil {
		return fmt.Errorf("writing STATE.md: %w", err)
	}
	hint := map[string]interface{}{
		"stage":        st.Stage,
		"next_action":  st.NextAction,
		"updated_at":   st.UpdatedAt,
	}
	if err := fileutil.WriteJSON(layout.NextActionHintFile(), hint); err != nil {
		return fmt.Errorf("writing next_action_hint.json: %w", err)
	}
	return nil
}

func renderStateMarkdown(st State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Lane A state\n\n")
	fmt.Fprintf(&b, "- stage: `%s`\n", st.Stage)
	fmt.Fprintf(&b, "- evidence_level: `%s`\n", st.EvidenceState.EvidenceLevel)
	fmt.Fprintf(&b, "- scan_coverage_complete: %v\n", st.EvidenceState.ScanCoverageComplete)
	fmt.Fprintf(&b, "- minimum_sufficient: %v\n", st.EvidenceState.MinimumSufficient)
	fmt.Fprintf(&b, "- pending_events: %d\n", st.EvidenceState.PendingEvents)
	fmt.Fprintf(&b, "- next_action: `%s` (%s)\n", st.NextAction.Type, st.NextAction.Reason)
	if len(st.NextAction.TargetRepos) > 0 {
		fmt.Fprintf(&b, "- target_repos: %s\n", strings.Join(st.NextAction.TargetRepos, ", "))
	}
	fmt.Fprintf(&b, "\nUpdated at %s\n", st.UpdatedAt)
	return b.String()
}

func clearStateError(layout fileutil.Layout) {
	_ = os.Remove(layout.StateErrorFile())
}

func writeStateError(layout fileutil.Layout, now time.Time, cause error) {
	artifact := ErrorArtifact{
		OK:         false,
		Message:    cause.Error(),
		CapturedAt: fileutil.NowISO(now),
	}
	_ = fileutil.WriteJSON(layout.StateErrorFile(), artifact)
}

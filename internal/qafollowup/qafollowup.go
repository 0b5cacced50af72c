// Package qafollowup implements the QA-merge follow-up consumer (§4.2): it
// watches merge events for missing end-to-end test obligations and drops
// Lane B intake stubs so a human or writer agent can pick the work up.
package qafollowup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/re-cinq/lanectl/internal/checkpoint"
	"github.com/re-cinq/lanectl/internal/eventlog"
	"github.com/re-cinq/lanectl/internal/fileutil"
)

const consumerName = "qa-merge-followups"

// pathClass is one of the three buckets a changed/affected path can fall
// into (§4.2 step 2's classification predicate).
type pathClass int

const (
	classUnit pathClass = iota
	classIntegration
	classE2E
)

var e2eMarkers = []string{"/e2e/", "/e2e_", "e2e_test.go", ".e2e.", "/cypress/", "/playwright/"}
var integrationMarkers = []string{"/integration/", "integration_test.go", ".integration."}

func classify(path string) pathClass {
	// The leading slash lets a marker directory at the repo root match too
	// (e.g. "cypress/..." or "e2e/...").
	lower := "/" + strings.ToLower(path)
	for _, m := range e2eMarkers {
		if strings.Contains(lower, m) {
			return classE2E
		}
	}
	for _, m := range integrationMarkers {
		if strings.Contains(lower, m) {
			return classIntegration
		}
	}
	return classUnit
}

// Request configures one run of the consumer.
type Request struct {
	Layout    fileutil.Layout
	DryRun    bool
	Now       time.Time
	MaxEvents int
}

// Outcome is one processed event's disposition.
type Outcome struct {
	EventID      string `json:"event_id"`
	HasE2E       bool   `json:"has_e2e"`
	Obligated    bool   `json:"obligated"`
	StubWritten  bool   `json:"stub_written"`
	StubPath     string `json:"stub_path,omitempty"`
	AlreadyExists bool  `json:"already_exists,omitempty"`
}

// Report summarizes one consumer run.
type Report struct {
	Version      int       `json:"version"`
	RunAt        string    `json:"run_at"`
	EventsRead   int       `json:"events_read"`
	Outcomes     []Outcome `json:"outcomes"`
	Warnings     []string  `json:"warnings,omitempty"`
	Checkpointed bool      `json:"checkpointed"`
}

// Run processes merge events after the checkpointed line offset (the
// 0-based index of the last line read in the checkpointed segment).
func Run(req Request) (Report, error) {
	store := checkpoint.NewStore(req.Layout)
	cp, err := store.Read(consumerName)
	if err != nil {
		return Report{}, fmt.Errorf("reading qa-followup checkpoint: %w", err)
	}

	segmentsDir := req.Layout.EventsSegmentsDir()
	segments, err := eventlog.SegmentsFrom(segmentsDir, cp.LastReadSegment)
	if err != nil {
		return Report{}, fmt.Errorf("listing event segments: %w", err)
	}

	report := Report{Version: 1, RunAt: fileutil.NowISO(req.Now)}

	var lastSegment *string
	lastOffset := 0

segmentLoop:
	for si, segment := range segments {
		lines, err := eventlog.ReadSegmentLines(segmentsDir, segment)
		if err != nil {
			return Report{}, fmt.Errorf("reading segment %s: %w", segment, err)
		}
		from := 0
		if si == 0 && cp.LastReadSegment != nil && *cp.LastReadSegment == segment {
			from = cp.LastReadOffset + 1
		}
		for i := from; i < len(lines); i++ {
			if req.MaxEvents > 0 && report.EventsRead >= req.MaxEvents {
				break segmentLoop
			}
			line := lines[i]
			e, errs := eventlog.Validate([]byte(line.Raw))
			if len(errs) > 0 {
				report.Warnings = append(report.Warnings, fmt.Sprintf("invalid event at %s line %d: %s", segment, line.Index, strings.Join(errs, "; ")))
				segCopy := segment
				lastSegment = &segCopy
				lastOffset = i
				continue
			}
			report.EventsRead++
			if e.Type == eventlog.TypeMerge {
				outcome, err := processMergeEvent(req, e)
				if err != nil {
					return report, err
				}
				report.Outcomes = append(report.Outcomes, outcome)
			}
			segCopy := segment
			lastSegment = &segCopy
			lastOffset = i
		}
	}

	if lastSegment != nil && !req.DryRun {
		if err := store.WriteLineOffset(consumerName, lastSegment, lastOffset, req.DryRun); err != nil {
			return report, fmt.Errorf("advancing qa-followup checkpoint: %w", err)
		}
		report.Checkpointed = true
	}

	return report, nil
}

func processMergeEvent(req Request, e eventlog.Event) (Outcome, error) {
	outcome := Outcome{EventID: e.EventID}

	paths := e.Paths()
	hasE2E := false
	for _, p := range paths {
		if classify(p) == classE2E {
			hasE2E = true
			break
		}
	}
	outcome.HasE2E = hasE2E

	obligations := e.DecodeObligations()
	outcome.Obligated = obligations.MustAddE2E

	if !obligations.MustAddE2E || hasE2E {
		return outcome, nil
	}

	scope := deriveScope(e)
	markerPath := filepath.Join(req.Layout.QAFollowupsDir(), e.EventID+".json")
	intakeID := seededIntakeID(e, scope)
	stubPath := filepath.Join(req.Layout.LaneBInboxDir(), intakeID+".md")

	outcome.StubPath = stubPath

	if _, err := readMarker(markerPath); err == nil {
		outcome.AlreadyExists = true
		return outcome, nil
	}
	if _, err := readMarker(stubPath); err == nil {
		outcome.AlreadyExists = true
		return outcome, nil
	}

	if req.DryRun {
		return outcome, nil
	}

	body := renderIntake(e, scope, paths)
	if err := fileutil.AtomicWriteFile(stubPath, []byte(body), 0o644); err != nil {
		return outcome, fmt.Errorf("writing qa-followup stub for %s: %w", e.EventID, err)
	}
	marker := fmt.Sprintf("{%q: %q}\n", "event_id", e.EventID)
	if err := fileutil.AtomicWriteFile(markerPath, []byte(marker), 0o644); err != nil {
		return outcome, fmt.Errorf("writing qa-followup marker for %s: %w", e.EventID, err)
	}
	outcome.StubWritten = true
	return outcome, nil
}

func readMarker(path string) ([]byte, error) {
	return fileutil.ReadFileIfExists(path)
}

// deriveScope follows §4.2 step 3: repo:{repo_id} when the event names a
// repo, else the system-wide scope.
func deriveScope(e eventlog.Event) string {
	if e.RepoID != "" {
		return "repo:" + e.RepoID
	}
	return "system"
}

// seededIntakeID derives a deterministic filename from an fs-safe timestamp
// and a content seed (§9: event.id + work_id + scope + merge_sha +
// obligations JSON), so re-running the consumer over the same event never
// produces a second stub (§4.2 step 3).
func seededIntakeID(e eventlog.Event, scope string) string {
	h := sha256.New()
	h.Write([]byte(e.EventID))
	h.Write([]byte(e.WorkID))
	h.Write([]byte(scope))
	h.Write([]byte(e.Commit))
	h.Write(e.Obligations)
	sum := hex.EncodeToString(h.Sum(nil))[:8]
	return fmt.Sprintf("QA-%s_%s", fsSafeTimestamp(e.Timestamp), sum)
}

// fsSafeTimestamp converts an ISO-8601 UTC timestamp to the fs-safe
// YYYYMMDD_HHMMSSmmm shape (§6.2). A malformed timestamp falls back to a
// literal placeholder rather than erroring — the hash still disambiguates.
func fsSafeTimestamp(ts string) string {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	if err != nil {
		return "00000000_000000000"
	}
	return fileutil.NowFSSafe(t)
}

func renderIntake(e eventlog.Event, scope string, paths []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# QA follow-up: missing end-to-end coverage\n\n")
	fmt.Fprintf(&b, "- event_id: %s\n", e.EventID)
	fmt.Fprintf(&b, "- repo_id: %s\n", e.RepoID)
	fmt.Fprintf(&b, "- commit: %s\n", e.Commit)
	fmt.Fprintf(&b, "- scope: %s\n\n", scope)
	if e.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", e.Summary)
	}
	b.WriteString("Changed paths:\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	b.WriteString("\nThis merge declared an end-to-end test obligation that its changed paths do not satisfy.\n")
	return b.String()
}

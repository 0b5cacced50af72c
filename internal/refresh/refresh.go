// Package refresh implements the refresh-from-events consumer (§4.3): the
// component that keeps repo knowledge current by re-indexing and
// re-scanning repos touched by merge events the orchestrator has not yet
// consumed, then marking their committee verdicts stale.
package refresh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/re-cinq/lanectl/internal/checkpoint"
	"github.com/re-cinq/lanectl/internal/collaborators"
	"github.com/re-cinq/lanectl/internal/eventlog"
	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/indexer"
	"github.com/re-cinq/lanectl/internal/registry"
	"github.com/re-cinq/lanectl/internal/validate"
)

const consumerName = "refresh-from-events"

// Request configures one refresh run.
type Request struct {
	Layout       fileutil.Layout
	KRoot        string
	Repos        []registry.Repo
	KnownRepoIDs map[string]bool
	RepoConfigs  map[string]indexer.RepoConfig
	Scan         collaborators.ScanFunc
	StopOnError  bool
	DryRun       bool
	Now          time.Time
	// MaxEvents caps how many events this call consumes before stopping
	// early (checkpoint still advances to the last event actually
	// consumed). Zero means unbounded.
	MaxEvents int
}

// RepoOutcome is one impacted repo's refresh result.
type RepoOutcome struct {
	RepoID  string `json:"repo_id"`
	Indexed bool   `json:"indexed"`
	Scanned bool   `json:"scanned"`
	Error   string `json:"error,omitempty"`
}

// Report is the refresh run's summary artifact.
type Report struct {
	Version           int           `json:"version"`
	RunAt             string        `json:"run_at"`
	StartSegment      *string       `json:"start_segment,omitempty"`
	StartEventID      *string       `json:"start_event_id,omitempty"`
	EventsRead        int           `json:"events_read"`
	DuplicateEventIDs []string      `json:"duplicate_event_ids,omitempty"`
	ImpactedRepos     []string      `json:"impacted_repos"`
	Outcomes          []RepoOutcome `json:"outcomes"`
	MissingRepos      []string      `json:"missing_repos,omitempty"`
	Checkpointed      bool          `json:"checkpointed"`
	StoppedOnError    bool          `json:"stopped_on_error"`
}

// Run executes one refresh-from-events cycle.
func Run(ctx context.Context, req Request) (Report, error) {
	store := checkpoint.NewStore(req.Layout)
	cp, err := store.Read(consumerName)
	if err != nil {
		return Report{}, fmt.Errorf("reading refresh checkpoint: %w", err)
	}

	segmentsDir := req.Layout.EventsSegmentsDir()
	segments, err := eventlog.SegmentsFrom(segmentsDir, cp.LastProcessedSegment)
	if err != nil {
		return Report{}, fmt.Errorf("listing event segments: %w", err)
	}
	if cp.LastProcessedSegment != nil && (len(segments) == 0 || segments[0] != *cp.LastProcessedSegment) {
		return Report{}, &eventlog.SegmentNotFoundError{Path: filepath.Join(segmentsDir, *cp.LastProcessedSegment)}
	}

	startIndex := 0
	if cp.LastProcessedSegment != nil && cp.LastProcessedEventID != nil && len(segments) > 0 {
		idx, found, err := eventlog.FindEventIndex(segmentsDir, segments[0], *cp.LastProcessedEventID)
		if err != nil {
			return Report{}, fmt.Errorf("locating checkpoint anchor: %w", err)
		}
		if !found {
			return Report{}, fmt.Errorf("checkpoint anchor event %s not found in segment %s", *cp.LastProcessedEventID, segments[0])
		}
		startIndex = idx + 1
	}

	report := Report{
		Version:      1,
		RunAt:        fileutil.NowISO(req.Now),
		StartSegment: cp.LastProcessedSegment,
		StartEventID: cp.LastProcessedEventID,
	}

	seen := map[string]bool{}
	impacted := map[string]bool{}
	var lastSegment *string
	var lastEventID *string

segmentLoop:
	for si, segment := range segments {
		lines, err := eventlog.ReadSegmentLines(segmentsDir, segment)
		if err != nil {
			return Report{}, fmt.Errorf("reading segment %s: %w", segment, err)
		}
		from := 0
		if si == 0 {
			from = startIndex
		}
		for i := from; i < len(lines); i++ {
			if req.MaxEvents > 0 && report.EventsRead >= req.MaxEvents {
				break segmentLoop
			}
			line := lines[i]
			e, errs := eventlog.Validate([]byte(line.Raw))
			if len(errs) > 0 {
				return Report{}, fmt.Errorf("invalid event at %s line %d: %s", segment, line.Index, strings.Join(errs, "; "))
			}
			report.EventsRead++
			if seen[e.EventID] {
				report.DuplicateEventIDs = append(report.DuplicateEventIDs, e.EventID)
			} else {
				seen[e.EventID] = true
			}
			if e.Type == eventlog.TypeMerge && e.RepoID != "" {
				impacted[e.RepoID] = true
			}
			segCopy := segment
			idCopy := e.EventID
			lastSegment = &segCopy
			lastEventID = &idCopy
		}
	}

	sort.Strings(report.DuplicateEventIDs)

	byID := registry.ByID(req.Repos)
	impactedIDs := make([]string, 0, len(impacted))
	for id := range impacted {
		impactedIDs = append(impactedIDs, id)
	}
	sort.Strings(impactedIDs)
	report.ImpactedRepos = impactedIDs

	stoppedOnError := false
	for _, repoID := range impactedIDs {
		r, ok := byID[repoID]
		if !ok {
			report.MissingRepos = append(report.MissingRepos, repoID)
			if req.StopOnError {
				stoppedOnError = true
				break
			}
			continue
		}
		outcome, err := refreshRepo(req, r)
		report.Outcomes = append(report.Outcomes, outcome)
		if err != nil && req.StopOnError {
			stoppedOnError = true
			break
		}
	}
	report.StoppedOnError = stoppedOnError

	if !req.DryRun && !stoppedOnError && lastSegment != nil {
		if err := store.WriteEventAnchor(consumerName, lastSegment, lastEventID, req.DryRun); err != nil {
			return report, fmt.Errorf("advancing refresh checkpoint: %w", err)
		}
		report.Checkpointed = true
	}

	if !req.DryRun {
		if err := writeReport(req.Layout, report); err != nil {
			return report, err
		}
		if len(impactedIDs) > 0 && req.KRoot != "" {
			if err := recomputeEventsSummary(req.KRoot, req.Layout, req.Now); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

func refreshRepo(req Request, r registry.Repo) (RepoOutcome, error) {
	outcome := RepoOutcome{RepoID: r.RepoID}

	if _, statErr := fileExists(r.Path); statErr != nil {
		outcome.Error = statErr.Error()
		return outcome, statErr
	}

	cfg := req.RepoConfigs[r.RepoID]
	if cfg.ActiveBranch == "" {
		cfg.ActiveBranch = r.ActiveBranch
	}

	result, err := indexer.Index(r.RepoID, r.Path, req.Layout.RepoOutputDir(r.RepoID), req.Layout.RepoIndexErrorDir(), cfg, req.KnownRepoIDs, req.DryRun)
	if err != nil {
		outcome.Error = err.Error()
		return outcome, err
	}
	outcome.Indexed = result.OK

	scan := req.Scan
	if scan == nil {
		scan = collaborators.NoopScan
	}
	scanResult, err := scan(context.Background(), collaborators.ScanRequest{
		ProjectRoot: filepath.Dir(req.Layout.LaneADir()),
		RepoID:      r.RepoID,
		DryRun:      req.DryRun,
	})
	if err != nil {
		outcome.Error = err.Error()
		return outcome, err
	}
	outcome.Scanned = scanResult.OK

	if !req.DryRun {
		marker := validate.CommitteeStaleMarker{
			Version: 1,
			Reason:  "repo re-indexed by refresh-from-events",
			SetAt:   fileutil.NowISO(req.Now),
		}
		if err := fileutil.WriteJSON(req.Layout.CommitteeStaleFile(r.RepoID), marker); err != nil {
			outcome.Error = err.Error()
			return outcome, err
		}
	}

	return outcome, nil
}

func fileExists(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("registry entry has empty path")
	}
	if _, err := os.Stat(path); err != nil {
		return false, fmt.Errorf("registered path %s is not accessible: %w", path, err)
	}
	return true, nil
}

func writeReport(layout fileutil.Layout, report Report) error {
	base := filepath.Join(layout.CheckpointsDir(), "knowledge-refresh-from-events.report")
	if err := fileutil.WriteJSON(base+".json", report); err != nil {
		return fmt.Errorf("writing refresh report json: %w", err)
	}
	md := renderReportMarkdown(report)
	if err := fileutil.AtomicWriteFile(base+".md", []byte(md), 0o644); err != nil {
		return fmt.Errorf("writing refresh report markdown: %w", err)
	}
	return nil
}

func renderReportMarkdown(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Refresh from events — %s\n\n", r.RunAt)
	fmt.Fprintf(&b, "Events read: %d\n\n", r.EventsRead)
	if len(r.DuplicateEventIDs) > 0 {
		fmt.Fprintf(&b, "Duplicate event ids: %s\n\n", strings.Join(r.DuplicateEventIDs, ", "))
	}
	fmt.Fprintf(&b, "Impacted repos: %s\n\n", strings.Join(r.ImpactedRepos, ", "))
	for _, o := range r.Outcomes {
		status := "ok"
		if o.Error != "" {
			status = "error: " + o.Error
		}
		fmt.Fprintf(&b, "- %s: indexed=%v scanned=%v (%s)\n", o.RepoID, o.Indexed, o.Scanned, status)
	}
	if len(r.MissingRepos) > 0 {
		fmt.Fprintf(&b, "\nMissing from registry: %s\n", strings.Join(r.MissingRepos, ", "))
	}
	return b.String()
}

// EventsSummary is the recomputed K_ROOT-level summary (§4.3 final step):
// event counts aggregated by type, scope, and repo_id, plus the last 50
// events sorted by (timestamp, event_id).
type EventsSummary struct {
	Version       int            `json:"version"`
	UpdatedAt     string         `json:"updated_at"`
	SourceHash    string         `json:"source_hash"`
	CountsByType  map[string]int `json:"counts_by_type"`
	CountsByScope map[string]int `json:"counts_by_scope"`
	CountsByRepo  map[string]int `json:"counts_by_repo_id"`
	ImpactedRepos []string       `json:"impacted_repos"`
	RecentEvents  []EventSummaryItem `json:"recent_events"`
}

// EventSummaryItem is one entry in EventsSummary.RecentEvents.
type EventSummaryItem struct {
	EventID   string `json:"event_id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Scope     string `json:"scope,omitempty"`
	RepoID    string `json:"repo_id,omitempty"`
}

const recentEventsCap = 50

// recomputeEventsSummary rebuilds events/summary.json from the full event
// log, but only rewrites the file when the underlying event set actually
// changed (§4.3 step 6: "recompute only when its source index hash
// changes"). The source hash is a digest over every raw event line across
// every segment, in segment order.
func recomputeEventsSummary(kRoot string, layout fileutil.Layout, now time.Time) error {
	segments, err := eventlog.ListSegments(layout.EventsSegmentsDir())
	if err != nil {
		return fmt.Errorf("listing segments for summary: %w", err)
	}

	hasher := sha256.New()
	var events []EventSummaryItem
	byType := map[string]int{}
	byScope := map[string]int{}
	byRepo := map[string]int{}
	repos := map[string]bool{}

	for _, seg := range segments {
		lines, err := eventlog.ReadSegmentLines(layout.EventsSegmentsDir(), seg)
		if err != nil {
			return fmt.Errorf("reading segment %s for summary: %w", seg, err)
		}
		for _, l := range lines {
			hasher.Write([]byte(l.Raw))
			hasher.Write([]byte{'\n'})
			e, errs := eventlog.Validate([]byte(l.Raw))
			if len(errs) > 0 {
				continue
			}
			byType[e.Type]++
			if e.Scope != "" {
				byScope[e.Scope]++
			}
			if e.RepoID != "" {
				byRepo[e.RepoID]++
				repos[e.RepoID] = true
			}
			events = append(events, EventSummaryItem{
				EventID: e.EventID, Timestamp: e.Timestamp, Type: e.Type,
				Scope: e.Scope, RepoID: e.RepoID,
			})
		}
	}
	sourceHash := hex.EncodeToString(hasher.Sum(nil))

	summaryPath := fileutil.KnowledgeEventsSummaryFile(kRoot)
	var existing EventsSummary
	if err := fileutil.ReadJSON(summaryPath, &existing); err == nil {
		if existing.SourceHash == sourceHash {
			return nil
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].EventID < events[j].EventID
	})
	if len(events) > recentEventsCap {
		events = events[len(events)-recentEventsCap:]
	}

	ids := make([]string, 0, len(repos))
	for id := range repos {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summary := EventsSummary{
		Version: 1, UpdatedAt: fileutil.NowISO(now), SourceHash: sourceHash,
		CountsByType: byType, CountsByScope: byScope, CountsByRepo: byRepo,
		ImpactedRepos: ids, RecentEvents: events,
	}
	return fileutil.WriteJSON(summaryPath, summary)
}

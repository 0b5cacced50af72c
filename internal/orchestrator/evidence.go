package orchestrator

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/re-cinq/lanectl/internal/checkpoint"
	"github.com/re-cinq/lanectl/internal/eventlog"
	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/gitutil"
	"github.com/re-cinq/lanectl/internal/indexer"
	"github.com/re-cinq/lanectl/internal/registry"
	"github.com/re-cinq/lanectl/internal/staleness"
	"github.com/re-cinq/lanectl/internal/validate"
)

const refreshConsumerName = "refresh-from-events"

// assembled is every fact gathered from disk before a stage decision.
type assembled struct {
	ActiveRepos     []registry.Repo
	EvidenceState   EvidenceState
	StageInput      Input
	StaleSnapshots  []staleness.RepoSnapshot
	SystemSnapshot  staleness.SystemSnapshot
}

func assemble(layout fileutil.Layout, repos []registry.Repo, policy staleness.Policy, previousStage string, now time.Time) (assembled, error) {
	active := registry.Active(repos)

	var missingIndex, missingScan []string
	fingerprintCount := 0
	var snapshots []staleness.RepoSnapshot
	var committeeFailed, committeeMissingOrStale []string

	for _, r := range active {
		if !indexExists(layout, r.RepoID) {
			missingIndex = append(missingIndex, r.RepoID)
			continue
		}

		var idx indexer.RepoIndex
		if err := fileutil.ReadJSON(layout.RepoIndexFile(r.RepoID), &idx); err != nil {
			return assembled{}, fmt.Errorf("reading repo index for %s: %w", r.RepoID, err)
		}

		var fp indexer.RepoFingerprints
		if err := fileutil.ReadJSON(layout.RepoFingerprintsFile(r.RepoID), &fp); err == nil {
			for _, f := range fp.Files {
				switch f.Category {
				case indexer.CategorySource, indexer.CategoryAPIContract, indexer.CategorySchema, indexer.CategoryMigration:
					fingerprintCount++
				}
			}
		}

		if status, ok := loadScanStatus(layout, r.RepoID); !ok || status.HeadSHA != idx.HeadSHA {
			missingScan = append(missingScan, r.RepoID)
		}

		obs, err := repoObservation(r, idx, layout, now)
		if err != nil {
			return assembled{}, err
		}
		snap := staleness.ClassifyRepo(obs, now, policy)
		snapshots = append(snapshots, snap)

		cStatus, present, err := validate.LoadCommitteeStatus(layout.CommitteeStatusFile(r.RepoID))
		if err != nil {
			return assembled{}, fmt.Errorf("loading committee status for %s: %w", r.RepoID, err)
		}
		_, staleMarker, err := validate.LoadCommitteeStale(layout.CommitteeStaleFile(r.RepoID))
		if err != nil {
			return assembled{}, fmt.Errorf("loading committee stale marker for %s: %w", r.RepoID, err)
		}
		switch {
		case !present || staleMarker:
			committeeMissingOrStale = append(committeeMissingOrStale, r.RepoID)
		case !cStatus.EvidenceValid:
			committeeFailed = append(committeeFailed, r.RepoID)
		}
	}

	sort.Strings(missingIndex)
	sort.Strings(missingScan)

	evidenceLevel := EvidenceComplete
	if len(missingIndex) > 0 {
		evidenceLevel = EvidenceNone
	} else if len(missingScan) > 0 {
		evidenceLevel = EvidencePartial
	}

	system := staleness.ClassifySystem(snapshots)

	kickoff, kickoffPresent, err := validate.LoadKickoffStatus(layout.KickoffStatusFile())
	if err != nil {
		return assembled{}, fmt.Errorf("loading kickoff status: %w", err)
	}

	sufficiency, err := validate.LoadSufficiencyStatus(layout.SufficiencyStatusFile())
	if err != nil {
		return assembled{}, fmt.Errorf("loading sufficiency status: %w", err)
	}

	integration, integrationPresent, err := validate.LoadIntegrationStatus(layout.IntegrationStatusFile())
	if err != nil {
		return assembled{}, fmt.Errorf("loading integration status: %w", err)
	}
	_, systemStale, err := validate.LoadCommitteeStale(layout.SystemCommitteeStaleFile())
	if err != nil {
		return assembled{}, fmt.Errorf("loading system committee stale marker: %w", err)
	}
	if systemStale {
		integrationPresent = false
	}

	pending, err := pendingEventCount(layout)
	if err != nil {
		return assembled{}, err
	}

	openIDs, err := openDecisionIDs(layout)
	if err != nil {
		return assembled{}, fmt.Errorf("scanning decision packets: %w", err)
	}

	evState := EvidenceState{
		EvidenceLevel:        evidenceLevel,
		ScanCoverageComplete: len(missingScan) == 0 && len(active) > 0,
		MinimumSufficient:    evidenceLevel == EvidenceComplete && len(missingScan) == 0,
		PendingEvents:        pending,
	}

	input := Input{
		ReposMissingIndex:           missingIndex,
		ReposMissingScan:            missingScan,
		FingerprintedEvidenceCount:  fingerprintCount,
		KickoffPresent:              kickoffPresent,
		KickoffSufficient:           kickoff.Sufficient,
		PendingEvents:               pending,
		MinimumSufficient:           evState.MinimumSufficient,
		RepoCommitteeFailed:         committeeFailed,
		RepoCommitteeMissingOrStale: committeeMissingOrStale,
		AllRepoCommitteesPassed:     len(active) > 0 && len(committeeFailed) == 0 && len(committeeMissingOrStale) == 0,
		IntegrationPresent:          integrationPresent,
		IntegrationPassed:           integration.EvidenceValid,
		OpenDecisionIDs:             openIDs,
		PreviousStage:               previousStage,
		SufficiencyStatusSufficient: sufficiency.Sufficient,
	}

	for _, r := range active {
		input.ActiveRepoIDs = append(input.ActiveRepoIDs, r.RepoID)
	}
	sort.Strings(input.ActiveRepoIDs)

	return assembled{
		ActiveRepos:    active,
		EvidenceState:  evState,
		StageInput:     input,
		StaleSnapshots: snapshots,
		SystemSnapshot: system,
	}, nil
}

func repoObservation(r registry.Repo, idx indexer.RepoIndex, layout fileutil.Layout, now time.Time) (staleness.RepoObservation, error) {
	repo := gitutil.NewRepo(r.Path)
	head, err := repo.ResolveRef("HEAD")
	if err != nil {
		return staleness.RepoObservation{}, fmt.Errorf("resolving HEAD for %s: %w", r.RepoID, err)
	}
	scannedAt, _ := time.Parse("2006-01-02T15:04:05.000Z", idx.ScannedAt)
	var lastScanTime *time.Time
	if !scannedAt.IsZero() {
		lastScanTime = &scannedAt
	}
	return staleness.RepoObservation{
		RepoID:             r.RepoID,
		RepoHeadSHA:        head,
		LastScannedHeadSHA: idx.HeadSHA,
		LastScanTime:       lastScanTime,
	}, nil
}

// pendingEventCount counts validated events strictly after the
// refresh-from-events consumer's current checkpoint anchor, across every
// segment.
func pendingEventCount(layout fileutil.Layout) (int, error) {
	store := checkpoint.NewStore(layout)
	cp, err := store.Read(refreshConsumerName)
	if err != nil {
		return 0, fmt.Errorf("reading refresh checkpoint: %w", err)
	}

	segmentsDir := layout.EventsSegmentsDir()
	segments, err := eventlog.SegmentsFrom(segmentsDir, cp.LastProcessedSegment)
	if err != nil {
		return 0, fmt.Errorf("listing event segments: %w", err)
	}
	if cp.LastProcessedSegment != nil && (len(segments) == 0 || segments[0] != *cp.LastProcessedSegment) {
		return 0, &eventlog.SegmentNotFoundError{Path: filepath.Join(segmentsDir, *cp.LastProcessedSegment)}
	}

	startIndex := 0
	if cp.LastProcessedSegment != nil && cp.LastProcessedEventID != nil && len(segments) > 0 {
		idx, found, err := eventlog.FindEventIndex(segmentsDir, segments[0], *cp.LastProcessedEventID)
		if err != nil {
			return 0, fmt.Errorf("locating checkpoint anchor: %w", err)
		}
		if !found {
			return 0, fmt.Errorf("checkpoint anchor event %s not found in segment %s", *cp.LastProcessedEventID, segments[0])
		}
		startIndex = idx + 1
	}

	count := 0
	for si, segment := range segments {
		lines, err := eventlog.ReadSegmentLines(segmentsDir, segment)
		if err != nil {
			return 0, fmt.Errorf("reading segment %s: %w", segment, err)
		}
		from := 0
		if si == 0 {
			from = startIndex
		}
		for i := from; i < len(lines); i++ {
			if _, errs := eventlog.Validate([]byte(lines[i].Raw)); len(errs) > 0 {
				return 0, fmt.Errorf("invalid event at %s line %d: %s", segment, lines[i].Index, strings.Join(errs, "; "))
			}
			count++
		}
	}
	return count, nil
}

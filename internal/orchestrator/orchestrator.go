package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/re-cinq/lanectl/internal/collaborators"
	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/indexer"
	"github.com/re-cinq/lanectl/internal/lock"
	"github.com/re-cinq/lanectl/internal/qafollowup"
	"github.com/re-cinq/lanectl/internal/refresh"
	"github.com/re-cinq/lanectl/internal/registry"
	"github.com/re-cinq/lanectl/internal/staleness"
	"github.com/re-cinq/lanectl/internal/validate"
)

// Deps carries every collaborator and tunable the orchestrator's action
// execution step needs; everything that isn't pure filesystem state.
type Deps struct {
	Layout       fileutil.Layout
	KRoot        string
	Scan         collaborators.ScanFunc
	Meeting      collaborators.MeetingFunc
	Policy       staleness.Policy
	SoftStale    staleness.Config
	LockTTL      time.Duration
	KnownRepoIDs map[string]bool
	RepoConfigs  map[string]indexer.RepoConfig
	Now          func() time.Time
}

// Result is the public Orchestrate contract return value (§4.1).
type Result struct {
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Stage   string `json:"stage,omitempty"`
	NextAction NextAction `json:"next_action,omitempty"`
	EvidenceState EvidenceState `json:"evidence_state,omitempty"`
	Message string `json:"message,omitempty"`
}

// Orchestrate runs exactly one Lane A tick.
func Orchestrate(deps Deps, limit int, dryRun bool) Result {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	h, err := lock.Acquire(deps.Layout, deps.LockTTL, now)
	if err != nil {
		return Result{OK: true, Skipped: true, Reason: "lock_held", Message: err.Error()}
	}
	defer h.Release()

	result, err := tick(deps, limit, dryRun, now())
	if err != nil {
		writeStateError(deps.Layout, now(), err)
		return Result{OK: false, Message: err.Error()}
	}
	return result
}

func tick(deps Deps, limit int, dryRun bool, now time.Time) (Result, error) {
	layout := deps.Layout

	repos, err := registry.Load(layout)
	if err != nil {
		return Result{}, fmt.Errorf("loading registry: %w", err)
	}

	var previous State
	_ = fileutil.ReadJSON(layout.StateFile(), &previous)

	asm, err := assemble(layout, repos, deps.Policy, previous.Stage, now)
	if err != nil {
		return Result{}, err
	}
	asm.StageInput.Limit = limit

	stage, action := Decide(asm.StageInput)
	stage, action = ResumeStage(stage, action, previous.Stage, len(asm.StageInput.OpenDecisionIDs))

	activeSet := registry.ActiveIDSet(repos)
	if !registry.Contains(activeSet, action.TargetRepos) {
		return Result{}, fmt.Errorf("next_action.target_repos is not a subset of the active registry")
	}

	var execErr error
	if !dryRun {
		execErr = execute(deps, action, asm, now)
	}

	if !dryRun {
		qaReport, err := qafollowup.Run(qafollowup.Request{Layout: layout, DryRun: dryRun, Now: now})
		if err != nil {
			_ = qaReport // non-fatal: a follow-up error does not fail the tick
		}
	}

	if err := updateSoftStaleTracking(deps, asm, now); err != nil {
		return Result{}, err
	}

	st := State{
		Version:       1,
		Stage:         stage,
		EvidenceState: asm.EvidenceState,
		NextAction:    action,
		UpdatedAt:     fileutil.NowISO(now),
	}

	if execErr == nil {
		clearStateError(layout)
	}
	if err := writeState(layout, st); err != nil {
		return Result{}, err
	}

	meetingOpen := false
	if deps.Meeting != nil {
		mr, _ := deps.Meeting(context.Background(), collaborators.MeetingRequest{Mode: collaborators.MeetingStatus, Scope: "system", DryRun: dryRun})
		meetingOpen = mr.OK && mr.MeetingID != ""
	}
	if err := maybeWriteRefreshHint(layout, asm.SystemSnapshot, meetingOpen, now); err != nil {
		return Result{}, err
	}

	if execErr != nil {
		return Result{OK: false, Stage: stage, NextAction: action, EvidenceState: asm.EvidenceState, Message: execErr.Error()}, nil
	}
	return Result{OK: true, Stage: stage, NextAction: action, EvidenceState: asm.EvidenceState}, nil
}

func execute(deps Deps, action NextAction, asm assembled, now time.Time) error {
	layout := deps.Layout
	switch action.Type {
	case ActionIndex:
		targets := append([]string{}, action.TargetRepos...)
		sort.Strings(targets)
		byID := registry.ByID(asm.ActiveRepos)
		for _, repoID := range targets {
			r, ok := byID[repoID]
			if !ok {
				return fmt.Errorf("target repo %s not found in active registry", repoID)
			}
			cfg := deps.RepoConfigs[repoID]
			if cfg.ActiveBranch == "" {
				cfg.ActiveBranch = r.ActiveBranch
			}
			if _, err := indexer.Index(repoID, r.Path, layout.RepoOutputDir(repoID), layout.RepoIndexErrorDir(), cfg, deps.KnownRepoIDs, false); err != nil {
				return fmt.Errorf("indexing %s: %w", repoID, err)
			}
		}
		return nil

	case ActionScan:
		scan := deps.Scan
		if scan == nil {
			scan = collaborators.NoopScan
		}
		targets := append([]string{}, action.TargetRepos...)
		sort.Strings(targets)
		for _, repoID := range targets {
			var idx indexer.RepoIndex
			if err := fileutil.ReadJSON(layout.RepoIndexFile(repoID), &idx); err != nil {
				return fmt.Errorf("reading index for scan of %s: %w", repoID, err)
			}
			res, err := scan(context.Background(), collaborators.ScanRequest{RepoID: repoID, Limit: 1, Concurrency: 1})
			if err != nil {
				return fmt.Errorf("scanning %s: %w", repoID, err)
			}
			if !res.OK {
				continue
			}
			if err := writeScanStatus(layout, repoID, idx.HeadSHA, fileutil.NowISO(now)); err != nil {
				return fmt.Errorf("writing scan status for %s: %w", repoID, err)
			}
		}
		return nil

	case ActionRefresh:
		_, err := refresh.Run(context.Background(), refresh.Request{
			Layout:       layout,
			KRoot:        deps.KRoot,
			Repos:        asm.ActiveRepos,
			KnownRepoIDs: deps.KnownRepoIDs,
			RepoConfigs:  deps.RepoConfigs,
			Scan:         deps.Scan,
			StopOnError:  true,
			Now:          now,
		})
		return err

	default:
		return nil
	}
}

// updateSoftStaleTracking applies this tick's staleness snapshots to the
// tracker and runs the escalation rule (§4.5).
func updateSoftStaleTracking(deps Deps, asm assembled, now time.Time) error {
	layout := deps.Layout
	tracker, err := staleness.LoadTracker(layout.SoftStaleTrackerFile(), layout.OpsRoot)
	if err != nil {
		return err
	}

	softRepoIDs := map[string]bool{}
	for _, snap := range staleness.SoftStaleOnly(asm.StaleSnapshots) {
		softRepoIDs[snap.RepoID] = true
	}
	for _, snap := range asm.StaleSnapshots {
		tracker.Observe(snap, now)
	}
	tracker.ReconcileSystem(softRepoIDs)

	dayKey := now.UTC().Format("20060102")
	counter, err := staleness.LoadDailyCounter(layout.SoftStaleDailyCounterFile(dayKey))
	if err != nil {
		return err
	}

	for _, snap := range staleness.SoftStaleOnly(asm.StaleSnapshots) {
		entry := tracker.Repos[snap.RepoID]
		if entry == nil {
			continue
		}
		if now.Sub(entry.FirstSeenAt) < time.Duration(deps.SoftStale.EscalateAfterMinutes)*time.Minute {
			continue
		}
		if staleness.HasEscalatedToday(entry, deps.SoftStale.EscalateMode, now) {
			continue
		}
		if counter.Count >= deps.SoftStale.EscalateCapPerDay {
			continue
		}

		artifact, err := escalate(deps, snap, now)
		if err != nil {
			continue
		}
		entry.Escalations = append(entry.Escalations, staleness.Escalation{
			At:       now,
			Mode:     deps.SoftStale.EscalateMode,
			Artifact: artifact,
		})
		counter.Count++
		counter.Artifacts = append(counter.Artifacts, artifact)
	}

	if err := tracker.Save(layout.SoftStaleTrackerFile(), now); err != nil {
		return err
	}
	if err := counter.Save(layout.SoftStaleDailyCounterFile(dayKey)); err != nil {
		return err
	}
	return pruneOldDailyCounters(layout, now)
}

func escalate(deps Deps, snap staleness.RepoSnapshot, now time.Time) (string, error) {
	switch deps.SoftStale.EscalateMode {
	case staleness.ModeDecisionPacket:
		return writeSoftStaleDecisionPacket(deps.Layout, snap, now)
	default:
		if deps.Meeting == nil {
			return "", fmt.Errorf("no meeting collaborator wired")
		}
		res, err := deps.Meeting(context.Background(), collaborators.MeetingRequest{
			Mode:  collaborators.MeetingStart,
			Scope: "repo:" + snap.RepoID,
		})
		if err != nil {
			return "", err
		}
		return res.Artifact, nil
	}
}

func writeSoftStaleDecisionPacket(layout fileutil.Layout, snap staleness.RepoSnapshot, now time.Time) (string, error) {
	suffix, err := staleness.RandomDecisionSuffix()
	if err != nil {
		return "", err
	}
	id := fmt.Sprintf("DP-SOFT-STALE-%s_%s", now.UTC().Format("20060102"), suffix)
	fm := validate.DecisionPacketFrontMatter{
		Version:    1,
		DecisionID: id,
		Status:     validate.DecisionOpen,
		RepoID:     snap.RepoID,
		CreatedAt:  fileutil.NowISO(now),
	}
	body := staleness.RenderBanner(snap, now)
	content, err := validate.RenderDecisionPacket(fm, body)
	if err != nil {
		return "", err
	}
	path := filepath.Join(layout.DecisionPacketsDir(), id+".md")
	if err := fileutil.AtomicWriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

const dailyCounterRetentionDays = 30

func pruneOldDailyCounters(layout fileutil.Layout, now time.Time) error {
	entries, err := os.ReadDir(layout.StalenessDir())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	cutoff := now.UTC().AddDate(0, 0, -dailyCounterRetentionDays).Format("20060102")
	for _, e := range entries {
		name := e.Name()
		if len(name) < len("soft_stale_escalations_20060102.json") {
			continue
		}
		key := name[len("soft_stale_escalations_") : len("soft_stale_escalations_")+8]
		if key < cutoff {
			_ = os.Remove(filepath.Join(layout.StalenessDir(), name))
		}
	}
	return nil
}

package orchestrator

import "testing"

func TestDecidePriorityOrder(t *testing.T) {
	tests := []struct {
		name       string
		in         Input
		wantStage  string
		wantAction string
	}{
		{
			name:       "open decisions win over everything",
			in:         Input{OpenDecisionIDs: []string{"DP-1"}, ReposMissingIndex: []string{"repo-a"}},
			wantStage:  StageDecisionNeeded,
			wantAction: ActionQuestion,
		},
		{
			name:       "missing index before missing scan",
			in:         Input{ReposMissingIndex: []string{"repo-a"}, ReposMissingScan: []string{"repo-b"}},
			wantStage:  StageNeedsIndex,
			wantAction: ActionIndex,
		},
		{
			name:       "missing scan before kickoff gate",
			in:         Input{ReposMissingScan: []string{"repo-b"}},
			wantStage:  StageNeedsScan,
			wantAction: ActionScan,
		},
		{
			name:       "kickoff insufficient with low evidence blocks",
			in:         Input{KickoffPresent: false, FingerprintedEvidenceCount: 1},
			wantStage:  StageNeedsKickoff,
			wantAction: ActionNone,
		},
		{
			name:       "kickoff missing but evidence sufficient falls through to pending events",
			in:         Input{KickoffPresent: false, FingerprintedEvidenceCount: 5, PendingEvents: 2},
			wantStage:  StageRefreshNeeded,
			wantAction: ActionRefresh,
		},
		{
			name: "pending events before minimum sufficiency",
			in: Input{
				KickoffPresent: true, KickoffSufficient: true,
				PendingEvents: 3,
			},
			wantStage:  StageRefreshNeeded,
			wantAction: ActionRefresh,
		},
		{
			name: "minimum not sufficient blocks at committee pending",
			in: Input{
				KickoffPresent: true, KickoffSufficient: true,
				MinimumSufficient: false,
			},
			wantStage:  StageCommitteePending,
			wantAction: ActionNone,
		},
		{
			name: "repo committee failure reported",
			in: Input{
				KickoffPresent: true, KickoffSufficient: true,
				MinimumSufficient:   true,
				RepoCommitteeFailed: []string{"repo-z", "repo-a"},
			},
			wantStage:  StageCommitteeRepoFailed,
			wantAction: ActionNone,
		},
		{
			name: "repo committee missing or stale before repo-passed",
			in: Input{
				KickoffPresent: true, KickoffSufficient: true,
				MinimumSufficient:          true,
				RepoCommitteeMissingOrStale: []string{"repo-b"},
			},
			wantStage:  StageCommitteePending,
			wantAction: ActionNone,
		},
		{
			name: "all repo committees passed awaiting integration",
			in: Input{
				KickoffPresent: true, KickoffSufficient: true,
				MinimumSufficient:       true,
				AllRepoCommitteesPassed: true,
				IntegrationPresent:      false,
			},
			wantStage:  StageCommitteeRepoPassed,
			wantAction: ActionNone,
		},
		{
			name: "integration present but failed",
			in: Input{
				KickoffPresent: true, KickoffSufficient: true,
				MinimumSufficient:       true,
				AllRepoCommitteesPassed: true,
				IntegrationPresent:      true,
				IntegrationPassed:       false,
			},
			wantStage:  StageCommitteeIntegrationFailed,
			wantAction: ActionNone,
		},
		{
			name: "integration present and passed",
			in: Input{
				KickoffPresent: true, KickoffSufficient: true,
				MinimumSufficient:          true,
				AllRepoCommitteesPassed:    true,
				IntegrationPresent:         true,
				IntegrationPassed:          true,
				SufficiencyStatusSufficient: true,
			},
			wantStage:  StageCommitteePassed,
			wantAction: ActionNone,
		},
		{
			name: "ready for writer when nothing else pending",
			in: Input{
				KickoffPresent: true, KickoffSufficient: true,
				MinimumSufficient:          true,
				SufficiencyStatusSufficient: true,
				RepoCommitteeMissingOrStale: nil,
			},
			wantStage:  StageReadyForWriter,
			wantAction: ActionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, action := Decide(tt.in)
			if stage != tt.wantStage {
				t.Errorf("stage = %q, want %q", stage, tt.wantStage)
			}
			if action.Type != tt.wantAction {
				t.Errorf("action.Type = %q, want %q", action.Type, tt.wantAction)
			}
		})
	}
}

func TestDecideLimitsTargetRepos(t *testing.T) {
	in := Input{ReposMissingIndex: []string{"repo-c", "repo-a", "repo-b"}, Limit: 2}
	_, action := Decide(in)
	if len(action.TargetRepos) != 2 {
		t.Fatalf("expected 2 target repos, got %d (%v)", len(action.TargetRepos), action.TargetRepos)
	}
	if action.TargetRepos[0] != "repo-a" || action.TargetRepos[1] != "repo-b" {
		t.Errorf("expected sorted+truncated [repo-a repo-b], got %v", action.TargetRepos)
	}
}

func TestResumeStageAnnotatesDecisionAnswered(t *testing.T) {
	stage, action := ResumeStage(StageReadyForWriter, NextAction{Type: ActionNone, Reason: "no further knowledge gaps"}, StageDecisionNeeded, 0)
	if stage != StageDecisionAnswered {
		t.Fatalf("stage = %q, want %q", stage, StageDecisionAnswered)
	}
	if action.Reason != "DECISION_ANSWERED: no further knowledge gaps" {
		t.Errorf("unexpected reason: %q", action.Reason)
	}
}

func TestResumeStageLeavesOtherTransitionsAlone(t *testing.T) {
	want := NextAction{Type: ActionIndex, Reason: "repos missing an index"}
	stage, action := ResumeStage(StageNeedsIndex, want, StageNeedsScan, 1)
	if stage != StageNeedsIndex {
		t.Fatalf("stage = %q, want %q", stage, StageNeedsIndex)
	}
	if action.Reason != want.Reason {
		t.Errorf("action mutated: %q", action.Reason)
	}
}

func TestResumeStageRequiresZeroOpenDecisions(t *testing.T) {
	stage, _ := ResumeStage(StageCommitteePending, NextAction{Type: ActionNone}, StageDecisionNeeded, 1)
	if stage != StageCommitteePending {
		t.Fatalf("stage = %q, want unchanged %q when decisions remain open", stage, StageCommitteePending)
	}
}

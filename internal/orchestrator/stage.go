package orchestrator

import "sort"

// Stage names (§4.1 priority list, first match wins).
const (
	StageDecisionNeeded          = "DECISION_NEEDED"
	StageNeedsIndex              = "NEEDS_INDEX"
	StageNeedsScan               = "NEEDS_SCAN"
	StageNeedsKickoff            = "NEEDS_KICKOFF"
	StageRefreshNeeded           = "REFRESH_NEEDED"
	StageCommitteePending        = "COMMITTEE_PENDING"
	StageCommitteeRepoFailed     = "COMMITTEE_REPO_FAILED"
	StageCommitteeRepoPassed     = "COMMITTEE_REPO_PASSED"
	StageCommitteeIntegrationFailed = "COMMITTEE_INTEGRATION_FAILED"
	StageCommitteePassed         = "COMMITTEE_PASSED"
	StageReadyForWriter          = "READY_FOR_WRITER"
	StageDecisionAnswered        = "DECISION_ANSWERED"
)

// Action types the orchestrator can schedule or execute.
const (
	ActionQuestion = "question"
	ActionIndex    = "index"
	ActionScan     = "scan"
	ActionRefresh  = "refresh"
	ActionNone     = "none"
)

// Input is every fact the stage decision needs, assembled by the caller
// from the registry, event log, indexer outputs, and collaborator status
// files before a single call to Decide.
type Input struct {
	ActiveRepoIDs          []string
	ReposMissingIndex      []string
	ReposMissingScan       []string
	FingerprintedEvidenceCount int
	KickoffPresent         bool
	KickoffSufficient      bool
	PendingEvents          int
	MinimumSufficient      bool
	RepoCommitteeFailed    []string
	RepoCommitteeMissingOrStale []string
	AllRepoCommitteesPassed bool
	IntegrationPresent     bool
	IntegrationPassed      bool
	OpenDecisionIDs        []string
	PreviousStage          string
	SufficiencyStatusSufficient bool

	Limit int
}

// Decide computes (stage, action) per the §4.1 priority list.
func Decide(in Input) (string, NextAction) {
	if len(in.OpenDecisionIDs) > 0 {
		return StageDecisionNeeded, NextAction{Type: ActionQuestion, Reason: "open decision packets pending"}
	}

	if len(in.ReposMissingIndex) > 0 {
		targets := limitRepos(in.ReposMissingIndex, in.Limit)
		return StageNeedsIndex, NextAction{Type: ActionIndex, TargetRepos: targets, Reason: "repos missing an index"}
	}

	if len(in.ReposMissingScan) > 0 {
		targets := limitRepos(in.ReposMissingScan, in.Limit)
		return StageNeedsScan, NextAction{Type: ActionScan, TargetRepos: targets, Reason: "repos missing a scan"}
	}

	if (!in.KickoffPresent || !in.KickoffSufficient) && in.FingerprintedEvidenceCount < 3 {
		return StageNeedsKickoff, NextAction{Type: ActionNone, Reason: "kickoff missing or insufficient and code evidence is low"}
	}

	if in.PendingEvents > 0 {
		return StageRefreshNeeded, NextAction{Type: ActionRefresh, Reason: "unconsumed knowledge events"}
	}

	if !in.MinimumSufficient {
		return StageCommitteePending, NextAction{Type: ActionNone, Reason: "minimum knowledge requirements not satisfied"}
	}

	if len(in.RepoCommitteeFailed) > 0 {
		return StageCommitteeRepoFailed, NextAction{Type: ActionNone, TargetRepos: sortedCopy(in.RepoCommitteeFailed), Reason: "repo committee evidence invalid"}
	}

	if len(in.RepoCommitteeMissingOrStale) > 0 {
		return StageCommitteePending, NextAction{Type: ActionNone, TargetRepos: sortedCopy(in.RepoCommitteeMissingOrStale), Reason: "repo committee missing or stale"}
	}

	if in.AllRepoCommitteesPassed && !in.IntegrationPresent {
		return StageCommitteeRepoPassed, NextAction{Type: ActionNone, Reason: "all repo committees passed, awaiting integration review"}
	}

	if in.IntegrationPresent && !in.IntegrationPassed {
		return StageCommitteeIntegrationFailed, NextAction{Type: ActionNone, Reason: "integration committee evidence invalid"}
	}

	if in.IntegrationPresent && in.IntegrationPassed {
		reason := "integration committee passed"
		if !in.SufficiencyStatusSufficient {
			reason += "; " + sufficiencyHint
		}
		return StageCommitteePassed, NextAction{Type: ActionNone, Reason: reason}
	}

	reason := "no further knowledge gaps"
	if !in.SufficiencyStatusSufficient {
		reason += "; " + sufficiencyHint
	}
	return StageReadyForWriter, NextAction{Type: ActionNone, Reason: reason}
}

const sufficiencyHint = "SUFFICIENCY_RECOMMENDED: knowledge sufficiency gate has not reported sufficient"

// ResumeStage applies the one-shot DECISION_ANSWERED resume surfacing
// (§4.1): when the previous persisted stage was DECISION_NEEDED and no
// decisions are open anymore, the newly computed stage/action is annotated
// rather than replaced.
func ResumeStage(stage string, action NextAction, previousStage string, openDecisionCount int) (string, NextAction) {
	if previousStage == StageDecisionNeeded && openDecisionCount == 0 {
		action.Reason = "DECISION_ANSWERED: " + action.Reason
		return StageDecisionAnswered, action
	}
	return stage, action
}

func limitRepos(repos []string, limit int) []string {
	out := sortedCopy(repos)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortedCopy(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

package staleness

import (
	"testing"
	"time"
)

func newTestTracker() *Tracker {
	return &Tracker{Version: 1, ProjectRoot: "/tmp/proj", Repos: map[string]*TrackerEntry{}}
}

func TestTrackerObserveUpsertsSoftStale(t *testing.T) {
	tr := newTestTracker()
	now := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)

	tr.Observe(RepoSnapshot{RepoID: "repo-a", Stale: true, HardStale: false, Reasons: []string{ReasonScanOlderThanWindow}}, now)

	entry, ok := tr.Repos["repo-a"]
	if !ok {
		t.Fatal("expected repo-a to be tracked")
	}
	if !entry.FirstSeenAt.Equal(now) || !entry.LastSeenAt.Equal(now) {
		t.Errorf("expected timestamps set to %v, got first=%v last=%v", now, entry.FirstSeenAt, entry.LastSeenAt)
	}

	later := now.Add(1 * time.Hour)
	tr.Observe(RepoSnapshot{RepoID: "repo-a", Stale: true, HardStale: false, Reasons: []string{ReasonUnconsumedMergeEvents}}, later)
	if !tr.Repos["repo-a"].FirstSeenAt.Equal(now) {
		t.Error("FirstSeenAt must not change on subsequent observations")
	}
	if !tr.Repos["repo-a"].LastSeenAt.Equal(later) {
		t.Error("LastSeenAt must advance on subsequent observations")
	}
}

func TestTrackerObserveRemovesOnHardStale(t *testing.T) {
	tr := newTestTracker()
	now := time.Now()
	tr.Repos["repo-a"] = &TrackerEntry{FirstSeenAt: now}

	tr.Observe(RepoSnapshot{RepoID: "repo-a", Stale: true, HardStale: true}, now)
	if _, ok := tr.Repos["repo-a"]; ok {
		t.Error("expected repo-a entry removed once hard-stale")
	}
}

func TestTrackerObserveRemovesWhenNoLongerStale(t *testing.T) {
	tr := newTestTracker()
	now := time.Now()
	tr.Repos["repo-a"] = &TrackerEntry{FirstSeenAt: now}

	tr.Observe(RepoSnapshot{RepoID: "repo-a", Stale: false}, now)
	if _, ok := tr.Repos["repo-a"]; ok {
		t.Error("expected repo-a entry removed once no longer stale")
	}
}

func TestReconcileSystemDropsUntrackedRepos(t *testing.T) {
	tr := newTestTracker()
	tr.Repos["repo-a"] = &TrackerEntry{}
	tr.Repos["repo-b"] = &TrackerEntry{}

	tr.ReconcileSystem(map[string]bool{"repo-a": true})

	if _, ok := tr.Repos["repo-a"]; !ok {
		t.Error("repo-a should remain tracked")
	}
	if _, ok := tr.Repos["repo-b"]; ok {
		t.Error("repo-b should have been reconciled away")
	}
}

func TestHasEscalatedToday(t *testing.T) {
	now := time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC)
	entry := &TrackerEntry{
		Escalations: []Escalation{
			{At: now.Add(-2 * time.Hour), Mode: ModeUpdateMeeting},
		},
	}

	if !HasEscalatedToday(entry, ModeUpdateMeeting, now) {
		t.Error("expected same-day same-mode escalation to be detected")
	}
	if HasEscalatedToday(entry, ModeDecisionPacket, now) {
		t.Error("different mode must not count as escalated")
	}
	if HasEscalatedToday(entry, ModeUpdateMeeting, now.Add(24*time.Hour)) {
		t.Error("escalation from a prior UTC day must not count as today")
	}
	if HasEscalatedToday(nil, ModeUpdateMeeting, now) {
		t.Error("nil entry must never report escalated")
	}
}

func TestSortedUniqueStrings(t *testing.T) {
	got := sortedUniqueStrings([]string{"b", "a", "b", "c", "a"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

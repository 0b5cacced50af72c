package staleness

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/re-cinq/lanectl/internal/fileutil"
)

// EscalateMode selects how a soft-stale repo is escalated (§4.5).
type EscalateMode string

const (
	ModeUpdateMeeting  EscalateMode = "update_meeting"
	ModeDecisionPacket EscalateMode = "decision_packet"
)

// Config is the closed option set from §4.5's configuration table.
type Config struct {
	BannerEnabled        bool
	EscalateAfterMinutes int
	EscalateMode         EscalateMode
	EscalateCapPerDay    int
}

// DefaultConfig matches the §4.5 defaults table.
func DefaultConfig() Config {
	return Config{
		BannerEnabled:        true,
		EscalateAfterMinutes: 180,
		EscalateMode:         ModeUpdateMeeting,
		EscalateCapPerDay:    3,
	}
}

// Escalation records one escalation event for a repo.
type Escalation struct {
	At       time.Time `json:"at"`
	Mode     EscalateMode `json:"mode"`
	Artifact string    `json:"artifact"`
}

// TrackerEntry is one repo's soft-stale history.
type TrackerEntry struct {
	FirstSeenAt       time.Time    `json:"first_seen_at"`
	LastSeenAt        time.Time    `json:"last_seen_at"`
	CurrentReasonCodes []string    `json:"current_reason_codes"`
	Escalations       []Escalation `json:"escalations"`
}

// Tracker is the soft-stale tracker artifact (§3.1).
type Tracker struct {
	Version     int                     `json:"version"`
	ProjectRoot string                  `json:"projectRoot"`
	UpdatedAt   time.Time               `json:"updated_at"`
	Repos       map[string]*TrackerEntry `json:"repos"`
}

// LoadTracker reads the tracker file, defaulting to an empty tracker.
func LoadTracker(path, projectRoot string) (*Tracker, error) {
	var t Tracker
	err := fileutil.ReadJSON(path, &t)
	if os.IsNotExist(err) {
		return &Tracker{Version: 1, ProjectRoot: projectRoot, Repos: map[string]*TrackerEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading soft-stale tracker: %w", err)
	}
	if t.Repos == nil {
		t.Repos = map[string]*TrackerEntry{}
	}
	return &t, nil
}

// Save writes the tracker atomically.
func (t *Tracker) Save(path string, now time.Time) error {
	t.UpdatedAt = now
	return fileutil.WriteJSON(path, t)
}

// Observe applies one repo's current soft-stale status to the tracker
// (§4.5): upsert-and-refresh if soft-stale, remove if not (including the
// hard-stale-removes-the-entry rule).
func (t *Tracker) Observe(snapshot RepoSnapshot, now time.Time) {
	soft := snapshot.Stale && !snapshot.HardStale
	entry, exists := t.Repos[snapshot.RepoID]

	if !soft {
		if exists {
			delete(t.Repos, snapshot.RepoID)
		}
		return
	}

	if !exists {
		entry = &TrackerEntry{FirstSeenAt: now}
		t.Repos[snapshot.RepoID] = entry
	}
	entry.LastSeenAt = now
	entry.CurrentReasonCodes = append([]string{}, snapshot.Reasons...)
	sort.Strings(entry.CurrentReasonCodes)
}

// ReconcileSystem removes every tracked repo absent from the current
// soft-stale set in one pass (§4.5's scope=system rule).
func (t *Tracker) ReconcileSystem(softStaleRepoIDs map[string]bool) {
	for repoID := range t.Repos {
		if !softStaleRepoIDs[repoID] {
			delete(t.Repos, repoID)
		}
	}
}

// DailyCounter is the per-UTC-day escalation cap tracker (§3.1).
type DailyCounter struct {
	Version   int      `json:"version"`
	Count     int      `json:"count"`
	Artifacts []string `json:"artifacts"`
}

func dayKey(t time.Time) string {
	return t.UTC().Format("20060102")
}

// LoadDailyCounter reads today's counter, defaulting to zero.
func LoadDailyCounter(path string) (*DailyCounter, error) {
	var c DailyCounter
	err := fileutil.ReadJSON(path, &c)
	if os.IsNotExist(err) {
		return &DailyCounter{Version: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading daily escalation counter: %w", err)
	}
	return &c, nil
}

// Save persists the counter atomically, keeping Artifacts sorted unique.
func (c *DailyCounter) Save(path string) error {
	c.Artifacts = sortedUniqueStrings(c.Artifacts)
	return fileutil.WriteJSON(path, c)
}

func sortedUniqueStrings(in []string) []string {
	set := map[string]bool{}
	for _, v := range in {
		set[v] = true
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// HasEscalatedToday reports whether repoID already has an escalation of
// mode recorded on the UTC day of `now` (§4.5: "no repo is escalated more
// than once per day per mode").
func HasEscalatedToday(entry *TrackerEntry, mode EscalateMode, now time.Time) bool {
	if entry == nil {
		return false
	}
	today := dayKey(now)
	for _, e := range entry.Escalations {
		if e.Mode == mode && dayKey(e.At) == today {
			return true
		}
	}
	return false
}

// RandomDecisionSuffix returns the 8-hex-char random suffix used in
// decision packet filenames (§9: random component only where explicitly
// required — the decision-packet suffix and the lock owner token).
func RandomDecisionSuffix() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating random suffix: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Package registry reads the repository registry entries (§3.1). Onboarding
// and registry bootstrap are out of scope (spec.md §1); this package only
// loads the already-bootstrapped registry.json that every Lane A component
// depends on.
package registry

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/re-cinq/lanectl/internal/fileutil"
)

// Status values a registry entry may hold.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusRemoved  = "removed"
)

var repoIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Repo is one registry entry.
type Repo struct {
	RepoID       string `json:"repo_id"`
	Path         string `json:"path"`
	ActiveBranch string `json:"active_branch,omitempty"`
	Status       string `json:"status"`
}

type registryFile struct {
	Version int    `json:"version"`
	Repos   []Repo `json:"repos"`
}

// Load reads registry.json under the given layout. A missing file is not
// an error; it yields an empty registry (nothing onboarded yet).
func Load(layout fileutil.Layout) ([]Repo, error) {
	var rf registryFile
	err := fileutil.ReadJSON(layout.RegistryFile(), &rf)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	for _, r := range rf.Repos {
		if err := validate(r); err != nil {
			return nil, fmt.Errorf("invalid registry entry %q: %w", r.RepoID, err)
		}
	}
	return rf.Repos, nil
}

func validate(r Repo) error {
	if !repoIDPattern.MatchString(r.RepoID) {
		return fmt.Errorf("repo_id %q is not lower-kebab", r.RepoID)
	}
	if r.Path == "" {
		return fmt.Errorf("path is required")
	}
	switch r.Status {
	case StatusActive, StatusInactive, StatusRemoved:
	default:
		return fmt.Errorf("unknown status %q", r.Status)
	}
	return nil
}

// Active filters to repos with status == active, sorted by repo_id.
func Active(repos []Repo) []Repo {
	var out []Repo
	for _, r := range repos {
		if r.Status == StatusActive {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RepoID < out[j].RepoID })
	return out
}

// ByID indexes repos by repo_id for O(1) lookup.
func ByID(repos []Repo) map[string]Repo {
	m := make(map[string]Repo, len(repos))
	for _, r := range repos {
		m[r.RepoID] = r
	}
	return m
}

// Contains reports whether target is a subset of the active registry
// (orchestrator invariant, §8: next_action.target_repos ⊆ active_registry).
func Contains(activeIDs map[string]bool, targets []string) bool {
	for _, t := range targets {
		if !activeIDs[t] {
			return false
		}
	}
	return true
}

// ActiveIDSet returns the set of active repo_ids.
func ActiveIDSet(repos []Repo) map[string]bool {
	set := make(map[string]bool, len(repos))
	for _, r := range Active(repos) {
		set[r.RepoID] = true
	}
	return set
}

// AllIDSet returns every registered repo_id regardless of status — the
// indexer's cross-repo dependency detection (§4.4 step 5) needs to
// recognize a dependency on a repo that is registered but not active.
func AllIDSet(repos []Repo) map[string]bool {
	set := make(map[string]bool, len(repos))
	for _, r := range repos {
		set[r.RepoID] = true
	}
	return set
}

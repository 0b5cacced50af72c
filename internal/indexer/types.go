// Package indexer produces the deterministic per-repo fingerprint and
// index described in §4.4, by reading the git object store at a specific
// ref without ever touching the working tree (§3.2).
package indexer

// CurrentSchemaVersion is compared by semver major version against a cached
// repo_index.json's schema_version (IsSchemaCompatible, SPEC_FULL §3 domain
// stack) before a cached index is trusted by callers outside this package (the refresh consumer, for instance,
// re-indexes unconditionally per the conservative Open Question resolution
// in spec.md §9, but other tooling may want the compatibility check).
const CurrentSchemaVersion = "1.0.0"

// RepoIndex is the per-repo evidence snapshot (§3.1).
type RepoIndex struct {
	RepoID                string                    `json:"repo_id"`
	HeadSHA               string                    `json:"head_sha"`
	ScannedAt             string                    `json:"scanned_at"`
	SchemaVersion         string                    `json:"schema_version"`
	Languages             []string                  `json:"languages"`
	Entrypoints           []string                  `json:"entrypoints"`
	BuildCommands         BuildCommands             `json:"build_commands"`
	APISurface            APISurface                `json:"api_surface"`
	MigrationsSchema      []string                  `json:"migrations_schema"`
	CrossRepoDependencies []CrossRepoDependency     `json:"cross_repo_dependencies"`
	Hotspots              []string                  `json:"hotspots"`
	Fingerprints          map[string]FingerprintRef `json:"fingerprints"`
}

// FingerprintRef is the per-path hash recorded in RepoIndex.Fingerprints.
type FingerprintRef struct {
	SHA256 string `json:"sha256"`
}

// BuildCommands records detected install/lint/test/build commands plus the
// evidence files the detection was derived from (§4.4 step 5).
type BuildCommands struct {
	Install       string   `json:"install,omitempty"`
	Lint          string   `json:"lint,omitempty"`
	Test          string   `json:"test,omitempty"`
	Build         string   `json:"build,omitempty"`
	EvidenceFiles []string `json:"evidence_files,omitempty"`
}

// APISurface records detected API contract, route, and event-topic evidence.
type APISurface struct {
	OpenAPIFiles []string `json:"openapi_files,omitempty"`
	RouteFiles   []string `json:"route_files,omitempty"`
	EventTopics  []string `json:"event_topics,omitempty"`
}

// CrossRepoDependency is a canonical `type::target` cross-repo reference
// with deduplicated, sorted evidence refs (§4.4 determinism).
type CrossRepoDependency struct {
	Type   string   `json:"type"`
	Target string   `json:"target"`
	Refs   []string `json:"refs"`
}

// RepoFingerprints is the standalone fingerprints artifact (§3.1),
// sorted by category::path.
type RepoFingerprints struct {
	RepoID     string            `json:"repo_id"`
	CapturedAt string            `json:"captured_at"`
	Files      []FingerprintFile `json:"files"`
}

// FingerprintFile is one fingerprinted file.
type FingerprintFile struct {
	Path     string `json:"path"`
	SHA256   string `json:"sha256"`
	Category string `json:"category"`
}

// Fingerprint categories (closed vocabulary, referenced by spec.md §4.1
// step 4's "{source, api_contract, schema, migration}" evidence count).
const (
	CategorySource      = "source"
	CategoryAPIContract = "api_contract"
	CategorySchema      = "schema"
	CategoryMigration   = "migration"
	CategoryBuildConfig = "build_config"
)

// RepoConfig carries per-repo overrides for indexing (§4.4 step 1).
type RepoConfig struct {
	ActiveBranch    string   `json:"active_branch,omitempty"`
	IgnorePatterns  []string `json:"ignore_patterns,omitempty"`
	InternalScopes  []string `json:"internal_scopes,omitempty"` // package-name prefixes treated as internal repos
}

// Result is the contract's return value (§4.4).
type Result struct {
	OK               bool
	RepoIndex        *RepoIndex
	RepoFingerprints *RepoFingerprints
	Paths            []string
	ErrorFile        string
}

// ErrorReport is written under error_dir on failure (§7).
type ErrorReport struct {
	OK         bool   `json:"ok"`
	RepoID     string `json:"repo_id"`
	Message    string `json:"message"`
	CapturedAt string `json:"captured_at"`
}

package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/re-cinq/lanectl/internal/gitutil"
)

// categorize assigns a closed-vocabulary category to a fingerprint
// candidate path (§4.4 step 6).
func categorize(path string, surface APISurface) string {
	switch {
	case path == "package.json" || path == "go.mod":
		return CategoryBuildConfig
	case strings.Contains(path, "migrations/") || strings.Contains(path, "db/migrate/") || strings.HasSuffix(path, ".sql"):
		return CategoryMigration
	case strings.Contains(path, "schema/"):
		return CategorySchema
	case contains(surface.OpenAPIFiles, path) || contains(surface.RouteFiles, path):
		return CategoryAPIContract
	default:
		return CategorySource
	}
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}

// selectFingerprintCandidates picks the curated set of files whose content
// should invalidate committee conclusions: entrypoints, API surface files,
// migration/schema files, and build manifests (§4.4 step 6).
func selectFingerprintCandidates(paths []string, entrypoints []string, surface APISurface, migrations []string, hasPackageJSON bool) []string {
	set := map[string]bool{}
	for _, p := range entrypoints {
		set[p] = true
	}
	for _, p := range surface.OpenAPIFiles {
		set[p] = true
	}
	for _, p := range surface.RouteFiles {
		set[p] = true
	}
	for _, p := range migrations {
		set[p] = true
	}
	if hasPackageJSON && hasPath(paths, "package.json") {
		set["package.json"] = true
	}
	if hasPath(paths, "go.mod") {
		set["go.mod"] = true
	}
	return sortedKeys(set)
}

// fingerprintFiles reads each candidate at ref and computes its SHA-256,
// returning both the index-embedded map and the standalone fingerprints
// list, sorted by `category::path` (§4.4 determinism, §3.1 invariant).
func fingerprintFiles(repo *gitutil.Repo, ref string, candidates []string, surface APISurface) (map[string]FingerprintRef, []FingerprintFile, error) {
	fpMap := make(map[string]FingerprintRef, len(candidates))
	files := make([]FingerprintFile, 0, len(candidates))

	for _, path := range candidates {
		data, err := repo.ReadFileAtRef(ref, path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s at %s: %w", path, ref, err)
		}
		sum := sha256.Sum256(data)
		hash := hex.EncodeToString(sum[:])
		category := categorize(path, surface)

		fpMap[path] = FingerprintRef{SHA256: hash}
		files = append(files, FingerprintFile{Path: path, SHA256: hash, Category: category})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Category+"::"+files[i].Path < files[j].Category+"::"+files[j].Path
	})
	return fpMap, files, nil
}

package indexer

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/gitutil"
)

// Index implements the repo indexer contract (§4.4): deterministic,
// read-only, never mutating repoPath.
func Index(repoID, repoPath, outputDir, errorDir string, cfg RepoConfig, knownRepoIDs map[string]bool, dryRun bool) (Result, error) {
	result, err := index(repoID, repoPath, cfg, knownRepoIDs)
	if err != nil {
		if errorDir != "" {
			errFile := writeErrorReport(errorDir, repoID, err)
			return Result{OK: false, ErrorFile: errFile}, err
		}
		return Result{OK: false}, err
	}

	if dryRun {
		return Result{OK: true, RepoIndex: result.index, RepoFingerprints: result.fingerprints, Paths: result.paths}, nil
	}

	indexPath := filepath.Join(outputDir, "repo_index.json")
	fpPath := filepath.Join(outputDir, "repo_fingerprints.json")

	if err := fileutil.WriteJSON(indexPath, result.index); err != nil {
		removePartial(indexPath, fpPath)
		werr := fmt.Errorf("writing repo index: %w", err)
		if errorDir != "" {
			writeErrorReport(errorDir, repoID, werr)
		}
		return Result{OK: false}, werr
	}
	if err := fileutil.WriteJSON(fpPath, result.fingerprints); err != nil {
		removePartial(indexPath, fpPath)
		werr := fmt.Errorf("writing repo fingerprints: %w", err)
		if errorDir != "" {
			writeErrorReport(errorDir, repoID, werr)
		}
		return Result{OK: false}, werr
	}

	return Result{OK: true, RepoIndex: result.index, RepoFingerprints: result.fingerprints, Paths: result.paths}, nil
}

type buildResult struct {
	index       *RepoIndex
	fingerprints *RepoFingerprints
	paths       []string
}

func index(repoID, repoPath string, cfg RepoConfig, knownRepoIDs map[string]bool) (buildResult, error) {
	repo := gitutil.NewRepo(repoPath)
	if !repo.IsWorkTree() {
		return buildResult{}, fmt.Errorf("%s is not a git working tree", repoPath)
	}

	ref := "HEAD"
	if cfg.ActiveBranch != "" {
		resolved, err := repo.ResolveRef(cfg.ActiveBranch)
		if err != nil {
			return buildResult{}, fmt.Errorf("resolving active branch %s: %w", cfg.ActiveBranch, err)
		}
		_ = resolved
		ref = cfg.ActiveBranch
	}

	headSHA, err := repo.ResolveRef(ref)
	if err != nil {
		return buildResult{}, fmt.Errorf("resolving head of %s: %w", ref, err)
	}
	scannedAt, err := repo.CommitterTimeISO(ref)
	if err != nil {
		return buildResult{}, fmt.Errorf("reading committer time of %s: %w", ref, err)
	}

	rawPaths, err := repo.LsTreePaths(ref)
	if err != nil {
		return buildResult{}, fmt.Errorf("listing tracked paths at %s: %w", ref, err)
	}
	paths := filterIgnored(rawPaths, cfg.IgnorePatterns)

	var pkg *packageJSON
	if hasPath(paths, "package.json") {
		data, err := repo.ReadFileAtRef(ref, "package.json")
		if err != nil {
			return buildResult{}, fmt.Errorf("reading package.json: %w", err)
		}
		pkg, err = parsePackageJSON(data)
		if err != nil {
			return buildResult{}, fmt.Errorf("parsing package.json: %w", err)
		}
	}

	buildFiles := map[string]string{}
	for _, p := range paths {
		base := filepath.Base(p)
		if base == "pom.xml" || base == "build.gradle" || base == "build.gradle.kts" {
			data, err := repo.ReadFileAtRef(ref, p)
			if err == nil {
				buildFiles[p] = string(data)
			}
		}
	}

	languages := detectLanguages(paths)
	entrypoints := detectEntrypoints(paths)
	buildCommands := detectBuildCommands(paths, pkg)
	apiSurface := detectAPISurface(paths)
	migrations := detectMigrationsSchema(paths)
	hotspots := detectHotspots(entrypoints, apiSurface)
	crossRepoDeps := detectCrossRepoDependencies(pkg, buildFiles, cfg.InternalScopes, knownRepoIDs)

	candidates := selectFingerprintCandidates(paths, entrypoints, apiSurface, migrations, pkg != nil)
	if len(candidates) == 0 {
		return buildResult{}, fmt.Errorf("no fingerprintable files found for repo %s", repoID)
	}

	fpMap, fpFiles, err := fingerprintFiles(repo, ref, candidates, apiSurface)
	if err != nil {
		return buildResult{}, err
	}

	repoIndex := &RepoIndex{
		RepoID:                repoID,
		HeadSHA:               headSHA,
		ScannedAt:             scannedAt,
		SchemaVersion:         CurrentSchemaVersion,
		Languages:             languages,
		Entrypoints:           entrypoints,
		BuildCommands:         buildCommands,
		APISurface:            apiSurface,
		MigrationsSchema:      migrations,
		CrossRepoDependencies: crossRepoDeps,
		Hotspots:              hotspots,
		Fingerprints:          fpMap,
	}

	// captured_at mirrors scanned_at (the ref's committer time) rather than
	// wall-clock time: both artifacts describe the same indexing pass over
	// the same immutable ref, and the §8 round-trip property requires two
	// runs at the same ref to produce byte-identical output.
	fingerprints := &RepoFingerprints{
		RepoID:     repoID,
		CapturedAt: scannedAt,
		Files:      fpFiles,
	}

	if err := checkConsistency(repoIndex, fingerprints); err != nil {
		return buildResult{}, err
	}

	return buildResult{index: repoIndex, fingerprints: fingerprints, paths: paths}, nil
}

// checkConsistency enforces the §3.1 invariant: the set of fingerprints
// keys equals the set of repo_fingerprints.files[].path, and each sha
// matches.
func checkConsistency(idx *RepoIndex, fp *RepoFingerprints) error {
	if len(idx.Fingerprints) != len(fp.Files) {
		return fmt.Errorf("fingerprint count mismatch: index has %d, fingerprints file has %d", len(idx.Fingerprints), len(fp.Files))
	}
	for _, f := range fp.Files {
		ref, ok := idx.Fingerprints[f.Path]
		if !ok {
			return fmt.Errorf("fingerprints file references %s not present in index", f.Path)
		}
		if ref.SHA256 != f.SHA256 {
			return fmt.Errorf("sha256 mismatch for %s", f.Path)
		}
	}
	return nil
}

func writeErrorReport(errorDir, repoID string, cause error) string {
	path := filepath.Join(errorDir, repoID+".error.json")
	report := ErrorReport{
		OK:         false,
		RepoID:     repoID,
		Message:    cause.Error(),
		CapturedAt: fileutil.NowISO(time.Now()),
	}
	if err := fileutil.WriteJSON(path, report); err != nil {
		return ""
	}
	return path
}

func removePartial(paths ...string) {
	for _, p := range paths {
		_ = removeIfExists(p)
	}
}

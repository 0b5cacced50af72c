package indexer

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
)

// packageJSON is the slice of package.json this package cares about.
type packageJSON struct {
	Name            string            `json:"name"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func parsePackageJSON(data []byte) (*packageJSON, error) {
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// detectLanguages maps file extensions to language names, deterministically
// sorted.
func detectLanguages(paths []string) []string {
	exts := map[string]string{
		".go":   "go",
		".ts":   "typescript",
		".tsx":  "typescript",
		".js":   "javascript",
		".jsx":  "javascript",
		".py":   "python",
		".rb":   "ruby",
		".java": "java",
		".rs":   "rust",
		".sql":  "sql",
	}
	seen := map[string]bool{}
	for _, p := range paths {
		if lang, ok := exts[strings.ToLower(filepath.Ext(p))]; ok {
			seen[lang] = true
		}
	}
	return sortedKeys(seen)
}

// entrypointPatterns identify conventional process entrypoints across the
// languages this system expects to index.
var entrypointPatterns = []string{
	"main.go", "cmd/", "index.js", "index.ts", "main.py", "app.py", "Main.java",
}

func detectEntrypoints(paths []string) []string {
	var out []string
	for _, p := range paths {
		base := filepath.Base(p)
		for _, pat := range entrypointPatterns {
			if strings.HasSuffix(pat, "/") {
				if strings.HasPrefix(p, pat) && base == "main.go" {
					out = append(out, p)
				}
				continue
			}
			if base == pat {
				out = append(out, p)
			}
		}
	}
	return sortedUnique(out)
}

// detectBuildCommands derives install/lint/test/build commands from
// package.json scripts when present, falling back to Go-toolchain
// conventions when a go.mod is in the tree.
func detectBuildCommands(paths []string, pkg *packageJSON) BuildCommands {
	var bc BuildCommands
	var evidence []string

	if pkg != nil {
		if cmd, ok := pkg.Scripts["preinstall"]; ok && cmd != "" {
			_ = cmd // preinstall isn't surfaced directly, npm install covers it
		}
		bc.Install = "npm install"
		if cmd, ok := pkg.Scripts["lint"]; ok {
			bc.Lint = "npm run lint"
			_ = cmd
		}
		if cmd, ok := pkg.Scripts["test"]; ok {
			bc.Test = "npm test"
			_ = cmd
		}
		if cmd, ok := pkg.Scripts["build"]; ok {
			bc.Build = "npm run build"
			_ = cmd
		}
		evidence = append(evidence, "package.json")
	}

	if hasPath(paths, "go.mod") {
		if bc.Install == "" {
			bc.Install = "go mod download"
		}
		if bc.Test == "" {
			bc.Test = "go test ./..."
		}
		if bc.Build == "" {
			bc.Build = "go build ./..."
		}
		evidence = append(evidence, "go.mod")
	}

	sort.Strings(evidence)
	bc.EvidenceFiles = evidence
	return bc
}

// apiSurfaceDirPrefixes and file suffixes locate OpenAPI specs, HTTP route
// handlers, and event topic definitions.
var (
	openAPINames     = []string{"openapi.yaml", "openapi.yml", "openapi.json", "swagger.json", "swagger.yaml"}
	routeDirMarkers  = []string{"routes/", "controllers/", "handlers/"}
	topicDirMarkers  = []string{"events/", "topics/"}
)

func detectAPISurface(paths []string) APISurface {
	var surface APISurface
	for _, p := range paths {
		base := filepath.Base(p)
		for _, n := range openAPINames {
			if base == n {
				surface.OpenAPIFiles = append(surface.OpenAPIFiles, p)
			}
		}
		for _, marker := range routeDirMarkers {
			if strings.Contains(p, marker) {
				surface.RouteFiles = append(surface.RouteFiles, p)
			}
		}
		for _, marker := range topicDirMarkers {
			if strings.Contains(p, marker) {
				surface.EventTopics = append(surface.EventTopics, p)
			}
		}
	}
	sort.Strings(surface.OpenAPIFiles)
	sort.Strings(surface.RouteFiles)
	sort.Strings(surface.EventTopics)
	return surface
}

var migrationMarkers = []string{"migrations/", "schema/", "db/migrate/"}

func detectMigrationsSchema(paths []string) []string {
	var out []string
	for _, p := range paths {
		for _, marker := range migrationMarkers {
			if strings.Contains(p, marker) {
				out = append(out, p)
				break
			}
		}
		if strings.HasSuffix(p, ".sql") {
			out = append(out, p)
		}
	}
	return sortedUnique(out)
}

// detectHotspots is the union of entrypoints and API routes — the files
// most likely to need review attention after a change (§4.4 step 5).
func detectHotspots(entrypoints []string, surface APISurface) []string {
	set := map[string]bool{}
	for _, e := range entrypoints {
		set[e] = true
	}
	for _, r := range surface.RouteFiles {
		set[r] = true
	}
	return sortedKeys(set)
}

func hasPath(paths []string, target string) bool {
	for _, p := range paths {
		if p == target {
			return true
		}
	}
	return false
}

func sortedUnique(in []string) []string {
	set := map[string]bool{}
	for _, v := range in {
		set[v] = true
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package indexer

import (
	"regexp"
	"sort"
	"strings"
)

// mavenURLPattern extracts repository URLs declared in pom.xml/build.gradle
// files — the only cross-repo evidence those build systems expose without
// a package registry lookup.
var mavenURLPattern = regexp.MustCompile(`https?://[^\s"'<]+`)

// detectCrossRepoDependencies finds internal package.json dependencies
// (matched against configured internal scopes or the known repo ids) and
// any repository URLs embedded in Maven/Gradle build files, producing a
// deduplicated, sorted-by-`type::target` list (§4.4 step 5, determinism).
func detectCrossRepoDependencies(pkg *packageJSON, buildFiles map[string]string, internalScopes []string, knownRepoIDs map[string]bool) []CrossRepoDependency {
	byKey := map[string]*CrossRepoDependency{}

	addRef := func(depType, target, ref string) {
		key := depType + "::" + target
		d, ok := byKey[key]
		if !ok {
			d = &CrossRepoDependency{Type: depType, Target: target}
			byKey[key] = d
		}
		for _, existing := range d.Refs {
			if existing == ref {
				return
			}
		}
		d.Refs = append(d.Refs, ref)
	}

	if pkg != nil {
		allDeps := map[string]string{}
		for k, v := range pkg.Dependencies {
			allDeps[k] = v
		}
		for k, v := range pkg.DevDependencies {
			allDeps[k] = v
		}
		for name := range allDeps {
			if isInternalPackage(name, internalScopes, knownRepoIDs) {
				addRef("package", name, "package.json")
			}
		}
	}

	for path, content := range buildFiles {
		for _, url := range mavenURLPattern.FindAllString(content, -1) {
			addRef("build-url", url, path)
		}
	}

	out := make([]CrossRepoDependency, 0, len(byKey))
	for _, d := range byKey {
		sort.Strings(d.Refs)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Type+"::"+out[i].Target < out[j].Type+"::"+out[j].Target
	})
	return out
}

func isInternalPackage(name string, internalScopes []string, knownRepoIDs map[string]bool) bool {
	for _, scope := range internalScopes {
		if strings.HasPrefix(name, scope) {
			return true
		}
	}
	trimmed := strings.TrimPrefix(name, "@")
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return knownRepoIDs[trimmed]
}

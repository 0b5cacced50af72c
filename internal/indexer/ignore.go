package indexer

import (
	ignore "github.com/sabhiram/go-gitignore"
)

// defaultIgnorePatterns exclude directories that are never meaningful
// evidence for knowledge indexing, mirroring the teacher's ignore-pattern
// handling in internal/engine (there applied to commit diffs; here applied
// to the tracked-path listing before any detection rule runs).
var defaultIgnorePatterns = []string{
	"node_modules/",
	"vendor/",
	".git/",
	"dist/",
	"build/",
	"*.min.js",
}

// filterIgnored drops every path matched by the default patterns plus any
// repo-config overrides (§4.4 step 3 works over the raw tree; exclusion
// happens before detection so ignored files never become evidence).
func filterIgnored(paths []string, extra []string) []string {
	patterns := append(append([]string{}, defaultIgnorePatterns...), extra...)
	matcher := ignore.CompileIgnoreLines(patterns...)
	if matcher == nil {
		return paths
	}
	out := paths[:0:0]
	for _, p := range paths {
		if !matcher.MatchesPath(p) {
			out = append(out, p)
		}
	}
	return out
}

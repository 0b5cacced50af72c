package indexer

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// compatConstraint accepts any index produced by the current major
// version of the schema.
var compatConstraint = semver.MustParse(CurrentSchemaVersion)

// IsSchemaCompatible reports whether a cached repo_index.json's
// schema_version can be trusted by a reader built against
// CurrentSchemaVersion, without forcing a re-index. Callers that always
// want fresh evidence (the refresh-from-events consumer, per spec.md §9's
// conservative resolution) can ignore this and re-index unconditionally.
func IsSchemaCompatible(existing string) (bool, error) {
	v, err := semver.NewVersion(existing)
	if err != nil {
		return false, fmt.Errorf("parsing schema_version %q: %w", existing, err)
	}
	return v.Major() == compatConstraint.Major(), nil
}

package staleness

import (
	"fmt"
	"strings"
	"time"
)

// RenderBanner builds the markdown block the soft-stale writer prepends to
// a repo's knowledge view (§4.5 "Banner"). It names the reason codes and
// the evidence behind them; it never recommends an action, since that is
// the orchestrator's job via the decision tree.
func RenderBanner(snapshot RepoSnapshot, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "> **Knowledge may be stale for `%s`**\n", snapshot.RepoID)
	fmt.Fprintf(&b, "> Reasons: %s\n", strings.Join(snapshot.Reasons, ", "))
	if snapshot.RepoHeadSHA != "" {
		fmt.Fprintf(&b, "> Repo HEAD: `%s`\n", snapshot.RepoHeadSHA)
	}
	if snapshot.LastScannedHeadSHA != "" {
		fmt.Fprintf(&b, "> Last scanned HEAD: `%s`\n", snapshot.LastScannedHeadSHA)
	}
	if snapshot.LastScanTime != nil {
		fmt.Fprintf(&b, "> Last scan: %s\n", snapshot.LastScanTime.UTC().Format(time.RFC3339))
	} else {
		b.WriteString("> Last scan: never\n")
	}
	if snapshot.LastMergeEventTime != nil {
		fmt.Fprintf(&b, "> Last unconsumed merge event: %s\n", snapshot.LastMergeEventTime.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "> As of %s\n", now.UTC().Format(time.RFC3339))
	return b.String()
}

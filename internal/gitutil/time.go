package gitutil

import "time"

// parseGitISO converts git's `%cI` strict-ISO output (e.g.
// "2024-05-01T12:34:56+02:00") into the repo-wide UTC millisecond
// convention (§6.2).
func parseGitISO(s string) (string, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", err
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z"), nil
}

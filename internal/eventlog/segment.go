package eventlog

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// segmentPattern matches `events-YYYYMMDD-HH.jsonl` (§3.1).
var segmentPattern = regexp.MustCompile(`^events-(\d{8}-\d{2})\.jsonl$`)

// SegmentKey extracts the `YYYYMMDD-HH` key from a segment filename.
func SegmentKey(filename string) (string, bool) {
	m := segmentPattern.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SegmentFilename builds the segment filename for a given key.
func SegmentFilename(key string) string {
	return "events-" + key + ".jsonl"
}

// ListSegments returns every segment filename under dir, sorted
// lexicographically (hourly rotation makes lexicographic == chronological).
func ListSegments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var segments []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := SegmentKey(e.Name()); ok {
			segments = append(segments, e.Name())
		}
	}
	sort.Strings(segments)
	return segments, nil
}

// Append writes one event as a single JSON line to the appropriate segment
// under dir, keyed by the event's timestamp (§4.7 writing protocol: appends
// are line-atomic; only tests call this, real producers are external to the
// core).
func Append(dir string, e Event) error {
	key, err := segmentKeyForTimestamp(e.Timestamp)
	if err != nil {
		return err
	}
	data, err := marshalEvent(e)
	if err != nil {
		return err
	}
	return appendLineTo(filepath.Join(dir, SegmentFilename(key)), data)
}

func segmentKeyForTimestamp(ts string) (string, error) {
	t, err := parseTimestamp(ts)
	if err != nil {
		return "", err
	}
	return t.UTC().Format("20060102-15"), nil
}

// readLines reads every non-blank line of a segment file, 0-indexed.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errSegmentNotFound(path)
	}
	if err != nil {
		return nil, err
	}
	raw := strings.Split(string(data), "\n")
	var lines []string
	for _, l := range raw {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines, nil
}

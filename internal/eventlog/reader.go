package eventlog

import "path/filepath"

// Line is one non-blank line of a segment, at its 0-based index within
// that segment.
type Line struct {
	Segment string
	Index   int
	Raw     string
}

// SegmentsFrom returns the segments at or after anchorSegment, sorted. A
// nil anchor means "from the very beginning" (§4.7: skip segments strictly
// before the anchor segment).
func SegmentsFrom(dir string, anchorSegment *string) ([]string, error) {
	all, err := ListSegments(dir)
	if err != nil {
		return nil, err
	}
	if anchorSegment == nil {
		return all, nil
	}
	var out []string
	for _, s := range all {
		if s >= *anchorSegment {
			out = append(out, s)
		}
	}
	return out, nil
}

// ReadSegmentLines returns every non-blank line of a segment file with its
// 0-based index, in order.
func ReadSegmentLines(dir, segment string) ([]Line, error) {
	path := filepath.Join(dir, segment)
	raws, err := readLines(path)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, len(raws))
	for i, r := range raws {
		lines[i] = Line{Segment: segment, Index: i, Raw: r}
	}
	return lines, nil
}

// FindEventIndex returns the 0-based line index of the first line in
// segment whose event_id matches anchorEventID, decoding each line with
// Validate and skipping (not failing on) malformed lines while searching.
func FindEventIndex(dir, segment, anchorEventID string) (int, bool, error) {
	lines, err := ReadSegmentLines(dir, segment)
	if err != nil {
		return 0, false, err
	}
	for _, l := range lines {
		e, errs := Validate([]byte(l.Raw))
		if len(errs) > 0 {
			continue
		}
		if e.EventID == anchorEventID {
			return l.Index, true, nil
		}
	}
	return 0, false, nil
}

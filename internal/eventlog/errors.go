package eventlog

import "fmt"

// SegmentNotFoundError signals an anchor segment missing from disk — a
// corruption/fatal condition for consumers that require exact resume (§7).
type SegmentNotFoundError struct {
	Path string
}

func (e *SegmentNotFoundError) Error() string {
	return fmt.Sprintf("checkpoint segment not found: %s", e.Path)
}

func errSegmentNotFound(path string) error {
	return &SegmentNotFoundError{Path: path}
}

// AnchorNotFoundError signals that an anchor event-id could not be located
// within its anchor segment.
type AnchorNotFoundError struct {
	Segment string
	EventID string
}

func (e *AnchorNotFoundError) Error() string {
	return fmt.Sprintf("anchor event %s not found in segment %s", e.EventID, e.Segment)
}

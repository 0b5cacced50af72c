package checkpoint

import (
	"testing"
	"time"

	"github.com/re-cinq/lanectl/internal/fileutil"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	layout := fileutil.NewLayout(t.TempDir())
	fixed := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	return &Store{Layout: layout, Now: func() time.Time { return fixed }}
}

func TestReadDefaultsWhenMissing(t *testing.T) {
	s := testStore(t)
	r, err := s.Read("refresh-from-events")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Version != 1 || r.Consumer != "refresh-from-events" {
		t.Errorf("unexpected default record: %+v", r)
	}
	if r.LastReadSegment != nil || r.LastReadOffset != 0 {
		t.Errorf("expected zero-value anchor, got %+v", r)
	}
}

func TestReadRejectsInvalidConsumerName(t *testing.T) {
	s := testStore(t)
	if _, err := s.Read("Not Valid!"); err == nil {
		t.Fatal("expected error for invalid consumer name")
	}
}

func TestWriteLineOffsetRoundTrips(t *testing.T) {
	s := testStore(t)
	seg := "events-20260731-09.jsonl"

	if err := s.WriteLineOffset("qa-merge-followups", &seg, 42, false); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := s.Read("qa-merge-followups")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.LastReadSegment == nil || *got.LastReadSegment != seg || got.LastReadOffset != 42 {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestWriteLineOffsetRejectsNegativeOffset(t *testing.T) {
	s := testStore(t)
	if err := s.WriteLineOffset("qa-merge-followups", nil, -1, false); err == nil {
		t.Fatal("expected error for negative offset")
	}
}

func TestWriteLineOffsetRejectsOffsetWithoutSegment(t *testing.T) {
	s := testStore(t)
	if err := s.WriteLineOffset("qa-merge-followups", nil, 5, false); err == nil {
		t.Fatal("expected error when offset is set without a segment")
	}
}

func TestWriteLineOffsetDryRunDoesNotPersist(t *testing.T) {
	s := testStore(t)
	seg := "events-20260731-09.jsonl"
	if err := s.WriteLineOffset("qa-merge-followups", &seg, 7, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Read("qa-merge-followups")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.LastReadSegment != nil {
		t.Error("dry-run write must not persist")
	}
}

func TestWriteEventAnchorRoundTrips(t *testing.T) {
	s := testStore(t)
	seg := "events-20260731-09.jsonl"
	id := "evt-0001"

	if err := s.WriteEventAnchor("refresh-from-events", &seg, &id, false); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := s.Read("refresh-from-events")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.LastProcessedSegment == nil || *got.LastProcessedSegment != seg {
		t.Errorf("unexpected segment: %+v", got)
	}
	if got.LastProcessedEventID == nil || *got.LastProcessedEventID != id {
		t.Errorf("unexpected event id: %+v", got)
	}
}

func TestWriteEventAnchorRejectsEventIDWithoutSegment(t *testing.T) {
	s := testStore(t)
	id := "evt-0001"
	if err := s.WriteEventAnchor("refresh-from-events", nil, &id, false); err == nil {
		t.Fatal("expected error when event id is set without a segment")
	}
}

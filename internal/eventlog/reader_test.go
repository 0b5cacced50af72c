package eventlog

import "testing"

func seedSegment(t *testing.T, dir string, events ...Event) {
	t.Helper()
	for _, e := range events {
		if err := Append(dir, e); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
}

func TestSegmentsFromNilAnchorReturnsAll(t *testing.T) {
	dir := t.TempDir()
	seedSegment(t, dir,
		Event{EventID: "e1", Timestamp: "2026-07-31T09:00:00.000Z", Type: TypeMerge},
		Event{EventID: "e2", Timestamp: "2026-07-31T14:00:00.000Z", Type: TypeMerge},
	)
	segs, err := SegmentsFrom(dir, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %v", segs)
	}
}

func TestSegmentsFromSkipsEarlierSegments(t *testing.T) {
	dir := t.TempDir()
	seedSegment(t, dir,
		Event{EventID: "e1", Timestamp: "2026-07-31T09:00:00.000Z", Type: TypeMerge},
		Event{EventID: "e2", Timestamp: "2026-07-31T14:00:00.000Z", Type: TypeMerge},
		Event{EventID: "e3", Timestamp: "2026-07-31T23:00:00.000Z", Type: TypeMerge},
	)
	anchor := "events-20260731-14.jsonl"
	segs, err := SegmentsFrom(dir, &anchor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"events-20260731-14.jsonl", "events-20260731-23.jsonl"}
	if len(segs) != len(want) {
		t.Fatalf("got %v, want %v", segs, want)
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Errorf("segs[%d] = %q, want %q", i, segs[i], want[i])
		}
	}
}

func TestFindEventIndexLocatesAnchor(t *testing.T) {
	dir := t.TempDir()
	seedSegment(t, dir,
		Event{EventID: "e1", Timestamp: "2026-07-31T09:00:00.000Z", Type: TypeMerge},
		Event{EventID: "e2", Timestamp: "2026-07-31T09:05:00.000Z", Type: TypeMerge},
		Event{EventID: "e3", Timestamp: "2026-07-31T09:10:00.000Z", Type: TypeMerge},
	)
	idx, found, err := FindEventIndex(dir, "events-20260731-09.jsonl", "e2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || idx != 1 {
		t.Errorf("FindEventIndex = (%d, %v), want (1, true)", idx, found)
	}
}

func TestFindEventIndexMissingAnchorReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	seedSegment(t, dir, Event{EventID: "e1", Timestamp: "2026-07-31T09:00:00.000Z", Type: TypeMerge})
	_, found, err := FindEventIndex(dir, "events-20260731-09.jsonl", "does-not-exist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected anchor not to be found")
	}
}

func TestFindEventIndexSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	seedSegment(t, dir, Event{EventID: "e1", Timestamp: "2026-07-31T09:00:00.000Z", Type: TypeMerge})
	if err := appendLineTo(dir+"/events-20260731-09.jsonl", []byte(`{"not_an_event": true}`)); err != nil {
		t.Fatalf("appending malformed line failed: %v", err)
	}
	if err := Append(dir, Event{EventID: "e2", Timestamp: "2026-07-31T09:10:00.000Z", Type: TypeMerge}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	idx, found, err := FindEventIndex(dir, "events-20260731-09.jsonl", "e2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || idx != 2 {
		t.Errorf("FindEventIndex = (%d, %v), want (2, true)", idx, found)
	}
}

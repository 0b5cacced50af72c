// Package checkpoint persists the one-file-per-consumer resume positions
// described in §4.6. Two shapes share the same store: a line-offset shape
// (QA-merge follow-up consumer) and an event-id shape (refresh-from-events
// consumer).
package checkpoint

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/re-cinq/lanectl/internal/fileutil"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Record is the on-disk shape. Only one pair of shape-specific fields is
// populated for any given consumer, depending on which Write* function
// that consumer's Store uses.
type Record struct {
	Version int `json:"version"`
	Consumer string `json:"consumer"`

	// Line-offset shape.
	LastReadSegment *string `json:"last_read_segment"`
	LastReadOffset  int     `json:"last_read_offset"`

	// Event-id shape.
	LastProcessedSegment *string `json:"last_processed_segment,omitempty"`
	LastProcessedEventID *string `json:"last_processed_event_id,omitempty"`

	UpdatedAt string `json:"updated_at"`
}

// Store reads and writes checkpoint records under a Layout.
type Store struct {
	Layout fileutil.Layout
	Now    func() time.Time
}

// NewStore builds a Store with the real clock.
func NewStore(layout fileutil.Layout) *Store {
	return &Store{Layout: layout, Now: time.Now}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func validateName(consumer string) error {
	if !namePattern.MatchString(consumer) {
		return fmt.Errorf("invalid consumer name %q", consumer)
	}
	return nil
}

// Read returns the checkpoint for consumer, defaulted (version 1, no
// anchor) if the file does not exist.
func (s *Store) Read(consumer string) (Record, error) {
	if err := validateName(consumer); err != nil {
		return Record{}, err
	}
	var r Record
	err := fileutil.ReadJSON(s.Layout.ConsumerCheckpointFile(consumer), &r)
	if os.IsNotExist(err) {
		return Record{Version: 1, Consumer: consumer}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("reading checkpoint for %s: %w", consumer, err)
	}
	return r, nil
}

// WriteLineOffset persists the line-offset shape. §4.6: if segment is nil
// then offset must be 0; offset is a non-negative 0-based line index.
func (s *Store) WriteLineOffset(consumer string, segment *string, offset int, dryRun bool) error {
	if err := validateName(consumer); err != nil {
		return err
	}
	if offset < 0 {
		return fmt.Errorf("last_read_offset must be >= 0, got %d", offset)
	}
	if segment == nil && offset != 0 {
		return fmt.Errorf("last_read_offset must be 0 when last_read_segment is nil")
	}
	if dryRun {
		return nil
	}
	r := Record{
		Version:         1,
		Consumer:        consumer,
		LastReadSegment: segment,
		LastReadOffset:  offset,
		UpdatedAt:       fileutil.NowISO(s.now()),
	}
	return fileutil.WriteJSON(s.Layout.ConsumerCheckpointFile(consumer), r)
}

// WriteEventAnchor persists the event-id shape.
func (s *Store) WriteEventAnchor(consumer string, segment *string, eventID *string, dryRun bool) error {
	if err := validateName(consumer); err != nil {
		return err
	}
	if segment == nil && eventID != nil {
		return fmt.Errorf("last_processed_event_id set without last_processed_segment")
	}
	if dryRun {
		return nil
	}
	r := Record{
		Version:              1,
		Consumer:              consumer,
		LastProcessedSegment:  segment,
		LastProcessedEventID:  eventID,
		UpdatedAt:              fileutil.NowISO(s.now()),
	}
	return fileutil.WriteJSON(s.Layout.ConsumerCheckpointFile(consumer), r)
}

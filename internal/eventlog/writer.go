package eventlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/re-cinq/lanectl/internal/fileutil"
)

func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", ts)
	if err == nil {
		return t, nil
	}
	// tolerate a bare RFC3339 timestamp without milliseconds
	return time.Parse(time.RFC3339, ts)
}

func marshalEvent(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling event %s: %w", e.EventID, err)
	}
	return data, nil
}

func appendLineTo(path string, line []byte) error {
	return fileutil.AppendLine(path, line)
}

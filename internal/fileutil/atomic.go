package fileutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// tmpCounter is a per-process monotonic counter mixed into temp-file
// suffixes so concurrent writers in the same process never collide, even
// when two atomic writes land in the same directory within the same
// nanosecond tick.
var tmpCounter uint64

func tmpSuffix() string {
	n := atomic.AddUint64(&tmpCounter, 1)
	return fmt.Sprintf(".tmp.%d.%x.%x", os.Getpid(), time.Now().UnixNano(), n)
}

// AtomicWriteFile writes data to path via a same-directory temp file plus
// rename, so readers never observe a partial file. On failure the temp
// file is removed and the prior artifact (if any) is left untouched.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("ensuring dir %s: %w", dir, err)
	}

	tmpPath := path + tmpSuffix()
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("creating temp file %s: %w", tmpPath, err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, path, err)
	}
	return nil
}

// WriteJSON marshals v as 2-space-indented JSON with a trailing newline and
// writes it atomically, per §6.2.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	data = append(data, '\n')
	return AtomicWriteFile(path, data, 0644)
}

// ReadJSON reads and unmarshals a JSON file into v. It returns
// os.ErrNotExist (wrapped) unchanged so callers can use os.IsNotExist.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// AppendLine appends a single line (newline added if missing) to a file,
// creating it if necessary. Used for the event log, whose writing protocol
// (§4.7) requires line-atomic appends rather than temp+rename (the file is
// actively being tailed and grown, not replaced).
func AppendLine(path string, line []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if len(line) == 0 || line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}

// ReadFileIfExists reads path, returning os.ErrNotExist (wrapped) unchanged
// when absent so callers can branch with os.IsNotExist rather than treating
// a missing marker file as fatal.
func ReadFileIfExists(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// NowISO returns the current UTC time formatted with millisecond precision,
// per §6.2's ISO-8601 timestamp convention.
func NowISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// NowFSSafe formats t using the fs-safe `YYYYMMDD_HHMMSSmmm` convention
// used for meeting directories, refresh hints, and decision packets.
func NowFSSafe(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%04d%02d%02d_%02d%02d%02d%03d",
		u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond()/1e6)
}

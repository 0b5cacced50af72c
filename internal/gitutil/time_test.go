package gitutil

import "testing"

func TestParseGitISOConvertsToUTCMillis(t *testing.T) {
	got, err := parseGitISO("2024-05-01T12:34:56+02:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "2024-05-01T10:34:56.000Z"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseGitISORejectsMalformed(t *testing.T) {
	if _, err := parseGitISO("not-a-timestamp"); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}

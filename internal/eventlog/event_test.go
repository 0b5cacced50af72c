package eventlog

import "testing"

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "valid minimal event",
			raw:  `{"event_id":"evt-1","timestamp":"2026-07-31T09:00:00.000Z","type":"merge"}`,
		},
		{
			name:    "missing event_id",
			raw:     `{"timestamp":"2026-07-31T09:00:00.000Z","type":"merge"}`,
			wantErr: true,
		},
		{
			name:    "missing timestamp",
			raw:     `{"event_id":"evt-1","type":"merge"}`,
			wantErr: true,
		},
		{
			name:    "missing type",
			raw:     `{"event_id":"evt-1","timestamp":"2026-07-31T09:00:00.000Z"}`,
			wantErr: true,
		},
		{
			name:    "unknown top-level field",
			raw:     `{"event_id":"evt-1","timestamp":"2026-07-31T09:00:00.000Z","type":"merge","bogus":1}`,
			wantErr: true,
		},
		{
			name:    "malformed JSON",
			raw:     `{"event_id":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := Validate([]byte(tt.raw))
			if tt.wantErr && len(errs) == 0 {
				t.Error("expected validation errors, got none")
			}
			if !tt.wantErr && len(errs) != 0 {
				t.Errorf("expected no errors, got %v", errs)
			}
		})
	}
}

func TestDecodeObligationsDefaultsOnMissing(t *testing.T) {
	e := Event{}
	if got := e.DecodeObligations(); got.MustAddE2E {
		t.Error("expected zero-value obligations when block is absent")
	}
}

func TestDecodeObligationsBestEffort(t *testing.T) {
	e := Event{Obligations: []byte(`{"must_add_e2e":true}`)}
	if got := e.DecodeObligations(); !got.MustAddE2E {
		t.Error("expected must_add_e2e to decode true")
	}

	malformed := Event{Obligations: []byte(`not json`)}
	if got := malformed.DecodeObligations(); got.MustAddE2E {
		t.Error("expected malformed obligations to decode to zero value, not error out")
	}
}

func TestPathsPrefersChangedOverAffected(t *testing.T) {
	e := Event{ChangedPaths: []string{"a.go"}, AffectedPaths: []string{"b.go"}}
	got := e.Paths()
	if len(got) != 1 || got[0] != "a.go" {
		t.Errorf("Paths() = %v, want [a.go]", got)
	}

	onlyAffected := Event{AffectedPaths: []string{"b.go"}}
	got = onlyAffected.Paths()
	if len(got) != 1 || got[0] != "b.go" {
		t.Errorf("Paths() = %v, want [b.go]", got)
	}
}

package service

import (
	"testing"
	"time"
)

func TestEfSearchForPrecision(t *testing.T) {
	tests := []struct {
		precision string
		want      int
	}{
		{PrecisionFast, 40},
		{PrecisionBalanced, 100},
		{PrecisionPrecise, 400},
		{"", 100},
		{"bogus", 100},
	}

	for _, tt := range tests {
		if got := EfSearchForPrecision(tt.precision); got != tt.want {
			t.Errorf("EfSearchForPrecision(%q) = %d, want %d", tt.precision, got, tt.want)
		}
	}
}

func TestRetentionCutoff(t *testing.T) {
	s := NewCollectionService(nil, nil, nil, 30)
	fixed := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	got := s.RetentionCutoff()
	want := time.Date(2026, 7, 28, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("RetentionCutoff = %s, want %s", got, want)
	}
}

func TestRetentionDefaultsWhenUnset(t *testing.T) {
	s := NewCollectionService(nil, nil, nil, 0)
	if s.retentionDays != 30 {
		t.Errorf("retentionDays = %d, want 30 default", s.retentionDays)
	}
}

package cmd

import (
	"testing"
	"time"
)

func TestParseAge(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		err   bool
	}{
		{"30d", 30 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"720h", 720 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"2h30m", 2*time.Hour + 30*time.Minute, false},
		{"invalid", 0, true},
		{"", 0, true},
		{"d", 0, true},
	}

	for _, tt := range tests {
		got, err := parseAge(tt.input)
		if tt.err {
			if err == nil {
				t.Errorf("parseAge(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAge(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAge(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

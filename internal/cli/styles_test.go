package cli

import (
	"strings"
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello..."},
		{"no limit", "hello world", 0, "hello world"},
		{"wide runes", "日本語テキスト", 7, "日本..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.width); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestFormatActivity(t *testing.T) {
	if got := formatActivity(0, time.RFC3339); got != "-" {
		t.Errorf("formatActivity(0) = %q, want %q", got, "-")
	}
	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC).Unix()
	if got := formatActivity(ts, "2006"); !strings.HasPrefix(got, "2025") {
		t.Errorf("formatActivity(%d) = %q, want year 2025", ts, got)
	}
}

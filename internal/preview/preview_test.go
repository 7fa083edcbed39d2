package preview

import (
	"strings"
	"testing"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		max       int
		want      []string
		truncated bool
	}{
		{"empty", "", 3, []string{}, false},
		{"fewer than max", "a\nb\n", 3, []string{"a", "b"}, false},
		{"exactly max", "a\nb\nc", 3, []string{"a", "b", "c"}, false},
		{"more than max", "a\nb\nc\nd\n", 2, []string{"a", "b"}, true},
		{"crlf and tabs", "a\r\n\tb\r\n", 5, []string{"a", "    b"}, false},
		{"zero max", "a\n", 0, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated, err := Lines(strings.NewReader(tt.input), tt.max)
			if err != nil {
				t.Fatalf("Lines returned error: %v", err)
			}
			if truncated != tt.truncated {
				t.Fatalf("truncated = %v, want %v", truncated, tt.truncated)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Lines = %#v, want %#v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Lines[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLines_NilReader(t *testing.T) {
	got, truncated, err := Lines(nil, 5)
	if err != nil || truncated || got != nil {
		t.Fatalf("Lines(nil) = %#v, %v, %v", got, truncated, err)
	}
}

func TestLines_LongLineErrors(t *testing.T) {
	long := strings.Repeat("x", maxLineBytes+10)
	if _, _, err := Lines(strings.NewReader(long), 1); err == nil {
		t.Fatalf("Lines returned nil error for oversized line")
	}
}

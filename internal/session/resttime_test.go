package session

import "testing"

// TestParseRestSeconds verifies the first-integer extraction and the
// 60-second fallback for malformed strings.
func TestParseRestSeconds(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"60 sec", 60},
		{"90 sec", 90},
		{"2 min 30", 2}, // first integer wins
		{"120s", 120},
		{"rest 45", 45},
		{"short", 60},
		{"", 60},
		{"no numbers here", 60},
		{"0 sec", 0},
	}
	for _, tc := range cases {
		if got := ParseRestSeconds(tc.in); got != tc.want {
			t.Errorf("ParseRestSeconds(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// ABOUTME: Tests for Nerd Font detection
// ABOUTME: Uses a map-backed environment instead of the process environment

package icons

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"explicit on", map[string]string{"CROCHET_NERD_FONTS": "true"}, true},
		{"explicit off wins over terminal", map[string]string{"CROCHET_NERD_FONTS": "0", "TERM_PROGRAM": "WezTerm"}, false},
		{"known terminal program", map[string]string{"TERM_PROGRAM": "iTerm.app"}, true},
		{"known TERM", map[string]string{"TERM": "xterm-kitty"}, true},
		{"generic flag", map[string]string{"NERD_FONTS": "1"}, true},
		{"plain terminal", map[string]string{"TERM": "xterm-256color"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := detect(func(k string) string { return tc.env[k] })
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

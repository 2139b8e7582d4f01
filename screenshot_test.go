package sway

import "testing"

func TestCaptureName(t *testing.T) {
	tests := []struct {
		label, want string
	}{
		{"", "frame"},
		{"   ", "frame"},
		{"after-fling", "after-fling"},
		{" zoom 2.5x ", "zoom_2.5x"},
		{"a/b\\c", "a_b_c"},
	}
	for _, tt := range tests {
		if got := captureName(tt.label); got != tt.want {
			t.Errorf("captureName(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestScreenshotQueues(t *testing.T) {
	s := NewScene(32, 32, nil)
	s.Screenshot("one")
	s.Screenshot("two")
	diff(t, []string{"one", "two"}, s.captures)
}

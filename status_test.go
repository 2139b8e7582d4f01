package sway

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ViewportStatus
		want     bool
	}{
		{StatusReady, StatusManipulationStarting, true},
		{StatusReady, StatusAutoRunning, true},
		{StatusReady, StatusInertia, false},
		{StatusReady, StatusRunning, false},
		{StatusManipulationStarting, StatusStarted, true},
		{StatusManipulationStarting, StatusRunning, false},
		{StatusStarted, StatusRunning, true},
		{StatusRunning, StatusInertia, true},
		{StatusRunning, StatusSuspended, true},
		{StatusSuspended, StatusRunning, true},
		{StatusInertia, StatusRunning, true},
		{StatusInertia, StatusManipulationStarting, true},
		{StatusInertia, StatusReady, true},
		{StatusAutoRunning, StatusManipulationStarting, true},
		{StatusAutoRunning, StatusInertia, false},
		{StatusDisabled, StatusReady, true},
		{StatusDisabled, StatusRunning, false},
		{StatusRunning, StatusDisabled, true},
		{StatusUnregistering, StatusReady, false},
		{StatusRunning, StatusRunning, true},
		{ViewportStatus(42), StatusReady, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatusTransitionError(t *testing.T) {
	v := &Viewport{status: StatusReady}
	err := v.transition(StatusInertia)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("err = %v, want ErrIllegalTransition", err)
	}
	var te *StatusTransitionError
	if !errors.As(err, &te) || te.From != StatusReady || te.To != StatusInertia {
		t.Errorf("error = %#v", err)
	}
	if v.status != StatusReady {
		t.Errorf("status changed to %v", v.status)
	}
}

func TestStatusPredicates(t *testing.T) {
	active := map[ViewportStatus]bool{StatusRunning: true, StatusInertia: true, StatusSuspended: true, StatusAutoRunning: true}
	manipulating := map[ViewportStatus]bool{StatusManipulationStarting: true, StatusStarted: true, StatusRunning: true}
	for s := StatusReady; s <= StatusUnregistering; s++ {
		if s.IsActive() != active[s] {
			t.Errorf("%v.IsActive() = %v", s, s.IsActive())
		}
		if s.isManipulating() != manipulating[s] {
			t.Errorf("%v.isManipulating() = %v", s, s.isManipulating())
		}
	}
	if got := ViewportStatus(99).String(); got != "ViewportStatus(99)" {
		t.Errorf("String() = %q", got)
	}
}

package sway

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHost is returned when a container cannot be initialized because
	// no platform window has been attached yet. The container stays queued.
	ErrNoHost = errors.New("sway: no host window attached")

	// ErrNotContainer is returned for elements never registered as
	// manipulation containers.
	ErrNotContainer = errors.New("sway: element is not a manipulation container")

	ErrNoViewport = errors.New("sway: no viewport for element")

	// ErrInvalidBounds rejects NaN, infinite, or negative-size rectangles.
	ErrInvalidBounds = errors.New("sway: invalid bounds")

	ErrNoSegments     = errors.New("sway: curve has no segments")
	ErrInvalidSegment = errors.New("sway: invalid curve segment")

	// ErrIllegalTransition is matched by every StatusTransitionError.
	ErrIllegalTransition = errors.New("sway: illegal viewport status transition")

	ErrNotInTree = errors.New("sway: element is not in the live tree")

	// ErrReleased is returned when a weakly referenced node has been collected
	// or disposed.
	ErrReleased = errors.New("sway: target released")

	ErrServiceUnavailable = errors.New("sway: manipulation service unavailable")
)

// StatusTransitionError reports a status change outside the legal graph.
type StatusTransitionError struct {
	From, To ViewportStatus
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("sway: illegal viewport status transition %s -> %s", e.From, e.To)
}

// Is lets errors.Is match ErrIllegalTransition.
func (e *StatusTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

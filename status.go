package sway

import "fmt"

// ViewportStatus is the lifecycle state of a viewport as reported by the
// manipulation service.
type ViewportStatus uint8

const (
	StatusReady ViewportStatus = iota
	StatusManipulationStarting
	StatusStarted
	StatusRunning
	StatusInertia
	StatusSuspended
	StatusAutoRunning
	StatusDisabled
	StatusUnregistering
)

func (s ViewportStatus) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusManipulationStarting:
		return "ManipulationStarting"
	case StatusStarted:
		return "Started"
	case StatusRunning:
		return "Running"
	case StatusInertia:
		return "Inertia"
	case StatusSuspended:
		return "Suspended"
	case StatusAutoRunning:
		return "AutoRunning"
	case StatusDisabled:
		return "Disabled"
	case StatusUnregistering:
		return "Unregistering"
	}
	return fmt.Sprintf("ViewportStatus(%d)", s)
}

// IsActive reports whether content is moving under the service's control.
func (s ViewportStatus) IsActive() bool {
	switch s {
	case StatusRunning, StatusInertia, StatusSuspended, StatusAutoRunning:
		return true
	}
	return false
}

// isManipulating reports whether a contact is driving or about to drive the viewport.
func (s ViewportStatus) isManipulating() bool {
	switch s {
	case StatusManipulationStarting, StatusStarted, StatusRunning:
		return true
	}
	return false
}

// statusEdges lists the legal successors of each status.
var statusEdges = [...][]ViewportStatus{
	StatusReady:                {StatusManipulationStarting, StatusAutoRunning, StatusDisabled, StatusUnregistering},
	StatusManipulationStarting: {StatusStarted, StatusReady, StatusDisabled},
	StatusStarted:              {StatusRunning, StatusReady, StatusDisabled},
	StatusRunning:              {StatusSuspended, StatusInertia, StatusReady, StatusDisabled},
	StatusSuspended:            {StatusRunning, StatusInertia, StatusReady, StatusDisabled},
	StatusInertia:              {StatusRunning, StatusManipulationStarting, StatusReady, StatusDisabled},
	StatusAutoRunning:          {StatusReady, StatusManipulationStarting, StatusRunning, StatusDisabled},
	StatusDisabled:             {StatusReady, StatusUnregistering},
	StatusUnregistering:        nil,
}

// CanTransition reports whether from -> to is a legal status change.
// A self edge is legal and means nothing changes.
func CanTransition(from, to ViewportStatus) bool {
	if from == to {
		return true
	}
	if int(from) >= len(statusEdges) {
		return false
	}
	for _, s := range statusEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}

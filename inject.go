package sway

// syntheticPointerEvent represents a single injected pointer event. Pointer
// ids follow real input: 0 is the mouse, 1-9 are touch slots.
type syntheticPointerEvent struct {
	pointer int
	x, y    float64
	pressed bool
}

// injectFrame is the set of events consumed by one Update call.
type injectFrame []syntheticPointerEvent

func (s *Scene) injectEvents(events ...syntheticPointerEvent) {
	s.injectQueue = append(s.injectQueue, injectFrame(events))
}

// InjectPress queues a press of pointer at the given screen coordinates. The
// event is consumed on the next frame's processInput call.
func (s *Scene) InjectPress(pointer int, x, y float64) {
	s.injectEvents(syntheticPointerEvent{pointer: pointer, x: x, y: y, pressed: true})
}

// InjectMove queues a move of a held pointer.
func (s *Scene) InjectMove(pointer int, x, y float64) {
	s.injectEvents(syntheticPointerEvent{pointer: pointer, x: x, y: y, pressed: true})
}

// InjectRelease queues a release of pointer at the given screen coordinates.
func (s *Scene) InjectRelease(pointer int, x, y float64) {
	s.injectEvents(syntheticPointerEvent{pointer: pointer, x: x, y: y})
}

// InjectTap queues a press followed by a release at the same coordinates.
// Consumes two frames.
func (s *Scene) InjectTap(pointer int, x, y float64) {
	s.InjectPress(pointer, x, y)
	s.InjectRelease(pointer, x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY),
// linearly interpolated moves over frames-2 intermediate frames, and
// release at (toX, toY). The total sequence consumes `frames` frames.
// Minimum frames is 2 (press + release).
func (s *Scene) InjectDrag(pointer int, fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.InjectPress(pointer, fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		s.InjectMove(pointer, fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	s.InjectRelease(pointer, toX, toY)
}

// InjectPinch queues a two-finger gesture on touch slots 1 and 2. Both
// fingers start at distance `from` from (cx, cy) along the x axis and end at
// distance `to`.
func (s *Scene) InjectPinch(cx, cy, from, to float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(frames-1)
		d := from + (to-from)*t
		pressed := i < frames-1
		s.injectEvents(
			syntheticPointerEvent{pointer: 1, x: cx - d, y: cy, pressed: pressed},
			syntheticPointerEvent{pointer: 2, x: cx + d, y: cy, pressed: pressed},
		)
	}
}

// InjectedPending reports how many injected frames are still queued.
func (s *Scene) InjectedPending() int {
	return len(s.injectQueue)
}

// processInjectedInput pops one frame from the inject queue and feeds it
// through processPointer. Returns true if a frame was consumed (real input
// is skipped for that frame).
func (s *Scene) processInjectedInput() bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	frame := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]

	for _, evt := range frame {
		if evt.pointer < 0 || evt.pointer >= maxPointers {
			continue
		}
		s.processPointer(evt.pointer, evt.x, evt.y, evt.pressed)
	}
	return true
}

package sway

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
)

const maxPointers = 10 // pointer 0 = mouse, 1-9 = touch

type pointerState struct {
	down         bool
	lastX, lastY float64
	hitNode      *Node
}

func joinErrors(a, b error) error {
	return errors.Join(a, b)
}

// hitTest returns the topmost visible, interactable node under the
// world-space point, or nil.
func (s *Scene) hitTest(wx, wy float64) *Node {
	return hitTestNode(s.root, wx, wy)
}

func hitTestNode(n *Node, wx, wy float64) *Node {
	if !n.Visible {
		return nil
	}
	for i := len(n.children) - 1; i >= 0; i-- {
		if hit := hitTestNode(n.children[i], wx, wy); hit != nil {
			return hit
		}
	}
	if !n.Interactable {
		return nil
	}
	lx, ly := n.WorldToLocal(wx, wy)
	if lx >= 0 && ly >= 0 && lx <= n.Width && ly <= n.Height {
		return n
	}
	return nil
}

// processInput is called from Scene.Update to handle mouse, touch and
// injected input.
func (s *Scene) processInput() {
	if s.processInjectedInput() {
		return
	}
	s.processMousePointer()
	s.processTouchPointers()
}

// processMousePointer handles mouse input (pointer 0).
func (s *Scene) processMousePointer() {
	mx, my := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	s.processPointer(0, float64(mx), float64(my), pressed)
}

// processTouchPointers handles touch input (pointers 1-9).
func (s *Scene) processTouchPointers() {
	touchIDs := ebiten.AppendTouchIDs(s.prevTouchIDs[:0])
	s.prevTouchIDs = touchIDs

	var activeSlots [maxPointers]bool
	for _, tid := range touchIDs {
		slot := s.touchSlot(tid)
		if slot < 0 {
			continue
		}
		activeSlots[slot] = true
		tx, ty := ebiten.TouchPosition(tid)
		s.processPointer(slot, float64(tx), float64(ty), true)
	}

	// Release any touch slots that are no longer active.
	for i := 1; i < maxPointers; i++ {
		if s.touchUsed[i] && !activeSlots[i] {
			ps := &s.pointers[i]
			if ps.down {
				s.processPointer(i, ps.lastX, ps.lastY, false)
			}
			s.touchUsed[i] = false
			s.touchMap[i] = 0
		}
	}
}

// touchSlot maps an ebiten.TouchID to a pointer slot (1-9).
// Returns the existing slot or allocates a new one. Returns -1 if full.
func (s *Scene) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxPointers; i++ {
		if s.touchUsed[i] && s.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxPointers; i++ {
		if !s.touchUsed[i] {
			s.touchUsed[i] = true
			s.touchMap[i] = tid
			return i
		}
	}
	return -1
}

// processPointer runs the pointer state machine for a single pointer. A
// press routes the contact through the registry before the service sees
// it, so the service already knows which viewports the contact belongs to.
func (s *Scene) processPointer(pointerID int, x, y float64, pressed bool) {
	ps := &s.pointers[pointerID]
	id := uint32(pointerID)
	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.hitNode = s.hitTest(x, y)
		if ps.hitNode != nil {
			if _, err := s.registry.SetContactOnPointerDown(id, ps.hitNode); err != nil {
				Logger().Debug("pointer down not manipulatable", "pointer", id, "err", err)
			}
		}
		if s.sink != nil {
			s.sink.PointerDown(id, x, y)
		}
	case pressed && ps.down:
		if (x != ps.lastX || y != ps.lastY) && s.sink != nil {
			s.sink.PointerMove(id, x, y)
		}
	case !pressed && ps.down:
		ps.down = false
		ps.hitNode = nil
		if s.sink != nil {
			s.sink.PointerUp(id, x, y)
		}
		if err := s.registry.ReleaseContactOnPointerUp(id); err != nil {
			Logger().Warn("pointer up", "pointer", id, "err", err)
		}
	}
	ps.lastX, ps.lastY = x, y
}

package sim

import (
	"fmt"
	"slices"

	"github.com/phanxgames/sway"
)

// Service is the simulated manipulation service of one container. It
// implements sway.Service.
type Service struct {
	e       *Engine
	name    string
	host    uintptr
	handler sway.EventHandler
	closed  bool

	viewports map[sway.ViewportToken]*viewport
	failures  map[string]error
}

var _ sway.Service = (*Service)(nil)

// FailNext makes the next call of the named method return err. It lets
// tests and demos exercise the registry's failure handling.
func (s *Service) FailNext(method string, err error) {
	s.e.mu.Lock()
	s.failures[method] = err
	s.e.mu.Unlock()
}

// call runs fn under the engine lock after the shutdown and injected
// failure checks.
func (s *Service) call(method string, fn func() error) error {
	return s.e.locked(func() error {
		if err, ok := s.failures[method]; ok {
			delete(s.failures, method)
			return err
		}
		if s.closed {
			return ErrShutdown
		}
		return fn()
	})
}

// withViewport is call for methods that address an existing viewport.
func (s *Service) withViewport(method string, token sway.ViewportToken, fn func(v *viewport) error) error {
	return s.call(method, func() error {
		v, ok := s.viewports[token]
		if !ok {
			return fmt.Errorf("%s %d: %w", method, token, ErrUnknownViewport)
		}
		return fn(v)
	})
}

func (s *Service) tokens() []sway.ViewportToken {
	toks := make([]sway.ViewportToken, 0, len(s.viewports))
	for tok := range s.viewports {
		toks = append(toks, tok)
	}
	slices.Sort(toks)
	return toks
}

func (s *Service) Initialize(host uintptr, handler sway.EventHandler) error {
	return s.call("Initialize", func() error {
		if host == 0 {
			return fmt.Errorf("sim: initialize %q: %w", s.name, sway.ErrNoHost)
		}
		s.host, s.handler = host, handler
		sway.Logger().Info("sim: service initialized", "container", s.name)
		return nil
	})
}

func (s *Service) Shutdown() error {
	return s.call("Shutdown", func() error {
		for _, v := range s.viewports {
			v.tearDown()
		}
		clear(s.viewports)
		s.closed = true
		s.e.services = slices.DeleteFunc(s.e.services, func(x *Service) bool { return x == s })
		return nil
	})
}

func (s *Service) CreateViewport(token sway.ViewportToken) error {
	return s.call("CreateViewport", func() error {
		if _, ok := s.viewports[token]; ok {
			return fmt.Errorf("viewport %d: %w", token, ErrDuplicate)
		}
		v := &viewport{
			svc:      s,
			token:    token,
			status:   sway.StatusReady,
			t:        sway.IdentityTransform,
			contacts: make(map[uint32]*contact),
			items:    make(map[sway.ContentID]*content),
			primary:  s.e.newShared(),
		}
		v.publish()
		s.viewports[token] = v
		return nil
	})
}

func (s *Service) EnableViewport(token sway.ViewportToken) error {
	return s.withViewport("EnableViewport", token, func(v *viewport) error {
		v.enabled = true
		if v.status == sway.StatusDisabled {
			v.setStatus(sway.StatusReady)
		}
		return nil
	})
}

func (s *Service) DisableViewport(token sway.ViewportToken) error {
	return s.withViewport("DisableViewport", token, func(v *viewport) error {
		v.stopMotion()
		v.resetGesture()
		clear(v.contacts)
		v.enabled = false
		v.setStatus(sway.StatusDisabled)
		return nil
	})
}

func (s *Service) StopViewport(token sway.ViewportToken) error {
	return s.withViewport("StopViewport", token, func(v *viewport) error {
		v.stopMotion()
		v.resetGesture()
		if v.status != sway.StatusDisabled {
			v.setStatus(sway.StatusReady)
		}
		return nil
	})
}

func (s *Service) RemoveViewport(token sway.ViewportToken) error {
	return s.withViewport("RemoveViewport", token, func(v *viewport) error {
		v.tearDown()
		delete(s.viewports, token)
		return nil
	})
}

func (v *viewport) tearDown() {
	v.primary.tearDown()
	for _, c := range v.items {
		c.shared.tearDown()
	}
	clear(v.items)
	v.itemsOrder = nil
}

func (s *Service) AddContact(token sway.ViewportToken, pointerID uint32) error {
	return s.withViewport("AddContact", token, func(v *viewport) error {
		if _, ok := v.contacts[pointerID]; ok {
			return nil
		}
		s.e.seq++
		v.contacts[pointerID] = &contact{seq: s.e.seq}
		// A touch catches content in inertia or programmatic motion.
		if v.status == sway.StatusInertia || v.status == sway.StatusAutoRunning {
			v.stopMotion()
			v.setStatus(sway.StatusManipulationStarting)
		}
		return nil
	})
}

func (s *Service) ReleaseContact(token sway.ViewportToken, pointerID uint32) error {
	return s.withViewport("ReleaseContact", token, func(v *viewport) error {
		v.release(pointerID, s.e.cfg.MinVelocity)
		return nil
	})
}

func (s *Service) ReleaseAllContacts(token sway.ViewportToken) error {
	return s.withViewport("ReleaseAllContacts", token, func(v *viewport) error {
		clear(v.contacts)
		v.resetGesture()
		return nil
	})
}

func (s *Service) SetBounds(token sway.ViewportToken, bounds sway.Rect) error {
	return s.withViewport("SetBounds", token, func(v *viewport) error {
		v.bounds = bounds
		return nil
	})
}

func (s *Service) SetContentBounds(token sway.ViewportToken, bounds sway.Rect) error {
	return s.withViewport("SetContentBounds", token, func(v *viewport) error {
		v.content = bounds
		return nil
	})
}

func (s *Service) SetConfiguration(token sway.ViewportToken, cfg sway.Configuration) error {
	return s.withViewport("SetConfiguration", token, func(v *viewport) error {
		v.config = cfg
		return nil
	})
}

func (s *Service) SetChaining(token sway.ViewportToken, motions sway.MotionTypes) error {
	return s.withViewport("SetChaining", token, func(v *viewport) error {
		v.chaining = motions
		return nil
	})
}

func (s *Service) SetZoomBoundaries(token sway.ViewportToken, minZoom, maxZoom float64) error {
	// Zero boundaries leave zoom unconstrained.
	return s.withViewport("SetZoomBoundaries", token, func(v *viewport) error {
		if minZoom < 0 || maxZoom < minZoom {
			return fmt.Errorf("sim: zoom boundaries [%v, %v]: %w", minZoom, maxZoom, sway.ErrInvalidBounds)
		}
		v.minZoom, v.maxZoom = minZoom, maxZoom
		return nil
	})
}

func (s *Service) PrimaryTransform(token sway.ViewportToken) (sway.Transform, error) {
	var t sway.Transform
	err := s.withViewport("PrimaryTransform", token, func(v *viewport) error {
		t = v.t
		return nil
	})
	return t, err
}

func (s *Service) SetPrimaryTransform(token sway.ViewportToken, t sway.Transform) error {
	return s.withViewport("SetPrimaryTransform", token, func(v *viewport) error {
		v.setTransform(v.clampTransform(t))
		return nil
	})
}

func (s *Service) InertiaEndTransform(token sway.ViewportToken) (sway.Transform, bool, error) {
	var (
		t  sway.Transform
		ok bool
	)
	err := s.withViewport("InertiaEndTransform", token, func(v *viewport) error {
		if v.status == sway.StatusInertia {
			t, ok = v.inertiaEnd(s.e.cfg.Friction), true
		}
		return nil
	})
	return t, ok, err
}

// settle brings a viewport in inertia to rest so programmatic motion can
// start from Ready.
func (v *viewport) settle() {
	if v.status == sway.StatusInertia {
		v.stopMotion()
		v.setStatus(sway.StatusReady)
	}
}

func (s *Service) BringIntoViewport(token sway.ViewportToken, bounds sway.Rect, animate bool) error {
	return s.withViewport("BringIntoViewport", token, func(v *viewport) error {
		target := v.bringIntoViewTarget(bounds)
		if target == v.t {
			return nil
		}
		v.settle()
		if !animate || s.e.cfg.BringIntoView == 0 {
			v.stopMotion()
			v.setTransform(target)
			if v.status == sway.StatusAutoRunning {
				v.setStatus(sway.StatusReady)
			}
			return nil
		}
		fn, _ := sway.Easing(s.e.cfg.Ease)
		v.stopMotion()
		v.anim = v.t
		v.tween = sway.TweenTransform(&v.anim, target, float32(s.e.cfg.BringIntoView), fn)
		v.setStatus(sway.StatusAutoRunning)
		return nil
	})
}

func (s *Service) SetConstantVelocities(token sway.ViewportToken, vx, vy float64) error {
	return s.withViewport("SetConstantVelocities", token, func(v *viewport) error {
		if vx == 0 && vy == 0 {
			if v.status == sway.StatusAutoRunning && v.constant {
				v.stopMotion()
				v.setStatus(sway.StatusReady)
			}
			return nil
		}
		v.settle()
		v.tween = nil
		v.constant = true
		v.vx, v.vy = vx, vy
		v.setStatus(sway.StatusAutoRunning)
		return nil
	})
}

func (s *Service) addContent(method string, token sway.ViewportToken, c *content) error {
	return s.withViewport(method, token, func(v *viewport) error {
		if _, ok := v.items[c.id]; ok {
			return fmt.Errorf("content %d: %w", c.id, ErrDuplicate)
		}
		c.shared = s.e.newShared()
		c.shared.store(c.matrix(v.t))
		v.items[c.id] = c
		v.itemsOrder = append(v.itemsOrder, c.id)
		return nil
	})
}

func (s *Service) removeContent(method string, token sway.ViewportToken, id sway.ContentID, clip bool) error {
	return s.withViewport(method, token, func(v *viewport) error {
		c, ok := v.items[id]
		if !ok || c.clip != clip {
			return fmt.Errorf("content %d: %w", id, ErrUnknownContent)
		}
		c.shared.tearDown()
		delete(v.items, id)
		v.itemsOrder = slices.DeleteFunc(v.itemsOrder, func(x sway.ContentID) bool { return x == id })
		return nil
	})
}

func (s *Service) AddSecondaryContent(token sway.ViewportToken, id sway.ContentID, typ sway.ContentType, curves []sway.CurveDefinition, offset sway.Vec2) error {
	return s.addContent("AddSecondaryContent", token, &content{id: id, typ: typ, curves: curves, offset: offset})
}

func (s *Service) RemoveSecondaryContent(token sway.ViewportToken, id sway.ContentID) error {
	return s.removeContent("RemoveSecondaryContent", token, id, false)
}

func (s *Service) AddClipContent(token sway.ViewportToken, id sway.ContentID, curves []sway.CurveDefinition) error {
	return s.addContent("AddClipContent", token, &content{id: id, typ: sway.ContentCustom, curves: curves, clip: true})
}

func (s *Service) RemoveClipContent(token sway.ViewportToken, id sway.ContentID) error {
	return s.removeContent("RemoveClipContent", token, id, true)
}

func (s *Service) SharedPrimaryTransform(token sway.ViewportToken) (sway.SharedTransform, error) {
	var st sway.SharedTransform
	err := s.withViewport("SharedPrimaryTransform", token, func(v *viewport) error {
		st = v.primary
		return nil
	})
	return st, err
}

func (s *Service) SharedContentTransform(token sway.ViewportToken, id sway.ContentID) (sway.SharedTransform, error) {
	var st sway.SharedTransform
	err := s.withViewport("SharedContentTransform", token, func(v *viewport) error {
		c, ok := v.items[id]
		if !ok {
			return fmt.Errorf("content %d: %w", id, ErrUnknownContent)
		}
		st = c.shared
		return nil
	})
	return st, err
}

// Status returns the engine-side status of a viewport.
func (s *Service) Status(token sway.ViewportToken) (sway.ViewportStatus, bool) {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	v, ok := s.viewports[token]
	if !ok {
		return 0, false
	}
	return v.status, true
}

// SetDragDropStatus reports a drag-drop status change on a cross-slide
// viewport. Pointer gestures never produce one on their own.
func (s *Service) SetDragDropStatus(token sway.ViewportToken, current, previous sway.DragDropStatus) {
	_ = s.e.locked(func() error {
		s.e.emit(event{h: s.handler, token: token, kind: eventDragDrop, drag: current, dragPrev: previous})
		return nil
	})
}

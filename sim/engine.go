// Package sim is a pure-Go manipulation service for sway. It turns raw
// pointer input into pans, pinches and inertia, and publishes the
// resulting transforms through simulated shared transforms, the way a
// platform manipulation engine would.
package sim

import (
	"cmp"
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phanxgames/sway"
)

var (
	ErrShutdown        = errors.New("sim: service shut down")
	ErrUnknownViewport = errors.New("sim: unknown viewport")
	ErrUnknownContent  = errors.New("sim: unknown content")
	ErrDuplicate       = errors.New("sim: already exists")
)

type eventKind uint8

const (
	eventStatus eventKind = iota
	eventInteraction
	eventValues
	eventDragDrop
)

// event is a notification collected under the engine lock and delivered
// after it is released.
type event struct {
	h           sway.EventHandler
	token       sway.ViewportToken
	kind        eventKind
	status      sway.ViewportStatus
	previous    sway.ViewportStatus
	interaction sway.InteractionType
	transform   sway.Transform
	drag        sway.DragDropStatus
	dragPrev    sway.DragDropStatus
}

func (ev event) deliver() {
	if ev.h == nil {
		return
	}
	switch ev.kind {
	case eventStatus:
		ev.h.ViewportStatusChanged(ev.token, ev.status, ev.previous)
	case eventInteraction:
		ev.h.ViewportInteractionTypeChanged(ev.token, ev.interaction)
	case eventValues:
		ev.h.ViewportValuesChanged(ev.token, ev.transform)
	case eventDragDrop:
		ev.h.DragDropStatusChanged(ev.token, ev.drag, ev.dragPrev)
	}
}

// Engine drives every simulated service. Services are created through
// Factory, pointer input arrives through the sway.InputSink methods and
// physics advance with Step or Run.
type Engine struct {
	cfg Config

	mu       sync.Mutex
	services []*Service
	out      []event
	nextID   uint64
	seq      uint64
}

// New creates an engine with the given physics.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's physics settings.
func (e *Engine) Config() Config { return e.cfg }

// Factory returns a sway.ServiceFactory that creates services on e.
func (e *Engine) Factory() sway.ServiceFactory {
	return func(container *sway.Node) (sway.Service, error) {
		s := &Service{
			e:         e,
			name:      container.Name,
			viewports: make(map[sway.ViewportToken]*viewport),
			failures:  make(map[string]error),
		}
		e.mu.Lock()
		e.services = append(e.services, s)
		e.mu.Unlock()
		return s, nil
	}
}

func (e *Engine) emit(ev event) {
	e.out = append(e.out, ev)
}

// locked runs fn under the engine lock and then delivers the events fn
// produced, outside the lock.
func (e *Engine) locked(fn func() error) error {
	e.mu.Lock()
	err := fn()
	out := e.out
	e.out = nil
	e.mu.Unlock()
	for _, ev := range out {
		ev.deliver()
	}
	return err
}

func (e *Engine) newShared() *sharedTransform {
	e.nextID++
	return newSharedTransform(e.nextID)
}

// holding returns the viewports holding pointerID in the order the contact
// was added to them, innermost first.
func (e *Engine) holding(pointerID uint32) []*viewport {
	var vs []*viewport
	for _, s := range e.services {
		for _, v := range s.viewports {
			if _, ok := v.contacts[pointerID]; ok && v.enabled {
				vs = append(vs, v)
			}
		}
	}
	slices.SortFunc(vs, func(a, b *viewport) int {
		return cmp.Compare(a.contacts[pointerID].seq, b.contacts[pointerID].seq)
	})
	return vs
}

// PointerDown implements sway.InputSink.
func (e *Engine) PointerDown(pointerID uint32, x, y float64) {
	_ = e.locked(func() error {
		for _, v := range e.holding(pointerID) {
			c := v.contacts[pointerID]
			c.x, c.y, c.placed = x, y, true
		}
		return nil
	})
}

// PointerMove implements sway.InputSink. The delta is offered to the
// viewports holding the pointer innermost first; what a viewport cannot
// absorb passes outward along its chained motions.
func (e *Engine) PointerMove(pointerID uint32, x, y float64) {
	_ = e.locked(func() error {
		vs := e.holding(pointerID)
		if len(vs) == 0 {
			return nil
		}
		var dx, dy float64
		pinched := false
		for _, v := range vs {
			c := v.contacts[pointerID]
			if !c.placed {
				c.x, c.y, c.placed = x, y, true
				continue
			}
			if v.pinch(pointerID, x, y) {
				pinched = true
				continue
			}
			dx, dy = x-c.x, y-c.y
			c.x, c.y = x, y
			if !v.armed {
				v.travelX += dx
				v.travelY += dy
				if math.Hypot(v.travelX, v.travelY) >= e.cfg.Threshold {
					v.armed = true
				}
			}
		}
		if pinched {
			return nil
		}
		for _, v := range vs {
			if dx == 0 && dy == 0 {
				break
			}
			ox, oy := dx, dy
			switch {
			case v.status == sway.StatusRunning:
				ox, oy = v.pan(dx, dy)
			case v.armed && v.accepts(dx, dy):
				v.begin()
				ox, oy = v.pan(dx, dy)
			case !v.armed:
				continue
			}
			dx, dy = 0, 0
			if v.chaining&sway.MotionTranslateX != 0 {
				dx = ox
			}
			if v.chaining&sway.MotionTranslateY != 0 {
				dy = oy
			}
		}
		return nil
	})
}

// pinch handles a move of one of two contacts on a zoomable viewport. It
// reports whether the move was consumed as a pinch.
func (v *viewport) pinch(pointerID uint32, x, y float64) bool {
	if len(v.contacts) < 2 || !v.config.Has(sway.ConfigZoom) {
		return false
	}
	var other *contact
	for id, c := range v.contacts {
		if id != pointerID && c.placed {
			other = c
			break
		}
	}
	if other == nil {
		return false
	}
	c := v.contacts[pointerID]
	before := math.Hypot(c.x-other.x, c.y-other.y)
	after := math.Hypot(x-other.x, y-other.y)
	c.x, c.y = x, y
	if before == 0 {
		return true
	}
	if v.status != sway.StatusRunning {
		v.begin()
		v.setInteraction(sway.InteractionPinch)
	}
	v.zoomAbout(after/before, (x+other.x)/2, (y+other.y)/2)
	return true
}

// PointerUp implements sway.InputSink.
func (e *Engine) PointerUp(pointerID uint32, x, y float64) {
	_ = e.locked(func() error {
		for _, v := range e.holding(pointerID) {
			v.release(pointerID, e.cfg.MinVelocity)
		}
		return nil
	})
}

// Step advances all physics by dt seconds.
func (e *Engine) Step(dt float64) {
	_ = e.locked(func() error {
		for _, s := range e.services {
			for _, tok := range s.tokens() {
				s.viewports[tok].step(dt, &e.cfg)
			}
		}
		return nil
	})
}

// Run steps the physics at the configured tick rate until ctx is done.
// The clock never waits for a slow step; missed ticks are folded into the
// next step's dt.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	steps := make(chan float64, 1)
	period := time.Second / time.Duration(e.cfg.TickRate)

	g.Go(func() error {
		defer close(steps)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		last := time.Now()
		var pending float64
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				pending += now.Sub(last).Seconds()
				last = now
				select {
				case steps <- pending:
					pending = 0
				default:
				}
			}
		}
	})
	g.Go(func() error {
		for dt := range steps {
			e.Step(dt)
		}
		return nil
	})
	return g.Wait()
}

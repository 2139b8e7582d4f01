package sim

import (
	"math"

	"github.com/phanxgames/sway"
)

type contact struct {
	x, y   float64
	placed bool
	seq    uint64
}

// viewport is the engine-side state of one sway viewport.
type viewport struct {
	svc   *Service
	token sway.ViewportToken

	status  sway.ViewportStatus
	enabled bool

	bounds   sway.Rect
	content  sway.Rect
	config   sway.Configuration
	chaining sway.MotionTypes
	minZoom  float64
	maxZoom  float64

	t      sway.Transform
	last   sway.Transform
	vx, vy float64

	contacts   map[uint32]*contact
	travelX    float64
	travelY    float64
	armed      bool
	lockX      bool // rails: only X moves
	lockY      bool // rails: only Y moves
	constant   bool
	anim       sway.Transform
	tween      *sway.TweenGroup
	primary    *sharedTransform
	items      map[sway.ContentID]*content
	itemsOrder []sway.ContentID
}

func (v *viewport) setStatus(to sway.ViewportStatus) {
	from := v.status
	if from == to {
		return
	}
	if !sway.CanTransition(from, to) {
		sway.Logger().Warn("sim: refusing status change", "token", v.token, "from", from, "to", to)
		return
	}
	v.status = to
	v.svc.e.emit(event{h: v.svc.handler, token: v.token, kind: eventStatus, status: to, previous: from})
}

func (v *viewport) setInteraction(it sway.InteractionType) {
	v.svc.e.emit(event{h: v.svc.handler, token: v.token, kind: eventInteraction, interaction: it})
}

// setTransform stores t, refreshes every shared transform and reports the
// new values.
func (v *viewport) setTransform(t sway.Transform) {
	if t == v.t {
		return
	}
	v.t = t
	v.publish()
	v.svc.e.emit(event{h: v.svc.handler, token: v.token, kind: eventValues, transform: t})
}

func (v *viewport) publish() {
	v.primary.store(transformGeoM(v.t))
	for _, id := range v.itemsOrder {
		c := v.items[id]
		c.shared.store(c.matrix(v.t))
	}
}

// stopMotion cancels inertia and programmatic motion without changing
// status.
func (v *viewport) stopMotion() {
	v.vx, v.vy = 0, 0
	v.tween = nil
	v.constant = false
}

func (v *viewport) resetGesture() {
	v.travelX, v.travelY = 0, 0
	v.armed = false
	v.lockX, v.lockY = false, false
}

func (v *viewport) zoom() float64 {
	if v.t.UncompressedZoom == 0 {
		return 1
	}
	return v.t.UncompressedZoom
}

// limits returns the allowed translation range on one axis.
func limits(viewSize, contentStart, contentSize, zoom float64) (lo, hi float64) {
	hi = -contentStart * zoom
	lo = viewSize - (contentStart+contentSize)*zoom
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// clampTransform keeps t inside the content bounds and zoom boundaries.
func (v *viewport) clampTransform(t sway.Transform) sway.Transform {
	z := t.UncompressedZoom
	if z == 0 {
		z = 1
	}
	if v.maxZoom > 0 {
		z = clamp(z, v.minZoom, v.maxZoom)
	}
	t.UncompressedZoom, t.ZoomX, t.ZoomY = z, z, z
	if v.content.Width > 0 || v.content.Height > 0 {
		lo, hi := limits(v.bounds.Width, v.content.X, v.content.Width, z)
		t.TranslateX = clamp(t.TranslateX, lo, hi)
		lo, hi = limits(v.bounds.Height, v.content.Y, v.content.Height, z)
		t.TranslateY = clamp(t.TranslateY, lo, hi)
	}
	return t
}

// pan moves the content by (dx, dy) along the axes the configuration
// permits and returns the part of the motion that could not be applied.
func (v *viewport) pan(dx, dy float64) (ox, oy float64) {
	if !v.config.Has(sway.ConfigTranslateX) || v.lockY {
		ox, dx = dx, 0
	}
	if !v.config.Has(sway.ConfigTranslateY) || v.lockX {
		oy, dy = dy, 0
	}
	want := v.t
	want.TranslateX += dx
	want.TranslateY += dy
	got := v.clampTransform(want)
	ox += want.TranslateX - got.TranslateX
	oy += want.TranslateY - got.TranslateY
	v.setTransform(got)
	return ox, oy
}

// zoomAbout scales the content by factor keeping the point (cx, cy) fixed.
func (v *viewport) zoomAbout(factor, cx, cy float64) {
	if !v.config.Has(sway.ConfigZoom) || factor <= 0 {
		return
	}
	z := v.zoom()
	want := v.t
	want.UncompressedZoom = z * factor
	got := v.clampTransform(want)
	f := got.UncompressedZoom / z
	got.TranslateX = cx - (cx-v.t.TranslateX)*f
	got.TranslateY = cy - (cy-v.t.TranslateY)*f
	v.setTransform(v.clampTransform(got))
}

// begin moves a touched viewport into Running.
func (v *viewport) begin() {
	v.setStatus(sway.StatusManipulationStarting)
	v.setStatus(sway.StatusStarted)
	v.setStatus(sway.StatusRunning)
	v.setInteraction(sway.InteractionBegin)
	v.last = v.t
	if v.config.Has(sway.ConfigRailsX) && math.Abs(v.travelX) > 2*math.Abs(v.travelY) {
		v.lockX = true
	} else if v.config.Has(sway.ConfigRailsY) && math.Abs(v.travelY) > 2*math.Abs(v.travelX) {
		v.lockY = true
	}
}

// accepts reports whether a delta would move v along a configured axis.
func (v *viewport) accepts(dx, dy float64) bool {
	return (dx != 0 && v.config.Has(sway.ConfigTranslateX)) ||
		(dy != 0 && v.config.Has(sway.ConfigTranslateY))
}

// release ends a contact. The last contact decides between inertia and
// rest.
func (v *viewport) release(pointerID uint32, minVelocity float64) {
	if _, ok := v.contacts[pointerID]; !ok {
		return
	}
	delete(v.contacts, pointerID)
	if len(v.contacts) > 0 {
		return
	}
	v.resetGesture()
	switch v.status {
	case sway.StatusManipulationStarting:
		v.setInteraction(sway.InteractionTap)
		v.setStatus(sway.StatusReady)
	case sway.StatusStarted:
		v.setStatus(sway.StatusReady)
	case sway.StatusRunning:
		v.setInteraction(sway.InteractionEnd)
		if v.config.Has(sway.ConfigInertia) && math.Hypot(v.vx, v.vy) > minVelocity {
			v.setStatus(sway.StatusInertia)
			return
		}
		v.stopMotion()
		v.setStatus(sway.StatusReady)
	}
}

// inertiaEnd predicts where inertia comes to rest under exponential decay.
func (v *viewport) inertiaEnd(friction float64) sway.Transform {
	t := v.t
	t.TranslateX += v.vx / friction
	t.TranslateY += v.vy / friction
	return v.clampTransform(t)
}

// step advances motion by dt seconds.
func (v *viewport) step(dt float64, cfg *Config) {
	if dt <= 0 || !v.enabled {
		return
	}
	switch v.status {
	case sway.StatusRunning:
		ix := (v.t.TranslateX - v.last.TranslateX) / dt
		iy := (v.t.TranslateY - v.last.TranslateY) / dt
		v.vx = 0.6*ix + 0.4*v.vx
		v.vy = 0.6*iy + 0.4*v.vy
		v.last = v.t
	case sway.StatusInertia:
		ox, oy := v.pan(v.vx*dt, v.vy*dt)
		if ox != 0 {
			v.vx = 0
		}
		if oy != 0 {
			v.vy = 0
		}
		decay := math.Exp(-cfg.Friction * dt)
		v.vx *= decay
		v.vy *= decay
		if math.Hypot(v.vx, v.vy) < cfg.MinVelocity {
			v.stopMotion()
			v.setStatus(sway.StatusReady)
		}
	case sway.StatusAutoRunning:
		switch {
		case v.tween != nil:
			v.tween.Update(float32(dt))
			v.setTransform(v.clampTransform(v.anim))
			if v.tween.Done {
				v.tween = nil
				v.setStatus(sway.StatusReady)
			}
		case v.constant:
			ox, oy := v.pan(v.vx*dt, v.vy*dt)
			if ox == v.vx*dt && oy == v.vy*dt {
				v.stopMotion()
				v.setStatus(sway.StatusReady)
			}
		default:
			v.setStatus(sway.StatusReady)
		}
	}
}

// bringIntoViewTarget returns the smallest translation change that makes
// r, in content coordinates, visible.
func (v *viewport) bringIntoViewTarget(r sway.Rect) sway.Transform {
	z := v.zoom()
	t := v.t
	t.TranslateX = reveal(t.TranslateX, r.X*z, r.Width*z, v.bounds.Width)
	t.TranslateY = reveal(t.TranslateY, r.Y*z, r.Height*z, v.bounds.Height)
	return v.clampTransform(t)
}

func reveal(tr, start, size, view float64) float64 {
	switch {
	case start+tr < 0 || size > view:
		return -start
	case start+size+tr > view:
		return view - start - size
	}
	return tr
}

package sway

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float64 fields simultaneously. Create one via
// the convenience constructors (TweenTransform, TweenPosition) and call
// Update(dt) each frame. If the target node is disposed, the group stops
// immediately.
//
// There is no global animation manager. Users call Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float64
	target *Node
	after  func()
	Done   bool
}

// Update advances all tweens by dt seconds and writes values to the target
// fields. If the target node has been disposed, Done is set to true and no
// writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	if g.after != nil {
		g.after()
	}
	if g.target != nil {
		g.target.MarkDirty()
	}
}

// TweenTransform creates a TweenGroup that animates t's translation and
// uncompressed zoom towards to. The compressed zoom components follow the
// uncompressed zoom on every update.
func TweenTransform(t *Transform, to Transform, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 3}
	g.tweens[0] = gween.New(float32(t.TranslateX), float32(to.TranslateX), duration, fn)
	g.tweens[1] = gween.New(float32(t.TranslateY), float32(to.TranslateY), duration, fn)
	g.tweens[2] = gween.New(float32(t.UncompressedZoom), float32(to.UncompressedZoom), duration, fn)
	g.fields[0] = &t.TranslateX
	g.fields[1] = &t.TranslateY
	g.fields[2] = &t.UncompressedZoom
	g.after = func() {
		t.ZoomX, t.ZoomY = t.UncompressedZoom, t.UncompressedZoom
		if g.Done {
			*t = to
		}
	}
	return g
}

// TweenPosition creates a TweenGroup that animates node.X and node.Y to the
// given target coordinates over the specified duration using the easing function.
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(node.X), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(node.Y), float32(toY), duration, fn)
	g.fields[0] = &node.X
	g.fields[1] = &node.Y
	return g
}

// easings maps the names accepted in configuration files to easing
// functions.
var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in-out-quad":  ease.InOutQuad,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-out-sine":  ease.InOutSine,
	"out-bounce":   ease.OutBounce,
	"out-elastic":  ease.OutElastic,
}

// Easing returns the easing function with the given name, falling back to
// ease.OutCubic for unknown names.
func Easing(name string) (ease.TweenFunc, bool) {
	fn, ok := easings[name]
	if !ok {
		return ease.OutCubic, false
	}
	return fn, true
}

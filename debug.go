package sway

import (
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// globalDebug enables tree sanity checks. Set via Scene.SetDebugMode.
var globalDebug bool

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Only called in debug mode. In release mode callers
// skip this entirely.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("sway debug: %s on disposed node %q (ID was %d)", op, n.Name, n.ID))
	}
}

// debugCheckTreeDepth logs a warning if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().Warn("tree depth exceeds threshold",
			"node", n.Name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// LogValue implements slog.LogValuer so viewports log as a compact group.
func (v *Viewport) LogValue() slog.Value {
	name := "<released>"
	if e := v.Element(); e != nil {
		name = e.Name
	}
	return slog.GroupValue(
		slog.Uint64("token", uint64(v.token)),
		slog.String("element", name),
		slog.String("status", v.status.String()),
		slog.Int("contacts", len(v.contacts)),
		slog.Bool("published", v.published),
	)
}

// DumpViewports logs the state of every live viewport at debug level.
func (r *Registry) DumpViewports() {
	log := Logger()
	for _, v := range r.viewports {
		log.Debug("viewport", "viewport", v, "pending", len(v.pending),
			"relationships", len(v.relationships)+len(v.clipRelationships))
	}
	for _, c := range r.crossSlide {
		log.Debug("cross-slide viewport", "token", c.token, "state", c.state, "contacts", len(c.contacts))
	}
	log.Debug("deferred releases", "queued", r.queue.Len())
}

// debugLines returns one overlay line per viewport.
func (r *Registry) debugLines() []string {
	lines := make([]string, 0, len(r.viewports)+1)
	for _, v := range r.viewports {
		name := "<released>"
		if e := v.Element(); e != nil {
			name = e.Name
		}
		t := v.transform
		lines = append(lines, fmt.Sprintf("#%d %s %s tx=%.1f ty=%.1f z=%.2f",
			v.token, name, v.status, t.TranslateX, t.TranslateY, t.UncompressedZoom))
	}
	lines = append(lines, fmt.Sprintf("cross-slide: %d  deferred: %d", len(r.crossSlide), r.queue.Len()))
	return lines
}

// frameLine reports the engine's frame and tick rates.
func frameLine() string {
	return fmt.Sprintf("FPS: %.1f  TPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
}

// drawDebugOverlay prints viewport state in the top-left corner.
func (s *Scene) drawDebugOverlay(screen *ebiten.Image) {
	lines := append([]string{frameLine()}, s.registry.debugLines()...)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, 4, 4+i*16)
	}
}

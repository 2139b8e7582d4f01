package sim

import (
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/sway"
)

// sharedTransform is the simulated compositor object behind a
// sway.SharedTransform. The engine writes it from its own goroutine while
// the UI thread reads it.
type sharedTransform struct {
	id    uint64
	refs  atomic.Int32
	torn  atomic.Bool
	value atomic.Pointer[ebiten.GeoM]
}

func newSharedTransform(id uint64) *sharedTransform {
	s := &sharedTransform{id: id}
	s.refs.Store(1) // the engine's own reference
	var g ebiten.GeoM
	s.value.Store(&g)
	return s
}

func (s *sharedTransform) ID() uint64 { return s.id }

func (s *sharedTransform) Value() (ebiten.GeoM, error) {
	if s.torn.Load() {
		return ebiten.GeoM{}, sway.ErrReleased
	}
	return *s.value.Load(), nil
}

func (s *sharedTransform) Retain() { s.refs.Add(1) }

func (s *sharedTransform) Release() {
	if s.refs.Add(-1) < 0 {
		sway.Logger().Warn("sim: shared transform over-released", "id", s.id)
	}
}

// Refs returns the current reference count, including the engine's own.
func (s *sharedTransform) Refs() int { return int(s.refs.Load()) }

func (s *sharedTransform) store(g ebiten.GeoM) { s.value.Store(&g) }

// tearDown drops the engine's reference. Readers see sway.ErrReleased.
func (s *sharedTransform) tearDown() {
	if s.torn.Swap(true) {
		return
	}
	s.Release()
}

// transformGeoM converts a manipulation transform to the matrix a shared
// transform carries.
func transformGeoM(t sway.Transform) ebiten.GeoM {
	m := t.Matrix()
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

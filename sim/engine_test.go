package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/phanxgames/sway"
)

type statusChange struct {
	Token    sway.ViewportToken
	From, To sway.ViewportStatus
}

type recorder struct {
	mu           sync.Mutex
	statuses     []statusChange
	interactions []sway.InteractionType
	values       []sway.Transform
	drags        []sway.DragDropStatus
}

func (r *recorder) ViewportStatusChanged(token sway.ViewportToken, current, previous sway.ViewportStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, statusChange{Token: token, From: previous, To: current})
}

func (r *recorder) ViewportInteractionTypeChanged(_ sway.ViewportToken, it sway.InteractionType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interactions = append(r.interactions, it)
}

func (r *recorder) ViewportValuesChanged(_ sway.ViewportToken, t sway.Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, t)
}

func (r *recorder) DragDropStatusChanged(_ sway.ViewportToken, current, _ sway.DragDropStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drags = append(r.drags, current)
}

func (r *recorder) lastStatus() sway.ViewportStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return sway.StatusReady
	}
	return r.statuses[len(r.statuses)-1].To
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses, r.interactions, r.values = nil, nil, nil
}

const scrollY = sway.ConfigInteraction | sway.ConfigTranslateY | sway.ConfigInertia

// newTestService creates an initialized service with one enabled 100x100
// viewport over 1000x1000 content.
func newTestService(t *testing.T, e *Engine, name string, tok sway.ViewportToken, cfg sway.Configuration) (*Service, *recorder) {
	t.Helper()
	svc, err := e.Factory()(sway.NewNode(name, sway.Rect{}))
	if err != nil {
		t.Fatal(err)
	}
	s := svc.(*Service)
	rec := &recorder{}
	must(t, s.Initialize(1, rec))
	must(t, s.CreateViewport(tok))
	must(t, s.SetBounds(tok, sway.Rect{Width: 100, Height: 100}))
	must(t, s.SetContentBounds(tok, sway.Rect{Width: 1000, Height: 1000}))
	must(t, s.SetConfiguration(tok, cfg))
	must(t, s.EnableViewport(tok))
	return s, rec
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func transformOf(t *testing.T, s *Service, tok sway.ViewportToken) sway.Transform {
	t.Helper()
	tr, err := s.PrimaryTransform(tok)
	must(t, err)
	return tr
}

func TestDragPastThresholdRuns(t *testing.T) {
	e := New(DefaultConfig())
	s, rec := newTestService(t, e, "list", 1, scrollY)

	must(t, s.AddContact(1, 7))
	e.PointerDown(7, 50, 50)
	e.PointerMove(7, 50, 48) // under the threshold
	if len(rec.statuses) != 0 {
		t.Fatalf("statuses under threshold = %v, want none", rec.statuses)
	}
	e.PointerMove(7, 50, 38)

	want := []statusChange{
		{1, sway.StatusReady, sway.StatusManipulationStarting},
		{1, sway.StatusManipulationStarting, sway.StatusStarted},
		{1, sway.StatusStarted, sway.StatusRunning},
	}
	if diff := cmp.Diff(want, rec.statuses); diff != "" {
		t.Errorf("statuses (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]sway.InteractionType{sway.InteractionBegin}, rec.interactions); diff != "" {
		t.Errorf("interactions (-want +got):\n%s", diff)
	}
	if got := transformOf(t, s, 1).TranslateY; got != -10 {
		t.Errorf("TranslateY = %v, want -10", got)
	}
}

func TestReleaseAfterFlingEntersInertiaAndSettles(t *testing.T) {
	e := New(DefaultConfig())
	s, rec := newTestService(t, e, "list", 1, scrollY)

	must(t, s.AddContact(1, 1))
	e.PointerDown(1, 50, 80)
	e.PointerMove(1, 50, 70)
	e.Step(0.1)
	e.PointerUp(1, 50, 70)

	if got := rec.lastStatus(); got != sway.StatusInertia {
		t.Fatalf("status after fling = %v, want Inertia", got)
	}
	end, ok, err := s.InertiaEndTransform(1)
	must(t, err)
	if !ok || end.TranslateY >= -10 {
		t.Errorf("InertiaEndTransform = %+v, %v; want beyond -10", end, ok)
	}

	for i := 0; i < 20 && rec.lastStatus() == sway.StatusInertia; i++ {
		e.Step(0.1)
	}
	if got := rec.lastStatus(); got != sway.StatusReady {
		t.Fatalf("status after settling = %v, want Ready", got)
	}
	if got := transformOf(t, s, 1).TranslateY; got >= -10 {
		t.Errorf("TranslateY = %v, want inertia to carry past -10", got)
	}
	if _, ok, _ := s.InertiaEndTransform(1); ok {
		t.Error("InertiaEndTransform ok at rest")
	}
}

func TestTouchCatchesInertia(t *testing.T) {
	e := New(DefaultConfig())
	s, rec := newTestService(t, e, "list", 1, scrollY)

	must(t, s.AddContact(1, 1))
	e.PointerDown(1, 50, 80)
	e.PointerMove(1, 50, 60)
	e.Step(0.05)
	e.PointerUp(1, 50, 60)
	if rec.lastStatus() != sway.StatusInertia {
		t.Fatalf("status = %v, want Inertia", rec.lastStatus())
	}
	rec.reset()

	must(t, s.AddContact(1, 2))
	e.PointerDown(2, 10, 10)
	e.PointerUp(2, 10, 10)

	want := []statusChange{
		{1, sway.StatusInertia, sway.StatusManipulationStarting},
		{1, sway.StatusManipulationStarting, sway.StatusReady},
	}
	if diff := cmp.Diff(want, rec.statuses); diff != "" {
		t.Errorf("statuses (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]sway.InteractionType{sway.InteractionTap}, rec.interactions); diff != "" {
		t.Errorf("interactions (-want +got):\n%s", diff)
	}
}

func TestChainedMotionPassesToOuterViewport(t *testing.T) {
	e := New(DefaultConfig())
	inner, innerRec := newTestService(t, e, "carousel", 1, sway.ConfigInteraction|sway.ConfigTranslateX)
	outer, outerRec := newTestService(t, e, "list", 2, scrollY)
	must(t, inner.SetChaining(1, sway.MotionTranslateY))

	must(t, inner.AddContact(1, 3))
	must(t, outer.AddContact(2, 3))
	e.PointerDown(3, 50, 50)
	e.PointerMove(3, 50, 30)

	if got := innerRec.lastStatus(); got != sway.StatusReady {
		t.Errorf("inner status = %v, want Ready", got)
	}
	if got := outerRec.lastStatus(); got != sway.StatusRunning {
		t.Errorf("outer status = %v, want Running", got)
	}
	if got := transformOf(t, outer, 2).TranslateY; got != -20 {
		t.Errorf("outer TranslateY = %v, want -20", got)
	}
}

func TestPanIsClampedToContent(t *testing.T) {
	e := New(DefaultConfig())
	s, _ := newTestService(t, e, "list", 1, scrollY)

	must(t, s.AddContact(1, 1))
	e.PointerDown(1, 50, 50)
	e.PointerMove(1, 50, 90) // pulling down at the top edge

	if got := transformOf(t, s, 1).TranslateY; got != 0 {
		t.Errorf("TranslateY = %v, want 0 at the top edge", got)
	}
}

func TestPinchZoomsAboutMidpoint(t *testing.T) {
	e := New(DefaultConfig())
	s, rec := newTestService(t, e, "map", 1, sway.ConfigInteraction|sway.ConfigZoom|sway.ConfigTranslateX|sway.ConfigTranslateY)
	must(t, s.SetZoomBoundaries(1, 0.5, 4))

	must(t, s.AddContact(1, 1))
	must(t, s.AddContact(1, 2))
	e.PointerDown(1, 40, 50)
	e.PointerDown(2, 60, 50)
	e.PointerMove(2, 80, 50)

	got := transformOf(t, s, 1)
	if got.UncompressedZoom != 2 || got.ZoomX != 2 || got.ZoomY != 2 {
		t.Errorf("zoom = %+v, want 2", got)
	}
	if diff := cmp.Diff([]sway.InteractionType{sway.InteractionBegin, sway.InteractionPinch}, rec.interactions); diff != "" {
		t.Errorf("interactions (-want +got):\n%s", diff)
	}
}

func TestBringIntoViewAnimated(t *testing.T) {
	e := New(DefaultConfig())
	s, rec := newTestService(t, e, "list", 1, scrollY)

	must(t, s.BringIntoViewport(1, sway.Rect{Y: 500, Width: 100, Height: 50}, true))
	if got := rec.lastStatus(); got != sway.StatusAutoRunning {
		t.Fatalf("status = %v, want AutoRunning", got)
	}
	for i := 0; i < 10 && rec.lastStatus() == sway.StatusAutoRunning; i++ {
		e.Step(0.1)
	}
	if got := rec.lastStatus(); got != sway.StatusReady {
		t.Fatalf("status = %v, want Ready", got)
	}
	if got := transformOf(t, s, 1).TranslateY; got != -450 {
		t.Errorf("TranslateY = %v, want -450", got)
	}
}

func TestBringIntoViewInstantStaysAtRest(t *testing.T) {
	e := New(DefaultConfig())
	s, rec := newTestService(t, e, "list", 1, scrollY)

	must(t, s.BringIntoViewport(1, sway.Rect{Y: 500, Width: 100, Height: 50}, false))

	if len(rec.statuses) != 0 {
		t.Errorf("statuses = %v, want none", rec.statuses)
	}
	if len(rec.values) != 1 || rec.values[0].TranslateY != -450 {
		t.Errorf("values = %+v, want one at -450", rec.values)
	}
}

func TestConstantVelocityStopsAtEdge(t *testing.T) {
	e := New(DefaultConfig())
	s, rec := newTestService(t, e, "list", 1, scrollY)

	must(t, s.SetConstantVelocities(1, 0, -1000))
	for i := 0; i < 20 && rec.lastStatus() == sway.StatusAutoRunning; i++ {
		e.Step(0.1)
	}
	if got := rec.lastStatus(); got != sway.StatusReady {
		t.Fatalf("status = %v, want Ready at the edge", got)
	}
	if got := transformOf(t, s, 1).TranslateY; got != -900 {
		t.Errorf("TranslateY = %v, want -900", got)
	}
}

func TestSharedTransformTornDownOnRemove(t *testing.T) {
	e := New(DefaultConfig())
	s, _ := newTestService(t, e, "list", 1, scrollY)

	st, err := s.SharedPrimaryTransform(1)
	must(t, err)
	st.Retain()
	must(t, s.RemoveViewport(1))

	if _, err := st.Value(); !errors.Is(err, sway.ErrReleased) {
		t.Errorf("Value after remove: err = %v, want ErrReleased", err)
	}
	if got := st.(*sharedTransform).Refs(); got != 1 {
		t.Errorf("refs = %d, want 1 (the caller's)", got)
	}
	st.Release()
}

func TestSecondaryContentFollowsCurves(t *testing.T) {
	e := New(DefaultConfig())
	s, _ := newTestService(t, e, "list", 1, scrollY)

	sticky := sway.CurveDefinition{
		PrimaryAxis: sway.AxisTranslationY,
		Property:    sway.PropertyTranslateY,
		Segments: []sway.CurveSegment{
			{BeginOffset: 0, Linear: 1},
			{BeginOffset: 100, Constant: 100},
		},
	}
	must(t, s.AddSecondaryContent(1, 9, sway.ContentCustom, []sway.CurveDefinition{sticky}, sway.Vec2{}))
	st, err := s.SharedContentTransform(1, 9)
	must(t, err)

	for _, tc := range []struct{ scroll, want float64 }{
		{-50, -50},
		{-150, -100},
	} {
		must(t, s.SetPrimaryTransform(1, sway.Transform{TranslateY: tc.scroll, UncompressedZoom: 1, ZoomX: 1, ZoomY: 1}))
		g, err := st.Value()
		must(t, err)
		if got := g.Element(1, 2); got != tc.want {
			t.Errorf("scroll %v: content ty = %v, want %v", tc.scroll, got, tc.want)
		}
	}
}

func TestHeaderContentFollowsOneAxis(t *testing.T) {
	e := New(DefaultConfig())
	s, _ := newTestService(t, e, "grid", 1, sway.ConfigInteraction|sway.ConfigTranslateX|sway.ConfigTranslateY)

	must(t, s.AddSecondaryContent(1, 4, sway.ContentTopHeader, nil, sway.Vec2{}))
	must(t, s.SetPrimaryTransform(1, sway.Transform{TranslateX: -30, TranslateY: -60, UncompressedZoom: 1, ZoomX: 1, ZoomY: 1}))

	st, err := s.SharedContentTransform(1, 4)
	must(t, err)
	g, err := st.Value()
	must(t, err)
	if tx, ty := g.Element(0, 2), g.Element(1, 2); tx != -30 || ty != 0 {
		t.Errorf("top header translation = (%v, %v), want (-30, 0)", tx, ty)
	}
}

func TestFailNextReturnsOnce(t *testing.T) {
	e := New(DefaultConfig())
	s, _ := newTestService(t, e, "list", 1, scrollY)
	boom := errors.New("boom")

	s.FailNext("AddContact", boom)
	if err := s.AddContact(1, 1); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	must(t, s.AddContact(1, 1))
}

func TestShutdownRejectsCalls(t *testing.T) {
	e := New(DefaultConfig())
	s, _ := newTestService(t, e, "list", 1, scrollY)

	must(t, s.Shutdown())
	if err := s.CreateViewport(2); !errors.Is(err, ErrShutdown) {
		t.Errorf("err = %v, want ErrShutdown", err)
	}
	if _, ok := s.Status(1); ok {
		t.Error("viewport survived shutdown")
	}
}

func TestRunStepsUntilCancelled(t *testing.T) {
	e := New(DefaultConfig())
	s, _ := newTestService(t, e, "list", 1, scrollY)
	must(t, s.SetConstantVelocities(1, 0, -100))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := e.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := transformOf(t, s, 1).TranslateY; got >= 0 || math.IsNaN(got) {
		t.Errorf("TranslateY = %v, want movement", got)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig([]byte("threshold: 10\nease: linear\n"))
	must(t, err)
	want := DefaultConfig()
	want.Threshold = 10
	want.Ease = "linear"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}

	if _, err := LoadConfig([]byte("friction: 0\n")); err == nil {
		t.Error("expected error for zero friction")
	}
}

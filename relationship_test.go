package sway

import (
	"errors"
	"testing"
)

func TestCurveBindingSignConvention(t *testing.T) {
	c := sticky(t)
	b := curveBinding{curve: c, axis: AxisTranslationY, property: PropertyTranslateY}
	tests := []struct {
		ty, want float64
	}{
		{0, 0},
		{-50, -50},
		{-150, -100},
		{20, 20},
	}
	for _, tt := range tests {
		got := b.evaluate(Transform{TranslateY: tt.ty, UncompressedZoom: 1, ZoomX: 1, ZoomY: 1})
		if got != tt.want {
			t.Errorf("evaluate(ty=%v) = %v, want %v", tt.ty, got, tt.want)
		}
	}
}

func TestCurveBindingZoomIsDirect(t *testing.T) {
	c, err := NewParametricCurve(AxisZoom, "", CurveSegment{Linear: 0.5})
	must(t, err)
	b := curveBinding{curve: c, axis: AxisZoom, property: PropertyScale}
	if got := b.evaluate(Transform{UncompressedZoom: 2}); got != 1 {
		t.Errorf("evaluate = %v, want 1", got)
	}
}

func TestRelationshipApplyValidates(t *testing.T) {
	h := newHarness(t)
	primary := NewNode("primary", Rect{})
	secondary := NewNode("secondary", Rect{})

	if err := NewContentRelationship(nil, primary, secondary, nil, sticky(t)).Apply(); !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("no registry: err = %v, want ErrServiceUnavailable", err)
	}
	if err := NewContentRelationship(h.reg, primary, secondary, nil).Apply(); !errors.Is(err, ErrNoSegments) {
		t.Errorf("no curves: err = %v, want ErrNoSegments", err)
	}

	gone := NewNode("gone", Rect{})
	gone.Dispose()
	rel := NewContentRelationship(h.reg, primary, gone, nil, sticky(t))
	if err := rel.Apply(); !errors.Is(err, ErrReleased) {
		t.Errorf("disposed secondary: err = %v, want ErrReleased", err)
	}
	if rel.IsPending() || rel.IsApplied() {
		t.Error("failed Apply left the relationship queued")
	}
}

func TestRelationshipDefaultHolderAndProperty(t *testing.T) {
	h := newHarness(t)
	primary := NewNode("primary", Rect{})
	secondary := NewNode("secondary", Rect{})
	rel := NewContentRelationship(h.reg, primary, secondary, nil, sticky(t))
	if rel.Holder() != secondary {
		t.Error("nil holder does not default to the secondary")
	}
	must(t, rel.resolve())
	diff(t, PropertyTranslateY, rel.bindings[0].property)
	if rel.ID() == 0 {
		t.Error("relationship has no content id")
	}
}

func TestRelationshipsMaterializedInOrder(t *testing.T) {
	h := newHarness(t)
	list, content := h.scroller("list", h.root, scrollInfo())
	v := h.touch(1, content)
	svc := h.services["list"]

	a := NewNode("a", Rect{})
	b := NewNode("b", Rect{})
	list.AddChild(a)
	list.AddChild(b)
	relA := NewContentRelationship(h.reg, content, a, nil, sticky(t))
	relB := NewContentRelationship(h.reg, content, b, nil, sticky(t))

	svc.fail["AddSecondaryContent"] = errBoom
	if err := relA.Apply(); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
	if err := relB.Apply(); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
	if !relA.IsPending() || !relB.IsPending() {
		t.Fatal("relationships not left pending")
	}

	delete(svc.fail, "AddSecondaryContent")
	must(t, h.reg.ProcessUIThreadTick())
	if !relA.IsApplied() || !relB.IsApplied() {
		t.Fatal("relationships not applied on the next tick")
	}
	diff(t, []ContentID{relA.ID(), relB.ID()}, svc.viewports[v.Token()].added)
	if n := len(v.Relationships()); n != 2 {
		t.Errorf("attached relationships = %d, want 2", n)
	}
}

func TestRelationshipMaterializedWithViewport(t *testing.T) {
	h := newHarness(t)
	list, content := h.scroller("list", h.root, scrollInfo())
	banner := NewNode("banner", Rect{})
	list.AddChild(banner)
	rel := NewContentRelationship(h.reg, content, banner, nil, sticky(t))
	must(t, rel.Apply())
	if !rel.IsApplied() {
		t.Fatal("relationship not applied without a viewport")
	}

	v := h.touch(1, content)
	fv := h.services["list"].viewports[v.Token()]
	diff(t, []ContentID{rel.ID()}, fv.added)
	curves := fv.curves[rel.ID()]
	if len(curves) != 1 || curves[0].Property != PropertyTranslateY {
		t.Errorf("curves = %+v", curves)
	}
}

func TestRelationshipWritesOnCompletion(t *testing.T) {
	h := newHarness(t)
	list, content := h.scroller("list", h.root, scrollInfo())
	banner := NewNode("banner", Rect{})
	list.AddChild(banner)
	rel := NewContentRelationship(h.reg, content, banner, nil, sticky(t))
	must(t, rel.Apply())

	v := h.touch(1, content)
	svc := h.services["list"]
	svc.run(v.Token())
	svc.values(v.Token(), Transform{TranslateY: -150, UncompressedZoom: 1, ZoomX: 1, ZoomY: 1})
	must(t, h.reg.ProcessUIThreadTick())
	if _, ok := banner.Property(PropertyTranslateY); ok {
		t.Error("property written while the service drives the banner")
	}

	svc.status(v.Token(), StatusReady)
	must(t, h.reg.ProcessUIThreadTick())
	got, ok := banner.Property(PropertyTranslateY)
	if !ok || got != -100 {
		t.Errorf("TranslateY = %v, %v; want -100, true", got, ok)
	}
}

func TestClipRelationshipWritesEveryUpdate(t *testing.T) {
	h := newHarness(t)
	list, content := h.scroller("list", h.root, scrollInfo())
	clip := NewNode("clip", Rect{})
	list.AddChild(clip)
	rel := NewContentRelationship(h.reg, content, clip, nil, sticky(t))
	rel.SetTargetsClip(true)
	must(t, rel.Apply())

	v := h.touch(1, content)
	svc := h.services["list"]
	if svc.called("AddClipContent") != 1 {
		t.Fatalf("AddClipContent calls = %d, want 1", svc.called("AddClipContent"))
	}
	svc.run(v.Token())
	svc.values(v.Token(), Transform{TranslateY: -50, UncompressedZoom: 1, ZoomX: 1, ZoomY: 1})
	must(t, h.reg.ProcessUIThreadTick())
	if got, _ := clip.Property(PropertyTranslateY); got != -50 {
		t.Errorf("TranslateY = %v, want -50", got)
	}

	rel.SetTargetsClip(false)
	if !rel.TargetsClip() {
		t.Error("SetTargetsClip changed an applied relationship")
	}
}

func TestRelationshipRemoveIsIdempotent(t *testing.T) {
	h := newHarness(t)
	list, content := h.scroller("list", h.root, scrollInfo())
	banner := NewNode("banner", Rect{})
	list.AddChild(banner)
	rel := NewContentRelationship(h.reg, content, banner, nil, sticky(t))
	must(t, rel.Apply())
	v := h.touch(1, content)

	must(t, rel.Remove())
	must(t, rel.Remove())
	if rel.IsApplied() {
		t.Error("still applied after Remove")
	}
	if len(v.Relationships()) != 0 {
		t.Error("still attached to the viewport")
	}
	if got := h.services["list"].called("RemoveSecondaryContent"); got != 1 {
		t.Errorf("RemoveSecondaryContent calls = %d, want 1", got)
	}
}

func TestRelationshipPrunedWithPrimary(t *testing.T) {
	h := newHarness(t)
	list, content := h.scroller("list", h.root, scrollInfo())
	banner := NewNode("banner", Rect{})
	h.root.AddChild(banner)
	rel := NewContentRelationship(h.reg, content, banner, nil, sticky(t))
	must(t, rel.Apply())

	list.RemoveFromParent()
	must(t, h.reg.OnPostUIThreadTick())
	if rel.IsApplied() {
		t.Error("relationship kept after its primary left the tree")
	}
}

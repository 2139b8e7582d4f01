package sway

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func affineEqual(a, b [6]float64) bool {
	for i := range a {
		if !approxEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestLocalTransformPosition(t *testing.T) {
	n := NewNode("n", Rect{X: 10, Y: 20})
	want := [6]float64{1, 0, 0, 1, 10, 20}
	if got := computeLocalTransform(n); !affineEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLocalTransformResting(t *testing.T) {
	n := NewNode("n", Rect{X: 10, Y: 20})
	n.SetManipulationTransform(Transform{TranslateY: -100, UncompressedZoom: 1, ZoomX: 1, ZoomY: 1})
	n.SetProperty(PropertyTranslateY, 30)
	n.SetProperty(PropertyScale, 2)

	// T(10, 20+30) * S(2) * T(0, -100)
	want := [6]float64{2, 0, 0, 2, 10, -150}
	if got := computeLocalTransform(n); !affineEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLocalTransformPublishedIgnoresProperties(t *testing.T) {
	n := NewNode("banner", Rect{X: 5})
	n.SetProperty(PropertyTranslateY, 999)
	st := newFakeShared()
	st.value.Translate(0, -60)
	n.bridge(nil).SetSharedContentTransforms(nil, st)

	want := [6]float64{1, 0, 0, 1, 5, -60}
	if got := computeLocalTransform(n); !affineEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	n.Bridge().SetSharedContentTransforms(nil, nil)
	want = [6]float64{1, 0, 0, 1, 5, 999}
	if got := computeLocalTransform(n); !affineEqual(got, want) {
		t.Errorf("after detach got %v, want %v", got, want)
	}
}

func TestUpdateWorldTransformPropagates(t *testing.T) {
	root := NewNode("root", Rect{})
	list := NewNode("list", Rect{X: 100, Y: 50})
	content := NewNode("content", Rect{})
	root.AddChild(list)
	list.AddChild(content)
	content.SetManipulationTransform(Transform{TranslateY: -40, UncompressedZoom: 1, ZoomX: 1, ZoomY: 1})

	updateWorldTransform(root, identityTransform, false)
	want := [6]float64{1, 0, 0, 1, 100, 10}
	if got := content.WorldTransform(); !affineEqual(got, want) {
		t.Errorf("content world = %v, want %v", got, want)
	}

	list.SetPosition(0, 0)
	updateWorldTransform(root, identityTransform, false)
	want = [6]float64{1, 0, 0, 1, 0, -40}
	if got := content.WorldTransform(); !affineEqual(got, want) {
		t.Errorf("after move world = %v, want %v", got, want)
	}
}

func TestPublishedNodeRecomputedEveryFrame(t *testing.T) {
	root := NewNode("root", Rect{})
	content := NewNode("content", Rect{})
	root.AddChild(content)
	st := newFakeShared()
	content.bridge(nil).SetSharedContentTransforms(st, nil)
	updateWorldTransform(root, identityTransform, false)

	st.value.Translate(0, -25)
	updateWorldTransform(root, identityTransform, false)
	if got := content.WorldTransform()[5]; !approxEqual(got, -25) {
		t.Errorf("ty = %v, want -25", got)
	}
}

func TestWorldToLocalRoundTrip(t *testing.T) {
	root := NewNode("root", Rect{})
	n := NewNode("n", Rect{X: 30, Y: 40})
	root.AddChild(n)
	n.SetManipulationTransform(Transform{TranslateX: 5, UncompressedZoom: 2, ZoomX: 2, ZoomY: 2})
	updateWorldTransform(root, identityTransform, false)

	wx, wy := n.LocalToWorld(7, 9)
	lx, ly := n.WorldToLocal(wx, wy)
	if !approxEqual(lx, 7) || !approxEqual(ly, 9) {
		t.Errorf("round trip = (%v, %v), want (7, 9)", lx, ly)
	}
}

func TestInvertAffineSingular(t *testing.T) {
	if got := invertAffine([6]float64{0, 0, 0, 0, 1, 1}); got != identityTransform {
		t.Errorf("singular inverse = %v, want identity", got)
	}
	m := [6]float64{2, 0, 0, 4, 10, 20}
	if got := multiplyAffine(m, invertAffine(m)); !affineEqual(got, identityTransform) {
		t.Errorf("m * inv(m) = %v", got)
	}
}

func TestGeoMConversions(t *testing.T) {
	m := [6]float64{2, 0.5, -0.5, 3, 7, 8}
	if got := geoMToAffine(affineToGeoM(m)); !affineEqual(got, m) {
		t.Errorf("round trip = %v, want %v", got, m)
	}
}

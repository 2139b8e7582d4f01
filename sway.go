package sway

import (
	"fmt"
	"math"
)

// Vec2 is a 2D vector used for positions, offsets, sizes, and velocities
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// valid reports whether every component is finite and the size is non-negative.
func (r Rect) valid() bool {
	for _, v := range [4]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width >= 0 && r.Height >= 0
}

// Transform is the manipulation transform of a viewport's content as
// reported by the manipulation service. ZoomX and ZoomY are the compressed
// scales actually applied; UncompressedZoom is the zoom factor before any
// overpan compression.
type Transform struct {
	TranslateX       float64
	TranslateY       float64
	UncompressedZoom float64
	ZoomX            float64
	ZoomY            float64
}

// IdentityTransform is the resting transform of unmanipulated content.
var IdentityTransform = Transform{UncompressedZoom: 1, ZoomX: 1, ZoomY: 1}

// Matrix returns the transform as an affine matrix [a, b, c, d, tx, ty].
func (t Transform) Matrix() [6]float64 {
	zx, zy := t.ZoomX, t.ZoomY
	if zx == 0 {
		zx = 1
	}
	if zy == 0 {
		zy = 1
	}
	return [6]float64{zx, 0, 0, zy, t.TranslateX, t.TranslateY}
}

// Axis returns the component of t driven by the given axis.
func (t Transform) Axis(a Axis) float64 {
	switch a {
	case AxisTranslationX:
		return t.TranslateX
	case AxisTranslationY:
		return t.TranslateY
	case AxisZoom:
		return t.UncompressedZoom
	}
	return 0
}

// Axis identifies the primary-content property a curve reads.
type Axis uint8

const (
	AxisTranslationX Axis = iota
	AxisTranslationY
	AxisZoom
)

func (a Axis) String() string {
	switch a {
	case AxisTranslationX:
		return "TranslationX"
	case AxisTranslationY:
		return "TranslationY"
	case AxisZoom:
		return "Zoom"
	}
	return fmt.Sprintf("Axis(%d)", a)
}

// isTranslation reports whether values on this axis are offsets rather than scales.
func (a Axis) isTranslation() bool {
	return a == AxisTranslationX || a == AxisTranslationY
}

// MotionTypes is a bitmask of manipulation motions.
type MotionTypes uint8

const (
	MotionNone       MotionTypes = 0
	MotionTranslateX MotionTypes = 1 << 0
	MotionTranslateY MotionTypes = 1 << 1
	MotionZoom       MotionTypes = 1 << 2
	MotionCenterX    MotionTypes = 1 << 3
	MotionCenterY    MotionTypes = 1 << 4

	MotionAll = MotionTranslateX | MotionTranslateY | MotionZoom | MotionCenterX | MotionCenterY
)

// motionForAxis maps a curve's primary axis to the motion that drives it.
func motionForAxis(a Axis) MotionTypes {
	switch a {
	case AxisTranslationX:
		return MotionTranslateX
	case AxisTranslationY:
		return MotionTranslateY
	case AxisZoom:
		return MotionZoom
	}
	return MotionNone
}

// Configuration is a bitmask describing what a viewport is allowed to do.
type Configuration uint16

const (
	ConfigNone          Configuration = 0
	ConfigInteraction   Configuration = 1 << 0
	ConfigTranslateX    Configuration = 1 << 1
	ConfigTranslateY    Configuration = 1 << 2
	ConfigZoom          Configuration = 1 << 3
	ConfigInertia       Configuration = 1 << 4
	ConfigRailsX        Configuration = 1 << 5
	ConfigRailsY        Configuration = 1 << 6
	ConfigZoomInertia   Configuration = 1 << 7
	ConfigTranslateBoth               = ConfigTranslateX | ConfigTranslateY
)

// Has reports whether every bit of flag is set.
func (c Configuration) Has(flag Configuration) bool {
	return c&flag == flag
}

// Motions returns the motion types the configuration permits.
func (c Configuration) Motions() MotionTypes {
	var m MotionTypes
	if c.Has(ConfigTranslateX) {
		m |= MotionTranslateX
	}
	if c.Has(ConfigTranslateY) {
		m |= MotionTranslateY
	}
	if c.Has(ConfigZoom) {
		m |= MotionZoom | MotionCenterX | MotionCenterY
	}
	return m
}

// ContentType classifies content registered with the manipulation service.
type ContentType uint8

const (
	ContentPrimary ContentType = iota
	ContentTopHeader
	ContentLeftHeader
	ContentTopLeftHeader
	ContentCustom
	ContentDescendant
)

func (c ContentType) String() string {
	switch c {
	case ContentPrimary:
		return "Primary"
	case ContentTopHeader:
		return "TopHeader"
	case ContentLeftHeader:
		return "LeftHeader"
	case ContentTopLeftHeader:
		return "TopLeftHeader"
	case ContentCustom:
		return "Custom"
	case ContentDescendant:
		return "Descendant"
	}
	return fmt.Sprintf("ContentType(%d)", c)
}

// InteractionType describes the gesture the service recognized.
type InteractionType uint8

const (
	InteractionNone InteractionType = iota
	InteractionBegin
	InteractionEnd
	InteractionTap
	InteractionHold
	InteractionCrossSlide
	InteractionPinch
)

func (i InteractionType) String() string {
	switch i {
	case InteractionNone:
		return "None"
	case InteractionBegin:
		return "Begin"
	case InteractionEnd:
		return "End"
	case InteractionTap:
		return "Tap"
	case InteractionHold:
		return "Hold"
	case InteractionCrossSlide:
		return "CrossSlide"
	case InteractionPinch:
		return "Pinch"
	}
	return fmt.Sprintf("InteractionType(%d)", i)
}

// DragDropStatus tracks the drag-and-drop phase of a cross-slide gesture.
type DragDropStatus uint8

const (
	DragDropReady DragDropStatus = iota
	DragDropPreparing
	DragDropDetecting
	DragDropDragging
	DragDropCommitted
	DragDropCancelled
)

func (d DragDropStatus) String() string {
	switch d {
	case DragDropReady:
		return "Ready"
	case DragDropPreparing:
		return "Preparing"
	case DragDropDetecting:
		return "Detecting"
	case DragDropDragging:
		return "Dragging"
	case DragDropCommitted:
		return "Committed"
	case DragDropCancelled:
		return "Cancelled"
	}
	return fmt.Sprintf("DragDropStatus(%d)", d)
}

// SecondaryHeaderTransform returns the transform of header-style secondary
// content of the given type when the primary content rests at primary.
// A top header follows horizontal motion only, a left header vertical
// motion only, and a top-left header stays put.
func SecondaryHeaderTransform(typ ContentType, primary Transform) Transform {
	switch typ {
	case ContentTopHeader:
		return Transform{TranslateX: primary.TranslateX, UncompressedZoom: primary.UncompressedZoom, ZoomX: primary.ZoomX, ZoomY: 1}
	case ContentLeftHeader:
		return Transform{TranslateY: primary.TranslateY, UncompressedZoom: primary.UncompressedZoom, ZoomX: 1, ZoomY: primary.ZoomY}
	case ContentTopLeftHeader:
		return IdentityTransform
	}
	return primary
}

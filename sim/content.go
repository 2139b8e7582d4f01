package sim

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/sway"
)

// content is secondary or clip content registered on a viewport. Its
// shared transform is derived from the viewport's primary transform.
type content struct {
	id     sway.ContentID
	typ    sway.ContentType
	curves []sway.CurveDefinition
	offset sway.Vec2
	clip   bool
	shared *sharedTransform
}

// matrix computes the content's transform for primary. Content without
// curves follows the primary transform the way its content type
// prescribes; content with curves gets the properties the curves produce.
func (c *content) matrix(primary sway.Transform) ebiten.GeoM {
	var g ebiten.GeoM
	g.Translate(c.offset.X, c.offset.Y)
	if len(c.curves) == 0 {
		g.Concat(transformGeoM(sway.SecondaryHeaderTransform(c.typ, primary)))
		return g
	}
	tx, ty, scale := 0.0, 0.0, 1.0
	for _, def := range c.curves {
		var out float64
		in := primary.Axis(def.PrimaryAxis)
		if def.PrimaryAxis == sway.AxisZoom {
			out = def.Evaluate(in)
		} else {
			// Curves are authored against the scroll offset, which is the
			// negated translation.
			out = -def.Evaluate(-in)
		}
		switch propertyFor(def) {
		case sway.PropertyTranslateX:
			tx = out
		case sway.PropertyTranslateY:
			ty = out
		case sway.PropertyScale:
			scale = out
		}
	}
	g.Scale(scale, scale)
	g.Translate(tx, ty)
	return g
}

func propertyFor(def sway.CurveDefinition) string {
	if def.Property != "" {
		return def.Property
	}
	switch def.PrimaryAxis {
	case sway.AxisTranslationX:
		return sway.PropertyTranslateX
	case sway.AxisTranslationY:
		return sway.PropertyTranslateY
	}
	return sway.PropertyScale
}

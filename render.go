package sway

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// drawCommand is a single solid rectangle emitted during traversal.
type drawCommand struct {
	node  *Node
	geo   ebiten.GeoM
	color color.RGBA
	clip  image.Rectangle
}

// collectDrawCommands walks the tree depth-first and emits one command per
// visible node, in painter's order. World transforms must be current.
func collectDrawCommands(root *Node, bounds image.Rectangle) []drawCommand {
	var cmds []drawCommand
	collectNode(root, identityTransform, bounds, &cmds)
	return cmds
}

func collectNode(n *Node, parentWorld [6]float64, clip image.Rectangle, cmds *[]drawCommand) {
	if !n.Visible || clip.Empty() {
		return
	}
	if n.Width > 0 && n.Height > 0 && n.Color.A > 0 {
		var g ebiten.GeoM
		g.Scale(n.Width, n.Height)
		g.Concat(affineToGeoM(n.worldTransform))
		*cmds = append(*cmds, drawCommand{node: n, geo: g, color: n.Color, clip: clip})
	}
	if n.ClipChildren {
		clip = clip.Intersect(clipRectFor(n, parentWorld))
	}
	for _, c := range n.children {
		collectNode(c, n.worldTransform, clip, cmds)
	}
}

// clipRectFor returns the screen-space rectangle that n clips its children
// to: its layout rect, moved by the live clip transform when one is
// published.
func clipRectFor(n *Node, parentWorld [6]float64) image.Rectangle {
	m := multiplyAffine(parentWorld, [6]float64{1, 0, 0, 1, n.X, n.Y})
	if b := n.bridgeState; b != nil && b.SharedClipTransform() != nil {
		m = multiplyAffine(m, geoMToAffine(b.ClipMatrix()))
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{0, 0}, {n.Width, 0}, {0, n.Height}, {n.Width, n.Height}} {
		x, y := transformPoint(m, p[0], p[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// affineToGeoM converts [a, b, c, d, tx, ty] to an ebiten.GeoM.
func affineToGeoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

// drawTree renders every visible node as a solid rectangle.
func (s *Scene) drawTree(screen *ebiten.Image) {
	white := ensureWhitePixel()
	var op ebiten.DrawImageOptions
	for _, cmd := range collectDrawCommands(s.root, screen.Bounds()) {
		op.GeoM = cmd.geo
		op.ColorScale.Reset()
		op.ColorScale.ScaleWithColor(cmd.color)
		target := screen
		if cmd.clip != screen.Bounds() {
			target = screen.SubImage(cmd.clip).(*ebiten.Image)
		}
		target.DrawImage(white, &op)
	}
}

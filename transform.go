package sway

import "github.com/hajimehoshi/ebiten/v2"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// Dependency-held property names the scene graph applies to a node's
// local transform. Content relationships usually write these.
const (
	PropertyTranslateX = "TranslateX"
	PropertyTranslateY = "TranslateY"
	PropertyScale      = "Scale"
)

// computeLocalTransform computes the local affine matrix of n.
//
// Composition order:
//
//	resting:   manipulation -> Scale(property) -> Translate(property) -> Translate(X, Y)
//	published: live matrix -> Translate(X, Y)
//
// A live matrix supersedes the dependency-held properties; they are
// rewritten when the manipulation completes.
func computeLocalTransform(n *Node) [6]float64 {
	if b := n.bridgeState; b != nil && b.Published() {
		return multiplyAffine([6]float64{1, 0, 0, 1, n.X, n.Y}, geoMToAffine(b.Matrix()))
	}
	content := n.manipulation.Matrix()
	if s, ok := n.properties[PropertyScale]; ok {
		content = multiplyAffine([6]float64{s, 0, 0, s, 0, 0}, content)
	}
	tx := n.X + n.properties[PropertyTranslateX]
	ty := n.Y + n.properties[PropertyTranslateY]
	return multiplyAffine([6]float64{1, 0, 0, 1, tx, ty}, content)
}

// geoMToAffine converts an ebiten.GeoM to [a, b, c, d, tx, ty].
func geoMToAffine(g ebiten.GeoM) [6]float64 {
	return [6]float64{
		g.Element(0, 0), g.Element(1, 0),
		g.Element(0, 1), g.Element(1, 1),
		g.Element(0, 2), g.Element(1, 2),
	}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular.
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// updateWorldTransform recomputes a node's worldTransform.
// parentRecomputed forces recomputation even if the node is not dirty.
// Nodes with a live published transform are recomputed every frame because
// the service moves them without touching the node.
func updateWorldTransform(n *Node, parentTransform [6]float64, parentRecomputed bool) {
	recompute := n.transformDirty || parentRecomputed ||
		(n.bridgeState != nil && n.bridgeState.Published())
	if recompute {
		local := computeLocalTransform(n)
		n.worldTransform = multiplyAffine(parentTransform, local)
		n.transformDirty = false
	}

	for _, child := range n.children {
		updateWorldTransform(child, n.worldTransform, recompute)
	}
}

// SetPosition sets the node's local X and Y and marks it dirty.
func (n *Node) SetPosition(x, y float64) {
	n.X = x
	n.Y = y
	n.transformDirty = true
}

// MarkDirty marks the node's transform as dirty, forcing recomputation
// on the next frame. Useful after bulk-setting fields directly.
func (n *Node) MarkDirty() {
	n.transformDirty = true
}

// markSubtreeDirty marks n and all its descendants dirty.
func markSubtreeDirty(n *Node) {
	n.transformDirty = true
	for _, c := range n.children {
		markSubtreeDirty(c)
	}
}

// --- Coordinate conversion ---

// WorldToLocal converts a world-space point to this node's local coordinate space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	inv := invertAffine(n.worldTransform)
	return transformPoint(inv, wx, wy)
}

// LocalToWorld converts a local-space point to world-space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return transformPoint(n.worldTransform, lx, ly)
}

// WorldTransform returns the last computed world matrix [a, b, c, d, tx, ty].
func (n *Node) WorldTransform() [6]float64 {
	return n.worldTransform
}

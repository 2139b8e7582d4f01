package sway

import "image/color"

// nodeIDCounter is a plain counter. Nodes are created and mutated on the UI
// thread only.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is a scene-graph element. The layout collaborator positions it with
// X, Y, Width and Height; manipulation adds a content transform on top that
// is either a resting Transform or a live transform published by the
// node's TransformBridge.
type Node struct {
	// Identity
	ID   uint32
	Name string

	// Hierarchy
	Parent   *Node
	children []*Node

	// Layout (local, relative to parent)
	X, Y          float64
	Width, Height float64

	// Visibility & interaction
	Visible      bool
	Interactable bool
	ClipChildren bool
	Color        color.RGBA

	// Metadata
	UserData any
	EntityID uint32

	// manipulation is the resting content transform, applied when no live
	// shared transform is published.
	manipulation Transform

	// Dependency-held values written by content relationships.
	properties map[string]float64

	worldTransform [6]float64
	transformDirty bool

	bridgeState *TransformBridge
	disposed    bool
}

// NewNode creates a visible, interactable node with the given local bounds.
func NewNode(name string, bounds Rect) *Node {
	return &Node{
		ID:             nextNodeID(),
		Name:           name,
		X:              bounds.X,
		Y:              bounds.Y,
		Width:          bounds.Width,
		Height:         bounds.Height,
		Visible:        true,
		Interactable:   true,
		Color:          color.RGBA{0x80, 0x80, 0x80, 0xff},
		manipulation:   IdentityTransform,
		worldTransform: identityTransform,
		transformDirty: true,
	}
}

// Bounds returns the node's local layout rectangle.
func (n *Node) Bounds() Rect {
	return Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// SetBounds updates the node's layout rectangle.
func (n *Node) SetBounds(r Rect) {
	n.X, n.Y, n.Width, n.Height = r.X, r.Y, r.Width, r.Height
	n.MarkDirty()
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("sway: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		panic("sway: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	markSubtreeDirty(child)
	if globalDebug {
		debugCheckTreeDepth(child)
	}
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("sway: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	markSubtreeDirty(child)
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// isAncestor reports whether candidate is node or one of node's ancestors.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// IsAncestorOf reports whether n is a strict ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	if other == nil || other == n {
		return false
	}
	return isAncestor(n, other.Parent)
}

// root returns the topmost ancestor of n.
func (n *Node) root() *Node {
	r := n
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// inTree reports whether n is a live descendant of (or equal to) root.
func (n *Node) inTree(root *Node) bool {
	if n == nil || n.disposed {
		return false
	}
	if root == nil {
		return true
	}
	return n.root() == root
}

// Dispose removes this node from its parent, marks it and its subtree as
// disposed, and schedules release of any published manipulation transforms.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	for _, c := range n.children {
		c.Parent = nil
		c.dispose()
	}
	n.children = nil
	if n.bridgeState != nil {
		n.bridgeState.Release()
		n.bridgeState = nil
	}
	n.properties = nil
	n.disposed = true
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Dependency holder ---

// SetProperty writes a dependency-held value.
func (n *Node) SetProperty(name string, v float64) {
	if n.properties == nil {
		n.properties = make(map[string]float64)
	}
	n.properties[name] = v
	n.MarkDirty()
}

// Property returns a dependency-held value and whether it was ever set.
func (n *Node) Property(name string) (float64, bool) {
	v, ok := n.properties[name]
	return v, ok
}

// --- Manipulation ---

// ManipulationTransform returns the resting content transform.
func (n *Node) ManipulationTransform() Transform {
	return n.manipulation
}

// SetManipulationTransform replaces the resting content transform.
func (n *Node) SetManipulationTransform(t Transform) {
	n.manipulation = t
	n.MarkDirty()
}

// Bridge returns the node's TransformBridge, or nil if it never published a
// manipulation transform.
func (n *Node) Bridge() *TransformBridge {
	return n.bridgeState
}

// bridge returns the TransformBridge, creating it on first use.
func (n *Node) bridge(queue *WorkQueue) *TransformBridge {
	if n.bridgeState == nil {
		n.bridgeState = newTransformBridge(n, queue)
	}
	return n.bridgeState
}

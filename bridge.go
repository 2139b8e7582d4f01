package sway

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// OwnershipListener is told whenever a node starts or stops publishing a
// set of shared transforms. The Registry uses it to keep one shared
// transform from being hosted by two nodes at once.
type OwnershipListener interface {
	TransformOwnershipChanged(node *Node, primary, secondary SharedTransform)
}

// PublishedTransform is the composed property a node publishes into the
// scene graph:
//
//	primary × secondary × Translate(content offset)
//
// Either shared transform may be absent. The content offset is baked in at
// build time.
type PublishedTransform struct {
	primary   SharedTransform
	secondary SharedTransform
	offset    ebiten.GeoM
}

// Evaluate reads the live shared values and composes them.
func (p *PublishedTransform) Evaluate() (ebiten.GeoM, error) {
	g := p.offset
	if p.secondary != nil {
		s, err := p.secondary.Value()
		if err != nil {
			return ebiten.GeoM{}, fmt.Errorf("secondary transform %d: %w", p.secondary.ID(), err)
		}
		g.Concat(s)
	}
	if p.primary != nil {
		m, err := p.primary.Value()
		if err != nil {
			return ebiten.GeoM{}, fmt.Errorf("primary transform %d: %w", p.primary.ID(), err)
		}
		g.Concat(m)
	}
	return g, nil
}

// TransformBridge holds the manipulation-service transforms that drive one
// scene node and publishes them as a single matrix. It is mutated only on
// the UI thread. Released transforms go through the work queue, never
// inline, because a release can run service cleanup that calls back in.
type TransformBridge struct {
	node  *Node
	queue *WorkQueue
	owner OwnershipListener

	svc         Service
	token       ViewportToken
	content     ContentID
	contentType ContentType
	hasContent  bool

	clipSvc     Service
	clipToken   ViewportToken
	clipContent ContentID
	hasClip     bool

	primary   SharedTransform
	secondary SharedTransform
	clip      SharedTransform

	offsetX, offsetY float64

	overall      *PublishedTransform
	overallDirty bool
	builds       int

	last     ebiten.GeoM
	lastClip ebiten.GeoM
}

func newTransformBridge(n *Node, queue *WorkQueue) *TransformBridge {
	return &TransformBridge{node: n, queue: queue}
}

// SetOwnershipListener sets the listener told about ownership changes.
func (b *TransformBridge) SetOwnershipListener(l OwnershipListener) {
	b.owner = l
}

// SetManipulationContent points the bridge at a different service content.
// Any shared transforms of the previous content are released first.
func (b *TransformBridge) SetManipulationContent(svc Service, token ViewportToken, content ContentID, typ ContentType) error {
	if svc == nil {
		return ErrServiceUnavailable
	}
	if b.hasContent && b.svc == svc && b.token == token && b.content == content && b.contentType == typ {
		return nil
	}
	b.SetSharedContentTransforms(nil, nil)
	b.svc, b.token, b.content, b.contentType = svc, token, content, typ
	b.hasContent = true
	Logger().Debug("bridge content set", "node", b.node.Name, "token", token, "content", content, "type", typ)
	return nil
}

// SetClipContent points the bridge's clip at a different service content,
// releasing the previous clip transform first.
func (b *TransformBridge) SetClipContent(svc Service, token ViewportToken, content ContentID) error {
	if svc == nil {
		return ErrServiceUnavailable
	}
	if b.hasClip && b.clipSvc == svc && b.clipToken == token && b.clipContent == content {
		return nil
	}
	b.SetSharedClipTransform(nil)
	b.clipSvc, b.clipToken, b.clipContent = svc, token, content
	b.hasClip = true
	return nil
}

// ContentType returns the content type last set with SetManipulationContent.
func (b *TransformBridge) ContentType() ContentType {
	return b.contentType
}

// SetContentOffset sets the constant translation prepended to the
// published transform. Changing it invalidates the cached property.
func (b *TransformBridge) SetContentOffset(x, y float64) {
	if b.offsetX == x && b.offsetY == y {
		return
	}
	b.offsetX, b.offsetY = x, y
	b.overallDirty = true
}

// SetSharedContentTransforms adopts new primary and secondary shared
// transforms. Only a change of identity counts; the same objects passed
// again are a no-op. On change the cached published property is
// invalidated and the ownership listener is told. It reports whether
// anything changed.
func (b *TransformBridge) SetSharedContentTransforms(primary, secondary SharedTransform) bool {
	if sameShared(b.primary, primary) && sameShared(b.secondary, secondary) {
		return false
	}
	b.primary = b.swap(b.primary, primary)
	b.secondary = b.swap(b.secondary, secondary)
	b.overallDirty = true
	if b.primary == nil && b.secondary == nil {
		b.overall = nil
	}
	if b.owner != nil {
		b.owner.TransformOwnershipChanged(b.node, b.primary, b.secondary)
	}
	return true
}

// SetSharedClipTransform adopts a new clip transform, reporting whether its
// identity changed.
func (b *TransformBridge) SetSharedClipTransform(clip SharedTransform) bool {
	if sameShared(b.clip, clip) {
		return false
	}
	b.clip = b.swap(b.clip, clip)
	return true
}

// swap retains next and schedules release of prev unless they are the same
// object.
func (b *TransformBridge) swap(prev, next SharedTransform) SharedTransform {
	if sameShared(prev, next) {
		return prev
	}
	if next != nil {
		next.Retain()
	}
	releaseLater(b.queue, prev)
	return next
}

func sameShared(a, b SharedTransform) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// SharedContentTransforms returns the adopted primary and secondary transforms.
func (b *TransformBridge) SharedContentTransforms() (primary, secondary SharedTransform) {
	return b.primary, b.secondary
}

// SharedClipTransform returns the adopted clip transform.
func (b *TransformBridge) SharedClipTransform() SharedTransform {
	return b.clip
}

// Published reports whether a live content transform drives the node.
func (b *TransformBridge) Published() bool {
	return b.primary != nil || b.secondary != nil
}

// EnsureOverallContentPropertySet returns the published property, building
// it if the cache was invalidated. It is built at most once per
// invalidation. If a shared transform cannot be read the previous property
// is kept and the error returned. It returns nil when nothing is published.
func (b *TransformBridge) EnsureOverallContentPropertySet() (*PublishedTransform, error) {
	if !b.overallDirty {
		return b.overall, nil
	}
	if !b.Published() {
		b.overall = nil
		b.overallDirty = false
		return nil, nil
	}
	p := &PublishedTransform{primary: b.primary, secondary: b.secondary}
	p.offset.Translate(b.offsetX, b.offsetY)
	if _, err := p.Evaluate(); err != nil {
		return b.overall, fmt.Errorf("build published transform for %q: %w", b.node.Name, err)
	}
	b.overall = p
	b.overallDirty = false
	b.builds++
	Logger().Debug("published transform built", "node", b.node.Name, "builds", b.builds)
	return p, nil
}

// Matrix returns the current published matrix. When nothing can be read it
// returns the last matrix that evaluated successfully.
func (b *TransformBridge) Matrix() ebiten.GeoM {
	p, err := b.EnsureOverallContentPropertySet()
	if err != nil {
		Logger().Debug("using previous transform", "node", b.node.Name, "err", err)
	}
	if p == nil {
		return b.last
	}
	g, err := p.Evaluate()
	if err != nil {
		return b.last
	}
	b.last = g
	return g
}

// ClipMatrix returns the live clip matrix, or the last good one.
func (b *TransformBridge) ClipMatrix() ebiten.GeoM {
	if b.clip == nil {
		return b.lastClip
	}
	g, err := b.clip.Value()
	if err != nil {
		return b.lastClip
	}
	b.lastClip = g
	return g
}

// Release drops every shared transform and forgets the service content.
// Releases are deferred to the work queue.
func (b *TransformBridge) Release() {
	b.SetSharedContentTransforms(nil, nil)
	b.SetSharedClipTransform(nil)
	b.svc, b.clipSvc = nil, nil
	b.hasContent, b.hasClip = false, false
}

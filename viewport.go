package sway

import "weak"

// ViewportInfo is what a container reports about one of its viewports.
type ViewportInfo struct {
	Bounds              Rect
	ContentBounds       Rect
	TouchConfig         Configuration
	NonTouchConfig      Configuration
	BringIntoViewConfig Configuration
	ChainedMotions      MotionTypes
	MinZoom, MaxZoom    float64
	ContentOffset       Vec2
}

// ViewportChange selects which parts of a ViewportInfo to push to the service.
type ViewportChange uint16

const (
	ChangeBounds ViewportChange = 1 << iota
	ChangeContentBounds
	ChangeConfiguration
	ChangeChaining
	ChangeZoomBoundaries
	ChangeContentOffset

	ChangeNone ViewportChange = 0
	ChangeAll                 = ChangeBounds | ChangeContentBounds | ChangeConfiguration |
		ChangeChaining | ChangeZoomBoundaries | ChangeContentOffset
)

type updateKind uint8

const (
	updateStatus updateKind = iota
	updateValues
	updateInteraction
)

// viewportUpdate is one service notification queued on a viewport, applied
// in delivery order during the tick.
type viewportUpdate struct {
	kind        updateKind
	status      ViewportStatus
	previous    ViewportStatus
	transform   Transform
	interaction InteractionType
}

// Viewport tracks one manipulatable region. It is owned by the Registry;
// the container and the manipulated element are held weakly.
type Viewport struct {
	token     ViewportToken
	container weak.Pointer[Node]
	element   weak.Pointer[Node]
	svc       Service

	status      ViewportStatus
	pending     []viewportUpdate
	transform   Transform
	interaction InteractionType

	// info is what was last sent to the service.
	info         ViewportInfo
	activeConfig Configuration
	// deferredChanges are bound changes held back while manipulating.
	deferredChanges ViewportChange

	contacts     []uint32
	sentContacts map[uint32]bool

	relationships     []*ContentRelationship
	clipRelationships []*ContentRelationship

	created   bool
	enabled   bool
	declared  bool
	published bool

	guard      guard
	completing bool
}

func newViewport(token ViewportToken, container, element *Node, svc Service) *Viewport {
	return &Viewport{
		token:        token,
		container:    weak.Make(container),
		element:      weak.Make(element),
		svc:          svc,
		status:       StatusReady,
		transform:    element.ManipulationTransform(),
		sentContacts: make(map[uint32]bool),
	}
}

// Token returns the viewport's service token.
func (v *Viewport) Token() ViewportToken { return v.token }

// Container returns the owning container, or nil once it has been collected.
func (v *Viewport) Container() *Node { return v.container.Value() }

// Element returns the manipulated element, or nil once it has been collected.
func (v *Viewport) Element() *Node { return v.element.Value() }

// Status returns the last applied status.
func (v *Viewport) Status() ViewportStatus { return v.status }

// Transform returns the last transform reported by the service.
func (v *Viewport) Transform() Transform { return v.transform }

// ContentOffset returns the offset applied on top of the raw transform.
func (v *Viewport) ContentOffset() Vec2 { return v.info.ContentOffset }

// InteractionType returns the last reported interaction.
func (v *Viewport) InteractionType() InteractionType { return v.interaction }

// Configurations returns the touch, non-touch and bring-into-view masks.
func (v *Viewport) Configurations() (touch, nonTouch, bringIntoView Configuration) {
	return v.info.TouchConfig, v.info.NonTouchConfig, v.info.BringIntoViewConfig
}

// ActiveConfiguration returns the configuration currently set on the service.
func (v *Viewport) ActiveConfiguration() Configuration { return v.activeConfig }

// ChainedMotions returns the motions that may bubble to an ancestor.
func (v *Viewport) ChainedMotions() MotionTypes { return v.info.ChainedMotions }

// Bounds returns the viewport bounds last sent to the service.
func (v *Viewport) Bounds() Rect { return v.info.Bounds }

// Contacts returns a copy of the registered contact ids.
func (v *Viewport) Contacts() []uint32 {
	out := make([]uint32, len(v.contacts))
	copy(out, v.contacts)
	return out
}

// HasContact reports whether pointerID is registered.
func (v *Viewport) HasContact(pointerID uint32) bool {
	for _, c := range v.contacts {
		if c == pointerID {
			return true
		}
	}
	return false
}

// Relationships returns the attached secondary content relationships.
func (v *Viewport) Relationships() []*ContentRelationship { return v.relationships }

// ClipRelationships returns the attached clip content relationships.
func (v *Viewport) ClipRelationships() []*ContentRelationship { return v.clipRelationships }

// Published reports whether the viewport's transform is live in the scene graph.
func (v *Viewport) Published() bool { return v.published }

func (v *Viewport) addContact(pointerID uint32) bool {
	if v.HasContact(pointerID) {
		return false
	}
	v.contacts = append(v.contacts, pointerID)
	return true
}

func (v *Viewport) removeContact(pointerID uint32) bool {
	for i, c := range v.contacts {
		if c == pointerID {
			v.contacts = append(v.contacts[:i], v.contacts[i+1:]...)
			delete(v.sentContacts, pointerID)
			return true
		}
	}
	return false
}

// transition moves to status to if the edge is legal.
func (v *Viewport) transition(to ViewportStatus) error {
	if !CanTransition(v.status, to) {
		return &StatusTransitionError{From: v.status, To: to}
	}
	v.status = to
	return nil
}

func (v *Viewport) enqueue(u viewportUpdate) {
	v.pending = append(v.pending, u)
}

func (v *Viewport) attachRelationship(rel *ContentRelationship) {
	list := &v.relationships
	if rel.targetsClip {
		list = &v.clipRelationships
	}
	for _, r := range *list {
		if r == rel {
			return
		}
	}
	*list = append(*list, rel)
}

func (v *Viewport) detachRelationship(rel *ContentRelationship) {
	for _, list := range []*[]*ContentRelationship{&v.relationships, &v.clipRelationships} {
		for i, r := range *list {
			if r == rel {
				*list = append((*list)[:i], (*list)[i+1:]...)
				break
			}
		}
	}
}

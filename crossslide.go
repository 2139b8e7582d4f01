package sway

import "weak"

// CrossSlideState is the resolution state of a cross-slide viewport.
type CrossSlideState uint8

const (
	CrossSlideCandidate CrossSlideState = iota
	CrossSlideStarted
	CrossSlideDiscarded
)

func (s CrossSlideState) String() string {
	switch s {
	case CrossSlideCandidate:
		return "Candidate"
	case CrossSlideStarted:
		return "Started"
	case CrossSlideDiscarded:
		return "Discarded"
	}
	return "Unknown"
}

// CrossSlideHandler is implemented by elements that arbitrate gestures
// perpendicular to their scrolling parent, such as drag-to-reorder items.
type CrossSlideHandler interface {
	// CrossSlideStart is called once when the parent viewport did not claim
	// the gesture. parent is the nearest viewport's active configuration,
	// combined is the union over every ancestor that received the contact.
	CrossSlideStart(element *Node, parent, combined Configuration)
	CrossSlideCompleted(element *Node)
	DragDropStatusChanged(element *Node, current, previous DragDropStatus)
}

// CrossSlideViewport is a short-lived viewport that exists only to decide
// whether a starting gesture belongs to its element or to the scrolling
// parent. The Registry resolves every candidate within one tick.
type CrossSlideViewport struct {
	token     ViewportToken
	container weak.Pointer[Node]
	parent    *Viewport
	svc       Service

	parentConfig   Configuration
	combinedConfig Configuration
	dragDrop       DragDropStatus
	contacts       []uint32
	state          CrossSlideState
}

// Token returns the service token.
func (c *CrossSlideViewport) Token() ViewportToken { return c.token }

// Container returns the candidate element, or nil once collected.
func (c *CrossSlideViewport) Container() *Node { return c.container.Value() }

// ParentConfiguration returns the nearest parent viewport's configuration.
func (c *CrossSlideViewport) ParentConfiguration() Configuration { return c.parentConfig }

// CombinedParentConfigurations returns the union of all parent configurations.
func (c *CrossSlideViewport) CombinedParentConfigurations() Configuration { return c.combinedConfig }

// DragDropStatus returns the last reported drag/drop status.
func (c *CrossSlideViewport) DragDropStatus() DragDropStatus { return c.dragDrop }

// State returns the resolution state.
func (c *CrossSlideViewport) State() CrossSlideState { return c.state }

// Contacts returns a copy of the contact ids awaiting resolution.
func (c *CrossSlideViewport) Contacts() []uint32 {
	out := make([]uint32, len(c.contacts))
	copy(out, c.contacts)
	return out
}

func (c *CrossSlideViewport) addContact(id uint32) {
	for _, x := range c.contacts {
		if x == id {
			return
		}
	}
	c.contacts = append(c.contacts, id)
}

func (c *CrossSlideViewport) removeContact(id uint32) bool {
	for i, x := range c.contacts {
		if x == id {
			c.contacts = append(c.contacts[:i], c.contacts[i+1:]...)
			return true
		}
	}
	return false
}

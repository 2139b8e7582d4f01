package sway

import (
	"errors"
	"fmt"
	"slices"
	"weak"
)

// RegisterCrossSlideContainer lets element take part in gesture
// arbitration with its scrolling parent. cfg is the configuration the
// element itself would manipulate with, typically the axis perpendicular to
// the parent's.
func (r *Registry) RegisterCrossSlideContainer(element *Node, handler CrossSlideHandler, cfg Configuration) {
	if element == nil || handler == nil {
		panic("sway: RegisterCrossSlideContainer needs an element and a handler")
	}
	r.csElements[element] = crossSlideRegistration{handler: handler, config: cfg}
}

// UnregisterCrossSlideContainer removes element from gesture arbitration
// and destroys its cross-slide viewport, if any.
func (r *Registry) UnregisterCrossSlideContainer(element *Node) {
	delete(r.csElements, element)
	for _, c := range slices.Clone(r.crossSlide) {
		if c.Container() == element {
			r.destroyCrossSlide(c)
		}
	}
}

// CrossSlideContainerCompleted is called by the element once it has
// finished handling a started cross-slide gesture.
func (r *Registry) CrossSlideContainerCompleted(element *Node) error {
	for _, c := range slices.Clone(r.crossSlide) {
		if c.Container() == element {
			r.destroyCrossSlide(c)
			return nil
		}
	}
	return fmt.Errorf("cross-slide for %q: %w", element.Name, ErrNoViewport)
}

// SetContactOnPointerDown routes a new pointer contact that hit element.
// The contact goes to the viewport of the nearest manipulatable container,
// which is created in Ready if needed, and bubbles to ancestor containers
// whose configuration permits the motions the inner viewport chains. A
// cross-slide element between the hit and the container gets a cross-slide
// viewport for arbitration. It reports whether any viewport took the
// contact.
func (r *Registry) SetContactOnPointerDown(pointerID uint32, element *Node) (bool, error) {
	if element == nil || !r.live(element) {
		return false, ErrNotInTree
	}
	cs, target := r.targetFor(element)
	if cs == nil {
		return false, nil
	}

	// The nearest cross-slide element strictly inside the container.
	var csElement *Node
	for n := element; n != nil && n != cs.node; n = n.Parent {
		if _, ok := r.csElements[n]; ok {
			csElement = n
			break
		}
	}

	var (
		errs     []error
		took     []*Viewport
		inner    *Viewport
		combined Configuration
	)
	for cs != nil {
		v, err := r.addContact(cs, target, pointerID)
		if err != nil {
			errs = append(errs, err)
			break
		}
		if v == nil {
			break
		}
		took = append(took, v)
		combined |= v.activeConfig
		if inner == nil {
			inner = v
		}
		chained := v.info.ChainedMotions
		if chained == MotionNone || cs.node.Parent == nil {
			break
		}
		next, nextTarget := r.targetFor(cs.node.Parent)
		if next == nil {
			break
		}
		info, err := next.handler.ViewportInfo(nextTarget)
		if err != nil || activeConfigFor(next, info).Motions()&chained == 0 {
			break
		}
		cs, target = next, nextTarget
	}

	if inner != nil && csElement != nil {
		if err := r.addCrossSlideContact(csElement, inner, combined, pointerID); err != nil {
			errs = append(errs, err)
		}
	}
	return len(took) > 0, errors.Join(errs...)
}

// addContact registers pointerID on element's viewport. If the service
// rejects it the contact is withdrawn so the element behaves as plain,
// non-manipulatable content. A disabled viewport takes no contacts and
// returns nil without an error.
func (r *Registry) addContact(cs *containerState, element *Node, pointerID uint32) (*Viewport, error) {
	v := r.getOrCreateViewport(cs, element)
	if v.status == StatusDisabled {
		Logger().Debug("contact on disabled viewport", "pointer", pointerID, "token", v.token)
		return nil, nil
	}
	added := v.addContact(pointerID)
	if err := r.setupViewport(v); err != nil {
		if added {
			v.removeContact(pointerID)
		}
		Logger().Warn("contact rejected", "pointer", pointerID, "token", v.token, "err", err)
		return nil, err
	}
	if added && !slices.Contains(r.contacts[pointerID], v.token) {
		r.contacts[pointerID] = append(r.contacts[pointerID], v.token)
	}
	return v, nil
}

func (r *Registry) addCrossSlideContact(element *Node, parent *Viewport, combined Configuration, pointerID uint32) error {
	for _, c := range r.crossSlide {
		if c.Container() == element && c.state != CrossSlideDiscarded {
			c.addContact(pointerID)
			r.contacts[pointerID] = append(r.contacts[pointerID], c.token)
			return nil
		}
	}
	reg := r.csElements[element]
	r.nextToken++
	c := &CrossSlideViewport{
		token:          r.nextToken,
		container:      weak.Make(element),
		parent:         parent,
		svc:            parent.svc,
		parentConfig:   parent.activeConfig,
		combinedConfig: combined,
	}
	if err := c.svc.CreateViewport(c.token); err != nil {
		return fmt.Errorf("create cross-slide viewport: %w", err)
	}
	if err := c.svc.SetConfiguration(c.token, reg.config); err != nil {
		_ = c.svc.RemoveViewport(c.token)
		return fmt.Errorf("configure cross-slide viewport: %w", err)
	}
	c.addContact(pointerID)
	r.crossSlide = append(r.crossSlide, c)
	r.csByToken[c.token] = c
	r.contacts[pointerID] = append(r.contacts[pointerID], c.token)
	Logger().Debug("cross-slide candidate", "token", c.token, "element", element.Name)
	return nil
}

// ReleaseContactOnPointerUp removes pointerID from every viewport and
// cross-slide viewport that holds it.
func (r *Registry) ReleaseContactOnPointerUp(pointerID uint32) error {
	var errs []error
	for _, tok := range r.contacts[pointerID] {
		if v, ok := r.byToken[tok]; ok {
			sent := v.sentContacts[pointerID]
			if v.removeContact(pointerID) && sent && v.created {
				if err := v.svc.ReleaseContact(tok, pointerID); err != nil {
					errs = append(errs, fmt.Errorf("release contact %d on viewport %d: %w", pointerID, tok, err))
				}
			}
			continue
		}
		if c, ok := r.csByToken[tok]; ok {
			c.removeContact(pointerID)
			if len(c.contacts) == 0 && c.state == CrossSlideStarted {
				r.destroyCrossSlide(c)
			}
		}
	}
	delete(r.contacts, pointerID)
	return errors.Join(errs...)
}

// destroyCrossSlide removes c from the service and the registry, telling a
// started element that its gesture is over.
func (r *Registry) destroyCrossSlide(c *CrossSlideViewport) {
	if c.state == CrossSlideStarted {
		if el := c.Container(); el != nil {
			if reg, ok := r.csElements[el]; ok {
				reg.handler.CrossSlideCompleted(el)
			}
		}
	}
	if c.state == CrossSlideCandidate {
		c.state = CrossSlideDiscarded
	}
	if err := c.svc.RemoveViewport(c.token); err != nil {
		Logger().Warn("remove cross-slide viewport", "token", c.token, "err", err)
	}
	for _, id := range c.contacts {
		r.dropContactToken(id, c.token)
	}
	c.contacts = nil
	r.crossSlide = slices.DeleteFunc(r.crossSlide, func(x *CrossSlideViewport) bool { return x == c })
	delete(r.csByToken, c.token)
}

// CancelManipulations stops every manipulation on element and its
// ancestors, dropping their contacts. It reports whether anything was
// cancelled.
func (r *Registry) CancelManipulations(element *Node) (bool, error) {
	var errs []error
	cancelled := false
	for _, v := range slices.Clone(r.viewports) {
		el := v.Element()
		if el == nil || !isAncestor(el, element) {
			continue
		}
		if !v.status.IsActive() && !v.status.isManipulating() && len(v.contacts) == 0 {
			continue
		}
		if v.created {
			if err := v.svc.ReleaseAllContacts(v.token); err != nil {
				errs = append(errs, fmt.Errorf("release contacts on viewport %d: %w", v.token, err))
			}
			if err := v.svc.StopViewport(v.token); err != nil {
				errs = append(errs, fmt.Errorf("stop viewport %d: %w", v.token, err))
			}
		}
		for _, id := range v.contacts {
			r.dropContactToken(id, v.token)
		}
		v.contacts = nil
		clear(v.sentContacts)
		cancelled = true
	}
	for _, c := range slices.Clone(r.crossSlide) {
		if el := c.Container(); el != nil && (isAncestor(el, element) || isAncestor(element, el)) {
			r.destroyCrossSlide(c)
			cancelled = true
		}
	}
	return cancelled, errors.Join(errs...)
}

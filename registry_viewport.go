package sway

import (
	"errors"
	"fmt"
	"slices"
)

// targetFor walks up from element to the nearest container that can
// manipulate it and returns that container and its manipulated element.
func (r *Registry) targetFor(element *Node) (*containerState, *Node) {
	for n := element; n != nil; n = n.Parent {
		cs, ok := r.containers[n]
		if !ok || !cs.initialized || !cs.canManipulate() || len(cs.elements) == 0 {
			continue
		}
		for _, e := range cs.elements {
			if isAncestor(e, element) {
				return cs, e
			}
		}
		return cs, cs.elements[0]
	}
	return nil, nil
}

// ensureViewport returns the viewport for element, creating it in Ready
// if needed, and brings it in sync with the service. The viewport is
// returned even when the service setup fails so it can be retried.
func (r *Registry) ensureViewport(cs *containerState, element *Node) (*Viewport, error) {
	v := r.getOrCreateViewport(cs, element)
	return v, r.setupViewport(v)
}

func (r *Registry) getOrCreateViewport(cs *containerState, element *Node) *Viewport {
	if v := r.ViewportFor(element); v != nil {
		return v
	}
	r.nextToken++
	v := newViewport(r.nextToken, cs.node, element, cs.svc)
	r.viewports = append(r.viewports, v)
	r.byToken[v.token] = v
	Logger().Debug("viewport created", "token", v.token, "element", element.Name)
	return v
}

// setupViewport creates and enables the viewport in the service, pushes its
// info and content, and registers outstanding contacts.
func (r *Registry) setupViewport(v *Viewport) error {
	container, element := v.Container(), v.Element()
	if container == nil || element == nil {
		return ErrReleased
	}
	cs, ok := r.containers[container]
	if !ok || !cs.initialized {
		return ErrNotContainer
	}
	if !v.created {
		info, err := cs.handler.ViewportInfo(element)
		if err != nil {
			return fmt.Errorf("viewport info for %q: %w", element.Name, err)
		}
		if !info.Bounds.valid() || !info.ContentBounds.valid() {
			return ErrInvalidBounds
		}
		if err := v.svc.CreateViewport(v.token); err != nil {
			return fmt.Errorf("create viewport %d: %w", v.token, err)
		}
		v.created = true
		if t := element.ManipulationTransform(); t != IdentityTransform {
			if err := v.svc.SetPrimaryTransform(v.token, t); err != nil {
				return fmt.Errorf("set primary transform on viewport %d: %w", v.token, err)
			}
		}
		if _, err := r.pushViewportInfo(cs, v, info, ChangeAll, true); err != nil {
			return err
		}
		if err := r.addContentToViewport(cs, v); err != nil {
			return err
		}
	}
	if !v.enabled && cs.canManipulate() && v.status != StatusDisabled {
		if err := v.svc.EnableViewport(v.token); err != nil {
			return fmt.Errorf("enable viewport %d: %w", v.token, err)
		}
		v.enabled = true
	}
	return r.syncContacts(v)
}

func (r *Registry) syncContacts(v *Viewport) error {
	for _, id := range v.contacts {
		if v.sentContacts[id] {
			continue
		}
		if err := v.svc.AddContact(v.token, id); err != nil {
			return fmt.Errorf("add contact %d to viewport %d: %w", id, v.token, err)
		}
		v.sentContacts[id] = true
	}
	return nil
}

func activeConfigFor(cs *containerState, info ViewportInfo) Configuration {
	if cs.canTouch && info.TouchConfig != ConfigNone {
		return info.TouchConfig
	}
	if cs.canNonTouch {
		return info.NonTouchConfig
	}
	return ConfigNone
}

// pushViewportInfo sends the parts of info selected by changes that differ
// from what the service last received, or all of them when force is set.
// It reports whether any service call was made.
func (r *Registry) pushViewportInfo(cs *containerState, v *Viewport, info ViewportInfo, changes ViewportChange, force bool) (bool, error) {
	sent := false
	tok := v.token
	if changes&ChangeBounds != 0 && (force || info.Bounds != v.info.Bounds) {
		if err := v.svc.SetBounds(tok, info.Bounds); err != nil {
			return sent, fmt.Errorf("set bounds on viewport %d: %w", tok, err)
		}
		v.info.Bounds = info.Bounds
		sent = true
	}
	if changes&ChangeContentBounds != 0 && (force || info.ContentBounds != v.info.ContentBounds) {
		if err := v.svc.SetContentBounds(tok, info.ContentBounds); err != nil {
			return sent, fmt.Errorf("set content bounds on viewport %d: %w", tok, err)
		}
		v.info.ContentBounds = info.ContentBounds
		sent = true
	}
	if changes&ChangeConfiguration != 0 {
		v.info.TouchConfig = info.TouchConfig
		v.info.NonTouchConfig = info.NonTouchConfig
		v.info.BringIntoViewConfig = info.BringIntoViewConfig
		cfg := activeConfigFor(cs, info)
		if force || cfg != v.activeConfig {
			if err := v.svc.SetConfiguration(tok, cfg); err != nil {
				return sent, fmt.Errorf("set configuration on viewport %d: %w", tok, err)
			}
			v.activeConfig = cfg
			sent = true
		}
	}
	if changes&ChangeChaining != 0 && (force || info.ChainedMotions != v.info.ChainedMotions) {
		if err := v.svc.SetChaining(tok, info.ChainedMotions); err != nil {
			return sent, fmt.Errorf("set chaining on viewport %d: %w", tok, err)
		}
		v.info.ChainedMotions = info.ChainedMotions
		sent = true
	}
	if changes&ChangeZoomBoundaries != 0 && (force || info.MinZoom != v.info.MinZoom || info.MaxZoom != v.info.MaxZoom) {
		if err := v.svc.SetZoomBoundaries(tok, info.MinZoom, info.MaxZoom); err != nil {
			return sent, fmt.Errorf("set zoom boundaries on viewport %d: %w", tok, err)
		}
		v.info.MinZoom, v.info.MaxZoom = info.MinZoom, info.MaxZoom
		sent = true
	}
	if changes&ChangeContentOffset != 0 && info.ContentOffset != v.info.ContentOffset {
		v.info.ContentOffset = info.ContentOffset
		if el := v.Element(); el != nil && el.bridgeState != nil {
			el.bridgeState.SetContentOffset(info.ContentOffset.X, info.ContentOffset.Y)
		}
	}
	return sent, nil
}

// unregisterViewport completes any manipulation in flight, removes the
// viewport from the service and forgets it. Service errors are reported but
// the viewport is removed regardless.
func (r *Registry) unregisterViewport(v *Viewport) error {
	var errs []error
	if v.status.IsActive() || v.status.isManipulating() {
		if err := v.transition(StatusDisabled); err == nil {
			r.completeDirectManipulation(v)
		}
	}
	for _, c := range slices.Clone(r.crossSlide) {
		if c.parent == v {
			r.destroyCrossSlide(c)
		}
	}
	if v.created {
		if v.enabled {
			if err := v.svc.DisableViewport(v.token); err != nil {
				errs = append(errs, fmt.Errorf("disable viewport %d: %w", v.token, err))
			}
		}
		if err := v.svc.RemoveViewport(v.token); err != nil {
			errs = append(errs, fmt.Errorf("remove viewport %d: %w", v.token, err))
		}
	}
	prev := v.status
	if v.status != StatusReady && v.status != StatusDisabled {
		v.status = StatusDisabled
	}
	_ = v.transition(StatusUnregistering)
	v.enabled, v.created = false, false

	for _, id := range v.contacts {
		r.dropContactToken(id, v.token)
	}
	v.contacts = nil
	for _, rel := range append(slices.Clone(v.relationships), v.clipRelationships...) {
		rel.token = 0
		if s := rel.Secondary(); s != nil && s.bridgeState != nil {
			s.bridgeState.Release()
		}
	}
	v.relationships, v.clipRelationships = nil, nil
	if el := v.Element(); el != nil {
		if el.bridgeState != nil {
			el.bridgeState.Release()
		}
		if cs, ok := r.containers[v.Container()]; ok {
			for _, sc := range cs.secondary[el] {
				if n := sc.content.Value(); n != nil && n.bridgeState != nil {
					n.bridgeState.Release()
				}
			}
		}
	}

	r.viewports = slices.DeleteFunc(r.viewports, func(x *Viewport) bool { return x == v })
	r.compositorQueue = slices.DeleteFunc(r.compositorQueue, func(x *Viewport) bool { return x == v })
	delete(r.byToken, v.token)
	v.declared, v.published = false, false
	v.pending = nil

	Logger().Debug("viewport unregistered", "token", v.token, "previous", prev)
	e := r.viewportEvent(EventViewportStatusChanged, v)
	e.Previous = prev
	r.emit(e)
	return errors.Join(errs...)
}

func (r *Registry) dropContactToken(pointerID uint32, token ViewportToken) {
	toks := slices.DeleteFunc(r.contacts[pointerID], func(t ViewportToken) bool { return t == token })
	if len(toks) == 0 {
		delete(r.contacts, pointerID)
		return
	}
	r.contacts[pointerID] = toks
}

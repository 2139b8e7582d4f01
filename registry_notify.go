package sway

import (
	"errors"
	"fmt"
	"slices"
)

func (r *Registry) container(container *Node) (*containerState, error) {
	cs, ok := r.containers[container]
	if !ok {
		return nil, fmt.Errorf("%q: %w", container.Name, ErrNotContainer)
	}
	return cs, nil
}

// NotifyManipulatableElementChanged replaces oldElement with newElement as
// content manipulated by container. Either may be nil to add or remove.
// The old element's viewport is unregistered immediately.
func (r *Registry) NotifyManipulatableElementChanged(container, oldElement, newElement *Node) error {
	cs, err := r.container(container)
	if err != nil {
		return err
	}
	var errs []error
	if oldElement != nil {
		cs.elements = slices.DeleteFunc(cs.elements, func(n *Node) bool { return n == oldElement })
		if v := r.ViewportFor(oldElement); v != nil {
			errs = append(errs, r.unregisterViewport(v))
		}
	}
	if newElement != nil && !slices.Contains(cs.elements, newElement) {
		cs.elements = append(cs.elements, newElement)
	}
	return errors.Join(errs...)
}

// NotifyCanManipulateElements enables or disables manipulation of the
// container's content per input kind. Disabling every kind stops all
// manipulation and moves the container's viewports to Disabled; enabling
// again returns them to Ready.
func (r *Registry) NotifyCanManipulateElements(container *Node, touch, nonTouch, bringIntoView bool) error {
	cs, err := r.container(container)
	if err != nil {
		return err
	}
	was := cs.canManipulate()
	cs.canTouch, cs.canNonTouch, cs.canBringIntoView = touch, nonTouch, bringIntoView

	var errs []error
	for _, v := range slices.Clone(r.viewports) {
		if v.Container() != container {
			continue
		}
		switch {
		case was && !cs.canManipulate():
			errs = append(errs, r.disableViewport(v))
		case !was && cs.canManipulate() && v.status == StatusDisabled:
			if err := v.transition(StatusReady); err != nil {
				errs = append(errs, err)
				continue
			}
			r.emitStatus(v, StatusDisabled)
			errs = append(errs, r.setupViewport(v))
		default:
			if v.created {
				info, err := cs.handler.ViewportInfo(v.Element())
				if err != nil {
					errs = append(errs, err)
					continue
				}
				_, err = r.pushViewportInfo(cs, v, info, ChangeConfiguration, false)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// NotifyViewportChanged tells the registry the container's layout or
// configuration for element changed. While inManipulation is set, bound
// changes are held back and pushed when the manipulation completes. It
// reports whether anything was sent to the service.
func (r *Registry) NotifyViewportChanged(container, element *Node, inManipulation bool, changes ViewportChange) (bool, error) {
	v := r.ViewportFor(element)
	if v == nil || !v.created {
		return false, nil
	}
	if inManipulation {
		held := changes & (ChangeBounds | ChangeContentBounds)
		v.deferredChanges |= held
		changes &^= held
	}
	if changes == ChangeNone {
		return false, nil
	}
	return r.UpdateManipulationViewport(container, element, changes)
}

// UpdateManipulationViewport fetches fresh viewport info from the container
// and pushes the selected changes that differ from what the service has.
// Invalid bounds are rejected and nothing is sent. It reports whether any
// service call was made.
func (r *Registry) UpdateManipulationViewport(container, element *Node, changes ViewportChange) (bool, error) {
	cs, err := r.container(container)
	if err != nil {
		return false, err
	}
	v := r.ViewportFor(element)
	if v == nil {
		return false, fmt.Errorf("%q: %w", element.Name, ErrNoViewport)
	}
	if !v.created {
		return false, nil
	}
	info, err := cs.handler.ViewportInfo(element)
	if err != nil {
		return false, fmt.Errorf("viewport info for %q: %w", element.Name, err)
	}
	if !info.Bounds.valid() || !info.ContentBounds.valid() {
		return false, ErrInvalidBounds
	}
	return r.pushViewportInfo(cs, v, info, changes, false)
}

// NotifyPrimaryContentTransformChanged sets a new resting transform on
// element and, when no manipulation is running, on the service.
func (r *Registry) NotifyPrimaryContentTransformChanged(container, element *Node, t Transform) error {
	if _, err := r.container(container); err != nil {
		return err
	}
	element.SetManipulationTransform(t)
	v := r.ViewportFor(element)
	if v == nil || !v.created || v.status.IsActive() || v.status.isManipulating() {
		return nil
	}
	if err := v.svc.SetPrimaryTransform(v.token, t); err != nil {
		return fmt.Errorf("set primary transform on viewport %d: %w", v.token, err)
	}
	v.transform = t
	return nil
}

// programmaticViewport returns a set-up viewport for a programmatic
// manipulation of element, or nil if one may not start now.
func (r *Registry) programmaticViewport(container, element *Node) (*Viewport, error) {
	cs, err := r.container(container)
	if err != nil {
		return nil, err
	}
	if !cs.initialized {
		return nil, ErrNoHost
	}
	if !cs.canBringIntoView {
		return nil, nil
	}
	v, err := r.ensureViewport(cs, element)
	if err != nil {
		return nil, err
	}
	if v.status.isManipulating() || v.status == StatusDisabled || r.HasChainingChildViewport(v, true) {
		return nil, nil
	}
	return v, nil
}

// BringIntoViewport scrolls element's content so bounds is visible,
// animated or instantly. It reports false when a user manipulation or an
// active chaining child prevents it.
func (r *Registry) BringIntoViewport(container, element *Node, bounds Rect, animate bool) (bool, error) {
	if !bounds.valid() {
		return false, ErrInvalidBounds
	}
	v, err := r.programmaticViewport(container, element)
	if v == nil || err != nil {
		return false, err
	}
	if cfg := v.info.BringIntoViewConfig; cfg != ConfigNone && cfg != v.activeConfig {
		if err := v.svc.SetConfiguration(v.token, cfg); err != nil {
			return false, fmt.Errorf("set configuration on viewport %d: %w", v.token, err)
		}
		v.activeConfig = cfg
	}
	if err := v.svc.BringIntoViewport(v.token, bounds, animate); err != nil {
		return false, fmt.Errorf("bring into viewport %d: %w", v.token, err)
	}
	return true, nil
}

// SetConstantVelocities starts, changes or (with zero velocities) stops a
// constant-velocity pan of element's content.
func (r *Registry) SetConstantVelocities(container, element *Node, vx, vy float64) error {
	v, err := r.programmaticViewport(container, element)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("%q: %w", element.Name, ErrNoViewport)
	}
	if err := v.svc.SetConstantVelocities(v.token, vx, vy); err != nil {
		return fmt.Errorf("set constant velocities on viewport %d: %w", v.token, err)
	}
	return nil
}

// StopInertialViewport asks the service to stop v's inertia. It reports
// false when v is not in inertia. Completion follows through the normal
// status notification.
func (r *Registry) StopInertialViewport(v *Viewport) (bool, error) {
	if v == nil || v.status != StatusInertia || !v.created {
		return false, nil
	}
	if err := v.svc.StopViewport(v.token); err != nil {
		return false, fmt.Errorf("stop viewport %d: %w", v.token, err)
	}
	return true, nil
}

// DisableViewport disables the viewport manipulating element. Calling it on
// a disabled viewport does nothing.
func (r *Registry) DisableViewport(container, element *Node) error {
	if _, err := r.container(container); err != nil {
		return err
	}
	v := r.ViewportFor(element)
	if v == nil {
		return nil
	}
	return r.disableViewport(v)
}

func (r *Registry) disableViewport(v *Viewport) error {
	if v.status == StatusDisabled || v.status == StatusUnregistering {
		return nil
	}
	var errs []error
	if v.created && v.enabled {
		if err := v.svc.DisableViewport(v.token); err != nil {
			errs = append(errs, fmt.Errorf("disable viewport %d: %w", v.token, err))
		}
	}
	v.enabled = false
	prev := v.status
	if err := v.transition(StatusDisabled); err != nil {
		return errors.Join(append(errs, err)...)
	}
	r.emitStatus(v, prev)
	if prev.IsActive() || prev.isManipulating() {
		r.completeDirectManipulation(v)
	}
	return errors.Join(errs...)
}

// HasChainingChildViewport reports whether a viewport nested inside v
// chains motion to it. With checkState set only children currently being
// manipulated or in inertia count; otherwise only resting (Ready) children
// count.
func (r *Registry) HasChainingChildViewport(v *Viewport, checkState bool) bool {
	el := v.Element()
	if el == nil {
		return false
	}
	for _, c := range r.viewports {
		if c == v || c.info.ChainedMotions == MotionNone {
			continue
		}
		cel := c.Element()
		if cel == nil || !el.IsAncestorOf(cel) {
			continue
		}
		if checkState {
			if c.status.isManipulating() || c.status.IsActive() {
				return true
			}
		} else if c.status == StatusReady {
			return true
		}
	}
	return false
}

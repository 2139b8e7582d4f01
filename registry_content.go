package sway

import (
	"errors"
	"fmt"
	"slices"
	"weak"
)

// NotifySecondaryContentAdded registers content as a header-style
// secondary of element: the service moves it along the axes its type
// follows. It is re-added whenever element gets a new viewport.
func (r *Registry) NotifySecondaryContentAdded(container, element, content *Node, typ ContentType) error {
	cs, err := r.container(container)
	if err != nil {
		return err
	}
	for _, sc := range cs.secondary[element] {
		if sc.content.Value() == content {
			return nil
		}
	}
	sc := &secondaryContent{content: weak.Make(content), id: r.nextContentID(), typ: typ}
	cs.secondary[element] = append(cs.secondary[element], sc)
	v := r.ViewportFor(element)
	if v == nil || !v.created {
		return nil
	}
	if err := v.svc.AddSecondaryContent(v.token, sc.id, typ, nil, Vec2{}); err != nil {
		return fmt.Errorf("add secondary content to viewport %d: %w", v.token, err)
	}
	if v.published {
		r.declareNewViewportForCompositor(v)
	}
	return nil
}

// NotifySecondaryContentRemoved unregisters header-style content. The
// content keeps the transform it had when the last manipulation completed.
func (r *Registry) NotifySecondaryContentRemoved(container, element, content *Node) error {
	cs, err := r.container(container)
	if err != nil {
		return err
	}
	list := cs.secondary[element]
	i := slices.IndexFunc(list, func(sc *secondaryContent) bool { return sc.content.Value() == content })
	if i < 0 {
		return nil
	}
	sc := list[i]
	cs.secondary[element] = slices.Delete(list, i, i+1)
	if content != nil && content.bridgeState != nil {
		content.bridgeState.Release()
	}
	v := r.ViewportFor(element)
	if v == nil || !v.created {
		return nil
	}
	if err := v.svc.RemoveSecondaryContent(v.token, sc.id); err != nil {
		return fmt.Errorf("remove secondary content from viewport %d: %w", v.token, err)
	}
	return nil
}

// addContentToViewport registers every header and applied relationship of
// v's element with the service.
func (r *Registry) addContentToViewport(cs *containerState, v *Viewport) error {
	el := v.Element()
	for _, sc := range cs.secondary[el] {
		if sc.content.Value() == nil {
			continue
		}
		if err := v.svc.AddSecondaryContent(v.token, sc.id, sc.typ, nil, Vec2{}); err != nil {
			return fmt.Errorf("add secondary content to viewport %d: %w", v.token, err)
		}
	}
	for _, rel := range r.relationships[el] {
		if err := r.materialize(rel, v); err != nil {
			return err
		}
	}
	return nil
}

// materialize registers rel's curves with v's service and attaches it.
func (r *Registry) materialize(rel *ContentRelationship, v *Viewport) error {
	if rel.token == v.token {
		return nil
	}
	var err error
	if rel.targetsClip {
		err = v.svc.AddClipContent(v.token, rel.id, rel.definitions())
	} else {
		err = v.svc.AddSecondaryContent(v.token, rel.id, ContentCustom, rel.definitions(), Vec2{})
	}
	if err != nil {
		return fmt.Errorf("materialize relationship %d on viewport %d: %w", rel.id, v.token, err)
	}
	rel.token = v.token
	v.attachRelationship(rel)
	if v.published {
		r.declareNewViewportForCompositor(v)
	}
	return nil
}

// ApplySecondaryContentRelationship queues rel and then materializes every
// queued relationship in FIFO order, so relationships applied in the same
// turn keep their relative order. Applying an applied relationship does
// nothing.
func (r *Registry) ApplySecondaryContentRelationship(rel *ContentRelationship) error {
	if rel.applied {
		return nil
	}
	if !rel.pending {
		if err := rel.resolve(); err != nil {
			return err
		}
		p := rel.primary.Value()
		if p == nil || p.IsDisposed() {
			return fmt.Errorf("relationship %d primary: %w", rel.id, ErrReleased)
		}
		rel.keepAlive = p
		rel.pending = true
	}
	if !slices.Contains(r.pendingRelationships, rel) {
		r.pendingRelationships = append(r.pendingRelationships, rel)
	}
	return r.ApplySecondaryContentRelationships()
}

// ApplySecondaryContentRelationships materializes queued relationships in
// order. It stops at the first service failure and leaves the rest queued
// for the next tick. Relationships whose nodes were released are dropped.
func (r *Registry) ApplySecondaryContentRelationships() error {
	release, ok := r.applyGuard.enter()
	if !ok {
		return nil
	}
	defer release()

	var errs []error
	for len(r.pendingRelationships) > 0 {
		rel := r.pendingRelationships[0]
		primary := rel.keepAlive
		if primary == nil || primary.IsDisposed() || rel.Secondary() == nil || rel.Holder() == nil {
			r.pendingRelationships = r.pendingRelationships[1:]
			rel.pending, rel.keepAlive = false, nil
			errs = append(errs, fmt.Errorf("relationship %d: %w", rel.id, ErrReleased))
			continue
		}
		if v := r.ViewportFor(primary); v != nil && v.created {
			if err := r.materialize(rel, v); err != nil {
				errs = append(errs, err)
				break
			}
		}
		r.pendingRelationships = r.pendingRelationships[1:]
		if !slices.Contains(r.relationships[primary], rel) {
			r.relationships[primary] = append(r.relationships[primary], rel)
		}
		rel.pending = false
		rel.applied = true
		Logger().Debug("relationship applied", "id", rel.id, "primary", primary.Name)
	}
	return errors.Join(errs...)
}

// RemoveSecondaryContentRelationship detaches rel from its viewport and the
// service. It is idempotent.
func (r *Registry) RemoveSecondaryContentRelationship(rel *ContentRelationship) error {
	r.pendingRelationships = slices.DeleteFunc(r.pendingRelationships, func(x *ContentRelationship) bool { return x == rel })
	var err error
	if v, ok := r.byToken[rel.token]; ok {
		v.detachRelationship(rel)
		if v.created {
			if rel.targetsClip {
				err = v.svc.RemoveClipContent(v.token, rel.id)
			} else {
				err = v.svc.RemoveSecondaryContent(v.token, rel.id)
			}
			if err != nil {
				err = fmt.Errorf("remove relationship %d from viewport %d: %w", rel.id, v.token, err)
			}
		}
	}
	for primary, list := range r.relationships {
		list = slices.DeleteFunc(list, func(x *ContentRelationship) bool { return x == rel })
		if len(list) == 0 {
			delete(r.relationships, primary)
		} else {
			r.relationships[primary] = list
		}
	}
	if s := rel.Secondary(); s != nil && s.bridgeState != nil {
		if rel.targetsClip {
			s.bridgeState.SetSharedClipTransform(nil)
		} else {
			s.bridgeState.SetSharedContentTransforms(nil, nil)
		}
	}
	rel.token = 0
	rel.pending, rel.applied = false, false
	rel.keepAlive = nil
	return err
}

// updateRelationships refreshes the dependency properties of every
// relationship attached to v.
func (r *Registry) updateRelationships(v *Viewport, completing bool) error {
	var errs []error
	for _, rel := range v.clipRelationships {
		errs = append(errs, rel.UpdateDependencyProperties(completing))
	}
	for _, rel := range v.relationships {
		errs = append(errs, rel.UpdateDependencyProperties(completing))
	}
	return errors.Join(errs...)
}

// pruneRelationships removes relationships whose primary left the tree.
func (r *Registry) pruneRelationships() {
	for primary, list := range r.relationships {
		if r.live(primary) {
			continue
		}
		for _, rel := range slices.Clone(list) {
			if err := rel.Remove(); err != nil {
				Logger().Warn("remove orphaned relationship", "id", rel.id, "err", err)
			}
		}
	}
}

package sway

import (
	"errors"
	"fmt"
	"slices"
)

// ProcessUIThreadTick runs the once-per-tick reconciliation: queued
// containers are initialized, service events are routed to their
// viewports, queued relationships are applied, viewport changes are
// processed and cross-slide candidates are resolved. A nested call from
// inside a callback returns immediately.
func (r *Registry) ProcessUIThreadTick() error {
	release, ok := r.tickGuard.enter()
	if !ok {
		return nil
	}
	defer release()

	var errs []error
	errs = append(errs, r.initializePendingContainers())
	r.dispatchServiceEvents()
	errs = append(errs, r.ApplySecondaryContentRelationships())
	errs = append(errs, r.ProcessDirectManipulationViewportChanges())
	r.resolveCrossSlideViewports()
	return errors.Join(errs...)
}

// dispatchServiceEvents drains the mailbox onto the viewports' update
// queues, preserving delivery order.
func (r *Registry) dispatchServiceEvents() {
	for _, e := range r.mailbox.drain() {
		if e.kind == eventDragDrop {
			r.applyDragDrop(e)
			continue
		}
		v, ok := r.byToken[e.token]
		if !ok {
			if _, cs := r.csByToken[e.token]; !cs {
				Logger().Debug("event for unknown viewport", "token", e.token)
			}
			continue
		}
		switch e.kind {
		case eventStatus:
			v.enqueue(viewportUpdate{kind: updateStatus, status: e.status, previous: e.prevStatus})
		case eventValues:
			v.enqueue(viewportUpdate{kind: updateValues, transform: e.transform})
		case eventInteraction:
			v.enqueue(viewportUpdate{kind: updateInteraction, interaction: e.interaction})
		}
	}
}

func (r *Registry) applyDragDrop(e serviceEvent) {
	c, ok := r.csByToken[e.token]
	if !ok {
		return
	}
	prev := c.dragDrop
	c.dragDrop = e.dragDrop
	if el := c.Container(); el != nil {
		if reg, ok := r.csElements[el]; ok {
			reg.handler.DragDropStatusChanged(el, e.dragDrop, prev)
		}
	}
}

// ProcessDirectManipulationViewportChanges applies every viewport's queued
// status and value updates in delivery order. A failing viewport is
// skipped and retried next tick without holding up the others. While any
// viewport is manipulating or in inertia another frame is requested.
func (r *Registry) ProcessDirectManipulationViewportChanges() error {
	var errs []error
	busy := false
	for _, v := range slices.Clone(r.viewports) {
		if _, ok := r.byToken[v.token]; !ok {
			continue
		}
		if err := r.processViewportChanges(v); err != nil {
			Logger().Warn("viewport update failed", "token", v.token, "err", err)
			errs = append(errs, fmt.Errorf("viewport %d: %w", v.token, err))
		}
		if v.status.IsActive() || v.status.isManipulating() {
			busy = true
		}
	}
	if busy && r.cfg.RequestFramesWhileActive && r.frames != nil {
		r.frames.RequestAdditionalFrame()
	}
	return errors.Join(errs...)
}

func (r *Registry) processViewportChanges(v *Viewport) error {
	release, ok := v.guard.enter()
	if !ok {
		return nil
	}
	defer release()

	if !v.created || (!v.enabled && v.status != StatusDisabled) {
		if err := r.setupViewport(v); err != nil {
			return err
		}
	}
	var errs []error
	for len(v.pending) > 0 {
		u := v.pending[0]
		v.pending = v.pending[1:]
		switch u.kind {
		case updateStatus:
			errs = append(errs, r.processStatusUpdate(v, u.status))
		case updateValues:
			errs = append(errs, r.processValuesUpdate(v, u.transform))
		case updateInteraction:
			v.interaction = u.interaction
			r.emit(r.viewportEvent(EventInteractionTypeChanged, v))
		}
		if _, ok := r.byToken[v.token]; !ok {
			break
		}
	}
	return errors.Join(errs...)
}

// processStatusUpdate applies one status notification. Illegal edges are
// rejected and leave the viewport unchanged.
func (r *Registry) processStatusUpdate(v *Viewport, to ViewportStatus) error {
	from := v.status
	if from == to {
		return nil
	}
	if err := v.transition(to); err != nil {
		Logger().Warn("ignoring status change", "token", v.token, "from", from, "to", to)
		return err
	}
	Logger().Debug("viewport status", "token", v.token, "from", from, "to", to)

	el := v.Element()
	cs := r.containers[v.Container()]
	switch to {
	case StatusManipulationStarting:
		if cs != nil && el != nil {
			cs.handler.ManipulationStarting(el)
		}
	case StatusStarted:
		if cs != nil && el != nil {
			cs.handler.ManipulationStarted(el)
		}
	case StatusRunning, StatusInertia, StatusAutoRunning:
		r.declareNewViewportForCompositor(v)
	}
	r.emitStatus(v, from)

	if (to == StatusReady || to == StatusDisabled) && (from.IsActive() || from.isManipulating()) {
		r.completeDirectManipulation(v)
	}
	return nil
}

// processValuesUpdate records a new transform. Values that arrive while the
// viewport is at rest, such as an instant bring-into-view, become the
// element's resting transform directly.
func (r *Registry) processValuesUpdate(v *Viewport, t Transform) error {
	v.transform = t
	el := v.Element()
	if el == nil {
		return ErrReleased
	}
	if cs := r.containers[v.Container()]; cs != nil {
		cs.handler.ManipulationDelta(el, t, v.status == StatusInertia)
	}
	if !v.status.IsActive() && !v.status.isManipulating() {
		el.SetManipulationTransform(t)
		r.restSecondaryContent(v)
		return r.updateRelationships(v, true)
	}
	return r.updateRelationships(v, false)
}

func (r *Registry) emitStatus(v *Viewport, prev ViewportStatus) {
	e := r.viewportEvent(EventViewportStatusChanged, v)
	e.Previous = prev
	r.emit(e)
}

// declareNewViewportForCompositor queues v's transform for publication at
// the next compositor frame. Publishing never happens in the current frame.
func (r *Registry) declareNewViewportForCompositor(v *Viewport) {
	if v.declared {
		return
	}
	v.declared = true
	r.compositorQueue = append(r.compositorQueue, v)
	if r.frames != nil {
		r.frames.RequestAdditionalFrame()
	}
}

// CommitCompositorFrame publishes the transforms of every viewport declared
// since the last frame into their nodes' transform bridges. A viewport
// that fails to publish stays declared for the next frame.
func (r *Registry) CommitCompositorFrame() error {
	queue := r.compositorQueue
	r.compositorQueue = nil
	var errs []error
	for _, v := range queue {
		if _, ok := r.byToken[v.token]; !ok || !v.declared {
			continue
		}
		v.declared = false
		if !v.status.IsActive() {
			continue
		}
		if err := r.publishViewport(v); err != nil {
			Logger().Warn("publish viewport failed", "token", v.token, "err", err)
			errs = append(errs, fmt.Errorf("publish viewport %d: %w", v.token, err))
			r.declareNewViewportForCompositor(v)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) publishViewport(v *Viewport) error {
	el := v.Element()
	if el == nil {
		return ErrReleased
	}
	primary, err := v.svc.SharedPrimaryTransform(v.token)
	if err != nil {
		return err
	}
	b := el.bridge(r.queue)
	b.SetOwnershipListener(r)
	if err := b.SetManipulationContent(v.svc, v.token, 0, ContentPrimary); err != nil {
		return err
	}
	b.SetContentOffset(v.info.ContentOffset.X, v.info.ContentOffset.Y)
	b.SetSharedContentTransforms(primary, nil)
	if _, err := b.EnsureOverallContentPropertySet(); err != nil {
		return err
	}
	Logger().Debug("viewport published", "token", v.token, "transform", primary.ID())

	var errs []error
	publish := func(n *Node, id ContentID, typ ContentType) {
		st, err := v.svc.SharedContentTransform(v.token, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("content %d: %w", id, err))
			return
		}
		nb := n.bridge(r.queue)
		nb.SetOwnershipListener(r)
		if err := nb.SetManipulationContent(v.svc, v.token, id, typ); err != nil {
			errs = append(errs, err)
			return
		}
		nb.SetSharedContentTransforms(nil, st)
	}
	if cs, ok := r.containers[v.Container()]; ok {
		for _, sc := range cs.secondary[el] {
			if n := sc.content.Value(); n != nil {
				publish(n, sc.id, sc.typ)
			}
		}
	}
	for _, rel := range v.relationships {
		if n := rel.Secondary(); n != nil {
			publish(n, rel.id, ContentCustom)
		}
	}
	for _, rel := range v.clipRelationships {
		n := rel.Secondary()
		if n == nil {
			continue
		}
		st, err := v.svc.SharedContentTransform(v.token, rel.id)
		if err != nil {
			errs = append(errs, fmt.Errorf("clip content %d: %w", rel.id, err))
			continue
		}
		nb := n.bridge(r.queue)
		if err := nb.SetClipContent(v.svc, v.token, rel.id); err != nil {
			errs = append(errs, err)
			continue
		}
		nb.SetSharedClipTransform(st)
	}
	v.published = true
	return errors.Join(errs...)
}

// restSecondaryContent gives header content its resting transform for v's
// current transform.
func (r *Registry) restSecondaryContent(v *Viewport) {
	cs, ok := r.containers[v.Container()]
	if !ok {
		return
	}
	for _, sc := range cs.secondary[v.Element()] {
		if n := sc.content.Value(); n != nil {
			n.SetManipulationTransform(SecondaryHeaderTransform(sc.typ, v.transform))
		}
	}
}

// unpublish detaches the live transforms of v and everything that follows it.
func (r *Registry) unpublish(v *Viewport) {
	el := v.Element()
	if el != nil && el.bridgeState != nil {
		el.bridgeState.SetSharedContentTransforms(nil, nil)
	}
	if cs, ok := r.containers[v.Container()]; ok && el != nil {
		for _, sc := range cs.secondary[el] {
			if n := sc.content.Value(); n != nil && n.bridgeState != nil {
				n.bridgeState.SetSharedContentTransforms(nil, nil)
			}
		}
	}
	for _, rel := range v.relationships {
		if n := rel.Secondary(); n != nil && n.bridgeState != nil {
			n.bridgeState.SetSharedContentTransforms(nil, nil)
		}
	}
	for _, rel := range v.clipRelationships {
		if n := rel.Secondary(); n != nil && n.bridgeState != nil {
			n.bridgeState.SetSharedClipTransform(nil)
		}
	}
	v.published = false
	v.declared = false
	r.compositorQueue = slices.DeleteFunc(r.compositorQueue, func(x *Viewport) bool { return x == v })
}

// completeDirectManipulation finishes v's manipulation: chained children
// complete first, then v's final transform becomes the resting transform,
// the live transforms are detached and the container is told.
func (r *Registry) completeDirectManipulation(v *Viewport) {
	if v.completing {
		return
	}
	v.completing = true
	defer func() { v.completing = false }()

	r.completeChainedChildren(v)

	final := v.transform
	el := v.Element()
	if el != nil {
		el.SetManipulationTransform(final)
	}
	r.restSecondaryContent(v)
	r.unpublish(v)
	if err := r.updateRelationships(v, true); err != nil {
		Logger().Warn("relationship hand-off failed", "token", v.token, "err", err)
	}
	if v.deferredChanges != ChangeNone && el != nil {
		changes := v.deferredChanges
		v.deferredChanges = ChangeNone
		if _, err := r.UpdateManipulationViewport(v.Container(), el, changes); err != nil {
			Logger().Warn("deferred viewport update failed", "token", v.token, "err", err)
		}
	}
	if cs, ok := r.containers[v.Container()]; ok && el != nil {
		cs.handler.ManipulationCompleted(el, final)
	}
	Logger().Debug("manipulation completed", "token", v.token)
	r.emit(r.viewportEvent(EventManipulationCompleted, v))
}

// completeChainedChildren stops and completes every active viewport nested
// in v that chains motion, deepest first.
func (r *Registry) completeChainedChildren(v *Viewport) {
	el := v.Element()
	if el == nil {
		return
	}
	for _, c := range slices.Clone(r.viewports) {
		if c == v || c.completing || c.info.ChainedMotions == MotionNone {
			continue
		}
		cel := c.Element()
		if cel == nil || !el.IsAncestorOf(cel) {
			continue
		}
		if !c.status.IsActive() && !c.status.isManipulating() {
			continue
		}
		if c.created {
			if err := c.svc.StopViewport(c.token); err != nil {
				Logger().Warn("stop chained child failed", "token", c.token, "err", err)
			}
		}
		prev := c.status
		if err := c.transition(StatusReady); err != nil {
			continue
		}
		r.emitStatus(c, prev)
		r.completeDirectManipulation(c)
	}
}

// resolveCrossSlideViewports starts or discards every candidate. A
// candidate whose parent viewport already began manipulating loses the
// gesture; otherwise its element starts handling it.
func (r *Registry) resolveCrossSlideViewports() {
	for _, c := range slices.Clone(r.crossSlide) {
		if c.state != CrossSlideCandidate {
			continue
		}
		el := c.Container()
		reg, registered := r.csElements[el]
		parentWon := c.parent == nil || c.parent.status.isManipulating() || c.parent.status.IsActive()
		if el == nil || !registered || !r.live(el) || len(c.contacts) == 0 || parentWon || !r.cfg.CrossSlide.Enabled {
			Logger().Debug("cross-slide discarded", "token", c.token)
			r.destroyCrossSlide(c)
			continue
		}
		c.state = CrossSlideStarted
		Logger().Debug("cross-slide started", "token", c.token, "element", el.Name)
		reg.handler.CrossSlideStart(el, c.parentConfig, c.combinedConfig)
	}
}

// OnPostUIThreadTick runs after layout and rendering decisions for the
// tick: orphaned inertia is stopped, relationships and cross-slide
// viewports of removed elements are dropped, idle viewports are
// unregistered and deferred releases run.
func (r *Registry) OnPostUIThreadTick() error {
	var errs []error
	if r.cfg.StopOrphanedInertia {
		errs = append(errs, r.StopInertialViewportsWithoutCompositorPeer())
	}
	r.pruneRelationships()
	for _, c := range slices.Clone(r.crossSlide) {
		if !r.live(c.Container()) {
			r.destroyCrossSlide(c)
		}
	}
	errs = append(errs, r.unregisterIdleViewports())
	r.ProcessDeferredReleaseQueue()
	return errors.Join(errs...)
}

// StopInertialViewportsWithoutCompositorPeer force-stops viewports in
// inertia or auto-running whose element left the live tree, completing
// them without waiting for the service.
func (r *Registry) StopInertialViewportsWithoutCompositorPeer() error {
	var errs []error
	for _, v := range slices.Clone(r.viewports) {
		if v.status != StatusInertia && v.status != StatusAutoRunning {
			continue
		}
		if r.live(v.Element()) {
			continue
		}
		Logger().Warn("stopping orphaned inertia", "token", v.token, "status", v.status)
		if v.created {
			if err := v.svc.StopViewport(v.token); err != nil {
				errs = append(errs, fmt.Errorf("stop viewport %d: %w", v.token, err))
			}
		}
		prev := v.status
		if err := v.transition(StatusReady); err != nil {
			errs = append(errs, err)
			continue
		}
		v.pending = nil
		r.emitStatus(v, prev)
		r.completeDirectManipulation(v)
	}
	return errors.Join(errs...)
}

// unregisterIdleViewports unregisters viewports that are at rest, have no
// contacts and nothing left to process.
func (r *Registry) unregisterIdleViewports() error {
	var errs []error
	for _, v := range slices.Clone(r.viewports) {
		if v.status != StatusReady && v.status != StatusDisabled {
			continue
		}
		if len(v.contacts) > 0 || len(v.pending) > 0 || v.declared || v.guard.active() || r.mailbox.has(v.token) {
			continue
		}
		if v.status == StatusDisabled && r.live(v.Element()) {
			if cs, ok := r.containers[v.Container()]; ok && !cs.canManipulate() {
				// Stays disabled until the container allows manipulation again.
				continue
			}
		}
		errs = append(errs, r.unregisterViewport(v))
	}
	return errors.Join(errs...)
}

// ProcessDeferredReleaseQueue runs queued releases, at most
// Config.DeferredReleasePerTick of them when that is positive.
func (r *Registry) ProcessDeferredReleaseQueue() int {
	return r.queue.Drain(r.cfg.DeferredReleasePerTick)
}

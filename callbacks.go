package sway

// --- Handler registry ---

type eventHandler struct {
	id uint32
	fn func(ViewportEvent)
}

type callbackRegistry struct {
	status      []eventHandler
	interaction []eventHandler
	completed   []eventHandler
	nextID      uint32
}

// CallbackHandle allows removing a registered registry-level callback.
type CallbackHandle struct {
	id    uint32
	reg   *callbackRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.event {
	case EventViewportStatusChanged:
		h.reg.status = removeEventHandler(h.reg.status, h.id)
	case EventInteractionTypeChanged:
		h.reg.interaction = removeEventHandler(h.reg.interaction, h.id)
	case EventManipulationCompleted:
		h.reg.completed = removeEventHandler(h.reg.completed, h.id)
	}
}

func removeEventHandler(s []eventHandler, id uint32) []eventHandler {
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = eventHandler{}
			return s[:len(s)-1]
		}
	}
	return s
}

func (c *callbackRegistry) add(event EventType, fn func(ViewportEvent)) CallbackHandle {
	c.nextID++
	h := eventHandler{id: c.nextID, fn: fn}
	switch event {
	case EventViewportStatusChanged:
		c.status = append(c.status, h)
	case EventInteractionTypeChanged:
		c.interaction = append(c.interaction, h)
	case EventManipulationCompleted:
		c.completed = append(c.completed, h)
	}
	return CallbackHandle{id: h.id, reg: c, event: event}
}

// OnViewportStatusChanged registers fn for every applied status change.
func (r *Registry) OnViewportStatusChanged(fn func(ViewportEvent)) CallbackHandle {
	return r.handlers.add(EventViewportStatusChanged, fn)
}

// OnInteractionTypeChanged registers fn for interaction-type changes.
func (r *Registry) OnInteractionTypeChanged(fn func(ViewportEvent)) CallbackHandle {
	return r.handlers.add(EventInteractionTypeChanged, fn)
}

// OnManipulationCompleted registers fn for completed manipulations.
func (r *Registry) OnManipulationCompleted(fn func(ViewportEvent)) CallbackHandle {
	return r.handlers.add(EventManipulationCompleted, fn)
}

// emit delivers e to the registered callbacks and the event store.
func (r *Registry) emit(e ViewportEvent) {
	var list []eventHandler
	switch e.Type {
	case EventViewportStatusChanged:
		list = r.handlers.status
	case EventInteractionTypeChanged:
		list = r.handlers.interaction
	case EventManipulationCompleted:
		list = r.handlers.completed
	}
	for _, h := range list {
		h.fn(e)
	}
	if r.store != nil {
		r.store.EmitEvent(e)
	}
}

func (r *Registry) viewportEvent(typ EventType, v *Viewport) ViewportEvent {
	e := ViewportEvent{
		Type:        typ,
		Token:       v.token,
		Current:     v.status,
		Interaction: v.interaction,
		Transform:   v.transform,
	}
	if el := v.Element(); el != nil {
		e.Element = el
		e.EntityID = el.EntityID
	}
	return e
}

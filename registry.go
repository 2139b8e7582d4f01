package sway

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"weak"
)

// ContainerHandler is implemented by controls that host manipulatable
// content, such as scroll viewers.
type ContainerHandler interface {
	// ViewportInfo reports the current characteristics of the viewport
	// that manipulates element.
	ViewportInfo(element *Node) (ViewportInfo, error)
	ManipulationStarting(element *Node)
	ManipulationStarted(element *Node)
	ManipulationDelta(element *Node, t Transform, inInertia bool)
	ManipulationCompleted(element *Node, final Transform)
}

// StaticContainer is a ContainerHandler with fixed viewport info and no
// reaction to manipulation events.
type StaticContainer struct {
	Info ViewportInfo
}

func (c *StaticContainer) ViewportInfo(*Node) (ViewportInfo, error) { return c.Info, nil }
func (c *StaticContainer) ManipulationStarting(*Node)               {}
func (c *StaticContainer) ManipulationStarted(*Node)                {}
func (c *StaticContainer) ManipulationDelta(*Node, Transform, bool) {}
func (c *StaticContainer) ManipulationCompleted(*Node, Transform)   {}

// FrameRequester asks the host for another compositor frame. It may be
// called from any goroutine.
type FrameRequester interface {
	RequestAdditionalFrame()
}

// EventStore receives viewport events for optional ECS integration.
type EventStore interface {
	EmitEvent(event ViewportEvent)
}

// EventType identifies a viewport event.
type EventType uint8

const (
	EventViewportStatusChanged EventType = iota
	EventInteractionTypeChanged
	EventManipulationCompleted
)

// ViewportEvent carries viewport data for callbacks and the ECS bridge.
type ViewportEvent struct {
	Type        EventType
	Token       ViewportToken
	EntityID    uint32
	Element     *Node
	Previous    ViewportStatus
	Current     ViewportStatus
	Interaction InteractionType
	Transform   Transform
}

type secondaryContent struct {
	content weak.Pointer[Node]
	id      ContentID
	typ     ContentType
}

type containerState struct {
	node    *Node
	handler ContainerHandler
	svc     Service

	elements  []*Node
	secondary map[*Node][]*secondaryContent

	canTouch         bool
	canNonTouch      bool
	canBringIntoView bool
	initialized      bool
}

func (c *containerState) canManipulate() bool {
	return c.canTouch || c.canNonTouch
}

type crossSlideRegistration struct {
	handler CrossSlideHandler
	config  Configuration
}

// Registry is the single owner of viewports, cross-slide viewports and
// content relationships, and the only component that calls the
// manipulation service. All methods except the EventHandler ones must be
// called on the UI thread.
type Registry struct {
	cfg      Config
	services *ServiceRegistry
	queue    *WorkQueue
	frames   FrameRequester
	store    EventStore
	root     *Node

	host    uintptr
	hasHost bool

	containers  map[*Node]*containerState
	pendingInit []*Node

	viewports  []*Viewport
	byToken    map[ViewportToken]*Viewport
	crossSlide []*CrossSlideViewport
	csByToken  map[ViewportToken]*CrossSlideViewport
	csElements map[*Node]crossSlideRegistration
	contacts   map[uint32][]ViewportToken

	relationships        map[*Node][]*ContentRelationship
	pendingRelationships []*ContentRelationship

	compositorQueue []*Viewport
	hosts           map[uint64]*Node

	mailbox mailbox

	nextToken   ViewportToken
	nextContent ContentID

	tickGuard  guard
	applyGuard guard
	ownerGuard guard

	handlers callbackRegistry
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithConfig sets the registry configuration.
func WithConfig(cfg Config) RegistryOption {
	return func(r *Registry) { r.cfg = cfg }
}

// WithWorkQueue sets the queue used for deferred releases.
func WithWorkQueue(q *WorkQueue) RegistryOption {
	return func(r *Registry) { r.queue = q }
}

// WithFrameRequester sets who is asked for additional compositor frames.
func WithFrameRequester(f FrameRequester) RegistryOption {
	return func(r *Registry) { r.frames = f }
}

// WithSceneRoot sets the root used to decide whether elements are still in
// the live tree. Without it, any non-disposed node counts as live.
func WithSceneRoot(root *Node) RegistryOption {
	return func(r *Registry) { r.root = root }
}

// NewRegistry creates a registry whose services are built by factory.
func NewRegistry(factory ServiceFactory, opts ...RegistryOption) *Registry {
	r := &Registry{
		cfg:           DefaultConfig(),
		services:      NewServiceRegistry(factory),
		containers:    make(map[*Node]*containerState),
		byToken:       make(map[ViewportToken]*Viewport),
		csByToken:     make(map[ViewportToken]*CrossSlideViewport),
		csElements:    make(map[*Node]crossSlideRegistration),
		contacts:      make(map[uint32][]ViewportToken),
		relationships: make(map[*Node][]*ContentRelationship),
		hosts:         make(map[uint64]*Node),
	}
	for _, o := range opts {
		o(r)
	}
	if r.queue == nil {
		r.queue = NewWorkQueue()
	}
	return r
}

// Config returns the registry configuration.
func (r *Registry) Config() Config { return r.cfg }

// WorkQueue returns the deferred-release queue.
func (r *Registry) WorkQueue() *WorkQueue { return r.queue }

// Services returns the container-to-service table.
func (r *Registry) Services() *ServiceRegistry { return r.services }

// SetEventStore sets the ECS event sink. Pass nil to disable.
func (r *Registry) SetEventStore(store EventStore) { r.store = store }

func (r *Registry) nextContentID() ContentID {
	r.nextContent++
	return r.nextContent
}

func (r *Registry) live(n *Node) bool {
	return n != nil && n.inTree(r.root)
}

// --- Containers ---

// AttachHost makes the platform window available and initializes every
// container queued while no host existed.
func (r *Registry) AttachHost(handle uintptr) error {
	r.host = handle
	r.hasHost = true
	Logger().Info("host attached", "handle", handle)
	return r.initializePendingContainers()
}

// RegisterContainer declares container as able to host manipulatable
// content. Calling it again only updates the handler. Without a host the
// container is queued and ErrNoHost is returned; it is initialized once
// AttachHost is called.
func (r *Registry) RegisterContainer(container *Node, handler ContainerHandler) error {
	if container == nil || handler == nil {
		panic("sway: RegisterContainer needs a container and a handler")
	}
	if cs, ok := r.containers[container]; ok {
		cs.handler = handler
		if cs.initialized {
			return nil
		}
	} else {
		r.containers[container] = &containerState{
			node:             container,
			handler:          handler,
			secondary:        make(map[*Node][]*secondaryContent),
			canTouch:         true,
			canNonTouch:      true,
			canBringIntoView: true,
		}
	}
	if !r.hasHost {
		r.queueInit(container)
		return ErrNoHost
	}
	return r.initContainer(container)
}

func (r *Registry) queueInit(container *Node) {
	if !slices.Contains(r.pendingInit, container) {
		r.pendingInit = append(r.pendingInit, container)
	}
}

func (r *Registry) initContainer(container *Node) error {
	cs := r.containers[container]
	svc, err := r.services.Ensure(container, r.host, r)
	if err != nil {
		r.queueInit(container)
		return err
	}
	cs.svc = svc
	cs.initialized = true
	Logger().Info("container initialized", "container", container.Name)
	return nil
}

func (r *Registry) initializePendingContainers() error {
	if !r.hasHost || len(r.pendingInit) == 0 {
		return nil
	}
	pending := r.pendingInit
	r.pendingInit = nil
	var errs []error
	for _, c := range pending {
		if _, ok := r.containers[c]; !ok {
			continue
		}
		if err := r.initContainer(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsContainerInitialized reports whether container has a live service.
func (r *Registry) IsContainerInitialized(container *Node) bool {
	cs, ok := r.containers[container]
	return ok && cs.initialized
}

// UnregisterContainer tears down every viewport of container and shuts its
// service down.
func (r *Registry) UnregisterContainer(container *Node) error {
	cs, ok := r.containers[container]
	if !ok {
		return nil
	}
	var errs []error
	for _, v := range slices.Clone(r.viewports) {
		if v.Container() == container {
			if err := r.unregisterViewport(v); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, c := range slices.Clone(r.crossSlide) {
		if c.parent != nil && c.parent.Container() == container {
			r.destroyCrossSlide(c)
		}
	}
	for _, sc := range cs.secondary {
		for _, s := range sc {
			if n := s.content.Value(); n != nil && n.bridgeState != nil {
				n.bridgeState.Release()
			}
		}
	}
	delete(r.containers, container)
	r.pendingInit = slices.DeleteFunc(r.pendingInit, func(n *Node) bool { return n == container })
	if err := r.services.Remove(container); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// --- Queries ---

// Viewport returns the first viewport owned by container.
func (r *Registry) Viewport(container *Node) *Viewport {
	for _, v := range r.viewports {
		if v.Container() == container {
			return v
		}
	}
	return nil
}

// ViewportFor returns the viewport manipulating element.
func (r *Registry) ViewportFor(element *Node) *Viewport {
	for _, v := range r.viewports {
		if v.Element() == element {
			return v
		}
	}
	return nil
}

// ViewportByToken resolves a service token.
func (r *Registry) ViewportByToken(token ViewportToken) *Viewport {
	return r.byToken[token]
}

// Viewports returns a snapshot of all viewports.
func (r *Registry) Viewports() []*Viewport {
	return slices.Clone(r.viewports)
}

// CrossSlideViewports returns a snapshot of all cross-slide viewports.
func (r *Registry) CrossSlideViewports() []*CrossSlideViewport {
	return slices.Clone(r.crossSlide)
}

// ViewportStatus returns the status of the viewport manipulating element.
func (r *Registry) ViewportStatus(element *Node) (ViewportStatus, bool) {
	v := r.ViewportFor(element)
	if v == nil {
		return StatusReady, false
	}
	return v.status, true
}

// IsManipulating reports whether element's viewport is under active
// manipulation or inertia.
func (r *Registry) IsManipulating(element *Node) bool {
	s, ok := r.ViewportStatus(element)
	return ok && (s.IsActive() || s.isManipulating())
}

// PrimaryContentTransform returns the live transform the service holds for
// element, falling back to the element's resting transform.
func (r *Registry) PrimaryContentTransform(element *Node) (Transform, error) {
	v := r.ViewportFor(element)
	if v == nil || !v.created {
		return element.ManipulationTransform(), nil
	}
	t, err := v.svc.PrimaryTransform(v.token)
	if err != nil {
		return Transform{}, fmt.Errorf("primary transform of %q: %w", element.Name, err)
	}
	return t, nil
}

// InertiaEndTransform reports where element's inertia will come to rest.
func (r *Registry) InertiaEndTransform(element *Node) (Transform, bool, error) {
	v := r.ViewportFor(element)
	if v == nil || v.status != StatusInertia {
		return Transform{}, false, nil
	}
	return v.svc.InertiaEndTransform(v.token)
}

// CompositorViewports returns the viewports whose transforms are live in
// the scene graph. With all set, viewports declared for the next frame are
// included.
func (r *Registry) CompositorViewports(all bool) []*Viewport {
	var out []*Viewport
	for _, v := range r.viewports {
		if v.published || (all && v.declared) {
			out = append(out, v)
		}
	}
	return out
}

// --- Service events ---

type serviceEventKind uint8

const (
	eventStatus serviceEventKind = iota
	eventInteraction
	eventValues
	eventDragDrop
)

type serviceEvent struct {
	kind         serviceEventKind
	token        ViewportToken
	status       ViewportStatus
	prevStatus   ViewportStatus
	interaction  InteractionType
	transform    Transform
	dragDrop     DragDropStatus
	prevDragDrop DragDropStatus
}

// mailbox collects service events from any goroutine until the UI tick
// drains them.
type mailbox struct {
	mu     sync.Mutex
	events []serviceEvent
}

func (m *mailbox) post(e serviceEvent) {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
}

func (m *mailbox) has(token ViewportToken) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.token == token {
			return true
		}
	}
	return false
}

func (m *mailbox) drain() []serviceEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.events
	m.events = nil
	return out
}

func (r *Registry) postEvent(e serviceEvent) {
	r.mailbox.post(e)
	if r.frames != nil {
		r.frames.RequestAdditionalFrame()
	}
}

// ViewportStatusChanged implements EventHandler.
func (r *Registry) ViewportStatusChanged(token ViewportToken, current, previous ViewportStatus) {
	r.postEvent(serviceEvent{kind: eventStatus, token: token, status: current, prevStatus: previous})
}

// ViewportInteractionTypeChanged implements EventHandler.
func (r *Registry) ViewportInteractionTypeChanged(token ViewportToken, interaction InteractionType) {
	r.postEvent(serviceEvent{kind: eventInteraction, token: token, interaction: interaction})
}

// ViewportValuesChanged implements EventHandler.
func (r *Registry) ViewportValuesChanged(token ViewportToken, t Transform) {
	r.postEvent(serviceEvent{kind: eventValues, token: token, transform: t})
}

// DragDropStatusChanged implements EventHandler.
func (r *Registry) DragDropStatusChanged(token ViewportToken, current, previous DragDropStatus) {
	r.postEvent(serviceEvent{kind: eventDragDrop, token: token, dragDrop: current, prevDragDrop: previous})
}

// --- Transform ownership ---

// TransformOwnershipChanged implements OwnershipListener. A shared
// transform hosted by a different node is detached from that node first.
func (r *Registry) TransformOwnershipChanged(node *Node, primary, secondary SharedTransform) {
	release, ok := r.ownerGuard.enter()
	if !ok {
		return
	}
	defer release()

	for id, owner := range r.hosts {
		if owner == node {
			delete(r.hosts, id)
		}
	}
	for _, t := range []SharedTransform{primary, secondary} {
		if t == nil {
			continue
		}
		if prev, ok := r.hosts[t.ID()]; ok && prev != node && prev.bridgeState != nil {
			Logger().Debug("detaching double-hosted transform", "transform", t.ID(), "from", prev.Name, "to", node.Name)
			prev.bridgeState.SetSharedContentTransforms(nil, nil)
			for id, owner := range r.hosts {
				if owner == prev {
					delete(r.hosts, id)
				}
			}
		}
		r.hosts[t.ID()] = node
	}
}

// TransformHost returns the node currently publishing the shared transform id.
func (r *Registry) TransformHost(id uint64) *Node {
	return r.hosts[id]
}

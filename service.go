package sway

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// ViewportToken identifies a viewport in calls to and from the manipulation
// service. Tokens are assigned by the Registry and never reused.
type ViewportToken uint64

// ContentID identifies secondary or clip content registered with the
// manipulation service.
type ContentID uint64

// SharedTransform is a reference-counted transform object owned by the
// manipulation service. Its value changes on the service's own goroutines;
// readers see the latest value at the time of the call.
type SharedTransform interface {
	// ID is the identity of the underlying object. Two handles with the same
	// ID refer to the same transform.
	ID() uint64
	// Value returns the live matrix, or ErrReleased once the service has
	// torn the transform down.
	Value() (ebiten.GeoM, error)
	Retain()
	Release()
}

// EventHandler receives asynchronous notifications from the manipulation
// service. Implementations must be safe for use from any goroutine and must
// not block.
type EventHandler interface {
	ViewportStatusChanged(token ViewportToken, current, previous ViewportStatus)
	ViewportInteractionTypeChanged(token ViewportToken, interaction InteractionType)
	ViewportValuesChanged(token ViewportToken, t Transform)
	DragDropStatusChanged(token ViewportToken, current, previous DragDropStatus)
}

// Service is the input/physics engine that owns manipulation for one
// container. All calls are made from the UI thread; events flow back through
// the EventHandler given to Initialize.
//
// Shared transforms returned by SharedPrimaryTransform and
// SharedContentTransform are borrowed: the service keeps its own reference
// while the viewport or content exists. Callers that hold on to one must
// Retain it and later Release it.
type Service interface {
	Initialize(host uintptr, handler EventHandler) error
	Shutdown() error

	CreateViewport(token ViewportToken) error
	EnableViewport(token ViewportToken) error
	DisableViewport(token ViewportToken) error
	StopViewport(token ViewportToken) error
	RemoveViewport(token ViewportToken) error

	AddContact(token ViewportToken, pointerID uint32) error
	ReleaseContact(token ViewportToken, pointerID uint32) error
	ReleaseAllContacts(token ViewportToken) error

	SetBounds(token ViewportToken, bounds Rect) error
	SetContentBounds(token ViewportToken, bounds Rect) error
	SetConfiguration(token ViewportToken, cfg Configuration) error
	SetChaining(token ViewportToken, motions MotionTypes) error
	SetZoomBoundaries(token ViewportToken, minZoom, maxZoom float64) error

	PrimaryTransform(token ViewportToken) (Transform, error)
	SetPrimaryTransform(token ViewportToken, t Transform) error
	// InertiaEndTransform reports where inertia will come to rest. ok is
	// false when the viewport is not in inertia.
	InertiaEndTransform(token ViewportToken) (t Transform, ok bool, err error)

	BringIntoViewport(token ViewportToken, bounds Rect, animate bool) error
	SetConstantVelocities(token ViewportToken, vx, vy float64) error

	AddSecondaryContent(token ViewportToken, id ContentID, typ ContentType, curves []CurveDefinition, offset Vec2) error
	RemoveSecondaryContent(token ViewportToken, id ContentID) error
	AddClipContent(token ViewportToken, id ContentID, curves []CurveDefinition) error
	RemoveClipContent(token ViewportToken, id ContentID) error

	SharedPrimaryTransform(token ViewportToken) (SharedTransform, error)
	SharedContentTransform(token ViewportToken, id ContentID) (SharedTransform, error)
}

// ServiceFactory creates the manipulation service for a container.
type ServiceFactory func(container *Node) (Service, error)

// ServiceRegistry maps containers to their manipulation services. Services
// are created lazily through the factory and shut down with their container.
type ServiceRegistry struct {
	factory  ServiceFactory
	services map[*Node]Service
}

// NewServiceRegistry creates an empty registry backed by factory.
func NewServiceRegistry(factory ServiceFactory) *ServiceRegistry {
	return &ServiceRegistry{factory: factory, services: make(map[*Node]Service)}
}

// Get returns the service for container, if one was created.
func (r *ServiceRegistry) Get(container *Node) (Service, bool) {
	s, ok := r.services[container]
	return s, ok
}

// Ensure returns the service for container, creating and initializing it on
// first use. A service that fails to initialize is discarded.
func (r *ServiceRegistry) Ensure(container *Node, host uintptr, handler EventHandler) (Service, error) {
	if s, ok := r.services[container]; ok {
		return s, nil
	}
	if r.factory == nil {
		return nil, ErrServiceUnavailable
	}
	s, err := r.factory(container)
	if err != nil {
		return nil, fmt.Errorf("create service for %q: %w", container.Name, err)
	}
	if s == nil {
		return nil, ErrServiceUnavailable
	}
	if err := s.Initialize(host, handler); err != nil {
		return nil, fmt.Errorf("initialize service for %q: %w", container.Name, err)
	}
	r.services[container] = s
	return s, nil
}

// Remove shuts down and forgets the service for container.
func (r *ServiceRegistry) Remove(container *Node) error {
	s, ok := r.services[container]
	if !ok {
		return nil
	}
	delete(r.services, container)
	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("shutdown service for %q: %w", container.Name, err)
	}
	return nil
}

// Len returns the number of live services.
func (r *ServiceRegistry) Len() int {
	return len(r.services)
}

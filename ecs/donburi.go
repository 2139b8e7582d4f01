package ecs

import (
	"github.com/phanxgames/sway"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ViewportEventType is the Donburi event type for sway viewport events.
// Subscribe to this in your ECS systems to react to manipulation status and
// completion.
var ViewportEventType = events.NewEventType[sway.ViewportEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EventStore backed by a Donburi world.
// Viewport events are published to ViewportEventType and can be consumed
// with events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) sway.EventStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event sway.ViewportEvent) {
	ViewportEventType.Publish(s.world, event)
}

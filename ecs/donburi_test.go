package ecs

import (
	"testing"

	"github.com/phanxgames/sway"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiStore(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)
	if store == nil {
		t.Fatal("NewDonburiStore returned nil")
	}
}

func TestDonburiStore_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var received []sway.ViewportEvent
	ViewportEventType.Subscribe(world, func(w donburi.World, e sway.ViewportEvent) {
		received = append(received, e)
	})

	store.EmitEvent(sway.ViewportEvent{
		Type:     sway.EventViewportStatusChanged,
		Token:    3,
		EntityID: 42,
		Previous: sway.StatusReady,
		Current:  sway.StatusManipulationStarting,
	})

	store.EmitEvent(sway.ViewportEvent{
		Type:      sway.EventManipulationCompleted,
		Token:     3,
		Transform: sway.Transform{TranslateY: -120, UncompressedZoom: 1, ZoomX: 1, ZoomY: 1},
	})

	// Events are queued; process them.
	ViewportEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}

	e0 := received[0]
	if e0.Type != sway.EventViewportStatusChanged || e0.EntityID != 42 {
		t.Errorf("event 0: %+v", e0)
	}
	if e0.Previous != sway.StatusReady || e0.Current != sway.StatusManipulationStarting {
		t.Errorf("event 0 status: %v -> %v", e0.Previous, e0.Current)
	}

	e1 := received[1]
	if e1.Type != sway.EventManipulationCompleted || e1.Transform.TranslateY != -120 {
		t.Errorf("event 1: %+v", e1)
	}
}

func TestDonburiStore_ImplementsEventStore(t *testing.T) {
	world := donburi.NewWorld()
	var store sway.EventStore = NewDonburiStore(world)
	_ = store // compile-time interface check
}

func TestDonburiStore_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var count1, count2 int
	ViewportEventType.Subscribe(world, func(w donburi.World, e sway.ViewportEvent) {
		count1++
	})
	ViewportEventType.Subscribe(world, func(w donburi.World, e sway.ViewportEvent) {
		count2++
	})

	store.EmitEvent(sway.ViewportEvent{Type: sway.EventInteractionTypeChanged, Interaction: sway.InteractionTap})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

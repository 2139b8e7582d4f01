// Package ecs provides ECS adapters for sway's viewport event system.
//
// The primary adapter is [NewDonburiStore], which bridges sway viewport
// events (status changes, interaction changes, completed manipulations)
// into a [Donburi] world as typed events. Subscribe to [ViewportEventType]
// in your ECS systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	scene.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs

// Package sway is the manipulation viewport layer for [Ebitengine] scenes.
//
// Sway sits between a retained scene graph and a manipulation service (a
// touch/pan/zoom engine). It keeps one [Viewport] per manipulatable
// element, reconciles the service's asynchronous notifications once per UI
// tick, and publishes the service's live transforms onto scene nodes
// through a [TransformBridge].
//
// # Quick start
//
// A [Scene] owns the node tree and the [Registry]. Services come from a
// [ServiceFactory]; the sim package provides a pure-Go one:
//
//	svc := sim.New(sim.DefaultConfig())
//	scene := sway.NewScene(640, 480, svc.Factory())
//	scene.SetInputSink(svc)
//
//	viewer := sway.NewNode("viewer", sway.Rect{Width: 640, Height: 480})
//	content := sway.NewNode("content", sway.Rect{Width: 640, Height: 4000})
//	viewer.AddChild(content)
//	scene.Root().AddChild(viewer)
//
//	reg := scene.Registry()
//	reg.RegisterContainer(viewer, &sway.StaticContainer{Info: info})
//	reg.NotifyManipulatableElementChanged(viewer, nil, content)
//
//	sway.Run(scene, "Scroller")
//
// # Tick order
//
// [Scene.Update] runs input, then [Registry.ProcessUIThreadTick], then
// [Registry.OnPostUIThreadTick]. [Scene.Draw] calls
// [Registry.CommitCompositorFrame] before drawing, which is where live
// transforms are attached to or detached from nodes.
//
// # Secondary content
//
// Headers, sticky items and other content that moves relative to the
// primary content are described by a [ContentRelationship] holding one
// [ParametricCurve] per driven property. The curves map the primary
// transform to the secondary one.
//
// # Events
//
// Status, interaction and completion events are delivered to callbacks
// registered on the Registry, and optionally to an [EventStore] (see the
// Donburi adapter in sway/ecs).
//
// [Ebitengine]: https://ebitengine.org
package sway

package sway

import (
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
)

// InputSink receives raw pointer input the way the platform feeds it to the
// manipulation service. The sim package implements it.
type InputSink interface {
	PointerDown(pointerID uint32, x, y float64)
	PointerMove(pointerID uint32, x, y float64)
	PointerUp(pointerID uint32, x, y float64)
}

// Scene is the top-level object that owns the node tree, the viewport
// registry and input state. It implements ebiten.Game.
type Scene struct {
	root     *Node
	registry *Registry
	sink     InputSink
	debug    bool

	width, height int

	frameRequested atomic.Bool

	// Input state
	pointers     [maxPointers]pointerState
	touchMap     [maxPointers]ebiten.TouchID
	touchUsed    [maxPointers]bool
	prevTouchIDs []ebiten.TouchID
	injectQueue  []injectFrame
	runner       *ScriptRunner

	updateFunc func() error
	lastErr    error

	// ScreenshotDir is where Screenshot captures are written.
	ScreenshotDir string
	captures      []string
	frame         uint64
}

// NewScene creates a scene with a root node sized to the window and a
// registry whose services come from factory.
func NewScene(width, height int, factory ServiceFactory, opts ...RegistryOption) *Scene {
	root := NewNode("root", Rect{Width: float64(width), Height: float64(height)})
	s := &Scene{root: root, width: width, height: height, ScreenshotDir: "screenshots"}
	opts = append([]RegistryOption{WithSceneRoot(root), WithFrameRequester(s)}, opts...)
	s.registry = NewRegistry(factory, opts...)
	return s
}

// Root returns the scene's root node.
func (s *Scene) Root() *Node {
	return s.root
}

// Registry returns the scene's viewport registry.
func (s *Scene) Registry() *Registry {
	return s.registry
}

// SetInputSink sets where raw pointer input is forwarded.
func (s *Scene) SetInputSink(sink InputSink) {
	s.sink = sink
}

// SetEntityStore forwards viewport events to an ECS.
func (s *Scene) SetEntityStore(store EventStore) {
	s.registry.SetEventStore(store)
}

// SetDebugMode enables debug checks and overlay drawing.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// RequestAdditionalFrame implements FrameRequester. It is safe from any
// goroutine.
func (s *Scene) RequestAdditionalFrame() {
	s.frameRequested.Store(true)
}

// TakeFrameRequest reports and clears a pending frame request.
func (s *Scene) TakeFrameRequest() bool {
	return s.frameRequested.Swap(false)
}

// SetUpdateFunc sets a callback that runs at the start of every Update,
// before input is processed. An error from fn stops the game.
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// LastError returns the error from the most recent tick, if any.
func (s *Scene) LastError() error {
	return s.lastErr
}

// Update runs one UI tick: scripted and real input, the registry's
// reconciliation, world transforms and the post-tick pass. Registry errors
// are per-viewport and recoverable; they are logged and kept in LastError
// rather than stopping the game.
func (s *Scene) Update() error {
	if s.updateFunc != nil {
		if err := s.updateFunc(); err != nil {
			return err
		}
	}
	if s.runner != nil {
		s.runner.step(s)
	}
	updateWorldTransform(s.root, identityTransform, false)
	s.processInput()

	err := s.registry.ProcessUIThreadTick()
	updateWorldTransform(s.root, identityTransform, false)
	if perr := s.registry.OnPostUIThreadTick(); perr != nil {
		err = joinErrors(err, perr)
	}
	if err != nil {
		Logger().Warn("tick", "err", err)
	}
	s.lastErr = err
	return nil
}

// Draw publishes transforms declared during the last tick and renders the
// tree.
func (s *Scene) Draw(screen *ebiten.Image) {
	if err := s.registry.CommitCompositorFrame(); err != nil {
		Logger().Warn("compositor frame", "err", err)
	}
	updateWorldTransform(s.root, identityTransform, false)
	s.drawTree(screen)
	if s.debug {
		s.drawDebugOverlay(screen)
	}
	s.flushCaptures(screen)
	s.frame++
}

// Layout implements ebiten.Game.
func (s *Scene) Layout(outsideWidth, outsideHeight int) (int, int) {
	return s.width, s.height
}

// Run attaches the host window handle and runs the scene with ebiten.
func Run(s *Scene, title string) error {
	ebiten.SetWindowSize(s.width, s.height)
	ebiten.SetWindowTitle(title)
	if err := s.registry.AttachHost(1); err != nil {
		Logger().Warn("attach host", "err", err)
	}
	return ebiten.RunGame(s)
}

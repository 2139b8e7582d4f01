package sway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hajimehoshi/ebiten/v2"
)

var errBoom = errors.New("boom")

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Errorf("mismatch (-want +got):\n%s", d)
	}
}

// --- Shared transforms ---

var sharedIDs uint64

type fakeShared struct {
	id    uint64
	refs  int
	value ebiten.GeoM
	err   error
}

func newFakeShared() *fakeShared {
	sharedIDs++
	return &fakeShared{id: sharedIDs, refs: 1}
}

func (s *fakeShared) ID() uint64                  { return s.id }
func (s *fakeShared) Value() (ebiten.GeoM, error) { return s.value, s.err }
func (s *fakeShared) Retain()                     { s.refs++ }
func (s *fakeShared) Release()                    { s.refs-- }

// --- Service ---

type fakeViewport struct {
	enabled   bool
	bounds    Rect
	content   Rect
	config    Configuration
	chaining  MotionTypes
	transform Transform
	contacts  []uint32
	status    ViewportStatus
	primary   *fakeShared
	shared    map[ContentID]*fakeShared
	added     []ContentID
	curves    map[ContentID][]CurveDefinition
	brought   []Rect
}

// fakeService records every call and fails the methods named in fail until
// the entry is removed.
type fakeService struct {
	name      string
	handler   EventHandler
	calls     []string
	fail      map[string]error
	viewports map[ViewportToken]*fakeViewport
	shutdown  bool
}

func newFakeService(name string) *fakeService {
	return &fakeService{
		name:      name,
		fail:      make(map[string]error),
		viewports: make(map[ViewportToken]*fakeViewport),
	}
}

func (f *fakeService) call(method string, token ViewportToken) (*fakeViewport, error) {
	f.calls = append(f.calls, method)
	if err, ok := f.fail[method]; ok {
		return nil, err
	}
	if method == "CreateViewport" {
		if _, ok := f.viewports[token]; ok {
			return nil, fmt.Errorf("viewport %d exists", token)
		}
		f.viewports[token] = &fakeViewport{
			transform: IdentityTransform,
			primary:   newFakeShared(),
			shared:    make(map[ContentID]*fakeShared),
			curves:    make(map[ContentID][]CurveDefinition),
		}
	}
	v, ok := f.viewports[token]
	if !ok {
		return nil, fmt.Errorf("unknown viewport %d", token)
	}
	return v, nil
}

// called reports how many times method was called.
func (f *fakeService) called(method string) int {
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

// status reports a status change the way the real service does.
func (f *fakeService) status(token ViewportToken, to ViewportStatus) {
	v := f.viewports[token]
	prev := v.status
	v.status = to
	f.handler.ViewportStatusChanged(token, to, prev)
}

func (f *fakeService) values(token ViewportToken, t Transform) {
	f.viewports[token].transform = t
	f.handler.ViewportValuesChanged(token, t)
}

// run reports the status sequence of a drag that is still in progress.
func (f *fakeService) run(token ViewportToken) {
	f.status(token, StatusManipulationStarting)
	f.status(token, StatusStarted)
	f.status(token, StatusRunning)
}

func (f *fakeService) Initialize(host uintptr, handler EventHandler) error {
	f.calls = append(f.calls, "Initialize")
	if err, ok := f.fail["Initialize"]; ok {
		return err
	}
	if host == 0 {
		return ErrNoHost
	}
	f.handler = handler
	return nil
}

func (f *fakeService) Shutdown() error {
	f.calls = append(f.calls, "Shutdown")
	f.shutdown = true
	return nil
}

func (f *fakeService) CreateViewport(token ViewportToken) error {
	_, err := f.call("CreateViewport", token)
	return err
}

func (f *fakeService) EnableViewport(token ViewportToken) error {
	v, err := f.call("EnableViewport", token)
	if err == nil {
		v.enabled = true
	}
	return err
}

func (f *fakeService) DisableViewport(token ViewportToken) error {
	v, err := f.call("DisableViewport", token)
	if err == nil {
		v.enabled = false
	}
	return err
}

func (f *fakeService) StopViewport(token ViewportToken) error {
	_, err := f.call("StopViewport", token)
	return err
}

func (f *fakeService) RemoveViewport(token ViewportToken) error {
	v, err := f.call("RemoveViewport", token)
	if err != nil {
		return err
	}
	v.primary.err = ErrReleased
	delete(f.viewports, token)
	return nil
}

func (f *fakeService) AddContact(token ViewportToken, pointerID uint32) error {
	v, err := f.call("AddContact", token)
	if err == nil {
		v.contacts = append(v.contacts, pointerID)
	}
	return err
}

func (f *fakeService) ReleaseContact(token ViewportToken, pointerID uint32) error {
	v, err := f.call("ReleaseContact", token)
	if err != nil {
		return err
	}
	for i, c := range v.contacts {
		if c == pointerID {
			v.contacts = append(v.contacts[:i], v.contacts[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeService) ReleaseAllContacts(token ViewportToken) error {
	v, err := f.call("ReleaseAllContacts", token)
	if err == nil {
		v.contacts = nil
	}
	return err
}

func (f *fakeService) SetBounds(token ViewportToken, bounds Rect) error {
	v, err := f.call("SetBounds", token)
	if err == nil {
		v.bounds = bounds
	}
	return err
}

func (f *fakeService) SetContentBounds(token ViewportToken, bounds Rect) error {
	v, err := f.call("SetContentBounds", token)
	if err == nil {
		v.content = bounds
	}
	return err
}

func (f *fakeService) SetConfiguration(token ViewportToken, cfg Configuration) error {
	v, err := f.call("SetConfiguration", token)
	if err == nil {
		v.config = cfg
	}
	return err
}

func (f *fakeService) SetChaining(token ViewportToken, motions MotionTypes) error {
	v, err := f.call("SetChaining", token)
	if err == nil {
		v.chaining = motions
	}
	return err
}

func (f *fakeService) SetZoomBoundaries(token ViewportToken, minZoom, maxZoom float64) error {
	_, err := f.call("SetZoomBoundaries", token)
	return err
}

func (f *fakeService) PrimaryTransform(token ViewportToken) (Transform, error) {
	v, err := f.call("PrimaryTransform", token)
	if err != nil {
		return Transform{}, err
	}
	return v.transform, nil
}

func (f *fakeService) SetPrimaryTransform(token ViewportToken, t Transform) error {
	v, err := f.call("SetPrimaryTransform", token)
	if err == nil {
		v.transform = t
	}
	return err
}

func (f *fakeService) InertiaEndTransform(token ViewportToken) (Transform, bool, error) {
	v, err := f.call("InertiaEndTransform", token)
	if err != nil {
		return Transform{}, false, err
	}
	return v.transform, v.status == StatusInertia, nil
}

func (f *fakeService) BringIntoViewport(token ViewportToken, bounds Rect, animate bool) error {
	v, err := f.call("BringIntoViewport", token)
	if err == nil {
		v.brought = append(v.brought, bounds)
	}
	return err
}

func (f *fakeService) SetConstantVelocities(token ViewportToken, vx, vy float64) error {
	_, err := f.call("SetConstantVelocities", token)
	return err
}

func (f *fakeService) AddSecondaryContent(token ViewportToken, id ContentID, typ ContentType, curves []CurveDefinition, offset Vec2) error {
	v, err := f.call("AddSecondaryContent", token)
	if err != nil {
		return err
	}
	v.added = append(v.added, id)
	v.curves[id] = curves
	v.shared[id] = newFakeShared()
	return nil
}

func (f *fakeService) RemoveSecondaryContent(token ViewportToken, id ContentID) error {
	v, err := f.call("RemoveSecondaryContent", token)
	if err == nil {
		delete(v.shared, id)
	}
	return err
}

func (f *fakeService) AddClipContent(token ViewportToken, id ContentID, curves []CurveDefinition) error {
	v, err := f.call("AddClipContent", token)
	if err != nil {
		return err
	}
	v.added = append(v.added, id)
	v.curves[id] = curves
	v.shared[id] = newFakeShared()
	return nil
}

func (f *fakeService) RemoveClipContent(token ViewportToken, id ContentID) error {
	v, err := f.call("RemoveClipContent", token)
	if err == nil {
		delete(v.shared, id)
	}
	return err
}

func (f *fakeService) SharedPrimaryTransform(token ViewportToken) (SharedTransform, error) {
	v, err := f.call("SharedPrimaryTransform", token)
	if err != nil {
		return nil, err
	}
	return v.primary, nil
}

func (f *fakeService) SharedContentTransform(token ViewportToken, id ContentID) (SharedTransform, error) {
	v, err := f.call("SharedContentTransform", token)
	if err != nil {
		return nil, err
	}
	s, ok := v.shared[id]
	if !ok {
		return nil, fmt.Errorf("unknown content %d", id)
	}
	return s, nil
}

// --- Registry harness ---

const scrollY = ConfigInteraction | ConfigTranslateY | ConfigInertia

func scrollInfo() ViewportInfo {
	return ViewportInfo{
		Bounds:        Rect{Width: 100, Height: 100},
		ContentBounds: Rect{Width: 100, Height: 1000},
		TouchConfig:   scrollY,
	}
}

type statusEvent struct {
	Element  string
	From, To ViewportStatus
}

type frameCounter struct{ n int }

func (f *frameCounter) RequestAdditionalFrame() { f.n++ }

type harness struct {
	t        *testing.T
	root     *Node
	reg      *Registry
	frames   *frameCounter
	services map[string]*fakeService

	statuses  []statusEvent
	completed []string
}

func newHarness(t *testing.T, opts ...RegistryOption) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		root:     NewNode("root", Rect{Width: 800, Height: 600}),
		frames:   &frameCounter{},
		services: make(map[string]*fakeService),
	}
	factory := func(c *Node) (Service, error) {
		s := newFakeService(c.Name)
		h.services[c.Name] = s
		return s, nil
	}
	opts = append([]RegistryOption{WithSceneRoot(h.root), WithFrameRequester(h.frames)}, opts...)
	h.reg = NewRegistry(factory, opts...)
	must(t, h.reg.AttachHost(1))
	h.reg.OnViewportStatusChanged(func(e ViewportEvent) {
		name := "<nil>"
		if e.Element != nil {
			name = e.Element.Name
		}
		h.statuses = append(h.statuses, statusEvent{Element: name, From: e.Previous, To: e.Current})
	})
	h.reg.OnManipulationCompleted(func(e ViewportEvent) {
		h.completed = append(h.completed, e.Element.Name)
	})
	return h
}

// scroller adds a container named name under parent with one content child
// sized by info, and registers it.
func (h *harness) scroller(name string, parent *Node, info ViewportInfo) (container, content *Node) {
	h.t.Helper()
	container = NewNode(name, info.Bounds)
	content = NewNode(name+"/content", info.ContentBounds)
	container.AddChild(content)
	parent.AddChild(container)
	must(h.t, h.reg.RegisterContainer(container, &StaticContainer{Info: info}))
	must(h.t, h.reg.NotifyManipulatableElementChanged(container, nil, content))
	return container, content
}

// touch puts pointer id down on element and returns the viewport it created.
func (h *harness) touch(id uint32, element *Node) *Viewport {
	h.t.Helper()
	ok, err := h.reg.SetContactOnPointerDown(id, element)
	must(h.t, err)
	if !ok {
		h.t.Fatalf("contact %d on %q not taken", id, element.Name)
	}
	v := h.reg.ViewportFor(element)
	if v == nil {
		for n := element; n != nil && v == nil; n = n.Parent {
			v = h.reg.ViewportFor(n)
		}
	}
	return v
}

func (h *harness) tick() error {
	err := h.reg.ProcessUIThreadTick()
	return errors.Join(err, h.reg.OnPostUIThreadTick())
}

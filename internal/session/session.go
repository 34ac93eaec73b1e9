package session

import (
	"fmt"
	"slices"

	"github.com/Faultbox/tangible/internal/deform"
	"github.com/Faultbox/tangible/internal/haptic"
	"github.com/Faultbox/tangible/pkg/math"
)

// Options configures a Session.
type Options struct {
	// RequireConstraint only lets anchored edits begin while the workspace
	// constraint box is active.
	RequireConstraint bool
	// WorkspaceHalfExtent sizes the constraint box. Zero means haptic.DefaultHalfExtent.
	WorkspaceHalfExtent float32
}

type touchRecord struct {
	mesh   int
	vertex int
}

// Anchor is the frozen reference of an anchored edit.
type Anchor struct {
	Mesh   int
	Vertex int
	// Neighborhood is the anchor vertex's adjacency at the moment the edit began.
	Neighborhood []int
	// ProxyWorld, Device and RawDevice are the sample readings at that moment.
	ProxyWorld math.Vec3
	Device     math.Vec3
	RawDevice  math.Vec3
}

// Session is the interaction state machine. It is not safe for concurrent
// use; a single cycle owns it.
type Session struct {
	objects Objects
	opts    Options

	state    State
	touch    *touchRecord
	friction float32
	drag     dragState
	anchor   *Anchor

	constrained bool
	workspace   haptic.Workspace
}

// New creates an idle session over objects.
func New(objects Objects, opts Options) *Session {
	if opts.WorkspaceHalfExtent <= 0 {
		opts.WorkspaceHalfExtent = haptic.DefaultHalfExtent
	}
	return &Session{
		objects: objects,
		opts:    opts,
		state:   Idle,
	}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Touched returns the touched mesh and vertex.
func (s *Session) Touched() (mesh, vertex int, ok bool) {
	if s.touch == nil {
		return -1, -1, false
	}
	return s.touch.mesh, s.touch.vertex, true
}

// Friction returns the friction of the most recently touched vertex.
func (s *Session) Friction() float32 {
	return s.friction
}

// Dragged returns the mesh being dragged.
func (s *Session) Dragged() (int, bool) {
	if s.state != Dragging {
		return -1, false
	}
	return s.drag.mesh, true
}

// Anchor returns a copy of the active anchor.
func (s *Session) Anchor() (Anchor, bool) {
	if s.anchor == nil {
		return Anchor{}, false
	}
	a := *s.anchor
	a.Neighborhood = slices.Clone(a.Neighborhood)
	return a, true
}

// Constrained reports whether the workspace box is active, and returns it.
func (s *Session) Constrained() (haptic.Workspace, bool) {
	return s.workspace, s.constrained
}

func (s *Session) checkMesh(i int) error {
	if i < 0 || i >= s.objects.Len() {
		return fmt.Errorf("%w: %d (have %d)", ErrOutOfRangeEvent, i, s.objects.Len())
	}
	return nil
}

// Touch records contact with mesh i at the world-space proxy position and
// resolves the nearest vertex in the mesh's local space.
func (s *Session) Touch(i int, proxy math.Vec3) error {
	if err := s.checkMesh(i); err != nil {
		return err
	}

	local := s.objects.Transform(i).Inverse().TransformVec3(proxy)
	m := s.objects.Mesh(i)
	v, err := m.Nearest(local)
	if err != nil {
		return fmt.Errorf("mesh %d: %w", i, err)
	}

	s.touch = &touchRecord{mesh: i, vertex: v}
	s.friction = m.Friction(v)
	if s.state == Idle {
		s.state = Touching
	}
	return nil
}

// Motion updates the touched vertex as the proxy slides over mesh i.
func (s *Session) Motion(i int, proxy math.Vec3) error {
	return s.Touch(i, proxy)
}

// Untouch ends contact with mesh i. Contact with another mesh is left alone.
func (s *Session) Untouch(i int) error {
	if err := s.checkMesh(i); err != nil {
		return err
	}
	if s.touch == nil || s.touch.mesh != i {
		return nil
	}

	s.touch = nil
	if s.state == Touching {
		s.state = Idle
	}
	return nil
}

// Grab starts dragging the touched mesh. proxy is the proxy transform at
// the time of the grab; it becomes the drag's reference frame. An active
// anchored edit ends.
func (s *Session) Grab(proxy math.Mat4) error {
	if s.touch == nil {
		return ErrNotTouching
	}
	s.anchor = nil
	s.drag = dragState{
		mesh:       s.touch.mesh,
		initProxy:  proxy,
		initObject: s.objects.Transform(s.touch.mesh),
	}
	s.state = Dragging
	return nil
}

// Release ends a drag and returns to Idle. The mesh keeps its last
// placement and the touch record survives, so an anchored edit can start
// before the next motion event.
func (s *Session) Release() {
	if s.state != Dragging {
		return
	}
	s.drag = dragState{}
	s.state = Idle
}

// ToggleAnchor starts an anchored edit on the touched vertex, or ends the
// active one and returns to Idle.
func (s *Session) ToggleAnchor(sample Sample) error {
	if s.state == AnchoredEditing {
		s.anchor = nil
		s.state = Idle
		return nil
	}

	switch {
	case s.state == Dragging:
		return ErrDragging
	case s.touch == nil:
		return ErrNotTouching
	case s.opts.RequireConstraint && !s.constrained:
		return ErrNotConstrained
	}

	m := s.objects.Mesh(s.touch.mesh)
	s.anchor = &Anchor{
		Mesh:         s.touch.mesh,
		Vertex:       s.touch.vertex,
		Neighborhood: m.Neighbors(s.touch.vertex),
		ProxyWorld:   sample.Proxy,
		Device:       sample.Device,
		RawDevice:    sample.RawDevice,
	}
	s.state = AnchoredEditing
	return nil
}

// ToggleConstraint switches the workspace box on, centered on the proxy,
// or off.
func (s *Session) ToggleConstraint(proxy math.Vec3) {
	s.constrained = !s.constrained
	if s.constrained {
		s.workspace = haptic.NewWorkspace(proxy, s.opts.WorkspaceHalfExtent)
	}
}

// Apply dispatches one event using the sample of the current cycle.
func (s *Session) Apply(e Event, sample Sample) error {
	switch e.Kind {
	case EventTouch:
		return s.Touch(e.Mesh, sample.Proxy)
	case EventMotion:
		return s.Motion(e.Mesh, sample.Proxy)
	case EventUntouch:
		return s.Untouch(e.Mesh)
	case EventGrab:
		return s.Grab(sample.ProxyTransform)
	case EventRelease:
		s.Release()
	case EventToggleAnchor:
		return s.ToggleAnchor(sample)
	case EventToggleConstraint:
		s.ToggleConstraint(sample.Proxy)
	default:
		return fmt.Errorf("unhandled event %s", e.Kind)
	}
	return nil
}

// EditStep is the outcome of one anchored deformation step.
type EditStep struct {
	Mesh int
	// Target is the anchor's goal in world space.
	Target math.Vec3
	// Local is Target in the mesh's local space.
	Local math.Vec3
	// Displacement points from the live device to the anchor, in the
	// device's physical frame.
	Displacement math.Vec3
}

// stepAnchor moves the anchor vertex toward where the device has carried it
// since the edit began, dragging the frozen neighborhood along at half strength.
func (s *Session) stepAnchor(sample Sample) (EditStep, bool, error) {
	if s.state != AnchoredEditing || s.anchor == nil {
		return EditStep{}, false, nil
	}
	a := s.anchor

	target := a.ProxyWorld.Add(sample.Device.Sub(a.Device))
	local := s.objects.Transform(a.Mesh).Inverse().TransformVec3(target)

	m := s.objects.Mesh(a.Mesh)
	if _, err := deform.Deform(m, a.Vertex, local, a.Neighborhood); err != nil {
		return EditStep{}, false, err
	}
	m.RecomputeNormals()

	return EditStep{
		Mesh:         a.Mesh,
		Target:       target,
		Local:        local,
		Displacement: a.RawDevice.Sub(sample.RawDevice),
	}, true, nil
}

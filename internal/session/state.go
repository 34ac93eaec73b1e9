// Package session tracks what the proxy is doing to the scene: which mesh
// and vertex it touches, which mesh it drags, and the anchored edit that
// sculpts a mesh every cycle. Device callbacks feed a Queue; a Controller
// drains it once per cycle and publishes snapshots for the display side.
package session

import (
	"errors"

	"github.com/Faultbox/tangible/internal/haptic"
	"github.com/Faultbox/tangible/internal/mesh"
	"github.com/Faultbox/tangible/pkg/math"
)

// Session errors. None of them are fatal; the controller logs and drops the
// offending event.
var (
	ErrOutOfRangeEvent = errors.New("event references an unknown mesh")
	ErrQueueFull       = errors.New("event queue full")
	ErrNotTouching     = errors.New("no mesh is touched")
	ErrNotConstrained  = errors.New("workspace constraint is not active")
	ErrDragging        = errors.New("a mesh is being dragged")
)

// State is the interaction state.
type State int

const (
	Idle State = iota
	Touching
	Dragging
	AnchoredEditing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Touching:
		return "touching"
	case Dragging:
		return "dragging"
	case AnchoredEditing:
		return "anchored-editing"
	default:
		return "unknown"
	}
}

// Objects is the ordered set of deformable meshes and their placements.
type Objects interface {
	Len() int
	Mesh(i int) *mesh.Mesh
	Transform(i int) math.Mat4
	SetTransform(i int, m math.Mat4)
	// Material is the surface material of mesh i.
	Material(i int) haptic.Material
}

// Sample is one reading from the haptic device.
type Sample struct {
	// Proxy is the contact point in world space.
	Proxy math.Vec3
	// ProxyTransform is the proxy's full world transform, rotation included.
	ProxyTransform math.Mat4
	// Device is the device position mapped into world space.
	Device math.Vec3
	// RawDevice is the device position in its own physical frame.
	RawDevice math.Vec3
}

// NewSample builds a sample where the proxy sits exactly on the device and
// has no rotation.
func NewSample(p math.Vec3) Sample {
	return Sample{
		Proxy:          p,
		ProxyTransform: math.TranslateVec(p),
		Device:         p,
		RawDevice:      p,
	}
}

// clampTo confines the proxy and device readings to the workspace box.
func (s Sample) clampTo(w haptic.Workspace) Sample {
	s.Proxy = w.Clamp(s.Proxy)
	s.Device = w.Clamp(s.Device)
	s.ProxyTransform[12], s.ProxyTransform[13], s.ProxyTransform[14] = s.Proxy.X, s.Proxy.Y, s.Proxy.Z
	return s
}

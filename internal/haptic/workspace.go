package haptic

import "github.com/Faultbox/tangible/pkg/math"

// DefaultHalfExtent is the half size of the constraint box.
const DefaultHalfExtent = 0.25

// Workspace is an axis-aligned box the device is confined to.
type Workspace struct {
	Center     math.Vec3
	HalfExtent float32
}

// NewWorkspace centers a box of the given half extent on center.
func NewWorkspace(center math.Vec3, halfExtent float32) Workspace {
	return Workspace{Center: center, HalfExtent: halfExtent}
}

// Min returns the lower corner.
func (w Workspace) Min() math.Vec3 {
	h := w.HalfExtent
	return w.Center.Sub(math.Vec3{X: h, Y: h, Z: h})
}

// Max returns the upper corner.
func (w Workspace) Max() math.Vec3 {
	h := w.HalfExtent
	return w.Center.Add(math.Vec3{X: h, Y: h, Z: h})
}

// Contains reports whether p lies inside the box, borders included.
func (w Workspace) Contains(p math.Vec3) bool {
	lo, hi := w.Min(), w.Max()
	return p.X >= lo.X && p.X <= hi.X &&
		p.Y >= lo.Y && p.Y <= hi.Y &&
		p.Z >= lo.Z && p.Z <= hi.Z
}

// Clamp returns the point of the box closest to p.
func (w Workspace) Clamp(p math.Vec3) math.Vec3 {
	lo, hi := w.Min(), w.Max()
	return math.Vec3{
		X: min(max(p.X, lo.X), hi.X),
		Y: min(max(p.Y, lo.Y), hi.Y),
		Z: min(max(p.Z, lo.Z), hi.Z),
	}
}

// Package haptic holds the device-side pieces of an interaction: the anchored
// spring force, the workspace constraint box and per-object surface materials.
package haptic

import "github.com/Faultbox/tangible/pkg/math"

// DefaultStiffness is the spring constant used when none is configured.
const DefaultStiffness = 0.1

// Spring pulls the device back toward an anchor.
type Spring struct {
	Stiffness    float32
	MaxStiffness float32
}

// NewSpring creates a spring. A non-positive max leaves the stiffness unbounded.
func NewSpring(stiffness, maxStiffness float32) Spring {
	return Spring{Stiffness: stiffness, MaxStiffness: maxStiffness}
}

// Effective returns the stiffness actually applied, clamped to [0, MaxStiffness].
func (s Spring) Effective() float32 {
	k := max(s.Stiffness, 0)
	if s.MaxStiffness > 0 {
		k = min(k, s.MaxStiffness)
	}
	return k
}

// Force converts an anchor-to-device displacement into a force.
func (s Spring) Force(displacement math.Vec3) math.Vec3 {
	return displacement.Scale(s.Effective())
}

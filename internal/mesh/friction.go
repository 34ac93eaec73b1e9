package mesh

import "github.com/Faultbox/tangible/pkg/math"

// Friction values assigned by the dominant color channel.
const (
	FrictionRed   float32 = 0.9
	FrictionGreen float32 = 0.4
	FrictionBlue  float32 = 0.1
)

// VertexColor returns the normalized absolute direction of p, which is the
// color shown for a vertex at p. A vertex at the origin is black.
func VertexColor(p math.Vec3) math.Vec3 {
	return p.Normalize().Abs()
}

// Classify returns the friction for a vertex color.
// When channels tie for the maximum the lowest channel wins (red, then green).
func Classify(c math.Vec3) float32 {
	switch {
	case c.X >= c.Y && c.X >= c.Z:
		return FrictionRed
	case c.Y >= c.Z:
		return FrictionGreen
	default:
		return FrictionBlue
	}
}

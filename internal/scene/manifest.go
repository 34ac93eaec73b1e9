package scene

import (
	"github.com/Faultbox/tangible/internal/haptic"
	"github.com/Faultbox/tangible/pkg/math"
)

// Manifest describes a scene on disk.
type Manifest struct {
	Objects []ObjectSpec `yaml:"objects" toml:"objects"`
	Prop    *PropSpec    `yaml:"prop,omitempty" toml:"prop,omitempty"`
}

// ObjectSpec is one deformable object.
type ObjectSpec struct {
	Name     string           `yaml:"name" toml:"name"`
	OBJ      string           `yaml:"obj" toml:"obj"`
	Position [3]float32       `yaml:"position" toml:"position"`
	Rotation RotationSpec     `yaml:"rotation" toml:"rotation"`
	Material *haptic.Material `yaml:"material,omitempty" toml:"material,omitempty"`
}

// RotationSpec is an axis-angle rotation in degrees.
type RotationSpec struct {
	Axis     [3]float32 `yaml:"axis" toml:"axis"`
	AngleDeg float32    `yaml:"angle_deg" toml:"angle_deg"`
}

// PropSpec is the decorative mesh carried by the proxy. Position and
// rotation place it relative to the proxy.
type PropSpec struct {
	Name     string       `yaml:"name" toml:"name"`
	OBJ      string       `yaml:"obj" toml:"obj"`
	Position [3]float32   `yaml:"position" toml:"position"`
	Rotation RotationSpec `yaml:"rotation" toml:"rotation"`
	// Scale shrinks the unitized prop mesh. Zero means 1.
	Scale float32 `yaml:"scale" toml:"scale"`
}

// placement builds the transform for a position and rotation: rotation first, then
// translation.
func placement(position [3]float32, r RotationSpec) math.Mat4 {
	rot := math.QuatFromAxisAngleDeg(math.FromArray(r.Axis), r.AngleDeg).ToMat4()
	return math.TranslateVec(math.FromArray(position)).Mul(rot)
}

func propOffset(p PropSpec) math.Mat4 {
	s := p.Scale
	if s == 0 {
		s = 1
	}
	return placement(p.Position, p.Rotation).Mul(math.Scale(s, s, s))
}

// DefaultManifest lays out two copies of objPath side by side, the second
// up and back from the first, with prop (if not empty) held as a pencil
// pointing down from the proxy.
func DefaultManifest(objPath, propPath string) Manifest {
	m := Manifest{
		Objects: []ObjectSpec{
			{Name: "front", OBJ: objPath},
			{Name: "back", OBJ: objPath, Position: [3]float32{1, 1, -2}},
		},
	}
	if propPath != "" {
		m.Prop = &PropSpec{
			Name:     "pencil",
			OBJ:      propPath,
			Position: [3]float32{0, 0, 0.25},
			Rotation: RotationSpec{Axis: [3]float32{1, 0, 0}, AngleDeg: 90},
			Scale:    0.25,
		}
	}
	return m
}

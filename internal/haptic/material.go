package haptic

// Material describes how a surface feels under the proxy.
type Material struct {
	Stiffness       float32 `yaml:"stiffness" toml:"stiffness"`
	Damping         float32 `yaml:"damping" toml:"damping"`
	StaticFriction  float32 `yaml:"static_friction" toml:"static_friction"`
	DynamicFriction float32 `yaml:"dynamic_friction" toml:"dynamic_friction"`
}

// DefaultMaterial returns the material every scene object starts with.
func DefaultMaterial() Material {
	return Material{
		Stiffness:       0.8,
		Damping:         0,
		StaticFriction:  0.5,
		DynamicFriction: 0,
	}
}

// WithSurfaceFriction returns a copy whose static friction is replaced by the
// friction of the touched vertex. Dynamic friction never exceeds static.
func (m Material) WithSurfaceFriction(f float32) Material {
	m.StaticFriction = clamp01(f)
	m.DynamicFriction = min(m.DynamicFriction, m.StaticFriction)
	return m
}

// Valid reports whether every coefficient lies in [0, 1].
func (m Material) Valid() bool {
	for _, v := range []float32{m.Stiffness, m.Damping, m.StaticFriction, m.DynamicFriction} {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/tangible/pkg/math"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		color math.Vec3
		want  float32
	}{
		{"red dominant", math.Vec3{X: 0.8, Y: 0.1, Z: 0.1}, 0.9},
		{"green dominant", math.Vec3{X: 0.1, Y: 0.8, Z: 0.1}, 0.4},
		{"blue dominant", math.Vec3{X: 0.1, Y: 0.1, Z: 0.8}, 0.1},
		{"red green tie", math.Vec3{X: 0.7, Y: 0.7, Z: 0.1}, 0.9},
		{"red blue tie", math.Vec3{X: 0.7, Y: 0.1, Z: 0.7}, 0.9},
		{"green blue tie", math.Vec3{X: 0.1, Y: 0.7, Z: 0.7}, 0.4},
		{"all equal", math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}, 0.9},
		{"black", math.Vec3{}, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.color))
		})
	}
}

func TestVertexColor(t *testing.T) {
	c := VertexColor(math.Vec3{X: -3, Y: 4})
	assert.InDelta(t, 0.6, c.X, 1e-6)
	assert.InDelta(t, 0.8, c.Y, 1e-6)
	assert.InDelta(t, 0, c.Z, 1e-6)

	assert.Equal(t, math.Vec3{}, VertexColor(math.Vec3{}))
}

func TestLoadAssignsFriction(t *testing.T) {
	m, err := Load(Source{Positions: []math.Vec3{
		{X: 8, Y: -1, Z: 1},
		{X: 1, Y: 8, Z: -1},
		{X: -1, Y: 1, Z: -8},
	}})
	assert.NoError(t, err)
	assert.Equal(t, []float32{0.9, 0.4, 0.1}, m.Frictions())
}

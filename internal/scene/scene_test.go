package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/tangible/internal/mesh"
	"github.com/Faultbox/tangible/internal/session"
	"github.com/Faultbox/tangible/pkg/formats"
	"github.com/Faultbox/tangible/pkg/math"
)

var _ session.Objects = (*Scene)(nil)

// tetraOBJ has one vertex on each positive axis and one at the origin, so
// every friction class shows up.
const tetraOBJ = `# tetra
v 2 0 0
v 0 2 0
v 0 0 2
v 0 0 0
f 1 2 3
f 1 4 2
f 2 4 3
f 3 4 1
`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func assertVec(t *testing.T, want, got math.Vec3, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-5, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, 1e-5, msgAndArgs...)
	assert.InDelta(t, want.Z, got.Z, 1e-5, msgAndArgs...)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "models/tetra.obj", tetraOBJ)
	manifest := writeFile(t, dir, "scene.yaml", `
objects:
  - name: left
    obj: models/tetra.obj
  - name: right
    obj: models/tetra.obj
    position: [1, 1, -2]
    rotation:
      axis: [0, 0, 1]
      angle_deg: 90
    material:
      stiffness: 0.6
      static_friction: 0.3
`)

	s, err := Load(manifest)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Nil(t, s.Prop())

	left := s.Object(0)
	assert.Equal(t, "left", left.Name)
	assert.Equal(t, filepath.Join(dir, "models/tetra.obj"), left.Source)
	assert.Equal(t, math.Identity(), left.Transform)
	assert.Equal(t, float32(0.8), left.Material.Stiffness)

	right := s.Object(1)
	assert.Equal(t, float32(0.6), right.Material.Stiffness)
	assert.Equal(t, float32(0.3), right.Material.StaticFriction)
	assert.Equal(t, right.Material, s.Material(1))
	assertVec(t, math.V3(1, 1, -2), s.Transform(1).Translation())
	assertVec(t, math.V3(1, 2, -2), s.Transform(1).TransformVec3(math.V3(1, 0, 0)))

	idx, ok := s.Find("right")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = s.Find("missing")
	assert.False(t, ok)
}

func TestLoadUnitizesAndColorsFromFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tetra.obj", tetraOBJ)
	manifest := writeFile(t, dir, "scene.yaml", "objects:\n  - obj: tetra.obj\n")

	s, err := Load(manifest)
	require.NoError(t, err)
	m := s.Mesh(0)
	assert.Equal(t, "object0", s.Object(0).Name)

	// Bounding box [0,2]^3 is centered on the origin with unit scale.
	assertVec(t, math.V3(1, -1, -1), m.VertexPosition(0))
	assertVec(t, math.V3(-1, -1, -1), m.VertexPosition(3))
	b := m.Bounds()
	assertVec(t, math.V3(-1, -1, -1), b.Min)
	assertVec(t, math.V3(1, 1, 1), b.Max)

	// Friction follows the file-space direction of each vertex.
	assert.Equal(t, []float32{
		mesh.FrictionRed, mesh.FrictionGreen, mesh.FrictionBlue, mesh.FrictionRed,
	}, m.Frictions())
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tetra.obj", tetraOBJ)
	writeFile(t, dir, "pencil.obj", tetraOBJ)
	manifest := writeFile(t, dir, "scene.toml", `
[[objects]]
name = "only"
obj = "tetra.obj"
position = [0.0, 2.0, 0.0]

[prop]
obj = "pencil.obj"
position = [0.0, 0.0, 1.0]
rotation = { axis = [1.0, 0.0, 0.0], angle_deg = 90.0 }
scale = 0.5
`)

	s, err := Load(manifest)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	assertVec(t, math.V3(0, 2, 0), s.Transform(0).Translation())

	p := s.Prop()
	require.NotNil(t, p)
	assert.Equal(t, "prop", p.Name)
	assert.Equal(t, 4, p.Mesh.VertexCount())
	// The prop's +Y axis is halved and turned onto +Z.
	assertVec(t, math.V3(0, 0, 1), p.Offset.Translation())
	assertVec(t, math.V3(0, 0, 1.5), p.Offset.TransformVec3(math.V3(0, 1, 0)))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tetra.obj", tetraOBJ)
	writeFile(t, dir, "broken.obj", "v 0 0 0\nv 1 0 0\nf 1 2 9\n")

	tests := []struct {
		name     string
		manifest string
		wantErr  error
	}{
		{"no objects", "objects: []\n", ErrNoObjects},
		{"duplicate names", "objects:\n  - {name: a, obj: tetra.obj}\n  - {name: a, obj: tetra.obj}\n", ErrDuplicateName},
		{"name with separator", "objects:\n  - {name: ../escape, obj: tetra.obj}\n", ErrInvalidName},
		{"name with backslash", "objects:\n  - {name: 'a\\b', obj: tetra.obj}\n", ErrInvalidName},
		{"dot-dot name", "objects:\n  - {name: '..', obj: tetra.obj}\n", ErrInvalidName},
		{"bad material", "objects:\n  - obj: tetra.obj\n    material: {damping: 3}\n", ErrInvalidMaterial},
		{"bad topology", "objects:\n  - obj: broken.obj\n", mesh.ErrInvalidTopology},
		{"empty obj", "objects:\n  - obj: empty.obj\n", formats.ErrEmptyOBJ},
	}
	writeFile(t, dir, "empty.obj", "# nothing\n")

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, fmt.Sprintf("scene%d.yaml", i), tt.manifest)
			_, err := Load(path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("missing obj", func(t *testing.T) {
		_, err := Build(Manifest{Objects: []ObjectSpec{{OBJ: "nope.obj"}}}, dir)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing manifest", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestDefaultManifest(t *testing.T) {
	dir := t.TempDir()
	obj := writeFile(t, dir, "tetra.obj", tetraOBJ)

	s, err := Build(DefaultManifest(obj, obj), "")
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assertVec(t, math.Vec3{}, s.Transform(0).Translation())
	assertVec(t, math.V3(1, 1, -2), s.Transform(1).Translation())
	require.NotNil(t, s.Prop())
	assert.Equal(t, "pencil", s.Prop().Name)

	noProp := DefaultManifest(obj, "")
	assert.Nil(t, noProp.Prop)
}

func TestFromMeshes(t *testing.T) {
	m, err := mesh.Load(mesh.Source{
		Positions: []math.Vec3{{}, {X: 1}, {Y: 1}},
		Triangles: [][3]int{{0, 1, 2}},
	})
	require.NoError(t, err)

	s, err := FromMeshes([]*mesh.Mesh{m}, nil)
	require.NoError(t, err)
	assert.Equal(t, math.Identity(), s.Transform(0))

	s.SetTransform(0, math.Translate(0, 0, 1))
	assertVec(t, math.V3(0, 0, 1), s.Transform(0).Translation())

	_, err = FromMeshes(nil, nil)
	assert.ErrorIs(t, err, ErrNoObjects)

	_, err = FromMeshes([]*mesh.Mesh{m}, []math.Mat4{math.Identity(), math.Identity()})
	assert.Error(t, err)
}

func TestExportOBJ(t *testing.T) {
	dir := t.TempDir()
	obj := writeFile(t, dir, "tetra.obj", tetraOBJ)
	s, err := Build(DefaultManifest(obj, ""), "")
	require.NoError(t, err)

	s.Mesh(0).SetVertexPosition(0, math.V3(3, 0, 0))
	s.Mesh(0).RecomputeNormals()

	out := filepath.Join(dir, "out")
	paths, err := s.ExportOBJ(out)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "front.obj"), filepath.Join(out, "back.obj")}, paths)

	back, err := formats.LoadOBJ(paths[0])
	require.NoError(t, err)
	assert.Len(t, back.Vertices, 4)
	assert.Len(t, back.Normals, 4)
	assert.Len(t, back.Triangles, 4)
	assertVec(t, math.V3(3, 0, 0), back.Vertices[0])
}

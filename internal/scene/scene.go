// Package scene loads the deformable objects a session works on, together
// with their placements, haptic materials and the proxy's decorative prop.
package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/tangible/internal/config"
	"github.com/Faultbox/tangible/internal/haptic"
	"github.com/Faultbox/tangible/internal/logger"
	"github.com/Faultbox/tangible/internal/mesh"
	"github.com/Faultbox/tangible/pkg/formats"
	"github.com/Faultbox/tangible/pkg/math"
)

// Scene errors.
var (
	ErrNoObjects       = errors.New("scene has no objects")
	ErrDuplicateName   = errors.New("duplicate object name")
	ErrInvalidName     = errors.New("object name must be a plain file name")
	ErrInvalidMaterial = errors.New("material coefficients must lie in [0, 1]")
)

// Object is one deformable mesh placed in the world.
type Object struct {
	Name      string
	Source    string
	Mesh      *mesh.Mesh
	Transform math.Mat4
	Material  haptic.Material
}

// Prop is a mesh drawn at the proxy. It is never touched or deformed.
type Prop struct {
	Name   string
	Source string
	Mesh   *mesh.Mesh
	// Offset places the prop relative to the proxy transform.
	Offset math.Mat4
}

// Scene is an ordered set of objects. Indices are stable for its lifetime.
type Scene struct {
	objects []*Object
	prop    *Prop
}

// Load reads a manifest (YAML, or TOML for .toml files) and builds the
// scene. OBJ paths are resolved relative to the manifest.
func Load(path string) (*Scene, error) {
	var m Manifest
	if err := config.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return Build(m, filepath.Dir(path))
}

// Build loads every mesh named by m. Relative OBJ paths are joined to baseDir.
func Build(m Manifest, baseDir string) (*Scene, error) {
	if len(m.Objects) == 0 {
		return nil, ErrNoObjects
	}

	log := logger.Named("scene")
	s := &Scene{objects: make([]*Object, 0, len(m.Objects))}
	seen := make(map[string]bool, len(m.Objects))

	for i, spec := range m.Objects {
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("object%d", i)
		}
		if !validName(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		seen[name] = true

		material := haptic.DefaultMaterial()
		if spec.Material != nil {
			if !spec.Material.Valid() {
				return nil, fmt.Errorf("object %q: %w", name, ErrInvalidMaterial)
			}
			material = *spec.Material
		}

		src := resolve(baseDir, spec.OBJ)
		msh, err := LoadMesh(src)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", name, err)
		}

		s.objects = append(s.objects, &Object{
			Name:      name,
			Source:    src,
			Mesh:      msh,
			Transform: placement(spec.Position, spec.Rotation),
			Material:  material,
		})
		log.Info("object loaded",
			zap.String("name", name),
			zap.String("source", src),
			zap.Int("vertices", msh.VertexCount()),
			zap.Int("triangles", msh.TriangleCount()))
	}

	if m.Prop != nil {
		src := resolve(baseDir, m.Prop.OBJ)
		msh, err := LoadMesh(src)
		if err != nil {
			return nil, fmt.Errorf("prop: %w", err)
		}
		name := m.Prop.Name
		if name == "" {
			name = "prop"
		}
		s.prop = &Prop{
			Name:   name,
			Source: src,
			Mesh:   msh,
			Offset: propOffset(*m.Prop),
		}
		log.Debug("prop loaded", zap.String("name", name), zap.Int("vertices", msh.VertexCount()))
	}

	return s, nil
}

// FromMeshes wraps already-built meshes. transforms may be nil, in which
// case every object sits at the origin; otherwise it must match meshes.
func FromMeshes(meshes []*mesh.Mesh, transforms []math.Mat4) (*Scene, error) {
	if len(meshes) == 0 {
		return nil, ErrNoObjects
	}
	if transforms != nil && len(transforms) != len(meshes) {
		return nil, fmt.Errorf("got %d transforms for %d meshes", len(transforms), len(meshes))
	}

	s := &Scene{objects: make([]*Object, len(meshes))}
	for i, m := range meshes {
		xf := math.Identity()
		if transforms != nil {
			xf = transforms[i]
		}
		s.objects[i] = &Object{
			Name:      fmt.Sprintf("object%d", i),
			Mesh:      m,
			Transform: xf,
			Material:  haptic.DefaultMaterial(),
		}
	}
	return s, nil
}

// LoadMesh parses an OBJ, unitizes it and builds the mesh. Colors come from
// the file-space positions.
func LoadMesh(path string) (*mesh.Mesh, error) {
	obj, err := formats.LoadOBJ(path)
	if err != nil {
		return nil, err
	}
	formats.Unitize(obj.Vertices)
	return mesh.Load(mesh.Source{
		Positions:      obj.Vertices,
		ColorPositions: obj.Raw,
		Triangles:      obj.Triangles,
	})
}

// validName reports whether name can be used as dir/<name>.obj without
// leaving dir.
func validName(name string) bool {
	return name != "." && name != ".." && !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

// Len returns the number of objects.
func (s *Scene) Len() int { return len(s.objects) }

// Mesh returns the mesh of object i.
func (s *Scene) Mesh(i int) *mesh.Mesh { return s.objects[i].Mesh }

// Transform returns the placement of object i.
func (s *Scene) Transform(i int) math.Mat4 { return s.objects[i].Transform }

// SetTransform moves object i.
func (s *Scene) SetTransform(i int, m math.Mat4) { s.objects[i].Transform = m }

// Material returns the material of object i.
func (s *Scene) Material(i int) haptic.Material { return s.objects[i].Material }

// Object returns object i.
func (s *Scene) Object(i int) *Object { return s.objects[i] }

// Objects returns all objects in order.
func (s *Scene) Objects() []*Object { return s.objects }

// Prop returns the decorative prop, or nil.
func (s *Scene) Prop() *Prop { return s.prop }

// Find returns the index of the named object.
func (s *Scene) Find(name string) (int, bool) {
	for i, o := range s.objects {
		if o.Name == name {
			return i, true
		}
	}
	return -1, false
}

// ExportOBJ writes each object's current mesh-local geometry to
// dir/<name>.obj and returns the paths written.
func (s *Scene) ExportOBJ(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(s.objects))
	for _, o := range s.objects {
		path := filepath.Join(dir, o.Name+".obj")
		if err := writeMesh(path, o.Mesh); err != nil {
			return paths, fmt.Errorf("exporting %q: %w", o.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeMesh(path string, m *mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := formats.WriteOBJ(f, m.Positions(), m.Normals(), m.Triangles()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

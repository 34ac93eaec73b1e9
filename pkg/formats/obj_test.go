package formats

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/tangible/pkg/math"
)

const quadOBJ = `# unit quad
mtllib quad.mtl
o quad
v 0 0 0
v 2 0 0
v 2 2 0
v 0 2 0
vn 0 0 1
vt 0 0
usemtl skin
s off
f 1/1/1 2/1/1 3/1/1 4/1/1
`

func TestParseOBJ_Quad(t *testing.T) {
	obj, err := ParseOBJ(strings.NewReader(quadOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}

	if len(obj.Vertices) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(obj.Vertices))
	}
	if len(obj.Normals) != 1 {
		t.Errorf("expected 1 normal, got %d", len(obj.Normals))
	}

	want := [][3]int{{0, 1, 2}, {0, 2, 3}}
	if len(obj.Triangles) != len(want) {
		t.Fatalf("expected %d triangles, got %d", len(want), len(obj.Triangles))
	}
	for i, tri := range want {
		if obj.Triangles[i] != tri {
			t.Errorf("triangle %d: got %v, want %v", i, obj.Triangles[i], tri)
		}
	}

	if obj.Raw[2] != (math.Vec3{X: 2, Y: 2}) {
		t.Errorf("raw vertex 2: got %v", obj.Raw[2])
	}
}

func TestParseOBJ_FaceReferences(t *testing.T) {
	tests := []struct {
		name string
		face string
		want [3]int
	}{
		{"plain", "f 1 2 3", [3]int{0, 1, 2}},
		{"texcoord", "f 1/4 2/5 3/6", [3]int{0, 1, 2}},
		{"normal only", "f 3//1 2//1 1//1", [3]int{2, 1, 0}},
		{"negative", "f -3 -2 -1", [3]int{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := "v 0 0 0\nv 1 0 0\nv 0 1 0\n" + tt.face + "\n"
			obj, err := ParseOBJ(strings.NewReader(data))
			if err != nil {
				t.Fatalf("ParseOBJ: %v", err)
			}
			if len(obj.Triangles) != 1 || obj.Triangles[0] != tt.want {
				t.Errorf("got %v, want [%v]", obj.Triangles, tt.want)
			}
		})
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"empty", "", ErrEmptyOBJ},
		{"comments only", "# nothing\n", ErrEmptyOBJ},
		{"bad vertex", "v 1 x 3\n", ErrInvalidOBJ},
		{"short vertex", "v 1 2\n", ErrInvalidOBJ},
		{"short face", "v 0 0 0\nf 1 1\n", ErrInvalidOBJ},
		{"zero index", "v 0 0 0\nf 0 1 1\n", ErrInvalidOBJ},
		{"bad index", "v 0 0 0\nf a 1 1\n", ErrInvalidOBJ},
		{"nan vertex", "v nan 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", ErrInvalidOBJ},
		{"infinite vertex", "v 0 +Inf 0\n", ErrInvalidOBJ},
		{"infinite normal", "v 0 0 0\nvn -inf 0 1\n", ErrInvalidOBJ},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUnitize(t *testing.T) {
	verts := []math.Vec3{{X: 1, Y: 1, Z: 1}, {X: 5, Y: 2, Z: 1}, {X: 3, Y: 3, Z: 2}}
	Unitize(verts)

	// Largest extent is x (4) so the scale is 0.5, center is (3, 2, 1.5).
	want := []math.Vec3{{X: -1, Y: -0.5, Z: -0.25}, {X: 1, Y: 0, Z: -0.25}, {X: 0, Y: 0.5, Z: 0.25}}
	for i := range want {
		if verts[i] != want[i] {
			t.Errorf("vertex %d: got %v, want %v", i, verts[i], want[i])
		}
	}
}

func TestUnitizeSinglePoint(t *testing.T) {
	verts := []math.Vec3{{X: 3, Y: 4, Z: 5}}
	Unitize(verts)
	if verts[0] != (math.Vec3{}) {
		t.Errorf("single point should be centered at origin, got %v", verts[0])
	}
	Unitize(nil)
}

func TestWriteOBJRoundTrip(t *testing.T) {
	positions := []math.Vec3{{}, {X: 1}, {Y: 1}}
	normals := []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}}
	tris := [][3]int{{0, 1, 2}}

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, positions, normals, tris); err != nil {
		t.Fatalf("WriteOBJ: %v", err)
	}
	if !strings.Contains(buf.String(), "f 1//1 2//2 3//3") {
		t.Errorf("unexpected face line in:\n%s", buf.String())
	}

	obj, err := ParseOBJ(&buf)
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if len(obj.Vertices) != 3 || obj.Vertices[1] != positions[1] {
		t.Errorf("vertices not preserved: %v", obj.Vertices)
	}
	if len(obj.Triangles) != 1 || obj.Triangles[0] != tris[0] {
		t.Errorf("triangles not preserved: %v", obj.Triangles)
	}
}

func TestWriteOBJNormalMismatch(t *testing.T) {
	err := WriteOBJ(&bytes.Buffer{}, []math.Vec3{{}}, []math.Vec3{}, nil)
	if err == nil {
		t.Error("expected error for mismatched normals")
	}
}

func TestLoadOBJ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	obj, err := LoadOBJ(path)
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if len(obj.Triangles) != 2 {
		t.Errorf("expected 2 triangles, got %d", len(obj.Triangles))
	}

	if _, err := LoadOBJ(filepath.Join(t.TempDir(), "missing.obj")); err == nil {
		t.Error("expected error for missing file")
	}
}

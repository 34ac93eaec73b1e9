// Package formats provides readers and writers for mesh source files.
// OBJ (Wavefront) format parser and writer.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/math32"

	"github.com/Faultbox/tangible/pkg/math"
)

// OBJ format errors.
var (
	ErrInvalidOBJ = errors.New("invalid OBJ data")
	ErrEmptyOBJ   = errors.New("OBJ contains no vertices")
)

// OBJ is a parsed triangle mesh source.
type OBJ struct {
	// Vertices holds positions in file order. Unitize rewrites them in place.
	Vertices []math.Vec3
	// Raw keeps the positions exactly as read from the file.
	Raw []math.Vec3
	// Normals holds "vn" records. They are kept for reference only.
	Normals []math.Vec3
	// Triangles holds zero-based vertex indices. Polygons are fan-triangulated.
	Triangles [][3]int
}

// LoadOBJ reads and parses an OBJ file from disk.
func LoadOBJ(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ: %w", err)
	}
	defer f.Close()

	obj, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obj, nil
}

// ParseOBJ parses OBJ data from a reader.
// Only geometry records are read; materials, groups, texture coordinates
// and smoothing groups are skipped.
func ParseOBJ(r io.Reader) (*OBJ, error) {
	obj := &OBJ{}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
			}
			obj.Vertices = append(obj.Vertices, v)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
			}
			obj.Normals = append(obj.Normals, n)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face needs at least 3 vertices", ErrInvalidOBJ, lineNo)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				i, err := parseFaceRef(ref, len(obj.Vertices))
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
				}
				idx = append(idx, i)
			}
			for k := 1; k < len(idx)-1; k++ {
				obj.Triangles = append(obj.Triangles, [3]int{idx[0], idx[k], idx[k+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	if len(obj.Vertices) == 0 {
		return nil, ErrEmptyOBJ
	}

	obj.Raw = make([]math.Vec3, len(obj.Vertices))
	copy(obj.Raw, obj.Vertices)
	return obj, nil
}

func parseVec3(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var c [3]float32
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("component %d: %w", i, err)
		}
		c[i] = float32(f)
		if math32.IsNaN(c[i]) || math32.IsInf(c[i], 0) {
			return math.Vec3{}, fmt.Errorf("component %d: %q is not finite", i, fields[i])
		}
	}
	return math.FromArray(c), nil
}

// parseFaceRef resolves "v", "v/vt", "v//vn" or "v/vt/vn" to a zero-based
// vertex index. Negative references count back from the last vertex read.
// Range checking against the final vertex count is left to the mesh loader.
func parseFaceRef(ref string, seen int) (int, error) {
	head, _, _ := strings.Cut(ref, "/")
	i, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("face reference %q: %w", ref, err)
	}
	switch {
	case i > 0:
		return i - 1, nil
	case i < 0:
		return seen + i, nil
	default:
		return 0, fmt.Errorf("face reference %q: index 0 is not valid", ref)
	}
}

// Unitize centers the bounding box of vertices at the origin and scales it
// uniformly so the largest extent becomes 2. Flat or empty inputs are only
// centered.
func Unitize(vertices []math.Vec3) {
	if len(vertices) == 0 {
		return
	}

	lo, hi := vertices[0], vertices[0]
	for _, v := range vertices[1:] {
		lo.X, hi.X = min(lo.X, v.X), max(hi.X, v.X)
		lo.Y, hi.Y = min(lo.Y, v.Y), max(hi.Y, v.Y)
		lo.Z, hi.Z = min(lo.Z, v.Z), max(hi.Z, v.Z)
	}

	center := lo.Add(hi).Scale(0.5)
	extent := hi.Sub(lo)
	largest := max(extent.X, extent.Y, extent.Z)

	scale := float32(1)
	if largest > 0 {
		scale = 2 / largest
	}
	for i := range vertices {
		vertices[i] = vertices[i].Sub(center).Scale(scale)
	}
}

// WriteOBJ writes positions, optional per-vertex normals and triangles as OBJ.
// normals may be nil; when present it must match positions in length.
func WriteOBJ(w io.Writer, positions, normals []math.Vec3, triangles [][3]int) error {
	if normals != nil && len(normals) != len(positions) {
		return fmt.Errorf("normal count %d does not match vertex count %d", len(normals), len(positions))
	}

	bw := bufio.NewWriter(w)
	for _, p := range positions {
		fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
	}
	for _, n := range normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
	}
	for _, t := range triangles {
		a, b, c := t[0]+1, t[1]+1, t[2]+1
		if normals != nil {
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
		} else {
			fmt.Fprintf(bw, "f %d %d %d\n", a, b, c)
		}
	}
	return bw.Flush()
}

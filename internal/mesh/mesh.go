// Package mesh holds deformable triangle meshes: vertex storage with derived
// normals, colors and friction, the frozen adjacency graph, and nearest-vertex
// lookup.
package mesh

import (
	"fmt"

	"github.com/Faultbox/tangible/pkg/math"
)

// Source is an already-parsed mesh ready to be loaded.
type Source struct {
	// Positions in mesh-local space, usually centered and unitized.
	Positions []math.Vec3
	// ColorPositions, when set, is used instead of Positions to derive vertex
	// colors and friction. It must have the same length as Positions.
	ColorPositions []math.Vec3
	// Triangles index into Positions. Winding defines the normal direction.
	Triangles [][3]int
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Extend returns the smallest box holding both b and p.
func (b Bounds) Extend(p math.Vec3) Bounds {
	b.Min.X, b.Max.X = min(b.Min.X, p.X), max(b.Max.X, p.X)
	b.Min.Y, b.Max.Y = min(b.Min.Y, p.Y), max(b.Max.Y, p.Y)
	b.Min.Z, b.Max.Z = min(b.Min.Z, p.Z), max(b.Max.Z, p.Z)
	return b
}

// BoundsOf returns the box around points, or a zero box when there are none.
func BoundsOf(points []math.Vec3) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return b
}

// Mesh is a deformable triangle mesh. Vertex indices are dense and stable;
// only positions (and the normals derived from them) ever change.
type Mesh struct {
	positions []math.Vec3
	normals   []math.Vec3
	colors    []math.Vec3
	friction  []float32
	triangles [][3]int
	graph     *Graph
}

// Load builds a mesh from src. It fails with ErrInvalidTopology when a
// triangle references a vertex that does not exist.
func Load(src Source) (*Mesh, error) {
	n := len(src.Positions)
	colorSrc := src.Positions
	if src.ColorPositions != nil {
		if len(src.ColorPositions) != n {
			return nil, fmt.Errorf("color positions: got %d, want %d", len(src.ColorPositions), n)
		}
		colorSrc = src.ColorPositions
	}

	graph, err := BuildGraph(n, src.Triangles)
	if err != nil {
		return nil, err
	}

	m := &Mesh{
		positions: make([]math.Vec3, n),
		normals:   make([]math.Vec3, n),
		colors:    make([]math.Vec3, n),
		friction:  make([]float32, n),
		triangles: make([][3]int, len(src.Triangles)),
		graph:     graph,
	}
	copy(m.positions, src.Positions)
	copy(m.triangles, src.Triangles)

	for i, p := range colorSrc {
		c := VertexColor(p)
		m.colors[i] = c
		m.friction[i] = Classify(c)
	}

	m.RecomputeNormals()
	return m, nil
}

// RecomputeNormals rebuilds per-vertex normals as the normalized sum of the
// unit face normals around each vertex. Degenerate faces contribute nothing.
func (m *Mesh) RecomputeNormals() {
	for i := range m.normals {
		m.normals[i] = math.Vec3{}
	}

	for _, t := range m.triangles {
		p1, p2, p3 := m.positions[t[0]], m.positions[t[1]], m.positions[t[2]]
		n := p2.Sub(p1).Cross(p3.Sub(p1)).Normalize()
		m.normals[t[0]] = m.normals[t[0]].Add(n)
		m.normals[t[1]] = m.normals[t[1]].Add(n)
		m.normals[t[2]] = m.normals[t[2]].Add(n)
	}

	for i := range m.normals {
		m.normals[i] = m.normals[i].Normalize()
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.positions)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.triangles)
}

// VertexPosition returns the local-space position of vertex i.
// It panics if i is out of range.
func (m *Mesh) VertexPosition(i int) math.Vec3 {
	return m.positions[i]
}

// SetVertexPosition moves vertex i. This is the only way geometry changes;
// normals are stale until RecomputeNormals runs.
// It panics if i is out of range.
func (m *Mesh) SetVertexPosition(i int, p math.Vec3) {
	m.positions[i] = p
}

// Normal returns the normal of vertex i as of the last RecomputeNormals.
func (m *Mesh) Normal(i int) math.Vec3 {
	return m.normals[i]
}

// Color returns the color of vertex i.
func (m *Mesh) Color(i int) math.Vec3 {
	return m.colors[i]
}

// Friction returns the surface friction of vertex i.
func (m *Mesh) Friction(i int) float32 {
	return m.friction[i]
}

// Positions returns the live position slice. Callers must not modify it.
func (m *Mesh) Positions() []math.Vec3 {
	return m.positions
}

// Normals returns the live normal slice. Callers must not modify it.
func (m *Mesh) Normals() []math.Vec3 {
	return m.normals
}

// Colors returns the vertex colors. Callers must not modify them.
func (m *Mesh) Colors() []math.Vec3 {
	return m.colors
}

// Frictions returns the per-vertex friction values. Callers must not modify them.
func (m *Mesh) Frictions() []float32 {
	return m.friction
}

// Triangles returns the triangle list. Callers must not modify it.
func (m *Mesh) Triangles() [][3]int {
	return m.triangles
}

// Graph returns the adjacency graph.
func (m *Mesh) Graph() *Graph {
	return m.graph
}

// Neighbors returns the one-hop neighbors of vertex i.
func (m *Mesh) Neighbors(i int) []int {
	return m.graph.Neighbors(i)
}

// Bounds returns the bounding box of the current positions.
// An empty mesh has a zero box.
func (m *Mesh) Bounds() Bounds {
	return BoundsOf(m.positions)
}

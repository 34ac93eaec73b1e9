// Package deform applies incremental sculpting edits to mesh vertices.
package deform

import (
	"fmt"

	"github.com/Faultbox/tangible/internal/mesh"
	"github.com/Faultbox/tangible/pkg/math"
)

// NeighborWeight is the share of the anchor displacement applied to each
// neighbor of the anchor.
const NeighborWeight float32 = 0.5

// Target is the geometry a deformation writes to. *mesh.Mesh implements it.
type Target interface {
	VertexCount() int
	VertexPosition(i int) math.Vec3
	SetVertexPosition(i int, p math.Vec3)
}

// Deform moves the anchor vertex onto target and every vertex in neighborhood
// by half of that displacement. Vertices outside neighborhood are untouched.
//
// The displacement is measured from the anchor's current position. Once the
// anchor sits on target a repeat moves nothing; the neighborhood accumulates
// only while successive calls move the target.
// Indices are validated before anything moves; on error the mesh is unchanged.
// Normals are not recomputed.
func Deform(m Target, anchor int, target math.Vec3, neighborhood []int) (math.Vec3, error) {
	n := m.VertexCount()
	if anchor < 0 || anchor >= n {
		return math.Vec3{}, fmt.Errorf("%w: anchor %d of %d", mesh.ErrVertexOutOfRange, anchor, n)
	}
	for _, v := range neighborhood {
		if v < 0 || v >= n {
			return math.Vec3{}, fmt.Errorf("%w: neighbor %d of %d", mesh.ErrVertexOutOfRange, v, n)
		}
	}

	d := target.Sub(m.VertexPosition(anchor))
	m.SetVertexPosition(anchor, m.VertexPosition(anchor).Add(d))

	half := d.Scale(NeighborWeight)
	for _, v := range neighborhood {
		m.SetVertexPosition(v, m.VertexPosition(v).Add(half))
	}
	return d, nil
}

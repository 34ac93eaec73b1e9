package mesh

import "github.com/Faultbox/tangible/pkg/math"

// FindNearest returns the index of the vertex closest to q, which must be in
// the mesh's local space. Ties go to the lowest index.
//
// This is a linear scan. It runs once per touch or motion event on meshes of
// a few thousand vertices, so no spatial index is kept.
func FindNearest(m *Mesh, q math.Vec3) (int, error) {
	if m == nil || len(m.positions) == 0 {
		return -1, ErrEmptyMesh
	}

	best := 0
	bestDist := m.positions[0].DistanceSq(q)
	for i := 1; i < len(m.positions); i++ {
		if d := m.positions[i].DistanceSq(q); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// Nearest is FindNearest on m.
func (m *Mesh) Nearest(q math.Vec3) (int, error) {
	return FindNearest(m, q)
}

package mesh

import (
	"errors"
	"fmt"
)

// Mesh errors.
var (
	ErrInvalidTopology  = errors.New("invalid mesh topology")
	ErrEmptyMesh        = errors.New("mesh has no vertices")
	ErrVertexOutOfRange = errors.New("vertex index out of range")
)

// TopologyError reports a triangle that references a vertex outside the mesh.
type TopologyError struct {
	Triangle    int // index into the triangle list
	Vertex      int // offending vertex index
	VertexCount int
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("%v: triangle %d references vertex %d (mesh has %d vertices)",
		ErrInvalidTopology, e.Triangle, e.Vertex, e.VertexCount)
}

// Unwrap lets errors.Is match ErrInvalidTopology.
func (e *TopologyError) Unwrap() error {
	return ErrInvalidTopology
}

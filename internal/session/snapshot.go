package session

import (
	"slices"
	"sync"

	"github.com/Faultbox/tangible/pkg/math"
)

// MeshView is a read-only copy of one mesh as of a published cycle.
// Views are shared between snapshots while their mesh is unchanged.
type MeshView struct {
	Index     int
	Positions []math.Vec3
	Normals   []math.Vec3
	Colors    []math.Vec3
	Triangles [][3]int
	Transform math.Mat4
	// Revision counts geometry copies of this mesh.
	Revision uint64
}

// Snapshot is everything the display side needs for one frame.
type Snapshot struct {
	Cycle  uint64
	State  State
	Cursor math.Vec3
	Meshes []*MeshView
}

// Publisher hands snapshots from the single writing cycle to any number of
// readers.
type Publisher struct {
	mu     sync.RWMutex
	latest *Snapshot
	copies uint64
}

// NewPublisher creates a publisher with no snapshot.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Latest returns the most recent snapshot, or nil before the first publish.
// Callers must treat it as immutable.
func (p *Publisher) Latest() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Copies returns how many mesh geometry copies have been made.
func (p *Publisher) Copies() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.copies
}

// Publish builds and installs a snapshot. Geometry is copied for meshes
// flagged in dirty (and for every mesh on the first publish); other meshes
// reuse the previous view, or a shallow copy of it when only the placement
// moved.
func (p *Publisher) Publish(cycle uint64, state State, cursor math.Vec3, objects Objects, dirty []bool) *Snapshot {
	p.mu.RLock()
	prev := p.latest
	p.mu.RUnlock()

	n := objects.Len()
	snap := &Snapshot{
		Cycle:  cycle,
		State:  state,
		Cursor: cursor,
		Meshes: make([]*MeshView, n),
	}

	var copies uint64
	for i := 0; i < n; i++ {
		xf := objects.Transform(i)
		changed := i < len(dirty) && dirty[i]

		var old *MeshView
		if prev != nil && i < len(prev.Meshes) {
			old = prev.Meshes[i]
		}

		switch {
		case old == nil || changed:
			m := objects.Mesh(i)
			view := &MeshView{
				Index:     i,
				Positions: slices.Clone(m.Positions()),
				Normals:   slices.Clone(m.Normals()),
				Colors:    m.Colors(),
				Triangles: m.Triangles(),
				Transform: xf,
			}
			if old != nil {
				view.Revision = old.Revision + 1
			}
			snap.Meshes[i] = view
			copies++
		case old.Transform != xf:
			view := *old
			view.Transform = xf
			snap.Meshes[i] = &view
		default:
			snap.Meshes[i] = old
		}
	}

	p.mu.Lock()
	p.latest = snap
	p.copies += copies
	p.mu.Unlock()

	return snap
}

package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/tangible/internal/haptic"
	"github.com/Faultbox/tangible/internal/mesh"
	"github.com/Faultbox/tangible/pkg/math"
)

func singleTriangle(t *testing.T) *objectList {
	t.Helper()
	return &objectList{
		meshes:     []*mesh.Mesh{newTriangle(t)},
		transforms: []math.Mat4{math.Identity()},
	}
}

func TestControllerAnchoredEditScenario(t *testing.T) {
	objs := singleTriangle(t)
	c := NewController(objs, Options{}, 0)

	// Touch and anchor in the same cycle: touch resolves first.
	require.NoError(t, c.Push(Event{Kind: EventTouch, Mesh: 0}))
	require.NoError(t, c.Push(Event{Kind: EventToggleAnchor}))
	res := c.Cycle(NewSample(math.Vec3{}))
	assert.Equal(t, AnchoredEditing, res.State)
	assert.Equal(t, 0, res.Vertex)
	assert.Equal(t, 2, res.Events)
	assert.Zero(t, res.Rejected)
	assert.True(t, res.Editing)

	// Pull the device one unit along +Z.
	res = c.Cycle(NewSample(math.V3(0, 0, 1)))
	require.True(t, res.Editing)
	assertVec(t, math.V3(0, 0, 1), res.Cursor)
	assertVec(t, math.V3(0, 0, -1), res.Displacement)

	m := objs.Mesh(0)
	assertVec(t, math.V3(0, 0, 1), m.VertexPosition(0))
	assertVec(t, math.V3(1, 0, 0.5), m.VertexPosition(1))
	assertVec(t, math.V3(0, 1, 0.5), m.VertexPosition(2))

	// Holding still: the anchor is already on target.
	c.Cycle(NewSample(math.V3(0, 0, 1)))
	assertVec(t, math.V3(1, 0, 0.5), m.VertexPosition(1))

	// Normals follow the new shape.
	n := m.Normal(0)
	assert.InDelta(t, 1, n.Length(), 1e-5)
	assert.Less(t, n.Z, float32(1))

	require.NoError(t, c.Push(Event{Kind: EventToggleAnchor}))
	res = c.Cycle(NewSample(math.V3(0, 0, 3)))
	assert.Equal(t, Idle, res.State)
	assert.False(t, res.Editing)
	assertVec(t, math.V3(0, 0, 1), m.VertexPosition(0), "edit is over")
}

func TestControllerDropsBadEvents(t *testing.T) {
	c := NewController(singleTriangle(t), Options{}, 0)

	require.NoError(t, c.Push(Event{Kind: EventTouch, Mesh: 4}))
	require.NoError(t, c.Push(Event{Kind: EventGrab}))
	require.NoError(t, c.Push(Event{Kind: EventToggleAnchor}))
	res := c.Cycle(NewSample(math.Vec3{}))

	assert.Equal(t, 3, res.Events)
	assert.Equal(t, 3, res.Rejected)
	assert.Equal(t, Idle, res.State)
	assert.Equal(t, -1, res.Mesh)
	assert.Equal(t, -1, res.Vertex)
}

func TestControllerQueueSize(t *testing.T) {
	c := NewController(singleTriangle(t), Options{}, 2)
	require.NoError(t, c.Push(Event{Kind: EventRelease}))
	require.NoError(t, c.Push(Event{Kind: EventRelease}))
	assert.ErrorIs(t, c.Push(Event{Kind: EventRelease}), ErrQueueFull)

	res := c.Cycle(NewSample(math.Vec3{}))
	assert.Equal(t, 2, res.Events)
	assert.Equal(t, 0, c.Queue().Len())
}

func TestControllerDrag(t *testing.T) {
	objs := singleTriangle(t)
	c := NewController(objs, Options{}, 0)

	require.NoError(t, c.Push(Event{Kind: EventTouch, Mesh: 0}))
	require.NoError(t, c.Push(Event{Kind: EventGrab}))
	res := c.Cycle(NewSample(math.Vec3{}))
	assert.Equal(t, Dragging, res.State)

	c.Cycle(NewSample(math.V3(1, 2, 3)))
	assertVec(t, math.V3(1, 2, 3), objs.Transform(0).Translation())

	require.NoError(t, c.Push(Event{Kind: EventRelease}))
	res = c.Cycle(NewSample(math.V3(4, 4, 4)))
	assert.Equal(t, Idle, res.State)
	assertVec(t, math.V3(1, 2, 3), objs.Transform(0).Translation(), "release keeps the last placement")

	// Geometry is untouched by a drag.
	assertVec(t, math.V3(1, 0, 0), objs.Mesh(0).VertexPosition(1))
}

func TestControllerConstraintClampsSamples(t *testing.T) {
	c := NewController(singleTriangle(t), Options{WorkspaceHalfExtent: 0.25}, 0)

	require.NoError(t, c.Push(Event{Kind: EventToggleConstraint}))
	c.Cycle(NewSample(math.Vec3{}))

	res := c.Cycle(NewSample(math.V3(1, -1, 0.1)))
	assertVec(t, math.V3(0.25, -0.25, 0.1), res.Cursor)
}

func TestControllerRequireConstraint(t *testing.T) {
	c := NewController(singleTriangle(t), Options{RequireConstraint: true}, 0)

	require.NoError(t, c.Push(Event{Kind: EventTouch, Mesh: 0}))
	require.NoError(t, c.Push(Event{Kind: EventToggleAnchor}))
	res := c.Cycle(NewSample(math.Vec3{}))
	assert.Equal(t, Touching, res.State)
	assert.Equal(t, 1, res.Rejected)

	require.NoError(t, c.Push(Event{Kind: EventToggleConstraint}))
	require.NoError(t, c.Push(Event{Kind: EventToggleAnchor}))
	res = c.Cycle(NewSample(math.Vec3{}))
	assert.Equal(t, AnchoredEditing, res.State)
}

func TestControllerFrictionFollowsTouch(t *testing.T) {
	c := NewController(singleTriangle(t), Options{}, 0)

	require.NoError(t, c.Push(Event{Kind: EventTouch, Mesh: 0}))
	res := c.Cycle(NewSample(math.V3(0, 0.9, 0)))
	assert.Equal(t, 2, res.Vertex)
	assert.Equal(t, mesh.FrictionGreen, res.Friction)

	require.NoError(t, c.Push(Event{Kind: EventUntouch, Mesh: 0}))
	res = c.Cycle(NewSample(math.V3(0, 0.9, 0)))
	assert.Equal(t, Idle, res.State)
	assert.Zero(t, res.Friction)
}

func TestControllerMaterialUnderProxy(t *testing.T) {
	objs := singleTriangle(t)
	objs.materials = []haptic.Material{{Stiffness: 0.4, Damping: 0.1, StaticFriction: 0.5, DynamicFriction: 0.3}}
	c := NewController(objs, Options{}, 0)

	res := c.Cycle(NewSample(math.V3(0, 0.9, 0)))
	assert.Zero(t, res.Material)

	require.NoError(t, c.Push(Event{Kind: EventTouch, Mesh: 0}))
	res = c.Cycle(NewSample(math.V3(0, 0.9, 0)))
	require.Equal(t, 2, res.Vertex)
	assert.Equal(t, res.Friction, res.Material.StaticFriction)
	assert.Equal(t, float32(0.4), res.Material.Stiffness)
	assert.Equal(t, float32(0.1), res.Material.Damping)
	assert.LessOrEqual(t, res.Material.DynamicFriction, res.Material.StaticFriction)

	require.NoError(t, c.Push(Event{Kind: EventUntouch, Mesh: 0}))
	res = c.Cycle(NewSample(math.V3(0, 0.9, 0)))
	assert.Zero(t, res.Material)
}

func TestControllerSnapshots(t *testing.T) {
	objs := &objectList{
		meshes:     []*mesh.Mesh{newTriangle(t), newTriangle(t)},
		transforms: []math.Mat4{math.Identity(), math.Translate(1, 1, -2)},
	}
	c := NewController(objs, Options{}, 0)
	pub := c.Publisher()
	assert.Nil(t, pub.Latest())

	c.Cycle(NewSample(math.Vec3{}))
	first := pub.Latest()
	require.NotNil(t, first)
	require.Len(t, first.Meshes, 2)
	assert.Equal(t, uint64(2), pub.Copies())
	assert.Equal(t, math.Translate(1, 1, -2), first.Meshes[1].Transform)

	// Nothing changed: views are shared.
	c.Cycle(NewSample(math.Vec3{}))
	second := pub.Latest()
	assert.Equal(t, uint64(2), second.Cycle)
	assert.Same(t, first.Meshes[0], second.Meshes[0])
	assert.Same(t, first.Meshes[1], second.Meshes[1])

	// Editing mesh 0 copies only mesh 0.
	require.NoError(t, c.Push(Event{Kind: EventTouch, Mesh: 0}))
	require.NoError(t, c.Push(Event{Kind: EventToggleAnchor}))
	c.Cycle(NewSample(math.Vec3{}))
	c.Cycle(NewSample(math.V3(0, 0, 1)))
	third := pub.Latest()
	assert.Equal(t, AnchoredEditing, third.State)
	assert.NotSame(t, first.Meshes[0], third.Meshes[0])
	assert.Same(t, first.Meshes[1], third.Meshes[1])
	assert.Equal(t, uint64(2), third.Meshes[0].Revision)
	assertVec(t, math.V3(0, 0, 1), third.Meshes[0].Positions[0])

	// Earlier snapshots are not affected by later edits.
	assertVec(t, math.Vec3{}, first.Meshes[0].Positions[0])
}

func TestControllerSnapshotTransformOnlyChange(t *testing.T) {
	objs := singleTriangle(t)
	c := NewController(objs, Options{}, 0)

	c.Cycle(NewSample(math.Vec3{}))
	before := c.Publisher().Latest()

	require.NoError(t, c.Push(Event{Kind: EventTouch, Mesh: 0}))
	require.NoError(t, c.Push(Event{Kind: EventGrab}))
	c.Cycle(NewSample(math.Vec3{}))
	c.Cycle(NewSample(math.V3(0, 1, 0)))
	after := c.Publisher().Latest()

	assert.NotSame(t, before.Meshes[0], after.Meshes[0])
	assert.Equal(t, before.Meshes[0].Revision, after.Meshes[0].Revision)
	assert.Equal(t, uint64(1), c.Publisher().Copies())
	assertVec(t, math.V3(0, 1, 0), after.Meshes[0].Transform.Translation())
}

func TestControllerConcurrentReaders(t *testing.T) {
	objs := singleTriangle(t)
	c := NewController(objs, Options{}, 0)
	require.NoError(t, c.Push(Event{Kind: EventTouch, Mesh: 0}))
	require.NoError(t, c.Push(Event{Kind: EventToggleAnchor}))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if snap := c.Publisher().Latest(); snap != nil {
					for _, mv := range snap.Meshes {
						_ = len(mv.Positions) + len(mv.Normals)
					}
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = c.Push(Event{Kind: EventMotion, Mesh: 0})
		}
	}()

	for i := 0; i < 200; i++ {
		c.Cycle(NewSample(math.V3(0, 0, float32(i)*0.001)))
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, uint64(200), c.Publisher().Latest().Cycle)
}

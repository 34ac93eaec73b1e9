package session

import (
	"go.uber.org/zap"

	"github.com/Faultbox/tangible/internal/haptic"
	"github.com/Faultbox/tangible/internal/logger"
	"github.com/Faultbox/tangible/pkg/math"
)

// DefaultQueueSize is the event queue capacity used when none is configured.
const DefaultQueueSize = 256

// CycleResult reports what one cycle did.
type CycleResult struct {
	Cycle uint64
	State State
	// Mesh and Vertex identify the touched vertex, or -1.
	Mesh   int
	Vertex int
	// Friction is the surface friction under the proxy.
	Friction float32
	// Material is the touched mesh's material with its static friction
	// replaced by Friction. Zero when nothing is touched.
	Material haptic.Material
	// Cursor is where the proxy should be drawn: the anchor target while
	// editing, the proxy otherwise.
	Cursor math.Vec3
	// Editing is set when an anchored deformation ran this cycle.
	Editing bool
	// Displacement is the anchor-to-device vector for force output.
	Displacement math.Vec3
	// Events counts drained events; Rejected counts those that were dropped.
	Events   int
	Rejected int
}

// Controller owns a Session and runs it one device cycle at a time.
type Controller struct {
	objects   Objects
	session   *Session
	queue     *Queue
	publisher *Publisher
	log       *zap.Logger

	cycle   uint64
	pending []Event
	dirty   []bool
}

// NewController creates a controller over objects. queueSize bounds the
// number of events buffered between cycles.
func NewController(objects Objects, opts Options, queueSize int) *Controller {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Controller{
		objects:   objects,
		session:   New(objects, opts),
		queue:     NewQueue(queueSize),
		publisher: NewPublisher(),
		log:       logger.Named("session"),
	}
}

// Session returns the controlled session.
func (c *Controller) Session() *Session {
	return c.session
}

// Queue returns the event queue device callbacks push into.
func (c *Controller) Queue() *Queue {
	return c.queue
}

// Publisher returns the snapshot publisher for the display side.
func (c *Controller) Publisher() *Publisher {
	return c.publisher
}

// Push enqueues an event for the next cycle.
func (c *Controller) Push(e Event) error {
	return c.queue.Push(e)
}

// Cycle runs one update: pending events are applied in arrival order, the
// dragged mesh follows the proxy, the anchored edit deforms its mesh, and a
// snapshot is published.
func (c *Controller) Cycle(sample Sample) CycleResult {
	c.cycle++
	res := CycleResult{Cycle: c.cycle, Mesh: -1, Vertex: -1}

	if ws, ok := c.session.Constrained(); ok {
		sample = sample.clampTo(ws)
	}

	before := c.session.State()
	c.pending = c.queue.Drain(c.pending[:0])
	res.Events = len(c.pending)
	for _, e := range c.pending {
		if err := c.session.Apply(e, sample); err != nil {
			res.Rejected++
			c.log.Debug("event dropped",
				zap.Uint64("cycle", c.cycle),
				zap.Stringer("event", e),
				zap.Error(err))
		}
	}
	if after := c.session.State(); after != before {
		c.log.Debug("state changed",
			zap.Uint64("cycle", c.cycle),
			zap.Stringer("from", before),
			zap.Stringer("to", after))
	}

	c.session.updateDrag(sample.ProxyTransform)

	if n := c.objects.Len(); cap(c.dirty) < n {
		c.dirty = make([]bool, n)
	} else {
		c.dirty = c.dirty[:n]
		clear(c.dirty)
	}

	res.Cursor = sample.Proxy
	step, ok, err := c.session.stepAnchor(sample)
	switch {
	case err != nil:
		c.log.Warn("anchored edit failed", zap.Uint64("cycle", c.cycle), zap.Error(err))
	case ok:
		c.dirty[step.Mesh] = true
		res.Editing = true
		res.Cursor = step.Target
		res.Displacement = step.Displacement
	}

	res.State = c.session.State()
	if m, v, ok := c.session.Touched(); ok {
		res.Mesh, res.Vertex = m, v
		res.Friction = c.session.Friction()
		res.Material = c.objects.Material(m).WithSurfaceFriction(res.Friction)
	}

	c.publisher.Publish(c.cycle, res.State, res.Cursor, c.objects, c.dirty)
	return res
}

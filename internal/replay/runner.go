package replay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/tangible/internal/haptic"
	"github.com/Faultbox/tangible/internal/logger"
	"github.com/Faultbox/tangible/internal/session"
	"github.com/Faultbox/tangible/pkg/math"
)

// Options configures a Runner.
type Options struct {
	// Spring turns anchor displacements into forces. The zero value uses
	// haptic.DefaultStiffness.
	Spring haptic.Spring
	// Resolve maps object names in events to mesh indices.
	Resolve func(name string) (int, bool)
	// Interval paces cycles in real time. Zero runs as fast as possible.
	Interval time.Duration
	// OnCycle, if set, sees every cycle.
	OnCycle func(Frame)
}

// Frame is one replayed cycle.
type Frame struct {
	Step   int
	Sample session.Sample
	Result session.CycleResult
	// Force is what the device would render this cycle.
	Force math.Vec3
}

// Summary reports a finished (or cancelled) run.
type Summary struct {
	Cycles      int
	EditCycles  int
	Edits       int // anchored edits started
	Events      int
	Rejected    int
	Dropped     int // events the queue could not take
	MaxForce    float32
	Final       session.State
	ElapsedTime time.Duration
	// Material is the surface under the proxy on the last touching cycle.
	Material haptic.Material
}

// Runner replays a script into a controller.
type Runner struct {
	ctrl   *session.Controller
	script *Script
	opts   Options
	log    *zap.Logger
}

// NewRunner creates a runner. The script should already be validated.
func NewRunner(ctrl *session.Controller, script *Script, opts Options) *Runner {
	if opts.Spring == (haptic.Spring{}) {
		opts.Spring = haptic.NewSpring(haptic.DefaultStiffness, 0)
	}
	return &Runner{
		ctrl:   ctrl,
		script: script,
		opts:   opts,
		log:    logger.Named("replay"),
	}
}

// deviceState is the simulated device between cycles.
type deviceState struct {
	proxy, device, raw math.Vec3
	rotation           math.Mat4
}

func (d deviceState) sample() session.Sample {
	return session.Sample{
		Proxy:          d.proxy,
		ProxyTransform: math.TranslateVec(d.proxy).Mul(d.rotation),
		Device:         d.device,
		RawDevice:      d.raw,
	}
}

// Run plays every step. It stops early, returning the partial summary and
// the context error, when ctx is done.
func (r *Runner) Run(ctx context.Context) (sum Summary, err error) {
	start := time.Now()
	defer func() { sum.ElapsedTime = time.Since(start) }()

	var tick <-chan time.Time
	if r.opts.Interval > 0 {
		t := time.NewTicker(r.opts.Interval)
		defer t.Stop()
		tick = t.C
	}

	dev := deviceState{rotation: math.Identity()}
	editing := false
	touchedMesh, touchedVertex := -1, -1

	r.log.Info("replay started",
		zap.String("script", r.script.Name),
		zap.Int("steps", len(r.script.Steps)),
		zap.Int("cycles", r.script.Cycles()))

	for si, st := range r.script.Steps {
		dev = applyPlacement(dev, st)
		from := dev
		n := max(st.Cycles, 1)

		for k := 0; k < n; k++ {
			if err = ctx.Err(); err != nil {
				sum.Final = r.ctrl.Session().State()
				return sum, err
			}
			if tick != nil {
				select {
				case <-ctx.Done():
					sum.Final = r.ctrl.Session().State()
					return sum, ctx.Err()
				case <-tick:
				}
			}

			if k == 0 {
				if err = r.pushEvents(si, st.Events, &sum); err != nil {
					sum.Final = r.ctrl.Session().State()
					return sum, err
				}
			}
			if st.MoveTo != nil {
				dev = glide(from, math.FromArray(*st.MoveTo), float32(k+1)/float32(n))
			}

			sample := dev.sample()
			res := r.ctrl.Cycle(sample)

			frame := Frame{Step: si, Sample: sample, Result: res}
			if res.Editing {
				frame.Force = r.opts.Spring.Force(res.Displacement)
				sum.EditCycles++
				if !editing {
					sum.Edits++
				}
				sum.MaxForce = max(sum.MaxForce, frame.Force.Length())
			}
			editing = res.Editing

			if res.Vertex >= 0 {
				if res.Mesh != touchedMesh || res.Vertex != touchedVertex {
					r.log.Debug("surface",
						zap.Int("mesh", res.Mesh),
						zap.Int("vertex", res.Vertex),
						zap.Float32("stiffness", res.Material.Stiffness),
						zap.Float32("static_friction", res.Material.StaticFriction),
						zap.Float32("dynamic_friction", res.Material.DynamicFriction))
				}
				sum.Material = res.Material
			}
			touchedMesh, touchedVertex = res.Mesh, res.Vertex

			sum.Cycles++
			sum.Events += res.Events
			sum.Rejected += res.Rejected
			if r.opts.OnCycle != nil {
				r.opts.OnCycle(frame)
			}
		}
	}

	sum.Final = r.ctrl.Session().State()
	r.log.Info("replay finished",
		zap.Int("cycles", sum.Cycles),
		zap.Int("edits", sum.Edits),
		zap.Int("rejected", sum.Rejected),
		zap.Float32("max_force", sum.MaxForce),
		zap.Stringer("state", sum.Final))
	return sum, nil
}

func (r *Runner) pushEvents(step int, specs []EventSpec, sum *Summary) error {
	for _, spec := range specs {
		ev, err := r.event(spec)
		if err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		if err := r.ctrl.Push(ev); err != nil {
			sum.Dropped++
			r.log.Warn("event not queued", zap.Int("step", step), zap.Stringer("event", ev), zap.Error(err))
		}
	}
	return nil
}

func (r *Runner) event(spec EventSpec) (session.Event, error) {
	kind, err := session.ParseEventKind(spec.Kind)
	if err != nil {
		return session.Event{}, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	ev := session.Event{Kind: kind, Mesh: -1}
	switch {
	case spec.Mesh != nil:
		ev.Mesh = *spec.Mesh
	case spec.Object != "":
		if r.opts.Resolve == nil {
			return ev, fmt.Errorf("%w: object %q given but no resolver", ErrInvalidScript, spec.Object)
		}
		idx, ok := r.opts.Resolve(spec.Object)
		if !ok {
			return ev, fmt.Errorf("%w: unknown object %q", ErrInvalidScript, spec.Object)
		}
		ev.Mesh = idx
	}
	return ev, nil
}

// applyPlacement applies a step's absolute settings.
func applyPlacement(d deviceState, st Step) deviceState {
	if st.Proxy != nil {
		p := math.FromArray(*st.Proxy)
		d.proxy, d.device, d.raw = p, p, p
	}
	if st.Device != nil {
		d.device = math.FromArray(*st.Device)
	}
	if st.RawDevice != nil {
		d.raw = math.FromArray(*st.RawDevice)
	}
	if st.Rotation != nil {
		d.rotation = st.Rotation.matrix()
	}
	return d
}

// glide moves the proxy a fraction t of the way from d.proxy to target,
// carrying both device readings along by the same offset.
func glide(d deviceState, target math.Vec3, t float32) deviceState {
	offset := math.LerpVec3(math.Vec3{}, target.Sub(d.proxy), t)
	d.proxy = d.proxy.Add(offset)
	d.device = d.device.Add(offset)
	d.raw = d.raw.Add(offset)
	return d
}

// Package replay drives a session controller from a recorded or hand-written
// device trace, so scenes can be sculpted without a haptic device attached.
package replay

import (
	"errors"
	"fmt"

	"github.com/Faultbox/tangible/internal/config"
	"github.com/Faultbox/tangible/internal/session"
	"github.com/Faultbox/tangible/pkg/math"
)

// ErrInvalidScript is returned for scripts that cannot be run.
var ErrInvalidScript = errors.New("invalid replay script")

// Script is a sequence of device steps.
type Script struct {
	Name  string `yaml:"name" toml:"name"`
	Steps []Step `yaml:"steps" toml:"steps"`
}

// Step holds the device still or moves it for a number of cycles. Events
// are delivered on the first cycle of the step.
type Step struct {
	// Cycles defaults to 1.
	Cycles int `yaml:"cycles" toml:"cycles"`
	// Proxy places the proxy, and the device readings with it.
	Proxy *[3]float32 `yaml:"proxy,omitempty" toml:"proxy,omitempty"`
	// Device and RawDevice override single readings after Proxy is applied.
	Device    *[3]float32 `yaml:"device,omitempty" toml:"device,omitempty"`
	RawDevice *[3]float32 `yaml:"raw_device,omitempty" toml:"raw_device,omitempty"`
	// MoveTo glides the proxy to this point over the step's cycles. Device
	// readings travel by the same offset.
	MoveTo *[3]float32 `yaml:"move_to,omitempty" toml:"move_to,omitempty"`
	// Rotation sets the proxy orientation.
	Rotation *Rotation   `yaml:"rotation,omitempty" toml:"rotation,omitempty"`
	Events   []EventSpec `yaml:"events,omitempty" toml:"events,omitempty"`
}

// Rotation is an axis-angle orientation in degrees.
type Rotation struct {
	Axis     [3]float32 `yaml:"axis" toml:"axis"`
	AngleDeg float32    `yaml:"angle_deg" toml:"angle_deg"`
}

func (r Rotation) matrix() math.Mat4 {
	return math.QuatFromAxisAngleDeg(math.FromArray(r.Axis), r.AngleDeg).ToMat4()
}

// EventSpec names an event. Touch, untouch and motion also need a target,
// either by index (Mesh) or by object name (Object).
type EventSpec struct {
	Kind   string `yaml:"kind" toml:"kind"`
	Mesh   *int   `yaml:"mesh,omitempty" toml:"mesh,omitempty"`
	Object string `yaml:"object,omitempty" toml:"object,omitempty"`
}

func (e EventSpec) needsTarget(k session.EventKind) bool {
	switch k {
	case session.EventTouch, session.EventUntouch, session.EventMotion:
		return true
	}
	return false
}

// Load reads a script from a YAML or TOML file.
func Load(path string) (*Script, error) {
	var s Script
	if err := config.DecodeFile(path, &s); err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Validate checks step counts and event names.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScript)
	}
	for i, st := range s.Steps {
		if st.Cycles < 0 {
			return fmt.Errorf("%w: step %d: negative cycle count", ErrInvalidScript, i)
		}
		for _, ev := range st.Events {
			k, err := session.ParseEventKind(ev.Kind)
			if err != nil {
				return fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i, err)
			}
			if ev.needsTarget(k) && ev.Mesh == nil && ev.Object == "" {
				return fmt.Errorf("%w: step %d: %s needs a mesh or object", ErrInvalidScript, i, k)
			}
		}
	}
	return nil
}

// Cycles returns the total number of cycles the script runs.
func (s *Script) Cycles() int {
	n := 0
	for _, st := range s.Steps {
		n += max(st.Cycles, 1)
	}
	return n
}

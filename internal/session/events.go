package session

import (
	"fmt"
	"strings"
	"sync"
)

// EventKind identifies a device or keyboard event.
type EventKind int

const (
	EventNone EventKind = iota
	EventTouch
	EventUntouch
	EventMotion
	EventGrab
	EventRelease
	EventToggleAnchor
	EventToggleConstraint
)

var eventNames = map[EventKind]string{
	EventNone:             "none",
	EventTouch:            "touch",
	EventUntouch:          "untouch",
	EventMotion:           "motion",
	EventGrab:             "grab",
	EventRelease:          "release",
	EventToggleAnchor:     "toggle-anchor",
	EventToggleConstraint: "toggle-constraint",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// ParseEventKind maps a name such as "touch" or "toggle-anchor" to its kind.
// Underscores are accepted in place of dashes.
func ParseEventKind(name string) (EventKind, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for k, n := range eventNames {
		if k != EventNone && n == name {
			return k, nil
		}
	}
	return EventNone, fmt.Errorf("unknown event %q", name)
}

// Event is a discrete input. Mesh is only meaningful for touch, untouch
// and motion events.
type Event struct {
	Kind EventKind
	Mesh int
}

func (e Event) String() string {
	switch e.Kind {
	case EventTouch, EventUntouch, EventMotion:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Mesh)
	default:
		return e.Kind.String()
	}
}

// Queue buffers events pushed from device callbacks until the owning cycle
// drains them. It is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	dropped  uint64
}

// NewQueue creates a queue holding at most capacity pending events.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
	}
}

// Push appends an event. It never blocks; when the queue is full the event
// is dropped and ErrQueueFull returned.
func (q *Queue) Push(e Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.capacity {
		q.dropped++
		return ErrQueueFull
	}
	q.events = append(q.events, e)
	return nil
}

// Drain appends all pending events to dst in arrival order and empties the queue.
func (q *Queue) Drain(dst []Event) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	dst = append(dst, q.events...)
	q.events = q.events[:0]
	return dst
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Dropped returns how many events were rejected because the queue was full.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

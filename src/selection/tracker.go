// Package selection tracks the drag gesture on the selection overlay. It knows
// nothing about windows or toolkits: a platform surface feeds it pointer and
// key events and redraws whenever an event reports that the outline changed.
package selection

import (
	"sync"

	"screen-translator/src/screenshot"
)

// State is a phase of the selection gesture.
type State int

const (
	StateIdle      State = iota // overlay shown, no button held
	StateDragging               // primary button held, anchor recorded
	StateSelected               // button released, result available
	StateCancelled              // escape pressed or surface closed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateSelected:
		return "selected"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events are accepted.
func (s State) Terminal() bool { return s == StateSelected || s == StateCancelled }

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

// Listener is invoked on every state transition.
type Listener func(prev, next State)

// Tracker is the selection state machine. Its methods are safe to call from
// any goroutine, though a surface normally calls them from its UI thread.
type Tracker struct {
	mu        sync.Mutex
	state     State
	anchor    screenshot.Point
	current   screenshot.Point
	result    screenshot.Region
	listeners []Listener
	done      chan struct{}
}

func NewTracker() *Tracker {
	return &Tracker{done: make(chan struct{})}
}

// OnTransition registers fn for subsequent transitions.
func (t *Tracker) OnTransition(fn Listener) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// Current returns the current state.
func (t *Tracker) Current() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done is closed once the tracker reaches a terminal state.
func (t *Tracker) Done() <-chan struct{} { return t.done }

// Press starts a drag on the primary button. It returns true when the
// surface should redraw.
func (t *Tracker) Press(p screenshot.Point, b Button) bool {
	t.mu.Lock()
	if t.state != StateIdle || b != ButtonPrimary {
		t.mu.Unlock()
		return false
	}
	t.anchor = p
	t.current = p
	fire := t.transition(StateDragging)
	t.mu.Unlock()
	fire()
	return true
}

// Move updates the live rectangle while dragging. It returns true when the
// outline changed and the surface should redraw.
func (t *Tracker) Move(p screenshot.Point) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateDragging || p == t.current {
		return false
	}
	t.current = p
	return true
}

// Release finishes the drag and records the normalized rectangle between the
// anchor and p. A release at the anchor yields the empty region. It returns
// true when the gesture ended with this event.
func (t *Tracker) Release(p screenshot.Point, b Button) bool {
	t.mu.Lock()
	if t.state != StateDragging || b != ButtonPrimary {
		t.mu.Unlock()
		return false
	}
	t.current = p
	t.result = screenshot.RegionBetween(t.anchor, p).Normalize()
	fire := t.transition(StateSelected)
	t.mu.Unlock()
	fire()
	return true
}

// Escape cancels the gesture from any non-terminal state.
func (t *Tracker) Escape() bool { return t.cancel() }

// Close cancels the gesture when the surface is closed externally. It is a
// no-op after a terminal state was reached.
func (t *Tracker) Close() bool { return t.cancel() }

func (t *Tracker) cancel() bool {
	t.mu.Lock()
	if t.state.Terminal() {
		t.mu.Unlock()
		return false
	}
	fire := t.transition(StateCancelled)
	t.mu.Unlock()
	fire()
	return true
}

// Live returns the signed rectangle from the anchor to the pointer. Width
// and height are negative when dragging up or left.
func (t *Tracker) Live() screenshot.Region {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateIdle {
		return screenshot.Region{}
	}
	return screenshot.RegionBetween(t.anchor, t.current)
}

// Outline returns the rectangle to draw as visual feedback, and false when
// nothing should be drawn.
func (t *Tracker) Outline() (screenshot.Region, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateDragging {
		return screenshot.Region{}, false
	}
	return screenshot.RegionBetween(t.anchor, t.current).Normalize(), true
}

// Result returns the selected region and whether the gesture was cancelled.
// It is only meaningful after Done is closed.
func (t *Tracker) Result() (screenshot.Region, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.state == StateCancelled
}

// transition must be called with mu held; the returned func runs listeners
// and must be called after unlocking.
func (t *Tracker) transition(next State) func() {
	prev := t.state
	t.state = next
	if next.Terminal() {
		close(t.done)
	}
	listeners := append([]Listener(nil), t.listeners...)
	return func() {
		for _, l := range listeners {
			l(prev, next)
		}
	}
}

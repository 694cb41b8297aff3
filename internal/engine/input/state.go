package input

import (
	"time"

	"github.com/Faultbox/midgard-stage/pkg/math"
)

// DefaultMoveSpeed is the camera travel speed in units per second.
const DefaultMoveSpeed = 5

// State is the input snapshot the frame loop consumes once per tick.
// Events write into it immediately; when several arrive between ticks the
// last one wins.
type State struct {
	// Velocity is the camera-local velocity in units per millisecond,
	// refreshed by ResolveVelocity.
	Velocity math.Vec3

	speed   float32 // units per millisecond
	pressed [keyCount]bool

	pointer     math.Vec2
	lastPointer math.Vec2
	pointerDown bool

	lastTick time.Time
	hasTick  bool
}

// NewState returns an empty state moving at unitsPerSecond.
func NewState(unitsPerSecond float32) *State {
	return &State{speed: unitsPerSecond / 1000}
}

// Reset clears keys, pointer and tick history. Speed is kept.
func (s *State) Reset() {
	*s = State{speed: s.speed}
}

// SetSpeed changes the travel speed in units per second.
func (s *State) SetSpeed(unitsPerSecond float32) {
	s.speed = unitsPerSecond / 1000
}

// Press marks k as held. KeyNone is ignored.
func (s *State) Press(k Key) {
	if k > KeyNone && k < keyCount {
		s.pressed[k] = true
	}
}

// Release marks k as released.
func (s *State) Release(k Key) {
	if k > KeyNone && k < keyCount {
		s.pressed[k] = false
	}
}

// Pressed reports whether k is held.
func (s *State) Pressed(k Key) bool {
	return k > KeyNone && k < keyCount && s.pressed[k]
}

// ResolveVelocity recomputes Velocity from the held keys. Opposing keys
// cancel on their axis.
func (s *State) ResolveVelocity() math.Vec3 {
	var v math.Vec3
	if s.pressed[KeyW] {
		v.Z += s.speed
	}
	if s.pressed[KeyS] {
		v.Z -= s.speed
	}
	if s.pressed[KeyA] {
		v.X += s.speed
	}
	if s.pressed[KeyD] {
		v.X -= s.speed
	}
	s.Velocity = v
	return v
}

// PointerDown records a press at p.
func (s *State) PointerDown(p math.Vec2) {
	s.pointerDown = true
	s.pointer = p
	s.lastPointer = p
}

// PointerUp records a release at p.
func (s *State) PointerUp(p math.Vec2) {
	s.pointerDown = false
	s.pointer = p
	s.lastPointer = p
}

// PointerMove records the latest pointer position.
func (s *State) PointerMove(p math.Vec2) {
	s.pointer = p
}

// PointerHeld reports whether the pointer button is down.
func (s *State) PointerHeld() bool {
	return s.pointerDown
}

// Pointer returns the latest pointer position.
func (s *State) Pointer() math.Vec2 {
	return s.pointer
}

// PointerDelta returns the pointer travel since the previous call while the
// pointer is held, and zero otherwise. Each movement is reported once.
func (s *State) PointerDelta() math.Vec2 {
	d := s.pointer.Sub(s.lastPointer)
	s.lastPointer = s.pointer
	if !s.pointerDown {
		return math.Vec2{}
	}
	return d
}

// Elapsed returns the milliseconds since the previous call and records now.
// The first call reports first=true and zero elapsed. A clock stepping
// backwards yields zero.
func (s *State) Elapsed(now time.Time) (ms float32, first bool) {
	if !s.hasTick {
		s.hasTick = true
		s.lastTick = now
		return 0, true
	}
	d := now.Sub(s.lastTick)
	s.lastTick = now
	if d < 0 {
		return 0, false
	}
	return float32(d) / float32(time.Millisecond), false
}

// Package entity implements scene entities: a mesh, an optional pick
// volume, event hooks and child entities drawn in the parent's space.
package entity

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-stage/internal/engine/device"
	"github.com/Faultbox/midgard-stage/internal/engine/mesh"
	"github.com/Faultbox/midgard-stage/internal/engine/picking"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// Tree errors.
var (
	ErrCycle     = errors.New("entity: child is an ancestor")
	ErrHasParent = errors.New("entity: already has a parent")
	// ErrInvalidBounds rejects pick extents that are negative or not finite.
	ErrInvalidBounds = errors.New("entity: invalid pick extents")
)

// PointerEvent is a pointer action in window pixels.
type PointerEvent struct {
	Pointer math.Vec2
	Button  uint8
}

// PickEvent reports that a pointer ray met the entity's volume.
type PickEvent struct {
	Ray      picking.Ray
	Point    math.Vec3
	Distance float32
}

// Hooks are optional per-entity callbacks.
type Hooks struct {
	OnUpdate      func(e *Entity, elapsedMs float32) error
	OnPointerDown func(e *Entity, ev PointerEvent)
	OnPointerUp   func(e *Entity, ev PointerEvent)
	OnPointerMove func(e *Entity, ev PointerEvent)
	OnPick        func(e *Entity, ev PickEvent)
}

// Entity is a node in the scene tree.
type Entity struct {
	ID   uint32 // assigned by Manager.Add
	Name string
	Mesh *mesh.Mesh

	// Bounds is the pick volume. Its center is an offset in the entity's
	// local space; extents are not refit when the entity rotates.
	Bounds *picking.BoundingVolume

	Hooks Hooks

	parent   *Entity
	children []*Entity
}

// New creates an entity around m. m may be nil for pure grouping nodes.
func New(name string, m *mesh.Mesh) *Entity {
	return &Entity{Name: name, Mesh: m}
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s#%d", e.Name, e.ID)
}

// Coordinates returns the mesh translation.
func (e *Entity) Coordinates() math.Vec3 {
	if e.Mesh == nil {
		return math.Vec3{}
	}
	return e.Mesh.Coordinates
}

// SetCoordinates moves the mesh, and the pick volume with it.
func (e *Entity) SetCoordinates(v math.Vec3) {
	if e.Mesh != nil {
		e.Mesh.Coordinates = v
	}
}

// Parent returns the parent entity, or nil for roots.
func (e *Entity) Parent() *Entity {
	return e.parent
}

// Children returns the direct children in insertion order.
func (e *Entity) Children() []*Entity {
	return e.children
}

// AddChild attaches child below e. A child keeps a single parent and may
// not be e or one of its ancestors.
func (e *Entity) AddChild(child *Entity) error {
	if child.parent != nil {
		return fmt.Errorf("%w: %s under %s", ErrHasParent, child, child.parent)
	}
	for n := e; n != nil; n = n.parent {
		if n == child {
			return fmt.Errorf("%w: %s", ErrCycle, child)
		}
	}
	child.parent = e
	e.children = append(e.children, child)
	return nil
}

// LocalTransform returns the mesh transform relative to the parent.
func (e *Entity) LocalTransform() math.Mat4 {
	if e.Mesh == nil {
		return math.Identity()
	}
	return e.Mesh.LocalTransform()
}

// WorldTransform composes local transforms from the root down.
func (e *Entity) WorldTransform() math.Mat4 {
	if e.parent == nil {
		return e.LocalTransform()
	}
	return e.parent.WorldTransform().Mul(e.LocalTransform())
}

// BoundingVolume returns the world-space pick volume, so entities can be
// raycast directly.
func (e *Entity) BoundingVolume() (picking.BoundingVolume, bool) {
	if e.Bounds == nil {
		return picking.BoundingVolume{}, false
	}
	return picking.BoundingVolume{
		Center:  e.WorldTransform().TransformVec3(e.Bounds.Center),
		Extents: e.Bounds.Extents,
	}, true
}

// Update advances the mesh and runs OnUpdate. A panicking hook is turned
// into an error.
func (e *Entity) Update(elapsedMs float32) (err error) {
	defer recoverInto(&err, e, "update")

	if e.Mesh != nil {
		e.Mesh.Advance(elapsedMs)
	}
	if e.Hooks.OnUpdate != nil {
		return e.Hooks.OnUpdate(e, elapsedMs)
	}
	return nil
}

// Draw draws the mesh and then every child with the mesh's local
// transform still on the stack. The stack is restored before returning.
// A failing or panicking child does not stop its siblings.
func (e *Entity) Draw(dev device.Device, stack *mesh.MatrixStack, proj math.Mat4, slots device.ShaderSlots) (err error) {
	defer recoverInto(&err, e, "draw")

	children := func() error {
		var errs error
		for _, c := range e.children {
			if err := c.Draw(dev, stack, proj, slots); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", c, err))
			}
		}
		return errs
	}

	if e.Mesh == nil {
		return children()
	}
	return e.Mesh.DrawThen(dev, stack, proj, slots, children)
}

// PointerDown runs OnPointerDown.
func (e *Entity) PointerDown(ev PointerEvent) (err error) {
	defer recoverInto(&err, e, "pointer down")
	if e.Hooks.OnPointerDown != nil {
		e.Hooks.OnPointerDown(e, ev)
	}
	return nil
}

// PointerUp runs OnPointerUp.
func (e *Entity) PointerUp(ev PointerEvent) (err error) {
	defer recoverInto(&err, e, "pointer up")
	if e.Hooks.OnPointerUp != nil {
		e.Hooks.OnPointerUp(e, ev)
	}
	return nil
}

// PointerMove runs OnPointerMove.
func (e *Entity) PointerMove(ev PointerEvent) (err error) {
	defer recoverInto(&err, e, "pointer move")
	if e.Hooks.OnPointerMove != nil {
		e.Hooks.OnPointerMove(e, ev)
	}
	return nil
}

// Pick runs OnPick.
func (e *Entity) Pick(ev PickEvent) (err error) {
	defer recoverInto(&err, e, "pick")
	if e.Hooks.OnPick != nil {
		e.Hooks.OnPick(e, ev)
	}
	return nil
}

func recoverInto(err *error, e *Entity, stage string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s %s: panic: %v", e, stage, r)
	}
}

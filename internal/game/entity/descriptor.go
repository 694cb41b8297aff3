package entity

import (
	"fmt"

	"github.com/Faultbox/midgard-stage/internal/engine/device"
	"github.com/Faultbox/midgard-stage/internal/engine/mesh"
	"github.com/Faultbox/midgard-stage/internal/engine/picking"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// Descriptor describes an entity subtree to spawn.
type Descriptor struct {
	Name string
	Mesh mesh.Spec
	// Extents are the pick volume half-widths, centered on the entity.
	// Nil leaves the entity unpickable.
	Extents  *math.Vec3
	Hooks    Hooks
	Children []Descriptor
}

// Spawn uploads every mesh in desc and links the resulting tree. On error
// nothing stays allocated on dev.
func Spawn(dev device.Device, desc Descriptor) (*Entity, error) {
	var bounds *picking.BoundingVolume
	if desc.Extents != nil {
		bounds = &picking.BoundingVolume{Extents: *desc.Extents}
		if !bounds.Valid() {
			return nil, fmt.Errorf("spawn %s: %w: %v", desc.Name, ErrInvalidBounds, *desc.Extents)
		}
	}

	m, err := mesh.New(dev, desc.Mesh)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", desc.Name, err)
	}

	e := New(desc.Name, m)
	e.Hooks = desc.Hooks
	e.Bounds = bounds

	for _, cd := range desc.Children {
		child, err := Spawn(dev, cd)
		if err != nil {
			e.Release(dev)
			return nil, err
		}
		// Fresh nodes cannot form a cycle or have a parent.
		_ = e.AddChild(child)
	}
	return e, nil
}

// Release frees the meshes of e and its subtree.
func (e *Entity) Release(dev device.Device) {
	for _, c := range e.children {
		c.Release(dev)
	}
	if e.Mesh != nil {
		e.Mesh.Release(dev)
	}
}

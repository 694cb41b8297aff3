// Package debug provides debug visualization utilities.
package debug

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-stage/internal/engine/device"
	"github.com/Faultbox/midgard-stage/internal/engine/mesh"
	"github.com/Faultbox/midgard-stage/internal/engine/picking"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// WireframeVertexCount is the number of vertices of a box wireframe (12 edges x 2).
const WireframeVertexCount = 24

// DefaultPadding keeps the wireframe off the faces it outlines.
const DefaultPadding = 0.02

// BoundsColor is the default wireframe color.
var BoundsColor = mesh.Color{0.2, 1.0, 0.2, 1.0}

// WireframeVertices returns line vertices for the box [min, max], format
// [x, y, z] per vertex.
func WireframeVertices(min, max math.Vec3) []float32 {
	return []float32{
		// Bottom face
		min.X, min.Y, min.Z, max.X, min.Y, min.Z,
		max.X, min.Y, min.Z, max.X, min.Y, max.Z,
		max.X, min.Y, max.Z, min.X, min.Y, max.Z,
		min.X, min.Y, max.Z, min.X, min.Y, min.Z,
		// Top face
		min.X, max.Y, min.Z, max.X, max.Y, min.Z,
		max.X, max.Y, min.Z, max.X, max.Y, max.Z,
		max.X, max.Y, max.Z, min.X, max.Y, max.Z,
		min.X, max.Y, max.Z, min.X, max.Y, min.Z,
		// Vertical edges
		min.X, min.Y, min.Z, min.X, max.Y, min.Z,
		max.X, min.Y, min.Z, max.X, max.Y, min.Z,
		max.X, min.Y, max.Z, max.X, max.Y, max.Z,
		min.X, min.Y, max.Z, min.X, max.Y, max.Z,
	}
}

// WireframeSpec returns a line mesh outlining a box of the given
// half-widths, centered on the origin and grown by padding on every side.
func WireframeSpec(extents math.Vec3, padding float32, c mesh.Color) mesh.Spec {
	half := extents.Add(math.Vec3{X: padding, Y: padding, Z: padding})
	return mesh.Spec{
		Positions:   WireframeVertices(half.Negate(), half),
		Colors:      mesh.SolidColor(c, WireframeVertexCount),
		VertexCount: WireframeVertexCount,
		Topology:    device.Lines,
		Scale:       1,
	}
}

// BoundsOverlay draws the pick volume of every target as a wireframe. One
// line mesh is uploaded per distinct extents and reused.
type BoundsOverlay[T picking.Target] struct {
	source  func() []T
	color   mesh.Color
	padding float32
	meshes  map[math.Vec3]*mesh.Mesh
}

// NewBoundsOverlay creates an overlay over the targets source returns on
// each draw.
func NewBoundsOverlay[T picking.Target](source func() []T) *BoundsOverlay[T] {
	return &BoundsOverlay[T]{
		source:  source,
		color:   BoundsColor,
		padding: DefaultPadding,
		meshes:  make(map[math.Vec3]*mesh.Mesh),
	}
}

// Draw implements camera.Drawable.
func (o *BoundsOverlay[T]) Draw(dev device.Device, stack *mesh.MatrixStack, proj math.Mat4, slots device.ShaderSlots) error {
	var errs error
	for _, target := range o.source() {
		bv, ok := target.BoundingVolume()
		if !ok || !bv.Valid() {
			continue
		}
		m, err := o.meshFor(dev, bv.Extents)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		m.Coordinates = bv.Center
		errs = multierr.Append(errs, m.Draw(dev, stack, proj, slots))
	}
	return errs
}

func (o *BoundsOverlay[T]) meshFor(dev device.Device, extents math.Vec3) (*mesh.Mesh, error) {
	if m, ok := o.meshes[extents]; ok {
		return m, nil
	}
	m, err := mesh.New(dev, WireframeSpec(extents, o.padding, o.color))
	if err != nil {
		return nil, fmt.Errorf("bounds wireframe %v: %w", extents, err)
	}
	o.meshes[extents] = m
	return m, nil
}

// Release deletes every uploaded wireframe.
func (o *BoundsOverlay[T]) Release(dev device.Device) {
	for k, m := range o.meshes {
		m.Release(dev)
		delete(o.meshes, k)
	}
}

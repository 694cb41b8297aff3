package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-stage/internal/engine/device"
	"github.com/Faultbox/midgard-stage/internal/engine/device/devicetest"
	"github.com/Faultbox/midgard-stage/internal/engine/mesh"
	"github.com/Faultbox/midgard-stage/internal/engine/picking"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

var slots = device.ShaderSlots{Position: 0, Color: 1, Projection: 2, View: 3}

type target struct {
	bv  picking.BoundingVolume
	has bool
}

func (t target) BoundingVolume() (picking.BoundingVolume, bool) { return t.bv, t.has }

func TestWireframeVertices(t *testing.T) {
	min := math.Vec3{X: -1, Y: -2, Z: -3}
	max := math.Vec3{X: 1, Y: 2, Z: 3}
	v := WireframeVertices(min, max)
	require.Len(t, v, WireframeVertexCount*3)

	for i := 0; i < len(v); i += 3 {
		assert.Contains(t, []float32{min.X, max.X}, v[i])
		assert.Contains(t, []float32{min.Y, max.Y}, v[i+1])
		assert.Contains(t, []float32{min.Z, max.Z}, v[i+2])
	}

	// Every edge differs along exactly one axis.
	for i := 0; i < len(v); i += 6 {
		diff := 0
		for a := 0; a < 3; a++ {
			if v[i+a] != v[i+3+a] {
				diff++
			}
		}
		assert.Equal(t, 1, diff, "edge %d", i/6)
	}
}

func TestWireframeSpec(t *testing.T) {
	spec := WireframeSpec(math.Vec3{X: 1, Y: 1, Z: 1}, 0.5, BoundsColor)
	assert.Equal(t, device.Lines, spec.Topology)
	assert.Equal(t, WireframeVertexCount, spec.VertexCount)
	assert.Len(t, spec.Colors, WireframeVertexCount*4)
	assert.Empty(t, spec.Indices)
	assert.Equal(t, float32(-1.5), spec.Positions[0])
	assert.Equal(t, float32(1.5), spec.Positions[3])
}

func TestBoundsOverlayDraw(t *testing.T) {
	dev := devicetest.New(800, 600)
	unit := math.Vec3{X: 1, Y: 1, Z: 1}
	targets := []target{
		{bv: picking.BoundingVolume{Center: math.Vec3{X: 2, Z: -5}, Extents: unit}, has: true},
		{bv: picking.BoundingVolume{Center: math.Vec3{X: -2, Z: -5}, Extents: unit}, has: true},
		{has: false},
	}
	overlay := NewBoundsOverlay(func() []target { return targets })

	stack := mesh.NewMatrixStack(math.Identity())
	require.NoError(t, overlay.Draw(dev, stack, math.Identity(), slots))

	draws := dev.Filter(devicetest.OpDrawArrays)
	require.Len(t, draws, 2)
	for _, d := range draws {
		assert.Equal(t, device.Lines, d.Topology)
		assert.Equal(t, int32(WireframeVertexCount), d.Count)
	}
	// Shared extents share one mesh.
	assert.Len(t, dev.Filter(devicetest.OpCreateBuffer), 2)
	assert.Equal(t, 1, stack.Depth())

	var views []math.Mat4
	for _, c := range dev.Filter(devicetest.OpUniformMatrix4) {
		if c.Slot == slots.View {
			views = append(views, c.Matrix)
		}
	}
	require.Len(t, views, 2)
	assert.Equal(t, math.Vec3{X: 2, Z: -5}, views[0].Translation())
	assert.Equal(t, math.Vec3{X: -2, Z: -5}, views[1].Translation())

	overlay.Release(dev)
	assert.Empty(t, dev.Buffers)
}

func TestBoundsOverlayUploadFailure(t *testing.T) {
	dev := devicetest.New(800, 600)
	targets := []target{
		{bv: picking.BoundingVolume{Extents: math.Vec3{X: 1, Y: 1, Z: 1}}, has: true},
		{bv: picking.BoundingVolume{Extents: math.Vec3{X: 2, Y: 2, Z: 2}}, has: true},
	}
	overlay := NewBoundsOverlay(func() []target { return targets })
	dev.FailOn[devicetest.OpCreateBuffer] = true

	err := overlay.Draw(dev, mesh.NewMatrixStack(math.Identity()), math.Identity(), slots)
	require.ErrorIs(t, err, device.ErrDevice)
	assert.Len(t, dev.Filter(devicetest.OpDrawArrays), 1)
}

func TestBoundsOverlaySkipsInvalidVolumes(t *testing.T) {
	dev := devicetest.New(800, 600)
	nan := float32(0)
	nan = nan / nan
	targets := []target{
		{bv: picking.BoundingVolume{Extents: math.Vec3{X: nan, Y: 1, Z: 1}}, has: true},
		{bv: picking.BoundingVolume{Extents: math.Vec3{X: -1, Y: 1, Z: 1}}, has: true},
	}
	overlay := NewBoundsOverlay(func() []target { return targets })

	for i := 0; i < 3; i++ {
		require.NoError(t, overlay.Draw(dev, mesh.NewMatrixStack(math.Identity()), math.Identity(), slots))
	}
	assert.Empty(t, dev.Filter(devicetest.OpCreateBuffer))
	assert.Empty(t, dev.Filter(devicetest.OpDrawArrays))
}

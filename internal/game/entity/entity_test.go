package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-stage/internal/engine/device"
	"github.com/Faultbox/midgard-stage/internal/engine/device/devicetest"
	"github.com/Faultbox/midgard-stage/internal/engine/mesh"
	"github.com/Faultbox/midgard-stage/internal/engine/picking"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

var (
	slots = device.ShaderSlots{Position: 0, Color: 1, Projection: 2, View: 3}
	spin  = mesh.RotationRule{Degrees: -75, IntervalMs: 1000, Axis: math.Vec3{X: 1, Y: 1, Z: 1}}
	unit  = math.Vec3{X: 1, Y: 1, Z: 1}
)

func cubeDesc(name string, at math.Vec3) Descriptor {
	return Descriptor{
		Name:    name,
		Mesh:    mesh.Cube(at, spin, 1, nil),
		Extents: &unit,
	}
}

func TestSpawn(t *testing.T) {
	dev := devicetest.New(640, 480)
	desc := cubeDesc("cube", math.Vec3{X: 1.5, Z: -7})
	desc.Children = []Descriptor{{
		Name: "marker",
		Mesh: mesh.Triangle(math.Vec3{Y: 2}, mesh.RotationRule{}, 0.5, mesh.Color{1, 1, 1, 1}),
	}}

	e, err := Spawn(dev, desc)
	require.NoError(t, err)

	assert.Equal(t, "cube", e.Name)
	assert.Equal(t, math.Vec3{X: 1.5, Z: -7}, e.Coordinates())
	require.Len(t, e.Children(), 1)
	assert.Same(t, e, e.Children()[0].Parent())
	assert.Nil(t, e.Children()[0].Bounds)
	assert.Len(t, dev.Buffers, 5)
}

func TestSpawnFailureReleasesEverything(t *testing.T) {
	dev := devicetest.New(640, 480)
	desc := cubeDesc("cube", math.Vec3{})
	bad := cubeDesc("bad", math.Vec3{})
	bad.Mesh.Rotation.Axis = math.Vec3{}
	desc.Children = []Descriptor{cubeDesc("ok", math.Vec3{}), bad}

	_, err := Spawn(dev, desc)
	assert.ErrorIs(t, err, mesh.ErrZeroAxis)
	assert.Empty(t, dev.Buffers)
}

func TestSpawnRejectsInvalidExtents(t *testing.T) {
	nan := float32(0)
	nan = nan / nan
	for _, ext := range []math.Vec3{
		{X: -1, Y: -1, Z: -1},
		{X: 1, Y: -0.5, Z: 1},
		{X: nan, Y: 1, Z: 1},
	} {
		dev := devicetest.New(640, 480)
		desc := cubeDesc("cube", math.Vec3{})
		desc.Extents = &ext

		_, err := Spawn(dev, desc)
		assert.ErrorIs(t, err, ErrInvalidBounds, "extents %v", ext)
		assert.Empty(t, dev.Filter(devicetest.OpCreateBuffer), "nothing uploaded for %v", ext)
	}
}

func TestSpawnRejectsInvalidChildExtents(t *testing.T) {
	dev := devicetest.New(640, 480)
	bad := cubeDesc("bad", math.Vec3{})
	bad.Extents = &math.Vec3{X: -1, Y: 1, Z: 1}
	desc := cubeDesc("cube", math.Vec3{})
	desc.Children = []Descriptor{bad}

	_, err := Spawn(dev, desc)
	assert.ErrorIs(t, err, ErrInvalidBounds)
	assert.Empty(t, dev.Buffers)
}

func TestBoundingVolumeFollowsMesh(t *testing.T) {
	e, err := Spawn(devicetest.New(1, 1), cubeDesc("cube", math.Vec3{X: 1.5, Z: -7}))
	require.NoError(t, err)

	bv, ok := e.BoundingVolume()
	require.True(t, ok)
	assert.Equal(t, math.Vec3{X: 1.5, Z: -7}, bv.Center)
	assert.Equal(t, unit, bv.Extents)

	e.SetCoordinates(math.Vec3{X: -2})
	bv, _ = e.BoundingVolume()
	assert.Equal(t, math.Vec3{X: -2}, bv.Center)

	_, ok = New("bare", nil).BoundingVolume()
	assert.False(t, ok)
}

func TestChildBoundsComposeOnParent(t *testing.T) {
	dev := devicetest.New(1, 1)
	parent, err := Spawn(dev, Descriptor{
		Name: "parent",
		Mesh: mesh.Square(math.Vec3{X: 2, Z: -5}, mesh.RotationRule{}, 1, mesh.Color{1, 1, 1, 1}),
		Children: []Descriptor{
			cubeDesc("child", math.Vec3{Y: 3}),
		},
	})
	require.NoError(t, err)

	child := parent.Children()[0]
	bv, ok := child.BoundingVolume()
	require.True(t, ok)
	assert.InDelta(t, 2, bv.Center.X, 1e-6)
	assert.InDelta(t, 3, bv.Center.Y, 1e-6)
	assert.InDelta(t, -5, bv.Center.Z, 1e-6)

	hits := picking.Raycast(math.Vec3{X: 2, Y: 3, Z: 10}, math.Vec3{Z: -1}, []*Entity{parent, child}, picking.Options{})
	require.Len(t, hits, 1)
	assert.Same(t, child, hits[0].Target)
}

func TestAddChild(t *testing.T) {
	a, b, c := New("a", nil), New("b", nil), New("c", nil)

	require.NoError(t, a.AddChild(b))
	require.NoError(t, b.AddChild(c))

	assert.ErrorIs(t, c.AddChild(a), ErrCycle)
	assert.ErrorIs(t, a.AddChild(a), ErrCycle)
	assert.ErrorIs(t, a.AddChild(c), ErrHasParent)
	assert.Len(t, a.Children(), 1)
}

func TestUpdate(t *testing.T) {
	e, err := Spawn(devicetest.New(1, 1), cubeDesc("cube", math.Vec3{}))
	require.NoError(t, err)

	var seen float32
	e.Hooks.OnUpdate = func(_ *Entity, ms float32) error {
		seen = ms
		return nil
	}
	require.NoError(t, e.Update(500))
	assert.InDelta(t, -37.5, e.Mesh.Angle(), 1e-5)
	assert.Equal(t, float32(500), seen)

	boom := errors.New("boom")
	e.Hooks.OnUpdate = func(*Entity, float32) error { return boom }
	assert.ErrorIs(t, e.Update(1), boom)
}

func TestUpdateRecoversPanic(t *testing.T) {
	e := New("fragile", nil)
	e.Hooks.OnUpdate = func(*Entity, float32) error { panic("bad state") }

	var err error
	assert.NotPanics(t, func() { err = e.Update(16) })
	assert.ErrorContains(t, err, "bad state")

	e.Hooks.OnPick = func(*Entity, PickEvent) { panic("pick") }
	assert.Error(t, e.Pick(PickEvent{}))
}

func TestDrawChildrenInParentSpace(t *testing.T) {
	dev := devicetest.New(640, 480)
	parent, err := Spawn(dev, Descriptor{
		Name:     "parent",
		Mesh:     mesh.Cube(math.Vec3{X: 1, Z: -5}, spin, 1, nil),
		Children: []Descriptor{cubeDesc("child", math.Vec3{Y: 2})},
	})
	require.NoError(t, err)
	parent.Mesh.Advance(400)
	child := parent.Children()[0]
	dev.Reset()

	view := math.Translate(0, 0, -1)
	stack := mesh.NewMatrixStack(view)
	require.NoError(t, parent.Draw(dev, stack, math.Identity(), slots))

	views := dev.Filter(devicetest.OpUniformMatrix4)
	require.Len(t, views, 4)
	parentMV := parent.Mesh.Compose(view)
	assert.Equal(t, parentMV, views[0].Matrix)
	assert.Equal(t, child.Mesh.Compose(parentMV), views[2].Matrix)

	assert.Equal(t, view, stack.Top())
	assert.Zero(t, stack.Depth())
}

func TestDrawFailureStillDrawsChildren(t *testing.T) {
	dev := devicetest.New(640, 480)
	parent, err := Spawn(dev, Descriptor{
		Name:     "parent",
		Mesh:     mesh.Cube(math.Vec3{}, spin, 1, nil),
		Children: []Descriptor{cubeDesc("a", math.Vec3{}), cubeDesc("b", math.Vec3{})},
	})
	require.NoError(t, err)
	dev.Reset()
	dev.FailOn[devicetest.OpDrawElements] = true

	view := math.Translate(0, 0, -3)
	stack := mesh.NewMatrixStack(view)
	err = parent.Draw(dev, stack, math.Identity(), slots)

	assert.ErrorIs(t, err, device.ErrDevice)
	assert.Len(t, dev.Filter(devicetest.OpDrawElements), 2)
	assert.Equal(t, view, stack.Top())
}

// panicDevice panics on the nth indexed draw.
type panicDevice struct {
	*devicetest.Recorder
	n, draws int
}

func (d *panicDevice) DrawElements(topology device.Topology, count int32) error {
	d.draws++
	if d.draws == d.n {
		panic("device lost")
	}
	return d.Recorder.DrawElements(topology, count)
}

func TestDrawPanicInChildSparesSiblings(t *testing.T) {
	rec := devicetest.New(640, 480)
	parent, err := Spawn(rec, Descriptor{
		Name:     "parent",
		Mesh:     mesh.Cube(math.Vec3{}, spin, 1, nil),
		Children: []Descriptor{cubeDesc("a", math.Vec3{}), cubeDesc("b", math.Vec3{})},
	})
	require.NoError(t, err)
	rec.Reset()
	dev := &panicDevice{Recorder: rec, n: 2}

	view := math.Translate(0, 0, -3)
	stack := mesh.NewMatrixStack(view)
	require.NotPanics(t, func() {
		err = parent.Draw(dev, stack, math.Identity(), slots)
	})

	assert.ErrorContains(t, err, "a#")
	assert.ErrorContains(t, err, "device lost")
	assert.Len(t, rec.Filter(devicetest.OpDrawElements), 2, "parent and b drawn")
	assert.Equal(t, view, stack.Top())
	assert.Zero(t, stack.Depth())
}

func TestPointerHooks(t *testing.T) {
	e := New("cube", nil)
	var got []string
	e.Hooks = Hooks{
		OnPointerDown: func(*Entity, PointerEvent) { got = append(got, "down") },
		OnPointerMove: func(*Entity, PointerEvent) { got = append(got, "move") },
		OnPointerUp:   func(*Entity, PointerEvent) { got = append(got, "up") },
		OnPick:        func(*Entity, PickEvent) { got = append(got, "pick") },
	}

	require.NoError(t, e.PointerDown(PointerEvent{}))
	require.NoError(t, e.Pick(PickEvent{}))
	require.NoError(t, e.PointerMove(PointerEvent{}))
	require.NoError(t, e.PointerUp(PointerEvent{}))
	assert.Equal(t, []string{"down", "pick", "move", "up"}, got)

	// Entities without hooks accept every event.
	bare := New("bare", nil)
	assert.NoError(t, bare.PointerDown(PointerEvent{}))
	assert.NoError(t, bare.Update(1))
}

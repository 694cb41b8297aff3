package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-stage/internal/engine/device/devicetest"
	"github.com/Faultbox/midgard-stage/internal/engine/mesh"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

func names(es []*Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Name
	}
	return out
}

func TestManagerOrder(t *testing.T) {
	dev := devicetest.New(1, 1)
	m := NewManager()

	first := cubeDesc("first", math.Vec3{})
	first.Children = []Descriptor{
		{Name: "first.a", Mesh: mesh.Triangle(math.Vec3{}, mesh.RotationRule{}, 1, mesh.Color{1, 1, 1, 1})},
		cubeDesc("first.b", math.Vec3{}),
	}
	_, err := m.Spawn(dev, first)
	require.NoError(t, err)
	_, err = m.Spawn(dev, cubeDesc("second", math.Vec3{}))
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, names(m.Roots()))
	assert.Equal(t, []string{"first", "first.a", "first.b", "second"}, names(m.All()))
	assert.Equal(t, []string{"first", "first.b", "second"}, names(m.Pickables()))
	assert.Equal(t, 4, m.Count())
}

func TestManagerIDs(t *testing.T) {
	m := NewManager()
	a, b := New("a", nil), New("b", nil)
	require.NoError(t, a.AddChild(b))
	require.NoError(t, m.Add(a))

	assert.NotZero(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Same(t, b, m.Get(b.ID))
	assert.Nil(t, m.Get(999))

	assert.ErrorIs(t, m.Add(a), ErrAlreadyAdded)
	assert.ErrorIs(t, m.Add(b), ErrHasParent)
}

func TestManagerRelease(t *testing.T) {
	dev := devicetest.New(1, 1)
	m := NewManager()
	_, err := m.Spawn(dev, cubeDesc("cube", math.Vec3{}))
	require.NoError(t, err)

	m.Release(dev)
	assert.Empty(t, dev.Buffers)
	assert.Zero(t, m.Count())
	assert.Empty(t, m.All())
}

func TestManagerSpawnError(t *testing.T) {
	m := NewManager()
	bad := cubeDesc("bad", math.Vec3{})
	bad.Mesh.Scale = -1

	_, err := m.Spawn(devicetest.New(1, 1), bad)
	assert.ErrorIs(t, err, mesh.ErrInvalidScale)
	assert.Zero(t, m.Count())
}

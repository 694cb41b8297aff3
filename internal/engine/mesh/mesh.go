// Package mesh holds static GPU geometry and the per-frame rule that spins it.
package mesh

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-stage/internal/engine/device"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// Construction errors.
var (
	ErrInvalidGeometry = errors.New("mesh: invalid geometry")
	ErrZeroAxis        = errors.New("mesh: rotation axis has zero length")
	ErrInvalidScale    = errors.New("mesh: scale must be positive and finite")
	ErrInvalidInterval = errors.New("mesh: rotation interval must be positive")
)

// RotationRule spins a mesh by Degrees every IntervalMs milliseconds about
// Axis. The zero value means no rotation.
type RotationRule struct {
	Degrees    float32
	IntervalMs float32
	Axis       math.Vec3
}

// IsStatic reports whether the rule never rotates.
func (r RotationRule) IsStatic() bool {
	return r.Degrees == 0
}

func (r RotationRule) validate() error {
	if r.IsStatic() {
		return nil
	}
	if !(r.IntervalMs > 0) || math32.IsInf(r.IntervalMs, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, r.IntervalMs)
	}
	if !r.Axis.IsFinite() || r.Axis.Length() < math.Epsilon {
		return fmt.Errorf("%w: %v", ErrZeroAxis, r.Axis)
	}
	if math32.IsNaN(r.Degrees) || math32.IsInf(r.Degrees, 0) {
		return fmt.Errorf("%w: degrees %v", ErrInvalidInterval, r.Degrees)
	}
	return nil
}

// Spec describes a mesh to upload.
type Spec struct {
	Positions   []float32 // 3 per vertex
	Colors      []float32 // 4 per vertex
	VertexCount int
	Indices     []uint16 // optional
	Topology    device.Topology

	Coordinates math.Vec3
	Scale       float32 // zero means 1
	Rotation    RotationRule
}

func (s *Spec) validate() error {
	if s.VertexCount <= 0 {
		return fmt.Errorf("%w: vertex count %d", ErrInvalidGeometry, s.VertexCount)
	}
	if len(s.Positions) != 3*s.VertexCount {
		return fmt.Errorf("%w: %d position floats for %d vertices", ErrInvalidGeometry, len(s.Positions), s.VertexCount)
	}
	if len(s.Colors) != 4*s.VertexCount {
		return fmt.Errorf("%w: %d color floats for %d vertices", ErrInvalidGeometry, len(s.Colors), s.VertexCount)
	}
	for i, idx := range s.Indices {
		if int(idx) >= s.VertexCount {
			return fmt.Errorf("%w: index %d at %d out of range", ErrInvalidGeometry, idx, i)
		}
	}
	if s.Scale == 0 {
		s.Scale = 1
	}
	if !(s.Scale > 0) || math32.IsInf(s.Scale, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, s.Scale)
	}
	if !s.Coordinates.IsFinite() {
		return fmt.Errorf("%w: coordinates %v", ErrInvalidGeometry, s.Coordinates)
	}
	return s.Rotation.validate()
}

// Mesh is geometry uploaded once plus its mutable placement.
type Mesh struct {
	Coordinates math.Vec3
	Scale       float32

	rotation RotationRule
	angle    float32 // degrees, unbounded

	topology    device.Topology
	vertexCount int32
	indexCount  int32

	positions device.Buffer
	colors    device.Buffer
	indices   device.Buffer
}

// New validates spec and uploads its buffers. Later draws never re-upload.
func New(dev device.Device, spec Spec) (*Mesh, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	m := &Mesh{
		Coordinates: spec.Coordinates,
		Scale:       spec.Scale,
		rotation:    spec.Rotation,
		topology:    spec.Topology,
		vertexCount: int32(spec.VertexCount),
		indexCount:  int32(len(spec.Indices)),
	}

	var err error
	if m.positions, err = dev.CreateBuffer(device.ArrayBuffer, spec.Positions); err != nil {
		return nil, fmt.Errorf("upload positions: %w", err)
	}
	if m.colors, err = dev.CreateBuffer(device.ArrayBuffer, spec.Colors); err != nil {
		dev.DeleteBuffer(m.positions)
		return nil, fmt.Errorf("upload colors: %w", err)
	}
	if m.indexCount > 0 {
		if m.indices, err = dev.CreateBuffer(device.ElementBuffer, spec.Indices); err != nil {
			dev.DeleteBuffer(m.positions)
			dev.DeleteBuffer(m.colors)
			return nil, fmt.Errorf("upload indices: %w", err)
		}
	}
	return m, nil
}

// Advance accumulates rotation for elapsedMs of time. The angle is not wrapped.
func (m *Mesh) Advance(elapsedMs float32) {
	if m.rotation.IsStatic() {
		return
	}
	m.angle += m.rotation.Degrees * elapsedMs / m.rotation.IntervalMs
}

// Angle returns the accumulated rotation in degrees.
func (m *Mesh) Angle() float32 {
	return m.angle
}

// Rotation returns the mesh's rotation rule.
func (m *Mesh) Rotation() RotationRule {
	return m.rotation
}

// Indexed reports whether the mesh draws through an index buffer.
func (m *Mesh) Indexed() bool {
	return m.indexCount > 0
}

// LocalTransform returns T(coordinates) · R(angle, axis) · S(scale).
func (m *Mesh) LocalTransform() math.Mat4 {
	return m.Compose(math.Identity())
}

// Compose layers the local transform onto parent.
func (m *Mesh) Compose(parent math.Mat4) math.Mat4 {
	out := parent.Translate(m.Coordinates)
	if !m.rotation.IsStatic() {
		out = out.Rotate(math.DegToRad(m.angle), m.rotation.Axis)
	}
	if m.Scale != 1 {
		out = out.ScaleBy(m.Scale)
	}
	return out
}

// Draw pushes the local transform onto stack, issues the draw and pops.
// The stack is restored on every return path, panics included.
func (m *Mesh) Draw(dev device.Device, stack *MatrixStack, proj math.Mat4, slots device.ShaderSlots) error {
	return m.DrawThen(dev, stack, proj, slots, nil)
}

// DrawThen is Draw with a callback that runs while the local transform is
// still on the stack, so callers can draw children in this mesh's space.
// then runs even when the mesh's own draw failed; both errors are returned.
func (m *Mesh) DrawThen(dev device.Device, stack *MatrixStack, proj math.Mat4, slots device.ShaderSlots, then func() error) error {
	stack.Push()
	defer stack.Pop()

	stack.Set(m.Compose(stack.Top()))

	err := m.draw(dev, stack.Top(), proj, slots)
	if then != nil {
		err = multierr.Append(err, then())
	}
	return err
}

func (m *Mesh) draw(dev device.Device, modelView, proj math.Mat4, slots device.ShaderSlots) error {
	if err := dev.BindAttribute(slots.Position, m.positions, 3); err != nil {
		return fmt.Errorf("bind positions: %w", err)
	}
	if err := dev.BindAttribute(slots.Color, m.colors, 4); err != nil {
		return fmt.Errorf("bind colors: %w", err)
	}
	if m.indexCount > 0 {
		if err := dev.BindIndexBuffer(m.indices); err != nil {
			return fmt.Errorf("bind indices: %w", err)
		}
	}
	if err := dev.UniformMatrix4(slots.View, modelView); err != nil {
		return fmt.Errorf("upload view: %w", err)
	}
	if err := dev.UniformMatrix4(slots.Projection, proj); err != nil {
		return fmt.Errorf("upload projection: %w", err)
	}

	var err error
	if m.indexCount > 0 {
		err = dev.DrawElements(m.topology, m.indexCount)
	} else {
		err = dev.DrawArrays(m.topology, 0, m.vertexCount)
	}
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	return nil
}

// Release deletes the mesh's buffers.
func (m *Mesh) Release(dev device.Device) {
	dev.DeleteBuffer(m.positions)
	dev.DeleteBuffer(m.colors)
	if m.indexCount > 0 {
		dev.DeleteBuffer(m.indices)
	}
	m.positions, m.colors, m.indices = 0, 0, 0
}

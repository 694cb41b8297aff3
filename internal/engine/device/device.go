// Package device defines the rendering device contract consumed by the
// scene runtime. Buffers are created once and referenced by handle; the
// shader program is compiled elsewhere and described by ShaderSlots.
package device

import (
	"errors"

	"github.com/Faultbox/midgard-stage/pkg/math"
)

// ErrDevice is wrapped by every failure surfaced by a Device implementation.
var ErrDevice = errors.New("device error")

// Buffer is an opaque handle to a buffer owned by the device.
type Buffer uint32

// BufferKind selects the binding target of a buffer.
type BufferKind uint8

const (
	// ArrayBuffer holds float32 vertex attributes.
	ArrayBuffer BufferKind = iota
	// ElementBuffer holds uint16 indices.
	ElementBuffer
)

func (k BufferKind) String() string {
	switch k {
	case ArrayBuffer:
		return "array"
	case ElementBuffer:
		return "element"
	default:
		return "unknown"
	}
}

// Topology describes how a vertex or index stream is assembled into primitives.
type Topology uint8

const (
	// Triangles draws every three vertices as a separate triangle.
	Triangles Topology = iota
	// TriangleStrip draws a connected strip of triangles.
	TriangleStrip
	// Lines draws every two vertices as a separate segment.
	Lines
)

func (t Topology) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle_strip"
	case Lines:
		return "lines"
	default:
		return "unknown"
	}
}

// ShaderSlots holds the attribute and uniform locations of the scene
// program. It is resolved once at setup and passed to every draw.
type ShaderSlots struct {
	Position   int32 // vertex position attribute (vec3)
	Color      int32 // vertex color attribute (vec4)
	Projection int32 // projection matrix uniform
	View       int32 // model-view matrix uniform
}

// Device is the rendering backend.
type Device interface {
	// CreateBuffer uploads data once and returns its handle. ArrayBuffer
	// expects []float32, ElementBuffer expects []uint16.
	CreateBuffer(kind BufferKind, data any) (Buffer, error)
	DeleteBuffer(buf Buffer)

	// BindAttribute binds buf to an attribute slot with size components per vertex.
	BindAttribute(slot int32, buf Buffer, size int32) error
	BindIndexBuffer(buf Buffer) error
	UniformMatrix4(slot int32, m math.Mat4) error

	Viewport(x, y, width, height int32)
	DrawableSize() (width, height int32)
	Clear()

	DrawArrays(topology Topology, first, count int32) error
	DrawElements(topology Topology, count int32) error
}

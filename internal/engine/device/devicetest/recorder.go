// Package devicetest provides an in-memory device.Device that records every
// call, for tests that cannot open a GL context.
package devicetest

import (
	"fmt"

	"github.com/Faultbox/midgard-stage/internal/engine/device"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// Op names a recorded call.
type Op string

const (
	OpCreateBuffer    Op = "create_buffer"
	OpDeleteBuffer    Op = "delete_buffer"
	OpBindAttribute   Op = "bind_attribute"
	OpBindIndexBuffer Op = "bind_index_buffer"
	OpUniformMatrix4  Op = "uniform_matrix4"
	OpViewport        Op = "viewport"
	OpClear           Op = "clear"
	OpDrawArrays      Op = "draw_arrays"
	OpDrawElements    Op = "draw_elements"
)

// Call is one recorded device call.
type Call struct {
	Op       Op
	Kind     device.BufferKind
	Buffer   device.Buffer
	Slot     int32
	Size     int32
	Matrix   math.Mat4
	Topology device.Topology
	First    int32
	Count    int32
	Rect     [4]int32
}

// Recorder implements device.Device in memory.
type Recorder struct {
	Width, Height int32

	Calls   []Call
	Buffers map[device.Buffer]any

	// FailOn makes the next call of the given op return an error.
	FailOn map[Op]bool

	next device.Buffer
}

// New returns a recorder with the given drawable size.
func New(width, height int32) *Recorder {
	return &Recorder{
		Width:   width,
		Height:  height,
		Buffers: make(map[device.Buffer]any),
		FailOn:  make(map[Op]bool),
	}
}

func (r *Recorder) fail(op Op) error {
	if r.FailOn[op] {
		delete(r.FailOn, op)
		return fmt.Errorf("%w: injected %s failure", device.ErrDevice, op)
	}
	return nil
}

// CreateBuffer implements device.Device.
func (r *Recorder) CreateBuffer(kind device.BufferKind, data any) (device.Buffer, error) {
	if err := r.fail(OpCreateBuffer); err != nil {
		return 0, err
	}
	switch data.(type) {
	case []float32:
		if kind != device.ArrayBuffer {
			return 0, fmt.Errorf("%w: float data for %s buffer", device.ErrDevice, kind)
		}
	case []uint16:
		if kind != device.ElementBuffer {
			return 0, fmt.Errorf("%w: index data for %s buffer", device.ErrDevice, kind)
		}
	default:
		return 0, fmt.Errorf("%w: unsupported buffer data %T", device.ErrDevice, data)
	}
	r.next++
	r.Buffers[r.next] = data
	r.Calls = append(r.Calls, Call{Op: OpCreateBuffer, Kind: kind, Buffer: r.next})
	return r.next, nil
}

// DeleteBuffer implements device.Device.
func (r *Recorder) DeleteBuffer(buf device.Buffer) {
	delete(r.Buffers, buf)
	r.Calls = append(r.Calls, Call{Op: OpDeleteBuffer, Buffer: buf})
}

// BindAttribute implements device.Device.
func (r *Recorder) BindAttribute(slot int32, buf device.Buffer, size int32) error {
	if err := r.fail(OpBindAttribute); err != nil {
		return err
	}
	r.Calls = append(r.Calls, Call{Op: OpBindAttribute, Slot: slot, Buffer: buf, Size: size})
	return nil
}

// BindIndexBuffer implements device.Device.
func (r *Recorder) BindIndexBuffer(buf device.Buffer) error {
	if err := r.fail(OpBindIndexBuffer); err != nil {
		return err
	}
	r.Calls = append(r.Calls, Call{Op: OpBindIndexBuffer, Buffer: buf})
	return nil
}

// UniformMatrix4 implements device.Device.
func (r *Recorder) UniformMatrix4(slot int32, m math.Mat4) error {
	if err := r.fail(OpUniformMatrix4); err != nil {
		return err
	}
	r.Calls = append(r.Calls, Call{Op: OpUniformMatrix4, Slot: slot, Matrix: m})
	return nil
}

// Viewport implements device.Device.
func (r *Recorder) Viewport(x, y, width, height int32) {
	r.Calls = append(r.Calls, Call{Op: OpViewport, Rect: [4]int32{x, y, width, height}})
}

// DrawableSize implements device.Device.
func (r *Recorder) DrawableSize() (int32, int32) {
	return r.Width, r.Height
}

// Clear implements device.Device.
func (r *Recorder) Clear() {
	r.Calls = append(r.Calls, Call{Op: OpClear})
}

// DrawArrays implements device.Device.
func (r *Recorder) DrawArrays(topology device.Topology, first, count int32) error {
	if err := r.fail(OpDrawArrays); err != nil {
		return err
	}
	r.Calls = append(r.Calls, Call{Op: OpDrawArrays, Topology: topology, First: first, Count: count})
	return nil
}

// DrawElements implements device.Device.
func (r *Recorder) DrawElements(topology device.Topology, count int32) error {
	if err := r.fail(OpDrawElements); err != nil {
		return err
	}
	r.Calls = append(r.Calls, Call{Op: OpDrawElements, Topology: topology, Count: count})
	return nil
}

// Filter returns the recorded calls with the given op, in order.
func (r *Recorder) Filter(op Op) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps live buffers.
func (r *Recorder) Reset() {
	r.Calls = r.Calls[:0]
}

// Package gldevice implements device.Device on top of OpenGL 4.1 core.
package gldevice

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-stage/internal/engine/device"
	"github.com/Faultbox/midgard-stage/internal/logger"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// SizeFunc reports the current drawable size in pixels.
type SizeFunc func() (width, height int32)

// Device is an OpenGL-backed rendering device.
type Device struct {
	vao  uint32
	size SizeFunc
}

// New initializes OpenGL and returns a device.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New(size SizeFunc) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	d := &Device{size: size}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.0, 0.0, 0.0, 1.0)

	// Core profile refuses attribute pointers without a bound VAO.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	return d, checkError("init")
}

// Close releases the vertex array.
func (d *Device) Close() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

// CreateBuffer implements device.Device.
func (d *Device) CreateBuffer(kind device.BufferKind, data any) (device.Buffer, error) {
	var buf uint32
	gl.GenBuffers(1, &buf)

	switch v := data.(type) {
	case []float32:
		if kind != device.ArrayBuffer || len(v) == 0 {
			gl.DeleteBuffers(1, &buf)
			return 0, fmt.Errorf("%w: %d floats for %s buffer", device.ErrDevice, len(v), kind)
		}
		gl.BindBuffer(gl.ARRAY_BUFFER, buf)
		gl.BufferData(gl.ARRAY_BUFFER, len(v)*4, gl.Ptr(v), gl.STATIC_DRAW)
	case []uint16:
		if kind != device.ElementBuffer || len(v) == 0 {
			gl.DeleteBuffers(1, &buf)
			return 0, fmt.Errorf("%w: %d indices for %s buffer", device.ErrDevice, len(v), kind)
		}
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(v)*2, gl.Ptr(v), gl.STATIC_DRAW)
	default:
		gl.DeleteBuffers(1, &buf)
		return 0, fmt.Errorf("%w: unsupported buffer data %T", device.ErrDevice, data)
	}

	if err := checkError("buffer upload"); err != nil {
		gl.DeleteBuffers(1, &buf)
		return 0, err
	}

	logger.Debug("buffer created", zap.Uint32("buffer", buf), zap.Stringer("kind", kind))
	return device.Buffer(buf), nil
}

// DeleteBuffer implements device.Device.
func (d *Device) DeleteBuffer(buf device.Buffer) {
	id := uint32(buf)
	gl.DeleteBuffers(1, &id)
}

// BindAttribute implements device.Device.
func (d *Device) BindAttribute(slot int32, buf device.Buffer, size int32) error {
	if slot < 0 {
		return fmt.Errorf("%w: attribute slot %d is not active", device.ErrDevice, slot)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.EnableVertexAttribArray(uint32(slot))
	gl.VertexAttribPointer(uint32(slot), size, gl.FLOAT, false, 0, nil)
	return checkError("bind attribute")
}

// BindIndexBuffer implements device.Device.
func (d *Device) BindIndexBuffer(buf device.Buffer) error {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(buf))
	return checkError("bind index buffer")
}

// UniformMatrix4 implements device.Device.
func (d *Device) UniformMatrix4(slot int32, m math.Mat4) error {
	if slot < 0 {
		return fmt.Errorf("%w: uniform slot %d is not active", device.ErrDevice, slot)
	}
	gl.UniformMatrix4fv(slot, 1, false, m.Ptr())
	return checkError("uniform matrix")
}

// Viewport implements device.Device.
func (d *Device) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

// DrawableSize implements device.Device.
func (d *Device) DrawableSize() (int32, int32) {
	return d.size()
}

// Clear implements device.Device.
func (d *Device) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// DrawArrays implements device.Device.
func (d *Device) DrawArrays(topology device.Topology, first, count int32) error {
	mode, err := glMode(topology)
	if err != nil {
		return err
	}
	gl.DrawArrays(mode, first, count)
	return checkError("draw arrays")
}

// DrawElements implements device.Device.
func (d *Device) DrawElements(topology device.Topology, count int32) error {
	mode, err := glMode(topology)
	if err != nil {
		return err
	}
	gl.DrawElements(mode, count, gl.UNSIGNED_SHORT, nil)
	return checkError("draw elements")
}

// ReadPixels returns the framebuffer as tightly packed RGBA rows, bottom
// row first.
func (d *Device) ReadPixels(width, height int32) ([]byte, error) {
	pixels := make([]byte, int(width)*int(height)*4)
	if len(pixels) == 0 {
		return nil, fmt.Errorf("%w: empty framebuffer %dx%d", device.ErrDevice, width, height)
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, checkError("read pixels")
}

func glMode(t device.Topology) (uint32, error) {
	switch t {
	case device.Triangles:
		return gl.TRIANGLES, nil
	case device.TriangleStrip:
		return gl.TRIANGLE_STRIP, nil
	case device.Lines:
		return gl.LINES, nil
	default:
		return 0, fmt.Errorf("%w: unknown topology %d", device.ErrDevice, t)
	}
}

// checkError drains the GL error queue and reports the first error found.
func checkError(op string) error {
	var first uint32
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return fmt.Errorf("%w: %s: GL error 0x%04X", device.ErrDevice, op, first)
	}
	return nil
}

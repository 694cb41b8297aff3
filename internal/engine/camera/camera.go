// Package camera owns the view and projection matrices and drives the
// per-frame draw sweep.
package camera

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-stage/internal/engine/device"
	"github.com/Faultbox/midgard-stage/internal/engine/mesh"
	"github.com/Faultbox/midgard-stage/internal/engine/picking"
	"github.com/Faultbox/midgard-stage/internal/logger"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// ErrInvalidProjection is returned for projection parameters that would
// produce a degenerate matrix.
var ErrInvalidProjection = errors.New("camera: invalid projection")

// Config holds the projection and initial placement.
type Config struct {
	FOV      float32 // vertical, degrees
	Near     float32
	Far      float32
	Position math.Vec3
	// LegacyTranspose makes WorldFromCamera return the transposed view
	// instead of its inverse. Only equivalent for rigid views.
	LegacyTranspose bool
}

// DefaultConfig returns a 45 degree camera at the origin.
func DefaultConfig() Config {
	return Config{FOV: 45, Near: 0.1, Far: 100}
}

// NewProjection validates the parameters and builds a perspective matrix.
// fov is the vertical field of view in degrees.
func NewProjection(fov, aspect, near, far float32) (math.Mat4, error) {
	switch {
	case !(fov > 0 && fov < 180):
		return math.Mat4{}, fmt.Errorf("%w: fov %v outside (0, 180)", ErrInvalidProjection, fov)
	case !(aspect > 0) || math32.IsInf(aspect, 0):
		return math.Mat4{}, fmt.Errorf("%w: aspect %v", ErrInvalidProjection, aspect)
	case !(near > 0):
		return math.Mat4{}, fmt.Errorf("%w: near %v must be positive", ErrInvalidProjection, near)
	case !(far > near) || math32.IsInf(far, 0):
		return math.Mat4{}, fmt.Errorf("%w: far %v must exceed near %v", ErrInvalidProjection, far, near)
	}
	return math.Perspective(math.DegToRad(fov), aspect, near, far), nil
}

// Drawable is anything the camera can sweep over.
type Drawable interface {
	Draw(dev device.Device, stack *mesh.MatrixStack, proj math.Mat4, slots device.ShaderSlots) error
}

// Camera holds the view matrix, which is the only record of where the
// camera is, and the projection.
type Camera struct {
	cfg           Config
	width, height int

	view       math.Mat4
	viewInv    math.Mat4
	invertible bool
	projection math.Mat4

	log *zap.Logger
}

// New creates a camera for a width x height viewport.
func New(width, height int, cfg Config) (*Camera, error) {
	c := &Camera{
		cfg: cfg,
		log: logger.Named("camera"),
	}
	if err := c.resize(width, height); err != nil {
		return nil, err
	}
	c.SetView(math.Translate(-cfg.Position.X, -cfg.Position.Y, -cfg.Position.Z))
	return c, nil
}

// UpdatePerspective rebuilds the projection. On error the previous
// projection is kept.
func (c *Camera) UpdatePerspective(fov, aspect, near, far float32) error {
	proj, err := NewProjection(fov, aspect, near, far)
	if err != nil {
		return err
	}
	c.projection = proj
	c.cfg.FOV, c.cfg.Near, c.cfg.Far = fov, near, far
	return nil
}

// Resize rebuilds the projection for a new viewport size.
func (c *Camera) Resize(width, height int) error {
	return c.resize(width, height)
}

func (c *Camera) resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalidProjection, width, height)
	}
	if err := c.UpdatePerspective(c.cfg.FOV, float32(width)/float32(height), c.cfg.Near, c.cfg.Far); err != nil {
		return err
	}
	c.width, c.height = width, height
	return nil
}

// SetLegacyTranspose switches the WorldFromCamera convention.
func (c *Camera) SetLegacyTranspose(on bool) {
	c.cfg.LegacyTranspose = on
}

// Config returns the current settings. Position is the initial one.
func (c *Camera) Config() Config {
	return c.cfg
}

// Size returns the viewport size.
func (c *Camera) Size() (width, height int) {
	return c.width, c.height
}

// View returns the world-to-camera matrix.
func (c *Camera) View() math.Mat4 {
	return c.view
}

// SetView replaces the view matrix and refreshes the cached inverse.
func (c *Camera) SetView(m math.Mat4) {
	c.view = m
	c.viewInv, c.invertible = m.Inverse()
	if !c.invertible {
		c.log.Warn("view matrix is singular, unprojection disabled")
	}
}

// Projection returns the projection matrix.
func (c *Camera) Projection() math.Mat4 {
	return c.projection
}

// ViewInverse returns the cached camera-to-world matrix. ok is false when
// the view is singular.
func (c *Camera) ViewInverse() (m math.Mat4, ok bool) {
	return c.viewInv, c.invertible
}

// Translate composes a translation onto the view (view * T(delta)).
func (c *Camera) Translate(delta math.Vec3) {
	c.SetView(c.view.Translate(delta))
}

// Rotate composes a rotation onto the view (view * R(axis, angle)).
// angle is in radians. A zero axis is rejected with a warning and the view
// is left unchanged.
func (c *Camera) Rotate(angle float32, axis math.Vec3) {
	if axis.Length() < math.Epsilon {
		c.log.Warn("rotate ignored: zero axis", zap.Float32("angle", angle))
		return
	}
	c.SetView(c.view.Rotate(angle, axis))
}

// Position returns the camera's world position, derived from the view.
func (c *Camera) Position() math.Vec3 {
	return c.viewInv.Translation()
}

// WorldFromCamera returns the matrix that carries camera-local values into
// world space: the inverse view, or its transpose in legacy mode.
func (c *Camera) WorldFromCamera() math.Mat4 {
	if c.cfg.LegacyTranspose {
		return c.view.Transpose()
	}
	return c.viewInv
}

// Reorient carries a camera-local displacement into world space. Legacy
// mode pushes it through the transposed view as a point, w divide included.
func (c *Camera) Reorient(delta math.Vec3) math.Vec3 {
	if c.cfg.LegacyTranspose {
		return c.view.Transpose().TransformVec3(delta)
	}
	return c.viewInv.TransformDirection(delta)
}

// ScreenToWorld appends z=0 to (x, y) and carries the point through
// WorldFromCamera.
func (c *Camera) ScreenToWorld(x, y float32) math.Vec3 {
	return c.WorldFromCamera().TransformVec3(math.Vec3{X: x, Y: y})
}

// ScreenToRay unprojects a pixel into a world-space ray through
// inverse(projection * view). A degenerate chain yields a ray with zero
// direction, which never hits.
func (c *Camera) ScreenToRay(x, y float32) picking.Ray {
	inv, ok := c.projection.Mul(c.view).Inverse()
	if !ok {
		return picking.Ray{Origin: c.Position()}
	}
	return picking.ScreenToRay(x, y, float32(c.width), float32(c.height), inv)
}

// Render sets the viewport, clears and draws nodes in order on a matrix
// stack seeded with the view. Node failures, panics included, are logged
// and combined; the sweep always reaches every node.
func (c *Camera) Render(dev device.Device, slots device.ShaderSlots, nodes []Drawable) error {
	w, h := dev.DrawableSize()
	if w > 0 && h > 0 && (int(w) != c.width || int(h) != c.height) {
		if err := c.resize(int(w), int(h)); err != nil {
			c.log.Warn("resize failed", zap.Error(err))
		}
	}
	dev.Viewport(0, 0, w, h)
	dev.Clear()

	stack := mesh.NewMatrixStack(c.view)
	var errs error
	for i, n := range nodes {
		if err := c.drawNode(dev, stack, slots, n); err != nil {
			c.log.Warn("draw failed", zap.Int("node", i), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("node %d: %w", i, err))
		}
	}
	return errs
}

// drawNode draws n and turns a panic into an error. The stack is unwound
// to its state before the call so later nodes start from the view.
func (c *Camera) drawNode(dev device.Device, stack *mesh.MatrixStack, slots device.ShaderSlots, n Drawable) (err error) {
	depth, top := stack.Depth(), stack.Top()
	defer func() {
		if r := recover(); r != nil {
			for stack.Depth() > depth {
				stack.Pop()
			}
			stack.Set(top)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return n.Draw(dev, stack, c.projection, slots)
}

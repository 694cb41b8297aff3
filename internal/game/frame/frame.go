// Package frame runs the per-tick update and render of a scene.
package frame

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-stage/internal/engine/camera"
	"github.com/Faultbox/midgard-stage/internal/engine/device"
	"github.com/Faultbox/midgard-stage/internal/engine/input"
	"github.com/Faultbox/midgard-stage/internal/engine/picking"
	"github.com/Faultbox/midgard-stage/internal/game/entity"
	"github.com/Faultbox/midgard-stage/internal/logger"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// State is the loop lifecycle state.
type State uint8

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Options tunes the loop.
type Options struct {
	Picking picking.Options
	// PointerLook rotates the view while the pointer is held.
	PointerLook bool
	// LookSensitivity is degrees of rotation per pixel of pointer travel.
	LookSensitivity float32
}

// DefaultOptions returns slab picking with pointer look at 1/8 degree per pixel.
func DefaultOptions() Options {
	return Options{PointerLook: true, LookSensitivity: 0.125}
}

var (
	axisX = math.Vec3{X: 1}
	axisY = math.Vec3{Y: 1}
)

// Loop ties the camera, scene and input state together.
type Loop struct {
	camera *camera.Camera
	scene  *entity.Manager
	input  *input.State
	dev    device.Device
	slots  device.ShaderSlots
	opts   Options

	state     State
	frames    uint64
	drawables []camera.Drawable

	overlay     camera.Drawable
	showOverlay bool

	log *zap.Logger
}

// New creates an idle loop.
func New(cam *camera.Camera, scene *entity.Manager, in *input.State, dev device.Device, slots device.ShaderSlots, opts Options) *Loop {
	return &Loop{
		camera: cam,
		scene:  scene,
		input:  in,
		dev:    dev,
		slots:  slots,
		opts:   opts,
		log:    logger.Named("frame"),
	}
}

// State returns the lifecycle state.
func (l *Loop) State() State {
	return l.state
}

// Frames returns the number of completed ticks.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// SetOptions replaces the loop options, e.g. after a config reload.
func (l *Loop) SetOptions(opts Options) {
	l.opts = opts
}

// SetOverlay installs a drawable rendered after the scene while enabled.
func (l *Loop) SetOverlay(overlay camera.Drawable, enabled bool) {
	l.overlay = overlay
	l.showOverlay = enabled
}

// ToggleOverlay flips overlay visibility and reports the new state.
func (l *Loop) ToggleOverlay() bool {
	l.showOverlay = !l.showOverlay
	l.log.Debug("overlay toggled", zap.Bool("visible", l.showOverlay))
	return l.showOverlay
}

// Tick advances the scene to now and renders it. The first tick only
// records the timestamp and renders. Entity and draw failures are logged
// and returned together; they never stop the tick.
func (l *Loop) Tick(now time.Time) error {
	elapsed, first := l.input.Elapsed(now)

	var errs error
	if first {
		l.state = StateRunning
		l.input.ResolveVelocity()
		l.input.PointerDelta()
	} else {
		l.integrate(elapsed)
		l.look()
		errs = l.update(elapsed)
	}

	if err := l.camera.Render(l.dev, l.slots, l.roots()); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("render: %w", err))
	}
	l.frames++
	return errs
}

// integrate moves the camera by velocity*elapsed, carried into world space.
// Vertical motion stays world-vertical whatever the camera pitch.
func (l *Loop) integrate(elapsedMs float32) {
	local := l.input.ResolveVelocity().Scale(elapsedMs)
	if local == (math.Vec3{}) {
		return
	}
	world := l.camera.Reorient(local)
	world.Y = local.Y
	l.camera.Translate(world)
}

func (l *Loop) look() {
	d := l.input.PointerDelta()
	if !l.opts.PointerLook || d.IsZero() {
		return
	}
	l.camera.Rotate(math.DegToRad(d.X*l.opts.LookSensitivity), axisY)
	l.camera.Rotate(math.DegToRad(d.Y*l.opts.LookSensitivity), axisX)
}

func (l *Loop) update(elapsedMs float32) error {
	var errs error
	for _, e := range l.scene.All() {
		if err := e.Update(elapsedMs); err != nil {
			l.log.Warn("entity update failed", zap.Stringer("entity", e), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (l *Loop) roots() []camera.Drawable {
	l.drawables = l.drawables[:0]
	for _, r := range l.scene.Roots() {
		l.drawables = append(l.drawables, r)
	}
	if l.overlay != nil && l.showOverlay {
		l.drawables = append(l.drawables, l.overlay)
	}
	return l.drawables
}

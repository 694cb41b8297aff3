package frame

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-stage/internal/engine/input"
	"github.com/Faultbox/midgard-stage/internal/engine/picking"
	"github.com/Faultbox/midgard-stage/internal/game/entity"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// Handle routes a translated input event. Window resizes go to the camera.
func (l *Loop) Handle(ev input.Event) error {
	switch ev.Type {
	case input.EventKeyDown:
		l.KeyDown(ev.Key)
	case input.EventKeyUp:
		l.KeyUp(ev.Key)
	case input.EventMouseDown:
		return l.PointerDown(ev.Pointer, ev.Button)
	case input.EventMouseUp:
		return l.PointerUp(ev.Pointer, ev.Button)
	case input.EventMouseMove:
		return l.PointerMove(ev.Pointer)
	case input.EventWindowResize:
		return l.camera.Resize(ev.Width, ev.Height)
	}
	return nil
}

// KeyDown records a held movement key. It takes effect on the next tick.
func (l *Loop) KeyDown(k input.Key) {
	l.input.Press(k)
}

// KeyUp records a released movement key.
func (l *Loop) KeyUp(k input.Key) {
	l.input.Release(k)
}

// PointerDown records the press, picks along the pointer ray and then
// notifies every entity. OnPick hooks run nearest hit first.
func (l *Loop) PointerDown(p math.Vec2, button uint8) error {
	l.input.PointerDown(p)
	errs := l.pick(p)
	ev := entity.PointerEvent{Pointer: p, Button: button}
	return multierr.Append(errs, l.each("pointer down", func(e *entity.Entity) error {
		return e.PointerDown(ev)
	}))
}

// PointerUp records the release and notifies every entity.
func (l *Loop) PointerUp(p math.Vec2, button uint8) error {
	l.input.PointerUp(p)
	ev := entity.PointerEvent{Pointer: p, Button: button}
	return l.each("pointer up", func(e *entity.Entity) error {
		return e.PointerUp(ev)
	})
}

// PointerMove records the position and notifies every entity. Camera look
// is applied on the next tick from the coalesced movement.
func (l *Loop) PointerMove(p math.Vec2) error {
	l.input.PointerMove(p)
	ev := entity.PointerEvent{Pointer: p}
	return l.each("pointer move", func(e *entity.Entity) error {
		return e.PointerMove(ev)
	})
}

// Pick returns the entities under pixel p in scene order.
func (l *Loop) Pick(p math.Vec2) (picking.Ray, []picking.Hit[*entity.Entity]) {
	ray := l.camera.ScreenToRay(p.X, p.Y)
	return ray, picking.Raycast(ray.Origin, ray.Direction, l.scene.Pickables(), l.opts.Picking)
}

func (l *Loop) pick(p math.Vec2) error {
	ray, hits := l.Pick(p)
	picking.SortByDistance(hits)
	var errs error
	for _, h := range hits {
		l.log.Debug("pick", zap.Stringer("entity", h.Target), zap.Float32("distance", h.Distance))
		err := h.Target.Pick(entity.PickEvent{Ray: ray, Point: h.Point, Distance: h.Distance})
		if err != nil {
			l.log.Warn("pick hook failed", zap.Stringer("entity", h.Target), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (l *Loop) each(what string, fn func(*entity.Entity) error) error {
	var errs error
	for _, e := range l.scene.All() {
		if err := fn(e); err != nil {
			l.log.Warn(what+" hook failed", zap.Stringer("entity", e), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

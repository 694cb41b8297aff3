package game

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-stage/internal/engine/mesh"
	"github.com/Faultbox/midgard-stage/internal/game/entity"
	"github.com/Faultbox/midgard-stage/internal/logger"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

var unitExtents = math.Vec3{X: 1, Y: 1, Z: 1}

// DemoScene returns the default scene: a spinning cube to the right with a
// small pyramid orbiting it, and a square spinning to the left.
func DemoScene() []entity.Descriptor {
	log := logger.Named("scene")
	reportPick := func(e *entity.Entity, ev entity.PickEvent) {
		log.Info("picked",
			zap.Stringer("entity", e),
			zap.Float32("x", ev.Point.X),
			zap.Float32("y", ev.Point.Y),
			zap.Float32("z", ev.Point.Z),
		)
	}

	white := mesh.Color{1, 1, 1, 1}
	pyramidFaces := []mesh.Color{
		{1, 0, 0, 1},
		{0, 1, 0, 1},
		{0, 0, 1, 1},
		{1, 1, 0, 1},
	}

	return []entity.Descriptor{
		{
			Name: "cube",
			Mesh: mesh.Cube(
				math.Vec3{X: 1.5, Z: -7},
				mesh.RotationRule{Degrees: -75, IntervalMs: 1000, Axis: math.Vec3{X: 1, Y: 1, Z: 1}},
				1,
				nil,
			),
			Extents: &unitExtents,
			Hooks:   entity.Hooks{OnPick: reportPick},
			Children: []entity.Descriptor{{
				Name: "satellite",
				Mesh: mesh.Pyramid(
					math.Vec3{Y: 2.5},
					mesh.RotationRule{Degrees: 90, IntervalMs: 1000, Axis: math.Vec3{Y: 1}},
					0.4,
					pyramidFaces,
				),
			}},
		},
		{
			Name: "square",
			Mesh: mesh.Square(
				math.Vec3{X: -1.5, Z: -7},
				mesh.RotationRule{Degrees: 45, IntervalMs: 1000, Axis: math.Vec3{X: 1}},
				1,
				white,
			),
			Extents: &math.Vec3{X: 1, Y: 1, Z: 0.05},
			Hooks:   entity.Hooks{OnPick: reportPick},
		},
	}
}

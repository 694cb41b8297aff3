package game

import (
	"github.com/Faultbox/midgard-stage/internal/config"
	"github.com/Faultbox/midgard-stage/internal/engine/camera"
	"github.com/Faultbox/midgard-stage/internal/engine/picking"
	"github.com/Faultbox/midgard-stage/internal/game/frame"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// cameraConfig maps the camera section of cfg.
func cameraConfig(cfg *config.Config) camera.Config {
	p := cfg.Camera.Position
	return camera.Config{
		FOV:             cfg.Camera.FOV,
		Near:            cfg.Camera.Near,
		Far:             cfg.Camera.Far,
		Position:        math.Vec3{X: p[0], Y: p[1], Z: p[2]},
		LegacyTranspose: cfg.Camera.LegacyTranspose,
	}
}

// loopOptions maps the input and picking sections of cfg.
func loopOptions(cfg *config.Config) (frame.Options, error) {
	mode, err := picking.ParseMode(cfg.Picking.Mode)
	if err != nil {
		return frame.Options{}, err
	}
	return frame.Options{
		Picking: picking.Options{
			Mode:        mode,
			MaxDistance: cfg.Picking.MaxDistance,
		},
		PointerLook:     cfg.Input.PointerLook,
		LookSensitivity: cfg.Input.LookSensitivity,
	}, nil
}

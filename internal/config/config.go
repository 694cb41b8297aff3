// Package config handles runtime configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"
)

// Picking modes.
const (
	PickingSlab   = "slab"
	PickingLegacy = "legacy"
)

// Config holds all runtime settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Camera   CameraConfig   `yaml:"camera"`
	Input    InputConfig    `yaml:"input"`
	Picking  PickingConfig  `yaml:"picking"`
	Logging  LoggingConfig  `yaml:"logging"`
	Debug    DebugConfig    `yaml:"debug"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// CameraConfig holds projection and placement settings.
type CameraConfig struct {
	FOV      float32    `yaml:"fov"` // vertical, degrees
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Position [3]float32 `yaml:"position"`
	// LegacyTranspose reorients movement and unprojects through the
	// transposed view matrix instead of its inverse.
	LegacyTranspose bool `yaml:"legacy_transpose"`
}

// InputConfig holds movement and look settings.
type InputConfig struct {
	MoveSpeed       float32 `yaml:"move_speed"`       // units per second
	LookSensitivity float32 `yaml:"look_sensitivity"` // degrees per pixel
	PointerLook     bool    `yaml:"pointer_look"`
}

// PickingConfig holds raycast settings.
type PickingConfig struct {
	Mode        string  `yaml:"mode"`
	MaxDistance float32 `yaml:"max_distance"` // 0 means unbounded
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// DebugConfig holds developer aids.
type DebugConfig struct {
	ShowBounds       bool   `yaml:"show_bounds"` // draw pick volumes as wireframes
	ScreenshotDir    string `yaml:"screenshot_dir"`
	ScreenshotFormat string `yaml:"screenshot_format"` // png or bmp
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Title:      "Midgard Stage",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Camera: CameraConfig{
			FOV:  45,
			Near: 0.1,
			Far:  100,
		},
		Input: InputConfig{
			MoveSpeed:       5,
			LookSensitivity: 0.125,
			PointerLook:     true,
		},
		Picking: PickingConfig{
			Mode: PickingSlab,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Debug: DebugConfig{
			ScreenshotDir:    "screenshots",
			ScreenshotFormat: "png",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		err = multierr.Append(err, fmt.Errorf("camera: fov %v out of range (0, 180)", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 {
		err = multierr.Append(err, fmt.Errorf("camera: near %v must be positive", c.Camera.Near))
	}
	if c.Camera.Far <= c.Camera.Near {
		err = multierr.Append(err, fmt.Errorf("camera: far %v must exceed near %v", c.Camera.Far, c.Camera.Near))
	}
	if c.Input.MoveSpeed < 0 {
		err = multierr.Append(err, fmt.Errorf("input: negative move speed %v", c.Input.MoveSpeed))
	}
	switch c.Picking.Mode {
	case PickingSlab, PickingLegacy:
	default:
		err = multierr.Append(err, fmt.Errorf("picking: unknown mode %q", c.Picking.Mode))
	}
	if c.Picking.MaxDistance < 0 {
		err = multierr.Append(err, fmt.Errorf("picking: negative max distance %v", c.Picking.MaxDistance))
	}
	switch c.Debug.ScreenshotFormat {
	case "png", "bmp":
	default:
		err = multierr.Append(err, fmt.Errorf("debug: unknown screenshot format %q", c.Debug.ScreenshotFormat))
	}
	return err
}

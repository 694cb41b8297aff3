// Package game wires the window, device, camera, scene and frame loop
// together and runs them.
package game

import (
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-stage/internal/config"
	"github.com/Faultbox/midgard-stage/internal/engine/camera"
	"github.com/Faultbox/midgard-stage/internal/engine/debug"
	"github.com/Faultbox/midgard-stage/internal/engine/gldevice"
	"github.com/Faultbox/midgard-stage/internal/engine/input"
	"github.com/Faultbox/midgard-stage/internal/engine/shader"
	"github.com/Faultbox/midgard-stage/internal/engine/window"
	"github.com/Faultbox/midgard-stage/internal/game/entity"
	"github.com/Faultbox/midgard-stage/internal/game/frame"
	"github.com/Faultbox/midgard-stage/internal/logger"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// Game is the running application.
type Game struct {
	config  *config.Config
	running bool

	window  *window.Window
	device  *gldevice.Device
	program uint32
	events  *input.Input
	state   *input.State
	camera  *camera.Camera
	scene   *entity.Manager
	loop    *frame.Loop
	watcher *config.Watcher

	bounds     *debug.BoundsOverlay[*entity.Entity]
	screenshot *debug.ScreenshotCapture
	capture    bool

	log *zap.Logger
}

// New creates the window and GL resources and spawns scene. configPath,
// if not empty, is watched for changes.
func New(cfg *config.Config, configPath string, scene []entity.Descriptor) (*Game, error) {
	g := &Game{
		config: cfg,
		log:    logger.Named("game"),
	}
	g.log.Info("initializing",
		zap.String("title", cfg.Graphics.Title),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	opts, err := loopOptions(cfg)
	if err != nil {
		return nil, err
	}

	// Window first: it creates the OpenGL context.
	g.window, err = window.New(window.Config{
		Title:      cfg.Graphics.Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	if g.device, err = gldevice.New(g.window.DrawableSize); err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	program, slots, err := shader.CompileScene()
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to build scene shader: %w", err)
	}
	g.program = program

	w, h := g.window.DrawableSize()
	if g.camera, err = camera.New(int(w), int(h), cameraConfig(cfg)); err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to create camera: %w", err)
	}

	g.scene = entity.NewManager()
	for _, desc := range scene {
		if _, err := g.scene.Spawn(g.device, desc); err != nil {
			g.Close()
			return nil, err
		}
	}

	g.events = input.New()
	g.state = input.NewState(cfg.Input.MoveSpeed)
	g.loop = frame.New(g.camera, g.scene, g.state, g.device, slots, opts)

	g.bounds = debug.NewBoundsOverlay(g.scene.Pickables)
	g.loop.SetOverlay(g.bounds, cfg.Debug.ShowBounds)
	g.screenshot = debug.NewScreenshotCapture(cfg.Debug.ScreenshotDir, "stage")
	if format, err := debug.ParseFormat(cfg.Debug.ScreenshotFormat); err == nil {
		g.screenshot.SetFormat(format)
	}

	if configPath != "" {
		if g.watcher, err = config.Watch(configPath); err != nil {
			g.log.Warn("config reload disabled", zap.String("path", configPath), zap.Error(err))
		}
	}

	g.log.Info("initialized", zap.Int("entities", g.scene.Count()))
	return g, nil
}

// Run drives the frame loop until the window closes or Escape is pressed.
func (g *Game) Run() error {
	g.running = true

	frames := 0
	fpsTimer := time.Now()

	g.log.Info("starting frame loop")

	for g.running {
		if g.events.Update() {
			g.running = false
			break
		}
		for _, ev := range g.events.Events() {
			if ev.Type == input.EventKeyDown && g.debugKey(ev.Scancode) {
				continue
			}
			if err := g.loop.Handle(g.toPixels(ev)); err != nil {
				g.log.Warn("event failed", zap.Int("type", int(ev.Type)), zap.Error(err))
			}
		}

		g.reloadConfig()

		if err := g.loop.Tick(time.Now()); err != nil {
			g.log.Debug("tick completed with errors", zap.Error(err))
		}
		if g.capture {
			g.capture = false
			g.saveScreenshot()
		}
		g.window.SwapBuffers()

		frames++
		if time.Since(fpsTimer) >= time.Second {
			g.log.Debug("fps", zap.Int("count", frames), zap.Stringer("camera", g.camera.Position()))
			frames = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// debugKey handles the keys that drive the application rather than the
// scene and reports whether ev was consumed.
func (g *Game) debugKey(sc sdl.Scancode) bool {
	switch sc {
	case sdl.SCANCODE_ESCAPE:
		g.running = false
	case sdl.SCANCODE_B:
		g.loop.ToggleOverlay()
	case sdl.SCANCODE_F12:
		g.capture = true
	default:
		return false
	}
	return true
}

// saveScreenshot reads back the frame just rendered, before the swap.
func (g *Game) saveScreenshot() {
	w, h := g.window.DrawableSize()
	pixels, err := g.device.ReadPixels(w, h)
	if err != nil {
		g.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	path, err := g.screenshot.CaptureFromPixels(pixels, int(w), int(h))
	if err != nil {
		g.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	g.log.Info("screenshot saved", zap.String("path", path))
}

// toPixels rescales pointer coordinates from window units to drawable
// pixels, which is what the camera viewport uses on high-DPI displays.
func (g *Game) toPixels(ev input.Event) input.Event {
	switch ev.Type {
	case input.EventMouseDown, input.EventMouseUp, input.EventMouseMove:
	default:
		return ev
	}
	ww, wh := g.window.Size()
	dw, dh := g.window.DrawableSize()
	if ww <= 0 || wh <= 0 {
		return ev
	}
	ev.Pointer = math.Vec2{
		X: ev.Pointer.X * float32(dw) / float32(ww),
		Y: ev.Pointer.Y * float32(dh) / float32(wh),
	}
	return ev
}

// reloadConfig applies a pending config change. Window size and mode are
// only read at startup.
func (g *Game) reloadConfig() {
	if g.watcher == nil {
		return
	}
	cfg, ok := g.watcher.Poll()
	if !ok {
		return
	}
	if err := g.apply(cfg); err != nil {
		g.log.Warn("config reload rejected", zap.Error(err))
		return
	}
	g.log.Info("config reloaded")
}

func (g *Game) apply(cfg *config.Config) error {
	opts, err := loopOptions(cfg)
	if err != nil {
		return err
	}
	format, err := debug.ParseFormat(cfg.Debug.ScreenshotFormat)
	if err != nil {
		return err
	}
	w, h := g.camera.Size()
	if err := g.camera.UpdatePerspective(cfg.Camera.FOV, float32(w)/float32(h), cfg.Camera.Near, cfg.Camera.Far); err != nil {
		return err
	}
	g.camera.SetLegacyTranspose(cfg.Camera.LegacyTranspose)
	g.loop.SetOptions(opts)
	g.state.SetSpeed(cfg.Input.MoveSpeed)
	if g.config.Graphics.VSync != cfg.Graphics.VSync {
		g.window.SetVSync(cfg.Graphics.VSync)
	}
	g.screenshot.SetOutputDir(cfg.Debug.ScreenshotDir)
	g.screenshot.SetFormat(format)
	logger.SetLevel(cfg.Logging.Level)
	g.config = cfg
	return nil
}

// Close releases scene, GL and window resources.
func (g *Game) Close() {
	g.log.Info("closing")

	if g.watcher != nil {
		if err := g.watcher.Close(); err != nil {
			g.log.Warn("closing config watcher", zap.Error(err))
		}
	}
	if g.bounds != nil && g.device != nil {
		g.bounds.Release(g.device)
	}
	if g.scene != nil && g.device != nil {
		g.scene.Release(g.device)
	}
	if g.program != 0 {
		gl.DeleteProgram(g.program)
	}
	if g.device != nil {
		g.device.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
}

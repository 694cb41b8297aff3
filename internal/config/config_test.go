package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Camera.FOV != 45 {
		t.Errorf("expected fov 45, got %v", cfg.Camera.FOV)
	}
	if cfg.Camera.Near != 0.1 || cfg.Camera.Far != 100 {
		t.Errorf("expected clip 0.1..100, got %v..%v", cfg.Camera.Near, cfg.Camera.Far)
	}
	if cfg.Camera.LegacyTranspose {
		t.Error("expected legacy transpose to be off by default")
	}

	if cfg.Input.MoveSpeed != 5 {
		t.Errorf("expected move speed 5, got %v", cfg.Input.MoveSpeed)
	}
	if cfg.Picking.Mode != PickingSlab {
		t.Errorf("expected slab picking, got %s", cfg.Picking.Mode)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "stage.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

camera:
  fov: 60
  near: 0.5
  far: 500
  position: [0, 2, 10]
  legacy_transpose: true

input:
  move_speed: 12.5
  pointer_look: false

picking:
  mode: legacy
  max_distance: 40

logging:
  level: "debug"
  log_file: "stage.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.Title != "Midgard Stage" {
		t.Errorf("expected default title to survive merge, got %q", cfg.Graphics.Title)
	}

	if cfg.Camera.FOV != 60 || cfg.Camera.Near != 0.5 || cfg.Camera.Far != 500 {
		t.Errorf("unexpected camera %+v", cfg.Camera)
	}
	if cfg.Camera.Position != [3]float32{0, 2, 10} {
		t.Errorf("expected position [0 2 10], got %v", cfg.Camera.Position)
	}
	if !cfg.Camera.LegacyTranspose {
		t.Error("expected legacy transpose")
	}

	if cfg.Input.MoveSpeed != 12.5 {
		t.Errorf("expected move speed 12.5, got %v", cfg.Input.MoveSpeed)
	}
	if cfg.Input.PointerLook {
		t.Error("expected pointer look disabled")
	}
	if cfg.Input.LookSensitivity != 0.125 {
		t.Errorf("expected default look sensitivity to survive merge, got %v", cfg.Input.LookSensitivity)
	}

	if cfg.Picking.Mode != PickingLegacy || cfg.Picking.MaxDistance != 40 {
		t.Errorf("unexpected picking %+v", cfg.Picking)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "stage.log" {
		t.Errorf("expected log file 'stage.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/stage.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Graphics.Width = 0
	cfg.Camera.FOV = 180
	cfg.Camera.Near = 0
	cfg.Camera.Far = -1
	cfg.Picking.Mode = "sphere"
	cfg.Debug.ScreenshotFormat = "gif"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 6)
	assert.Contains(t, err.Error(), `screenshot format "gif"`)
	assert.Contains(t, err.Error(), "fov")
	assert.Contains(t, err.Error(), `unknown mode "sphere"`)
}

func TestValidateClipPlanes(t *testing.T) {
	tests := []struct {
		name      string
		near, far float32
		wantErr   bool
	}{
		{"valid", 0.1, 100, false},
		{"zero near", 0, 100, true},
		{"negative near", -1, 100, true},
		{"far equals near", 5, 5, true},
		{"far below near", 5, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Camera.Near = tt.near
			cfg.Camera.Far = tt.far
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "stage.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Error("expected to find stage.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "fov flag",
			setup: func() { *flagFOV = 70 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Camera.FOV != 70 {
					t.Errorf("expected fov 70, got %v", cfg.Camera.FOV)
				}
			},
			teardown: func() { *flagFOV = 0 },
		},
		{
			name:  "legacy flag",
			setup: func() { *flagLegacy = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Camera.LegacyTranspose || cfg.Picking.Mode != PickingLegacy {
					t.Errorf("expected legacy camera and picking, got %+v %+v", cfg.Camera, cfg.Picking)
				}
			},
			teardown: func() { *flagLegacy = false },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "stage.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, path, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if path != configPath {
		t.Errorf("expected path %s, got %s", configPath, path)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}

	// Height should be from file (900) since no flag override
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "stage.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("camera:\n  near: 10\n  far: 1\n"), 0644))

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	_, _, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "far")
}

func TestLoadFileReappliesFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera:\n  fov: 60\n"), 0644))

	*flagFOV = 80
	defer func() { *flagFOV = 0 }()

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, float32(80), cfg.Camera.FOV)
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stage.yaml")

	cfg := Default()
	cfg.Camera.FOV = 75
	cfg.Picking.Mode = PickingLegacy
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWatchDeliversReloadedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera:\n  fov: 45\n"), 0644))

	w, err := Watch(path)
	require.NoError(t, err)
	defer w.Close()

	_, pending := w.Poll()
	assert.False(t, pending, "no reload before the file changes")

	require.NoError(t, os.WriteFile(path, []byte("camera:\n  fov: 60\n"), 0644))

	// Truncate-then-write may surface an intermediate reload first.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-w.Updates():
			if cfg.Camera.FOV == 60 {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for config reload")
		}
	}
}

func TestWatchIgnoresInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera:\n  fov: 45\n"), 0644))

	w, err := Watch(path)
	require.NoError(t, err)
	defer w.Close()

	// Replace atomically so no truncated intermediate file is observed.
	tmp := filepath.Join(dir, "stage.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("camera:\n  fov: 500\n"), 0644))
	require.NoError(t, os.Rename(tmp, path))
	// A sibling file must not trigger a reload either.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644))

	time.Sleep(200 * time.Millisecond)
	_, pending := w.Poll()
	assert.False(t, pending)
}

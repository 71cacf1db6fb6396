package engine

import (
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/vkcube/engine/core"
)

const (
	DefaultWindowTitle  = "C Vulkan Renderer"
	DefaultWindowWidth  = 800
	DefaultWindowHeight = 600
)

type WindowConfig struct {
	Title string `toml:"title"`
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"x"`
	// Window starting position y axis, if applicable.
	StartPosY   uint32 `toml:"y"`
	StartWidth  uint32 `toml:"width"`
	StartHeight uint32 `toml:"height"`
}

type RendererConfig struct {
	Validation bool       `toml:"validation"`
	ClearColor [4]float32 `toml:"clear_color"`
	// Degrees the cube turns per rendered frame.
	RotationStep float32 `toml:"rotation_step"`
	WatchAssets  bool    `toml:"watch_assets"`
}

type AssetsConfig struct {
	Root           string `toml:"root"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	Texture        string `toml:"texture"`
}

type ApplicationConfig struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
	LogLevel string         `toml:"log_level"`
}

func DefaultConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Window: WindowConfig{
			Title:       DefaultWindowTitle,
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  DefaultWindowWidth,
			StartHeight: DefaultWindowHeight,
		},
		Renderer: RendererConfig{
			Validation:   true,
			ClearColor:   [4]float32{0.0, 0.0, 0.0, 1.0},
			RotationStep: 0.5,
			WatchAssets:  true,
		},
		Assets: AssetsConfig{
			Root:           ".",
			VertexShader:   "shaders/vert.spv",
			FragmentShader: "shaders/frag.spv",
			Texture:        "textures/texture.png",
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a TOML file on top of the defaults. A missing file is not an error.
func LoadConfig(path string) (*ApplicationConfig, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogDebug("no config at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening config %s", path)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Window.StartWidth == 0 || c.Window.StartHeight == 0 {
		return errors.Wrapf(core.ErrInvalidConfig, "window size %dx%d", c.Window.StartWidth, c.Window.StartHeight)
	}
	step := float64(c.Renderer.RotationStep)
	if math.IsNaN(step) || math.IsInf(step, 0) {
		return errors.Wrap(core.ErrInvalidConfig, "rotation_step must be finite")
	}
	if c.Assets.VertexShader == "" || c.Assets.FragmentShader == "" || c.Assets.Texture == "" {
		return errors.Wrap(core.ErrInvalidConfig, "asset paths must not be empty")
	}
	return nil
}

// AssetPath resolves a configured asset path against the asset root.
func (c *ApplicationConfig) AssetPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Assets.Root, p)
}

// Package config holds the sketch settings read from a JSON, TOML or YAML file.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"Sketch3D/internal/colors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

// EffectConfig names one post effect and its uniform overrides.
type EffectConfig struct {
	Name     string         `json:"name" toml:"name" yaml:"name"`
	Uniforms map[string]any `json:"uniforms,omitempty" toml:"uniforms,omitempty" yaml:"uniforms,omitempty"`
}

type Config struct {
	Width      int     `json:"width" toml:"width" yaml:"width"`
	Height     int     `json:"height" toml:"height" yaml:"height"`
	Title      string  `json:"title" toml:"title" yaml:"title"`
	// PixelRatio scales the browser canvas backing store; 0 uses the device ratio.
	PixelRatio float32 `json:"pixel_ratio" toml:"pixel_ratio" yaml:"pixel_ratio"`

	Loop bool `json:"loop" toml:"loop" yaml:"loop"`
	// FPS caps the frame rate; 0 follows the display refresh.
	FPS int `json:"fps" toml:"fps" yaml:"fps"`

	ClearColor string `json:"clear_color" toml:"clear_color" yaml:"clear_color"`
	DepthTest  bool   `json:"depth_test" toml:"depth_test" yaml:"depth_test"`

	Effects []EffectConfig `json:"effects,omitempty" toml:"effects,omitempty" yaml:"effects,omitempty"`
	Recycle bool           `json:"recycle" toml:"recycle" yaml:"recycle"`

	ShaderDir     string `json:"shader_dir,omitempty" toml:"shader_dir,omitempty" yaml:"shader_dir,omitempty"`
	LogLevel      string `json:"log_level" toml:"log_level" yaml:"log_level"`
	LoaderWorkers int    `json:"loader_workers" toml:"loader_workers" yaml:"loader_workers"`
}

func Default() Config {
	return Config{
		Width:         800,
		Height:        600,
		Title:         "Sketch3D",
		Loop:          true,
		ClearColor:    "#000000",
		DepthTest:     true,
		LogLevel:      "info",
		LoaderWorkers: 2,
	}
}

// Load reads path over Default(), so keys missing from the file keep their
// defaults. The format follows the extension.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%s: unknown config format %q", path, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first bad setting. Effect names are checked when the
// effects are applied.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height)
	case c.PixelRatio < 0:
		return fmt.Errorf("%w: pixel ratio %v", ErrInvalid, c.PixelRatio)
	case c.FPS < 0:
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.FPS)
	case c.LoaderWorkers < 0:
		return fmt.Errorf("%w: loader workers %d", ErrInvalid, c.LoaderWorkers)
	}
	for i, e := range c.Effects {
		if e.Name == "" {
			return fmt.Errorf("%w: effect %d has no name", ErrInvalid, i)
		}
	}
	if c.ClearColor != "" {
		if _, err := colors.Parse(c.ClearColor); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

// Clear returns the parsed clear color, opaque black when unset or invalid.
func (c Config) Clear() mgl32.Vec4 {
	v, err := colors.Parse(c.ClearColor)
	if err != nil {
		return mgl32.Vec4{0, 0, 0, 1}
	}
	return v
}

// Values converts decoded uniform values into types the renderer accepts.
// Integers become float32, arrays become []float32, and strings pass through
// as texture names. Values that cannot be converted are dropped.
func (e EffectConfig) Values() map[string]any {
	out := make(map[string]any, len(e.Uniforms))
	for k, v := range e.Uniforms {
		if conv, ok := uniformValue(v); ok {
			out[k] = conv
		}
	}
	return out
}

func uniformValue(v any) (any, bool) {
	switch t := v.(type) {
	case string, bool:
		return t, true
	case []any:
		out := make([]float32, 0, len(t))
		for _, item := range t {
			f, ok := scalar(item)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	}
	return scalar(v)
}

func scalar(v any) (float32, bool) {
	switch n := v.(type) {
	case float64:
		return float32(n), true
	case float32:
		return n, true
	case int:
		return float32(n), true
	case int64:
		return float32(n), true
	case uint64:
		return float32(n), true
	}
	return 0, false
}

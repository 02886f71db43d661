package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, cfg.Clear())
}

func TestLoadFormats(t *testing.T) {
	files := map[string]string{
		"sketch.json": `{"width": 320, "height": 240, "clear_color": "#ff0000", "recycle": true,
			"effects": [{"name": "grayscale", "uniforms": {"uAmount": 0.5}},
			            {"name": "fog", "uniforms": {"uFogColor": [1, 0.5, 0], "uFogDensity": 2}}]}`,
		"sketch.toml": `
width = 320
height = 240
clear_color = "#ff0000"
recycle = true

[[effects]]
name = "grayscale"
uniforms = { uAmount = 0.5 }

[[effects]]
name = "fog"
uniforms = { uFogColor = [1, 0.5, 0], uFogDensity = 2 }
`,
		"sketch.yaml": `
width: 320
height: 240
clear_color: "#ff0000"
recycle: true
effects:
  - name: grayscale
    uniforms: {uAmount: 0.5}
  - name: fog
    uniforms:
      uFogColor: [1, 0.5, 0]
      uFogDensity: 2
`,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(write(t, name, content))
			require.NoError(t, err)

			assert.Equal(t, 320, cfg.Width)
			assert.Equal(t, 240, cfg.Height)
			assert.True(t, cfg.Recycle)
			assert.Equal(t, "Sketch3D", cfg.Title, "missing keys keep defaults")
			assert.True(t, cfg.DepthTest)
			assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, cfg.Clear())

			require.Len(t, cfg.Effects, 2)
			assert.Equal(t, "grayscale", cfg.Effects[0].Name)
			assert.Equal(t, map[string]any{"uAmount": float32(0.5)}, cfg.Effects[0].Values())
			assert.Equal(t, map[string]any{
				"uFogColor":   []float32{1, 0.5, 0},
				"uFogDensity": float32(2),
			}, cfg.Effects[1].Values())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = Load(write(t, "sketch.ini", "width=1"))
	assert.Error(t, err)

	_, err = Load(write(t, "sketch.json", "{"))
	assert.Error(t, err)

	_, err = Load(write(t, "sketch.yml", "width: 0\n"))
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"height":  func(c *Config) { c.Height = -1 },
		"ratio":   func(c *Config) { c.PixelRatio = -2 },
		"fps":     func(c *Config) { c.FPS = -30 },
		"workers": func(c *Config) { c.LoaderWorkers = -1 },
		"color":   func(c *Config) { c.ClearColor = "not-a-color" },
		"effect":  func(c *Config) { c.Effects = []EffectConfig{{}} },
	} {
		cfg := Default()
		mutate(&cfg)
		assert.True(t, errors.Is(cfg.Validate(), ErrInvalid), name)
	}
}

func TestEffectValuesDropsUnknownTypes(t *testing.T) {
	e := EffectConfig{Name: "x", Uniforms: map[string]any{
		"uTex":   "noise",
		"uOn":    true,
		"uBad":   map[string]any{"a": 1},
		"uMixed": []any{1.0, "x"},
		"uCount": int64(3),
	}}
	assert.Equal(t, map[string]any{"uTex": "noise", "uOn": true, "uCount": float32(3)}, e.Values())
}

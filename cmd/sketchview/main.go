//go:build !js

// Command sketchview shows a model (or a cube) orbiting under the configured
// post effects.
package main

import (
	"fmt"
	"os"

	"Sketch3D/internal/config"
	"Sketch3D/internal/engine"
	"Sketch3D/internal/logger"
	"Sketch3D/internal/mesh"
	"Sketch3D/internal/scene"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	config   string
	effects  []string
	recycle  bool
	shaders  string
	capture  string
	frames   int
	logLevel string
}

func main() {
	var opts options
	if err := newCommand(&opts).Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sketchview [model.ply|model.obj]",
		Short: "Render a model with post-processing effects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			model := ""
			if len(args) == 1 {
				model = args[0]
			}
			return run(cfg, model, *opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "sketch config file (.json, .toml, .yaml)")
	f.StringArrayVarP(&opts.effects, "effect", "e", nil, "append a post effect; repeatable")
	f.BoolVar(&opts.recycle, "recycle", false, "feed each finished frame into the next")
	f.StringVar(&opts.shaders, "shaders", "", "directory of .vert/.frag overrides, reloaded on change")
	f.StringVar(&opts.capture, "capture", "", "save the first frame to this .png or .webp file")
	f.IntVar(&opts.frames, "frames", 0, "quit after this many frames (0 runs until closed)")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	return cmd
}

// load reads the config file and applies the flags that were set on top of it.
func (o options) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.config != "" {
		var err error
		if cfg, err = config.Load(o.config); err != nil {
			return cfg, err
		}
	}
	for _, name := range o.effects {
		cfg.Effects = append(cfg.Effects, config.EffectConfig{Name: name})
	}
	if cmd.Flags().Changed("recycle") {
		cfg.Recycle = o.recycle
	}
	if o.shaders != "" {
		cfg.ShaderDir = o.shaders
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config, model string, opts options) error {
	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Named("sketchview")

	win, err := engine.OpenWindow(cfg, logger.Log)
	if err != nil {
		log.Error("Window failed", zap.Error(err))
		return err
	}
	s, err := engine.New(win, cfg, logger.Log)
	if err != nil {
		win.Close()
		return err
	}

	var subject *scene.Node
	s.Setup = func(s *engine.Sketch) {
		pivot := s.Scene.CreateChildNode("pivot")
		s.Scene.Camera.SetParent(pivot)
		s.Scene.Camera.SetPosition(0, 1.5, 4)

		if model == "" {
			subject, _ = s.AddMesh(s.Shapes.Palette(s.Shapes.Cube(1.5)))
			return
		}
		s.Loader.Load(model, func(m *mesh.Raw) {
			m.Normalize(2)
			if len(m.Vertices) > 0 && m.Vertices[0]["normal"] == nil && len(m.Faces) > 0 {
				m.ComputeVertexNormals()
			}
			n, err := s.AddMesh(m)
			if err != nil {
				log.Error("Model upload failed", zap.String("path", model), zap.Error(err))
				return
			}
			log.Info("Model ready", zap.String("path", model), zap.String("mesh", n.Geometry))
			subject = n
		})
	}
	s.Draw = func(s *engine.Sketch, dt float64) {
		if opts.frames > 0 && s.FrameCount() >= opts.frames {
			s.Dispose()
			return
		}
		s.Scene.Camera.Parent().Rotate(0, float32(0.01*dt), 0)
		if subject != nil {
			wobble := s.Noise.Noise1D(float64(s.FrameCount()) * 0.01)
			subject.Rotate(0, 0, float32(wobble*0.02*dt))
		}
		if err := s.DrawScene(); err != nil {
			log.Debug("Scene incomplete", zap.Error(err))
		}
	}
	if opts.capture != "" {
		s.Capture(opts.capture)
	}

	s.Run()
	return nil
}

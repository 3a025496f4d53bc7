package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/substrate/internal/ctxlog"
	"github.com/specialistvlad/substrate/internal/layer"
	"github.com/specialistvlad/substrate/internal/manifest"
	"github.com/specialistvlad/substrate/internal/variable"
	"github.com/specialistvlad/substrate/layers/envlayer"
	"github.com/specialistvlad/substrate/layers/hclfile"
	"github.com/specialistvlad/substrate/layers/tomlfile"
	"github.com/specialistvlad/substrate/layers/yamlfile"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle: declared variables, assembled layers, and the resolution loop.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	vars   []*variable.Variable
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and the
// variables declared by the manifest.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	vars, err := manifest.Load(ctx, cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load variable manifests: %w", err)
	}
	logger.Debug("Variable manifests loaded.", "variables", len(vars))

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		vars:   vars,
	}, nil
}

// buildLayers assembles fresh layer instances from the configured refs, in
// priority order. File layers re-read their files, so a rebuild picks up
// edits.
func (a *App) buildLayers(ctx context.Context) ([]layer.Layer, error) {
	logger := ctxlog.FromContext(ctx)

	layers := make([]layer.Layer, 0, len(a.config.Layers))
	for _, ref := range a.config.Layers {
		name := fmt.Sprintf("%s:%s", ref.Kind, ref.Value)
		var (
			l   layer.Layer
			err error
		)
		switch ref.Kind {
		case KindHCL:
			l, err = hclfile.New(name, ref.Value)
		case KindYAML:
			l, err = yamlfile.New(name, ref.Value)
		case KindTOML:
			l, err = tomlfile.New(name, ref.Value)
		case KindEnv:
			l = envlayer.New(name, ref.Value, nil)
		default:
			err = fmt.Errorf("unknown layer kind %q", ref.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("building layer %s: %w", name, err)
		}
		logger.Debug("Layer assembled.", "layer", name)
		layers = append(layers, l)
	}
	return layers, nil
}

// watchPaths returns the file paths backing file layers, for watch mode.
func (a *App) watchPaths() []string {
	var paths []string
	for _, ref := range a.config.Layers {
		switch ref.Kind {
		case KindHCL, KindYAML, KindTOML:
			paths = append(paths, ref.Value)
		}
	}
	return paths
}

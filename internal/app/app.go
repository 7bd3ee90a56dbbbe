// Package app is the shared bootstrap for the example programs: it loads
// configuration, builds loggers, serves metrics and runs a graph in a window.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/phanxgames/fabric"
	"github.com/phanxgames/fabric/config"
	"github.com/phanxgames/fabric/internal/logger"
	"github.com/phanxgames/fabric/metrics"
)

// BuildFunc wires the example's graph. update, when non-nil, runs once per
// tick before drawing.
type BuildFunc func(cfg *config.Config, log zerolog.Logger) (g *fabric.Graph, update func() error, err error)

// App holds the resources shared by one example run.
type App struct {
	Name   string
	Config *config.Config
	Log    zerolog.Logger

	script     *fabric.Script
	registry   *prometheus.Registry
	observer   fabric.FrameObserver
	httpServer *http.Server
}

// Options are the command-line inputs shared by every program.
type Options struct {
	ConfigFile string
	EnvFile    string
	ScriptFile string
}

// New loads configuration and creates the application logger. A script file,
// when given, is parsed for unattended runs.
func New(name string, opts Options) (*App, error) {
	cfgOpts := []config.Option{config.WithEnvFile(opts.EnvFile)}
	if opts.ConfigFile != "" {
		cfgOpts = append(cfgOpts, config.WithConfigFile(opts.ConfigFile))
	}
	cfg, err := config.Load(cfgOpts...)
	if err != nil {
		return nil, err
	}

	a := &App{Name: name, Config: cfg, Log: logger.New(cfg.Log, name)}
	if opts.ScriptFile != "" {
		data, err := os.ReadFile(opts.ScriptFile)
		if err != nil {
			return nil, fmt.Errorf("reading script: %w", err)
		}
		if a.script, err = fabric.LoadScript(data); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Command returns the root command of a program: it parses the shared flags,
// then builds and runs the graph.
func Command(name, short string, build BuildFunc) *cobra.Command {
	var opts Options
	cmd := &cobra.Command{
		Use:           name,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			a, err := New(name, opts)
			if err != nil {
				return err
			}
			return a.Run(build)
		},
	}
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.EnvFile, "env", ".env", "path to a .env file")
	cmd.Flags().StringVar(&opts.ScriptFile, "script", "", "path to a JSON step script")
	return cmd
}

// setupMetrics creates the frame observers. With metrics disabled the frame
// statistics still reach OpenTelemetry through the global meter provider.
func (a *App) setupMetrics() error {
	o, err := metrics.NewOTel(otel.Meter("github.com/phanxgames/fabric/" + a.Name))
	if err != nil {
		return fmt.Errorf("creating otel instruments: %w", err)
	}
	if !a.Config.Metrics.Enabled {
		a.observer = o
		return nil
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	p := metrics.NewPrometheus(a.registry, a.Config.Metrics.Namespace)
	a.observer = metrics.Multi{p, o}
	return nil
}

// startMetricsServer serves /metrics in the background when enabled.
func (a *App) startMetricsServer() {
	if a.registry == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(a.registry))
	a.httpServer = &http.Server{
		Addr:              a.Config.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.Log.Info().Str("addr", a.Config.Metrics.Addr).Msg("metrics server starting")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func (a *App) stopMetricsServer() {
	if a.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.Log.Error().Err(err).Msg("metrics server shutdown failed")
	}
}

// Executor builds the renderer and executor for g from the loaded settings.
func (a *App) Executor(g *fabric.Graph) (*fabric.GraphExecutor, error) {
	if a.observer == nil {
		if err := a.setupMetrics(); err != nil {
			return nil, err
		}
	}
	r := fabric.NewSceneRenderer()
	r.ClearColor = a.Config.Render.Color()
	r.Ambient = a.Config.Render.Ambient

	return fabric.NewGraphExecutor(g, r,
		fabric.WithLogger(logger.New(a.Config.Log, "")),
		fabric.WithMetrics(a.observer),
		fabric.WithDebug(a.Config.Render.Debug),
	), nil
}

// Run builds the graph and drives it until the window closes.
func (a *App) Run(build BuildFunc) error {
	g, update, err := build(a.Config, a.Log)
	if err != nil {
		return fmt.Errorf("building graph: %w", err)
	}
	exec, err := a.Executor(g)
	if err != nil {
		return err
	}

	a.startMetricsServer()
	defer a.stopMetricsServer()

	rc := a.Config.RunConfig()
	rc.Update = update
	rc.Script = a.script
	a.Log.Info().
		Int("nodes", g.Len()).
		Int("links", len(g.Connections())).
		Str("title", rc.Title).
		Msg("starting")
	if err := fabric.Run(exec, rc); err != nil {
		return err
	}
	a.Log.Info().Uint64("frames", exec.FrameNumber()).Msg("stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/FuadModaresi/music-analysis/internal/analysis"
	"github.com/FuadModaresi/music-analysis/internal/audio"
	"github.com/FuadModaresi/music-analysis/internal/config"
	"github.com/FuadModaresi/music-analysis/internal/logger"
	"github.com/FuadModaresi/music-analysis/internal/server"
)

type serveOptions struct {
	*rootOptions
	configPath string
	envFile    string
	watch      bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", os.Getenv("MUSIC_ANALYSIS_CONFIG"), "YAML or JSON configuration file")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	cmd.Flags().BoolVar(&opts.watch, "watch", true, "reload the configuration file when it changes")
	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return err
	}

	manager := config.NewManager(logger.Default())
	if err := manager.Load(opts.configPath); err != nil {
		return err
	}
	cfg := manager.Get()

	root := logger.New(logger.Options{
		Name:   "music-analysis",
		Level:  firstNonEmpty(opts.logLevel, cfg.Logging.Level),
		Format: firstNonEmpty(opts.logFormat, cfg.Logging.Format),
	})
	logger.SetDefault(root)
	manager.SetLogger(root)

	reader := audio.NewReader(root, readerOptions(cfg.Analysis, root)...)
	service := analysis.NewService(reader, analysisSettings(cfg.Analysis, root), root)

	manager.AddWatcher(func(oldConfig, newConfig *config.Config) {
		service.ApplySettings(analysisSettings(newConfig.Analysis, root))
		if opts.logLevel == "" && oldConfig.Logging.Level != newConfig.Logging.Level {
			logger.SetLevel(newConfig.Logging.Level)
			root.Info("log level changed", "level", newConfig.Logging.Level)
		}
		if !reflect.DeepEqual(oldConfig.Server, newConfig.Server) || oldConfig.Analysis.FFProbeEnabled != newConfig.Analysis.FFProbeEnabled {
			root.Warn("server and ffprobe settings take effect after a restart")
		}
	})

	if opts.watch && manager.Path() != "" {
		go func() {
			if err := manager.Watch(ctx); err != nil {
				root.Error("configuration watcher stopped", "error", err)
			}
		}()
	}

	router := server.SetupRouter(server.Deps{
		Analyzer:  service,
		Config:    cfg.Server,
		Logger:    root,
		StartedAt: time.Now(),
	})
	srv := server.New(cfg.Server, router)

	root.Info("starting music-analysis",
		"addr", srv.Addr,
		"note_mode", cfg.Analysis.NoteMode,
		"ffprobe", cfg.Analysis.FFProbeEnabled,
		"config", manager.Path())
	if err := server.ListenAndServe(ctx, srv, root.Named("server")); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func readerOptions(cfg config.AnalysisConfig, log hclog.Logger) []audio.Option {
	if !cfg.FFProbeEnabled {
		return nil
	}
	return []audio.Option{
		audio.WithFFProbe(audio.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout, log)),
	}
}

func analysisSettings(cfg config.AnalysisConfig, log hclog.Logger) analysis.Settings {
	mode, err := analysis.ParseMode(cfg.NoteMode)
	if err != nil {
		log.Warn("falling back to random notes", "error", err)
		mode = analysis.ModeRandom
	}
	return analysis.Settings{
		NoteMode:       mode,
		NoteSeed:       cfg.NoteSeed,
		WaveformPoints: cfg.WaveformPoints,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package commands

import (
	"log/slog"

	"github.com/leapstack-labs/crickflat/internal/cli/config"
	"github.com/leapstack-labs/crickflat/internal/cli/output"
	sharedcfg "github.com/leapstack-labs/crickflat/internal/config"
	"github.com/leapstack-labs/crickflat/internal/engine"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	eng, err := createEngine(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// getConfig returns the loaded configuration, or defaults when no
// configuration has been loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	target := sharedcfg.DefaultTarget()
	target.ApplyDefaults()
	return &config.Config{
		SourceDir:    config.DefaultSourceDir,
		ExportDir:    config.DefaultExportDir,
		StatePath:    config.DefaultStateFile,
		Environment:  config.DefaultEnv,
		OutputFormat: config.DefaultOutput,
		Target:       target,
	}
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	return engine.New(engine.Config{
		SourceDir:     cfg.SourceDir,
		ExportDir:     cfg.ExportDir,
		StatePath:     cfg.StatePath,
		AdapterConfig: cfg.Target.AdapterConfig(),
		Logger:        logger,
	})
}

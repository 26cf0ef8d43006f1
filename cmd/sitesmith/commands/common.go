package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitesmith/internal/config"
	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
	"git.home.luguber.info/inful/sitesmith/internal/site"
)

// LogLevelEnv overrides the log level chosen by --verbose.
const LogLevelEnv = "SITESMITH_LOG_LEVEL"

// Global is shared by every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitesmith.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site, blog, docs and assets"`
	Serve ServeCmd `cmd:"" help:"Build, serve with live reload and rebuild on change"`
	Test  TestCmd  `cmd:"" help:"Build everything once and exit non-zero on any failure"`
	Nav   NavCmd   `cmd:"" help:"Print the navigation tree of a docs version as JSON"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := parseLogLevel(c.Verbose, os.Getenv(LogLevelEnv))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func parseLogLevel(verbose bool, env string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// loadConfig reads .env files next to the config file, then the config
// itself. This is the only place the process environment is consulted.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	loaded, err := config.LoadDotEnv(filepath.Dir(path))
	if err != nil {
		return nil, serrors.ConfigInvalid(path, err)
	}
	for _, f := range loaded {
		logger.Debug("Loaded environment file", logfields.File(f))
	}
	cfg, err := config.Load(path, os.Getenv)
	if err != nil {
		return nil, err
	}
	logger.Info("Configuration loaded",
		logfields.Path(cfg.Paths.Root),
		slog.String("mode", cfg.Mode),
		slog.String("profile", cfg.ProfileName))
	return cfg, nil
}

func newBuilder(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder, strict bool) *site.Builder {
	return site.NewBuilder(cfg, site.Options{
		Recorder:     recorder,
		Logger:       logger,
		StrictStyles: strict,
	})
}

// Exit logs err and returns the process exit code for it.
func Exit(err error, verbose bool) int {
	if err == nil {
		return 0
	}
	adapter := serrors.NewCLIErrorAdapter(verbose, slog.Default())
	adapter.Log(err)
	return adapter.ExitCodeFor(err)
}

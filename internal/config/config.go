// Package config holds the site configuration. A Config is constructed once
// at process start and passed down; nothing below the CLI reads the process
// environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
)

// DefaultFileName is the configuration file looked up when none is given.
const DefaultFileName = "sitesmith.yaml"

// Config is the complete site configuration.
type Config struct {
	Site   SiteConfig   `yaml:"site"`
	Paths  PathsConfig  `yaml:"paths"`
	Docs   DocsConfig   `yaml:"docs"`
	Blog   BlogConfig   `yaml:"blog"`
	Server ServerConfig `yaml:"server"`
	Assets AssetsConfig `yaml:"assets"`

	// Mode is the raw environment name (SITE_ENV, else NODE_ENV). Empty when
	// neither is set.
	Mode string `yaml:"-"`
	// ProfileName is the env.json entry actually used after fallback.
	ProfileName string `yaml:"-"`
	// Profile holds the environment-specific values.
	Profile Profile `yaml:"-"`
}

// SiteConfig describes the site as a whole.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	// EnvFile is the environment-keyed JSON file providing the Profile.
	EnvFile string `yaml:"env_file"`
}

// PathsConfig lists source and output locations, relative to Root.
type PathsConfig struct {
	Root    string   `yaml:"root"`
	Source  string   `yaml:"source"`
	Build   string   `yaml:"build"`
	Layouts string   `yaml:"layouts"`
	Partial []string `yaml:"partials"` // extra directories whose changes rebuild every page
	Docs    string   `yaml:"docs"`
	Blog    string   `yaml:"blog"`
	Events  string   `yaml:"events"`
	Styles  string   `yaml:"styles"`
	Scripts string   `yaml:"scripts"`
	Assets  string   `yaml:"assets"`
}

// DocsConfig selects the documentation versions to build.
type DocsConfig struct {
	Versions      []string `yaml:"versions"`
	Current       string   `yaml:"current"`
	DefaultLayout string   `yaml:"default_layout"`
}

// BlogConfig controls the blog outputs.
type BlogConfig struct {
	Permalink       string `yaml:"permalink"`
	PostsPath       string `yaml:"posts_path"`
	SearchIndexPath string `yaml:"search_index_path"`
	TagPath         string `yaml:"tag_path"`
	TagLayout       string `yaml:"tag_layout"`
	FeedPath        string `yaml:"feed_path"`
	FeedLimit       int    `yaml:"feed_limit"`
	DateFormat      string `yaml:"date_format"`
	// Layout wraps posts that do not name their own.
	Layout string `yaml:"layout"`
}

// AssetsConfig controls styles and scripts.
type AssetsConfig struct {
	// SassBinary is the dart-sass executable; empty searches PATH.
	SassBinary string `yaml:"sass_binary"`
	Bundle     string `yaml:"bundle"`
}

// ServerConfig controls the dev server and watch loop.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	QuietWindow     time.Duration `yaml:"quiet_window"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Heartbeat       time.Duration `yaml:"heartbeat"`
}

// Getenv looks up an environment variable. The CLI passes os.Getenv.
type Getenv func(string) string

// Load reads the YAML file at path, expands ${VAR} references, applies
// defaults, resolves the environment profile and validates the result. A
// missing file yields the defaults. Relative paths resolve against the
// directory holding the file.
func Load(path string, getenv Getenv) (*Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	cfg := &Config{}
	if path != "" {
		cfg.Paths.Root = filepath.Dir(path)
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			slog.Debug("Configuration file not found, using defaults", slog.String("path", path))
		case err != nil:
			return nil, serrors.ConfigInvalid(path, fmt.Errorf("read: %w", err))
		default:
			expanded := os.Expand(string(data), getenv)
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, serrors.ConfigInvalid(path, fmt.Errorf("parse: %w", err))
			}
			if !filepath.IsAbs(cfg.Paths.Root) {
				cfg.Paths.Root = filepath.Join(filepath.Dir(path), cfg.Paths.Root)
			}
		}
	}
	applyDefaults(cfg)

	cfg.Mode = ModeFromEnv(getenv)
	profile, name, err := LoadProfile(cfg.Path(cfg.Site.EnvFile), cfg.Mode)
	if err != nil {
		slog.Warn("Environment profile fallback", slog.String("mode", cfg.Mode), slog.String("profile", name), slog.String("error", err.Error()))
	}
	cfg.Profile, cfg.ProfileName = profile, name

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ModeFromEnv returns SITE_ENV, else NODE_ENV.
func ModeFromEnv(getenv Getenv) string {
	if getenv == nil {
		return ""
	}
	if v := getenv("SITE_ENV"); v != "" {
		return v
	}
	return getenv("NODE_ENV")
}

// Production reports whether assets should be minified.
func (c *Config) Production() bool {
	return c.Mode == ProfileProduction
}

// Path resolves p against the project root. Absolute paths pass through.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.Root, p)
}

// BuildDir is the resolved output root.
func (c *Config) BuildDir() string { return c.Path(c.Paths.Build) }

// DocsOutput is the output directory of one docs version.
func (c *Config) DocsOutput(version string) string {
	return filepath.Join(c.BuildDir(), "docs", version)
}

// Addr is the dev server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	required := map[string]string{
		"paths.source":  c.Paths.Source,
		"paths.build":   c.Paths.Build,
		"paths.layouts": c.Paths.Layouts,
	}
	for _, field := range []string{"paths.source", "paths.build", "paths.layouts"} {
		if required[field] == "" {
			return serrors.ValidationFailed(field, "must not be empty")
		}
	}
	if len(c.Docs.Versions) > 0 && !slices.Contains(c.Docs.Versions, c.Docs.Current) {
		return serrors.ValidationFailed("docs.current",
			fmt.Sprintf("%q is not one of the configured versions %v", c.Docs.Current, c.Docs.Versions))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return serrors.ValidationFailed("server.port", fmt.Sprintf("%d out of range", c.Server.Port))
	}
	if c.Blog.FeedLimit < 1 {
		return serrors.ValidationFailed("blog.feed_limit", "must be positive")
	}
	if c.Server.MaxDelay < c.Server.QuietWindow {
		return serrors.ValidationFailed("server.max_delay", "must not be shorter than server.quiet_window")
	}
	return nil
}

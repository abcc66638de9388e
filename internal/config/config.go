package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepub/internal/catalog"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "sitepub.yaml"

// Config represents the application configuration.
type Config struct {
	// BaseDir is the directory catalog sources are relative to. Relative
	// values are resolved against the directory of the configuration file.
	BaseDir  string          `yaml:"base_dir,omitempty"`
	Build    BuildConfig     `yaml:"build"`
	Catalog  []catalog.Entry `yaml:"catalog"`
	Convert  ConvertConfig   `yaml:"convert"`
	Minify   MinifyConfig    `yaml:"minify"`
	Annotate AnnotateConfig  `yaml:"annotate"`
	Compress CompressConfig  `yaml:"compress"`
	Publish  PublishConfig   `yaml:"publish"`
	History  HistoryConfig   `yaml:"history,omitempty"`
	Metrics  MetricsConfig   `yaml:"metrics,omitempty"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// BuildConfig locates the build directory.
type BuildConfig struct {
	// Directory is resolved against BaseDir. It defaults to a per-site
	// directory under the system temp directory.
	Directory string `yaml:"directory,omitempty"`
}

// ConvertConfig configures Markdown conversion.
type ConvertConfig struct {
	Highlight      *bool  `yaml:"highlight,omitempty"`
	HighlightStyle string `yaml:"highlight_style,omitempty"`
}

// HighlightEnabled reports whether code highlighting is on (default true).
func (c ConvertConfig) HighlightEnabled() bool {
	return c.Highlight == nil || *c.Highlight
}

// MinifyConfig selects and configures the minifier.
type MinifyConfig struct {
	Backend     MinifyBackend   `yaml:"backend"`
	Endpoints   EndpointsConfig `yaml:"endpoints,omitempty"`
	ErrorMarker string          `yaml:"error_marker,omitempty"`
	// Timeout bounds each request to a remote minifier, e.g. "30s". Empty
	// means no deadline beyond the transport defaults.
	Timeout string `yaml:"timeout,omitempty"`
}

// EndpointsConfig holds the remote minifier URL per artifact kind.
type EndpointsConfig struct {
	Markup string `yaml:"markup,omitempty"`
	Style  string `yaml:"style,omitempty"`
	Script string `yaml:"script,omitempty"`
}

// AnnotateConfig configures the provenance comment.
type AnnotateConfig struct {
	SourceURL string `yaml:"source_url,omitempty"`
}

// CompressConfig configures the gzip siblings.
type CompressConfig struct {
	Suffix string `yaml:"suffix,omitempty"`
	// Level is a gzip level from 1 to 9.
	Level int `yaml:"level,omitempty"`
}

// PublishConfig configures the publish step.
type PublishConfig struct {
	Branch  string         `yaml:"branch"`
	Backend PublishBackend `yaml:"backend"`
	Purge   []string       `yaml:"purge,omitempty"`
	Message string         `yaml:"message,omitempty"`
	Author  AuthorConfig   `yaml:"author,omitempty"`
}

// AuthorConfig is the publish commit author. When empty the exec backend
// uses git's own user configuration.
type AuthorConfig struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// HistoryConfig enables the SQLite run ledger.
type HistoryConfig struct {
	// Path is resolved against BaseDir. Empty disables the ledger.
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is resolved against BaseDir. Empty disables the export.
	Textfile string `yaml:"textfile,omitempty"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, foundationerrors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				WithContext("hint", "run `sitepub init` to create one").
				Build()
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to parse config file").
			WithContext("path", configPath).
			Build()
	}

	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "cannot resolve config path").Build()
	}
	if err := finish(&cfg, filepath.Dir(absConfig)); err != nil {
		return nil, err
	}
	slog.Debug("Configuration loaded", logfields.Path(absConfig), slog.Int("artifacts", len(cfg.Catalog)))
	return &cfg, nil
}

// Default returns the configuration used when no file exists: the built-in
// catalog with sources in dir.
func Default(dir string) (*Config, error) {
	loadEnvFiles(dir)
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "cannot resolve base directory").Build()
	}
	cfg := &Config{Catalog: catalog.Default()}
	if err := finish(cfg, absDir); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config, configDir string) error {
	switch {
	case cfg.BaseDir == "":
		cfg.BaseDir = configDir
	case !filepath.IsAbs(cfg.BaseDir):
		cfg.BaseDir = filepath.Join(configDir, cfg.BaseDir)
	}
	cfg.BaseDir = filepath.Clean(cfg.BaseDir)

	if err := NewDefaultApplier().ApplyDefaults(cfg); err != nil {
		return err
	}
	return Validate(cfg)
}

// SetBaseDir replaces the base directory, as done by the --base-dir flag.
// A build directory still at its default follows the new base directory.
func (c *Config) SetBaseDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "cannot resolve base directory").
			WithContext("path", dir).
			Build()
	}
	if c.Build.Directory == DefaultBuildDir(c.BaseDir) {
		c.Build.Directory = DefaultBuildDir(abs)
	}
	c.BaseDir = abs
	return nil
}

// Resolve returns p resolved against the base directory. Empty stays empty.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Init creates a new configuration file seeded with the default catalog.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return foundationerrors.ConfigError("configuration file already exists").
			WithContext("path", configPath).
			WithContext("hint", "use --force to overwrite").
			Build()
	}

	highlight := true
	// build.directory stays unset so builds land under the system temp dir,
	// outside the work tree that gets published.
	example := Config{
		Catalog: catalog.Default(),
		Convert: ConvertConfig{Highlight: &highlight, HighlightStyle: "github"},
		Minify: MinifyConfig{
			Backend: MinifyBackendRemote,
			Endpoints: EndpointsConfig{
				Markup: "https://html-minifier.com/raw",
				Style:  "https://cssminifier.com/raw",
				Script: "https://javascript-minifier.com/raw",
			},
			ErrorMarker: "// Error",
		},
		Annotate: AnnotateConfig{SourceURL: "https://github.com/Nik89/CanOverhead"},
		Compress: CompressConfig{Suffix: ".gz", Level: 9},
		Publish: PublishConfig{
			Branch:  "gh-pages",
			Backend: PublishBackendExec,
			Purge:   []string{"*.html", "*.css", "*.js", "*.md", "*.gz", "*.yml"},
			Message: "Publish site built from {revision}",
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// String renders the effective configuration as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return string(data)
}

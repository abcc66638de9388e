package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default values applied when a field is left empty.
const (
	DefaultHighlightStyle = "github"
	DefaultSourceURL      = "https://github.com/Nik89/CanOverhead"
	DefaultCompressSuffix = ".gz"
	DefaultCompressLevel  = 9
	DefaultPublishBranch  = "gh-pages"
	DefaultPublishMessage = "Publish site built from {revision}"
)

// DefaultPurge is the set of top-level patterns removed from the publish
// branch before copying in a new build.
var DefaultPurge = []string{"*.html", "*.css", "*.js", "*.md", "*.gz", "*.yml"}

// DefaultBuildDir returns the build directory used when none is configured:
// a directory named after the base directory under the system temp dir.
func DefaultBuildDir(baseDir string) string {
	return filepath.Join(os.TempDir(), "sitepub", filepath.Base(baseDir))
}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&BuildDefaultApplier{},
			&ConvertDefaultApplier{},
			&MinifyDefaultApplier{},
			&AnnotateDefaultApplier{},
			&CompressDefaultApplier{},
			&PublishDefaultApplier{},
			&LoggingDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// BuildDefaultApplier handles build directory defaults.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if strings.TrimSpace(cfg.Build.Directory) == "" {
		cfg.Build.Directory = DefaultBuildDir(cfg.BaseDir)
	}
	return nil
}

// ConvertDefaultApplier handles Markdown conversion defaults.
type ConvertDefaultApplier struct{}

func (c *ConvertDefaultApplier) Domain() string { return "convert" }

func (c *ConvertDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Convert.HighlightStyle == "" {
		cfg.Convert.HighlightStyle = DefaultHighlightStyle
	}
	return nil
}

// MinifyDefaultApplier normalizes the backend name. Endpoints and marker
// defaults live with the remote minifier.
type MinifyDefaultApplier struct{}

func (m *MinifyDefaultApplier) Domain() string { return "minify" }

func (m *MinifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Minify.Backend == "" {
		cfg.Minify.Backend = MinifyBackendRemote
	}
	return nil
}

// AnnotateDefaultApplier handles provenance comment defaults.
type AnnotateDefaultApplier struct{}

func (a *AnnotateDefaultApplier) Domain() string { return "annotate" }

func (a *AnnotateDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Annotate.SourceURL == "" {
		cfg.Annotate.SourceURL = DefaultSourceURL
	}
	return nil
}

// CompressDefaultApplier handles gzip sibling defaults.
type CompressDefaultApplier struct{}

func (c *CompressDefaultApplier) Domain() string { return "compress" }

func (c *CompressDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Compress.Suffix == "" {
		cfg.Compress.Suffix = DefaultCompressSuffix
	}
	if cfg.Compress.Level == 0 {
		cfg.Compress.Level = DefaultCompressLevel
	}
	return nil
}

// PublishDefaultApplier handles publish defaults.
type PublishDefaultApplier struct{}

func (p *PublishDefaultApplier) Domain() string { return "publish" }

func (p *PublishDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Publish.Branch == "" {
		cfg.Publish.Branch = DefaultPublishBranch
	}
	if cfg.Publish.Backend == "" {
		cfg.Publish.Backend = PublishBackendExec
	}
	if cfg.Publish.Purge == nil {
		cfg.Publish.Purge = append([]string(nil), DefaultPurge...)
	}
	if cfg.Publish.Message == "" {
		cfg.Publish.Message = DefaultPublishMessage
	}
	return nil
}

// LoggingDefaultApplier normalizes level and format.
type LoggingDefaultApplier struct{}

func (l *LoggingDefaultApplier) Domain() string { return "logging" }

func (l *LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitepub/internal/build"
	"git.home.luguber.info/inful/sitepub/internal/catalog"
	"git.home.luguber.info/inful/sitepub/internal/config"
	"git.home.luguber.info/inful/sitepub/internal/git"
	"git.home.luguber.info/inful/sitepub/internal/history"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/markdown"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
	"git.home.luguber.info/inful/sitepub/internal/minify"
	"git.home.luguber.info/inful/sitepub/internal/publish"
)

// LogLevelEnv overrides the configured and flag-selected log level.
const LogLevelEnv = "SITEPUB_LOG_LEVEL"

// Global carries state shared by subcommands.
type Global struct {
	// Recorder is created on first use; Prometheus when metrics.textfile is
	// configured, otherwise a no-op.
	Recorder metrics.Recorder
	prom     *metrics.PrometheusRecorder
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitepub.yaml"`
	BaseDir string           `name:"base-dir" help:"Directory catalog sources are relative to (overrides base_dir)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Build the site (default command)"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild whenever a catalog source changes (never publishes)"`
	History HistoryCmd `cmd:"" help:"List recorded builds and publishes"`
}

// AfterApply runs after flag parsing; set up logging once the flags are known.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.setupLogging(config.LogLevelInfo, config.LogFormatText)
	return nil
}

// setupLogging installs the default slog handler on stderr. The verbose flag
// and SITEPUB_LOG_LEVEL take precedence over the configured level.
func (c *CLI) setupLogging(level config.LogLevel, format config.LogFormat) {
	if c.Verbose {
		level = config.LogLevelDebug
	}
	if env := strings.TrimSpace(os.Getenv(LogLevelEnv)); env != "" {
		level = config.NormalizeLogLevel(env)
	}
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// LoadConfig loads the configuration file. When the default file does not
// exist, the built-in catalog is used with sources in the base directory.
func (c *CLI) LoadConfig() (*config.Config, error) {
	path := c.Config
	if isDefaultConfigPath(path) && c.BaseDir != "" {
		path = filepath.Join(c.BaseDir, config.DefaultFile)
	}

	var (
		cfg *config.Config
		err error
	)
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) && isDefaultConfigPath(c.Config) {
		dir := c.BaseDir
		if dir == "" {
			dir = "."
		}
		slog.Debug("No configuration file, using built-in catalog", logfields.Path(path))
		cfg, err = config.Default(dir)
	} else {
		cfg, err = config.Load(path)
		if err == nil && c.BaseDir != "" {
			err = cfg.SetBaseDir(c.BaseDir)
		}
	}
	if err != nil {
		return nil, err
	}
	c.setupLogging(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func isDefaultConfigPath(p string) bool {
	return p == config.DefaultFile
}

// recorder returns the metrics recorder for cfg.
func (g *Global) recorder(cfg *config.Config) metrics.Recorder {
	if g.Recorder != nil {
		return g.Recorder
	}
	if cfg.Metrics.Textfile == "" {
		g.Recorder = metrics.NoopRecorder{}
		return g.Recorder
	}
	g.prom = metrics.NewPrometheusRecorder(nil)
	g.Recorder = g.prom
	return g.Recorder
}

// flushMetrics writes the textfile when Prometheus metrics were collected.
func (g *Global) flushMetrics(cfg *config.Config) {
	if g.prom == nil {
		return
	}
	path := cfg.Resolve(cfg.Metrics.Textfile)
	if err := metrics.WriteTextfile(g.prom.Registry(), path); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
		return
	}
	slog.Debug("Wrote metrics textfile", logfields.Path(path))
}

// newBuildService wires the build service for cfg.
func newBuildService(cfg *config.Config, rec metrics.Recorder) (*build.DefaultBuildService, error) {
	cat, err := catalog.New(cfg.BaseDir, cfg.Catalog)
	if err != nil {
		return nil, err
	}

	endpoints := map[catalog.Kind]string{}
	for kind, url := range map[catalog.Kind]string{
		catalog.KindMarkup: cfg.Minify.Endpoints.Markup,
		catalog.KindStyle:  cfg.Minify.Endpoints.Style,
		catalog.KindScript: cfg.Minify.Endpoints.Script,
	} {
		if url != "" {
			endpoints[kind] = url
		}
	}
	minifier, err := minify.New(minify.Backend(cfg.Minify.Backend), minify.RemoteConfig{
		Endpoints:   endpoints,
		ErrorMarker: cfg.Minify.ErrorMarker,
		Client:      &http.Client{Timeout: cfg.MinifyTimeout()},
	})
	if err != nil {
		return nil, err
	}

	converter := markdown.NewGoldmarkConverter(markdown.Options{
		Highlight:      cfg.Convert.HighlightEnabled(),
		HighlightStyle: cfg.Convert.HighlightStyle,
		LinkTargets:    build.DocumentLinkTargets(cat),
	})

	return build.NewBuildService(cat, build.Options{
		BuildDir:       cfg.Build.Directory,
		SourceURL:      cfg.Annotate.SourceURL,
		CompressSuffix: cfg.Compress.Suffix,
		CompressLevel:  cfg.Compress.Level,
	}).
		WithConverter(converter).
		WithMinifier(minifier).
		WithRecorder(rec), nil
}

// newRepository returns the git backend selected by publish.backend.
func newRepository(cfg *config.Config) git.Repository {
	if cfg.Publish.Backend == config.PublishBackendGoGit {
		return git.NewGoGitRepository(cfg.BaseDir)
	}
	return git.NewExecRepository(cfg.BaseDir, nil)
}

func newPublisher(cfg *config.Config, rec metrics.Recorder) *publish.Publisher {
	return publish.New(newRepository(cfg), publish.Options{
		Branch:  cfg.Publish.Branch,
		Purge:   cfg.Publish.Purge,
		Message: cfg.Publish.Message,
		Author:  git.Signature{Name: cfg.Publish.Author.Name, Email: cfg.Publish.Author.Email},
	}).WithRecorder(rec)
}

// recordHistory appends the run to the ledger when history.path is set.
// Ledger failures are logged and never fail the command.
func recordHistory(ctx context.Context, cfg *config.Config, b *build.Result, p *publish.Result, runErr error) {
	if cfg.History.Path == "" {
		return
	}
	path := cfg.Resolve(cfg.History.Path)
	store, err := history.Open(path)
	if err != nil {
		slog.Warn("Failed to open history ledger", logfields.Path(path), logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	run := history.NewRun(b, p, runErr)
	if run.SourceRevision == "" {
		if rev, revErr := git.ReadRepoHead(cfg.BaseDir); revErr == nil {
			run.SourceRevision = rev
		}
	}
	if _, err := store.Record(ctx, run); err != nil {
		slog.Warn("Failed to record run", logfields.Path(path), logfields.Error(err))
	}
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitepub/internal/build"
	"git.home.luguber.info/inful/sitepub/internal/config"
	"git.home.luguber.info/inful/sitepub/internal/publish"
)

// BuildCmd implements the default 'build' command.
type BuildCmd struct {
	Publish  bool   `short:"p" help:"Publish the build to the publish branch after a successful build"`
	BuildDir string `name:"build-dir" help:"Override build.directory"`

	out io.Writer
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if b.BuildDir != "" {
		cfg.Build.Directory = b.BuildDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, _, err = RunBuild(ctx, g, cfg, b.Publish, b.stdout())
	return err
}

func (b *BuildCmd) stdout() io.Writer {
	if b.out != nil {
		return b.out
	}
	return os.Stdout
}

// RunBuild builds the site and, when publishing is requested and the build
// succeeded, publishes it. The run is recorded in the history ledger and
// metrics are flushed whatever the outcome.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config, doPublish bool, out io.Writer) (*build.Result, *publish.Result, error) {
	rec := g.recorder(cfg)
	defer g.flushMetrics(cfg)

	svc, err := newBuildService(cfg, rec)
	if err != nil {
		return nil, nil, err
	}

	res, err := svc.Run(ctx)
	if err != nil {
		recordHistory(ctx, cfg, res, nil, err)
		return res, nil, err
	}
	_, _ = fmt.Fprintf(out, "Built %d files into %s (build %s, %s)\n",
		len(res.Files()), res.OutputDir, res.BuildID, res.Duration.Round(time.Millisecond))

	if !doPublish {
		recordHistory(ctx, cfg, res, nil, nil)
		return res, nil, nil
	}

	pres, err := newPublisher(cfg, rec).Publish(ctx, res)
	recordHistory(ctx, cfg, res, pres, err)
	if err != nil {
		return res, pres, err
	}
	if pres.Unchanged {
		_, _ = fmt.Fprintf(out, "Published output unchanged on %s, nothing committed\n", pres.Branch)
	} else {
		_, _ = fmt.Fprintf(out, "Published %s to %s from %s; back on %s\n",
			short(pres.Commit), pres.Branch, short(pres.SourceRevision), pres.OriginalBranch)
	}
	return res, pres, nil
}

func short(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

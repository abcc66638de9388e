package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce time.Duration `help:"Quiet period before rebuilding" default:"500ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A failing first build is reported but watching starts anyway so the
	// user can fix the sources.
	if _, _, err := RunBuild(ctx, g, cfg, false, os.Stdout); err != nil {
		slog.Error("Initial build failed", logfields.Error(err))
	}

	files := make([]string, 0, len(cfg.Catalog)+1)
	for _, e := range cfg.Catalog {
		files = append(files, filepath.Join(cfg.BaseDir, e.Source))
	}
	if _, err := os.Stat(root.Config); err == nil {
		files = append(files, root.Config)
	}

	watcher, err := watch.New(files, w.Debounce, func(ctx context.Context, changed []string) error {
		// Reload so edits to the configuration apply; the watched set stays
		// as it was at startup.
		current, err := root.LoadConfig()
		if err != nil {
			return err
		}
		_, _, err = RunBuild(ctx, g, current, false, os.Stdout)
		return err
	})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

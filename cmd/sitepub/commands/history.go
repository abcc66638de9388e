package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitepub/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit         int    `short:"n" help:"Number of runs to show" default:"20"`
	BuildID       string `name:"build-id" help:"Show the runs of one build" xor:"select"`
	LastPublished bool   `name:"last-published" help:"Show the newest run that committed to the publish branch" xor:"select"`

	out io.Writer
}

// HistoryQuery selects the runs RunHistory prints. BuildID and LastPublished
// take precedence over Limit.
type HistoryQuery struct {
	Limit         int
	BuildID       string
	LastPublished bool
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	out := h.out
	if out == nil {
		out = os.Stdout
	}
	return RunHistory(context.Background(), cfg, HistoryQuery{
		Limit:         h.Limit,
		BuildID:       h.BuildID,
		LastPublished: h.LastPublished,
	}, out)
}

// RunHistory prints the runs selected by q from the ledger as a table.
func RunHistory(ctx context.Context, cfg *config.Config, q HistoryQuery, out io.Writer) error {
	if cfg.History.Path == "" {
		return foundationerrors.ConfigError("history is not enabled").
			WithContext("hint", "set history.path in the configuration").
			Build()
	}
	path := cfg.Resolve(cfg.History.Path)
	if _, err := os.Stat(path); err != nil {
		_, _ = fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot open history ledger").
			WithContext("path", path).
			Build()
	}
	defer func() { _ = store.Close() }()

	runs, err := queryRuns(ctx, store, q)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "cannot read history ledger").
			WithContext("path", path).
			Build()
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, emptyMessage(q))
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tBUILD\tSTATUS\tPUBLISH\tCOMMIT\tSOURCE\tDURATION")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			short(r.BuildID),
			buildColumn(r),
			publishColumn(r),
			dash(short(r.Commit)),
			dash(short(r.SourceRevision)),
			r.Duration.Round(time.Millisecond))
	}
	return tw.Flush()
}

func queryRuns(ctx context.Context, store *history.Store, q HistoryQuery) ([]history.Run, error) {
	switch {
	case q.BuildID != "":
		return store.GetByBuildID(ctx, q.BuildID)
	case q.LastPublished:
		run, ok, err := store.LastPublished(ctx)
		if err != nil || !ok {
			return nil, err
		}
		return []history.Run{run}, nil
	default:
		return store.List(ctx, q.Limit)
	}
}

func emptyMessage(q HistoryQuery) string {
	switch {
	case q.BuildID != "":
		return "No runs recorded for build " + q.BuildID + "."
	case q.LastPublished:
		return "Nothing has been published yet."
	default:
		return "No runs recorded yet."
	}
}

func buildColumn(r history.Run) string {
	if r.FailedStage != "" {
		return r.BuildStatus + " (" + r.FailedStage + ")"
	}
	return dash(r.BuildStatus)
}

func publishColumn(r history.Run) string {
	switch {
	case !r.Published:
		return "-"
	case r.Unchanged:
		return "unchanged"
	case r.Succeeded():
		return "published"
	default:
		return "failed after " + r.PublishState
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitepub/cmd/sitepub/commands"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitepub"),
		kong.Description("Build a small static site and optionally publish it to a git branch."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)
	if err := parser.Run(&commands.Global{}, cli); err != nil {
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}

package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitesmith/cmd/sitesmith/commands"
	"git.home.luguber.info/inful/sitesmith/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitesmith"),
		kong.Description("Build, test and serve the static site, blog and versioned docs."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	os.Exit(commands.Exit(err, cli.Verbose))
}

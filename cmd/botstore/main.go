// Command botstore runs and maintains the community bot store: the admin API
// with the reminder dispatcher, schema migration, vacuum and table stats.
package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/tbourn/go-community-store/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	os.Exit(run(os.Args[1:], &cli.BasicUi{Reader: os.Stdin, Writer: os.Stdout, ErrorWriter: os.Stderr}))
}

func run(args []string, ui cli.Ui) int {
	app := cli.NewCLI("botstore", sysutil.FirstNonEmpty(version, "dev"))
	app.Args = args
	app.Commands = commands(ui)

	status, err := app.Run()
	if err != nil {
		ui.Error(fmt.Sprintf("Error: %v", err))
	}
	return status
}

func commands(ui cli.Ui) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"serve":   staticFactory(&ServeCommand{Ui: ui}),
		"migrate": staticFactory(&MigrateCommand{Ui: ui}),
		"vacuum":  staticFactory(&VacuumCommand{Ui: ui}),
		"stats":   staticFactory(&StatsCommand{Ui: ui}),
	}
}

func staticFactory(c cli.Command) cli.CommandFactory {
	return func() (cli.Command, error) { return c, nil }
}

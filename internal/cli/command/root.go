// Package command provides CLI command definitions for cachemesh-cli.
//
// It uses urfave/cli/v2 for command parsing.
package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/cachemesh-go/internal/cli/connection"
	"github.com/yndnr/cachemesh-go/internal/cli/output"
	"github.com/yndnr/cachemesh-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "cachemesh-cli",
		Usage:   "CacheMesh command-line management tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			TopologyCommand(),
			MembersCommand(),
			SystemCommand(),
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "CacheMesh server address (e.g., localhost:5080)",
			EnvVars: []string{"CACHEMESH_SERVER"},
			Value:   "localhost:5080",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json",
			Value:   "table",
		},
	}
}

// clientFor builds the HTTP client from the global flags.
func clientFor(c *cli.Context) *connection.HTTPClient {
	return connection.NewHTTPClient(c.String("server"))
}

// formatterFor builds the output formatter from the global flags.
func formatterFor(c *cli.Context) output.Formatter {
	return output.NewFormatter(output.Format(c.String("output")))
}

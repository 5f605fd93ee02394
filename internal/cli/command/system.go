// Package command provides CLI command definitions for cachemesh-cli.
package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/cachemesh-go/internal/cli/output"
)

// MembersCommand returns the members command.
func MembersCommand() *cli.Command {
	return &cli.Command{
		Name:   "members",
		Usage:  "List cluster members",
		Action: membersList,
	}
}

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:  "system",
		Usage: "Server health and version",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:   "version",
				Usage:  "Show server version",
				Action: systemVersion,
			},
		},
	}
}

func membersList(c *cli.Context) error {
	var resp struct {
		Members []struct {
			Node    string `json:"node"`
			Addr    string `json:"addr"`
			APIAddr string `json:"api_addr"`
		} `json:"members"`
	}
	if err := clientFor(c).GetJSON(c.Context, "/v1/members", &resp); err != nil {
		return err
	}

	if output.Format(c.String("output")) == output.FormatJSON {
		return formatterFor(c).Format(c.App.Writer, resp)
	}

	table := output.Table{Headers: []string{"NODE", "GOSSIP ADDR", "API ADDR"}}
	for _, m := range resp.Members {
		table.Rows = append(table.Rows, []string{m.Node, m.Addr, m.APIAddr})
	}
	return formatterFor(c).Format(c.App.Writer, table)
}

func systemHealth(c *cli.Context) error {
	var resp map[string]string
	if err := clientFor(c).GetJSON(c.Context, "/health", &resp); err != nil {
		return err
	}
	return formatterFor(c).Format(c.App.Writer, resp)
}

func systemVersion(c *cli.Context) error {
	var resp map[string]string
	if err := clientFor(c).GetJSON(c.Context, "/version", &resp); err != nil {
		return err
	}
	return formatterFor(c).Format(c.App.Writer, resp)
}
